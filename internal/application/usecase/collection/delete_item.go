package collection

import (
	"context"
	"net/http"
	"strings"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/khoahotran/provenpro/internal/application/profilecache"
	"github.com/khoahotran/provenpro/internal/domain/collection"
	"github.com/khoahotran/provenpro/internal/domain/profile"
	"github.com/khoahotran/provenpro/pkg/apperror"
	"github.com/khoahotran/provenpro/pkg/logger"
	"github.com/khoahotran/provenpro/pkg/metrics"
)

type DeleteState string

const (
	StateIdle      DeleteState = "idle"
	StateDeleting  DeleteState = "deleting"
	StateConfirmed DeleteState = "confirmed"
	StateFailed    DeleteState = "failed"
)

// TransitionFunc observes delete state changes of one kind.
type TransitionFunc func(kind string, from, to DeleteState)

type DeleteItemUseCase struct {
	gateway profile.Gateway
	cache   *profilecache.Cache
	sync    *SyncUseCase
	metrics *metrics.Recorder
	logger  logger.Logger

	mu           sync.Mutex
	states       map[string]DeleteState
	onTransition TransitionFunc
}

func NewDeleteItemUseCase(
	gw profile.Gateway,
	cache *profilecache.Cache,
	syncUC *SyncUseCase,
	rec *metrics.Recorder,
	log logger.Logger,
) *DeleteItemUseCase {
	return &DeleteItemUseCase{
		gateway: gw,
		cache:   cache,
		sync:    syncUC,
		metrics: rec,
		logger:  log,
		states:  map[string]DeleteState{},
	}
}

type DeleteInput struct {
	Kind collection.Kind
	ID   string
}

type DeleteOutput struct {
	Success  bool
	Message  string
	Snapshot profile.Snapshot
}

// OnTransition registers fn to be called on every state change. Must be set
// before the first Execute.
func (uc *DeleteItemUseCase) OnTransition(fn TransitionFunc) {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	uc.onTransition = fn
}

// State reports where the last delete of kind stands.
func (uc *DeleteItemUseCase) State(kind string) DeleteState {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	if s, ok := uc.states[kind]; ok {
		return s
	}
	return StateIdle
}

// Execute removes one item through the per-kind delete endpoint and then
// brings the shared snapshot in line with the server. Draft and cache are
// left untouched when any step fails.
func (uc *DeleteItemUseCase) Execute(ctx context.Context, in DeleteInput) (*DeleteOutput, error) {
	id := strings.TrimSpace(in.ID)
	if id == "" {
		uc.metrics.ObserveDelete(in.Kind.Name, metrics.OutcomeRejected)
		return nil, apperror.NewMissingIdentifier(in.Kind.Name)
	}

	ctx, span := tracer.Start(ctx, "collection.DeleteItem", trace.WithAttributes(
		attribute.String("item.kind", in.Kind.Name),
		attribute.String("item.id", id),
	))
	defer span.End()

	log := uc.logger.With(zap.String("kind", in.Kind.Name), zap.String("item_id", id))
	uc.transition(in.Kind.Name, StateDeleting)

	out, err := uc.execute(ctx, in.Kind, id)
	if err != nil {
		uc.metrics.ObserveDelete(in.Kind.Name, metrics.OutcomeFailed)
		span.RecordError(err)
		span.SetStatus(codes.Error, "delete failed")
		log.Warn("Item delete failed", zap.Error(err))
		uc.transition(in.Kind.Name, StateFailed)
		uc.transition(in.Kind.Name, StateIdle)
		return nil, err
	}

	uc.metrics.ObserveDelete(in.Kind.Name, metrics.OutcomeOK)
	log.Info("Item deleted", zap.Uint64("version", out.Snapshot.Version))
	uc.transition(in.Kind.Name, StateConfirmed)
	uc.transition(in.Kind.Name, StateIdle)
	return out, nil
}

func (uc *DeleteItemUseCase) execute(ctx context.Context, kind collection.Kind, id string) (*DeleteOutput, error) {
	res, err := uc.gateway.DeleteItem(ctx, kind.Name, id)
	if err != nil {
		return nil, err
	}
	if !res.Success {
		msg := res.Message
		if msg == "" {
			msg = kind.Name + " could not be deleted"
		}
		return nil, apperror.NewServer(http.StatusOK, msg)
	}

	if kind.Media {
		snap, err := uc.refetch(ctx)
		if err != nil {
			return nil, err
		}
		return &DeleteOutput{Success: true, Message: res.Message, Snapshot: snap}, nil
	}

	remaining, err := uc.remaining(kind)
	if err != nil {
		return nil, err
	}
	synced, err := uc.sync.persist(ctx, kind, remaining.WithoutID(id), nil, profile.EventItemDeleted, id)
	if err != nil {
		return nil, err
	}
	// A superseded sync still means the server dropped the item.
	if store, ok := uc.sync.workspace.Existing(kind.Name); ok && !store.Closed() {
		store.RemoveByID(id)
	}
	return &DeleteOutput{Success: true, Message: res.Message, Snapshot: synced.Snapshot}, nil
}

// remaining is the collection the deleted item is filtered out of: the open
// draft if there is one, the cached field otherwise.
func (uc *DeleteItemUseCase) remaining(kind collection.Kind) (collection.Collection, error) {
	if store, ok := uc.sync.workspace.Existing(kind.Name); ok && !store.Closed() {
		return store.Working(), nil
	}
	c, err := uc.cache.Get().Collection(kind)
	if err != nil {
		return nil, apperror.NewInternal("decode cached "+kind.Field, err)
	}
	return c, nil
}

func (uc *DeleteItemUseCase) refetch(ctx context.Context) (profile.Snapshot, error) {
	ticket := uc.cache.Ticket()
	snap, err := uc.gateway.Fetch(ctx, uc.cache.Get().ID())
	if err != nil {
		return profile.Snapshot{}, err
	}
	cached, applied := uc.cache.ReplaceAll(ticket, snap)
	if applied {
		uc.sync.publish(profile.NewEvent(profile.EventSnapshotReplaced, cached.ID(), "", cached.Version, nil))
	}
	return cached, nil
}

func (uc *DeleteItemUseCase) transition(kind string, to DeleteState) {
	uc.mu.Lock()
	from, ok := uc.states[kind]
	if !ok {
		from = StateIdle
	}
	uc.states[kind] = to
	fn := uc.onTransition
	uc.mu.Unlock()

	if fn != nil {
		fn(kind, from, to)
	}
}
