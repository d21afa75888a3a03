package collection

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/khoahotran/provenpro/internal/application/profilecache"
	"github.com/khoahotran/provenpro/internal/application/service"
	"github.com/khoahotran/provenpro/internal/application/usecase/draft"
	"github.com/khoahotran/provenpro/internal/domain/collection"
	"github.com/khoahotran/provenpro/internal/domain/profile"
	"github.com/khoahotran/provenpro/pkg/apperror"
	"github.com/khoahotran/provenpro/pkg/logger"
	"github.com/khoahotran/provenpro/pkg/metrics"
)

var tracer = otel.Tracer("github.com/khoahotran/provenpro/usecase/collection")

type SyncUseCase struct {
	gateway             profile.Gateway
	cache               *profilecache.Cache
	workspace           *draft.Workspace
	publisher           service.EventPublisher
	metrics             *metrics.Recorder
	defaultSubscription string
	logger              logger.Logger
}

func NewSyncUseCase(
	gw profile.Gateway,
	cache *profilecache.Cache,
	ws *draft.Workspace,
	pub service.EventPublisher,
	rec *metrics.Recorder,
	defaultSubscription string,
	log logger.Logger,
) *SyncUseCase {
	return &SyncUseCase{
		gateway:             gw,
		cache:               cache,
		workspace:           ws,
		publisher:           pub,
		metrics:             rec,
		defaultSubscription: defaultSubscription,
		logger:              log,
	}
}

type SyncInput struct {
	Kind       collection.Kind
	Collection collection.Collection
	// Patch carries other top-level profile fields to send along.
	Patch profile.Payload
}

type SyncOutput struct {
	Snapshot   profile.Snapshot
	Collection collection.Collection
	// Applied is false when the response was superseded before it landed.
	Applied bool
}

// Execute replaces one collection of the profile with in.Collection and, once
// the profile service confirms, stores the server's version of the field.
// Nothing local changes when the request fails.
func (uc *SyncUseCase) Execute(ctx context.Context, in SyncInput) (*SyncOutput, error) {
	if in.Kind.Media {
		return nil, apperror.NewValidation("kind", in.Kind.Name+" is not a collection")
	}
	deduped := collection.Dedupe(in.Collection, in.Kind.KeyFields)
	return uc.persist(ctx, in.Kind, deduped, in.Patch, profile.EventFieldSynced, "")
}

func (uc *SyncUseCase) persist(
	ctx context.Context,
	kind collection.Kind,
	items collection.Collection,
	patch profile.Payload,
	evtType profile.EventType,
	itemID string,
) (*SyncOutput, error) {
	ctx, span := tracer.Start(ctx, "collection.Sync", trace.WithAttributes(
		attribute.String("profile.field", kind.Field),
		attribute.Int("collection.size", len(items)),
	))
	defer span.End()

	log := uc.logger.With(zap.String("field", kind.Field))

	encoded, err := kind.Encode(items)
	if err != nil {
		uc.metrics.ObserveSync(kind.Field, metrics.OutcomeRejected, 0)
		return nil, apperror.NewInternal("encode collection", err)
	}
	payload := uc.payload(kind, encoded, patch)

	ticket := uc.cache.Ticket()
	start := time.Now()
	snap, err := uc.gateway.Update(ctx, payload)
	if err != nil {
		uc.metrics.ObserveSync(kind.Field, metrics.OutcomeFailed, time.Since(start))
		span.RecordError(err)
		span.SetStatus(codes.Error, "profile update failed")
		log.Warn("Collection sync failed", zap.Error(err))
		return nil, err
	}

	raw, ok := snap.Fields[kind.Field]
	if !ok {
		log.Warn("Profile service response lacks the synced field, keeping the sent value")
		raw = encoded
	}
	confirmed, err := kind.Decode(raw)
	if err != nil {
		uc.metrics.ObserveSync(kind.Field, metrics.OutcomeFailed, time.Since(start))
		span.RecordError(err)
		return nil, apperror.NewServer(http.StatusOK, "profile service returned an unreadable "+kind.Field)
	}

	cached, applied := uc.cache.ApplyField(ticket, kind.Field, raw)
	if !applied {
		uc.metrics.ObserveSync(kind.Field, metrics.OutcomeStale, time.Since(start))
		log.Info("Sync response superseded, cache left as is")
		return &SyncOutput{Snapshot: cached, Collection: confirmed, Applied: false}, nil
	}
	uc.metrics.ObserveSync(kind.Field, metrics.OutcomeOK, time.Since(start))

	if store, ok := uc.workspace.Existing(kind.Name); ok {
		if !store.LoadIfOpen(confirmed) {
			log.Debug("Draft store closed before sync completed")
		}
	}

	evt := profile.NewEvent(evtType, cached.ID(), kind.Field, cached.Version, raw)
	evt.ItemID = itemID
	uc.publish(evt)

	log.Info("Collection synced", zap.Int("items", len(confirmed)), zap.Uint64("version", cached.Version))
	return &SyncOutput{Snapshot: cached, Collection: confirmed, Applied: true}, nil
}

// payload builds the whole-profile update: the collection, the fields the
// backend requires on every write, and the caller's patch.
func (uc *SyncUseCase) payload(kind collection.Kind, encoded json.RawMessage, patch profile.Payload) profile.Payload {
	p := make(profile.Payload, len(patch)+2)
	for k, v := range patch {
		p[k] = v
	}
	p[kind.Field] = encoded

	if _, ok := p[profile.FieldSubscriptionType]; !ok {
		sub := uc.cache.Get().SubscriptionType()
		if sub == "" {
			sub = uc.defaultSubscription
		}
		p[profile.FieldSubscriptionType] = sub
	}
	return p
}

func (uc *SyncUseCase) publish(evt profile.Event) {
	service.PublishAsync(uc.publisher, evt, uc.logger)
}
