package profile

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/khoahotran/provenpro/internal/application/profilecache"
	"github.com/khoahotran/provenpro/internal/application/service"
	"github.com/khoahotran/provenpro/internal/domain/profile"
	"github.com/khoahotran/provenpro/pkg/apperror"
	"github.com/khoahotran/provenpro/pkg/logger"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
)

type ProfileUseCase struct {
	gateway             profile.Gateway
	cache               *profilecache.Cache
	history             profile.HistoryRepository
	publisher           service.EventPublisher
	defaultSubscription string
	logger              logger.Logger

	fetches singleflight.Group
}

func NewProfileUseCase(
	gw profile.Gateway,
	cache *profilecache.Cache,
	history profile.HistoryRepository,
	pub service.EventPublisher,
	defaultSubscription string,
	log logger.Logger,
) *ProfileUseCase {
	return &ProfileUseCase{
		gateway:             gw,
		cache:               cache,
		history:             history,
		publisher:           pub,
		defaultSubscription: defaultSubscription,
		logger:              log,
	}
}

type FetchInput struct {
	ProfileID string
	// Force skips the cache and always asks the profile service.
	Force bool
}

type FetchOutput struct {
	Snapshot profile.Snapshot
	// Fresh is true when the snapshot came from the profile service.
	Fresh bool
}

func (uc *ProfileUseCase) ExecuteFetch(ctx context.Context, input FetchInput) (*FetchOutput, error) {
	if !input.Force {
		if cached := uc.cache.Get(); !cached.IsEmpty() {
			if input.ProfileID == "" || input.ProfileID == cached.ID() {
				return &FetchOutput{Snapshot: cached}, nil
			}
		}
	}

	// the shared fetch outlives any single caller's cancellation
	fetchCtx := context.WithoutCancel(ctx)
	ch := uc.fetches.DoChan("fetch:"+input.ProfileID, func() (any, error) {
		ticket := uc.cache.Ticket()
		snap, err := uc.gateway.Fetch(fetchCtx, input.ProfileID)
		if err != nil {
			return nil, err
		}
		cached, applied := uc.cache.ReplaceAll(ticket, snap)
		if applied {
			uc.publish(profile.NewEvent(profile.EventSnapshotReplaced, cached.ID(), "", cached.Version, nil))
		}
		return cached, nil
	})

	var res singleflight.Result
	select {
	case <-ctx.Done():
		return nil, apperror.NewNetwork("profile fetch canceled", ctx.Err())
	case res = <-ch:
	}
	if res.Err != nil {
		uc.logger.Warn("Profile fetch failed", zap.String("profile_id", input.ProfileID), zap.Error(res.Err))
		return nil, res.Err
	}
	snap := res.Val.(profile.Snapshot)
	uc.logger.Debug("Profile fetched", zap.Uint64("version", snap.Version), zap.Bool("shared", res.Shared))
	return &FetchOutput{Snapshot: snap.Clone(), Fresh: true}, nil
}

type SubmitStepInput struct {
	Fields profile.Payload
}

// ExecuteSubmitStep sends one step of the multi-step profile creation form.
// The answer replaces the whole cached snapshot.
func (uc *ProfileUseCase) ExecuteSubmitStep(ctx context.Context, input SubmitStepInput) (*FetchOutput, error) {
	if len(input.Fields) == 0 {
		return nil, apperror.NewValidation("fields", "at least one profile field is required")
	}
	payload := make(profile.Payload, len(input.Fields)+1)
	for k, v := range input.Fields {
		if strings.TrimSpace(k) == "" {
			return nil, apperror.NewValidation("fields", "field names cannot be blank")
		}
		payload[k] = v
	}
	if _, ok := payload[profile.FieldSubscriptionType]; !ok {
		sub := uc.cache.Get().SubscriptionType()
		if sub == "" {
			sub = uc.defaultSubscription
		}
		payload[profile.FieldSubscriptionType] = sub
	}

	ticket := uc.cache.Ticket()
	snap, err := uc.gateway.Create(ctx, payload)
	if err != nil {
		uc.logger.Warn("Profile step submission failed", zap.Error(err))
		return nil, err
	}
	cached, applied := uc.cache.ReplaceAll(ticket, snap)
	if applied {
		uc.publish(profile.NewEvent(profile.EventSnapshotReplaced, cached.ID(), "", cached.Version, nil))
	}
	uc.logger.Info("Profile step submitted", zap.Int("fields", len(input.Fields)), zap.Bool("applied", applied))
	return &FetchOutput{Snapshot: cached, Fresh: true}, nil
}

type HistoryInput struct {
	Field string
	Limit int
}

type HistoryOutput struct {
	Entries []*profile.HistoryEntry
}

// ExecuteHistory lists archived server-confirmed values of one field of the
// cached profile, newest first.
func (uc *ProfileUseCase) ExecuteHistory(ctx context.Context, input HistoryInput) (*HistoryOutput, error) {
	if uc.history == nil {
		return nil, apperror.NewInternal("profile history is not configured", nil)
	}
	field := strings.TrimSpace(input.Field)
	if field == "" {
		return nil, apperror.NewValidation("field", "field is required")
	}
	profileID := uc.cache.Get().ID()
	if profileID == "" {
		return nil, apperror.NewNotFound("profile", "current")
	}

	limit := input.Limit
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	limit = min(limit, maxHistoryLimit)

	entries, err := uc.history.ListByField(ctx, profileID, field, limit)
	if err != nil {
		return nil, fmt.Errorf("list profile history failed: %w", err)
	}
	return &HistoryOutput{Entries: entries}, nil
}

func (uc *ProfileUseCase) publish(evt profile.Event) {
	service.PublishAsync(uc.publisher, evt, uc.logger)
}
