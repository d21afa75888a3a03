package session

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/khoahotran/provenpro/internal/application/profilecache"
	"github.com/khoahotran/provenpro/internal/application/service"
	"github.com/khoahotran/provenpro/internal/application/usecase/draft"
	"github.com/khoahotran/provenpro/internal/domain/profile"
	"github.com/khoahotran/provenpro/pkg/apperror"
	"github.com/khoahotran/provenpro/pkg/auth"
	"github.com/khoahotran/provenpro/pkg/logger"
)

// fallbackTTL applies to tokens without an exp claim.
const fallbackTTL = 24 * time.Hour

type SessionUseCase struct {
	tokens    profile.TokenStore
	inspector *auth.JWTInspector
	cache     *profilecache.Cache
	workspace *draft.Workspace
	publisher service.EventPublisher
	logger    logger.Logger
}

func NewSessionUseCase(
	tokens profile.TokenStore,
	inspector *auth.JWTInspector,
	cache *profilecache.Cache,
	ws *draft.Workspace,
	pub service.EventPublisher,
	log logger.Logger,
) *SessionUseCase {
	return &SessionUseCase{
		tokens:    tokens,
		inspector: inspector,
		cache:     cache,
		workspace: ws,
		publisher: pub,
		logger:    log,
	}
}

type SaveTokenInput struct {
	Token string
}

type SaveTokenOutput struct {
	Subject   string
	ExpiresAt time.Time
}

func (uc *SessionUseCase) ExecuteSaveToken(ctx context.Context, input SaveTokenInput) (*SaveTokenOutput, error) {
	token := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(input.Token), "Bearer "))
	if token == "" {
		return nil, apperror.NewValidation("token", "token is required")
	}

	claims, err := uc.inspector.Inspect(token)
	if err != nil {
		if errors.Is(err, auth.ErrExpiredToken) {
			return nil, apperror.NewValidation("token", "token has expired")
		}
		return nil, apperror.NewValidation("token", "token is not a valid JWT")
	}

	ttl := claims.TTL(time.Now())
	if ttl == 0 {
		ttl = fallbackTTL
	}
	if err := uc.tokens.Save(ctx, token, ttl); err != nil {
		return nil, apperror.NewInternal("failed to store token", err)
	}

	uc.logger.Info("Session token stored", zap.String("subject", claims.Subject), zap.Duration("ttl", ttl))
	return &SaveTokenOutput{Subject: claims.Subject, ExpiresAt: claims.ExpiresAt}, nil
}

// ExecuteLogout forgets the token and drops every piece of local profile state.
func (uc *SessionUseCase) ExecuteLogout(ctx context.Context) error {
	profileID := uc.cache.Get().ID()

	if err := uc.tokens.Clear(ctx); err != nil {
		return apperror.NewInternal("failed to clear token", err)
	}
	uc.workspace.Reset()
	uc.cache.Reset()

	service.PublishAsync(uc.publisher, profile.NewEvent(profile.EventReset, profileID, "", uc.cache.Get().Version, nil), uc.logger)
	uc.logger.Info("Session cleared", zap.String("profile_id", profileID))
	return nil
}
