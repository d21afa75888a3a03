package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/khoahotran/provenpro/internal/domain/profile"
	"github.com/khoahotran/provenpro/pkg/logger"
)

type EventPublisher interface {
	PublishProfileEvent(ctx context.Context, evt profile.Event) error
}

// NopPublisher is used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) PublishProfileEvent(context.Context, profile.Event) error { return nil }

const publishTimeout = 5 * time.Second

// PublishAsync hands evt to pub in the background. Failures are logged only;
// the profile change they describe has already been confirmed.
func PublishAsync(pub EventPublisher, evt profile.Event, log logger.Logger) {
	if pub == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()
		if err := pub.PublishProfileEvent(ctx, evt); err != nil {
			log.Error("Failed to publish profile event", err,
				zap.String("event_type", string(evt.EventType)), zap.String("field", evt.Field))
		}
	}()
}
