package main

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/khoahotran/provenpro/internal/domain/profile"
	"github.com/khoahotran/provenpro/pkg/logger"
)

const maxArchiveBackoff = 30 * time.Second

type archiveFunc func(ctx context.Context, evt profile.Event) (bool, error)

// archiveUntilDone retries a failed archive until it succeeds or ctx ends.
// The offset must not be committed while an event is unarchived.
func archiveUntilDone(ctx context.Context, archive archiveFunc, evt profile.Event, backoff time.Duration, log logger.Logger) (bool, error) {
	for attempt := 1; ; attempt++ {
		archived, err := archive(ctx, evt)
		if err == nil {
			return archived, nil
		}
		log.Error("Failed to archive profile event", err,
			zap.String("event_id", evt.EventID.String()),
			zap.String("field", evt.Field),
			zap.Int("attempt", attempt),
			zap.Duration("retry_in", backoff))

		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-time.After(backoff):
		}
		backoff = min(backoff*2, maxArchiveBackoff)
	}
}
