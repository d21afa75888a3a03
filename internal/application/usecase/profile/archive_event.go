package profile

import (
	"context"

	"go.uber.org/zap"

	"github.com/khoahotran/provenpro/internal/domain/profile"
	"github.com/khoahotran/provenpro/pkg/logger"
)

// ArchiveEventUseCase runs in the worker and turns field-level profile events
// into history rows.
type ArchiveEventUseCase struct {
	history profile.HistoryRepository
	logger  logger.Logger
}

func NewArchiveEventUseCase(history profile.HistoryRepository, log logger.Logger) *ArchiveEventUseCase {
	return &ArchiveEventUseCase{history: history, logger: log}
}

// Execute reports whether evt was archived. Whole-snapshot and reset events
// carry no field value and are skipped.
func (uc *ArchiveEventUseCase) Execute(ctx context.Context, evt profile.Event) (bool, error) {
	switch evt.EventType {
	case profile.EventFieldSynced, profile.EventItemDeleted:
	default:
		uc.logger.Debug("Skipping profile event", zap.String("event_type", string(evt.EventType)))
		return false, nil
	}
	if evt.Field == "" {
		uc.logger.Warn("Field event without field name", zap.String("event_id", evt.EventID.String()))
		return false, nil
	}

	entry := &profile.HistoryEntry{
		EventID:    evt.EventID,
		EventType:  evt.EventType,
		ProfileID:  evt.ProfileID,
		Field:      evt.Field,
		Version:    evt.Version,
		Value:      evt.Value,
		RecordedAt: evt.OccurredAt,
	}
	if err := uc.history.Save(ctx, entry); err != nil {
		return false, err
	}
	return true, nil
}
