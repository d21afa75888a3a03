package persistence

import (
	"context"
	"encoding/json"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/khoahotran/provenpro/internal/domain/profile"
	"github.com/khoahotran/provenpro/pkg/apperror"
	"github.com/khoahotran/provenpro/pkg/logger"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

type postgresHistoryRepo struct {
	db     *pgxpool.Pool
	logger logger.Logger
}

func NewPostgresHistoryRepo(db *pgxpool.Pool, logger logger.Logger) profile.HistoryRepository {
	return &postgresHistoryRepo{db: db, logger: logger}
}

// Save archives one entry. Replayed events (same event_id) are ignored.
func (r *postgresHistoryRepo) Save(ctx context.Context, e *profile.HistoryEntry) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	value := []byte(e.Value)
	if len(value) == 0 {
		value = []byte("null")
	}

	query := `
		INSERT INTO profile_field_history (id, event_id, event_type, profile_id, field, version, value, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (event_id) DO NOTHING
	`
	cmdTag, err := r.db.Exec(ctx, query,
		e.ID,
		e.EventID,
		string(e.EventType),
		e.ProfileID,
		e.Field,
		int64(e.Version),
		value,
		e.RecordedAt,
	)
	if err != nil {
		return apperror.NewInternal("failed to save profile history", err)
	}
	if cmdTag.RowsAffected() == 0 {
		r.logger.Debug("Profile event already archived", zap.String("event_id", e.EventID.String()))
	}
	return nil
}

func (r *postgresHistoryRepo) ListByField(ctx context.Context, profileID, field string, limit int) ([]*profile.HistoryEntry, error) {
	builder := psql.Select("id, event_id, event_type, profile_id, field, version, value, recorded_at").
		From("profile_field_history").
		Where(sq.Eq{"profile_id": profileID, "field": field}).
		OrderBy("version DESC", "recorded_at DESC").
		Limit(uint64(limit))

	sql, args, err := builder.ToSql()
	if err != nil {
		return nil, apperror.NewInternal("failed to build history query", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, apperror.NewInternal("failed to query profile history", err)
	}
	return scanHistory(rows)
}

func scanHistory(rows pgx.Rows) ([]*profile.HistoryEntry, error) {
	defer rows.Close()
	entries := []*profile.HistoryEntry{}
	for rows.Next() {
		var (
			e         profile.HistoryEntry
			eventType string
			version   int64
			value     []byte
		)
		if err := rows.Scan(&e.ID, &e.EventID, &eventType, &e.ProfileID, &e.Field, &version, &value, &e.RecordedAt); err != nil {
			return nil, apperror.NewInternal("failed to scan profile history", err)
		}
		e.EventType = profile.EventType(eventType)
		e.Version = uint64(version)
		e.Value = json.RawMessage(value)
		entries = append(entries, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.NewInternal("failed to iterate profile history", err)
	}
	return entries, nil
}
