package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/khoahotran/provenpro/internal/application/service"
	"github.com/khoahotran/provenpro/internal/domain/profile"
	"github.com/khoahotran/provenpro/pkg/apperror"
)

type redisSnapshotMirror struct {
	rdb *redis.Client
	key string
}

// NewRedisSnapshotMirror keeps the last confirmed profile snapshot in Redis so
// a restarted companion starts warm.
func NewRedisSnapshotMirror(rdb *redis.Client, keyPrefix string) service.SnapshotMirror {
	return &redisSnapshotMirror{rdb: rdb, key: redisKey(keyPrefix, "profile:snapshot")}
}

type mirroredSnapshot struct {
	Fields    map[string]json.RawMessage `json:"fields"`
	Version   uint64                     `json:"version"`
	UpdatedAt time.Time                  `json:"updated_at"`
}

func (m *redisSnapshotMirror) Save(ctx context.Context, s profile.Snapshot) error {
	b, err := json.Marshal(mirroredSnapshot{Fields: s.Fields, Version: s.Version, UpdatedAt: s.UpdatedAt})
	if err != nil {
		return apperror.NewInternal("failed to marshal snapshot", err)
	}
	if err := m.rdb.Set(ctx, m.key, b, 0).Err(); err != nil {
		return apperror.NewInternal("failed to mirror snapshot", err)
	}
	return nil
}

func (m *redisSnapshotMirror) Load(ctx context.Context) (profile.Snapshot, bool, error) {
	b, err := m.rdb.Get(ctx, m.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return profile.Snapshot{}, false, nil
		}
		return profile.Snapshot{}, false, apperror.NewInternal("failed to load mirrored snapshot", err)
	}
	var rec mirroredSnapshot
	if err := json.Unmarshal(b, &rec); err != nil {
		return profile.Snapshot{}, false, apperror.NewInternal("mirrored snapshot is corrupt", err)
	}
	if rec.Fields == nil {
		rec.Fields = map[string]json.RawMessage{}
	}
	return profile.Snapshot{Fields: rec.Fields, Version: rec.Version, UpdatedAt: rec.UpdatedAt}, true, nil
}

func (m *redisSnapshotMirror) Clear(ctx context.Context) error {
	if err := m.rdb.Del(ctx, m.key).Err(); err != nil {
		return apperror.NewInternal("failed to clear mirrored snapshot", err)
	}
	return nil
}
