package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/khoahotran/provenpro/internal/domain/profile"
	"github.com/khoahotran/provenpro/pkg/apperror"
)

type redisTokenStore struct {
	rdb *redis.Client
	key string
}

func NewRedisTokenStore(rdb *redis.Client, keyPrefix string) profile.TokenStore {
	return &redisTokenStore{rdb: rdb, key: redisKey(keyPrefix, "session:token")}
}

// Get returns "" when no token is stored or it has expired.
func (s *redisTokenStore) Get(ctx context.Context) (string, error) {
	tok, err := s.rdb.Get(ctx, s.key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil
		}
		return "", apperror.NewInternal("failed to read token", err)
	}
	return tok, nil
}

func (s *redisTokenStore) Save(ctx context.Context, token string, ttl time.Duration) error {
	if err := s.rdb.Set(ctx, s.key, token, ttl).Err(); err != nil {
		return apperror.NewInternal("failed to store token", err)
	}
	return nil
}

func (s *redisTokenStore) Clear(ctx context.Context) error {
	if err := s.rdb.Del(ctx, s.key).Err(); err != nil {
		return apperror.NewInternal("failed to clear token", err)
	}
	return nil
}
