package persistence

import (
	"context"
	"sync"
	"time"

	"github.com/khoahotran/provenpro/internal/domain/profile"
)

type memoryTokenStore struct {
	mu      sync.Mutex
	token   string
	expires time.Time
	now     func() time.Time
}

// NewMemoryTokenStore is the token store used when no Redis is configured.
// The token is lost on restart.
func NewMemoryTokenStore(initial string) profile.TokenStore {
	return &memoryTokenStore{token: initial, now: time.Now}
}

func (s *memoryTokenStore) Get(context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.expires.IsZero() && !s.now().Before(s.expires) {
		s.token, s.expires = "", time.Time{}
	}
	return s.token, nil
}

func (s *memoryTokenStore) Save(_ context.Context, token string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	s.expires = time.Time{}
	if ttl > 0 {
		s.expires = s.now().Add(ttl)
	}
	return nil
}

func (s *memoryTokenStore) Clear(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token, s.expires = "", time.Time{}
	return nil
}
