package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryTokenStoreExpires(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	s := NewMemoryTokenStore("").(*memoryTokenStore)
	s.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, "tok", time.Minute))
	got, _ := s.Get(ctx)
	assert.Equal(t, "tok", got)

	now = now.Add(time.Minute)
	got, _ = s.Get(ctx)
	assert.Empty(t, got)
}

func TestMemoryTokenStoreClear(t *testing.T) {
	s := NewMemoryTokenStore("seed")
	ctx := context.Background()

	got, _ := s.Get(ctx)
	assert.Equal(t, "seed", got)

	require.NoError(t, s.Clear(ctx))
	got, _ = s.Get(ctx)
	assert.Empty(t, got)
}
