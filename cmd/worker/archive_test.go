package main

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khoahotran/provenpro/internal/domain/profile"
	"github.com/khoahotran/provenpro/pkg/logger"
)

func TestArchiveRetriesUntilSuccess(t *testing.T) {
	calls := 0
	archive := func(context.Context, profile.Event) (bool, error) {
		calls++
		if calls < 3 {
			return false, errors.New("connection refused")
		}
		return true, nil
	}

	archived, err := archiveUntilDone(context.Background(), archive,
		profile.NewEvent(profile.EventFieldSynced, "p-1", "tools", 2, nil), time.Millisecond, logger.NewNop())

	require.NoError(t, err)
	assert.True(t, archived)
	assert.Equal(t, 3, calls)
}

func TestArchiveStopsOnShutdown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	archive := func(context.Context, profile.Event) (bool, error) {
		calls++
		cancel()
		return false, errors.New("connection refused")
	}

	archived, err := archiveUntilDone(ctx, archive,
		profile.NewEvent(profile.EventFieldSynced, "p-1", "tools", 2, nil), time.Hour, logger.NewNop())

	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, archived)
	assert.Equal(t, 1, calls)
}
