package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreCountsWithinWindow(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	s := NewMemoryStoreWithClock(func() time.Time { return now })
	ctx := context.Background()
	window := time.Minute

	for i := int64(1); i <= 5; i++ {
		count, start, err := s.Increment(ctx, "1.2.3.4", window)
		require.NoError(t, err)
		assert.Equal(t, i, count)
		assert.Equal(t, time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC), start)
	}
}

func TestMemoryStoreResetsAtWindowBoundary(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	s := NewMemoryStoreWithClock(func() time.Time { return now })
	ctx := context.Background()
	window := time.Minute

	_, _, err := s.Increment(ctx, "k", window)
	require.NoError(t, err)
	_, _, err = s.Increment(ctx, "k", window)
	require.NoError(t, err)

	// Exactly windowStart + window starts a fresh window.
	now = now.Add(window)
	count, start, err := s.Increment(ctx, "k", window)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
	assert.Equal(t, now, start)
}

func TestMemoryStoreKeysAreIndependent(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	s := NewMemoryStoreWithClock(func() time.Time { return now })
	ctx := context.Background()

	c1, _, _ := s.Increment(ctx, "a", time.Minute)
	c2, _, _ := s.Increment(ctx, "b", time.Minute)
	assert.Equal(t, int64(1), c1)
	assert.Equal(t, int64(1), c2)
}

func TestMemoryStoreSweepEvictsStaleKeys(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	s := NewMemoryStoreWithClock(func() time.Time { return now })
	ctx := context.Background()
	window := time.Minute

	_, _, _ = s.Increment(ctx, "stale", window)
	now = now.Add(90 * time.Second)
	_, _, _ = s.Increment(ctx, "fresh", window)
	require.Equal(t, 2, s.Len())

	// "stale" is older than two windows at +2m30s, "fresh" is not.
	now = now.Add(60 * time.Second)
	removed := s.Sweep(window)
	assert.Equal(t, 1, removed)
	assert.Equal(t, 1, s.Len())
}
