// Package ratelimit provides the counter store behind the fixed-window
// request limiter.  The store is injected into the middleware so the
// in-process map can be swapped for a shared Redis counter when multiple
// processes must agree on one limit.
package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store counts requests per client key within a fixed window.
type Store interface {
	// Increment records one request for key and returns the count inside
	// the current window along with the window's start time.
	Increment(ctx context.Context, key string, window time.Duration) (count int64, windowStart time.Time, err error)
}

type entry struct {
	count       int64
	windowStart time.Time
}

// MemoryStore is a mutex-guarded in-process Store.  Stale keys are evicted
// by a periodic sweep so the map does not grow without bound.  In a
// multi-process deployment each process counts independently; use
// RedisStore when that matters.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]entry
	now     func() time.Time
}

// NewMemoryStore returns an empty in-process store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]entry), now: time.Now}
}

// NewMemoryStoreWithClock is used by tests to control time.
func NewMemoryStoreWithClock(now func() time.Time) *MemoryStore {
	return &MemoryStore{entries: make(map[string]entry), now: now}
}

// Increment implements Store.  A key past its window start + window resets
// to a fresh window with count 1.
func (s *MemoryStore) Increment(_ context.Context, key string, window time.Duration) (int64, time.Time, error) {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	if !ok || now.Sub(e.windowStart) >= window {
		e = entry{count: 1, windowStart: now}
	} else {
		e.count++
	}
	s.entries[key] = e
	return e.count, e.windowStart, nil
}

// Sweep removes entries whose window ended before now-window.  It is safe
// to call concurrently with Increment.
func (s *MemoryStore) Sweep(window time.Duration) int {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for k, e := range s.entries {
		if now.Sub(e.windowStart) >= 2*window {
			delete(s.entries, k)
			removed++
		}
	}
	return removed
}

// StartSweeper runs Sweep every interval until the context is cancelled.
func (s *MemoryStore) StartSweeper(ctx context.Context, window, interval time.Duration) {
	go func() {
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				s.Sweep(window)
			}
		}
	}()
}

// Len reports the number of tracked keys.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// RedisStore counts in Redis so every process shares one view of the limit.
// The key is bucketed by window number; INCR plus a TTL keeps the store
// self-cleaning.
type RedisStore struct {
	rdb    *redis.Client
	prefix string
}

// NewRedisStore returns a Store backed by the given client.
func NewRedisStore(rdb *redis.Client, prefix string) *RedisStore {
	return &RedisStore{rdb: rdb, prefix: prefix}
}

// Increment implements Store using an atomic INCR on a window-bucketed key.
func (s *RedisStore) Increment(ctx context.Context, key string, window time.Duration) (int64, time.Time, error) {
	now := time.Now()
	bucket := now.UnixMilli() / window.Milliseconds()
	windowStart := time.UnixMilli(bucket * window.Milliseconds())
	rkey := fmt.Sprintf("%s:%s:%d", s.prefix, key, bucket)

	pipe := s.rdb.TxPipeline()
	incr := pipe.Incr(ctx, rkey)
	pipe.Expire(ctx, rkey, 2*window)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, windowStart, err
	}
	return incr.Val(), windowStart, nil
}
