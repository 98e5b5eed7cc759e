// Package cache provides a small in-process TTL cache used to soften the
// per-request revocation and client-status lookups.
package cache

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// loadTimeout bounds a shared load once it no longer follows a caller's ctx.
const loadTimeout = 5 * time.Second

type item[T any] struct {
	value     T
	expiresAt time.Time
}

// MemoryCache is a TTL cache with lazy expiry and collapsed concurrent
// loads. A zero TTL disables caching: every lookup goes to the loader.
type MemoryCache[T any] struct {
	ttl time.Duration
	now func() time.Time

	mu    sync.RWMutex
	items map[string]item[T]
	gen   uint64 // bumped on every invalidation

	group singleflight.Group
}

// NewMemoryCache returns a cache whose entries live for ttl.
func NewMemoryCache[T any](ttl time.Duration) *MemoryCache[T] {
	return &MemoryCache[T]{
		ttl:   ttl,
		now:   time.Now,
		items: make(map[string]item[T]),
	}
}

// WithClock replaces the time source. Intended for tests.
func (m *MemoryCache[T]) WithClock(now func() time.Time) *MemoryCache[T] {
	m.now = now
	return m
}

// Enabled reports whether entries are retained at all.
func (m *MemoryCache[T]) Enabled() bool { return m.ttl > 0 }

// Get returns a live entry for key.
func (m *MemoryCache[T]) Get(key string) (T, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	it, ok := m.items[key]
	if !ok || !m.now().Before(it.expiresAt) {
		var zero T
		return zero, false
	}
	return it.value, true
}

// GetOrLoad returns the cached value for key or calls load, sharing one
// load among concurrent callers. The shared load is detached from any one
// caller's cancellation and bounded by loadTimeout; each caller still stops
// waiting when its own ctx ends. Errors are never cached, and a value
// loaded across an invalidation is returned but not stored.
func (m *MemoryCache[T]) GetOrLoad(ctx context.Context, key string, load func(context.Context) (T, error)) (T, error) {
	var zero T
	if !m.Enabled() {
		return load(ctx)
	}
	if v, ok := m.Get(key); ok {
		return v, nil
	}

	ch := m.group.DoChan(key, func() (any, error) {
		m.mu.RLock()
		gen := m.gen
		m.mu.RUnlock()

		lctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), loadTimeout)
		defer cancel()

		v, err := load(lctx)
		if err != nil {
			return v, err
		}

		m.mu.Lock()
		if m.gen == gen {
			m.items[key] = item[T]{value: v, expiresAt: m.now().Add(m.ttl)}
		}
		m.mu.Unlock()
		return v, nil
	})

	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		return res.Val.(T), nil
	}
}

// Delete invalidates key.
func (m *MemoryCache[T]) Delete(key string) {
	m.mu.Lock()
	delete(m.items, key)
	m.gen++
	m.mu.Unlock()
	m.group.Forget(key)
}

// Sweep removes expired entries and reports how many were dropped.
func (m *MemoryCache[T]) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	removed := 0
	for key, it := range m.items {
		if !now.Before(it.expiresAt) {
			delete(m.items, key)
			removed++
		}
	}
	return removed
}

// Len reports the number of stored entries, expired or not.
func (m *MemoryCache[T]) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items)
}
