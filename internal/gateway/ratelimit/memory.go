package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Memory is an in-process sliding log keyed by client. It suits single
// instance deployments and tests; counts are lost on restart.
type Memory struct {
	now func() time.Time

	mu   sync.Mutex
	logs map[string][]time.Time
	// longest window seen, used by Sweep
	horizon time.Duration
}

func NewMemory() *Memory {
	return &Memory{now: time.Now, logs: make(map[string][]time.Time)}
}

// WithClock replaces the time source. Intended for tests.
func (m *Memory) WithClock(now func() time.Time) *Memory {
	m.now = now
	return m
}

func (m *Memory) Check(_ context.Context, clientID string, limit int, window time.Duration) (Decision, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	m.horizon = max(m.horizon, window)

	live := prune(m.logs[clientID], now.Add(-window))
	if len(live) >= limit {
		m.store(clientID, live)
		var oldest time.Time
		if len(live) > 0 {
			oldest = live[0]
		}
		return deny(len(live), limit, oldest, now, window), nil
	}

	live = append(live, now)
	m.store(clientID, live)
	return Decision{Allowed: true, Count: len(live), Limit: limit}, nil
}

func (m *Memory) store(clientID string, live []time.Time) {
	if len(live) == 0 {
		delete(m.logs, clientID)
		return
	}
	m.logs[clientID] = live
}

// prune drops timestamps at or before cutoff. Entries are kept in arrival
// order so the survivors are a suffix.
func prune(ts []time.Time, cutoff time.Time) []time.Time {
	i := 0
	for i < len(ts) && !ts[i].After(cutoff) {
		i++
	}
	return ts[i:]
}

// Sweep forgets clients with no calls left in their window and reports how
// many were dropped.
func (m *Memory) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := m.now().Add(-m.horizon)
	removed := 0
	for id, ts := range m.logs {
		if live := prune(ts, cutoff); len(live) == 0 {
			delete(m.logs, id)
			removed++
		} else {
			m.logs[id] = live
		}
	}
	return removed
}

// Len reports the number of tracked clients.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.logs)
}
