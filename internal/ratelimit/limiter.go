// Package ratelimit implements fixed-window request counting keyed by
// client address.
//
// Fixed windows trade boundary-burst precision for zero extra state: the
// counter for a key is created on its first request, incremented until the
// window expires, then discarded wholesale. A request arriving at the
// ceiling is rejected without incrementing.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Decision is the outcome of one admission check.
type Decision struct {
	Allowed   bool
	Count     int
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// Limiter admits or rejects a request for the given key, incrementing the
// key's window counter when admitted.
type Limiter interface {
	Allow(ctx context.Context, key string) Decision
}

// InMemoryLimiter is a process-local fixed-window limiter.
type InMemoryLimiter struct {
	mu     sync.Mutex
	window time.Duration
	limit  int
	items  map[string]entry

	// now is replaceable in tests.
	now func() time.Time
}

type entry struct {
	count   int
	resetAt time.Time
}

func NewInMemory(limit int, window time.Duration) *InMemoryLimiter {
	if window <= 0 {
		window = time.Minute
	}
	if limit <= 0 {
		limit = 1
	}
	return &InMemoryLimiter{
		window: window,
		limit:  limit,
		items:  make(map[string]entry),
		now:    time.Now,
	}
}

func (l *InMemoryLimiter) Allow(_ context.Context, key string) Decision {
	now := l.now().UTC()

	l.mu.Lock()
	defer l.mu.Unlock()
	l.cleanup(now)

	curr, ok := l.items[key]
	if !ok || now.After(curr.resetAt) {
		curr = entry{count: 0, resetAt: now.Add(l.window)}
	}

	if curr.count >= l.limit {
		// At the ceiling: reject without incrementing.
		return Decision{
			Allowed: false,
			Count:   curr.count,
			Limit:   l.limit,
			ResetAt: curr.resetAt,
		}
	}

	curr.count++
	l.items[key] = curr
	return Decision{
		Allowed:   true,
		Count:     curr.count,
		Limit:     l.limit,
		Remaining: l.limit - curr.count,
		ResetAt:   curr.resetAt,
	}
}

func (l *InMemoryLimiter) cleanup(now time.Time) {
	for k, v := range l.items {
		if now.After(v.resetAt) {
			delete(l.items, k)
		}
	}
}
