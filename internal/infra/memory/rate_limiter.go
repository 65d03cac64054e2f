package memory

import (
	"context"
	"sync"
	"time"
)

// RateLimiter is the fixed-window counter of the Redis limiter, kept in process.
type RateLimiter struct {
	mu      sync.Mutex
	windows map[string]window
	now     func() time.Time
}

type window struct {
	count   int
	resetAt time.Time
}

func NewRateLimiter(now func() time.Time) *RateLimiter {
	if now == nil {
		now = time.Now
	}
	return &RateLimiter{windows: make(map[string]window), now: now}
}

func (r *RateLimiter) Allow(_ context.Context, key string, limit int, win time.Duration) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	w := r.windows[key]
	if !now.Before(w.resetAt) {
		w = window{resetAt: now.Add(win)}
	}
	w.count++
	r.windows[key] = w
	return w.count <= limit, nil
}
