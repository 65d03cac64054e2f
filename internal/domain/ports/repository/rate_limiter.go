package repository

import (
	"context"
	"time"
)

// RateLimiter counts hits per key in fixed windows.
type RateLimiter interface {
	// Allow records a hit and reports whether it is within limit for the
	// current window.
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}
