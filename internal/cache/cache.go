package cache

import (
	"context"
	"math"
	"time"
)

// BytesCache is a key/value cache with per-entry TTL.
// A miss is reported as ok=false with a nil error.
type BytesCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// RateLimiter is a fixed-window request counter keyed by caller identity.
type RateLimiter interface {
	Allow(ctx context.Context, key string) (Decision, error)
}

type Decision struct {
	Limited    bool
	Count      int64
	RetryAfter time.Duration
}

// RetryAfterSeconds rounds the remaining window up to whole seconds.
func (d Decision) RetryAfterSeconds() int {
	if d.RetryAfter <= 0 {
		return 0
	}
	return int(math.Ceil(d.RetryAfter.Seconds()))
}
