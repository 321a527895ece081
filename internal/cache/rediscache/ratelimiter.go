package rediscache

import (
	"context"
	"time"

	"github.com/BearBump/RetailDesk/internal/cache"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// RateLimiter is the fixed-window limiter shared by every API replica.
// The first INCR in a window sets the key's expiry; later requests never
// extend it.
type RateLimiter struct {
	c      *redis.Client
	prefix string
	window time.Duration
	max    int64
}

func NewRateLimiter(addr string, window time.Duration, maxRequests int) *RateLimiter {
	return &RateLimiter{
		c:      redis.NewClient(&redis.Options{Addr: addr}),
		prefix: "rl:",
		window: window,
		max:    int64(maxRequests),
	}
}

func (rl *RateLimiter) Allow(ctx context.Context, key string) (cache.Decision, error) {
	k := rl.prefix + key

	pipe := rl.c.TxPipeline()
	incr := pipe.Incr(ctx, k)
	pttl := pipe.PTTL(ctx, k)
	if _, err := pipe.Exec(ctx); err != nil {
		return cache.Decision{}, errors.Wrap(err, "redis ratelimit")
	}

	n := incr.Val()
	ttl := pttl.Val()
	if ttl < 0 {
		if err := rl.c.PExpire(ctx, k, rl.window).Err(); err != nil {
			return cache.Decision{}, errors.Wrap(err, "redis ratelimit expire")
		}
		ttl = rl.window
	}

	if n > rl.max {
		return cache.Decision{Limited: true, Count: n, RetryAfter: ttl}, nil
	}
	return cache.Decision{Count: n}, nil
}

func (rl *RateLimiter) Close() error {
	return rl.c.Close()
}
