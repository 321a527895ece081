package memcache

import (
	"context"
	"sync"
	"time"

	"github.com/BearBump/RetailDesk/internal/cache"
)

const (
	DefaultWindow      = 5 * time.Minute
	DefaultMaxRequests = 10
)

type window struct {
	count     int64
	resetTime time.Time
}

// Limiter is a process-local fixed-window rate limiter.
type Limiter struct {
	mu      sync.Mutex
	window  time.Duration
	max     int64
	now     func() time.Time
	entries map[string]*window
}

func NewLimiter(win time.Duration, maxRequests int) *Limiter {
	if win <= 0 {
		win = DefaultWindow
	}
	if maxRequests <= 0 {
		maxRequests = DefaultMaxRequests
	}
	return &Limiter{
		window:  win,
		max:     int64(maxRequests),
		now:     time.Now,
		entries: make(map[string]*window),
	}
}

func (l *Limiter) Allow(_ context.Context, key string) (cache.Decision, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	e, ok := l.entries[key]
	if !ok || now.After(e.resetTime) {
		l.entries[key] = &window{count: 1, resetTime: now.Add(l.window)}
		return cache.Decision{Count: 1}, nil
	}

	if e.count >= l.max {
		return cache.Decision{
			Limited:    true,
			Count:      e.count,
			RetryAfter: e.resetTime.Sub(now),
		}, nil
	}

	e.count++
	return cache.Decision{Count: e.count}, nil
}

// Reset forgets the window for one key.
func (l *Limiter) Reset(key string) {
	l.mu.Lock()
	delete(l.entries, key)
	l.mu.Unlock()
}

func (l *Limiter) ResetAll() {
	l.mu.Lock()
	l.entries = make(map[string]*window)
	l.mu.Unlock()
}
