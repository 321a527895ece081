package memcache

import (
	"context"
	"sync"
	"time"
)

const DefaultTTL = 6 * time.Hour

type entry struct {
	value  []byte
	expiry time.Time
}

// Cache is a process-local TTL cache. Expired entries are dropped lazily on read.
type Cache struct {
	mu      sync.Mutex
	now     func() time.Time
	entries map[string]entry
}

func NewCache() *Cache {
	return &Cache{
		now:     time.Now,
		entries: make(map[string]entry),
	}
}

func (c *Cache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false, nil
	}
	if !c.now().Before(e.expiry) {
		delete(c.entries, key)
		return nil, false, nil
	}
	return e.value, true, nil
}

// Set stores value until now+ttl. A ttl of zero or less stores an entry that
// is already expired.
func (c *Cache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	v := make([]byte, len(value))
	copy(v, value)
	c.entries[key] = entry{value: v, expiry: c.now().Add(ttl)}
	return nil
}

func (c *Cache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
	return nil
}

// Clear drops every entry.
func (c *Cache) Clear() {
	c.mu.Lock()
	c.entries = make(map[string]entry)
	c.mu.Unlock()
}

func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
