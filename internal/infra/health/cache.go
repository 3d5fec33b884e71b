package health

import (
	"sync"
	"time"
)

type cacheEntry struct {
	value     any
	expiresAt time.Time
}

// ResultCache is a small TTL cache shared by the components that hold a
// reference to it. Expired entries are reported as misses and evicted lazily.
type ResultCache struct {
	mu      sync.Mutex
	entries map[string]cacheEntry
	now     func() time.Time
}

func NewResultCache() *ResultCache {
	return &ResultCache{entries: make(map[string]cacheEntry), now: time.Now}
}

// Get returns the value stored under key, or false when it is absent or expired.
func (c *ResultCache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if !c.now().Before(e.expiresAt) {
		delete(c.entries, key)
		return nil, false
	}
	return e.value, true
}

// Set stores value under key for ttl. A non-positive ttl removes the key.
func (c *ResultCache) Set(key string, value any, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if ttl <= 0 {
		delete(c.entries, key)
		return
	}
	c.entries[key] = cacheEntry{value: value, expiresAt: c.now().Add(ttl)}
}
