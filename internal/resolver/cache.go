package resolver

import (
	"sync"
	"time"
)

// cacheTTL mirrors the dashboard's five-minute staleness window for
// resolution results.
const cacheTTL = 5 * time.Minute

type cacheEntry struct {
	value   string
	expires time.Time
}

type cache struct {
	mu      sync.Mutex
	entries map[string]cacheEntry
	now     func() time.Time
}

func newCache() *cache {
	return &cache{
		entries: make(map[string]cacheEntry),
		now:     time.Now,
	}
}

func (c *cache) get(key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok || c.now().After(e.expires) {
		delete(c.entries, key)
		return "", false
	}
	return e.value, true
}

func (c *cache) put(key, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cacheEntry{value: value, expires: c.now().Add(cacheTTL)}
}
