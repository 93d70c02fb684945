package auth

import (
	"sync"
	"time"
)

// DefaultCacheTTL applies when CacheResponse is given a zero TTL
const DefaultCacheTTL = 1 * time.Hour

// responseCache keeps small decoded responses for a limited time
type responseCache struct {
	mu      sync.RWMutex
	entries map[string]*cacheEntry
	now     func() time.Time
}

type cacheEntry struct {
	data      map[string]any
	expiresAt time.Time
}

func newResponseCache(now func() time.Time) *responseCache {
	return &responseCache{
		entries: make(map[string]*cacheEntry),
		now:     now,
	}
}

// get returns the entry for key unless it is missing or expired
func (c *responseCache) get(key string) (map[string]any, bool) {
	c.mu.RLock()
	entry, exists := c.entries[key]
	c.mu.RUnlock()

	if !exists {
		return nil, false
	}

	if c.now().After(entry.expiresAt) {
		c.mu.Lock()
		if current, ok := c.entries[key]; ok && current == entry {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		return nil, false
	}

	return entry.data, true
}

func (c *responseCache) set(key string, data map[string]any, ttl time.Duration) {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}

	c.mu.Lock()
	c.entries[key] = &cacheEntry{
		data:      data,
		expiresAt: c.now().Add(ttl),
	}
	c.mu.Unlock()
}

func (c *responseCache) delete(keys ...string) {
	c.mu.Lock()
	for _, k := range keys {
		delete(c.entries, k)
	}
	c.mu.Unlock()
}

func (c *responseCache) clear() {
	c.mu.Lock()
	c.entries = make(map[string]*cacheEntry)
	c.mu.Unlock()
}

func (c *responseCache) size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
