package aggregate

import (
	"sync"
	"time"

	"alert-engine/pkg/clock"
)

// Cache memoizes aggregation results across rules that share a metric within
// one evaluation pass. It is constructor-injected (never a package-level
// singleton) and entries expire on a short TTL tied to pass granularity.
type Cache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	clock   clock.Clock
	entries map[string]cacheEntry
}

type cacheEntry struct {
	result    Result
	expiresAt time.Time
}

// NewCache returns a Cache with the given TTL. A zero TTL disables caching.
func NewCache(clk clock.Clock, ttl time.Duration) *Cache {
	return &Cache{
		ttl:     ttl,
		clock:   clk,
		entries: make(map[string]cacheEntry),
	}
}

func (c *Cache) get(key string) (Result, bool) {
	if c == nil || c.ttl <= 0 {
		return Result{}, false
	}
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok || c.clock.Now().After(entry.expiresAt) {
		return Result{}, false
	}
	return entry.result, true
}

func (c *Cache) put(key string, result Result) {
	if c == nil || c.ttl <= 0 {
		return
	}
	c.mu.Lock()
	c.entries[key] = cacheEntry{result: result, expiresAt: c.clock.Now().Add(c.ttl)}
	c.mu.Unlock()
}

// Clear drops all cached entries. Intended for test isolation and for
// collaborators that want a cold pass.
func (c *Cache) Clear() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.entries = make(map[string]cacheEntry)
	c.mu.Unlock()
}

// Len returns the number of cached entries, expired ones included.
func (c *Cache) Len() int {
	if c == nil {
		return 0
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
