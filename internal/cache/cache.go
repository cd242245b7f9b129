// Package cache provides a small per-process TTL cache for list-style
// reads. It is intentionally not coherent across processes: entries are
// time-bounded and safe to drop on restart.
package cache

import (
	"strings"
	"sync"
	"time"
)

type entry struct {
	value     any
	expiresAt time.Time
}

// TTLCache memoizes producer results per key with explicit invalidation.
// A failed producer is never cached.
type TTLCache struct {
	mu      sync.Mutex
	entries map[string]entry
	now     func() time.Time
}

func New() *TTLCache {
	return &TTLCache{entries: make(map[string]entry), now: time.Now}
}

// GetOrCompute returns the cached value for key if it has not expired,
// otherwise invokes produce, stores its result for ttl, and returns it.
func (c *TTLCache) GetOrCompute(key string, ttl time.Duration, produce func() (any, error)) (any, error) {
	c.mu.Lock()
	if e, ok := c.entries[key]; ok && c.now().Before(e.expiresAt) {
		c.mu.Unlock()
		return e.value, nil
	}
	c.mu.Unlock()

	v, err := produce()
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.entries[key] = entry{value: v, expiresAt: c.now().Add(ttl)}
	c.mu.Unlock()
	return v, nil
}

// Invalidate drops every entry whose key starts with prefix. Writes that
// affect a cached view call this with the view's key prefix.
func (c *TTLCache) Invalidate(prefix string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k := range c.entries {
		if strings.HasPrefix(k, prefix) {
			delete(c.entries, k)
		}
	}
}

// Flush drops everything.
func (c *TTLCache) Flush() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]entry)
}
