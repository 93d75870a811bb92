// Package catalog discovers models across local LLM backends, caches the
// merged list and routes a selected display name back to its backend.
package catalog

import (
	"sync"
	"time"

	"github.com/doeshing/promptcraft/internal/domain"
	"github.com/doeshing/promptcraft/internal/ports"
)

// MemoryCache holds the last discovery result for a fixed TTL.
type MemoryCache struct {
	mu        sync.RWMutex
	entries   []string
	fetchedAt time.Time
	ttl       time.Duration
	clock     ports.Clock
}

// NewMemoryCache returns an empty cache. A nil clock uses the wall clock.
func NewMemoryCache(ttl time.Duration, clock ports.Clock) *MemoryCache {
	if ttl <= 0 {
		ttl = domain.DefaultModelCacheTTL
	}
	if clock == nil {
		clock = ports.SystemClock{}
	}
	return &MemoryCache{ttl: ttl, clock: clock}
}

// Get implements ports.ModelCache.
func (c *MemoryCache) Get() ([]string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	age := c.clock.Now().Sub(c.fetchedAt)
	if len(c.entries) == 0 || age < 0 || age >= c.ttl {
		return nil, false
	}
	out := make([]string, len(c.entries))
	copy(out, c.entries)
	return out, true
}

// Set replaces the cached list wholesale.
func (c *MemoryCache) Set(models []string) {
	entries := make([]string, len(models))
	copy(entries, models)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = entries
	c.fetchedAt = c.clock.Now()
}

// Invalidate drops the cached list.
func (c *MemoryCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = nil
	c.fetchedAt = time.Time{}
}

var _ ports.ModelCache = (*MemoryCache)(nil)
