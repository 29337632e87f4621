package cache

import (
	"context"
	"sync"
	"time"

	"sheetpilot/internal/core"
)

// MemoryCache implements Cache with an in-process map.
// This is suitable for single-instance deployments.
type MemoryCache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]memoryEntry
}

type memoryEntry struct {
	result    *core.FilterResult
	expiresAt time.Time
}

// NewMemoryCache creates a new in-process cache.
func NewMemoryCache(ttl time.Duration) *MemoryCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryCache{
		ttl:     ttl,
		entries: make(map[string]memoryEntry),
	}
}

// Get retrieves a result from the map. Expired entries read as misses.
func (c *MemoryCache) Get(ctx context.Context, key string) (*core.FilterResult, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[key]
	if !ok || time.Now().After(entry.expiresAt) {
		return nil, nil
	}

	return entry.result, nil
}

// Set stores a result. Expired entries are swept on every write, which
// keeps the map bounded without a background goroutine.
func (c *MemoryCache) Set(ctx context.Context, key string, result *core.FilterResult) error {
	now := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	for k, entry := range c.entries {
		if now.After(entry.expiresAt) {
			delete(c.entries, k)
		}
	}

	c.entries[key] = memoryEntry{
		result:    result,
		expiresAt: now.Add(c.ttl),
	}

	return nil
}

// Close is a no-op for the in-process cache.
func (c *MemoryCache) Close() error {
	return nil
}

// Len returns the number of entries currently held, expired or not.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
