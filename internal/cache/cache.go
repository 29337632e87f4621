// Package cache stores filter results keyed by the exact filter invocation.
// Uploaded files are immutable for the life of the process, so a result for a
// given (file, sheet, token, cap) tuple never goes stale; the TTL only bounds
// memory. Supports an in-process backend and Redis for multi-instance
// deployments.
package cache

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"

	"sheetpilot/internal/core"
)

// Backend names accepted by New.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// DefaultTTL is the time-to-live applied when none is configured.
const DefaultTTL = 24 * time.Hour

// Cache defines the interface for filter-result storage.
// Implementations must be safe for concurrent use. Returned results are
// shared; callers must treat them as read-only.
type Cache interface {
	// Get retrieves a cached result. Returns nil, nil on a miss.
	Get(ctx context.Context, key string) (*core.FilterResult, error)

	// Set stores a result under the key.
	Set(ctx context.Context, key string, result *core.FilterResult) error

	// Close releases any resources held by the cache.
	Close() error
}

// Config selects and tunes the cache backend.
type Config struct {
	// Backend is "memory" (default) or "redis".
	Backend string

	// RedisURL is the connection URL for the redis backend.
	RedisURL string

	// TTL is the entry time-to-live (defaults to 24 hours).
	TTL time.Duration
}

// New builds the configured cache backend.
func New(cfg Config) (Cache, error) {
	switch cfg.Backend {
	case "", BackendMemory:
		return NewMemoryCache(cfg.TTL), nil
	case BackendRedis:
		return NewRedisCache(RedisConfig{URL: cfg.RedisURL, TTL: cfg.TTL})
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}

// Key derives a stable key for one filter invocation. The token is
// normalized the same way the filter normalizes it, so equivalent
// invocations share an entry.
func Key(fileID, sheet, token string, maxRows int) string {
	h := xxhash.New()
	h.WriteString(fileID)
	h.Write([]byte{0})
	h.WriteString(sheet)
	h.Write([]byte{0})
	h.WriteString(strings.ToLower(strings.TrimSpace(token)))
	h.Write([]byte{0})
	h.WriteString(strconv.Itoa(maxRows))
	return fmt.Sprintf("%016x", h.Sum64())
}
