package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"sheetpilot/internal/core"
)

func sampleResult() *core.FilterResult {
	return &core.FilterResult{
		SheetName: "Sheet1",
		Headers:   []string{"AdSet Name", "Impressions"},
		Rows: []core.MatchedRow{
			{RowIndex: 2, Values: []string{"Launch Alpha", "1200"}},
		},
	}
}

func TestKey(t *testing.T) {
	base := Key("file-1", "Sheet1", "launch", 80)

	t.Run("deterministic", func(t *testing.T) {
		if Key("file-1", "Sheet1", "launch", 80) != base {
			t.Error("same invocation produced different keys")
		}
	})

	t.Run("token is normalized", func(t *testing.T) {
		if Key("file-1", "Sheet1", "  LAUNCH ", 80) != base {
			t.Error("trimmed lower-cased token should share the key")
		}
	})

	t.Run("sensitive to every component", func(t *testing.T) {
		variants := []string{
			Key("file-2", "Sheet1", "launch", 80),
			Key("file-1", "Sheet2", "launch", 80),
			Key("file-1", "Sheet1", "retarget", 80),
			Key("file-1", "Sheet1", "launch", 40),
		}
		for i, v := range variants {
			if v == base {
				t.Errorf("variant %d collided with the base key", i)
			}
		}
	})
}

func TestNew_BackendSelection(t *testing.T) {
	t.Run("defaults to memory", func(t *testing.T) {
		c, err := New(Config{})
		if err != nil {
			t.Fatalf("New() error = %v", err)
		}
		defer c.Close()

		if _, ok := c.(*MemoryCache); !ok {
			t.Errorf("New() = %T, want *MemoryCache", c)
		}
	})

	t.Run("redis backend", func(t *testing.T) {
		mr, err := miniredis.Run()
		if err != nil {
			t.Fatal(err)
		}
		t.Cleanup(mr.Close)

		c, err := New(Config{Backend: BackendRedis, RedisURL: "redis://" + mr.Addr()})
		if err != nil {
			t.Fatalf("New() error = %v", err)
		}
		defer c.Close()

		if _, ok := c.(*RedisCache); !ok {
			t.Errorf("New() = %T, want *RedisCache", c)
		}
	})

	t.Run("unknown backend", func(t *testing.T) {
		if _, err := New(Config{Backend: "etched-stone"}); err == nil {
			t.Error("New() with an unknown backend should fail")
		}
	})
}

func TestMemoryCache(t *testing.T) {
	ctx := context.Background()

	t.Run("GetSetRoundTrip", func(t *testing.T) {
		c := NewMemoryCache(time.Minute)

		result, err := c.Get(ctx, "k")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result != nil {
			t.Fatalf("expected nil result for empty cache, got %v", result)
		}

		if err := c.Set(ctx, "k", sampleResult()); err != nil {
			t.Fatalf("unexpected error on set: %v", err)
		}

		result, err = c.Get(ctx, "k")
		if err != nil {
			t.Fatalf("unexpected error on get: %v", err)
		}
		if result == nil {
			t.Fatal("expected result, got nil")
		}
		if result.SheetName != "Sheet1" {
			t.Errorf("SheetName = %q, want Sheet1", result.SheetName)
		}
		if len(result.Rows) != 1 || result.Rows[0].RowIndex != 2 {
			t.Errorf("Rows = %+v", result.Rows)
		}
	})

	t.Run("ExpiredEntryReadsAsMiss", func(t *testing.T) {
		c := NewMemoryCache(10 * time.Millisecond)

		if err := c.Set(ctx, "k", sampleResult()); err != nil {
			t.Fatal(err)
		}

		time.Sleep(20 * time.Millisecond)

		result, err := c.Get(ctx, "k")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result != nil {
			t.Error("expired entry should read as a miss")
		}
	})

	t.Run("SetSweepsExpiredEntries", func(t *testing.T) {
		c := NewMemoryCache(10 * time.Millisecond)

		c.Set(ctx, "old-1", sampleResult())
		c.Set(ctx, "old-2", sampleResult())

		time.Sleep(20 * time.Millisecond)

		c.Set(ctx, "fresh", sampleResult())

		if got := c.Len(); got != 1 {
			t.Errorf("Len() after sweep = %d, want 1", got)
		}
	})
}

func TestRedisCache(t *testing.T) {
	ctx := context.Background()

	newTestRedis := func(t *testing.T, ttl time.Duration) (*RedisCache, *miniredis.Miniredis) {
		t.Helper()
		mr, err := miniredis.Run()
		if err != nil {
			t.Fatal(err)
		}
		t.Cleanup(mr.Close)

		c, err := NewRedisCache(RedisConfig{URL: "redis://" + mr.Addr(), TTL: ttl})
		if err != nil {
			t.Fatalf("NewRedisCache() error = %v", err)
		}
		t.Cleanup(func() { c.Close() })

		return c, mr
	}

	t.Run("GetSetRoundTrip", func(t *testing.T) {
		c, _ := newTestRedis(t, time.Minute)

		result, err := c.Get(ctx, "k")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result != nil {
			t.Fatalf("expected nil result for empty cache, got %v", result)
		}

		if err := c.Set(ctx, "k", sampleResult()); err != nil {
			t.Fatalf("unexpected error on set: %v", err)
		}

		result, err = c.Get(ctx, "k")
		if err != nil {
			t.Fatalf("unexpected error on get: %v", err)
		}
		if result == nil {
			t.Fatal("expected result, got nil")
		}
		if result.Rows[0].Values[0] != "Launch Alpha" {
			t.Errorf("Values = %v", result.Rows[0].Values)
		}
	})

	t.Run("EntriesExpire", func(t *testing.T) {
		c, mr := newTestRedis(t, time.Minute)

		if err := c.Set(ctx, "k", sampleResult()); err != nil {
			t.Fatal(err)
		}

		mr.FastForward(2 * time.Minute)

		result, err := c.Get(ctx, "k")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result != nil {
			t.Error("entry should have expired")
		}
	})

	t.Run("KeysAreNamespaced", func(t *testing.T) {
		c, mr := newTestRedis(t, time.Minute)

		if err := c.Set(ctx, "abc", sampleResult()); err != nil {
			t.Fatal(err)
		}

		if !mr.Exists(DefaultRedisKeyPrefix + ":abc") {
			t.Errorf("expected key under prefix %q, have %v", DefaultRedisKeyPrefix, mr.Keys())
		}
	})

	t.Run("InvalidURL", func(t *testing.T) {
		if _, err := NewRedisCache(RedisConfig{URL: "::bad::"}); err == nil {
			t.Error("NewRedisCache() with an invalid URL should fail")
		}
	})
}
