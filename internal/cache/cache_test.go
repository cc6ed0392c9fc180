package cache

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap/zaptest"
)

func newTestRedis(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisCache(client, "gymdesk:", zaptest.NewLogger(t)), mr
}

func TestRedisCacheRoundTrip(t *testing.T) {
	c, mr := newTestRedis(t)
	ctx := context.Background()

	if err := c.Set(ctx, "session:abc", "uid-1", time.Hour); err != nil {
		t.Fatalf("set: %v", err)
	}
	if !mr.Exists("gymdesk:session:abc") {
		t.Fatalf("expected prefixed key to exist")
	}

	got, err := c.Get(ctx, "session:abc")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != "uid-1" {
		t.Fatalf("expected uid-1, got %q", got)
	}

	if err := c.Delete(ctx, "session:abc"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	got, err = c.Get(ctx, "session:abc")
	if err != nil || got != "" {
		t.Fatalf("expected miss after delete, got %q, %v", got, err)
	}
}

func TestRedisCacheExpiry(t *testing.T) {
	c, mr := newTestRedis(t)
	ctx := context.Background()

	if err := c.Set(ctx, "k", "v", time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	mr.FastForward(2 * time.Minute)

	got, err := c.Get(ctx, "k")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != "" {
		t.Fatalf("expected expired key, got %q", got)
	}
}

func TestRedisCacheGetError(t *testing.T) {
	c, mr := newTestRedis(t)
	mr.Close()

	if _, err := c.Get(context.Background(), "k"); err == nil {
		t.Fatalf("expected error when redis is down")
	}
}

func TestMemoryCacheExpiry(t *testing.T) {
	c := NewMemoryCache()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	ctx := context.Background()

	_ = c.Set(ctx, "k", "v", time.Minute)
	if got, _ := c.Get(ctx, "k"); got != "v" {
		t.Fatalf("expected v, got %q", got)
	}

	now = now.Add(time.Minute)
	if got, _ := c.Get(ctx, "k"); got != "" {
		t.Fatalf("expected expiry at the deadline, got %q", got)
	}

	_ = c.Set(ctx, "forever", "v", 0)
	now = now.Add(24 * time.Hour)
	if got, _ := c.Get(ctx, "forever"); got != "v" {
		t.Fatalf("expected no expiry for zero ttl, got %q", got)
	}
}

func TestMemoryCachePurgesExpiredEntriesOnSet(t *testing.T) {
	c := NewMemoryCache()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	ctx := context.Background()

	for _, k := range []string{"a", "b", "c"} {
		_ = c.Set(ctx, k, "v", time.Second)
	}
	_ = c.Set(ctx, "keep", "v", 0)

	now = now.Add(30 * time.Second)
	_ = c.Set(ctx, "d", "v", time.Hour)
	if len(c.entries) != 5 {
		t.Fatalf("expected no purge inside the sweep interval, got %d entries", len(c.entries))
	}

	now = now.Add(sweepInterval)
	_ = c.Set(ctx, "e", "v", time.Hour)
	if len(c.entries) != 3 {
		t.Fatalf("expected expired entries purged, got %d entries", len(c.entries))
	}
	if got, _ := c.Get(ctx, "keep"); got != "v" {
		t.Fatalf("expected entry without ttl to survive, got %q", got)
	}
}
