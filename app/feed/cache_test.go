package feed

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/lysyi3m/live-feed/app/store"
)

func TestCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	cache := NewCache(s, time.Hour)

	now := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return now }

	if env := cache.Load(ctx); env != nil {
		t.Fatal("Expected empty cache")
	}

	items := []Item{{Title: "One", Link: "https://example.com/1", Stars: IntPtr(5), PublishedAt: now.Add(-time.Hour)}}
	stats := map[string]SourceStat{"GitHub": {Count: 1, Status: SourceStatusOK}}

	if _, err := cache.Save(ctx, items, stats); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	env := cache.Load(ctx)
	if env == nil {
		t.Fatal("Expected cached envelope")
	}
	if len(env.Items) != 1 || env.Items[0].Title != "One" || *env.Items[0].Stars != 5 {
		t.Errorf("Unexpected items: %+v", env.Items)
	}
	if !env.Timestamp.Equal(now) {
		t.Errorf("Expected timestamp %v, got %v", now, env.Timestamp)
	}
	if env.Stats["GitHub"].Status != SourceStatusOK {
		t.Errorf("Unexpected stats: %+v", env.Stats)
	}
}

func TestCacheCorruptPayload(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	cache := NewCache(s, 0)

	if err := s.Set(ctx, CacheKey, []byte("{not json"), 0); err != nil {
		t.Fatal(err)
	}

	if env := cache.Load(ctx); env != nil {
		t.Error("Expected corrupt cache to be treated as absent")
	}
	if _, err := s.Get(ctx, CacheKey); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Expected corrupt payload to be deleted, got: %v", err)
	}
}

func TestCacheStaleness(t *testing.T) {
	ctx := context.Background()
	cache := NewCache(store.NewMemoryStore(), 0)
	if cache.TTL() != DefaultTTL {
		t.Errorf("Expected default TTL %v, got %v", DefaultTTL, cache.TTL())
	}

	saved := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return saved }
	env, err := cache.Save(ctx, nil, nil)
	if err != nil {
		t.Fatal(err)
	}

	cache.now = func() time.Time { return saved.Add(DefaultTTL - time.Minute) }
	if cache.IsStale(env) {
		t.Error("Expected fresh envelope within TTL")
	}

	cache.now = func() time.Time { return saved.Add(DefaultTTL + time.Minute) }
	if !cache.IsStale(env) {
		t.Error("Expected stale envelope past TTL")
	}
}

func TestCacheClear(t *testing.T) {
	ctx := context.Background()
	cache := NewCache(store.NewMemoryStore(), time.Hour)

	if _, err := cache.Save(ctx, []Item{{Title: "x"}}, nil); err != nil {
		t.Fatal(err)
	}
	if err := cache.Clear(ctx); err != nil {
		t.Fatal(err)
	}
	if env := cache.Load(ctx); env != nil {
		t.Error("Expected cache to be cleared")
	}
}
