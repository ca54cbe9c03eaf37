package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/lysyi3m/live-feed/app/metrics"
	"github.com/lysyi3m/live-feed/app/store"
)

const (
	CacheKey   = "live_feed_cache_v3"
	DefaultTTL = 4 * time.Hour
)

// Cache persists the aggregated envelope in a key-value store.
type Cache struct {
	store store.Store
	ttl   time.Duration
	now   func() time.Time
}

func NewCache(s store.Store, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{
		store: s,
		ttl:   ttl,
		now:   time.Now,
	}
}

func (c *Cache) TTL() time.Duration {
	return c.ttl
}

// Load returns the cached envelope, or nil when nothing usable is stored.
// A corrupt payload is deleted and reported as absent.
func (c *Cache) Load(ctx context.Context) *Envelope {
	data, err := c.store.Get(ctx, CacheKey)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			slog.Warn("Failed to read feed cache", "error", err)
		}
		metrics.RecordCacheRead("miss")
		return nil
	}

	var envelope Envelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		slog.Warn("Discarding corrupt feed cache", "error", err)
		if err := c.store.Delete(ctx, CacheKey); err != nil {
			slog.Debug("Failed to delete corrupt feed cache", "error", err)
		}
		metrics.RecordCacheRead("miss")
		return nil
	}

	if c.IsStale(&envelope) {
		metrics.RecordCacheRead("stale")
	} else {
		metrics.RecordCacheRead("fresh")
	}
	return &envelope
}

// Save writes a new envelope stamped with the current time and returns it.
func (c *Cache) Save(ctx context.Context, items []Item, stats map[string]SourceStat) (*Envelope, error) {
	envelope := &Envelope{
		Items:     items,
		Stats:     stats,
		Timestamp: c.now(),
	}

	data, err := json.Marshal(envelope)
	if err != nil {
		return envelope, fmt.Errorf("failed to marshal feed cache: %w", err)
	}

	if err := c.store.Set(ctx, CacheKey, data, 0); err != nil {
		return envelope, fmt.Errorf("failed to write feed cache: %w", err)
	}

	return envelope, nil
}

func (c *Cache) Clear(ctx context.Context) error {
	if err := c.store.Delete(ctx, CacheKey); err != nil {
		return fmt.Errorf("failed to clear feed cache: %w", err)
	}
	return nil
}

func (c *Cache) IsStale(envelope *Envelope) bool {
	return envelope.IsStale(c.now(), c.ttl)
}
