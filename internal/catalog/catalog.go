// Package catalog caches the skill taxonomy (skill ID to display name) with a
// short TTL so scoring passes do not hit the database per candidate.
package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// DefaultTTL is how long a fetched skill catalog stays fresh.
const DefaultTTL = 5 * time.Minute

// Source loads the full skill taxonomy from the backing store.
type Source interface {
	ListSkillNames(ctx context.Context) (map[string]string, error)
}

// Cache is a TTL cache over the skill taxonomy. A stale cache refetches
// synchronously on the next read; concurrent readers block on the single
// in-flight refetch rather than stampeding the store.
type Cache struct {
	source Source
	ttl    time.Duration
	logger *slog.Logger

	mu        sync.Mutex
	names     map[string]string
	fetchedAt time.Time
}

// NewCache builds a skill catalog cache over the given source. A non-positive
// TTL falls back to DefaultTTL.
func NewCache(source Source, ttl time.Duration, logger *slog.Logger) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{
		source: source,
		ttl:    ttl,
		logger: logger,
	}
}

// Names returns the skill ID to name map, refetching from the source if the
// cached copy is older than the TTL. The returned map is shared; callers must
// not mutate it.
func (c *Cache) Names(ctx context.Context) (map[string]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.names != nil && time.Since(c.fetchedAt) < c.ttl {
		return c.names, nil
	}
	return c.refetchLocked(ctx)
}

// Refresh forces a refetch regardless of freshness.
func (c *Cache) Refresh(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, err := c.refetchLocked(ctx)
	return err
}

// Invalidate drops the cached copy so the next read refetches.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.names = nil
	c.fetchedAt = time.Time{}
}

func (c *Cache) refetchLocked(ctx context.Context) (map[string]string, error) {
	names, err := c.source.ListSkillNames(ctx)
	if err != nil {
		// Serve the stale copy if we have one rather than failing a
		// scoring pass over a catalog hiccup.
		if c.names != nil {
			c.logger.Warn("skill catalog refresh failed, serving stale copy",
				"error", err,
				"age", time.Since(c.fetchedAt).String())
			return c.names, nil
		}
		return nil, fmt.Errorf("failed to load skill catalog: %w", err)
	}
	c.names = names
	c.fetchedAt = time.Now()
	c.logger.Debug("skill catalog refreshed", "skills", len(names))
	return c.names, nil
}
