package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/opencrew/matchengine/internal/match"
)

// DefaultMatchCacheTTL bounds how long a cached match list may serve before
// the next read falls through to the database.
const DefaultMatchCacheTTL = 10 * time.Minute

// MatchCache is a Redis read-through cache over a mission's stored match
// list. Cache misses and Redis failures both fall back to the database; a
// broken cache never fails a read.
type MatchCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewMatchCache creates a match list cache. A non-positive TTL falls back to
// DefaultMatchCacheTTL.
func NewMatchCache(client *redis.Client, ttl time.Duration, logger *slog.Logger) *MatchCache {
	if ttl <= 0 {
		ttl = DefaultMatchCacheTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &MatchCache{client: client, ttl: ttl, logger: logger}
}

func matchCacheKey(missionID string) string {
	return "matches:" + missionID
}

// Get returns the cached match list and whether the key was present.
// Redis errors are logged and reported as a miss.
func (c *MatchCache) Get(ctx context.Context, missionID string) ([]match.Result, bool) {
	data, err := c.client.Get(ctx, matchCacheKey(missionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		c.logger.Warn("match cache read failed",
			slog.String("mission_id", missionID),
			slog.String("error", err.Error()))
		return nil, false
	}

	var results []match.Result
	if err := json.Unmarshal(data, &results); err != nil {
		c.logger.Warn("match cache entry corrupt, dropping",
			slog.String("mission_id", missionID),
			slog.String("error", err.Error()))
		c.client.Del(ctx, matchCacheKey(missionID))
		return nil, false
	}
	return results, true
}

// Set stores the match list under the mission's key with the cache TTL.
func (c *MatchCache) Set(ctx context.Context, missionID string, results []match.Result) error {
	data, err := json.Marshal(results)
	if err != nil {
		return fmt.Errorf("failed to encode match list: %w", err)
	}
	if err := c.client.Set(ctx, matchCacheKey(missionID), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache match list: %w", err)
	}
	return nil
}

// Invalidate drops the mission's cached match list. Called after every
// refresh so readers never see the superseded ranking.
func (c *MatchCache) Invalidate(ctx context.Context, missionID string) error {
	if err := c.client.Del(ctx, matchCacheKey(missionID)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate match cache: %w", err)
	}
	return nil
}
