// Package health provides reachability checks for the match engine's
// external dependencies, consumed by the readiness endpoint.
package health

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// RedisChecker reports whether the Redis match cache is reachable. The
// cache is best-effort, so callers typically treat a failure here as a
// degradation rather than an outage.
type RedisChecker struct {
	client *redis.Client
}

// NewRedisChecker wraps the given client in a checker.
func NewRedisChecker(client *redis.Client) *RedisChecker {
	return &RedisChecker{client: client}
}

// HealthCheck sends a PING. The caller bounds the wait via ctx.
func (c *RedisChecker) HealthCheck(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
