// Package health provides readiness checks for the external dependencies of
// the API server.
package health

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrNotConfigured reports a dependency that was never set up.
var ErrNotConfigured = errors.New("dependency not configured")

// defaultPingTimeout bounds a single Redis PING.
const defaultPingTimeout = 2 * time.Second

// RedisChecker implements health checking for Redis.
type RedisChecker struct {
	client  *redis.Client
	timeout time.Duration
}

// NewRedisChecker creates a new Redis health checker.
func NewRedisChecker(client *redis.Client) *RedisChecker {
	return &RedisChecker{
		client:  client,
		timeout: defaultPingTimeout,
	}
}

// HealthCheck sends a PING to Redis.
func (r *RedisChecker) HealthCheck(ctx context.Context) error {
	if r == nil || r.client == nil {
		return ErrNotConfigured
	}
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	return r.client.Ping(ctx).Err()
}
