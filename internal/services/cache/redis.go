package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisBackend is the exact-tier cache backed by Redis
type RedisBackend struct {
	client *redis.Client
}

// NewRedisBackend connects a redis exact-tier backend
func NewRedisBackend(redisURL string) (*RedisBackend, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	return &RedisBackend{client: redis.NewClient(opts)}, nil
}

// NewRedisBackendFromClient wraps an existing client (shared with health checks)
func NewRedisBackendFromClient(client *redis.Client) *RedisBackend {
	return &RedisBackend{client: client}
}

// Get fetches the raw cached bytes for key
func (rb *RedisBackend) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := rb.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

// Set stores raw bytes under key with a TTL
func (rb *RedisBackend) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return rb.client.Set(ctx, key, value, ttl).Err()
}

// Ping verifies connectivity for health checks
func (rb *RedisBackend) Ping(ctx context.Context) error {
	return rb.client.Ping(ctx).Err()
}

// Client exposes the underlying redis client
func (rb *RedisBackend) Client() *redis.Client {
	return rb.client
}
