package cache

import (
	"context"
	"time"

	rediscommon "github.com/cineloop/cineloop/common/redis"
)

// RedisCache is a Redis-backed cache implementation. It lets multiple API
// instances share one metadata cache instead of each warming its own.
type RedisCache struct {
	client *rediscommon.Client
	prefix string
}

// NewRedisCache creates a Redis-backed cache. All keys are namespaced under
// the given prefix so cache entries don't collide with other Redis usage.
func NewRedisCache(client *rediscommon.Client, prefix string) *RedisCache {
	return &RedisCache{
		client: client,
		prefix: prefix,
	}
}

// Get retrieves a value from cache
func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, found, err := c.client.GetOrNil(ctx, c.prefix+key)
	if err != nil {
		return nil, false, err
	}
	if !found {
		return nil, false, nil
	}
	return []byte(val), true, nil
}

// Set stores a value in cache with TTL
func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return c.client.SetWithExpiry(ctx, c.prefix+key, string(value), ttl)
}

// Delete removes a value from cache
func (c *RedisCache) Delete(ctx context.Context, key string) error {
	return c.client.Delete(ctx, c.prefix+key)
}

// Close closes the cache. The underlying Redis connection is owned by the
// caller and stays open.
func (c *RedisCache) Close() error {
	return nil
}
