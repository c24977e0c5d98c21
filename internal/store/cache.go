package store

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCacheClient adapts *redis.Client to the narrow CacheClient surface
// Store needs, so tests can substitute an in-memory fake without a live
// Redis instance.
type RedisCacheClient struct {
	Client *redis.Client
}

func (c RedisCacheClient) Get(ctx context.Context, key string) (string, error) {
	val, err := c.Client.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", nil
	}
	return val, err
}

func (c RedisCacheClient) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return c.Client.Set(ctx, key, value, ttl).Err()
}

func (c RedisCacheClient) Del(ctx context.Context, keys ...string) error {
	return c.Client.Del(ctx, keys...).Err()
}
