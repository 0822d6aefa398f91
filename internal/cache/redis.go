package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisProvider stores entries in Redis under a key prefix.
type RedisProvider struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisProvider wraps an existing client.
func NewRedisProvider(client redis.UniversalClient, prefix string) *RedisProvider {
	return &RedisProvider{client: client, prefix: prefix}
}

func (r *RedisProvider) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, err
	}
	return val, nil
}

func (r *RedisProvider) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return r.client.Set(ctx, r.prefix+key, value, ttl).Err()
}

func (r *RedisProvider) Del(ctx context.Context, key string) error {
	return r.client.Del(ctx, r.prefix+key).Err()
}
