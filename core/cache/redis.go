package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisBackend implements Backend on top of a Redis server.
type RedisBackend struct {
	client  *redis.Client
	prefix  string
	maxSize int
}

// NewRedisBackend connects to Redis and verifies the connection.
func NewRedisBackend(redisURL, prefix string, maxSize int) (*RedisBackend, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return NewRedisBackendWithClient(client, prefix, maxSize), nil
}

// NewRedisBackendWithClient creates a backend from an existing Redis client.
func NewRedisBackendWithClient(client *redis.Client, prefix string, maxSize int) *RedisBackend {
	return &RedisBackend{
		client:  client,
		prefix:  prefix,
		maxSize: maxSize,
	}
}

func (b *RedisBackend) key(k string) string {
	return b.prefix + k
}

// Get implements Backend.
func (b *RedisBackend) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := b.client.Get(ctx, b.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis get %s: %w", key, err)
	}
	return value, true, nil
}

// Put implements Backend.
func (b *RedisBackend) Put(ctx context.Context, key, value string, ttl time.Duration) error {
	if len(value) > b.maxSize {
		return fmt.Errorf("%w: key %s has %d bytes, limit %d", ErrValueTooLarge, key, len(value), b.maxSize)
	}
	if err := b.client.Set(ctx, b.key(key), value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Remove implements Backend.
func (b *RedisBackend) Remove(ctx context.Context, key string) error {
	if err := b.client.Del(ctx, b.key(key)).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", key, err)
	}
	return nil
}

// MaxValueSize implements Backend.
func (b *RedisBackend) MaxValueSize() int {
	return b.maxSize
}

// Close closes the Redis connection.
func (b *RedisBackend) Close() error {
	return b.client.Close()
}
