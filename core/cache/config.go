package cache

import (
	"fmt"
	"time"
)

const (
	// BackendMemory keeps entries in process memory.
	BackendMemory = "memory"
	// BackendRedis keeps entries in a Redis server.
	BackendRedis = "redis"
)

// Config holds configuration for the entry cache.
type Config struct {
	// Backend selects the backing store (memory, redis).
	Backend string `mapstructure:"backend" default:"memory"`
	// RedisURL is the connection URL used by the redis backend.
	RedisURL string `mapstructure:"redis_url" default:"redis://localhost:6379/0"`
	// Prefix namespaces every key written to the backing store.
	Prefix string `mapstructure:"prefix" default:"docsync:"`
	// MaxValueBytes is the per-entry size ceiling of the backing store.
	MaxValueBytes int `mapstructure:"max_value_bytes" default:"131072"`
	// ListingTTLSeconds bounds how long remote listings stay cached.
	ListingTTLSeconds int `mapstructure:"listing_ttl_seconds" default:"600"`
}

// ListingTTL returns the listing TTL as a duration.
func (c Config) ListingTTL() time.Duration {
	return time.Duration(c.ListingTTLSeconds) * time.Second
}

// NewBackend creates the backing store selected by the configuration.
func NewBackend(cfg Config) (Backend, error) {
	maxSize := cfg.MaxValueBytes
	if maxSize <= 0 {
		maxSize = DefaultMaxValueSize
	}

	switch cfg.Backend {
	case "", BackendMemory:
		return NewMemoryBackend(maxSize), nil
	case BackendRedis:
		backend, err := NewRedisBackend(cfg.RedisURL, cfg.Prefix, maxSize)
		if err != nil {
			return nil, err
		}
		return backend, nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}
