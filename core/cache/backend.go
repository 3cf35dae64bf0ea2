package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// DefaultMaxValueSize is the per-entry ceiling used when none is configured (128 KiB).
const DefaultMaxValueSize = 128 * 1024

// ErrValueTooLarge is returned by a backend asked to store a value above its ceiling.
var ErrValueTooLarge = errors.New("value exceeds backend size limit")

// Backend is a size-limited key/value store with per-entry TTL.
type Backend interface {
	// Get returns the raw value stored under key.
	// found is false when the key is absent or expired.
	Get(ctx context.Context, key string) (value string, found bool, err error)
	// Put stores value under key. A zero ttl means no expiry.
	Put(ctx context.Context, key, value string, ttl time.Duration) error
	// Remove deletes key. Removing an absent key is not an error.
	Remove(ctx context.Context, key string) error
	// MaxValueSize is the largest value, in bytes, Put accepts.
	MaxValueSize() int
}

type memoryEntry struct {
	value   string
	expires time.Time
}

// MemoryBackend is an in-process Backend with TTL expiry and a hard size ceiling.
type MemoryBackend struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	maxSize int
	now     func() time.Time
}

// NewMemoryBackend creates an empty in-memory backend.
func NewMemoryBackend(maxSize int) *MemoryBackend {
	return &MemoryBackend{
		entries: make(map[string]memoryEntry),
		maxSize: maxSize,
		now:     time.Now,
	}
}

// Get implements Backend.
func (b *MemoryBackend) Get(ctx context.Context, key string) (string, bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	entry, ok := b.entries[key]
	if !ok {
		return "", false, nil
	}
	if !entry.expires.IsZero() && b.now().After(entry.expires) {
		delete(b.entries, key)
		return "", false, nil
	}
	return entry.value, true, nil
}

// Put implements Backend.
func (b *MemoryBackend) Put(ctx context.Context, key, value string, ttl time.Duration) error {
	if len(value) > b.maxSize {
		return fmt.Errorf("%w: key %s has %d bytes, limit %d", ErrValueTooLarge, key, len(value), b.maxSize)
	}

	entry := memoryEntry{value: value}
	if ttl > 0 {
		entry.expires = b.now().Add(ttl)
	}

	b.mu.Lock()
	b.entries[key] = entry
	b.mu.Unlock()
	return nil
}

// Remove implements Backend.
func (b *MemoryBackend) Remove(ctx context.Context, key string) error {
	b.mu.Lock()
	delete(b.entries, key)
	b.mu.Unlock()
	return nil
}

// MaxValueSize implements Backend.
func (b *MemoryBackend) MaxValueSize() int {
	return b.maxSize
}

// Len returns the number of stored keys, expired ones included.
func (b *MemoryBackend) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.entries)
}
