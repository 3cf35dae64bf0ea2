package idmap

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"

	"docsync/core/propstore"
	"docsync/core/utils"

	"github.com/google/uuid"
)

// Map is a bidirectional source key <-> UUID mapping.
type Map struct {
	mu      sync.Mutex
	store   propstore.Store
	forward map[string]string
	reverse map[string]string
	added   int
	newID   func() string
}

// Option configures a Map.
type Option func(*Map)

// WithGenerator replaces the UUID generator.
func WithGenerator(gen func() string) Option {
	return func(m *Map) { m.newID = gen }
}

// Load reads the mapping from store, ignoring the reserved keys.
// It fails when two source keys share a UUID.
func Load(ctx context.Context, store propstore.Store, reserved []string, opts ...Option) (*Map, error) {
	props, err := store.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load identifier map: %w", err)
	}

	forward := props
	for _, key := range reserved {
		forward, _ = utils.Pop(forward, key, "")
	}

	reverse := utils.Reverse(forward)
	if len(reverse) != len(forward) {
		return nil, fmt.Errorf("identifier map is not injective: %d keys share %d ids", len(forward), len(reverse))
	}

	m := &Map{
		store:   store,
		forward: maps.Clone(forward),
		reverse: reverse,
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// UUID returns the UUID for sourceKey, minting one on first use.
func (m *Map) UUID(sourceKey string) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	if id, ok := m.forward[sourceKey]; ok {
		return id
	}

	id := m.newID()
	for _, taken := m.reverse[id]; taken; _, taken = m.reverse[id] {
		id = m.newID()
	}
	m.forward[sourceKey] = id
	m.reverse[id] = sourceKey
	m.added++
	return id
}

// SourceKey returns the source key mapped to id.
func (m *Map) SourceKey(id string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key, ok := m.reverse[id]
	return key, ok
}

// Len returns the number of mapped keys.
func (m *Map) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.forward)
}

// Added returns how many UUIDs were minted since Load.
func (m *Map) Added() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.added
}

// Snapshot returns a copy of the forward mapping.
func (m *Map) Snapshot() map[string]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return maps.Clone(m.forward)
}

// Keys returns the mapped source keys in sorted order.
func (m *Map) Keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Sorted(maps.Keys(m.forward))
}

// Flush writes the whole mapping back to the store.
func (m *Map) Flush(ctx context.Context) error {
	snapshot := m.Snapshot()
	if err := m.store.SetAll(ctx, snapshot); err != nil {
		return fmt.Errorf("flush identifier map: %w", err)
	}
	return nil
}
