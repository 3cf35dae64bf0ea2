package propstore

import (
	"context"
	"maps"
	"sync"
)

const (
	// KeyDeviceToken holds the cached remote device token.
	KeyDeviceToken = "__DOCSYNC_DEVICE_TOKEN__"
	// KeyDeviceID holds the device id the token was registered with.
	KeyDeviceID = "__DOCSYNC_DEVICE_ID__"
)

// ReservedKeys lists the keys that are not part of the identifier map.
var ReservedKeys = []string{KeyDeviceToken, KeyDeviceID}

// Store is a flat string property store.
type Store interface {
	// GetAll returns every property.
	GetAll(ctx context.Context) (map[string]string, error)
	// SetAll writes every given property, leaving other keys untouched.
	SetAll(ctx context.Context, props map[string]string) error
	// SetOne writes a single property.
	SetOne(ctx context.Context, key, value string) error
	// DeleteOne removes a property. Deleting an absent key is not an error.
	DeleteOne(ctx context.Context, key string) error
}

// MemoryStore is an in-process Store.
type MemoryStore struct {
	mu    sync.RWMutex
	props map[string]string
}

// NewMemoryStore creates a store seeded with a copy of initial.
func NewMemoryStore(initial map[string]string) *MemoryStore {
	props := make(map[string]string, len(initial))
	maps.Copy(props, initial)
	return &MemoryStore{props: props}
}

// GetAll implements Store.
func (s *MemoryStore) GetAll(ctx context.Context) (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return maps.Clone(s.props), nil
}

// SetAll implements Store.
func (s *MemoryStore) SetAll(ctx context.Context, props map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	maps.Copy(s.props, props)
	return nil
}

// SetOne implements Store.
func (s *MemoryStore) SetOne(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.props[key] = value
	return nil
}

// DeleteOne implements Store.
func (s *MemoryStore) DeleteOne(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.props, key)
	return nil
}
