package mocks

import (
	"context"

	"docsync/core/remote"

	"github.com/stretchr/testify/mock"
)

// Store is a mock implementation of remote.Store
type Store struct {
	mock.Mock
}

func (m *Store) Variant() remote.Variant {
	args := m.Called()
	return args.Get(0).(remote.Variant)
}

func (m *Store) List(ctx context.Context) ([]remote.Item, error) {
	args := m.Called(ctx)
	if items, ok := args.Get(0).([]remote.Item); ok {
		return items, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *Store) RequestUpload(ctx context.Context, items []remote.Item) ([]remote.UploadTicket, error) {
	args := m.Called(ctx, items)
	if tickets, ok := args.Get(0).([]remote.UploadTicket); ok {
		return tickets, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *Store) UploadBlob(ctx context.Context, url string, payload []byte) error {
	args := m.Called(ctx, url, payload)
	return args.Error(0)
}

func (m *Store) CommitMetadata(ctx context.Context, items []remote.Item) ([]remote.Result, error) {
	args := m.Called(ctx, items)
	if results, ok := args.Get(0).([]remote.Result); ok {
		return results, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *Store) Delete(ctx context.Context, items []remote.Item) ([]remote.Result, error) {
	args := m.Called(ctx, items)
	if results, ok := args.Get(0).([]remote.Result); ok {
		return results, args.Error(1)
	}
	return nil, args.Error(1)
}
