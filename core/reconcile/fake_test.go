package reconcile

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"

	"docsync/core/remote"
)

// memStore is an in-memory remote.Store that records every call.
type memStore struct {
	mu      sync.Mutex
	items   map[string]remote.Item
	order   []string
	calls   []string
	reject  map[string]bool
	failPut map[string]bool
	blobs   map[string][]byte
}

func newMemStore(items ...remote.Item) *memStore {
	s := &memStore{
		items:   make(map[string]remote.Item),
		reject:  make(map[string]bool),
		failPut: make(map[string]bool),
		blobs:   make(map[string][]byte),
	}
	for _, item := range items {
		s.put(item)
	}
	return s
}

func (s *memStore) put(item remote.Item) {
	if !slices.Contains(s.order, item.ID) {
		s.order = append(s.order, item.ID)
	}
	s.items[item.ID] = item
}

func ids(items []remote.Item) string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, item.ID)
	}
	return strings.Join(out, ",")
}

func (s *memStore) log(call string) {
	s.calls = append(s.calls, call)
}

func (s *memStore) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.calls)
}

func (s *memStore) Variant() remote.Variant { return remote.VariantDocs }

func (s *memStore) List(ctx context.Context) ([]remote.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]remote.Item, 0, len(s.order))
	for _, id := range s.order {
		if item, ok := s.items[id]; ok {
			out = append(out, item)
		}
	}
	return out, nil
}

func (s *memStore) RequestUpload(ctx context.Context, items []remote.Item) ([]remote.UploadTicket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.log("request:" + ids(items))

	tickets := make([]remote.UploadTicket, 0, len(items))
	for _, item := range items {
		if s.reject[item.ID] {
			tickets = append(tickets, remote.UploadTicket{ID: item.ID, Message: "rejected"})
			continue
		}
		tickets = append(tickets, remote.UploadTicket{ID: item.ID, Success: true, URL: "put://" + item.ID})
	}
	return tickets, nil
}

func (s *memStore) UploadBlob(ctx context.Context, url string, payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := strings.TrimPrefix(url, "put://")
	s.log("upload:" + id)
	if s.failPut[id] {
		return errors.New("connection reset")
	}
	s.blobs[id] = payload
	return nil
}

func (s *memStore) CommitMetadata(ctx context.Context, items []remote.Item) ([]remote.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.log("commit:" + ids(items))

	results := make([]remote.Result, 0, len(items))
	for _, item := range items {
		if s.reject[item.ID] {
			results = append(results, remote.Result{ID: item.ID, Message: "unknown upload"})
			continue
		}
		item.Source = nil
		s.put(item)
		results = append(results, remote.Result{ID: item.ID, Success: true})
	}
	return results, nil
}

func (s *memStore) Delete(ctx context.Context, items []remote.Item) ([]remote.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.log("delete:" + ids(items))

	results := make([]remote.Result, 0, len(items))
	for _, item := range items {
		_, ok := s.items[item.ID]
		delete(s.items, item.ID)
		results = append(results, remote.Result{ID: item.ID, Success: ok})
	}
	return results, nil
}

// payloadOf returns a builder producing "payload:<id>" and failing for ids in fail.
func payloadOf(fail ...string) PayloadBuilder {
	return PayloadFunc(func(ctx context.Context, item remote.Item) ([]byte, error) {
		if slices.Contains(fail, item.ID) {
			return nil, errors.New("source file vanished")
		}
		return []byte("payload:" + item.ID), nil
	})
}

func doc(id, parent, name string, size int64) remote.Item {
	return remote.Item{
		ID:          id,
		Type:        remote.TypeDocument,
		Parent:      parent,
		VisibleName: name,
		Version:     1,
		Source:      &remote.SourceRef{ID: "src-" + id, Size: size},
	}
}

func folder(id, parent, name string) remote.Item {
	return remote.Item{
		ID:          id,
		Type:        remote.TypeCollection,
		Parent:      parent,
		VisibleName: name,
		Version:     1,
		Source:      &remote.SourceRef{ID: "src-" + id},
	}
}

// server strips source references the way a remote listing would.
func server(item remote.Item, version int) remote.Item {
	item.Source = nil
	item.Version = version
	return item
}
