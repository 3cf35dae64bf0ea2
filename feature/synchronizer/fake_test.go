package synchronizer

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"docsync/core/remote"
)

// memRemote is an in-memory remote.Store.
// Uploads of items whose name is in failUpload fail.
type memRemote struct {
	mu         sync.Mutex
	items      map[string]remote.Item
	blobs      map[string][]byte
	calls      []string
	requested  map[string]remote.Item
	failUpload map[string]bool
}

func newMemRemote(items ...remote.Item) *memRemote {
	r := &memRemote{
		items:      make(map[string]remote.Item),
		blobs:      make(map[string][]byte),
		requested:  make(map[string]remote.Item),
		failUpload: make(map[string]bool),
	}
	for _, it := range items {
		r.items[it.ID] = it
	}
	return r
}

func (r *memRemote) Variant() remote.Variant { return remote.VariantDocs }

func (r *memRemote) List(ctx context.Context) ([]remote.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]remote.Item, 0, len(r.items))
	for _, it := range r.items {
		out = append(out, it)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memRemote) RequestUpload(ctx context.Context, items []remote.Item) ([]remote.UploadTicket, error) {
	r.record("request", items)
	r.mu.Lock()
	for _, it := range items {
		r.requested[it.ID] = it
	}
	r.mu.Unlock()
	tickets := make([]remote.UploadTicket, 0, len(items))
	for _, it := range items {
		tickets = append(tickets, remote.UploadTicket{ID: it.ID, Success: true, URL: "put://" + it.ID})
	}
	return tickets, nil
}

func (r *memRemote) UploadBlob(ctx context.Context, url string, payload []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := strings.TrimPrefix(url, "put://")
	r.calls = append(r.calls, "upload:"+id)
	if r.failUpload[r.requested[id].VisibleName] {
		return errors.New("blob store unavailable")
	}
	r.blobs[id] = payload
	return nil
}

func (r *memRemote) CommitMetadata(ctx context.Context, items []remote.Item) ([]remote.Result, error) {
	r.record("commit", items)
	r.mu.Lock()
	defer r.mu.Unlock()
	results := make([]remote.Result, 0, len(items))
	for _, it := range items {
		it.Source = nil
		r.items[it.ID] = it
		results = append(results, remote.Result{ID: it.ID, Success: true})
	}
	return results, nil
}

func (r *memRemote) Delete(ctx context.Context, items []remote.Item) ([]remote.Result, error) {
	r.record("delete", items)
	r.mu.Lock()
	defer r.mu.Unlock()
	results := make([]remote.Result, 0, len(items))
	for _, it := range items {
		delete(r.items, it.ID)
		results = append(results, remote.Result{ID: it.ID, Success: true})
	}
	return results, nil
}

func (r *memRemote) record(op string, items []remote.Item) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]string, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ID)
	}
	r.calls = append(r.calls, op+":"+strings.Join(ids, ","))
}

func (r *memRemote) Calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

// byName returns the item named name.
func (r *memRemote) byName(name string) (remote.Item, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, it := range r.items {
		if it.VisibleName == name {
			return it, true
		}
	}
	return remote.Item{}, false
}

func (r *memRemote) Connector() Connector {
	return func(ctx context.Context, host, userToken string) (remote.Store, error) {
		return r, nil
	}
}

// fakeAuth hands out fixed tokens and counts registrations.
type fakeAuth struct {
	mu          sync.Mutex
	registered  int
	lastDevice  string
	registerErr error
}

func (a *fakeAuth) RegisterDevice(ctx context.Context, code, deviceID string) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.registerErr != nil {
		return "", a.registerErr
	}
	a.registered++
	a.lastDevice = deviceID
	return "device-token-" + code, nil
}

func (a *fakeAuth) UserToken(ctx context.Context, deviceToken string) (string, error) {
	return "user-token", nil
}

func (a *fakeAuth) StorageHost(ctx context.Context, userToken string) (string, error) {
	return "https://storage.example", nil
}
