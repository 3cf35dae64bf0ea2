package remote

import (
	"context"
	"net/http"
	"strings"
	"time"

	"docsync/core/cache"

	"go.uber.org/zap"
)

const docsBasePath = "/document-storage/json/2"

// docsRecord is an item as the document-storage endpoints spell it.
type docsRecord struct {
	ID           string
	Version      int
	Message      string `json:",omitempty"`
	Success      bool
	BlobURLGet   string `json:",omitempty"`
	BlobURLPut   string `json:",omitempty"`
	Type         ItemType
	VissibleName string
	CurrentPage  int
	Parent       string
}

type docsUploadRequest struct {
	ID      string
	Type    ItemType
	Version int
}

type docsStatusUpdate struct {
	ID           string
	Type         ItemType
	Version      int
	Parent       string
	VissibleName string
}

type docsDelete struct {
	ID      string
	Version int
}

// DocsStore implements Store against the flat document-storage endpoints.
type DocsStore struct {
	t     *transport
	base  string
	cache *cache.Cache
	ttl   time.Duration
	log   *zap.Logger
}

// NewDocsStore creates a DocsStore.
func NewDocsStore(opts Options) *DocsStore {
	t := newTransport(opts.HTTPClient, opts.Token, opts.Logger)
	return &DocsStore{
		t:     t,
		base:  strings.TrimRight(opts.Host, "/") + docsBasePath,
		cache: opts.Cache,
		ttl:   opts.ListingTTL,
		log:   t.logger,
	}
}

// Variant implements Store.
func (s *DocsStore) Variant() Variant { return VariantDocs }

func (s *DocsStore) listingKey() string {
	return "docs:listing:" + s.base
}

// List implements Store.
func (s *DocsStore) List(ctx context.Context) ([]Item, error) {
	records, err := readThrough(ctx, s.cache, s.listingKey(), s.ttl, func(ctx context.Context) ([]docsRecord, error) {
		var records []docsRecord
		err := s.t.doJSON(ctx, "list", http.MethodGet, s.base+"/docs?withBlob=1", nil, &records)
		return records, err
	})
	if err != nil {
		return nil, err
	}

	items := make([]Item, 0, len(records))
	for _, r := range records {
		items = append(items, Item{
			ID:          r.ID,
			Type:        r.Type,
			Parent:      r.Parent,
			VisibleName: r.VissibleName,
			Version:     r.Version,
			CurrentPage: r.CurrentPage,
		})
	}
	return validItems(items, s.log), nil
}

// RequestUpload implements Store.
func (s *DocsStore) RequestUpload(ctx context.Context, items []Item) ([]UploadTicket, error) {
	req := make([]docsUploadRequest, 0, len(items))
	for _, item := range items {
		req = append(req, docsUploadRequest{ID: item.ID, Type: item.Type, Version: item.Version})
	}

	var resp []docsRecord
	if err := s.t.doJSON(ctx, "upload request", http.MethodPut, s.base+"/upload/request", req, &resp); err != nil {
		return nil, err
	}

	tickets := make([]UploadTicket, 0, len(resp))
	for _, r := range resp {
		tickets = append(tickets, UploadTicket{ID: r.ID, Success: r.Success, URL: r.BlobURLPut, Message: r.Message})
	}
	return tickets, nil
}

// UploadBlob implements Store. The presigned URL carries its own credentials.
func (s *DocsStore) UploadBlob(ctx context.Context, url string, payload []byte) error {
	_, err := s.t.do(ctx, call{
		op:        "blob upload",
		method:    http.MethodPut,
		url:       url,
		body:      payload,
		anonymous: true,
	})
	return err
}

// CommitMetadata implements Store.
func (s *DocsStore) CommitMetadata(ctx context.Context, items []Item) ([]Result, error) {
	req := make([]docsStatusUpdate, 0, len(items))
	for _, item := range items {
		req = append(req, docsStatusUpdate{
			ID:           item.ID,
			Type:         item.Type,
			Version:      item.Version,
			Parent:       item.Parent,
			VissibleName: item.VisibleName,
		})
	}
	defer s.invalidate(ctx)
	return s.batch(ctx, "update status", "/upload/update-status", req)
}

// Delete implements Store.
func (s *DocsStore) Delete(ctx context.Context, items []Item) ([]Result, error) {
	req := make([]docsDelete, 0, len(items))
	for _, item := range items {
		req = append(req, docsDelete{ID: item.ID, Version: item.Version})
	}
	defer s.invalidate(ctx)
	return s.batch(ctx, "delete", "/delete", req)
}

func (s *DocsStore) batch(ctx context.Context, op, path string, req any) ([]Result, error) {
	var resp []docsRecord
	if err := s.t.doJSON(ctx, op, http.MethodPut, s.base+path, req, &resp); err != nil {
		return nil, err
	}

	results := make([]Result, 0, len(resp))
	for _, r := range resp {
		results = append(results, Result{ID: r.ID, Success: r.Success, Message: r.Message})
	}
	return results, nil
}

// invalidate drops the cached listing after a write.
func (s *DocsStore) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Remove(ctx, s.listingKey()); err != nil {
		s.log.Warn("Failed to invalidate cached listing", zap.Error(err))
	}
}

// readThrough loads a value through c, or directly when c is nil.
func readThrough[T any](ctx context.Context, c *cache.Cache, key string, ttl time.Duration, load func(context.Context) (T, error)) (T, error) {
	if c == nil {
		return load(ctx)
	}
	var out T
	err := c.GetOrLoad(ctx, key, ttl, &out, func(ctx context.Context) (any, error) {
		return load(ctx)
	})
	return out, err
}
