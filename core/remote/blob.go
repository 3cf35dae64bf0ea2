package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"docsync/core/cache"

	"go.uber.org/zap"
)

const (
	blobRootPath     = "/sync/v3/root"
	blobFilesPath    = "/sync/v3/files/"
	blobCompletePath = "/sync/v2/sync-complete"

	// stagePrefix marks upload ticket URLs handed out by BlobStore.
	stagePrefix = "staged:"

	metadataSuffix = ".metadata"
	payloadSuffix  = ".zip"
)

type rootInfo struct {
	Hash       string `json:"hash"`
	Generation int64  `json:"generation"`
}

type rootUpdate struct {
	Hash       string `json:"hash"`
	Generation int64  `json:"generation"`
	Broadcast  bool   `json:"broadcast"`
}

type syncComplete struct {
	Generation int64 `json:"generation"`
}

// blobMetadata is the per-document metadata blob.
type blobMetadata struct {
	VisibleName  string   `json:"visibleName"`
	Type         ItemType `json:"type"`
	Parent       string   `json:"parent"`
	Version      int      `json:"version"`
	Deleted      bool     `json:"deleted"`
	LastModified string   `json:"lastModified"`
	CurrentPage  int      `json:"currentPage,omitempty"`
}

type stagedBlob struct {
	hash string
	size int64
}

// BlobStore implements Store against the content-addressed sync endpoints.
//
// Payloads uploaded with UploadBlob are staged under their hash and only
// become part of the tree when the matching item is committed.
type BlobStore struct {
	t     *transport
	base  string
	cache *cache.Cache
	ttl   time.Duration
	log   *zap.Logger
	now   func() time.Time

	mu     sync.Mutex
	staged map[string]stagedBlob
}

// NewBlobStore creates a BlobStore.
func NewBlobStore(opts Options) *BlobStore {
	t := newTransport(opts.HTTPClient, opts.Token, opts.Logger)
	return &BlobStore{
		t:      t,
		base:   strings.TrimRight(opts.Host, "/"),
		cache:  opts.Cache,
		ttl:    opts.ListingTTL,
		log:    t.logger,
		now:    time.Now,
		staged: make(map[string]stagedBlob),
	}
}

// Variant implements Store.
func (s *BlobStore) Variant() Variant { return VariantBlob }

// List implements Store.
func (s *BlobStore) List(ctx context.Context) ([]Item, error) {
	root, err := s.root(ctx)
	if err != nil {
		return nil, err
	}
	if root.Hash == "" {
		return nil, nil
	}

	items, err := readThrough(ctx, s.cache, "blob:listing:"+root.Hash, s.ttl, func(ctx context.Context) ([]Item, error) {
		return s.materialize(ctx, root.Hash)
	})
	if err != nil {
		return nil, err
	}
	return validItems(items, s.log), nil
}

// materialize reads the root index, every document index and every metadata blob.
func (s *BlobStore) materialize(ctx context.Context, rootHash string) ([]Item, error) {
	entries, err := s.readIndex(ctx, rootHash, true)
	if err != nil {
		return nil, err
	}

	items := make([]Item, 0, len(entries))
	for _, e := range entries {
		if e.Type != entryDocument {
			continue
		}
		meta, err := s.readMetadata(ctx, e)
		if err != nil {
			return nil, err
		}
		if meta == nil || meta.Deleted {
			continue
		}
		items = append(items, Item{
			ID:          e.ID,
			Type:        meta.Type,
			Parent:      meta.Parent,
			VisibleName: meta.VisibleName,
			Version:     meta.Version,
			CurrentPage: meta.CurrentPage,
		})
	}
	return items, nil
}

func (s *BlobStore) readMetadata(ctx context.Context, e indexEntry) (*blobMetadata, error) {
	files, err := s.readIndex(ctx, e.Hash, true)
	if err != nil {
		return nil, err
	}
	for _, f := range files {
		if f.ID != e.ID+metadataSuffix {
			continue
		}
		raw, err := s.readBlob(ctx, f.Hash, true)
		if err != nil {
			return nil, err
		}
		var meta blobMetadata
		if err := json.Unmarshal([]byte(raw), &meta); err != nil {
			s.log.Warn("Skipping document with unreadable metadata", zap.String("id", e.ID), zap.Error(err))
			return nil, nil
		}
		return &meta, nil
	}
	s.log.Warn("Skipping document without metadata", zap.String("id", e.ID))
	return nil, nil
}

// RequestUpload implements Store. Documents get a staging URL for their payload.
func (s *BlobStore) RequestUpload(ctx context.Context, items []Item) ([]UploadTicket, error) {
	tickets := make([]UploadTicket, 0, len(items))
	for _, item := range items {
		if err := item.Validate(); err != nil {
			tickets = append(tickets, UploadTicket{ID: item.ID, Message: err.Error()})
			continue
		}
		ticket := UploadTicket{ID: item.ID, Success: true}
		if item.IsDocument() {
			ticket.URL = stagePrefix + item.ID
		}
		tickets = append(tickets, ticket)
	}
	return tickets, nil
}

// UploadBlob implements Store.
func (s *BlobStore) UploadBlob(ctx context.Context, url string, payload []byte) error {
	id, ok := strings.CutPrefix(url, stagePrefix)
	if !ok || id == "" {
		return fmt.Errorf("not a staging url: %q", url)
	}

	hash := hashOf(payload)
	if err := s.putFile(ctx, hash, payload); err != nil {
		return err
	}

	s.mu.Lock()
	s.staged[id] = stagedBlob{hash: hash, size: int64(len(payload))}
	s.mu.Unlock()
	return nil
}

// CommitMetadata implements Store.
func (s *BlobStore) CommitMetadata(ctx context.Context, items []Item) ([]Result, error) {
	return s.rewriteRoot(ctx, "commit", func(byID map[string]indexEntry) ([]Result, bool) {
		results := make([]Result, 0, len(items))
		changed := false
		for _, item := range items {
			entry, err := s.commitItem(ctx, item, byID)
			if err != nil {
				s.log.Warn("Failed to commit item", zap.String("id", item.ID), zap.Error(err))
				results = append(results, Result{ID: item.ID, Message: err.Error()})
				continue
			}
			byID[item.ID] = entry
			changed = true
			results = append(results, Result{ID: item.ID, Success: true})
		}
		return results, changed
	})
}

// commitItem uploads the metadata and document index of item and returns
// its new root entry.
func (s *BlobStore) commitItem(ctx context.Context, item Item, byID map[string]indexEntry) (indexEntry, error) {
	if err := item.Validate(); err != nil {
		return indexEntry{}, err
	}

	s.mu.Lock()
	staged, hasPayload := s.staged[item.ID]
	s.mu.Unlock()

	var files []indexEntry
	if existing, ok := byID[item.ID]; ok {
		previous, err := s.readIndex(ctx, existing.Hash, true)
		if err != nil {
			return indexEntry{}, err
		}
		for _, f := range previous {
			if f.ID == item.ID+metadataSuffix || (hasPayload && f.ID == item.ID+payloadSuffix) {
				continue
			}
			files = append(files, f)
		}
	}

	meta, err := json.Marshal(blobMetadata{
		VisibleName:  item.VisibleName,
		Type:         item.Type,
		Parent:       item.Parent,
		Version:      item.Version,
		LastModified: strconv.FormatInt(s.now().UnixMilli(), 10),
		CurrentPage:  item.CurrentPage,
	})
	if err != nil {
		return indexEntry{}, fmt.Errorf("encode metadata: %w", err)
	}
	metaHash := hashOf(meta)
	if err := s.putFile(ctx, metaHash, meta); err != nil {
		return indexEntry{}, err
	}
	files = append(files, indexEntry{Hash: metaHash, Type: entryFile, ID: item.ID + metadataSuffix, Size: int64(len(meta))})

	if hasPayload {
		files = append(files, indexEntry{Hash: staged.hash, Type: entryFile, ID: item.ID + payloadSuffix, Size: staged.size})
	}

	docIndex := []byte(formatIndex(files))
	docHash := hashOf(docIndex)
	if err := s.putFile(ctx, docHash, docIndex); err != nil {
		return indexEntry{}, err
	}

	if hasPayload {
		s.mu.Lock()
		delete(s.staged, item.ID)
		s.mu.Unlock()
	}

	return indexEntry{
		Hash:     docHash,
		Type:     entryDocument,
		ID:       item.ID,
		Subfiles: len(files),
		Size:     totalSize(files),
	}, nil
}

// Delete implements Store.
func (s *BlobStore) Delete(ctx context.Context, items []Item) ([]Result, error) {
	return s.rewriteRoot(ctx, "delete", func(byID map[string]indexEntry) ([]Result, bool) {
		results := make([]Result, 0, len(items))
		changed := false
		for _, item := range items {
			if _, ok := byID[item.ID]; !ok {
				results = append(results, Result{ID: item.ID, Message: "not found"})
				continue
			}
			delete(byID, item.ID)
			changed = true
			results = append(results, Result{ID: item.ID, Success: true})
		}
		return results, changed
	})
}

// rewriteRoot applies mutate to a fresh copy of the root index and swaps the
// root pointer when it reports a change.
func (s *BlobStore) rewriteRoot(ctx context.Context, op string, mutate func(byID map[string]indexEntry) ([]Result, bool)) ([]Result, error) {
	root, err := s.root(ctx)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]indexEntry)
	if root.Hash != "" {
		entries, err := s.readIndex(ctx, root.Hash, false)
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			byID[e.ID] = e
		}
	}

	results, changed := mutate(byID)
	if !changed {
		return results, nil
	}

	entries := make([]indexEntry, 0, len(byID))
	for _, e := range byID {
		entries = append(entries, e)
	}
	index := []byte(formatIndex(entries))
	hash := hashOf(index)
	if err := s.putFile(ctx, hash, index); err != nil {
		return nil, err
	}

	generation, err := s.swapRoot(ctx, hash, root.Generation)
	if err != nil {
		return nil, err
	}
	s.log.Debug("Swapped root index", zap.String("op", op), zap.String("hash", hash), zap.Int64("generation", generation))

	if err := s.t.doJSON(ctx, "sync complete", http.MethodPost, s.base+blobCompletePath, syncComplete{Generation: generation}, nil); err != nil {
		s.log.Warn("Failed to signal sync completion", zap.Int64("generation", generation), zap.Error(err))
	}
	return results, nil
}

// root reads the current root pointer. It is never cached.
func (s *BlobStore) root(ctx context.Context) (rootInfo, error) {
	var root rootInfo
	err := s.t.doJSON(ctx, "read root", http.MethodGet, s.base+blobRootPath, nil, &root)
	if IsStatus(err, http.StatusNotFound) {
		return rootInfo{}, nil
	}
	return root, err
}

func (s *BlobStore) swapRoot(ctx context.Context, hash string, generation int64) (int64, error) {
	var updated rootInfo
	err := s.t.doJSON(ctx, "write root", http.MethodPut, s.base+blobRootPath,
		rootUpdate{Hash: hash, Generation: generation, Broadcast: true}, &updated)
	if IsStatus(err, http.StatusPreconditionFailed) {
		return 0, fmt.Errorf("%w: %w", ErrGenerationConflict, err)
	}
	if err != nil {
		return 0, err
	}
	return updated.Generation, nil
}

func (s *BlobStore) readIndex(ctx context.Context, hash string, cached bool) ([]indexEntry, error) {
	raw, err := s.readBlob(ctx, hash, cached)
	if err != nil {
		return nil, err
	}
	entries, err := parseIndex(raw)
	if err != nil {
		return nil, fmt.Errorf("index %s: %w", hash, err)
	}
	return entries, nil
}

// readBlob fetches a content-addressed blob, through the cache when cached is set.
func (s *BlobStore) readBlob(ctx context.Context, hash string, cached bool) (string, error) {
	key := "blob:" + hash
	if cached && s.cache != nil {
		value, found, err := s.cache.GetString(ctx, key)
		if err != nil {
			return "", err
		}
		if found {
			return value, nil
		}
	}

	data, err := s.t.do(ctx, call{op: "read blob", method: http.MethodGet, url: s.base + blobFilesPath + hash})
	if err != nil {
		return "", err
	}
	if got := hashOf(data); got != hash {
		return "", &TransportError{Op: "read blob", Method: http.MethodGet, URL: s.base + blobFilesPath + hash,
			Status: http.StatusOK, Err: errors.New("content hash mismatch: got " + got)}
	}

	if s.cache != nil {
		if err := s.cache.PutString(ctx, key, string(data), s.ttl); err != nil {
			s.log.Warn("Failed to cache blob", zap.String("hash", hash), zap.Error(err))
		}
	}
	return string(data), nil
}

func (s *BlobStore) putFile(ctx context.Context, hash string, data []byte) error {
	_, err := s.t.do(ctx, call{
		op:          "write blob",
		method:      http.MethodPut,
		url:         s.base + blobFilesPath + hash,
		body:        data,
		contentType: "application/octet-stream",
	})
	return err
}
