package remote

import "context"

// Store is the remote document API used by the reconcile engine.
type Store interface {
	// Variant names the wire protocol in use.
	Variant() Variant
	// List returns every live item.
	List(ctx context.Context) ([]Item, error)
	// RequestUpload announces new versions of items and returns one ticket per
	// accepted or rejected item.
	RequestUpload(ctx context.Context, items []Item) ([]UploadTicket, error)
	// UploadBlob sends a payload to the URL of an accepted ticket.
	UploadBlob(ctx context.Context, url string, payload []byte) error
	// CommitMetadata makes the announced versions current.
	CommitMetadata(ctx context.Context, items []Item) ([]Result, error)
	// Delete removes items.
	Delete(ctx context.Context, items []Item) ([]Result, error)
}
