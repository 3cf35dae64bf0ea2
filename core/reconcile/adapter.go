package reconcile

import (
	"context"

	"docsync/core/remote"
)

// PayloadBuilder produces the opaque upload payload of a document.
// Implementations read the source item referenced by item.Source.
type PayloadBuilder interface {
	// Build returns the payload bytes for item.
	Build(ctx context.Context, item remote.Item) ([]byte, error)
}

// PayloadFunc adapts a function to PayloadBuilder.
type PayloadFunc func(ctx context.Context, item remote.Item) ([]byte, error)

// Build implements PayloadBuilder.
func (f PayloadFunc) Build(ctx context.Context, item remote.Item) ([]byte, error) {
	return f(ctx, item)
}
