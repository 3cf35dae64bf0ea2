package reconcile

import (
	"strings"

	"docsync/core/remote"
)

// NeedsUpdate decides whether candidate must be pushed. When a known item must
// be pushed its version is set one past the server's.
//
// It returns the decision and a short reason.
func NeedsUpdate(candidate *remote.Item, listing *Listing, force ForceFunc) (bool, string) {
	if force == nil {
		force = NeverForce
	}

	if server, ok := listing.Get(candidate.ID); ok {
		if force(*candidate, &server) {
			candidate.Version = server.Version + 1
			return true, "forced"
		}
		if server.Parent != candidate.Parent || server.VisibleName != candidate.VisibleName {
			candidate.Version = server.Version + 1
			candidate.CurrentPage = server.CurrentPage
			return true, "moved or renamed"
		}
		return false, "unchanged"
	}

	switch candidate.Type {
	case remote.TypeCollection:
		return true, "new collection"
	case remote.TypeDocument:
		if !HasAcceptedExtension(candidate.VisibleName) {
			return false, "unsupported file type"
		}
		if candidate.Source == nil {
			return false, "unknown size"
		}
		if candidate.Source.Size > MaxDocumentSize {
			return false, "too large"
		}
		return true, "new document"
	default:
		return false, "unknown type"
	}
}

// HasAcceptedExtension reports whether name ends with an accepted extension.
func HasAcceptedExtension(name string) bool {
	lower := strings.ToLower(name)
	for _, ext := range AcceptedExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}
