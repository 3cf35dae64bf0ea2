package remote

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// ItemType is the kind of a remote item.
type ItemType string

const (
	// TypeDocument is a file-like item carrying a payload.
	TypeDocument ItemType = "DocumentType"
	// TypeCollection is a folder-like item.
	TypeCollection ItemType = "CollectionType"
)

// RootParent is the parent id of items at the top of the remote tree.
const RootParent = ""

// SourceRef points back at the source item a candidate was derived from.
type SourceRef struct {
	ID   string
	Size int64
}

// Item is a document or collection record.
type Item struct {
	ID          string   `json:"id"`
	Type        ItemType `json:"type"`
	Parent      string   `json:"parent"`
	VisibleName string   `json:"visibleName"`
	Version     int      `json:"version"`
	CurrentPage int      `json:"currentPage,omitempty"`

	// Source is set on candidates only and never sent to the remote.
	Source *SourceRef `json:"-"`
}

// Validate checks the fields every record must carry.
func (i Item) Validate() error {
	var errs []error
	if i.ID == "" {
		errs = append(errs, errors.New("missing id"))
	}
	if i.Type != TypeDocument && i.Type != TypeCollection {
		errs = append(errs, fmt.Errorf("unknown type %q", i.Type))
	}
	if i.Version < 1 {
		errs = append(errs, fmt.Errorf("version %d is not positive", i.Version))
	}
	if i.ID != "" && i.Parent == i.ID {
		errs = append(errs, errors.New("item is its own parent"))
	}
	return errors.Join(errs...)
}

// IsDocument reports whether the item is a document.
func (i Item) IsDocument() bool { return i.Type == TypeDocument }

// IsCollection reports whether the item is a collection.
func (i Item) IsCollection() bool { return i.Type == TypeCollection }

// UploadTicket is the per-item answer to an upload request.
type UploadTicket struct {
	ID      string
	Success bool
	URL     string
	Message string
}

// Result is the per-item answer to a metadata commit or delete.
type Result struct {
	ID      string
	Success bool
	Message string
}

// validItems drops records that fail validation, logging each one.
func validItems(items []Item, logger *zap.Logger) []Item {
	valid := make([]Item, 0, len(items))
	for _, item := range items {
		if err := item.Validate(); err != nil {
			logger.Warn("Dropping invalid remote record", zap.String("id", item.ID), zap.Error(err))
			continue
		}
		valid = append(valid, item)
	}
	return valid
}
