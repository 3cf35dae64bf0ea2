package source

import (
	"context"
	"errors"
	"fmt"
	"io"
)

const (
	// KindLocal reads a local directory.
	KindLocal = "local"
	// KindBucket reads an S3 compatible bucket.
	KindBucket = "bucket"
	// KindDrive reads Google Drive.
	KindDrive = "gdrive"
)

// maxShortcutDepth bounds shortcut chains.
const maxShortcutDepth = 8

// ErrNotFound is returned when a folder or file does not exist.
var ErrNotFound = errors.New("not found")

// Config holds configuration for the source tree.
type Config struct {
	// Kind selects the implementation (local, bucket, gdrive).
	Kind string `mapstructure:"kind" default:"local"`
	// Path is the local directory served by the local kind.
	Path string `mapstructure:"path" default:"."`
	// Prefix restricts the bucket kind to keys below it.
	Prefix string `mapstructure:"prefix" default:""`
	// CredentialsFile is the service account or OAuth credentials file of the gdrive kind.
	CredentialsFile string `mapstructure:"credentials_file" default:""`
}

// Folder is a container of files and folders.
type Folder struct {
	ID   string
	Name string
}

// File is a leaf of the tree.
type File struct {
	ID       string
	Name     string
	Size     int64
	MimeType string
	// TargetID is set on shortcuts and names the file they point to.
	TargetID string
}

// IsShortcut reports whether f points to another file.
func (f File) IsShortcut() bool {
	return f.TargetID != ""
}

// Tree is a browsable source of documents.
type Tree interface {
	// Root locates a folder by id, falling back to a search expression.
	Root(ctx context.Context, locator string) (Folder, error)
	// Children lists the direct subfolders and files of folder.
	Children(ctx context.Context, folder Folder) ([]Folder, []File, error)
	// File returns the file with id.
	File(ctx context.Context, id string) (File, error)
	// Open returns the content of the file with id.
	Open(ctx context.Context, id string) (io.ReadCloser, error)
}

// Resolve follows shortcuts until it reaches a regular file.
func Resolve(ctx context.Context, tree Tree, f File) (File, error) {
	start := f
	for depth := 0; f.IsShortcut(); depth++ {
		if depth == maxShortcutDepth {
			return File{}, fmt.Errorf("shortcut %q: chain longer than %d", start.Name, maxShortcutDepth)
		}
		target, err := tree.File(ctx, f.TargetID)
		if err != nil {
			return File{}, fmt.Errorf("shortcut %q: %w", start.Name, err)
		}
		f = target
	}
	return f, nil
}

// ReadAll reads the whole content of the file with id.
func ReadAll(ctx context.Context, tree Tree, id string) ([]byte, error) {
	rc, err := tree.Open(ctx, id)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", id, err)
	}
	return data, nil
}
