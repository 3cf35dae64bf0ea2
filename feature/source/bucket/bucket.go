package bucket

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"path"
	"strings"

	"docsync/core/storage"
	"docsync/feature/source"

	"github.com/minio/minio-go/v7"
)

// rootID is the folder id of the bucket root.
const rootID = "/"

// Tree is a source.Tree over an S3 compatible bucket. Folders are key
// prefixes ending in a slash; files are the remaining object keys.
type Tree struct {
	client storage.Client
	bucket string
	prefix string
}

// New creates a Tree over bucket, restricted to keys below prefix.
func New(client storage.Client, bucket, prefix string) *Tree {
	prefix = strings.Trim(prefix, "/")
	if prefix != "" {
		prefix += "/"
	}
	return &Tree{client: client, bucket: bucket, prefix: prefix}
}

func (t *Tree) keyOf(id string) string {
	if id == rootID {
		return t.prefix
	}
	return id
}

// Root resolves locator as a folder path below the configured prefix.
func (t *Tree) Root(ctx context.Context, locator string) (source.Folder, error) {
	exists, err := t.client.BucketExists(ctx, t.bucket)
	if err != nil {
		return source.Folder{}, fmt.Errorf("check bucket %s: %w", t.bucket, err)
	}
	if !exists {
		return source.Folder{}, fmt.Errorf("%w: bucket %q", source.ErrNotFound, t.bucket)
	}

	rel := strings.Trim(locator, "/")
	if rel == "" {
		name := strings.TrimSuffix(t.prefix, "/")
		if name == "" {
			name = t.bucket
		}
		return source.Folder{ID: rootID, Name: path.Base(name)}, nil
	}

	key := t.prefix + rel + "/"
	found, err := t.any(ctx, key)
	if err != nil {
		return source.Folder{}, err
	}
	if !found {
		return source.Folder{}, fmt.Errorf("%w: folder %q", source.ErrNotFound, locator)
	}
	return source.Folder{ID: key, Name: path.Base(rel)}, nil
}

// any reports whether at least one object lives below key.
func (t *Tree) any(ctx context.Context, key string) (bool, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	for obj := range t.client.ListObjects(ctx, t.bucket, minio.ListObjectsOptions{Prefix: key, Recursive: true, MaxKeys: 1}) {
		if obj.Err != nil {
			return false, fmt.Errorf("list %s: %w", key, obj.Err)
		}
		return true, nil
	}
	return false, nil
}

// Children implements source.Tree.
func (t *Tree) Children(ctx context.Context, folder source.Folder) ([]source.Folder, []source.File, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	prefix := t.keyOf(folder.ID)
	var folders []source.Folder
	var files []source.File
	for obj := range t.client.ListObjects(ctx, t.bucket, minio.ListObjectsOptions{Prefix: prefix}) {
		if obj.Err != nil {
			return nil, nil, fmt.Errorf("list %s: %w", prefix, obj.Err)
		}
		if obj.Key == prefix {
			continue
		}
		if strings.HasSuffix(obj.Key, "/") {
			folders = append(folders, source.Folder{ID: obj.Key, Name: path.Base(obj.Key)})
			continue
		}
		files = append(files, fileOf(obj))
	}
	return folders, files, nil
}

// File implements source.Tree.
func (t *Tree) File(ctx context.Context, id string) (source.File, error) {
	info, err := t.client.StatObject(ctx, t.bucket, id, minio.StatObjectOptions{})
	if err != nil {
		if errors.Is(err, storage.ErrNoSuchKey) {
			return source.File{}, fmt.Errorf("stat %s: %w", id, source.ErrNotFound)
		}
		return source.File{}, fmt.Errorf("stat %s: %w", id, err)
	}
	if info.Key == "" {
		info.Key = id
	}
	return fileOf(info), nil
}

// Open implements source.Tree.
func (t *Tree) Open(ctx context.Context, id string) (io.ReadCloser, error) {
	rc, err := t.client.GetObject(ctx, t.bucket, id, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", id, err)
	}
	return rc, nil
}

func fileOf(obj minio.ObjectInfo) source.File {
	name := path.Base(obj.Key)
	mt := obj.ContentType
	if mt == "" || mt == "application/octet-stream" {
		if byExt := mime.TypeByExtension(path.Ext(name)); byExt != "" {
			mt = byExt
		}
	}
	return source.File{ID: obj.Key, Name: name, Size: obj.Size, MimeType: mt}
}
