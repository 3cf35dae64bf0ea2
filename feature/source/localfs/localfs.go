package localfs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"docsync/feature/source"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
)

// Tree is a source.Tree over a billy filesystem.
type Tree struct {
	fs billy.Filesystem
}

// New creates a Tree over fs.
func New(fs billy.Filesystem) *Tree {
	return &Tree{fs: fs}
}

// NewOS creates a Tree rooted at the local directory dir.
func NewOS(dir string) (*Tree, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("open source directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("open source directory: %s is not a directory", dir)
	}
	return New(osfs.New(dir)), nil
}

func clean(p string) string {
	return path.Clean("/" + strings.TrimSpace(p))
}

func (t *Tree) folderName(id string) string {
	if id == "/" {
		if name := filepath.Base(t.fs.Root()); name != string(filepath.Separator) && name != "." {
			return name
		}
	}
	return path.Base(id)
}

// Root resolves locator as a path first, then as the name of a directory
// anywhere in the tree. Name matches are searched breadth first.
func (t *Tree) Root(ctx context.Context, locator string) (source.Folder, error) {
	id := clean(locator)
	if info, err := t.fs.Stat(id); err == nil && info.IsDir() {
		return source.Folder{ID: id, Name: t.folderName(id)}, nil
	}

	queue := []string{"/"}
	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			return source.Folder{}, err
		}
		dir := queue[0]
		queue = queue[1:]

		entries, err := t.fs.ReadDir(dir)
		if err != nil {
			return source.Folder{}, fmt.Errorf("search %q: %w", locator, err)
		}
		sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })
		for _, e := range entries {
			if !e.IsDir() {
				continue
			}
			child := path.Join(dir, e.Name())
			if e.Name() == locator {
				return source.Folder{ID: child, Name: e.Name()}, nil
			}
			queue = append(queue, child)
		}
	}
	return source.Folder{}, fmt.Errorf("%w: folder %q", source.ErrNotFound, locator)
}

// Children implements source.Tree.
func (t *Tree) Children(ctx context.Context, folder source.Folder) ([]source.Folder, []source.File, error) {
	entries, err := t.fs.ReadDir(folder.ID)
	if err != nil {
		return nil, nil, t.wrap("list", folder.ID, err)
	}

	var folders []source.Folder
	var files []source.File
	for _, e := range entries {
		id := path.Join(folder.ID, e.Name())
		switch {
		case e.IsDir():
			folders = append(folders, source.Folder{ID: id, Name: e.Name()})
		case e.Mode()&os.ModeSymlink != 0:
			target, err := t.fs.Readlink(id)
			if err != nil {
				return nil, nil, t.wrap("readlink", id, err)
			}
			if !path.IsAbs(target) {
				target = path.Join(folder.ID, target)
			}
			files = append(files, source.File{ID: id, Name: e.Name(), TargetID: path.Clean(target)})
		default:
			files = append(files, fileOf(id, e))
		}
	}
	return folders, files, nil
}

// File implements source.Tree. Symlinks are followed.
func (t *Tree) File(ctx context.Context, id string) (source.File, error) {
	id = clean(id)
	info, err := t.fs.Stat(id)
	if err != nil {
		return source.File{}, t.wrap("stat", id, err)
	}
	if info.IsDir() {
		return source.File{}, fmt.Errorf("stat %s: is a directory", id)
	}
	return fileOf(id, info), nil
}

// Open implements source.Tree.
func (t *Tree) Open(ctx context.Context, id string) (io.ReadCloser, error) {
	f, err := t.fs.Open(clean(id))
	if err != nil {
		return nil, t.wrap("open", id, err)
	}
	return f, nil
}

func (t *Tree) wrap(op, id string, err error) error {
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%s %s: %w", op, id, source.ErrNotFound)
	}
	return fmt.Errorf("%s %s: %w", op, id, err)
}

func fileOf(id string, info os.FileInfo) source.File {
	name := path.Base(id)
	return source.File{
		ID:       id,
		Name:     name,
		Size:     info.Size(),
		MimeType: mime.TypeByExtension(path.Ext(name)),
	}
}
