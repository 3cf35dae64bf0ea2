package localfs

import (
	"context"
	"testing"

	"docsync/feature/source"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupFS(t *testing.T) billy.Filesystem {
	t.Helper()
	fs := memfs.New()
	require.NoError(t, util.WriteFile(fs, "/Library/Books/a.pdf", []byte("%PDF-a"), 0o644))
	require.NoError(t, util.WriteFile(fs, "/Library/Books/b.epub", []byte("epub"), 0o644))
	require.NoError(t, util.WriteFile(fs, "/Library/notes.txt", []byte("hi"), 0o644))
	require.NoError(t, fs.MkdirAll("/Library/Empty", 0o755))
	require.NoError(t, fs.Symlink("Books/a.pdf", "/Library/link.pdf"))
	return fs
}

func TestTree_Root(t *testing.T) {
	tree := New(setupFS(t))
	ctx := context.Background()

	t.Run("ByPath", func(t *testing.T) {
		f, err := tree.Root(ctx, "/Library/Books")
		require.NoError(t, err)
		assert.Equal(t, source.Folder{ID: "/Library/Books", Name: "Books"}, f)
	})

	t.Run("RelativePath", func(t *testing.T) {
		f, err := tree.Root(ctx, "Library")
		require.NoError(t, err)
		assert.Equal(t, "/Library", f.ID)
	})

	t.Run("ByName", func(t *testing.T) {
		f, err := tree.Root(ctx, "Empty")
		require.NoError(t, err)
		assert.Equal(t, source.Folder{ID: "/Library/Empty", Name: "Empty"}, f)
	})

	t.Run("Missing", func(t *testing.T) {
		_, err := tree.Root(ctx, "Nowhere")
		assert.ErrorIs(t, err, source.ErrNotFound)
	})

	t.Run("FileIsNotAFolder", func(t *testing.T) {
		_, err := tree.Root(ctx, "/Library/notes.txt")
		assert.ErrorIs(t, err, source.ErrNotFound)
	})
}

func TestTree_Children(t *testing.T) {
	tree := New(setupFS(t))
	ctx := context.Background()

	folders, files, err := tree.Children(ctx, source.Folder{ID: "/Library", Name: "Library"})
	require.NoError(t, err)

	assert.ElementsMatch(t, []source.Folder{
		{ID: "/Library/Books", Name: "Books"},
		{ID: "/Library/Empty", Name: "Empty"},
	}, folders)

	byName := map[string]source.File{}
	for _, f := range files {
		byName[f.Name] = f
	}
	require.Len(t, byName, 2)
	assert.Equal(t, int64(2), byName["notes.txt"].Size)
	assert.False(t, byName["notes.txt"].IsShortcut())
	assert.Equal(t, "/Library/Books/a.pdf", byName["link.pdf"].TargetID)

	_, _, err = tree.Children(ctx, source.Folder{ID: "/Missing"})
	assert.ErrorIs(t, err, source.ErrNotFound)
}

func TestTree_ResolveAndOpen(t *testing.T) {
	tree := New(setupFS(t))
	ctx := context.Background()

	target, err := source.Resolve(ctx, tree, source.File{ID: "/Library/link.pdf", Name: "link.pdf", TargetID: "/Library/Books/a.pdf"})
	require.NoError(t, err)
	assert.Equal(t, "/Library/Books/a.pdf", target.ID)
	assert.Equal(t, int64(6), target.Size)
	assert.Equal(t, "application/pdf", target.MimeType)

	data, err := source.ReadAll(ctx, tree, target.ID)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-a", string(data))

	_, err = tree.File(ctx, "/Library/Books")
	assert.Error(t, err)

	_, err = tree.Open(ctx, "/Library/gone.pdf")
	assert.ErrorIs(t, err, source.ErrNotFound)
}

func TestNewOS(t *testing.T) {
	dir := t.TempDir()
	tree, err := NewOS(dir)
	require.NoError(t, err)

	f, err := tree.Root(context.Background(), "/")
	require.NoError(t, err)
	assert.Equal(t, "/", f.ID)
	assert.NotEmpty(t, f.Name)

	_, err = NewOS(dir + "/missing")
	assert.Error(t, err)
}
