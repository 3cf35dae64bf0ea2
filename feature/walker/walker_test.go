package walker

import (
	"context"
	"fmt"
	"testing"

	"docsync/core/idmap"
	"docsync/core/propstore"
	"docsync/core/remote"
	"docsync/feature/source"
	"docsync/feature/source/localfs"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTree(t *testing.T) source.Tree {
	t.Helper()
	fs := memfs.New()
	for name, content := range map[string]string{
		"/Drive/b.pdf":            "bb",
		"/Drive/a.epub":           "a",
		"/Drive/Zeta/z.pdf":       "zzz",
		"/Drive/Alpha/one.pdf":    "1",
		"/Drive/Private/skip.pdf": "s",
	} {
		require.NoError(t, util.WriteFile(fs, name, []byte(content), 0o644))
	}
	require.NoError(t, fs.Symlink("../b.pdf", "/Drive/Alpha/link.pdf"))
	require.NoError(t, fs.Symlink("missing.pdf", "/Drive/Alpha/broken.pdf"))
	return localfs.New(fs)
}

func counter() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("uuid-%02d", n)
	}
}

func loadMap(t *testing.T, store propstore.Store) *idmap.Map {
	t.Helper()
	m, err := idmap.Load(context.Background(), store, propstore.ReservedKeys, idmap.WithGenerator(counter()))
	require.NoError(t, err)
	return m
}

type row struct {
	Type   remote.ItemType
	Name   string
	Parent string
}

func rows(items []remote.Item, ids map[string]string) []row {
	out := make([]row, 0, len(items))
	for _, it := range items {
		out = append(out, row{it.Type, it.VisibleName, ids[it.Parent]})
	}
	return out
}

func TestWalker_Walk(t *testing.T) {
	ctx := context.Background()
	tree := setupTree(t)
	ids := loadMap(t, propstore.NewMemoryStore(nil))

	root, err := tree.Root(ctx, "/Drive")
	require.NoError(t, err)

	items, err := New(tree, ids, WithSkip("Private")).Walk(ctx, root, "REMOTE-ROOT")
	require.NoError(t, err)

	names := map[string]string{"REMOTE-ROOT": "<root>"}
	for _, it := range items {
		names[it.ID] = it.VisibleName
	}
	assert.Equal(t, []row{
		{remote.TypeCollection, "Drive", "<root>"},
		{remote.TypeDocument, "a.epub", "Drive"},
		{remote.TypeDocument, "b.pdf", "Drive"},
		{remote.TypeCollection, "Alpha", "Drive"},
		{remote.TypeDocument, "link.pdf", "Alpha"},
		{remote.TypeDocument, "one.pdf", "Alpha"},
		{remote.TypeCollection, "Zeta", "Drive"},
		{remote.TypeDocument, "z.pdf", "Zeta"},
	}, rows(items, names))

	for _, it := range items {
		assert.Equal(t, 1, it.Version)
		require.NotNil(t, it.Source)
	}

	// The shortcut carries its own identity but the target's content.
	link := items[4]
	assert.Equal(t, "/Drive/b.pdf", link.Source.ID)
	assert.Equal(t, int64(2), link.Source.Size)
	key, ok := ids.SourceKey(link.ID)
	require.True(t, ok)
	assert.Equal(t, "/Drive/Alpha/link.pdf", key)
	assert.NotEqual(t, items[2].ID, link.ID)
}

func TestWalker_StableAcrossRuns(t *testing.T) {
	ctx := context.Background()
	tree := setupTree(t)
	store := propstore.NewMemoryStore(nil)
	root, err := tree.Root(ctx, "/Drive")
	require.NoError(t, err)

	first := loadMap(t, store)
	run1, err := New(tree, first).Walk(ctx, root, "R")
	require.NoError(t, err)
	require.NoError(t, first.Flush(ctx))

	second := loadMap(t, store)
	run2, err := New(tree, second).Walk(ctx, root, "R")
	require.NoError(t, err)

	assert.Equal(t, run1, run2)
	assert.Zero(t, second.Added())
}

func TestWalker_SkippedRoot(t *testing.T) {
	ctx := context.Background()
	tree := setupTree(t)

	items, err := New(tree, loadMap(t, propstore.NewMemoryStore(nil)), WithSkip("Drive")).
		Walk(ctx, source.Folder{ID: "/Drive", Name: "Drive"}, "R")
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestWalker_ListFailure(t *testing.T) {
	tree := setupTree(t)
	_, err := New(tree, loadMap(t, propstore.NewMemoryStore(nil))).
		Walk(context.Background(), source.Folder{ID: "/Gone", Name: "Gone"}, "R")
	assert.ErrorIs(t, err, source.ErrNotFound)
}
