package walker

import (
	"context"
	"fmt"
	"sort"

	"docsync/core/idmap"
	"docsync/core/remote"
	"docsync/feature/source"

	"go.uber.org/zap"
)

// Walker builds candidates from a source tree.
type Walker struct {
	tree   source.Tree
	ids    *idmap.Map
	skip   map[string]struct{}
	logger *zap.Logger
}

// Option configures a Walker.
type Option func(*Walker)

// WithSkip drops folders with any of the given names.
func WithSkip(names ...string) Option {
	return func(w *Walker) {
		for _, n := range names {
			w.skip[n] = struct{}{}
		}
	}
}

// WithLogger sets the walker logger.
func WithLogger(logger *zap.Logger) Option {
	return func(w *Walker) { w.logger = logger }
}

// New creates a Walker minting remote ids through ids.
func New(tree source.Tree, ids *idmap.Map, opts ...Option) *Walker {
	w := &Walker{
		tree:   tree,
		ids:    ids,
		skip:   make(map[string]struct{}),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Walk returns the candidates for root and everything below it. root itself
// becomes a collection under remoteParent.
func (w *Walker) Walk(ctx context.Context, root source.Folder, remoteParent string) ([]remote.Item, error) {
	var out []remote.Item
	if err := w.walk(ctx, root, remoteParent, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (w *Walker) walk(ctx context.Context, folder source.Folder, parent string, out *[]remote.Item) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, skip := w.skip[folder.Name]; skip {
		w.logger.Info("Skipping source folder", zap.String("name", folder.Name))
		return nil
	}
	w.logger.Debug("Scanning source folder", zap.String("name", folder.Name))

	folderID := w.ids.UUID(folder.ID)
	*out = append(*out, remote.Item{
		ID:          folderID,
		Type:        remote.TypeCollection,
		Parent:      parent,
		VisibleName: folder.Name,
		Version:     1,
		Source:      &remote.SourceRef{ID: folder.ID},
	})

	folders, files, err := w.tree.Children(ctx, folder)
	if err != nil {
		return fmt.Errorf("walk %s: %w", folder.Name, err)
	}
	sortFolders(folders)
	sortFiles(files)

	for _, f := range files {
		target, err := source.Resolve(ctx, w.tree, f)
		if err != nil {
			w.logger.Warn("Skipping unresolvable shortcut", zap.String("name", f.Name), zap.Error(err))
			continue
		}
		if f.IsShortcut() {
			w.logger.Debug("Resolved shortcut", zap.String("name", f.Name), zap.String("target", target.Name))
		}
		*out = append(*out, remote.Item{
			ID:          w.ids.UUID(f.ID),
			Type:        remote.TypeDocument,
			Parent:      folderID,
			VisibleName: f.Name,
			Version:     1,
			Source:      &remote.SourceRef{ID: target.ID, Size: target.Size},
		})
	}

	for _, sub := range folders {
		if err := w.walk(ctx, sub, folderID, out); err != nil {
			return err
		}
	}
	return nil
}

func sortFolders(fs []source.Folder) {
	sort.SliceStable(fs, func(i, j int) bool {
		if fs[i].Name != fs[j].Name {
			return fs[i].Name < fs[j].Name
		}
		return fs[i].ID < fs[j].ID
	})
}

func sortFiles(fs []source.File) {
	sort.SliceStable(fs, func(i, j int) bool {
		if fs[i].Name != fs[j].Name {
			return fs[i].Name < fs[j].Name
		}
		return fs[i].ID < fs[j].ID
	})
}
