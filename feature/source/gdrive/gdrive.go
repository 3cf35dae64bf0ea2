package gdrive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"docsync/feature/source"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

const (
	// MimeFolder is the Drive MIME type of folders.
	MimeFolder = "application/vnd.google-apps.folder"
	// MimeShortcut is the Drive MIME type of shortcuts.
	MimeShortcut = "application/vnd.google-apps.shortcut"

	fileFields = "id, name, mimeType, size, trashed, shortcutDetails"
)

// Tree is a source.Tree over Google Drive.
type Tree struct {
	svc *drive.Service
}

// New creates a Tree with a Drive client built from opts.
func New(ctx context.Context, opts ...option.ClientOption) (*Tree, error) {
	opts = append([]option.ClientOption{option.WithScopes(drive.DriveReadonlyScope)}, opts...)
	svc, err := drive.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create drive client: %w", err)
	}
	return NewWithService(svc), nil
}

// NewWithService creates a Tree over an existing Drive client.
func NewWithService(svc *drive.Service) *Tree {
	return &Tree{svc: svc}
}

// Root resolves locator as a folder id first. When no folder has that id
// the locator is used as a Drive search query; a plain name is turned into
// a name match.
func (t *Tree) Root(ctx context.Context, locator string) (source.Folder, error) {
	f, err := t.svc.Files.Get(locator).Fields(fileFields).SupportsAllDrives(true).Context(ctx).Do()
	switch {
	case err == nil && f.MimeType == MimeFolder && !f.Trashed:
		return source.Folder{ID: f.Id, Name: f.Name}, nil
	case err != nil && !isNotFound(err):
		return source.Folder{}, fmt.Errorf("get folder %q: %w", locator, err)
	}

	q := fmt.Sprintf("mimeType = '%s' and trashed = false and (%s)", MimeFolder, searchQuery(locator))
	list, err := t.svc.Files.List().Q(q).Fields("files(id, name)").PageSize(1).
		SupportsAllDrives(true).IncludeItemsFromAllDrives(true).Context(ctx).Do()
	if err != nil {
		return source.Folder{}, fmt.Errorf("search folder %q: %w", locator, err)
	}
	if len(list.Files) == 0 {
		return source.Folder{}, fmt.Errorf("%w: folder %q", source.ErrNotFound, locator)
	}
	return source.Folder{ID: list.Files[0].Id, Name: list.Files[0].Name}, nil
}

// searchQuery keeps query expressions and turns anything else into a name
// match. Expressions written against Drive v2 use title for the name field;
// it is rewritten to name.
func searchQuery(locator string) string {
	for _, op := range []string{"=", " contains ", " in ", "!="} {
		if strings.Contains(locator, op) {
			return renameTitle(locator)
		}
	}
	return fmt.Sprintf("name = '%s'", escape(locator))
}

// renameTitle replaces every unquoted title field in q with name.
func renameTitle(q string) string {
	var b strings.Builder
	quoted := false
	for i := 0; i < len(q); i++ {
		ch := q[i]
		switch {
		case quoted && ch == '\\' && i+1 < len(q):
			b.WriteByte(ch)
			i++
			b.WriteByte(q[i])
			continue
		case ch == '\'':
			quoted = !quoted
		case !quoted && strings.HasPrefix(q[i:], "title") && !isIdent(q, i-1) && !isIdent(q, i+len("title")):
			b.WriteString("name")
			i += len("title") - 1
			continue
		}
		b.WriteByte(ch)
	}
	return b.String()
}

func isIdent(s string, i int) bool {
	if i < 0 || i >= len(s) {
		return false
	}
	c := s[i]
	return c == '_' || c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}

func escape(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `'`, `\'`)
}

// Children implements source.Tree.
func (t *Tree) Children(ctx context.Context, folder source.Folder) ([]source.Folder, []source.File, error) {
	var folders []source.Folder
	var files []source.File

	q := fmt.Sprintf("'%s' in parents and trashed = false", escape(folder.ID))
	call := t.svc.Files.List().Q(q).Fields(googleapi.Field("nextPageToken, files(" + fileFields + ")")).
		PageSize(1000).SupportsAllDrives(true).IncludeItemsFromAllDrives(true)

	err := call.Pages(ctx, func(page *drive.FileList) error {
		for _, f := range page.Files {
			if f.MimeType == MimeFolder {
				folders = append(folders, source.Folder{ID: f.Id, Name: f.Name})
				continue
			}
			files = append(files, fileOf(f))
		}
		return nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("list folder %s: %w", folder.Name, err)
	}
	return folders, files, nil
}

// File implements source.Tree.
func (t *Tree) File(ctx context.Context, id string) (source.File, error) {
	f, err := t.svc.Files.Get(id).Fields(fileFields).SupportsAllDrives(true).Context(ctx).Do()
	if err != nil {
		if isNotFound(err) {
			return source.File{}, fmt.Errorf("get file %s: %w", id, source.ErrNotFound)
		}
		return source.File{}, fmt.Errorf("get file %s: %w", id, err)
	}
	if f.MimeType == MimeFolder {
		return source.File{}, fmt.Errorf("get file %s: is a folder", id)
	}
	return fileOf(f), nil
}

// Open implements source.Tree.
func (t *Tree) Open(ctx context.Context, id string) (io.ReadCloser, error) {
	resp, err := t.svc.Files.Get(id).SupportsAllDrives(true).Context(ctx).Download()
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("download %s: %w", id, source.ErrNotFound)
		}
		return nil, fmt.Errorf("download %s: %w", id, err)
	}
	return resp.Body, nil
}

func fileOf(f *drive.File) source.File {
	out := source.File{ID: f.Id, Name: f.Name, Size: f.Size, MimeType: f.MimeType}
	if f.MimeType == MimeShortcut && f.ShortcutDetails != nil {
		out.TargetID = f.ShortcutDetails.TargetId
	}
	return out
}

func isNotFound(err error) bool {
	var gerr *googleapi.Error
	return errors.As(err, &gerr) && gerr.Code == http.StatusNotFound
}
