// Package payload builds the archives uploaded for remote documents.
//
// A document archive holds the source file as "<id>.<ext>", an empty
// "<id>.pagedata" and a "<id>.content" descriptor. A collection archive only
// holds "<id>.content" with an empty object.
package payload

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path"
	"strings"

	"docsync/core/remote"
	"docsync/feature/source"

	"github.com/klauspost/compress/zip"
)

// Content is the document descriptor stored as <id>.content.
type Content struct {
	ExtraMetadata  map[string]string `json:"extraMetadata"`
	FileType       string            `json:"fileType"`
	LastOpenedPage int               `json:"lastOpenedPage"`
	LineHeight     int               `json:"lineHeight"`
	Margins        int               `json:"margins"`
	PageCount      int               `json:"pageCount"`
	TextScale      int               `json:"textScale"`
	Transform      map[string]any    `json:"transform"`
}

// NewContent returns the descriptor of a freshly uploaded document. The
// device counts the pages itself.
func NewContent(fileType string) Content {
	return Content{
		ExtraMetadata: map[string]string{},
		FileType:      fileType,
		LineHeight:    -1,
		Margins:       100,
		TextScale:     1,
		Transform:     map[string]any{},
	}
}

// ZipBuilder builds archives from files of a source tree.
type ZipBuilder struct {
	tree source.Tree
}

// NewZipBuilder creates a ZipBuilder reading from tree.
func NewZipBuilder(tree source.Tree) *ZipBuilder {
	return &ZipBuilder{tree: tree}
}

// Build implements reconcile.PayloadBuilder.
func (b *ZipBuilder) Build(ctx context.Context, item remote.Item) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	if item.IsCollection() {
		if err := writeEntry(zw, item.ID+".content", []byte("{}")); err != nil {
			return nil, err
		}
		return finish(zw, &buf)
	}

	if item.Source == nil {
		return nil, fmt.Errorf("document %s has no source reference", item.ID)
	}
	ext := FileType(item.VisibleName)

	rc, err := b.tree.Open(ctx, item.Source.ID)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", item.VisibleName, err)
	}
	defer rc.Close()

	w, err := zw.Create(item.ID + "." + ext)
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(w, rc); err != nil {
		return nil, fmt.Errorf("read %s: %w", item.VisibleName, err)
	}

	if err := writeEntry(zw, item.ID+".pagedata", nil); err != nil {
		return nil, err
	}
	content, err := json.Marshal(NewContent(ext))
	if err != nil {
		return nil, err
	}
	if err := writeEntry(zw, item.ID+".content", content); err != nil {
		return nil, err
	}
	return finish(zw, &buf)
}

// FileType returns the extension of name without the dot, lower cased.
func FileType(name string) string {
	return strings.ToLower(strings.TrimPrefix(path.Ext(name), "."))
}

func writeEntry(zw *zip.Writer, name string, data []byte) error {
	w, err := zw.Create(name)
	if err != nil {
		return fmt.Errorf("add %s: %w", name, err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}

func finish(zw *zip.Writer, buf *bytes.Buffer) ([]byte, error) {
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("close archive: %w", err)
	}
	return buf.Bytes(), nil
}
