package remote

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// indexSchema is the first line of every index blob.
const indexSchema = "3"

const (
	// entryFile marks an entry pointing at a plain blob.
	entryFile = "0"
	// entryDocument marks an entry pointing at a per-document index.
	entryDocument = "80000000"
)

// indexEntry is one line of an index blob: hash:type:id:subfiles:size.
type indexEntry struct {
	Hash     string
	Type     string
	ID       string
	Subfiles int
	Size     int64
}

func parseIndex(data string) ([]indexEntry, error) {
	lines := strings.Split(strings.TrimRight(data, "\n"), "\n")
	if len(lines) == 0 || strings.TrimSpace(lines[0]) != indexSchema {
		return nil, fmt.Errorf("unsupported index schema %q", lines[0])
	}

	entries := make([]indexEntry, 0, len(lines)-1)
	for n, line := range lines[1:] {
		if line == "" {
			continue
		}
		fields := strings.Split(line, ":")
		if len(fields) != 5 {
			return nil, fmt.Errorf("index line %d: want 5 fields, got %d", n+2, len(fields))
		}
		subfiles, err := strconv.Atoi(fields[3])
		if err != nil {
			return nil, fmt.Errorf("index line %d: subfiles: %w", n+2, err)
		}
		size, err := strconv.ParseInt(fields[4], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("index line %d: size: %w", n+2, err)
		}
		entries = append(entries, indexEntry{
			Hash:     fields[0],
			Type:     fields[1],
			ID:       fields[2],
			Subfiles: subfiles,
			Size:     size,
		})
	}
	return entries, nil
}

// formatIndex renders entries sorted by id so equal sets hash equally.
func formatIndex(entries []indexEntry) string {
	sorted := slices.Clone(entries)
	slices.SortFunc(sorted, func(a, b indexEntry) int { return strings.Compare(a.ID, b.ID) })

	var b strings.Builder
	b.WriteString(indexSchema)
	b.WriteByte('\n')
	for _, e := range sorted {
		fmt.Fprintf(&b, "%s:%s:%s:%d:%d\n", e.Hash, e.Type, e.ID, e.Subfiles, e.Size)
	}
	return b.String()
}

func hashOf(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func totalSize(entries []indexEntry) int64 {
	var n int64
	for _, e := range entries {
		n += e.Size
	}
	return n
}
