package view

import (
	"github.com/cilforge/cilforge/internal/edit"
	"github.com/pkg/errors"
)

// Stream directory names per ECMA-335 II.24.2.2.
const (
	StreamTables      = "#~"
	StreamStrings     = "#Strings"
	StreamUserStrings = "#US"
	StreamGuid        = "#GUID"
	StreamBlob        = "#Blob"
)

// Assembly is the loaded byte view of one metadata blob: the parsed root,
// the parsed tables stream, and the raw heap bytes. It is the read-only
// input of an edit session; nothing here mutates.
type Assembly struct {
	Root   *MetadataRoot
	Tables *TablesStream

	Strings     []byte
	Blob        []byte
	Guid        []byte
	UserStrings []byte
}

// ParseAssembly loads a complete metadata blob (as extracted from a PE
// image) into its parsed view.
func ParseAssembly(data []byte) (*Assembly, error) {
	root, err := ParseRoot(data)
	if err != nil {
		return nil, err
	}

	tables_data, ok := root.StreamData(data, StreamTables)
	if !ok {
		return nil, errors.Errorf("metadata blob has no %s stream", StreamTables)
	}
	tables, err := ParseTablesStream(tables_data)
	if err != nil {
		return nil, err
	}

	a := &Assembly{Root: root, Tables: tables}
	a.Strings, _ = root.StreamData(data, StreamStrings)
	a.Blob, _ = root.StreamData(data, StreamBlob)
	a.Guid, _ = root.StreamData(data, StreamGuid)
	a.UserStrings, _ = root.StreamData(data, StreamUserStrings)
	return a, nil
}

// HeapSizes seeds an edit session's append index accounting.
func (a *Assembly) HeapSizes() edit.HeapSizes {
	return edit.HeapSizes{
		Strings:     uint32(len(a.Strings)),
		Blobs:       uint32(len(a.Blob)),
		GuidCount:   uint32(len(a.Guid) / 16),
		UserStrings: uint32(len(a.UserStrings)),
	}
}

// RowCounts copies the original per-table row counts.
func (a *Assembly) RowCounts() map[string]uint32 {
	counts := make(map[string]uint32, len(a.Tables.RowCounts))
	for id, n := range a.Tables.RowCounts {
		counts[id.String()] = n
	}
	return counts
}
