package view

import (
	"encoding/binary"

	"github.com/cilforge/cilforge/internal/metadata"
	"github.com/cilforge/cilforge/pkg"
	"github.com/pkg/errors"
	sorted "github.com/tobshub/go-sortedmap"
)

var ErrTruncatedTables = errors.New("tables stream truncated")

// TableRow carries its RID so the sorted map can order on it.
type TableRow struct {
	Rid  uint32
	Data metadata.Row
}

func tableRowComparisonFunc(a, b TableRow) bool {
	return a.Rid < b.Rid
}

// Table holds one metadata table's original rows keyed by RID.
type Table struct {
	Id   metadata.TableId
	Rows *sorted.SortedMap[uint32, TableRow]
}

func NewTable(id metadata.TableId) *Table {
	return &Table{Id: id, Rows: sorted.New[uint32, TableRow](0, tableRowComparisonFunc)}
}

func (t *Table) Len() uint32 { return uint32(t.Rows.Len()) }

func (t *Table) Row(rid uint32) (metadata.Row, bool) {
	row, ok := t.Rows.Get(rid)
	if !ok {
		return nil, false
	}
	return row.Data, true
}

// TablesStream is the parsed #~ stream: header fields plus every present
// table's rows.
type TablesStream struct {
	MajorVersion uint8
	MinorVersion uint8
	HeapSizes    uint8
	Valid        uint64
	Sorted       uint64
	RowCounts    map[metadata.TableId]uint32
	Tables       pkg.Map[metadata.TableId, *Table]
	Info         *metadata.TableInfo
}

// ParseTablesStream decodes a #~ stream per ECMA-335 II.24.2.6. Column
// widths come from the row counts and heap-size flags in the header.
func ParseTablesStream(data []byte) (*TablesStream, error) {
	if len(data) < 24 {
		return nil, errors.Wrap(ErrTruncatedTables, "header")
	}

	ts := &TablesStream{
		MajorVersion: data[4],
		MinorVersion: data[5],
		HeapSizes:    data[6],
		Valid:        binary.LittleEndian.Uint64(data[8:]),
		Sorted:       binary.LittleEndian.Uint64(data[16:]),
		RowCounts:    map[metadata.TableId]uint32{},
		Tables:       pkg.Map[metadata.TableId, *Table]{},
	}

	pos := 24
	var present []metadata.TableId
	for bit := 0; bit < 64; bit++ {
		if ts.Valid&(1<<bit) == 0 {
			continue
		}
		id := metadata.TableId(bit)
		if !id.Valid() {
			return nil, errors.Errorf("valid bitvector names unknown table %#x", bit)
		}
		if pos+4 > len(data) {
			return nil, errors.Wrapf(ErrTruncatedTables, "row count for %s", id)
		}
		ts.RowCounts[id] = binary.LittleEndian.Uint32(data[pos:])
		present = append(present, id)
		pos += 4
	}

	ts.Info = metadata.NewTableInfo(ts.RowCounts,
		ts.HeapSizes&0x01 != 0, ts.HeapSizes&0x02 != 0, ts.HeapSizes&0x04 != 0)

	for _, id := range present {
		schema, ok := metadata.SchemaFor(id)
		if !ok {
			return nil, errors.Errorf("no schema for table %s", id)
		}
		table := NewTable(id)
		for rid := uint32(1); rid <= ts.RowCounts[id]; rid++ {
			row, err := metadata.ReadRow(data, &pos, schema, ts.Info)
			if err != nil {
				return nil, errors.Wrapf(err, "table %s row %d", id, rid)
			}
			table.Rows.Insert(rid, TableRow{Rid: rid, Data: row})
		}
		ts.Tables.Set(id, table)
	}

	return ts, nil
}

// Table returns the parsed rows for a table id; absent tables report ok
// false.
func (ts *TablesStream) Table(id metadata.TableId) (*Table, bool) {
	if !ts.Tables.Has(id) {
		return nil, false
	}
	return ts.Tables.Get(id), true
}
