package writer

import (
	"encoding/binary"

	"github.com/cilforge/cilforge/internal/metadata"
	"github.com/cilforge/cilforge/internal/remap"
	"github.com/cilforge/cilforge/internal/view"
	"github.com/pkg/errors"
)

// tablesStreamSpec is everything the #~ serializer needs: the original
// rows, the final placement plan, the sizing snapshot, and the replacement
// row payloads keyed by original RID.
type tablesStreamSpec struct {
	assembly     *view.Assembly
	remapper     *remap.IndexRemapper
	info         *metadata.TableInfo
	final_counts map[metadata.TableId]uint32
	row_data     map[metadata.TableId]map[uint32]metadata.Row
	heap_flags   byte
	sorted       uint64
}

// writeTablesStream emits a complete #~ stream: header, row-count array,
// then every present table's rows in final-RID order. Rows covered by an
// insert or update payload are written from the payload; all others come
// from the original table unchanged.
func writeTablesStream(spec tablesStreamSpec) ([]byte, error) {
	var valid uint64
	var present []metadata.TableId
	for _, id := range metadata.TableIds() {
		if spec.final_counts[id] > 0 {
			valid |= 1 << uint(id)
			present = append(present, id)
		}
	}

	buf := make([]byte, 0, 24+4*len(present))
	buf = binary.LittleEndian.AppendUint32(buf, 0) // reserved
	buf = append(buf, 2, 0)                        // schema version 2.0
	buf = append(buf, spec.heap_flags)
	buf = append(buf, 1) // reserved, always 1
	buf = binary.LittleEndian.AppendUint64(buf, valid)
	buf = binary.LittleEndian.AppendUint64(buf, spec.sorted&valid)
	for _, id := range present {
		buf = binary.LittleEndian.AppendUint32(buf, spec.final_counts[id])
	}

	for _, id := range present {
		schema, ok := metadata.SchemaFor(id)
		if !ok {
			return nil, errors.Errorf("no schema for table %s", id)
		}
		rr, ok := spec.remapper.TableRemapper(id)
		if !ok {
			return nil, errors.Errorf("table %s has rows but no remapper", id)
		}

		row_size := int(schema.RowSize(spec.info))
		rows := make([]byte, int(spec.final_counts[id])*row_size)
		pos := 0
		for final := uint32(1); final <= spec.final_counts[id]; final++ {
			original, ok := rr.ReverseLookup(final)
			if !ok {
				return nil, errors.Errorf("table %s final RID %d has no source row", id, final)
			}
			row, err := sourceRow(spec, id, original)
			if err != nil {
				return nil, err
			}
			if err := metadata.WriteRow(rows, &pos, row, schema, spec.info); err != nil {
				return nil, errors.Wrapf(err, "table %s final RID %d (original %d)", id, final, original)
			}
		}
		buf = append(buf, rows...)
	}

	// the stream participates in the root's 4-byte stream alignment
	for len(buf)%4 != 0 {
		buf = append(buf, 0)
	}
	return buf, nil
}

// sourceRow picks the bytes-to-be for one surviving row: the latest edit
// payload when one exists, the original row otherwise.
func sourceRow(spec tablesStreamSpec, id metadata.TableId, original uint32) (metadata.Row, error) {
	if payload, ok := spec.row_data[id][original]; ok {
		return payload, nil
	}
	table, ok := spec.assembly.Tables.Table(id)
	if ok {
		if row, ok := table.Row(original); ok {
			return row, nil
		}
	}
	return nil, errors.Errorf("table %s RID %d survives but has neither original bytes nor an edit payload", id, original)
}
