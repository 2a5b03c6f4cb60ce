package metadata

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

// Row holds the logical field values of one table row, one uint32 per
// schema column, in schema order. Heap references are byte offsets (slot
// numbers for the GUID heap), table references are RIDs, coded references
// are already-packed coded index values.
type Row []uint32

// ErrRowOverflow is returned when a field value does not fit its declared
// width. The value is reported, never truncated.
var ErrRowOverflow = errors.New("field value exceeds declared width")

// ErrShortBuffer is returned when a row read or write runs past the end of
// the stream buffer.
var ErrShortBuffer = errors.New("buffer too small for table row")

// WriteRow serializes row at data[*offset] under the given schema and
// sizing snapshot, little-endian, advancing *offset. Values wider than
// their serialized field fail with ErrRowOverflow.
func WriteRow(data []byte, offset *int, row Row, schema Schema, info *TableInfo) error {
	if len(row) != len(schema) {
		return errors.Errorf("row has %d values, schema has %d columns", len(row), len(schema))
	}
	for i, c := range schema {
		v := row[i]
		width := int(c.Width(info))
		if *offset+width > len(data) {
			return errors.Wrapf(ErrShortBuffer, "column %s at offset %d", c.Name, *offset)
		}
		switch width {
		case 1:
			if v > 0xFF {
				return errors.Wrapf(ErrRowOverflow, "column %s value %#x in 1 byte", c.Name, v)
			}
			data[*offset] = byte(v)
		case 2:
			if v > 0xFFFF {
				return errors.Wrapf(ErrRowOverflow, "column %s value %#x in 2 bytes", c.Name, v)
			}
			binary.LittleEndian.PutUint16(data[*offset:], uint16(v))
		case 4:
			binary.LittleEndian.PutUint32(data[*offset:], v)
		}
		*offset += width
	}
	return nil
}

// ReadRow deserializes one row from data[*offset], advancing *offset. The
// inverse of WriteRow for the same schema and snapshot.
func ReadRow(data []byte, offset *int, schema Schema, info *TableInfo) (Row, error) {
	row := make(Row, len(schema))
	for i, c := range schema {
		width := int(c.Width(info))
		if *offset+width > len(data) {
			return nil, errors.Wrapf(ErrShortBuffer, "column %s at offset %d", c.Name, *offset)
		}
		switch width {
		case 1:
			row[i] = uint32(data[*offset])
		case 2:
			row[i] = uint32(binary.LittleEndian.Uint16(data[*offset:]))
		case 4:
			row[i] = binary.LittleEndian.Uint32(data[*offset:])
		}
		*offset += width
	}
	return row, nil
}

// Clone returns an independent copy of the row.
func (r Row) Clone() Row {
	out := make(Row, len(r))
	copy(out, r)
	return out
}
