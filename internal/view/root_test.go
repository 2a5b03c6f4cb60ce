package view

import (
	"encoding/binary"
	"testing"

	"github.com/cilforge/cilforge/internal/metadata"
	"gotest.tools/assert"
)

func TestComposeAndParseRoot(t *testing.T) {
	blob, err := ComposeRoot("v4.0.30319", []NamedStream{
		{Name: StreamStrings, Data: []byte("\x00abc\x00\x00\x00\x00")},
		{Name: StreamBlob, Data: []byte{0, 0, 0, 0}},
	})
	assert.NilError(t, err)

	root, err := ParseRoot(blob)
	assert.NilError(t, err)
	assert.Equal(t, root.Version, "v4.0.30319")
	assert.Equal(t, root.Streams.Len(), 2)

	strings_data, ok := root.StreamData(blob, StreamStrings)
	assert.Assert(t, ok)
	assert.Equal(t, string(strings_data[1:4]), "abc")

	blob_data, ok := root.StreamData(blob, StreamBlob)
	assert.Assert(t, ok)
	assert.Equal(t, len(blob_data), 4)

	_, ok = root.StreamData(blob, StreamGuid)
	assert.Assert(t, !ok)
}

func TestParseRootRejectsBadSignature(t *testing.T) {
	blob, err := ComposeRoot("v4.0.30319", nil)
	assert.NilError(t, err)
	blob[0] = 'X'

	_, err = ParseRoot(blob)
	assert.ErrorContains(t, err, "signature")
}

func TestParseRootRejectsOverrunStream(t *testing.T) {
	blob, err := ComposeRoot("v4.0.30319", []NamedStream{
		{Name: StreamBlob, Data: []byte{0, 0, 0, 0}},
	})
	assert.NilError(t, err)
	// truncate the body so the directory entry overruns
	_, err = ParseRoot(blob[:len(blob)-2])
	assert.ErrorContains(t, err, "past blob end")
}

func TestParseTablesStream(t *testing.T) {
	data := []byte{}
	data = binary.LittleEndian.AppendUint32(data, 0)
	data = append(data, 2, 0, 0x00, 1)
	valid := uint64(1<<uint(metadata.TableModule)) | uint64(1<<uint(metadata.TableTypeRef))
	data = binary.LittleEndian.AppendUint64(data, valid)
	data = binary.LittleEndian.AppendUint64(data, 1<<uint(metadata.TableTypeRef))
	data = binary.LittleEndian.AppendUint32(data, 1) // Module rows
	data = binary.LittleEndian.AppendUint32(data, 2) // TypeRef rows

	// Module: Generation, Name, Mvid, EncId, EncBaseId
	for _, v := range []uint16{0, 1, 1, 0, 0} {
		data = binary.LittleEndian.AppendUint16(data, v)
	}
	// TypeRef: ResolutionScope, Name, Namespace
	for _, v := range []uint16{1, 6, 0, 1, 12, 0} {
		data = binary.LittleEndian.AppendUint16(data, v)
	}

	ts, err := ParseTablesStream(data)
	assert.NilError(t, err)
	assert.Equal(t, ts.RowCounts[metadata.TableModule], uint32(1))
	assert.Equal(t, ts.RowCounts[metadata.TableTypeRef], uint32(2))
	assert.Equal(t, ts.Sorted, uint64(1<<uint(metadata.TableTypeRef)))

	typeref, ok := ts.Table(metadata.TableTypeRef)
	assert.Assert(t, ok)
	assert.Equal(t, typeref.Len(), uint32(2))
	row, ok := typeref.Row(2)
	assert.Assert(t, ok)
	assert.Equal(t, row[1], uint32(12))

	_, ok = ts.Table(metadata.TableTypeDef)
	assert.Assert(t, !ok)
}

func TestParseTablesStreamTruncatedRows(t *testing.T) {
	data := []byte{}
	data = binary.LittleEndian.AppendUint32(data, 0)
	data = append(data, 2, 0, 0x00, 1)
	data = binary.LittleEndian.AppendUint64(data, 1<<uint(metadata.TableModule))
	data = binary.LittleEndian.AppendUint64(data, 0)
	data = binary.LittleEndian.AppendUint32(data, 1)
	data = append(data, 0, 0) // half a Module row

	_, err := ParseTablesStream(data)
	assert.ErrorContains(t, err, "Module row 1")
}
