package metadata

import (
	"testing"

	"gotest.tools/assert"
)

func typeDefFixture(large bool) (*TableInfo, Schema) {
	counts := map[TableId]uint32{
		TableTypeDef: 10, TableField: 10, TableMethodDef: 10, TableTypeRef: 10,
	}
	if large {
		for id := range counts {
			counts[id] = LargeHeapThreshold + 1
		}
	}
	info := NewTableInfo(counts, large, large, large)
	schema, _ := SchemaFor(TableTypeDef)
	return info, schema
}

func TestRowRoundTrip(t *testing.T) {
	row := Row{0x00100001, 7, 13, 5, 2, 3}

	t.Run("small widths", func(t *testing.T) {
		info, schema := typeDefFixture(false)
		assert.Equal(t, schema.RowSize(info), uint32(4+2+2+2+2+2))

		data := make([]byte, schema.RowSize(info))
		pos := 0
		assert.NilError(t, WriteRow(data, &pos, row, schema, info))
		assert.Equal(t, pos, len(data))

		pos = 0
		got, err := ReadRow(data, &pos, schema, info)
		assert.NilError(t, err)
		assert.DeepEqual(t, []uint32(got), []uint32(row))
	})

	t.Run("large widths", func(t *testing.T) {
		info, schema := typeDefFixture(true)
		assert.Equal(t, schema.RowSize(info), uint32(4+4+4+4+4+4))

		data := make([]byte, schema.RowSize(info))
		pos := 0
		assert.NilError(t, WriteRow(data, &pos, row, schema, info))

		pos = 0
		got, err := ReadRow(data, &pos, schema, info)
		assert.NilError(t, err)
		assert.DeepEqual(t, []uint32(got), []uint32(row))
	})
}

func TestWriteRowOverflowIsAnError(t *testing.T) {
	info, schema := typeDefFixture(false)

	// Name is a 2-byte string ref under this snapshot
	row := Row{0, 0x12345, 0, 0, 0, 0}
	data := make([]byte, schema.RowSize(info))
	pos := 0
	err := WriteRow(data, &pos, row, schema, info)
	assert.ErrorContains(t, err, "exceeds declared width")
}

func TestWriteRowColumnCountMismatch(t *testing.T) {
	info, schema := typeDefFixture(false)
	data := make([]byte, schema.RowSize(info))
	pos := 0
	err := WriteRow(data, &pos, Row{1, 2}, schema, info)
	assert.ErrorContains(t, err, "schema has")
}

func TestReadRowShortBuffer(t *testing.T) {
	info, schema := typeDefFixture(false)
	pos := 0
	_, err := ReadRow(make([]byte, 3), &pos, schema, info)
	assert.ErrorContains(t, err, "buffer too small")
}

func TestConstantSchemaCarriesPadding(t *testing.T) {
	schema, ok := SchemaFor(TableConstant)
	assert.Assert(t, ok)
	assert.Equal(t, schema[0].Name, "Type")
	assert.Equal(t, schema[1].Name, "Padding")

	info := NewTableInfo(map[TableId]uint32{TableConstant: 1, TableField: 1}, false, false, false)
	// u8 + u8 + coded(HasConstant) + blob
	assert.Equal(t, schema.RowSize(info), uint32(1+1+2+2))
}

func TestTokenAccessors(t *testing.T) {
	tok := NewToken(TableMethodDef, 0x001234)
	assert.Equal(t, tok.Table(), TableMethodDef)
	assert.Equal(t, tok.Rid(), uint32(0x1234))
	assert.Assert(t, !tok.IsNull())
	assert.Assert(t, NewToken(TableMethodDef, 0).IsNull())
	assert.Equal(t, tok.String(), "MethodDef[4660]")
}

func TestTableIdNames(t *testing.T) {
	id, ok := TableIdByName("GenericParamConstraint")
	assert.Assert(t, ok)
	assert.Equal(t, id, TableGenericParamConstraint)

	_, ok = TableIdByName("NotATable")
	assert.Assert(t, !ok)

	assert.Assert(t, TableCustomDebugInformation.Valid())
	assert.Assert(t, !TableId(0x2D).Valid())
}
