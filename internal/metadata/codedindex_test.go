package metadata

import (
	"testing"

	"gotest.tools/assert"
)

func TestCodedIndexRoundTrip(t *testing.T) {
	for _, c := range CodedIndexTypes() {
		for tag, table := range c.Tables() {
			value, err := EncodeCodedIndex(table, 42, c)
			assert.NilError(t, err)
			assert.Equal(t, value, uint32(42)<<c.TagBits()|uint32(tag))

			got_table, got_row, err := DecodeCodedIndex(value, c)
			assert.NilError(t, err)
			// CustomAttributeType has duplicate entries, so decoding maps
			// to the first table carrying the same tag. Row always
			// survives untouched.
			assert.Equal(t, got_row, uint32(42))
			if c != CustomAttributeType {
				assert.Equal(t, got_table, table)
			}
		}
	}
}

func TestCodedIndexRejectsIneligibleTable(t *testing.T) {
	// Module is not in TypeDefOrRef's list
	_, err := EncodeCodedIndex(TableModule, 1, TypeDefOrRef)
	assert.ErrorContains(t, err, "not eligible")
}

func TestCodedIndexRejectsBadTag(t *testing.T) {
	// TypeDefOrRef has 3 tables and 2 tag bits, so tag 3 is invalid
	_, _, err := DecodeCodedIndex(1<<2|3, TypeDefOrRef)
	assert.ErrorContains(t, err, "not eligible")
}

func TestCodedIndexTagBits(t *testing.T) {
	assert.Equal(t, TypeDefOrRef.TagBits(), uint8(2))       // 3 tables
	assert.Equal(t, ResolutionScope.TagBits(), uint8(2))    // 4 tables
	assert.Equal(t, CustomAttributeType.TagBits(), uint8(3)) // 5 tables
	assert.Equal(t, HasCustomAttribute.TagBits(), uint8(5))  // 22 tables
}

func TestCodedIndexWidths(t *testing.T) {
	t.Run("small tables use 2 bytes", func(t *testing.T) {
		info := NewTableInfo(map[TableId]uint32{
			TableTypeDef: 100, TableTypeRef: 100, TableTypeSpec: 100,
		}, false, false, false)
		assert.Equal(t, info.CodedIndexBytes(TypeDefOrRef), uint32(2))
	})

	t.Run("row count near the limit forces 4 bytes", func(t *testing.T) {
		// 2^14 rows + 2 tag bits no longer fit in 16 bits
		info := NewTableInfo(map[TableId]uint32{
			TableTypeDef: 1 << 14,
		}, false, false, false)
		assert.Equal(t, info.CodedIndexBytes(TypeDefOrRef), uint32(4))

		info = NewTableInfo(map[TableId]uint32{
			TableTypeDef: 1<<14 - 1,
		}, false, false, false)
		assert.Equal(t, info.CodedIndexBytes(TypeDefOrRef), uint32(2))
	})
}

func TestTableInfoWidths(t *testing.T) {
	info := NewTableInfo(map[TableId]uint32{
		TableMethodDef: LargeHeapThreshold + 1,
		TableTypeDef:   10,
	}, true, false, false)

	assert.Equal(t, info.TableIndexBytes(TableMethodDef), uint32(4))
	assert.Equal(t, info.TableIndexBytes(TableTypeDef), uint32(2))
	assert.Equal(t, info.StrBytes(), uint32(4))
	assert.Equal(t, info.GuidBytes(), uint32(2))
	assert.Equal(t, info.BlobBytes(), uint32(2))
	assert.Assert(t, info.IsLarge(TableMethodDef))
	assert.Assert(t, !info.IsLarge(TableTypeDef))
}
