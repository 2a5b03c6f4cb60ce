package metadata

import "math/bits"

// TableInfo is the sizing snapshot used while serializing one metadata
// image: the row count of every table plus the large-heap flags. It answers
// every "2 or 4 bytes?" question for table references, heap references and
// coded indices. Row widths depend on final row counts, so a snapshot must
// only be taken after all RID remapping is done.
type TableInfo struct {
	row_counts [NumTableIds]uint32
	row_bits   [NumTableIds]uint8
	coded_bits [NumCodedIndexTypes]uint8

	large_str  bool
	large_guid bool
	large_blob bool
}

// LargeHeapThreshold is the byte size above which a heap needs 4-byte
// indices.
const LargeHeapThreshold = 0xFFFF

func NewTableInfo(row_counts map[TableId]uint32, large_str, large_guid, large_blob bool) *TableInfo {
	info := &TableInfo{
		large_str:  large_str,
		large_guid: large_guid,
		large_blob: large_blob,
	}
	for id, count := range row_counts {
		info.row_counts[id] = count
	}
	for i := range info.row_bits {
		b := uint8(bits.Len32(info.row_counts[i]))
		if b == 0 {
			b = 1
		}
		info.row_bits[i] = b
	}
	for _, c := range CodedIndexTypes() {
		max_bits := uint8(1)
		for _, t := range c.Tables() {
			if info.row_bits[t] > max_bits {
				max_bits = info.row_bits[t]
			}
		}
		info.coded_bits[c] = max_bits + c.TagBits()
	}
	return info
}

// NewTableInfoFromHeapSizes derives the large-heap flags from heap byte
// sizes instead of taking them directly.
func NewTableInfoFromHeapSizes(row_counts map[TableId]uint32, str_size, guid_size, blob_size uint32) *TableInfo {
	return NewTableInfo(row_counts,
		str_size > LargeHeapThreshold,
		guid_size > LargeHeapThreshold,
		blob_size > LargeHeapThreshold)
}

func (info *TableInfo) RowCount(id TableId) uint32 { return info.row_counts[id] }

// IsLarge reports whether references into the given table need 4 bytes.
func (info *TableInfo) IsLarge(id TableId) bool { return info.row_bits[id] > 16 }

func (info *TableInfo) IsLargeStr() bool  { return info.large_str }
func (info *TableInfo) IsLargeGuid() bool { return info.large_guid }
func (info *TableInfo) IsLargeBlob() bool { return info.large_blob }

func (info *TableInfo) StrBytes() uint32 {
	if info.large_str {
		return 4
	}
	return 2
}

func (info *TableInfo) GuidBytes() uint32 {
	if info.large_guid {
		return 4
	}
	return 2
}

func (info *TableInfo) BlobBytes() uint32 {
	if info.large_blob {
		return 4
	}
	return 2
}

func (info *TableInfo) TableIndexBytes(id TableId) uint32 {
	if info.row_bits[id] > 16 {
		return 4
	}
	return 2
}

// CodedIndexBits is tag bits plus the index bits of the largest eligible
// table, cached at construction.
func (info *TableInfo) CodedIndexBits(c CodedIndexType) uint8 {
	return info.coded_bits[c]
}

func (info *TableInfo) CodedIndexBytes(c CodedIndexType) uint32 {
	if info.coded_bits[c] > 16 {
		return 4
	}
	return 2
}
