package remap

import (
	"github.com/cilforge/cilforge/internal/metadata"
	"github.com/cilforge/cilforge/pkg"
)

// IndexRemapper collects the per-table RID remappers and the per-heap index
// relocations from one write pass so that cross-references in row columns
// can be rewritten consistently.
//
// Heap mappings are sparse: heap builders preserve the offsets of unchanged
// items, so only relocated or appended items appear here and everything
// else maps to itself.
type IndexRemapper struct {
	tables pkg.Map[metadata.TableId, *RidRemapper]

	strings      map[uint32]uint32
	blobs        map[uint32]uint32
	guids        map[uint32]uint32
	user_strings map[uint32]uint32
}

func NewIndexRemapper() *IndexRemapper {
	return &IndexRemapper{
		tables:       pkg.Map[metadata.TableId, *RidRemapper]{},
		strings:      map[uint32]uint32{},
		blobs:        map[uint32]uint32{},
		guids:        map[uint32]uint32{},
		user_strings: map[uint32]uint32{},
	}
}

func (r *IndexRemapper) SetTableRemapper(id metadata.TableId, rr *RidRemapper) {
	r.tables.Set(id, rr)
}

// TableRemapper returns the remapper for a table, or false when the table
// had no rows and no operations this pass.
func (r *IndexRemapper) TableRemapper(id metadata.TableId) (*RidRemapper, bool) {
	rr, ok := r.tables[id]
	return rr, ok
}

func (r *IndexRemapper) SetStringMappings(m map[uint32]uint32)     { r.strings = m }
func (r *IndexRemapper) SetBlobMappings(m map[uint32]uint32)       { r.blobs = m }
func (r *IndexRemapper) SetGuidMappings(m map[uint32]uint32)       { r.guids = m }
func (r *IndexRemapper) SetUserStringMappings(m map[uint32]uint32) { r.user_strings = m }

func mapHeapIndex(mappings map[uint32]uint32, index uint32) uint32 {
	if moved, ok := mappings[index]; ok {
		return moved
	}
	return index
}

func (r *IndexRemapper) MapStringIndex(index uint32) uint32 {
	return mapHeapIndex(r.strings, index)
}

func (r *IndexRemapper) MapBlobIndex(index uint32) uint32 {
	return mapHeapIndex(r.blobs, index)
}

func (r *IndexRemapper) MapGuidIndex(index uint32) uint32 {
	return mapHeapIndex(r.guids, index)
}

func (r *IndexRemapper) MapUserStringIndex(index uint32) uint32 {
	return mapHeapIndex(r.user_strings, index)
}

// MapToken rewrites a metadata token through the owning table's remapper.
// The null token maps to itself; a token whose row was deleted returns
// false.
func (r *IndexRemapper) MapToken(tok metadata.Token) (metadata.Token, bool) {
	if tok.IsNull() {
		return tok, true
	}
	rr, ok := r.tables[tok.Table()]
	if !ok {
		return tok, true
	}
	final, ok := rr.MapRid(tok.Rid())
	if !ok {
		return 0, false
	}
	return metadata.NewToken(tok.Table(), final), true
}
