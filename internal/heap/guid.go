package heap

import (
	"github.com/cilforge/cilforge/internal/edit"
	"github.com/cilforge/cilforge/pkg"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

const guidSlotSize = 16

// GuidBuilder produces the #GUID heap: fixed 16-byte slots addressed by
// 1-based slot number, index 0 meaning no GUID.
//
// Slots never change size, so modifications of existing slots are always
// in place; only a full replacement or appends change the heap length. The
// heap is 16-aligned by construction, no filler needed.
type GuidBuilder struct {
	original []byte
	changes  *edit.HeapChanges[uuid.UUID]
	mode     BuildMode
	mappings map[uint32]uint32
}

func NewGuidBuilder(original []byte, changes *edit.HeapChanges[uuid.UUID]) *GuidBuilder {
	_, has_replacement := changes.Replacement()
	return &GuidBuilder{
		original: original,
		changes:  changes,
		mode:     chooseMode(has_replacement, len(original)),
		mappings: map[uint32]uint32{},
	}
}

func (b *GuidBuilder) Name() string                     { return "#GUID" }
func (b *GuidBuilder) Mode() BuildMode                  { return b.mode }
func (b *GuidBuilder) IndexMappings() map[uint32]uint32 { return b.mappings }

func (b *GuidBuilder) Build() ([]byte, error) {
	var buf []byte
	var original_slots uint32

	if b.mode == ModeReplace {
		replacement, _ := b.changes.Replacement()
		if len(replacement)%guidSlotSize != 0 {
			return nil, errors.Errorf("#GUID replacement is %d bytes, not a multiple of %d", len(replacement), guidSlotSize)
		}
		buf = append([]byte{}, replacement...)
		return b.appendNew(buf), nil
	}

	if len(b.original)%guidSlotSize != 0 {
		return nil, errors.Errorf("#GUID heap is %d bytes, not a multiple of %d", len(b.original), guidSlotSize)
	}
	buf = append([]byte{}, b.original...)
	original_slots = uint32(len(buf) / guidSlotSize)
	appended := provisionalSet(b.changes.AppendedIndices)

	for _, slot := range sortedRemovals(b.changes.Removed) {
		if slot > original_slots {
			if _, ok := appended[slot]; !ok {
				return nil, errors.Wrapf(ErrHeapBounds, "#GUID slot %d of %d", slot, original_slots)
			}
			continue // appended slot, handled in the append pass
		}
		start, err := slotStart(slot, original_slots)
		if err != nil {
			return nil, err
		}
		for i := uint32(0); i < guidSlotSize; i++ {
			buf[start+i] = 0
		}
	}

	for _, slot := range pkg.SortedUintKeys(b.changes.Modified) {
		if slot > original_slots {
			if _, ok := appended[slot]; !ok {
				return nil, errors.Wrapf(ErrHeapBounds, "#GUID slot %d of %d", slot, original_slots)
			}
			continue
		}
		start, err := slotStart(slot, original_slots)
		if err != nil {
			return nil, err
		}
		g := b.changes.Modified.Get(slot)
		copy(buf[start:], g[:])
	}

	return b.appendNew(buf), nil
}

func (b *GuidBuilder) appendNew(buf []byte) []byte {
	for i, g := range b.changes.Appended {
		provisional := b.changes.AppendedIndices[i]
		if b.changes.IsRemoved(provisional) {
			continue
		}
		if replacement, ok := b.changes.Modification(provisional); ok {
			g = replacement
		}
		if actual := uint32(len(buf)/guidSlotSize) + 1; provisional != actual {
			b.mappings[provisional] = actual
		}
		buf = append(buf, g[:]...)
	}
	return buf
}

func slotStart(slot, slot_count uint32) (uint32, error) {
	if slot == 0 || slot > slot_count {
		return 0, errors.Wrapf(ErrHeapBounds, "#GUID slot %d of %d", slot, slot_count)
	}
	return (slot - 1) * guidSlotSize, nil
}
