package heap

import (
	"github.com/cilforge/cilforge/internal/edit"
	"github.com/cilforge/cilforge/pkg"
	"github.com/pkg/errors"
)

// StringsBuilder produces the #Strings heap: null-terminated UTF-8 items
// addressed by byte offset, offset 0 the empty string.
//
// In incremental mode the offsets of untouched items are preserved exactly.
// Removed items are zeroed in place, modified items are rewritten in place
// when the new text fits and relocated to the end when it does not, and
// appended items land after the original image in submission order. Every
// item whose offset differs from the one handed out at edit time shows up
// in IndexMappings.
//
// Edits aimed at an appended item (index at or past the original heap end)
// are folded into the append pass: a removed append is never emitted, a
// modified one is emitted with its final text.
type StringsBuilder struct {
	original []byte
	changes  *edit.HeapChanges[string]
	mode     BuildMode
	mappings map[uint32]uint32
}

func NewStringsBuilder(original []byte, changes *edit.HeapChanges[string]) *StringsBuilder {
	_, has_replacement := changes.Replacement()
	return &StringsBuilder{
		original: original,
		changes:  changes,
		mode:     chooseMode(has_replacement, len(original)),
		mappings: map[uint32]uint32{},
	}
}

func (b *StringsBuilder) Name() string                     { return "#Strings" }
func (b *StringsBuilder) Mode() BuildMode                  { return b.mode }
func (b *StringsBuilder) IndexMappings() map[uint32]uint32 { return b.mappings }

func (b *StringsBuilder) Build() ([]byte, error) {
	switch b.mode {
	case ModeReplace:
		replacement, _ := b.changes.Replacement()
		return pad4(b.appendNew(append([]byte{}, replacement...))), nil
	case ModeRebuild:
		// offset 0 is the empty string
		return pad4(b.appendNew([]byte{0})), nil
	default:
		return b.patch()
	}
}

// appendNew emits the surviving appended items at the end of buf, recording
// a mapping for any whose provisional index does not match its final
// offset.
func (b *StringsBuilder) appendNew(buf []byte) []byte {
	for i, s := range b.changes.Appended {
		provisional := b.changes.AppendedIndices[i]
		if b.changes.IsRemoved(provisional) {
			continue
		}
		if replacement, ok := b.changes.Modification(provisional); ok {
			s = replacement
		}
		if actual := uint32(len(buf)); provisional != actual {
			b.mappings[provisional] = actual
		}
		buf = append(buf, s...)
		buf = append(buf, 0)
	}
	return buf
}

func (b *StringsBuilder) patch() ([]byte, error) {
	buf := append([]byte{}, b.original...)
	original_size := uint32(len(b.original))
	appended := provisionalSet(b.changes.AppendedIndices)

	for _, offset := range sortedRemovals(b.changes.Removed) {
		if offset >= original_size {
			if _, ok := appended[offset]; !ok {
				return nil, errors.Wrapf(ErrHeapBounds, "#Strings offset %d", offset)
			}
			continue // appended item, handled in the append pass
		}
		end, err := b.terminator(offset)
		if err != nil {
			return nil, err
		}
		for i := offset; i < end; i++ {
			buf[i] = 0
		}
	}

	// relocations are collected first so appends keep their provisional
	// offsets
	var relocated_offsets []uint32
	for _, offset := range pkg.SortedUintKeys(b.changes.Modified) {
		if offset >= original_size {
			if _, ok := appended[offset]; !ok {
				return nil, errors.Wrapf(ErrHeapBounds, "#Strings offset %d", offset)
			}
			continue
		}
		replacement := b.changes.Modified.Get(offset)
		end, err := b.terminator(offset)
		if err != nil {
			return nil, err
		}
		existing := end - offset
		if uint32(len(replacement)) <= existing {
			copy(buf[offset:], replacement)
			for i := offset + uint32(len(replacement)); i < end; i++ {
				buf[i] = 0
			}
		} else {
			for i := offset; i < end; i++ {
				buf[i] = 0
			}
			relocated_offsets = append(relocated_offsets, offset)
		}
	}

	buf = b.appendNew(buf)

	for _, offset := range relocated_offsets {
		replacement := b.changes.Modified.Get(offset)
		b.mappings[offset] = uint32(len(buf))
		buf = append(buf, replacement...)
		buf = append(buf, 0)
	}

	return pad4(buf), nil
}

// terminator returns the offset of the null byte ending the item at offset.
func (b *StringsBuilder) terminator(offset uint32) (uint32, error) {
	if offset >= uint32(len(b.original)) {
		return 0, errors.Wrapf(ErrHeapBounds, "#Strings offset %d", offset)
	}
	for i := offset; i < uint32(len(b.original)); i++ {
		if b.original[i] == 0 {
			return i, nil
		}
	}
	return 0, errors.Wrapf(ErrMissingTerminator, "#Strings offset %d", offset)
}
