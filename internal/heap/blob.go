package heap

import (
	"github.com/cilforge/cilforge/internal/edit"
	"github.com/cilforge/cilforge/internal/metadata"
	"github.com/cilforge/cilforge/pkg"
	"github.com/pkg/errors"
)

// BlobBuilder produces the #Blob heap: items prefixed with a compressed
// unsigned length, addressed by byte offset, offset 0 the empty blob.
//
// Incremental fit uses total encoded size, prefix included, so a shorter
// blob can reuse a longer item's slot even when the prefix width shrinks;
// the leftover bytes become unreachable padding, which the format permits.
// As with #Strings, edits aimed at appended items fold into the append
// pass.
type BlobBuilder struct {
	original []byte
	changes  *edit.HeapChanges[[]byte]
	mode     BuildMode
	mappings map[uint32]uint32
}

func NewBlobBuilder(original []byte, changes *edit.HeapChanges[[]byte]) *BlobBuilder {
	_, has_replacement := changes.Replacement()
	return &BlobBuilder{
		original: original,
		changes:  changes,
		mode:     chooseMode(has_replacement, len(original)),
		mappings: map[uint32]uint32{},
	}
}

func (b *BlobBuilder) Name() string                     { return "#Blob" }
func (b *BlobBuilder) Mode() BuildMode                  { return b.mode }
func (b *BlobBuilder) IndexMappings() map[uint32]uint32 { return b.mappings }

func (b *BlobBuilder) Build() ([]byte, error) {
	switch b.mode {
	case ModeReplace:
		replacement, _ := b.changes.Replacement()
		buf, err := b.appendNew(append([]byte{}, replacement...))
		if err != nil {
			return nil, err
		}
		return pad4(buf), nil
	case ModeRebuild:
		// offset 0 is the empty blob
		buf, err := b.appendNew([]byte{0})
		if err != nil {
			return nil, err
		}
		return pad4(buf), nil
	default:
		return b.patch()
	}
}

func appendBlob(buf []byte, blob []byte) ([]byte, error) {
	buf, err := metadata.AppendCompressedUint(buf, uint32(len(blob)))
	if err != nil {
		return nil, errors.Wrap(err, "blob length prefix")
	}
	return append(buf, blob...), nil
}

func (b *BlobBuilder) appendNew(buf []byte) ([]byte, error) {
	for i, blob := range b.changes.Appended {
		provisional := b.changes.AppendedIndices[i]
		if b.changes.IsRemoved(provisional) {
			continue
		}
		if replacement, ok := b.changes.Modification(provisional); ok {
			blob = replacement
		}
		if actual := uint32(len(buf)); provisional != actual {
			b.mappings[provisional] = actual
		}
		var err error
		if buf, err = appendBlob(buf, blob); err != nil {
			return nil, err
		}
	}
	return buf, nil
}

func (b *BlobBuilder) patch() ([]byte, error) {
	buf := append([]byte{}, b.original...)
	original_size := uint32(len(b.original))
	appended := provisionalSet(b.changes.AppendedIndices)

	for _, offset := range sortedRemovals(b.changes.Removed) {
		if offset >= original_size {
			if _, ok := appended[offset]; !ok {
				return nil, errors.Wrapf(ErrHeapBounds, "#Blob offset %d", offset)
			}
			continue
		}
		end, err := b.itemEnd(offset)
		if err != nil {
			return nil, err
		}
		for i := offset; i < end; i++ {
			buf[i] = 0
		}
	}

	var relocated_offsets []uint32
	for _, offset := range pkg.SortedUintKeys(b.changes.Modified) {
		if offset >= original_size {
			if _, ok := appended[offset]; !ok {
				return nil, errors.Wrapf(ErrHeapBounds, "#Blob offset %d", offset)
			}
			continue
		}
		replacement := b.changes.Modified.Get(offset)
		end, err := b.itemEnd(offset)
		if err != nil {
			return nil, err
		}
		encoded, err := appendBlob(nil, replacement)
		if err != nil {
			return nil, err
		}
		if uint32(len(encoded)) <= end-offset {
			copy(buf[offset:], encoded)
			for i := offset + uint32(len(encoded)); i < end; i++ {
				buf[i] = 0
			}
		} else {
			for i := offset; i < end; i++ {
				buf[i] = 0
			}
			relocated_offsets = append(relocated_offsets, offset)
		}
	}

	buf, err := b.appendNew(buf)
	if err != nil {
		return nil, err
	}

	for _, offset := range relocated_offsets {
		replacement := b.changes.Modified.Get(offset)
		b.mappings[offset] = uint32(len(buf))
		if buf, err = appendBlob(buf, replacement); err != nil {
			return nil, err
		}
	}

	return pad4(buf), nil
}

// itemEnd returns the offset just past the blob starting at offset,
// including its length prefix.
func (b *BlobBuilder) itemEnd(offset uint32) (uint32, error) {
	if offset >= uint32(len(b.original)) {
		return 0, errors.Wrapf(ErrHeapBounds, "#Blob offset %d", offset)
	}
	pos := int(offset)
	length, err := metadata.ReadCompressedUint(b.original, &pos)
	if err != nil {
		return 0, errors.Wrapf(err, "#Blob offset %d", offset)
	}
	end := uint32(pos) + length
	if end > uint32(len(b.original)) {
		return 0, errors.Wrapf(ErrHeapBounds, "#Blob offset %d runs past heap end", offset)
	}
	return end, nil
}
