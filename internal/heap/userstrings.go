package heap

import (
	"encoding/binary"
	"unicode/utf16"

	"github.com/cilforge/cilforge/internal/edit"
	"github.com/cilforge/cilforge/internal/metadata"
	"github.com/cilforge/cilforge/pkg"
	"github.com/pkg/errors"
)

// UserStringsBuilder produces the #US heap: items prefixed with a
// compressed length counting a UTF-16LE payload plus one trailing flag
// byte, addressed by byte offset, offset 0 a single null byte.
type UserStringsBuilder struct {
	original []byte
	changes  *edit.HeapChanges[string]
	mode     BuildMode
	mappings map[uint32]uint32
}

func NewUserStringsBuilder(original []byte, changes *edit.HeapChanges[string]) *UserStringsBuilder {
	_, has_replacement := changes.Replacement()
	return &UserStringsBuilder{
		original: original,
		changes:  changes,
		mode:     chooseMode(has_replacement, len(original)),
		mappings: map[uint32]uint32{},
	}
}

func (b *UserStringsBuilder) Name() string                     { return "#US" }
func (b *UserStringsBuilder) Mode() BuildMode                  { return b.mode }
func (b *UserStringsBuilder) IndexMappings() map[uint32]uint32 { return b.mappings }

// encodeUserString renders the length prefix, UTF-16LE code units and the
// flag byte for one #US item.
func encodeUserString(s string) ([]byte, error) {
	units := utf16.Encode([]rune(s))
	payload := make([]byte, 0, len(units)*2+1)
	flag := byte(0)
	for _, u := range units {
		payload = binary.LittleEndian.AppendUint16(payload, u)
		if userStringNeedsFlag(u) {
			flag = 1
		}
	}
	payload = append(payload, flag)

	buf, err := metadata.AppendCompressedUint(nil, uint32(len(payload)))
	if err != nil {
		return nil, errors.Wrap(err, "user string length prefix")
	}
	return append(buf, payload...), nil
}

// userStringNeedsFlag reports whether a code unit forces the trailing flag
// byte to 1, per ECMA-335 II.24.2.4.
func userStringNeedsFlag(u uint16) bool {
	if u > 0xFF {
		return true
	}
	low := byte(u)
	switch {
	case low >= 0x01 && low <= 0x08:
		return true
	case low >= 0x0E && low <= 0x1F:
		return true
	case low == 0x27 || low == 0x2D || low == 0x7F:
		return true
	}
	return false
}

func (b *UserStringsBuilder) Build() ([]byte, error) {
	switch b.mode {
	case ModeReplace:
		replacement, _ := b.changes.Replacement()
		buf, err := b.appendNew(append([]byte{}, replacement...))
		if err != nil {
			return nil, err
		}
		return pad4(buf), nil
	case ModeRebuild:
		// offset 0 is the null item
		buf, err := b.appendNew([]byte{0})
		if err != nil {
			return nil, err
		}
		return pad4(buf), nil
	default:
		return b.patch()
	}
}

func (b *UserStringsBuilder) appendNew(buf []byte) ([]byte, error) {
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
		encoded, err := encodeUserString(s)
		if err != nil {
			return nil, err
		}
		buf = append(buf, encoded...)
	}
	return buf, nil
}

func (b *UserStringsBuilder) patch() ([]byte, error) {
	buf := append([]byte{}, b.original...)
	original_size := uint32(len(b.original))
	appended := provisionalSet(b.changes.AppendedIndices)

	for _, offset := range sortedRemovals(b.changes.Removed) {
		if offset >= original_size {
			if _, ok := appended[offset]; !ok {
				return nil, errors.Wrapf(ErrHeapBounds, "#US offset %d", offset)
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
				return nil, errors.Wrapf(ErrHeapBounds, "#US offset %d", offset)
			}
			continue
		}
		end, err := b.itemEnd(offset)
		if err != nil {
			return nil, err
		}
		encoded, err := encodeUserString(b.changes.Modified.Get(offset))
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
		encoded, err := encodeUserString(b.changes.Modified.Get(offset))
		if err != nil {
			return nil, err
		}
		b.mappings[offset] = uint32(len(buf))
		buf = append(buf, encoded...)
	}

	return pad4(buf), nil
}

func (b *UserStringsBuilder) itemEnd(offset uint32) (uint32, error) {
	if offset >= uint32(len(b.original)) {
		return 0, errors.Wrapf(ErrHeapBounds, "#US offset %d", offset)
	}
	pos := int(offset)
	length, err := metadata.ReadCompressedUint(b.original, &pos)
	if err != nil {
		return 0, errors.Wrapf(err, "#US offset %d", offset)
	}
	end := uint32(pos) + length
	if end > uint32(len(b.original)) {
		return 0, errors.Wrapf(ErrHeapBounds, "#US offset %d runs past heap end", offset)
	}
	return end, nil
}
