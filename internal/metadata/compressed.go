package metadata

import "github.com/pkg/errors"

// Compressed unsigned integers per ECMA-335 II.23.2: 1 byte for values
// below 0x80, 2 bytes below 0x4000, otherwise 4 bytes. Blob and user-string
// heap items carry their length in this encoding.

// ErrCompressedRange is returned for values too large for the encoding.
var ErrCompressedRange = errors.New("value exceeds compressed uint range")

// CompressedUintSize returns the encoded byte size for v.
func CompressedUintSize(v uint32) uint32 {
	switch {
	case v < 0x80:
		return 1
	case v < 0x4000:
		return 2
	default:
		return 4
	}
}

// AppendCompressedUint appends the encoding of v to buf. Values above
// 0x1FFF_FFFF cannot be represented and fail.
func AppendCompressedUint(buf []byte, v uint32) ([]byte, error) {
	switch {
	case v < 0x80:
		return append(buf, byte(v)), nil
	case v < 0x4000:
		return append(buf, byte(v>>8)|0x80, byte(v)), nil
	case v < 0x2000_0000:
		return append(buf, byte(v>>24)|0xC0, byte(v>>16), byte(v>>8), byte(v)), nil
	default:
		return buf, errors.Wrapf(ErrCompressedRange, "value %#x", v)
	}
}

// ReadCompressedUint decodes a compressed uint at data[*offset], advancing
// *offset past it.
func ReadCompressedUint(data []byte, offset *int) (uint32, error) {
	if *offset >= len(data) {
		return 0, errors.Wrap(ErrShortBuffer, "compressed uint")
	}
	first := data[*offset]
	switch {
	case first&0x80 == 0:
		*offset++
		return uint32(first), nil
	case first&0xC0 == 0x80:
		if *offset+2 > len(data) {
			return 0, errors.Wrap(ErrShortBuffer, "2-byte compressed uint")
		}
		v := uint32(first&0x3F)<<8 | uint32(data[*offset+1])
		*offset += 2
		return v, nil
	case first&0xE0 == 0xC0:
		if *offset+4 > len(data) {
			return 0, errors.Wrap(ErrShortBuffer, "4-byte compressed uint")
		}
		v := uint32(first&0x1F)<<24 | uint32(data[*offset+1])<<16 |
			uint32(data[*offset+2])<<8 | uint32(data[*offset+3])
		*offset += 4
		return v, nil
	default:
		return 0, errors.Errorf("invalid compressed uint prefix %#x", first)
	}
}
