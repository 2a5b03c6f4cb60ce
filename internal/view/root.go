package view

import (
	"bytes"
	"encoding/binary"

	"github.com/cilforge/cilforge/pkg"
	"github.com/pkg/errors"
)

// Metadata root per ECMA-335 II.24.2.1: BSJB signature, version string,
// then the stream directory. Stream offsets are relative to the root.

const MetadataSignature uint32 = 0x424A5342

var ErrBadSignature = errors.New("metadata root signature mismatch")
var ErrTruncatedRoot = errors.New("metadata root truncated")

type StreamHeader struct {
	Name   string
	Offset uint32
	Size   uint32
}

// MetadataRoot is the parsed root header. Streams preserves directory
// order, which writers must reproduce byte-for-byte.
type MetadataRoot struct {
	MajorVersion uint16
	MinorVersion uint16
	Version      string
	Flags        uint16
	Streams      *pkg.InsertSortMap[string, StreamHeader]
}

// ParseRoot reads the root header from the start of a metadata blob.
func ParseRoot(data []byte) (*MetadataRoot, error) {
	if len(data) < 20 {
		return nil, errors.Wrap(ErrTruncatedRoot, "header")
	}
	if sig := binary.LittleEndian.Uint32(data); sig != MetadataSignature {
		return nil, errors.Wrapf(ErrBadSignature, "got %#x", sig)
	}

	root := &MetadataRoot{
		MajorVersion: binary.LittleEndian.Uint16(data[4:]),
		MinorVersion: binary.LittleEndian.Uint16(data[6:]),
		Streams:      pkg.NewInsertSortMap[string, StreamHeader](),
	}

	version_len := binary.LittleEndian.Uint32(data[12:])
	if version_len%4 != 0 || 16+int(version_len) > len(data) {
		return nil, errors.Wrapf(ErrTruncatedRoot, "version length %d", version_len)
	}
	root.Version = string(bytes.TrimRight(data[16:16+version_len], "\x00"))

	pos := 16 + int(version_len)
	if pos+4 > len(data) {
		return nil, errors.Wrap(ErrTruncatedRoot, "stream count")
	}
	root.Flags = binary.LittleEndian.Uint16(data[pos:])
	stream_count := int(binary.LittleEndian.Uint16(data[pos+2:]))
	pos += 4

	for i := 0; i < stream_count; i++ {
		if pos+8 > len(data) {
			return nil, errors.Wrapf(ErrTruncatedRoot, "stream header %d", i)
		}
		header := StreamHeader{
			Offset: binary.LittleEndian.Uint32(data[pos:]),
			Size:   binary.LittleEndian.Uint32(data[pos+4:]),
		}
		pos += 8

		name_end := bytes.IndexByte(data[pos:], 0)
		if name_end < 0 {
			return nil, errors.Wrapf(ErrTruncatedRoot, "stream name %d", i)
		}
		header.Name = string(data[pos : pos+name_end])
		// name field is null-padded to a 4-byte boundary
		pos += pkg.Align4(name_end + 1)

		if int(header.Offset)+int(header.Size) > len(data) {
			return nil, errors.Errorf("stream %q spans [%d, %d) past blob end %d",
				header.Name, header.Offset, header.Offset+header.Size, len(data))
		}
		root.Streams.Push(header.Name, header)
	}

	return root, nil
}

// StreamData slices one stream's bytes out of the blob the root was parsed
// from.
func (r *MetadataRoot) StreamData(data []byte, name string) ([]byte, bool) {
	if !r.Streams.Has(name) {
		return nil, false
	}
	header := r.Streams.Get(name)
	return data[header.Offset : header.Offset+header.Size], true
}

// NamedStream pairs a directory name with final stream bytes for root
// composition.
type NamedStream struct {
	Name string
	Data []byte
}

// ComposeRoot assembles a complete metadata blob: root header, stream
// directory in the given order, then the stream bodies back to back.
func ComposeRoot(version string, streams []NamedStream) ([]byte, error) {
	version_field := pkg.Align4(len(version) + 1)
	if version_field > 255 {
		return nil, errors.Errorf("version string %d bytes exceeds root field", len(version))
	}

	header_size := 16 + version_field + 4
	for _, s := range streams {
		header_size += 8 + pkg.Align4(len(s.Name)+1)
	}

	buf := make([]byte, 0, header_size)
	buf = binary.LittleEndian.AppendUint32(buf, MetadataSignature)
	buf = binary.LittleEndian.AppendUint16(buf, 1)
	buf = binary.LittleEndian.AppendUint16(buf, 1)
	buf = binary.LittleEndian.AppendUint32(buf, 0) // reserved
	buf = binary.LittleEndian.AppendUint32(buf, uint32(version_field))
	buf = append(buf, version...)
	for len(buf) < 16+version_field {
		buf = append(buf, 0)
	}
	buf = binary.LittleEndian.AppendUint16(buf, 0) // flags
	buf = binary.LittleEndian.AppendUint16(buf, uint16(len(streams)))

	offset := uint32(header_size)
	for _, s := range streams {
		buf = binary.LittleEndian.AppendUint32(buf, offset)
		buf = binary.LittleEndian.AppendUint32(buf, uint32(len(s.Data)))
		buf = append(buf, s.Name...)
		buf = append(buf, 0)
		for len(buf)%4 != 0 {
			buf = append(buf, 0)
		}
		offset += uint32(len(s.Data))
	}

	for _, s := range streams {
		buf = append(buf, s.Data...)
	}
	return buf, nil
}
