package image

import (
	"encoding/binary"
	"io"

	"kore/stream"
)

// headerBytes is the fixed-size encoding Software reads from the
// start of an image stream: a deliberately simplified stand-in for a
// real PE64 optional header, carrying only the fields Header names.
const headerBytes = 0x200

// Software is the hosted Loader: it reads headerBytes from the start
// of f and decodes the Header fields from fixed little-endian
// offsets, the Go-hosted analogue of PE64::construct's in-place cast
// over a raw buffer.
type Software struct{}

func NewSoftware() Software { return Software{} }

func (Software) Locate(f stream.Object) (Header, bool) {
	buf := make([]byte, headerBytes)
	n, err := io.ReadFull(f, buf)
	if err != nil || n != headerBytes {
		return Header{}, false
	}
	h := Header{
		ImgType:      binary.LittleEndian.Uint16(buf[0:2]),
		ImgBase:      binary.LittleEndian.Uint64(buf[8:16]),
		ImgSize:      binary.LittleEndian.Uint64(buf[16:24]),
		AlignSection: binary.LittleEndian.Uint32(buf[24:28]),
		AlignFile:    binary.LittleEndian.Uint32(buf[28:32]),
		HeaderSize:   binary.LittleEndian.Uint32(buf[32:36]),
		SectionCount: binary.LittleEndian.Uint16(buf[36:38]),
	}
	if !Validate(h) {
		return Header{}, false
	}
	return h, true
}

// PutHeader is a test/diagnostic helper that encodes h back into a
// headerBytes-sized buffer in Software's layout, for building fixture
// streams in tests without duplicating the offset table.
func PutHeader(h Header) []byte {
	buf := make([]byte, headerBytes)
	binary.LittleEndian.PutUint16(buf[0:2], h.ImgType)
	binary.LittleEndian.PutUint64(buf[8:16], h.ImgBase)
	binary.LittleEndian.PutUint64(buf[16:24], h.ImgSize)
	binary.LittleEndian.PutUint32(buf[24:28], h.AlignSection)
	binary.LittleEndian.PutUint32(buf[28:32], h.AlignFile)
	binary.LittleEndian.PutUint32(buf[32:36], h.HeaderSize)
	binary.LittleEndian.PutUint16(buf[36:38], h.SectionCount)
	return buf
}
