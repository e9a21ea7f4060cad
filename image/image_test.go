package image

import (
	"bytes"
	"errors"
	"io"
	"testing"
)

type memStream struct {
	*bytes.Reader
}

func newMemStream(b []byte) *memStream { return &memStream{bytes.NewReader(b)} }

func (m *memStream) Write(p []byte) (int, error)             { return 0, errors.New("read-only") }
func (m *memStream) Close() error                             { return nil }
func (m *memStream) Seek(offset int64, whence int) (int64, error) {
	return m.Reader.Seek(offset, whence)
}

func validHeader() Header {
	return Header{
		ImgType:      imgTypeExecutable,
		ImgBase:      0x0000_4000_0000,
		ImgSize:      0x10000,
		AlignSection: 0x1000,
		AlignFile:    0x200,
		HeaderSize:   0x200,
		SectionCount: 3,
	}
}

func TestValidateAcceptsWellFormedHeader(t *testing.T) {
	if !Validate(validHeader()) {
		t.Fatal("a well-formed header should validate")
	}
}

func TestValidateRejectsNonExecutable(t *testing.T) {
	h := validHeader()
	h.ImgType = 0
	if Validate(h) {
		t.Fatal("non-executable image should be rejected")
	}
}

func TestValidateRejectsSystemOrDLL(t *testing.T) {
	h := validHeader()
	h.ImgType |= 0x1000
	if Validate(h) {
		t.Fatal("system/DLL image should be rejected")
	}
}

func TestValidateRejectsHighHalfBase(t *testing.T) {
	h := validHeader()
	h.ImgBase = canonicalHighHalf
	if Validate(h) {
		t.Fatal("a high-half image base should be rejected")
	}
}

func TestValidateRejectsUnalignedBase(t *testing.T) {
	h := validHeader()
	h.ImgBase += 1
	if Validate(h) {
		t.Fatal("a non-page-aligned image base should be rejected")
	}
}

func TestValidateRejectsZeroSections(t *testing.T) {
	h := validHeader()
	h.SectionCount = 0
	if Validate(h) {
		t.Fatal("zero sections should be rejected")
	}
}

func TestSoftwareLocateRoundTrips(t *testing.T) {
	h := validHeader()
	s := newMemStream(PutHeader(h))
	got, ok := NewSoftware().Locate(s)
	if !ok {
		t.Fatal("Locate should succeed on a well-formed header")
	}
	if got != h {
		t.Fatalf("got %+v, want %+v", got, h)
	}
}

func TestSoftwareLocateRejectsShortStream(t *testing.T) {
	s := newMemStream(make([]byte, 10))
	if _, ok := NewSoftware().Locate(s); ok {
		t.Fatal("a truncated stream should not locate a header")
	}
}

func TestSoftwareLocateRejectsInvalidHeader(t *testing.T) {
	h := validHeader()
	h.SectionCount = 0
	s := newMemStream(PutHeader(h))
	if _, ok := NewSoftware().Locate(s); ok {
		t.Fatal("an invalid header should not be returned as located")
	}
}

var _ io.ReadWriteCloser = (*memStream)(nil)
