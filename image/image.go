// Package image is the PE-image-loader port spec.md §1 names, used
// only to locate the stack/image regions a new process needs. Grounded
// byte-for-byte on original_source's process.cpp PE64::construct
// validation chain (the `header == nullptr || ... break` condition in
// process_manager::spawn).
package image

import "kore/stream"

// Header is the subset of a PE64 optional header the core consumes:
// enough to validate the image and to size the loader thread's
// arguments, never full section/import-table parsing (that belongs to
// a real loader, out of scope here).
type Header struct {
	ImgType      uint16 // bit 0x02 = executable; bits 0x3000 = system/DLL flags
	ImgBase      uint64
	ImgSize      uint64
	AlignSection uint32
	AlignFile    uint32
	HeaderSize   uint32
	SectionCount uint16
}

const (
	imgTypeExecutable = 0x02
	imgTypeSystemOrDLL = 0x3000
	pageSize           = 0x1000
	pageMask           = pageSize - 1
	fileAlignMask      = 0x1FF
	headerSizeMask     = 0x1FF

	// canonicalHighHalf marks the start of the non-canonical/kernel
	// half of the address space; an image base at or above this is
	// rejected, matching original_source's IS_HIGHADDR(imgbase).
	canonicalHighHalf = uint64(1) << 47
)

// Validate reproduces process_manager::spawn's PE-header predicate:
// non-system, non-DLL, executable, canonical low-half image base,
// page-aligned base, section alignment page-aligned, file alignment
// 512-aligned, header size 512-aligned, at least one section.
func Validate(h Header) bool {
	switch {
	case h.ImgType&imgTypeExecutable == 0:
		return false
	case h.ImgType&imgTypeSystemOrDLL != 0:
		return false
	case h.ImgBase >= canonicalHighHalf:
		return false
	case h.ImgBase&pageMask != 0:
		return false
	case h.AlignSection&pageMask != 0:
		return false
	case h.AlignFile&fileAlignMask != 0:
		return false
	case h.HeaderSize&headerSizeMask != 0:
		return false
	case h.SectionCount == 0:
		return false
	default:
		return true
	}
}

// Loader reads and validates a PE header from an already-open image
// stream, the narrow surface process spawn needs.
type Loader interface {
	Locate(f stream.Object) (Header, bool)
}
