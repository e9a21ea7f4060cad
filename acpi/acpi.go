// Package acpi implements the ACPI/MADT parser spec.md §1 and §6 name
// as an external collaborator: given the RSDP pointer and a means to
// read a page at a physical address, walk the RSDT/XSDT table list and
// decode the MADT and FADT. Grounded byte-for-byte on
// original_source's kernel/dev/acpi.cpp (ACPI::ACPI's RSDT/XSDT walk,
// ACPI::validate's checksum, MADT::MADT's entry-type switch,
// FADT::FADT's header-relative memcpy).
package acpi

import (
	"encoding/binary"
	"errors"

	"kore/kbug"
)

var (
	errShortRSDP    = errors.New("acpi: rsdp must be 8 bytes")
	errBadChecksum  = errors.New("acpi: table failed checksum validation")
	errBadSignature = errors.New("acpi: root table signature mismatch")
	errBadStride    = errors.New("acpi: root table entry count misaligned")
)

const headerSize = 36 // ACPI SDT header: signature(4) length(4) revision(1) checksum(1) oemid(6) oemtableid(8) oemrevision(4) creatorid(4) creatorrevision(4)

const (
	sigRSDT = 0x54445352 // "RSDT"
	sigXSDT = 0x54445358 // "XSDT"
	sigAPIC = 0x43495041 // "APIC" (MADT)
	sigFACP = 0x50434146 // "FACP" (FADT)
)

// Reader returns the bytes of the physical page containing addr, with
// the slice's first byte corresponding to addr itself — the hosted
// stand-in for original_source's VM::map_view(aligned_addr), which
// maps one page and leaves the caller to index by the in-page offset.
// Implementations need not return a full page if addr's containing
// region is smaller, but must return at least the remaining span up to
// the next page boundary when real table data exists there.
type Reader interface {
	ReadPage(addr uint64) ([]byte, error)
}

// Tables is the parsed result: the two tables original_source's ACPI
// class exposes via get_madt/get_fadt.
type Tables struct {
	madt *MADT
	fadt *FADT
}

// MADT returns the parsed MADT, bugchecking if none was found — the
// Go analogue of ACPI::get_madt's BugCheck(hardware_fault, this).
func (t *Tables) MADT() *MADT {
	if t.madt == nil {
		kbug.Check(kbug.HardwareFault, "acpi: no MADT present")
	}
	return t.madt
}

// FADT returns the parsed FADT, bugchecking if none was found — the
// Go analogue of ACPI::get_fadt.
func (t *Tables) FADT() *FADT {
	if t.fadt == nil {
		kbug.Check(kbug.HardwareFault, "acpi: no FADT present")
	}
	return t.fadt
}

// Parser is the narrow interface proc/boot code consumes.
type Parser interface {
	Parse(rsdp []byte) (*Tables, error)
}

// Software is the hosted Parser implementation, reading table bytes
// through a Reader instead of a real VM::map_view.
type Software struct {
	mem Reader
}

func NewSoftware(mem Reader) *Software {
	return &Software{mem: mem}
}

// validate implements ACPI::validate: the table must claim at least
// headerSize bytes, fit within limit, and sum to zero over its claimed
// length.
func validate(table []byte, limit int) bool {
	if limit < 8 || len(table) < 8 {
		return false
	}
	size := int(binary.LittleEndian.Uint32(table[4:8]))
	if size < headerSize || size > limit || size > len(table) {
		return false
	}
	var sum byte
	for _, b := range table[:size] {
		sum += b
	}
	return sum == 0
}

// Parse implements ACPI::ACPI's constructor body: decode the packed
// RSDP (56-bit physical address, 8-bit type: 0=RSDT, 1=XSDT), map the
// page it falls in, validate the root table, and walk its entry list,
// dispatching each child table by signature.
func (p *Software) Parse(rsdp []byte) (*Tables, error) {
	if len(rsdp) < 8 {
		return nil, errShortRSDP
	}
	packed := binary.LittleEndian.Uint64(rsdp[:8])
	addr := packed & 0x00FF_FFFF_FFFF_FFFF
	kind := byte(packed >> 56)

	view, _, err := p.readAt(addr)
	if err != nil {
		return nil, err
	}
	if !validate(view, len(view)) {
		return nil, errBadChecksum
	}

	size := int(binary.LittleEndian.Uint32(view[4:8])) - headerSize
	entries := view[headerSize:]
	t := &Tables{}

	if kind != 0 { // XSDT: 8-byte physical pointers
		if binary.LittleEndian.Uint32(view[0:4]) != sigXSDT {
			return nil, errBadSignature
		}
		if size&0x07 != 0 {
			return nil, errBadStride
		}
		for size > 0 {
			childAddr := binary.LittleEndian.Uint64(entries[:8])
			if err := p.parseTable(t, childAddr); err != nil {
				return nil, err
			}
			entries = entries[8:]
			size -= 8
		}
		return t, nil
	}

	// RSDT: 4-byte physical pointers.
	if binary.LittleEndian.Uint32(view[0:4]) != sigRSDT {
		return nil, errBadSignature
	}
	if size&0x03 != 0 {
		return nil, errBadStride
	}
	for size > 0 {
		childAddr := uint64(binary.LittleEndian.Uint32(entries[:4]))
		if err := p.parseTable(t, childAddr); err != nil {
			return nil, err
		}
		entries = entries[4:]
		size -= 4
	}
	return t, nil
}

// readAt maps the page containing pbase and returns the bytes from
// pbase to the end of that page, plus the in-page offset — the Go
// analogue of "auto aligned = align_down(pbase, PAGE_SIZE); VM::map_view
// view(aligned); offset = pbase - aligned".
func (p *Software) readAt(pbase uint64) ([]byte, int, error) {
	page, err := p.mem.ReadPage(pbase)
	if err != nil {
		return nil, 0, err
	}
	const pageSize = 4096
	offset := int(pbase % pageSize)
	if offset >= len(page) {
		return nil, 0, errors.New("acpi: reader returned fewer bytes than the requested offset")
	}
	return page[offset:], offset, nil
}

// parseTable implements ACPI::parse_table: validate the child table
// against the remaining span of its own page, then dispatch by
// signature. Unknown tables and a second FADT (a hardware-fault
// condition in original_source) are handled the same way here.
func (p *Software) parseTable(t *Tables, pbase uint64) error {
	view, _, err := p.readAt(pbase)
	if err != nil {
		return err
	}
	if !validate(view, len(view)) {
		return nil // original silently ignores a table that fails validation
	}
	sig := binary.LittleEndian.Uint32(view[0:4])
	switch sig {
	case sigAPIC:
		m, err := parseMADT(view)
		if err != nil {
			return err
		}
		t.madt = m
	case sigFACP:
		if t.fadt != nil {
			kbug.Check(kbug.HardwareFault, "acpi: duplicate FADT")
		}
		t.fadt = parseFADT(view)
	}
	return nil
}
