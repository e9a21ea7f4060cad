package acpi

import (
	"encoding/binary"
	"errors"

	"kore/kbug"
)

// Processor is an MADT type-0 entry (Processor Local APIC), kept only
// when its enabled bit is set.
type Processor struct {
	UID    byte
	APICID byte
}

// Redirect is an MADT type-2 (Interrupt Source Override) or type-3
// (NMI Source) entry. IRQ is 2 for an NMI-source entry, matching
// original_source's reuse of the same list with a synthetic IRQ
// number for that case.
type Redirect struct {
	GSI  uint32
	IRQ  byte
	Mode byte
}

// NMIPin is an MADT type-4 entry (Local APIC NMI).
type NMIPin struct {
	UID  byte
	Pin  byte
	Mode byte
}

// MADT is the parsed Multiple APIC Description Table: processor list,
// IO APIC base/GSI, interrupt redirects, and NMI pin assignments.
// Grounded byte-for-byte on original_source's MADT::MADT entry-type
// switch.
type MADT struct {
	LocalAPICBase uint64
	PICPresent    bool

	Processors []Processor
	IOAPICBase uint32
	GSIBase    uint32
	IOAPICSeen bool
	Redirects  []Redirect
	NMIPins    []NMIPin
}

// parseMADT implements MADT::MADT(vbase): header is the standard
// 36-byte ACPI SDT header; at offset 36 sits a 4-byte local APIC
// address followed by a 4-byte flags word (only its low bit, 8259
// PIC present, is consulted); entries begin at offset 44.
func parseMADT(view []byte) (*MADT, error) {
	limit := int(binary.LittleEndian.Uint32(view[4:8]))
	if limit < headerSize+8 {
		return nil, errors.New("acpi: MADT shorter than its fixed header")
	}

	m := &MADT{PICPresent: true}
	m.LocalAPICBase = uint64(binary.LittleEndian.Uint32(view[headerSize : headerSize+4]))
	flags := view[headerSize+4]
	if flags&0x01 == 0 {
		m.PICPresent = false
	}

	cur := headerSize + 8
	for cur < limit {
		typ := view[cur]
		length := int(view[cur+1])
		if length == 0 {
			kbug.Check(kbug.HardwareFault, "acpi: zero-length MADT entry")
		}
		if cur+length > len(view) {
			return nil, errors.New("acpi: MADT entry runs past table bounds")
		}
		entry := view[cur : cur+length]
		switch typ {
		case 0: // Processor Local APIC
			if length == 8 && entry[4]&0x01 != 0 {
				m.Processors = append(m.Processors, Processor{UID: entry[2], APICID: entry[3]})
			}
		case 1: // IO APIC
			if length == 12 {
				gsi := binary.LittleEndian.Uint32(entry[8:12])
				if !m.IOAPICSeen || gsi < m.GSIBase {
					m.IOAPICBase = binary.LittleEndian.Uint32(entry[4:8])
					m.GSIBase = gsi
				}
				m.IOAPICSeen = true
			}
		case 2: // Interrupt Source Override
			if length == 10 && entry[2] == 0 {
				m.Redirects = append(m.Redirects, Redirect{
					GSI:  binary.LittleEndian.Uint32(entry[4:8]),
					IRQ:  entry[3],
					Mode: entry[8],
				})
			}
		case 3: // NMI Source
			if length == 8 {
				m.Redirects = append(m.Redirects, Redirect{
					GSI:  binary.LittleEndian.Uint32(entry[4:8]),
					IRQ:  2,
					Mode: entry[2],
				})
			}
		case 4: // Local APIC NMI
			if length == 6 {
				m.NMIPins = append(m.NMIPins, NMIPin{UID: entry[2], Mode: entry[3], Pin: entry[5]})
			}
		case 5: // Local APIC Address Override
			if length == 12 {
				m.LocalAPICBase = binary.LittleEndian.Uint64(entry[4:12])
			}
		}
		cur += length
	}
	return m, nil
}
