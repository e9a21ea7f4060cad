package acpi

import "encoding/binary"

// FADT is the subset of the Fixed ACPI Description Table
// original_source's FADT::FADT reads: the fields it memcpy's past the
// 36-byte header and logs (preferred power-management profile, SCI
// interrupt, register blocks, century byte, flags). Field offsets
// match the published ACPI FADT body layout.
type FADT struct {
	FirmwareCtrl uint32
	Dsdt         uint32

	PreferredPowerManagementProfile byte
	SCIInterrupt                    uint16
	SMICommandPort                  uint32
	AcpiEnable                      byte
	AcpiDisable                     byte

	Pm1aEventBlock   uint32
	Pm1bEventBlock   uint32
	Pm1aControlBlock uint32
	Pm1bControlBlock uint32
	Pm2ControlBlock  uint32
	PmTimerBlock     uint32
	Gpe0Block        uint32
	Gpe1Block        uint32

	Pm1EventLength   byte
	Pm1ControlLength byte
	Pm2ControlLength byte
	PmTimerLength    byte
	Gpe0Length       byte
	Gpe1Length       byte
	Gpe1Base         byte

	Century byte
	Flags   uint32
}

// fadtBodyOffsets names where each field begins, relative to the
// table body (i.e. view[headerSize:]) — the Go analogue of
// memcpy(this, view + HEADER_SIZE/4, min(size, sizeof(FADT))), done
// field-by-field instead of as one raw struct overlay.
const (
	offFirmwareCtrl = 0
	offDsdt         = 4

	offPreferredProfile = 9
	offSCIInterrupt     = 10
	offSMICommandPort   = 12
	offAcpiEnable       = 16
	offAcpiDisable      = 17

	offPm1aEventBlock   = 20
	offPm1bEventBlock   = 24
	offPm1aControlBlock = 28
	offPm1bControlBlock = 32
	offPm2ControlBlock  = 36
	offPmTimerBlock     = 40
	offGpe0Block        = 44
	offGpe1Block        = 48

	offPm1EventLength   = 52
	offPm1ControlLength = 53
	offPm2ControlLength = 54
	offPmTimerLength    = 55
	offGpe0Length       = 56
	offGpe1Length       = 57
	offGpe1Base         = 58

	offCentury = 72
	offFlags   = 76

	fadtBodySize = 80
)

// parseFADT implements FADT::FADT: the body is whatever the table
// actually carries, up to fadtBodySize; anything the table is too
// short to supply is left zero, matching
// "if (size < sizeof(FADT)) zeromemory(...)".
func parseFADT(view []byte) *FADT {
	tableSize := int(binary.LittleEndian.Uint32(view[4:8]))
	body := view[headerSize:tableSize]
	if len(body) > fadtBodySize {
		body = body[:fadtBodySize]
	}

	get32 := func(off int) uint32 {
		if off+4 > len(body) {
			return 0
		}
		return binary.LittleEndian.Uint32(body[off : off+4])
	}
	get16 := func(off int) uint16 {
		if off+2 > len(body) {
			return 0
		}
		return binary.LittleEndian.Uint16(body[off : off+2])
	}
	get8 := func(off int) byte {
		if off+1 > len(body) {
			return 0
		}
		return body[off]
	}

	return &FADT{
		FirmwareCtrl: get32(offFirmwareCtrl),
		Dsdt:         get32(offDsdt),

		PreferredPowerManagementProfile: get8(offPreferredProfile),
		SCIInterrupt:                    get16(offSCIInterrupt),
		SMICommandPort:                  get32(offSMICommandPort),
		AcpiEnable:                      get8(offAcpiEnable),
		AcpiDisable:                     get8(offAcpiDisable),

		Pm1aEventBlock:   get32(offPm1aEventBlock),
		Pm1bEventBlock:   get32(offPm1bEventBlock),
		Pm1aControlBlock: get32(offPm1aControlBlock),
		Pm1bControlBlock: get32(offPm1bControlBlock),
		Pm2ControlBlock:  get32(offPm2ControlBlock),
		PmTimerBlock:     get32(offPmTimerBlock),
		Gpe0Block:        get32(offGpe0Block),
		Gpe1Block:        get32(offGpe1Block),

		Pm1EventLength:   get8(offPm1EventLength),
		Pm1ControlLength: get8(offPm1ControlLength),
		Pm2ControlLength: get8(offPm2ControlLength),
		PmTimerLength:    get8(offPmTimerLength),
		Gpe0Length:       get8(offGpe0Length),
		Gpe1Length:       get8(offGpe1Length),
		Gpe1Base:         get8(offGpe1Base),

		Century: get8(offCentury),
		Flags:   get32(offFlags),
	}
}
