package pemeta

import (
	"encoding/binary"
	"fmt"
)

const (
	peOffsetField      = 0x3c
	coffHeaderSize     = 20
	dataDirEntrySize   = 8
	resourceTableIndex = 2
)

func readU16(buf []byte, off int) (uint16, bool) {
	if off < 0 || off+2 > len(buf) {
		return 0, false
	}
	return binary.LittleEndian.Uint16(buf[off:]), true
}

func readU32(buf []byte, off int) (uint32, bool) {
	if off < 0 || off+4 > len(buf) {
		return 0, false
	}
	return binary.LittleEndian.Uint32(buf[off:]), true
}

// ParseHeader walks the DOS stub and NT headers. It fails hard only when
// the buffer is not a PE image at all or too short to hold the mandatory
// header fields; optional pieces (resource table, optional header magic)
// degrade to absent.
func ParseHeader(buf []byte) (*HeaderInfo, error) {
	if len(buf) < 2 || buf[0] != 'M' || buf[1] != 'Z' {
		return nil, ErrNotPEFile
	}

	peOffset32, ok := readU32(buf, peOffsetField)
	if !ok {
		return nil, ErrTruncatedHeader
	}
	peOffset := int(peOffset32)
	if peOffset < 0 || peOffset+4 > len(buf) {
		return nil, ErrNotPEFile
	}
	if string(buf[peOffset:peOffset+4]) != "PE\x00\x00" {
		return nil, ErrNotPEFile
	}

	machine, ok := readU16(buf, peOffset+4)
	if !ok {
		return nil, ErrTruncatedHeader
	}
	numberOfSections, ok := readU16(buf, peOffset+6)
	if !ok {
		return nil, ErrTruncatedHeader
	}
	optionalHeaderSize, ok := readU16(buf, peOffset+20)
	if !ok {
		return nil, ErrTruncatedHeader
	}
	characteristics, _ := readU16(buf, peOffset+22)

	info := &HeaderInfo{
		Machine:            machine,
		MachineName:        machineName(machine),
		NumberOfSections:   numberOfSections,
		Characteristics:    characteristics,
		sectionTableOffset: peOffset + 4 + coffHeaderSize + int(optionalHeaderSize),
	}

	switch machine {
	case machineI386:
		is64 := false
		info.Is64Bit = &is64
	case machineAMD64:
		is64 := true
		info.Is64Bit = &is64
	}

	optOffset := peOffset + 4 + coffHeaderSize
	if optionalHeaderSize >= 2 {
		if magic, ok := readU16(buf, optOffset); ok {
			info.OptionalMagic = magic
			if info.Is64Bit != nil {
				magic64 := magic == optionalMagicPE32Plus
				info.BitnessMismatch = magic64 != *info.Is64Bit
			}
		}
	}

	info.readResourceDirectory(buf, optOffset, int(optionalHeaderSize))

	return info, nil
}

// readResourceDirectory extracts Data Directory entry 2 (Resource Table).
// A zero or absent entry simply means the module has no resources.
func (h *HeaderInfo) readResourceDirectory(buf []byte, optOffset, optSize int) {
	var countOffset, dirOffset int
	switch h.OptionalMagic {
	case optionalMagicPE32:
		countOffset, dirOffset = optOffset+92, optOffset+96
	case optionalMagicPE32Plus:
		countOffset, dirOffset = optOffset+108, optOffset+112
	default:
		return
	}

	numDirs, ok := readU32(buf, countOffset)
	if !ok || numDirs <= resourceTableIndex {
		return
	}
	entryOffset := dirOffset + resourceTableIndex*dataDirEntrySize
	if entryOffset+dataDirEntrySize > optOffset+optSize {
		return
	}
	rva, ok1 := readU32(buf, entryOffset)
	size, ok2 := readU32(buf, entryOffset+4)
	if !ok1 || !ok2 || rva == 0 || size == 0 {
		return
	}
	h.ResourceTableRVA = rva
	h.ResourceTableSize = size
	h.HasResourceTable = true
}

func machineName(machine uint16) string {
	switch machine {
	case machineI386:
		return "x86"
	case machineItanium:
		return "Intel Itanium"
	case machineAMD64:
		return "x64 (AMD64)"
	case machineARM64:
		return "ARM64"
	case machineARM:
		return "ARM"
	case machineARMv7:
		return "ARMv7"
	default:
		return fmt.Sprintf("Unknown (0x%x)", machine)
	}
}
