// Package elfmeta reads identifying metadata from ELF shared objects,
// the container Linux VST2 and CLAP plugins ship as. Like pemeta it never
// loads or executes the module; unlike PE, ELF binaries carry no version
// resource, so identification rests on class/machine facts plus the raw
// signature scan done by the caller.
package elfmeta

import (
	"errors"
	"fmt"

	"github.com/yalue/elf_reader"
)

var ErrNotELFFile = errors.New("not an ELF file")

const (
	elfClassOffset   = 4
	elfMachineOffset = 18

	fileTypeShared = 3 // ET_DYN
)

// ModuleMetadata is the ELF counterpart of pemeta.ModuleMetadata.
type ModuleMetadata struct {
	Is64Bit        bool
	MachineType    string
	IsSharedObject bool
	SectionCount   uint16
}

// Read parses the ELF header of buf. Fatal only when the buffer is not an
// ELF image or the library rejects its structure.
func Read(buf []byte) (*ModuleMetadata, error) {
	if len(buf) < elfMachineOffset+2 || buf[0] != 0x7f || buf[1] != 'E' || buf[2] != 'L' || buf[3] != 'F' {
		return nil, ErrNotELFFile
	}

	elfFile, err := elf_reader.ParseELFFile(buf)
	if err != nil {
		return nil, fmt.Errorf("failed to parse ELF file: %w", err)
	}

	machine := uint16(buf[elfMachineOffset]) | uint16(buf[elfMachineOffset+1])<<8
	return &ModuleMetadata{
		Is64Bit:        buf[elfClassOffset] == 2,
		MachineType:    machineName(machine),
		IsSharedObject: elfFile.GetFileType() == elf_reader.ELFFileType(fileTypeShared),
		SectionCount:   elfFile.GetSectionCount(),
	}, nil
}

func machineName(machine uint16) string {
	switch machine {
	case 3:
		return "x86"
	case 40:
		return "ARM"
	case 62:
		return "x64 (AMD64)"
	case 183:
		return "ARM64"
	default:
		return fmt.Sprintf("Unknown (0x%x)", machine)
	}
}
