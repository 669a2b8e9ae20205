// Package pemeta reads identifying metadata from Windows PE modules
// (VST/VST3/CLAP plugin DLLs) without loading or executing them.
//
// The parser is a pure function over an in-memory byte buffer: no I/O, no
// shared state, safe to call concurrently over different buffers. Decoding
// is best-effort below the two fatal conditions (ErrNotPEFile,
// ErrTruncatedHeader): a bad RVA, a truncated resource or a malformed
// VERSIONINFO string degrades only that field and the rest of the record
// is still returned.
//
// Signature detection is a raw byte scan for known export markers, not an
// export-table lookup. Packed or obfuscated binaries can hide both their
// entry points and their version resource; LikelyPacked flags modules
// where absent metadata should be treated as low-confidence.
package pemeta

import "errors"

// Fatal parse failures. Everything below these degrades individual fields
// instead of aborting the parse.
var (
	ErrNotPEFile       = errors.New("not a PE file")
	ErrTruncatedHeader = errors.New("truncated PE header")
)

// Machine field values of interest (IMAGE_FILE_MACHINE_*).
const (
	machineI386    = 0x014c
	machineItanium = 0x0200
	machineAMD64   = 0x8664
	machineARM     = 0x01c0
	machineARMv7   = 0x01c4
	machineARM64   = 0xaa64
)

// Optional header magic values.
const (
	optionalMagicPE32     = 0x10b
	optionalMagicPE32Plus = 0x20b
)

// HeaderInfo is what the header walk recovers. Derived purely from header
// bytes, never mutated afterwards.
type HeaderInfo struct {
	Machine          uint16
	MachineName      string
	Is64Bit          *bool // nil when the machine code is not x86/x64
	NumberOfSections uint16
	Characteristics  uint16
	OptionalMagic    uint16
	// BitnessMismatch records a disagreement between the Machine field
	// and the optional header magic. Recorded, not fatal.
	BitnessMismatch bool

	ResourceTableRVA  uint32
	ResourceTableSize uint32
	HasResourceTable  bool

	sectionTableOffset int
}

// section holds the three section-header fields needed to translate an
// RVA into a file offset.
type section struct {
	virtualAddress   uint32
	sizeOfRawData    uint32
	pointerToRawData uint32
}

// resourceEntry is the leaf of the resource-directory walk: the raw data
// location of a version resource. Transient, not part of the result.
type resourceEntry struct {
	dataRVA  uint32
	dataSize uint32
}

// Signatures reports which known plugin entry-point markers appear in the
// raw module bytes.
type Signatures struct {
	HasVST  bool
	HasVST3 bool
	HasCLAP bool
}

// ModuleMetadata is the final output of Read. Created once at the end of
// a successful parse and never mutated.
type ModuleMetadata struct {
	IsPE             bool
	Is64Bit          *bool
	MachineType      string
	NumberOfSections uint16

	// VersionInfo holds the StringFileInfo key/value pairs in the order
	// they appear in the binary. Empty when the module carries no version
	// resource.
	VersionInfo *VersionInfo

	// Dotted-quad versions from VS_FIXEDFILEINFO, when present. Some DLLs
	// carry only these and no string table.
	FixedFileVersion    string
	FixedProductVersion string

	HasVSTSignature  bool
	HasVST3Signature bool
	HasCLAPSignature bool

	LikelyPacked bool
}
