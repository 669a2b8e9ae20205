package pemeta

import (
	"encoding/binary"
	"unicode/utf16"
)

// Synthetic PE fixtures for the parser tests. Layout: DOS stub at 0, NT
// headers at 0x80, one .rsrc section header, section data at file offset
// 0x200 mapped at RVA 0x1000.

const (
	testPEOffset     = 0x80
	testRsrcRVA      = 0x1000
	testRsrcFileOff  = 0x200
	testOptSize32    = 224
	testOptSize64    = 240
	testVersionResID = 1033
)

func putU16(b []byte, off int, v uint16) { binary.LittleEndian.PutUint16(b[off:], v) }
func putU32(b []byte, off int, v uint32) { binary.LittleEndian.PutUint32(b[off:], v) }

func u16b(v uint16) []byte {
	b := make([]byte, 2)
	binary.LittleEndian.PutUint16(b, v)
	return b
}

func pad4(b []byte) []byte {
	for len(b)%4 != 0 {
		b = append(b, 0)
	}
	return b
}

// utf16z encodes s as UTF-16LE with a trailing NUL.
func utf16z(s string) []byte {
	units := append(utf16.Encode([]rune(s)), 0)
	b := make([]byte, 0, len(units)*2)
	for _, u := range units {
		b = append(b, byte(u), byte(u>>8))
	}
	return b
}

// vsNode builds one {wLength, wValueLength, wType, szKey} structure with
// an aligned value and aligned children, wLength patched at the end.
func vsNode(key string, wType uint16, wValueLength int, value []byte, children ...[]byte) []byte {
	b := make([]byte, 0, 64)
	b = append(b, 0, 0) // wLength, patched below
	b = append(b, u16b(uint16(wValueLength))...)
	b = append(b, u16b(wType)...)
	b = append(b, utf16z(key)...)
	b = pad4(b)
	b = append(b, value...)
	for _, child := range children {
		b = pad4(b)
		b = append(b, child...)
	}
	putU16(b, 0, uint16(len(b)))
	return b
}

// vsString builds one String entry: wValueLength counts words incl. NUL.
func vsString(name, value string) []byte {
	v := utf16z(value)
	return vsNode(name, 1, len(v)/2, v)
}

func fixedFileInfo(fileMS, fileLS, productMS, productLS uint32) []byte {
	b := make([]byte, fixedFileInfoSize)
	putU32(b, 0, fixedFileInfoSignature)
	putU32(b, 4, 0x00010000) // dwStrucVersion
	putU32(b, 8, fileMS)
	putU32(b, 12, fileLS)
	putU32(b, 16, productMS)
	putU32(b, 20, productLS)
	return b
}

// buildVersionBlock assembles VS_VERSION_INFO -> StringFileInfo ->
// "040904B0" -> the given key/value pairs, with a fixed-info value.
func buildVersionBlock(pairs [][2]string) []byte {
	entries := make([][]byte, 0, len(pairs))
	for _, kv := range pairs {
		entries = append(entries, vsString(kv[0], kv[1]))
	}
	table := vsNode("040904B0", 1, 0, nil, entries...)
	sfi := vsNode("StringFileInfo", 1, 0, nil, table)
	fixed := fixedFileInfo(0x00030002, 0x00010000, 0x00030002, 0x00010000)
	return vsNode("VS_VERSION_INFO", 0, len(fixed), fixed, sfi)
}

// buildVersionResource wraps a version block in a three-level resource
// directory: RT_VERSION -> ID 1 -> language 1033 -> data entry.
func buildVersionResource(block []byte) []byte {
	const (
		l2Off   = 24
		l3Off   = 48
		dataOff = 72
		blkOff  = 88
	)
	res := make([]byte, blkOff+len(block))

	putU16(res, 14, 1) // level 1: one ID entry
	putU32(res, 16, rtVersion)
	putU32(res, 20, resourceSubdirFlag|l2Off)

	putU16(res, l2Off+14, 1)
	putU32(res, l2Off+16, 1)
	putU32(res, l2Off+20, resourceSubdirFlag|l3Off)

	putU16(res, l3Off+14, 1)
	putU32(res, l3Off+16, testVersionResID)
	putU32(res, l3Off+20, dataOff) // data entry, high bit clear

	putU32(res, dataOff, testRsrcRVA+blkOff)
	putU32(res, dataOff+4, uint32(len(block)))

	copy(res[blkOff:], block)
	return res
}

// buildPE assembles a minimal one-section image. rsrc becomes the .rsrc
// section content (and the resource data directory target); it may be nil
// for a resource-less module. trailer is appended raw after the section,
// outside any mapped range, for signature-scan material.
func buildPE(machine uint16, pe32plus bool, rsrc, trailer []byte) []byte {
	optSize := testOptSize32
	magic := uint16(optionalMagicPE32)
	if pe32plus {
		optSize = testOptSize64
		magic = optionalMagicPE32Plus
	}

	buf := make([]byte, testRsrcFileOff+len(rsrc))
	buf[0] = 'M'
	buf[1] = 'Z'
	putU32(buf, peOffsetField, testPEOffset)

	copy(buf[testPEOffset:], "PE\x00\x00")
	putU16(buf, testPEOffset+4, machine)
	putU16(buf, testPEOffset+6, 1) // NumberOfSections
	putU16(buf, testPEOffset+20, uint16(optSize))
	putU16(buf, testPEOffset+22, 0x2022) // DLL | executable

	optOff := testPEOffset + 24
	putU16(buf, optOff, magic)
	dirCountOff, dirOff := optOff+92, optOff+96
	if pe32plus {
		dirCountOff, dirOff = optOff+108, optOff+112
	}
	putU32(buf, dirCountOff, 16)
	if len(rsrc) > 0 {
		putU32(buf, dirOff+resourceTableIndex*8, testRsrcRVA)
		putU32(buf, dirOff+resourceTableIndex*8+4, uint32(len(rsrc)))
	}

	secOff := optOff + optSize
	copy(buf[secOff:], ".rsrc\x00\x00\x00")
	putU32(buf, secOff+8, uint32(len(rsrc)))  // VirtualSize
	putU32(buf, secOff+12, testRsrcRVA)       // VirtualAddress
	putU32(buf, secOff+16, uint32(len(rsrc))) // SizeOfRawData
	putU32(buf, secOff+20, testRsrcFileOff)   // PointerToRawData
	putU32(buf, secOff+36, 0x40000040)        // initialized data, readable

	copy(buf[testRsrcFileOff:], rsrc)
	return append(buf, trailer...)
}
