package pemeta

import (
	"encoding/binary"
	"fmt"
	"strings"
	"unicode/utf16"
)

// VS_FIXEDFILEINFO signature and size.
const (
	fixedFileInfoSignature = 0xfeef04bd
	fixedFileInfoSize      = 52
)

// versionNode is one {wLength, wValueLength, wType, szKey} structure of a
// VS_VERSIONINFO block. declaredEnd may exceed end for truncated blocks;
// end is always clamped to the available bytes.
type versionNode struct {
	start       int
	end         int
	declaredEnd int
	valueOffset int
	valueLength int
	wType       uint16
	key         string
}

// decodeVersionBlock decodes a VS_VERSIONINFO block into its string table
// plus the fixed-info versions. It never hard-fails: any length that
// would run past the block truncates decoding at that point and whatever
// was recovered is returned.
func decodeVersionBlock(block []byte) (*VersionInfo, string, string) {
	info := NewVersionInfo()

	root, ok := parseVersionNode(block, 0, len(block))
	if !ok || !strings.EqualFold(root.key, "VS_VERSION_INFO") {
		return info, "", ""
	}

	fileVersion, productVersion := decodeFixedFileInfo(block, root)

	for _, child := range childNodes(block, root) {
		if !strings.EqualFold(child.key, "StringFileInfo") {
			continue
		}
		// One child per language/codepage pair, keyed by 8 hex digits.
		for _, table := range childNodes(block, child) {
			for _, entry := range childNodes(block, table) {
				if entry.key == "" {
					continue
				}
				// Duplicate keys: last write wins.
				info.Set(entry.key, stringValue(block, entry))
			}
		}
	}

	return info, fileVersion, productVersion
}

// parseVersionNode reads one node header at offset, bounded by limit.
func parseVersionNode(block []byte, offset, limit int) (versionNode, bool) {
	if offset < 0 || offset+6 > limit {
		return versionNode{}, false
	}
	wLength := int(binary.LittleEndian.Uint16(block[offset:]))
	wValueLength := int(binary.LittleEndian.Uint16(block[offset+2:]))
	wType := binary.LittleEndian.Uint16(block[offset+4:])
	if wLength < 6 {
		return versionNode{}, false
	}

	node := versionNode{
		start:       offset,
		end:         offset + wLength,
		declaredEnd: offset + wLength,
		valueLength: wValueLength,
		wType:       wType,
	}
	if node.end > limit {
		node.end = limit
	}

	key, keyEnd, ok := readUTF16Z(block, offset+6, node.end)
	if !ok {
		return versionNode{}, false
	}
	node.key = key
	node.valueOffset = align4(keyEnd)
	return node, true
}

// childNodes iterates the 32-bit-aligned child structures following a
// node's value. A zero-length or non-advancing child terminates the walk.
func childNodes(block []byte, parent versionNode) []versionNode {
	var children []versionNode

	offset := parent.valueOffset + valueBytes(parent)
	offset = align4(offset)
	for offset+6 <= parent.end {
		child, ok := parseVersionNode(block, offset, parent.end)
		if !ok {
			break
		}
		// A child whose declared extent runs past the available bytes is
		// cut off: keep what was fully read and stop here.
		if child.declaredEnd > parent.end {
			break
		}
		children = append(children, child)
		next := align4(child.declaredEnd)
		if next <= offset {
			break
		}
		offset = next
	}
	return children
}

// valueBytes is the byte size of a node's value: wValueLength counts
// 16-bit words for textual values and bytes for binary ones.
func valueBytes(n versionNode) int {
	if n.wType == 1 {
		return n.valueLength * 2
	}
	return n.valueLength
}

// stringValue decodes a String node's UTF-16LE value, clamped to the node
// and stripped of its trailing NUL terminator.
func stringValue(block []byte, n versionNode) string {
	size := valueBytes(n)
	if size <= 0 {
		return ""
	}
	start := n.valueOffset
	end := start + size
	if end > n.end {
		end = n.end
	}
	if start >= end {
		return ""
	}
	return decodeUTF16(block[start:end])
}

// decodeFixedFileInfo extracts the binary file/product versions from the
// VS_FIXEDFILEINFO value, when the root carries one.
func decodeFixedFileInfo(block []byte, root versionNode) (string, string) {
	if root.valueLength < fixedFileInfoSize {
		return "", ""
	}
	offset := root.valueOffset
	signature, ok := readU32(block, offset)
	if !ok || signature != fixedFileInfoSignature || offset+fixedFileInfoSize > root.end {
		return "", ""
	}
	fileMS, _ := readU32(block, offset+8)
	fileLS, _ := readU32(block, offset+12)
	productMS, _ := readU32(block, offset+16)
	productLS, _ := readU32(block, offset+20)
	return dottedQuad(fileMS, fileLS), dottedQuad(productMS, productLS)
}

func dottedQuad(ms, ls uint32) string {
	return fmt.Sprintf("%d.%d.%d.%d", ms>>16, ms&0xffff, ls>>16, ls&0xffff)
}

// readUTF16Z reads a NUL-terminated UTF-16LE string starting at offset,
// returning the string and the offset just past the terminator.
func readUTF16Z(block []byte, offset, limit int) (string, int, bool) {
	var units []uint16
	for offset+2 <= limit {
		unit := binary.LittleEndian.Uint16(block[offset:])
		offset += 2
		if unit == 0 {
			return string(utf16.Decode(units)), offset, true
		}
		units = append(units, unit)
	}
	return "", offset, false
}

// decodeUTF16 converts UTF-16LE bytes to a string, dropping any trailing
// NUL units.
func decodeUTF16(b []byte) string {
	units := make([]uint16, 0, len(b)/2)
	for i := 0; i+1 < len(b); i += 2 {
		units = append(units, binary.LittleEndian.Uint16(b[i:]))
	}
	for len(units) > 0 && units[len(units)-1] == 0 {
		units = units[:len(units)-1]
	}
	return string(utf16.Decode(units))
}

func align4(offset int) int {
	return (offset + 3) &^ 3
}
