package pemeta

const (
	resourceDirHeaderSize = 16
	resourceDirEntrySize  = 8
	resourceSubdirFlag    = 0x80000000

	rtVersion = 16 // RT_VERSION
)

// findVersionResource walks the resource tree to the data entry of the
// first RT_VERSION resource: Type -> first Name/ID -> first Language.
//
// The walk is a bounded loop rather than recursion: the format defines
// exactly three directory levels, and a tree claiming more is malformed.
// Absence of a version resource, an unresolvable RVA or a truncated
// directory all return false — callers fall back to the signature scan.
func findVersionResource(buf []byte, hdr *HeaderInfo, sections []section) (resourceEntry, bool) {
	if !hdr.HasResourceTable {
		return resourceEntry{}, false
	}
	base := rvaToOffset(sections, hdr.ResourceTableRVA)
	if base < 0 {
		return resourceEntry{}, false
	}

	dirOffset := base
	for level := 0; level < 3; level++ {
		numNamed, ok1 := readU16(buf, dirOffset+12)
		numID, ok2 := readU16(buf, dirOffset+14)
		if !ok1 || !ok2 {
			return resourceEntry{}, false
		}

		next, found := pickEntry(buf, dirOffset, int(numNamed)+int(numID), level)
		if !found {
			return resourceEntry{}, false
		}

		if next&resourceSubdirFlag != 0 {
			dirOffset = base + int(next&^uint32(resourceSubdirFlag))
			if dirOffset+resourceDirHeaderSize > len(buf) {
				return resourceEntry{}, false
			}
			continue
		}

		dataOffset := base + int(next)
		dataRVA, ok1 := readU32(buf, dataOffset)
		dataSize, ok2 := readU32(buf, dataOffset+4)
		if !ok1 || !ok2 {
			return resourceEntry{}, false
		}
		return resourceEntry{dataRVA: dataRVA, dataSize: dataSize}, true
	}

	// Three directory levels consumed without reaching a data entry.
	return resourceEntry{}, false
}

// pickEntry selects the directory entry to descend into. At the type
// level that is the ID entry equal to RT_VERSION (named entries carry the
// name-offset flag and cannot match); below it, the first entry.
func pickEntry(buf []byte, dirOffset, total, level int) (uint32, bool) {
	for i := 0; i < total; i++ {
		entryOffset := dirOffset + resourceDirHeaderSize + i*resourceDirEntrySize
		id, ok1 := readU32(buf, entryOffset)
		value, ok2 := readU32(buf, entryOffset+4)
		if !ok1 || !ok2 {
			return 0, false
		}
		if level == 0 && (id&resourceSubdirFlag != 0 || id != rtVersion) {
			continue
		}
		return value, true
	}
	return 0, false
}
