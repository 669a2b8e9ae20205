package pemeta

import "testing"

func parseForResource(t *testing.T, buf []byte) (*HeaderInfo, []section) {
	t.Helper()
	hdr, err := ParseHeader(buf)
	if err != nil {
		t.Fatalf("ParseHeader: %v", err)
	}
	return hdr, readSectionTable(buf, hdr)
}

func TestFindVersionResource(t *testing.T) {
	block := buildVersionBlock([][2]string{{"ProductName", "Acme Reverb"}})
	buf := buildPE(machineAMD64, true, buildVersionResource(block), nil)

	hdr, sections := parseForResource(t, buf)
	entry, ok := findVersionResource(buf, hdr, sections)
	if !ok {
		t.Fatal("version resource not found")
	}
	if entry.dataSize != uint32(len(block)) {
		t.Errorf("dataSize = %d, want %d", entry.dataSize, len(block))
	}
	if got := rvaToOffset(sections, entry.dataRVA); got < 0 {
		t.Errorf("data RVA %#x did not resolve", entry.dataRVA)
	}
}

func TestFindVersionResourceAbsent(t *testing.T) {
	// A resource tree whose only type is RT_ICON (3): no version info.
	rsrc := buildVersionResource(buildVersionBlock(nil))
	putU32(rsrc, 16, 3)
	buf := buildPE(machineAMD64, true, rsrc, nil)

	hdr, sections := parseForResource(t, buf)
	if _, ok := findVersionResource(buf, hdr, sections); ok {
		t.Error("found a version resource in a tree without RT_VERSION")
	}
}

func TestFindVersionResourceUnresolvableRVA(t *testing.T) {
	// Resource table RVA outside every section: None, not an error.
	buf := buildPE(machineAMD64, true, buildVersionResource(buildVersionBlock(nil)), nil)
	optOff := testPEOffset + 24
	putU32(buf, optOff+112+resourceTableIndex*8, 0x00900000)

	hdr, sections := parseForResource(t, buf)
	if _, ok := findVersionResource(buf, hdr, sections); ok {
		t.Error("resolved a resource table RVA outside all sections")
	}
}

func TestFindVersionResourceRejectsExcessDepth(t *testing.T) {
	// Level-3 entry claims yet another subdirectory; the walker must stop
	// at the format's fixed depth instead of chasing it.
	rsrc := buildVersionResource(buildVersionBlock(nil))
	putU32(rsrc, 48+20, resourceSubdirFlag|0) // language entry loops back to the root
	buf := buildPE(machineAMD64, true, rsrc, nil)

	hdr, sections := parseForResource(t, buf)
	if _, ok := findVersionResource(buf, hdr, sections); ok {
		t.Error("walker descended past three directory levels")
	}
}

func TestFindVersionResourceTruncatedDirectory(t *testing.T) {
	rsrc := buildVersionResource(buildVersionBlock(nil))
	buf := buildPE(machineAMD64, true, rsrc[:20], nil)

	hdr, sections := parseForResource(t, buf)
	if _, ok := findVersionResource(buf, hdr, sections); ok {
		t.Error("found an entry inside a truncated directory")
	}
}

func TestRVAToOffset(t *testing.T) {
	sections := []section{
		{virtualAddress: 0x1000, sizeOfRawData: 0x200, pointerToRawData: 0x400},
		{virtualAddress: 0x2000, sizeOfRawData: 0x100, pointerToRawData: 0x600},
	}
	tests := []struct {
		rva  uint32
		want int
	}{
		{0x1000, 0x400},
		{0x11ff, 0x5ff},
		{0x1200, -1}, // one past the first run
		{0x2080, 0x680},
		{0x0fff, -1},
		{0x3000, -1},
	}
	for _, tt := range tests {
		if got := rvaToOffset(sections, tt.rva); got != tt.want {
			t.Errorf("rvaToOffset(%#x) = %d, want %d", tt.rva, got, tt.want)
		}
	}
}
