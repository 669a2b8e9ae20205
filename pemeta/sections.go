package pemeta

const sectionHeaderSize = 40

// readSectionTable collects the RVA-translation fields of each section
// header. Headers that extend beyond the buffer are skipped rather than
// failing the parse; all-zero rows (stripped padding) are ignored.
func readSectionTable(buf []byte, hdr *HeaderInfo) []section {
	sections := make([]section, 0, hdr.NumberOfSections)
	for i := 0; i < int(hdr.NumberOfSections); i++ {
		offset := hdr.sectionTableOffset + i*sectionHeaderSize
		if offset < 0 || offset+sectionHeaderSize > len(buf) {
			break
		}
		virtualAddress, _ := readU32(buf, offset+12)
		sizeOfRawData, _ := readU32(buf, offset+16)
		pointerToRawData, _ := readU32(buf, offset+20)
		if virtualAddress == 0 && sizeOfRawData == 0 && pointerToRawData == 0 {
			continue
		}
		sections = append(sections, section{
			virtualAddress:   virtualAddress,
			sizeOfRawData:    sizeOfRawData,
			pointerToRawData: pointerToRawData,
		})
	}
	return sections
}

// rvaToOffset maps a relative virtual address to a file offset through
// the section runs. Returns -1 when no section contains the RVA.
func rvaToOffset(sections []section, rva uint32) int {
	for _, s := range sections {
		if s.sizeOfRawData == 0 {
			continue
		}
		end := uint64(s.virtualAddress) + uint64(s.sizeOfRawData)
		if uint64(rva) >= uint64(s.virtualAddress) && uint64(rva) < end {
			return int(uint64(s.pointerToRawData) + uint64(rva-s.virtualAddress))
		}
	}
	return -1
}
