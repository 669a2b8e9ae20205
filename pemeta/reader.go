package pemeta

// Read parses one module image and assembles its metadata record. buf
// must hold the file contents, or at least a prefix covering the headers
// and the resource section; Read never mutates it and holds no state
// across calls.
//
// The only failures are ErrNotPEFile and ErrTruncatedHeader. A valid PE
// without a version resource succeeds with an empty VersionInfo — callers
// distinguish that from a non-PE by the error, not the record.
func Read(buf []byte) (*ModuleMetadata, error) {
	hdr, err := ParseHeader(buf)
	if err != nil {
		return nil, err
	}

	sigs := ScanSignatures(buf)
	md := &ModuleMetadata{
		IsPE:             true,
		Is64Bit:          hdr.Is64Bit,
		MachineType:      hdr.MachineName,
		NumberOfSections: hdr.NumberOfSections,
		VersionInfo:      NewVersionInfo(),
		HasVSTSignature:  sigs.HasVST,
		HasVST3Signature: sigs.HasVST3,
		HasCLAPSignature: sigs.HasCLAP,
	}

	sections := readSectionTable(buf, hdr)
	md.LikelyPacked = likelyPacked(buf, sections)

	entry, ok := findVersionResource(buf, hdr, sections)
	if !ok {
		return md, nil
	}
	offset := rvaToOffset(sections, entry.dataRVA)
	if offset < 0 || offset >= len(buf) {
		return md, nil
	}
	end := offset + int(entry.dataSize)
	if end > len(buf) || end < offset {
		end = len(buf)
	}

	md.VersionInfo, md.FixedFileVersion, md.FixedProductVersion = decodeVersionBlock(buf[offset:end])
	return md, nil
}
