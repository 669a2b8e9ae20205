package pemeta

import "bytes"

// Export-name markers searched for as raw, case-sensitive byte substrings.
// This is a heuristic, not an export-table lookup: stripped or packed
// binaries can produce false negatives, while the marker strings are
// specific enough that false positives are practically impossible.
var (
	vstMarker  = []byte("VSTPluginMain")    // VST2 entry point
	vst3Marker = []byte("GetPluginFactory") // VST3 factory export
	clapMarker = []byte("clap_entry")       // CLAP entry symbol

	// The 'VstP' chunk magic (0x56737450) as stored in a little-endian
	// image. Stripped VST2 builds can lose the entry-point name while
	// the magic constant survives in the data section.
	vstMagic = []byte{0x50, 0x74, 0x73, 0x56}
)

// ScanSignatures scans the whole buffer for known plugin entry-point
// markers. It never fails; worst case every flag is false.
func ScanSignatures(buf []byte) Signatures {
	return Signatures{
		HasVST:  bytes.Contains(buf, vstMarker) || bytes.Contains(buf, vstMagic),
		HasVST3: bytes.Contains(buf, vst3Marker),
		HasCLAP: bytes.Contains(buf, clapMarker),
	}
}
