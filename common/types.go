package common

// PluginFormat identifies the plugin packaging standard.
type PluginFormat string

const (
	FormatVST     PluginFormat = "VST"
	FormatVST3    PluginFormat = "VST3"
	FormatAU      PluginFormat = "AU"
	FormatCLAP    PluginFormat = "CLAP"
	FormatUnknown PluginFormat = "UNKNOWN"
)

// PluginType is the coarse plugin category.
type PluginType string

const (
	TypeEffect     PluginType = "Effect"
	TypeInstrument PluginType = "Instrument"
	TypeMIDIEffect PluginType = "MIDI Effect"
	TypeUnknown    PluginType = "Unknown"
)

// PluginMetadata is the format-agnostic record one scanned plugin merges
// into, regardless of which readers contributed fields.
type PluginMetadata struct {
	Name         string       `json:"name"`
	Format       PluginFormat `json:"format"`
	Path         string       `json:"path"`
	Version      string       `json:"version,omitempty"`
	Manufacturer string       `json:"manufacturer,omitempty"`
	UniqueID     string       `json:"unique_id,omitempty"`
	PluginType   PluginType   `json:"plugin_type,omitempty"`
	Category     string       `json:"category,omitempty"`
	Description  string       `json:"description,omitempty"`

	Is64Bit     *bool  `json:"is_64bit,omitempty"`
	MachineType string `json:"machine_type,omitempty"`

	BundleID               string   `json:"bundle_id,omitempty"`
	SupportedArchitectures []string `json:"supported_architectures,omitempty"`

	HasVSTSignature  bool `json:"has_vst_signature,omitempty"`
	HasVST3Signature bool `json:"has_vst3_signature,omitempty"`
	HasCLAPSignature bool `json:"has_clap_signature,omitempty"`
	LikelyPacked     bool `json:"likely_packed,omitempty"`

	// AdditionalInfo keeps every VERSIONINFO/manifest field that was
	// recovered, not only the ones promoted to named fields above.
	AdditionalInfo map[string]string `json:"additional_info,omitempty"`
}

// Architecture returns a short human label for the binary's bitness.
func (p *PluginMetadata) Architecture() string {
	if p.Is64Bit == nil {
		return ""
	}
	if *p.Is64Bit {
		return "x64"
	}
	return "x86"
}
