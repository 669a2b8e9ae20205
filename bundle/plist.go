// Package bundle decodes the sidecar metadata audio-plugin packages carry
// around their binaries: macOS Info.plist files, VST3 moduleinfo.json
// manifests and CLAP clap.json manifests. It does no directory walking;
// callers hand it file contents.
package bundle

import (
	"fmt"
	"strings"

	"howett.net/plist"

	"plugscan/common"
)

// AudioComponent is one entry of an Audio Unit bundle's AudioComponents
// array.
type AudioComponent struct {
	Name         string
	Manufacturer string
	Description  string
	Type         string
}

// Info holds the fields of interest from a plugin bundle's Info.plist.
type Info struct {
	BundleID           string
	Version            string
	ShortVersion       string
	InfoString         string
	AudioComponents    []AudioComponent
	SupportedPlatforms []string
}

// ParseInfoPlist decodes an Info.plist (XML or binary) into Info.
func ParseInfoPlist(data []byte) (*Info, error) {
	var raw map[string]interface{}
	if _, err := plist.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode Info.plist: %w", err)
	}

	info := &Info{
		BundleID:     stringField(raw, "CFBundleIdentifier"),
		Version:      stringField(raw, "CFBundleVersion"),
		ShortVersion: stringField(raw, "CFBundleShortVersionString"),
		InfoString:   stringField(raw, "CFBundleGetInfoString"),
	}

	if platforms, ok := raw["CFBundleSupportedPlatforms"].([]interface{}); ok {
		for _, p := range platforms {
			if s, ok := p.(string); ok {
				info.SupportedPlatforms = append(info.SupportedPlatforms, s)
			}
		}
	}

	if components, ok := raw["AudioComponents"].([]interface{}); ok {
		for _, c := range components {
			entry, ok := c.(map[string]interface{})
			if !ok {
				continue
			}
			info.AudioComponents = append(info.AudioComponents, AudioComponent{
				Name:         stringField(entry, "name"),
				Manufacturer: stringField(entry, "manufacturer"),
				Description:  stringField(entry, "description"),
				Type:         stringField(entry, "type"),
			})
		}
	}

	return info, nil
}

// Manufacturer derives the vendor from CFBundleGetInfoString, whose
// convention is "Vendor, additional text".
func (i *Info) Manufacturer() string {
	if i.InfoString == "" {
		return ""
	}
	return strings.TrimSpace(strings.SplitN(i.InfoString, ",", 2)[0])
}

// BestVersion prefers the marketing version over the build version.
func (i *Info) BestVersion() string {
	if i.ShortVersion != "" {
		return i.ShortVersion
	}
	return i.Version
}

// PluginType maps an Audio Unit four-char type code to a plugin type.
func (c AudioComponent) PluginType() common.PluginType {
	switch c.Type {
	case "aumu", "aumf": // music device, MIDI-controlled effect
		return common.TypeInstrument
	case "aumi": // MIDI processor
		return common.TypeMIDIEffect
	case "aufx", "aumx":
		return common.TypeEffect
	default:
		return common.TypeUnknown
	}
}

func stringField(m map[string]interface{}, key string) string {
	if s, ok := m[key].(string); ok {
		return s
	}
	return ""
}
