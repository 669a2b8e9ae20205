package bundle

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// ModuleInfo holds the fields of interest from a VST3 moduleinfo.json.
type ModuleInfo struct {
	Name          string
	Version       string
	Vendor        string
	Category      string
	SubCategories []string
	Description   string
}

// ParseModuleInfo decodes a VST3 moduleinfo.json. These files routinely
// ship with trailing commas, C-style comments, UTF-8 BOMs, stray NUL
// bytes and raw control characters, so the content is cleaned before the
// strict JSON decode.
func ParseModuleInfo(data []byte) (*ModuleInfo, error) {
	var raw map[string]interface{}
	if err := json.Unmarshal(CleanJSON(data), &raw); err != nil {
		return nil, fmt.Errorf("failed to decode moduleinfo.json: %w", err)
	}

	mi := &ModuleInfo{
		Name:    stringField(raw, "Name"),
		Version: stringField(raw, "Version"),
	}

	// Vendor lives under "Factory Info" in SDK-generated files, flat in
	// older hand-written ones.
	if factory, ok := raw["Factory Info"].(map[string]interface{}); ok {
		mi.Vendor = stringField(factory, "Vendor")
	}
	if mi.Vendor == "" {
		mi.Vendor = stringField(raw, "Vendor")
	}

	if classes, ok := raw["Classes"].([]interface{}); ok && len(classes) > 0 {
		if class, ok := classes[0].(map[string]interface{}); ok {
			mi.Category = stringField(class, "Category")
			if mi.Name == "" {
				mi.Name = stringField(class, "Name")
			}
			if subs, ok := class["Sub Categories"].([]interface{}); ok {
				for _, s := range subs {
					if str, ok := s.(string); ok {
						mi.SubCategories = append(mi.SubCategories, str)
					}
				}
			}
		}
	}
	mi.Description = stringField(raw, "Description")

	return mi, nil
}

// IsInstrument reports whether the class categories mark a synth rather
// than an effect.
func (m *ModuleInfo) IsInstrument() bool {
	if strings.Contains(m.Category, "Instrument") || strings.Contains(m.Category, "Synth") {
		return true
	}
	for _, s := range m.SubCategories {
		if strings.Contains(s, "Instrument") || strings.Contains(s, "Synth") {
			return true
		}
	}
	return false
}

var utf8BOM = []byte{0xef, 0xbb, 0xbf}

// CleanJSON makes almost-JSON parseable: strips the BOM, NULs and CRs,
// removes // and /* */ comments outside strings (string tracking protects
// URLs), drops trailing commas, and escapes raw control characters inside
// strings.
func CleanJSON(data []byte) []byte {
	s := bytes.TrimPrefix(data, utf8BOM)

	out := make([]byte, 0, len(s))
	inString := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == 0 || c == '\r' {
			continue
		}

		if inString {
			switch {
			case c == '\\' && i+1 < len(s):
				out = append(out, c, s[i+1])
				i++
			case c == '"':
				inString = false
				out = append(out, c)
			case c == '\n':
				out = append(out, '\\', 'n')
			case c == '\t':
				out = append(out, '\\', 't')
			case c < 0x20:
				// other raw control characters are dropped
			default:
				out = append(out, c)
			}
			continue
		}

		switch {
		case c == '"':
			inString = true
			out = append(out, c)
		case c == '/' && i+1 < len(s) && s[i+1] == '/':
			for i < len(s) && s[i] != '\n' {
				i++
			}
			if i < len(s) {
				out = append(out, '\n')
			}
		case c == '/' && i+1 < len(s) && s[i+1] == '*':
			i += 2
			for i+1 < len(s) && !(s[i] == '*' && s[i+1] == '/') {
				i++
			}
			i++
		case c == ',' && nextNonSpaceCloses(s, i+1):
			// trailing comma before } or ]
		default:
			out = append(out, c)
		}
	}
	return out
}

func nextNonSpaceCloses(s []byte, from int) bool {
	for i := from; i < len(s); i++ {
		switch s[i] {
		case ' ', '\t', '\n', '\r', 0:
			continue
		case '}', ']':
			return true
		default:
			return false
		}
	}
	return false
}
