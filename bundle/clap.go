package bundle

import (
	"encoding/json"
	"fmt"
)

// ClapManifest is the clap.json descriptor some CLAP plugins ship next to
// (or inside) the plugin binary.
type ClapManifest struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Version     string `json:"version"`
	Vendor      string `json:"vendor"`
	Description string `json:"description"`
}

// ParseClapManifest decodes a clap.json manifest, with the same lenient
// cleanup pass used for moduleinfo.json.
func ParseClapManifest(data []byte) (*ClapManifest, error) {
	var manifest ClapManifest
	if err := json.Unmarshal(CleanJSON(data), &manifest); err != nil {
		return nil, fmt.Errorf("failed to decode clap.json: %w", err)
	}
	return &manifest, nil
}
