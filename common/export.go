package common

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
)

// ExportJSON writes the scan results as an indented JSON array.
func ExportJSON(w io.Writer, plugins []PluginMetadata) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(plugins); err != nil {
		return fmt.Errorf("failed to encode plugin metadata: %w", err)
	}
	return nil
}

var csvHeader = []string{
	"name", "format", "path", "version", "manufacturer",
	"plugin_type", "category", "architecture", "machine_type", "bundle_id",
}

// ExportCSV writes the scan results as a flat CSV table, one plugin per
// row. Fields without a CSV column stay available via JSON export.
func ExportCSV(w io.Writer, plugins []PluginMetadata) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for i := range plugins {
		p := &plugins[i]
		row := []string{
			p.Name,
			string(p.Format),
			p.Path,
			p.Version,
			p.Manufacturer,
			string(p.PluginType),
			p.Category,
			p.Architecture(),
			p.MachineType,
			p.BundleID,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row for %s: %w", p.Path, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
