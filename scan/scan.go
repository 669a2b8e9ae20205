// Package scan locates installed audio plugins on disk and merges the
// per-format readers (pemeta, elfmeta, bundle) into format-agnostic
// metadata records.
package scan

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"plugscan/bundle"
	"plugscan/common"
	"plugscan/elfmeta"
	"plugscan/pemeta"
)

// Scanner reads plugin metadata from files and bundles. It holds no
// per-plugin state; one Scanner may be shared across goroutines.
type Scanner struct {
	log *zap.Logger

	// MaxModuleBytes caps how much of a module file is loaded for
	// parsing. Headers and resources live near the front, so a bounded
	// prefix is enough even for huge sample-laden binaries.
	MaxModuleBytes int64
}

func NewScanner(log *zap.Logger) *Scanner {
	if log == nil {
		log = zap.NewNop()
	}
	return &Scanner{log: log, MaxModuleBytes: DefaultMaxModuleBytes}
}

// DetectFormat classifies a plugin path by extension. A bare .dll could
// be VST2 or CLAP; the stem decides, defaulting to VST2 as the far more
// common case.
func DetectFormat(path string) common.PluginFormat {
	stem := strings.ToLower(strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)))
	switch strings.ToLower(filepath.Ext(path)) {
	case ".vst3":
		return common.FormatVST3
	case ".vst":
		return common.FormatVST
	case ".component":
		return common.FormatAU
	case ".clap":
		return common.FormatCLAP
	case ".dll", ".so":
		if strings.Contains(stem, "clap") {
			return common.FormatCLAP
		}
		return common.FormatVST
	default:
		return common.FormatUnknown
	}
}

// ReadPlugin reads metadata for one plugin file or bundle directory.
func (s *Scanner) ReadPlugin(path string) (*common.PluginMetadata, error) {
	format := DetectFormat(path)
	if format == common.FormatUnknown {
		return nil, fmt.Errorf("unknown plugin format: %s", path)
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("cannot access plugin: %w", err)
	}

	md := &common.PluginMetadata{
		Name:   strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
		Format: format,
		Path:   path,
	}

	if info.IsDir() {
		s.readBundle(path, md)
	} else {
		s.readModuleFile(path, md)
		s.readSidecarManifest(path, md)
	}

	return md, nil
}

// readBundle merges everything a bundle directory carries: Info.plist,
// moduleinfo.json, clap.json, and the metadata of the contained binary
// when one is found.
func (s *Scanner) readBundle(path string, md *common.PluginMetadata) {
	if data, err := os.ReadFile(filepath.Join(path, "Contents", "Info.plist")); err == nil {
		s.mergeInfoPlist(data, md)
	}

	for _, rel := range []string{
		filepath.Join("Contents", "Resources", "moduleinfo.json"),
		filepath.Join("Contents", "moduleinfo.json"),
		filepath.Join("Contents", "x86_64-win", "moduleinfo.json"),
	} {
		data, err := os.ReadFile(filepath.Join(path, rel))
		if err != nil {
			continue
		}
		s.mergeModuleInfo(data, md)
		break
	}

	if md.Format == common.FormatCLAP {
		if data, err := os.ReadFile(filepath.Join(path, "Contents", "Resources", "clap.json")); err == nil {
			s.mergeClapManifest(data, md)
		}
	}

	// The inner module is named after the bundle directory, not after
	// whatever display name the manifests carried.
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	if binary := findBundleBinary(path, stem); binary != "" {
		s.readModuleFile(binary, md)
	}
}

// findBundleBinary locates the plugin module inside a bundle, checking
// the conventional per-platform layouts.
func findBundleBinary(path, name string) string {
	candidates := []string{
		filepath.Join(path, "Contents", "x86_64-win", name+".vst3"),
		filepath.Join(path, "Contents", "x86-win", name+".vst3"),
		filepath.Join(path, "Contents", "x86_64-linux", name+".so"),
		filepath.Join(path, "Contents", "MacOS", name),
	}
	for _, c := range candidates {
		if info, err := os.Stat(c); err == nil && info.Mode().IsRegular() {
			return c
		}
	}
	return ""
}

// readModuleFile parses the binary itself: PE for Windows builds, ELF for
// Linux builds. Anything else (Mach-O inside mac bundles) is left to the
// bundle's property list. Parser failures degrade the record instead of
// failing the plugin: extension-based identification already happened.
func (s *Scanner) readModuleFile(path string, md *common.PluginMetadata) {
	buf, release, err := loadModule(path, s.MaxModuleBytes)
	if err != nil {
		s.log.Warn("failed to load module", zap.String("path", path), zap.Error(err))
		return
	}
	defer release()

	switch {
	case len(buf) >= 2 && buf[0] == 'M' && buf[1] == 'Z':
		module, err := pemeta.Read(buf)
		if err != nil {
			s.log.Warn("PE parse failed", zap.String("path", path), zap.Error(err))
			return
		}
		s.mergePEModule(module, md)
	case len(buf) >= 4 && bytes.HasPrefix(buf, []byte("\x7fELF")):
		module, err := elfmeta.Read(buf)
		if err != nil {
			s.log.Warn("ELF parse failed", zap.String("path", path), zap.Error(err))
			return
		}
		is64 := module.Is64Bit
		md.Is64Bit = &is64
		md.MachineType = module.MachineType
		s.mergeSignatures(pemeta.ScanSignatures(buf), md)
	default:
		s.log.Debug("unrecognized module container", zap.String("path", path))
		return
	}

	s.mergeVSTCategory(buf, md)
}

func (s *Scanner) mergePEModule(module *pemeta.ModuleMetadata, md *common.PluginMetadata) {
	md.Is64Bit = module.Is64Bit
	md.MachineType = module.MachineType
	md.LikelyPacked = module.LikelyPacked
	s.mergeSignatures(pemeta.Signatures{
		HasVST:  module.HasVSTSignature,
		HasVST3: module.HasVST3Signature,
		HasCLAP: module.HasCLAPSignature,
	}, md)

	if name := module.VersionInfo.Lookup("ProductName"); name != "" {
		md.Name = name
	}
	if version := module.VersionInfo.Lookup("FileVersion"); version != "" {
		md.Version = version
	} else if version := module.VersionInfo.Lookup("ProductVersion"); version != "" {
		md.Version = version
	} else if module.FixedFileVersion != "" {
		md.Version = module.FixedFileVersion
	}
	if vendor := module.VersionInfo.Lookup("CompanyName"); vendor != "" {
		md.Manufacturer = vendor
	}
	if desc := module.VersionInfo.Lookup("FileDescription"); desc != "" && md.Description == "" {
		md.Description = desc
	}

	if module.VersionInfo.Len() > 0 {
		if md.AdditionalInfo == nil {
			md.AdditionalInfo = make(map[string]string, module.VersionInfo.Len())
		}
		for _, key := range module.VersionInfo.Keys() {
			md.AdditionalInfo[key] = module.VersionInfo.Lookup(key)
		}
	}
}

func (s *Scanner) mergeSignatures(sigs pemeta.Signatures, md *common.PluginMetadata) {
	md.HasVSTSignature = sigs.HasVST
	md.HasVST3Signature = sigs.HasVST3
	md.HasCLAPSignature = sigs.HasCLAP

	// A .dll classified as VST2 by filename but exporting only the CLAP
	// entry point is a CLAP plugin.
	if md.Format == common.FormatVST && sigs.HasCLAP && !sigs.HasVST {
		md.Format = common.FormatCLAP
	}
}

func (s *Scanner) mergeInfoPlist(data []byte, md *common.PluginMetadata) {
	info, err := bundle.ParseInfoPlist(data)
	if err != nil {
		s.log.Warn("Info.plist parse failed", zap.String("path", md.Path), zap.Error(err))
		return
	}
	md.BundleID = info.BundleID
	if v := info.BestVersion(); v != "" {
		md.Version = v
	}
	if m := info.Manufacturer(); m != "" {
		md.Manufacturer = m
	}
	md.SupportedArchitectures = info.SupportedPlatforms

	if len(info.AudioComponents) > 0 {
		component := info.AudioComponents[0]
		if component.Name != "" {
			md.Name = component.Name
		}
		if component.Manufacturer != "" {
			md.Manufacturer = component.Manufacturer
		}
		if component.Description != "" {
			md.Description = component.Description
		}
		if t := component.PluginType(); t != common.TypeUnknown {
			md.PluginType = t
		}
	}
}

func (s *Scanner) mergeModuleInfo(data []byte, md *common.PluginMetadata) {
	mi, err := bundle.ParseModuleInfo(data)
	if err != nil {
		s.log.Warn("moduleinfo.json parse failed", zap.String("path", md.Path), zap.Error(err))
		return
	}
	if mi.Name != "" {
		md.Name = mi.Name
	}
	if mi.Version != "" {
		md.Version = mi.Version
	}
	if mi.Vendor != "" {
		md.Manufacturer = mi.Vendor
	}
	if mi.Description != "" {
		md.Description = mi.Description
	}
	if len(mi.SubCategories) > 0 {
		md.Category = strings.Join(mi.SubCategories, "|")
	} else if mi.Category != "" {
		md.Category = mi.Category
	}
	if mi.IsInstrument() {
		md.PluginType = common.TypeInstrument
	} else if md.Category != "" {
		md.PluginType = common.TypeEffect
	}
}

func (s *Scanner) mergeClapManifest(data []byte, md *common.PluginMetadata) {
	manifest, err := bundle.ParseClapManifest(data)
	if err != nil {
		s.log.Warn("clap.json parse failed", zap.String("path", md.Path), zap.Error(err))
		return
	}
	if manifest.Name != "" {
		md.Name = manifest.Name
	}
	if manifest.Version != "" {
		md.Version = manifest.Version
	}
	if manifest.Vendor != "" {
		md.Manufacturer = manifest.Vendor
	}
	if manifest.Description != "" {
		md.Description = manifest.Description
	}
	md.UniqueID = manifest.ID
}

// readSidecarManifest picks up the <plugin>.json manifest CLAP plugins
// may ship next to the binary.
func (s *Scanner) readSidecarManifest(path string, md *common.PluginMetadata) {
	if md.Format != common.FormatCLAP {
		return
	}
	sidecar := strings.TrimSuffix(path, filepath.Ext(path)) + ".json"
	data, err := os.ReadFile(sidecar)
	if err != nil {
		return
	}
	s.mergeClapManifest(data, md)
}

// VST2 category marker strings compiled into plugin binaries. Order
// matters: the first match wins, as in scanning the plugin's own
// category constant table.
var vstCategoryMarkers = []struct {
	marker []byte
	name   string
}{
	{[]byte("kPlugCategSynth"), "Synth"},
	{[]byte("kPlugCategEffect"), "Effect"},
	{[]byte("kPlugCategAnalysis"), "Analysis"},
	{[]byte("kPlugCategMastering"), "Mastering"},
	{[]byte("kPlugCategRoomFx"), "Room Effect"},
	{[]byte("kPlugCategRestoration"), "Restoration"},
	{[]byte("kPlugCategGenerator"), "Generator"},
}

// mergeVSTCategory scans raw module bytes for VST2 category constants, a
// best-effort hint when no structured metadata names the category.
func (s *Scanner) mergeVSTCategory(buf []byte, md *common.PluginMetadata) {
	if md.Category != "" {
		return
	}
	for _, c := range vstCategoryMarkers {
		if bytes.Contains(buf, c.marker) {
			md.Category = c.name
			if c.name == "Synth" || c.name == "Generator" {
				md.PluginType = common.TypeInstrument
			} else {
				md.PluginType = common.TypeEffect
			}
			return
		}
	}
}
