package scan

import (
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"go.uber.org/zap"

	"plugscan/common"
)

// DefaultPluginPaths returns the conventional plugin install locations
// for the current OS. Paths are returned whether or not they exist.
func DefaultPluginPaths() map[common.PluginFormat][]string {
	paths := make(map[common.PluginFormat][]string)
	home, _ := os.UserHomeDir()

	switch runtime.GOOS {
	case "darwin":
		paths[common.FormatVST] = []string{
			filepath.Join(home, "Library/Audio/Plug-Ins/VST"),
			"/Library/Audio/Plug-Ins/VST",
		}
		paths[common.FormatVST3] = []string{
			filepath.Join(home, "Library/Audio/Plug-Ins/VST3"),
			"/Library/Audio/Plug-Ins/VST3",
		}
		paths[common.FormatAU] = []string{
			filepath.Join(home, "Library/Audio/Plug-Ins/Components"),
			"/Library/Audio/Plug-Ins/Components",
		}
		paths[common.FormatCLAP] = []string{
			filepath.Join(home, "Library/Audio/Plug-Ins/CLAP"),
			"/Library/Audio/Plug-Ins/CLAP",
		}
	case "windows":
		paths[common.FormatVST] = []string{
			`C:\Program Files\VSTPlugins`,
			`C:\Program Files\Steinberg\VSTPlugins`,
			`C:\Program Files (x86)\VSTPlugins`,
			`C:\Program Files (x86)\Steinberg\VSTPlugins`,
		}
		paths[common.FormatVST3] = []string{
			`C:\Program Files\Common Files\VST3`,
			`C:\Program Files (x86)\Common Files\VST3`,
		}
		paths[common.FormatCLAP] = []string{
			`C:\Program Files\Common Files\CLAP`,
			`C:\Program Files (x86)\Common Files\CLAP`,
		}
	default: // linux and friends
		paths[common.FormatVST] = []string{
			filepath.Join(home, ".vst"),
			"/usr/lib/vst",
			"/usr/local/lib/vst",
		}
		paths[common.FormatVST3] = []string{
			filepath.Join(home, ".vst3"),
			"/usr/lib/vst3",
			"/usr/local/lib/vst3",
		}
		paths[common.FormatCLAP] = []string{
			filepath.Join(home, ".clap"),
			"/usr/lib/clap",
			"/usr/local/lib/clap",
		}
	}

	return paths
}

// formatExtensions lists the file extensions scanned for a format filter;
// empty filter means every known extension.
func formatExtensions(filter common.PluginFormat) []string {
	switch filter {
	case common.FormatVST:
		return []string{".vst", ".dll", ".so"}
	case common.FormatVST3:
		return []string{".vst3"}
	case common.FormatAU:
		return []string{".component"}
	case common.FormatCLAP:
		return []string{".clap", ".dll", ".so"}
	default:
		return []string{".vst", ".vst3", ".component", ".clap", ".dll", ".so"}
	}
}

// ScanDirectory walks dir for plugins matching the optional format
// filter. Bundle directories count as one plugin and are not descended
// into; unreadable plugins are logged and skipped.
func (s *Scanner) ScanDirectory(dir string, filter common.PluginFormat) ([]common.PluginMetadata, error) {
	extensions := formatExtensions(filter)
	match := func(path string) bool {
		ext := strings.ToLower(filepath.Ext(path))
		for _, e := range extensions {
			if ext == e {
				return true
			}
		}
		return false
	}

	var results []common.PluginMetadata
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return err
			}
			s.log.Warn("scan error", zap.String("path", path), zap.Error(err))
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if path == dir || !match(path) {
			return nil
		}

		md, err := s.ReadPlugin(path)
		if err != nil {
			s.log.Warn("failed to read plugin", zap.String("path", path), zap.Error(err))
		} else if filter == "" || md.Format == filter {
			results = append(results, *md)
		}

		if d.IsDir() {
			return filepath.SkipDir // a bundle is one plugin
		}
		return nil
	})
	if err != nil {
		return results, err
	}
	return results, nil
}

// ScanDefaultLocations scans every default install path that exists.
func (s *Scanner) ScanDefaultLocations() map[common.PluginFormat][]common.PluginMetadata {
	results := make(map[common.PluginFormat][]common.PluginMetadata)
	for format, dirs := range DefaultPluginPaths() {
		for _, dir := range dirs {
			if _, err := os.Stat(dir); err != nil {
				continue
			}
			found, err := s.ScanDirectory(dir, format)
			if err != nil {
				s.log.Warn("failed to scan directory", zap.String("dir", dir), zap.Error(err))
			}
			results[format] = append(results[format], found...)
		}
	}
	return results
}
