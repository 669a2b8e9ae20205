package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"

	"github.com/fatih/color"
	"go.uber.org/zap"

	"plugscan/common"
	"plugscan/scan"
)

// Program configuration, resolved from flags.
type Config struct {
	Format      string
	JSONOut     string
	CSVOut      string
	Watch       bool
	Verbose     bool
	Parallel    bool
	MaxWorkers  int
	MaxSizeMB   int
	ShowVersion bool
}

// Scan statistics, shared by the workers.
type ScanStats struct {
	mu      sync.Mutex
	Scanned int
	Failed  int
	Plugins []common.PluginMetadata
}

const versionString = "plugscan 0.3"

var (
	config = &Config{}
	stats  = &ScanStats{}

	formatFilter = flag.String("format", "", "Only report plugins of this format (VST, VST3, AU, CLAP)")
	jsonOut      = flag.String("json", "", "Write results to this file as JSON")
	csvOut       = flag.String("csv", "", "Write results to this file as CSV")
	watchMode    = flag.Bool("watch", false, "Keep watching the directories for newly installed plugins")
	verbose      = flag.Bool("v", false, "Enable verbose output")
	parallel     = flag.Bool("j", false, "Scan directories in parallel")
	maxWorkers   = flag.Int("workers", 4, "Maximum number of parallel workers (default: 4)")
	maxSizeMB    = flag.Int("maxsize", 64, "Maximum megabytes read per plugin binary")
	showVersion  = flag.Bool("version", false, "Display version information and exit")

	okMark   = color.New(color.FgGreen).Sprint("✅")
	failMark = color.New(color.FgRed).Sprint("❌")
	dimText  = color.New(color.Faint).SprintFunc()
)

func init() {
	flag.Usage = customUsage
}

func customUsage() {
	_, _ = fmt.Fprintf(os.Stderr, "Usage: %s [OPTIONS] [DIR...]\n", os.Args[0])
	_, _ = fmt.Fprintln(os.Stderr, "Scan directories for installed audio plugins (VST, VST3, AU, CLAP)")
	_, _ = fmt.Fprintln(os.Stderr, "and report their metadata without loading any plugin code.")
	_, _ = fmt.Fprintln(os.Stderr, "With no DIR arguments, the default install locations are scanned.")
	_, _ = fmt.Fprintln(os.Stderr, "")
	_, _ = fmt.Fprintln(os.Stderr, "Options:")
	flag.PrintDefaults()
	_, _ = fmt.Fprintln(os.Stderr, "")
	_, _ = fmt.Fprintln(os.Stderr, "Examples:")
	_, _ = fmt.Fprintf(os.Stderr, "  %s                              # scan default plugin locations\n", os.Args[0])
	_, _ = fmt.Fprintf(os.Stderr, "  %s -format VST3 ~/plugins       # only VST3, custom directory\n", os.Args[0])
	_, _ = fmt.Fprintf(os.Stderr, "  %s -j -workers=8 -json out.json /opt/vst /opt/clap\n", os.Args[0])
}

func parseFlags() {
	flag.Parse()

	config.Format = *formatFilter
	config.JSONOut = *jsonOut
	config.CSVOut = *csvOut
	config.Watch = *watchMode
	config.Verbose = *verbose
	config.Parallel = *parallel
	config.MaxWorkers = *maxWorkers
	config.MaxSizeMB = *maxSizeMB
	config.ShowVersion = *showVersion

	if config.MaxWorkers < 1 {
		config.MaxWorkers = 1
	}
	if config.MaxWorkers > 16 {
		config.MaxWorkers = 16
	}
}

func newLogger() *zap.Logger {
	if !config.Verbose {
		return zap.NewNop()
	}
	logger, err := zap.NewDevelopment()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

func newScanner(logger *zap.Logger) *scan.Scanner {
	s := scan.NewScanner(logger)
	if config.MaxSizeMB > 0 {
		s.MaxModuleBytes = int64(config.MaxSizeMB) << 20
	}
	return s
}

func scanDirsSequential(s *scan.Scanner, dirs []string, filter common.PluginFormat) {
	for _, dir := range dirs {
		found, err := s.ScanDirectory(dir, filter)
		recordResults(dir, found, err)
	}
}

func scanDirsParallel(s *scan.Scanner, dirs []string, filter common.PluginFormat) {
	jobs := make(chan string, len(dirs))
	var wg sync.WaitGroup

	for i := 0; i < config.MaxWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for dir := range jobs {
				found, err := s.ScanDirectory(dir, filter)
				recordResults(dir, found, err)
			}
		}()
	}

	for _, dir := range dirs {
		jobs <- dir
	}
	close(jobs)
	wg.Wait()
}

func recordResults(dir string, found []common.PluginMetadata, err error) {
	stats.mu.Lock()
	defer stats.mu.Unlock()

	if err != nil {
		stats.Failed++
		_, _ = fmt.Fprintf(os.Stderr, "  %s %s: %v\n", failMark, dir, err)
	}
	stats.Scanned++
	stats.Plugins = append(stats.Plugins, found...)

	for i := range found {
		printPlugin(&found[i])
	}
}

func printPlugin(p *common.PluginMetadata) {
	line := fmt.Sprintf("  %s %s [%s]", okMark, p.Name, p.Format)
	if p.Version != "" {
		line += " v" + p.Version
	}
	if p.Manufacturer != "" {
		line += " by " + p.Manufacturer
	}
	if arch := p.Architecture(); arch != "" {
		line += " (" + arch + ")"
	}
	fmt.Println(line + " " + dimText(p.Path))
}

func printSummary() {
	fmt.Printf("\nSummary:\n")
	fmt.Printf("  Locations scanned: %d\n", stats.Scanned)
	fmt.Printf("  Plugins found: %d\n", len(stats.Plugins))
	if stats.Failed > 0 {
		fmt.Printf("  Failed: %d\n", stats.Failed)
	}

	counts := make(map[common.PluginFormat]int)
	for i := range stats.Plugins {
		counts[stats.Plugins[i].Format]++
	}
	for _, format := range []common.PluginFormat{common.FormatVST, common.FormatVST3, common.FormatAU, common.FormatCLAP} {
		if counts[format] > 0 {
			fmt.Printf("  %s: %d\n", format, counts[format])
		}
	}
}

func exportResults() error {
	if config.JSONOut != "" {
		f, err := os.Create(config.JSONOut)
		if err != nil {
			return fmt.Errorf("cannot create %s: %w", config.JSONOut, err)
		}
		defer func() {
			_ = f.Close()
		}()
		if err := common.ExportJSON(f, stats.Plugins); err != nil {
			return err
		}
		fmt.Printf("\nMetadata exported to %s\n", config.JSONOut)
	}

	if config.CSVOut != "" {
		f, err := os.Create(config.CSVOut)
		if err != nil {
			return fmt.Errorf("cannot create %s: %w", config.CSVOut, err)
		}
		defer func() {
			_ = f.Close()
		}()
		if err := common.ExportCSV(f, stats.Plugins); err != nil {
			return err
		}
		fmt.Printf("Metadata exported to %s\n", config.CSVOut)
	}

	return nil
}

func resolveDirs() []string {
	if args := flag.Args(); len(args) > 0 {
		dirs := make([]string, 0, len(args))
		for _, a := range args {
			dirs = append(dirs, filepath.Clean(a))
		}
		return dirs
	}

	var dirs []string
	for _, paths := range scan.DefaultPluginPaths() {
		for _, p := range paths {
			if info, err := os.Stat(p); err == nil && info.IsDir() {
				dirs = append(dirs, p)
			}
		}
	}
	return dirs
}

func watchDirs(s *scan.Scanner, dirs []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Printf("Watching %d directories for new plugins (Ctrl-C to stop)...\n", len(dirs))
	err := s.Watch(ctx, dirs, func(p common.PluginMetadata) {
		printPlugin(&p)
		stats.mu.Lock()
		stats.Plugins = append(stats.Plugins, p)
		stats.mu.Unlock()
	})
	if err == context.Canceled {
		return nil
	}
	return err
}

func main() {
	parseFlags()

	if config.ShowVersion {
		fmt.Println(versionString)
		os.Exit(0)
	}

	logger := newLogger()
	defer func() {
		_ = logger.Sync()
	}()

	s := newScanner(logger)
	filter := common.PluginFormat(strings.ToUpper(config.Format))

	dirs := resolveDirs()
	if len(dirs) == 0 {
		_, _ = fmt.Fprintln(os.Stderr, "no plugin directories found to scan")
		os.Exit(1)
	}

	if config.Verbose {
		fmt.Printf("Scanning %d directories...\n", len(dirs))
	}

	if config.Parallel && len(dirs) > 1 {
		scanDirsParallel(s, dirs, filter)
	} else {
		scanDirsSequential(s, dirs, filter)
	}

	if config.Watch {
		if err := watchDirs(s, dirs); err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "%s: %v\n", os.Args[0], err)
			os.Exit(1)
		}
	}

	printSummary()

	if err := exportResults(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "%s: %v\n", os.Args[0], err)
		os.Exit(1)
	}

	if stats.Failed > 0 {
		os.Exit(1)
	}
}
