package scan

import (
	"fmt"
	"io"
	"os"

	"github.com/edsrzf/mmap-go"
)

// DefaultMaxModuleBytes bounds how much of a module file is read. PE and
// ELF headers plus the resource section sit comfortably below this for
// real plugins; anything bigger is sample data the parser never needs.
const DefaultMaxModuleBytes = 64 << 20

// loadModule hands back up to max bytes of the file, memory-mapped when
// the platform allows so large modules are paged in on demand instead of
// copied up front, with a plain bounded read as fallback. The caller
// must call release once done with the bytes and must not retain slices
// of them past that point; the parsers only ever keep decoded copies.
func loadModule(path string, max int64) ([]byte, func(), error) {
	if max <= 0 {
		max = DefaultMaxModuleBytes
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}

	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, nil, fmt.Errorf("failed to stat module: %w", err)
	}
	size := info.Size()
	if size == 0 {
		_ = f.Close()
		return nil, nil, fmt.Errorf("empty module file: %s", path)
	}
	if size > max {
		size = max
	}

	if m, err := mmap.MapRegion(f, int(size), mmap.RDONLY, 0, 0); err == nil {
		release := func() {
			_ = m.Unmap()
			_ = f.Close()
		}
		return m, release, nil
	}

	buf, err := io.ReadAll(io.LimitReader(f, size))
	_ = f.Close()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read module: %w", err)
	}
	return buf, func() {}, nil
}
