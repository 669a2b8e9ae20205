package scan

import (
	"context"
	"fmt"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"plugscan/common"
)

// Watch reports plugins created or rewritten under dirs until ctx is
// cancelled. Bundle installs surface as directory creations; handler is
// called from the watch goroutine, one plugin at a time.
func (s *Scanner) Watch(ctx context.Context, dirs []string, handler func(common.PluginMetadata)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() {
		_ = watcher.Close()
	}()

	for _, dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
		s.log.Info("watching", zap.String("dir", dir))
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			if DetectFormat(event.Name) == common.FormatUnknown {
				continue
			}
			md, err := s.ReadPlugin(event.Name)
			if err != nil {
				s.log.Warn("failed to read new plugin", zap.String("path", event.Name), zap.Error(err))
				continue
			}
			handler(*md)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.log.Warn("watch error", zap.Error(err))
		}
	}
}
