package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

// watchDebounce collapses the bursts of events editors emit for one save.
const watchDebounce = 200 * time.Millisecond

// fileWatcher calls onChange after path is written or replaced.
type fileWatcher struct {
	watcher  *fsnotify.Watcher
	path     string
	onChange func()
	logger   *log.Logger
	debounce time.Duration
}

// watchFile starts watching path until ctx is done or Close is called.
// The parent directory is watched rather than the file itself, so saves
// that replace the file through a rename are still seen.
func watchFile(ctx context.Context, path string, logger *log.Logger, onChange func()) (*fileWatcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		w.Close()
		return nil, fmt.Errorf("watch %s: %w", path, err)
	}

	fw := &fileWatcher{
		watcher:  w,
		path:     abs,
		onChange: onChange,
		logger:   logger,
		debounce: watchDebounce,
	}
	go fw.loop(ctx)
	return fw, nil
}

// Close stops the watcher.
func (fw *fileWatcher) Close() error {
	return fw.watcher.Close()
}

func (fw *fileWatcher) loop(ctx context.Context) {
	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != fw.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(fw.debounce, fw.onChange)

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			fw.logger.Warn("watch error", "path", fw.path, "err", err)
		}
	}
}
