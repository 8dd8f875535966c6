package config

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Watcher watches the loaded config file and delivers re-validated
// configurations to a callback while the simulation runs. Edits that fail
// validation are dropped; the previous configuration stays in effect.
type Watcher struct {
	watcher  *fsnotify.Watcher
	path     string
	onChange func(*Config)
	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewWatcher creates a watcher for the given config file path
func NewWatcher(path string, onChange func(*Config)) (*Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	w := &Watcher{
		watcher:  watcher,
		path:     path,
		onChange: onChange,
		stopCh:   make(chan struct{}),
	}

	// Watch the config file's directory (fsnotify works better with
	// directories, and editors often replace the file on save)
	dir := filepath.Dir(path)
	if err := watcher.Add(dir); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("failed to watch directory: %w", err)
	}

	return w, nil
}

// Start begins watching for config changes
func (w *Watcher) Start() {
	go w.watchLoop()
}

// Stop stops the watcher
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopCh)
		_ = w.watcher.Close()
	})
}

// watchLoop processes filesystem events for the config file
func (w *Watcher) watchLoop() {
	targetFile := filepath.Base(w.path)
	debounceTimer := time.NewTimer(0)
	<-debounceTimer.C // drain initial timer

	for {
		select {
		case <-w.stopCh:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}

			// Only care about writes to the config file itself
			if filepath.Base(event.Name) != targetFile {
				continue
			}

			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}

			// Debounce to coalesce rapid editor save events
			debounceTimer.Reset(100 * time.Millisecond)

		case <-debounceTimer.C:
			cfg, err := w.reload()
			if err != nil {
				continue
			}
			if w.onChange != nil {
				w.onChange(cfg)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			_ = err
		}
	}
}

// reload re-reads the config file through viper and validates it
func (w *Watcher) reload() (*Config, error) {
	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}
	return Load()
}
