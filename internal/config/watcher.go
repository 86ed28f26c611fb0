package config

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// Watcher reloads the config file when it changes on disk.
type Watcher struct {
	watcher  *fsnotify.Watcher
	filePath string
	logger   *slog.Logger
	onChange func(*Config)

	done    chan struct{}
	mu      sync.Mutex
	running bool
}

// NewWatcher creates a watcher for the config file at path.
// onChange receives every successfully loaded and validated config.
func NewWatcher(path string, onChange func(*Config), logger *slog.Logger) (*Watcher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if path == "" {
		path = ConfigPath()
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &Watcher{
		watcher:  watcher,
		filePath: path,
		logger:   logger,
		onChange: onChange,
		done:     make(chan struct{}),
	}, nil
}

// Start begins watching the file for changes.
func (w *Watcher) Start() error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	// Watch the directory containing the file; editors replace files on save.
	if err := w.watcher.Add(filepath.Dir(w.filePath)); err != nil {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
		return fmt.Errorf("failed to watch config directory: %w", err)
	}

	go w.watch()
	w.logger.Debug("config watcher started", "path", w.filePath)
	return nil
}

// watch is the main watch loop.
func (w *Watcher) watch() {
	filename := filepath.Base(w.filePath)

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != filename {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				w.reload()
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("config watcher error", "error", err)

		case <-w.done:
			return
		}
	}
}

func (w *Watcher) reload() {
	cfg, err := LoadConfig(w.filePath)
	if err != nil {
		w.logger.Warn("ignoring invalid config change", "path", w.filePath, "error", err)
		return
	}
	w.logger.Info("config file changed, reloading", "path", w.filePath)
	if w.onChange != nil {
		w.onChange(cfg)
	}
}

// Stop stops the watcher.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return w.watcher.Close()
	}

	w.running = false
	close(w.done)
	return w.watcher.Close()
}
