package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// FileSource loads the card catalog from a local JSON fixture. It is
// used in dev mode to work against the backend's card payload without a
// network, and can reload the catalog when the file changes.
type FileSource struct {
	path   string
	logger *slog.Logger

	mu      sync.Mutex
	watcher *fsnotify.Watcher
	done    chan struct{}
}

// NewFileSource creates a file-backed catalog source.
func NewFileSource(path string, logger *slog.Logger) (*FileSource, error) {
	if path == "" {
		return nil, fmt.Errorf("catalog file path is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &FileSource{path: path, logger: logger}, nil
}

// Load reads and parses the catalog file. Like the HTTP loader, a
// failure yields a non-nil empty catalog plus a *LoadError.
func (s *FileSource) Load(ctx context.Context) (*Catalog, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return NewCatalog(nil), &LoadError{URL: s.path, Err: err}
	}

	var list CardList
	if err := json.Unmarshal(data, &list); err != nil {
		return NewCatalog(nil), &LoadError{URL: s.path, Err: fmt.Errorf("parse catalog file: %w", err)}
	}

	catalog := NewCatalog(list.Cards)
	s.logger.Debug("Card catalog loaded from file", "path", s.path, "count", catalog.Len())
	return catalog, nil
}

// Watch reloads the catalog whenever the file changes and hands the
// fresh catalog to onUpdate. Reload failures are logged and skipped;
// the previous catalog stays in effect.
func (s *FileSource) Watch(onUpdate func(*Catalog)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.watcher != nil {
		return fmt.Errorf("already watching %s", s.path)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create file watcher: %w", err)
	}
	if err := watcher.Add(s.path); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("watch catalog file: %w", err)
	}

	s.watcher = watcher
	s.done = make(chan struct{})

	go func() {
		for {
			select {
			case <-s.done:
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
					continue
				}
				catalog, err := s.Load(context.Background())
				if err != nil {
					s.logger.Warn("Catalog reload failed, keeping previous catalog",
						"path", s.path,
						"error", err)
					continue
				}
				s.logger.Info("Catalog reloaded", "path", s.path, "count", catalog.Len())
				onUpdate(catalog)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				s.logger.Warn("Catalog watcher error", "error", err)
			}
		}
	}()

	return nil
}

// Close stops watching the catalog file.
func (s *FileSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.watcher == nil {
		return nil
	}
	close(s.done)
	err := s.watcher.Close()
	s.watcher = nil
	return err
}
