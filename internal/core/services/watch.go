package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/lexica-labs/docq-cli/internal/core/domain"
	"github.com/lexica-labs/docq-cli/internal/core/ports/driven"
	"github.com/lexica-labs/docq-cli/internal/core/ports/driving"
	"github.com/lexica-labs/docq-cli/internal/logger"
)

// Ensure WatchService implements the interface.
var _ driving.WatchService = (*WatchService)(nil)

// DefaultDebounce is how long a path must stay quiet before it is
// ingested. Editors and downloads produce bursts of write events;
// ingesting on the last one avoids reading half-written files.
const DefaultDebounce = 500 * time.Millisecond

// WatchService ingests supported files as they land in a drop
// directory.
type WatchService struct {
	ingester driving.IngestOrchestrator
	registry driven.LoaderRegistry
	debounce time.Duration

	mu     sync.Mutex
	timers map[string]*time.Timer
}

// NewWatchService creates a new watch service. A non-positive
// debounce falls back to the default.
func NewWatchService(ingester driving.IngestOrchestrator, registry driven.LoaderRegistry, debounce time.Duration) *WatchService {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &WatchService{
		ingester: ingester,
		registry: registry,
		debounce: debounce,
		timers:   make(map[string]*time.Timer),
	}
}

// Watch blocks, ingesting supported files created or modified under
// dir until ctx is cancelled.
func (s *WatchService) Watch(ctx context.Context, dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrSourceUnavailable, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", domain.ErrSourceUnavailable, dir)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err := s.addRecursive(watcher, dir); err != nil {
		return err
	}

	logger.Section("Watch")
	logger.Info("Watching %s for new documents", dir)

	for {
		select {
		case <-ctx.Done():
			s.cancelPending()
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			s.handleEvent(ctx, watcher, event)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Watcher error: %v", err)
		}
	}
}

// handleEvent reacts to one filesystem event: new subdirectories are
// added to the watch, supported files are scheduled for ingestion.
func (s *WatchService) handleEvent(ctx context.Context, watcher *fsnotify.Watcher, event fsnotify.Event) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return
	}
	if isHidden(event.Name) {
		return
	}

	if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
		if event.Has(fsnotify.Create) {
			if err := watcher.Add(event.Name); err != nil {
				logger.Warn("Cannot watch %s: %v", event.Name, err)
			} else {
				logger.Debug("Watching new directory %s", event.Name)
			}
		}
		return
	}

	if _, err := s.registry.ForPath(event.Name); err != nil {
		if errors.Is(err, domain.ErrUnsupportedFormat) {
			logger.Debug("Ignoring unsupported file %s", event.Name)
		}
		return
	}

	s.schedule(ctx, event.Name)
}

// schedule arms (or rearms) the debounce timer for a path.
func (s *WatchService) schedule(ctx context.Context, path string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if timer, ok := s.timers[path]; ok {
		timer.Reset(s.debounce)
		return
	}

	s.timers[path] = time.AfterFunc(s.debounce, func() {
		s.mu.Lock()
		delete(s.timers, path)
		s.mu.Unlock()

		if ctx.Err() != nil {
			return
		}
		if _, err := s.ingester.Ingest(ctx, path); err != nil {
			logger.Error("Ingest %s failed: %v", path, err)
		}
	})
}

// cancelPending stops all armed debounce timers.
func (s *WatchService) cancelPending() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for path, timer := range s.timers {
		timer.Stop()
		delete(s.timers, path)
	}
}

// addRecursive watches dir and every non-hidden subdirectory.
func (s *WatchService) addRecursive(watcher *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("%w: %v", domain.ErrSourceUnavailable, err)
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if err := watcher.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		return nil
	})
}

// isHidden reports whether any element of the path is a dotfile.
// "." and ".." path elements do not count.
func isHidden(path string) bool {
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if part == "." || part == ".." {
			continue
		}
		if strings.HasPrefix(part, ".") {
			return true
		}
	}
	return false
}
