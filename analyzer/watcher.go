package analyzer

import (
	"context"
	"crypto/sha256"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ChangeEvent reports a PHP source file whose content changed on disk.
type ChangeEvent struct {
	Path string
}

// Watcher monitors an application tree for PHP file changes. Editor save
// storms are debounced, and events whose file content hash is unchanged are
// dropped so touch-only writes do not trigger rescans.
type Watcher struct {
	root     string
	debounce time.Duration
	logger   *slog.Logger

	fsWatcher *fsnotify.Watcher
	events    chan ChangeEvent

	pendingMu sync.Mutex
	pending   map[string]time.Time

	hashMu sync.RWMutex
	hashes map[string]string

	done chan struct{}
}

// NewWatcher creates a watcher rooted at root. Events are delivered on the
// channel returned by Events after Start is called.
func NewWatcher(root string, debounce time.Duration, logger *slog.Logger) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{
		root:      root,
		debounce:  debounce,
		logger:    logger,
		fsWatcher: fsWatcher,
		events:    make(chan ChangeEvent, 64),
		pending:   make(map[string]time.Time),
		hashes:    make(map[string]string),
		done:      make(chan struct{}),
	}, nil
}

// Events returns the channel change events are delivered on.
func (w *Watcher) Events() <-chan ChangeEvent {
	return w.events
}

// Start registers watches recursively and begins processing filesystem
// events until the context is cancelled or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.addWatchesRecursive(w.root); err != nil {
		return fmt.Errorf("watch %s: %w", w.root, err)
	}
	w.logger.Info("Watching for changes", "root", w.root, "debounce", w.debounce)
	go w.processEvents(ctx)
	return nil
}

// Stop shuts the watcher down. The events channel is left open so a flush
// racing the shutdown never sends on a closed channel; consumers exit via
// their own context.
func (w *Watcher) Stop() error {
	close(w.done)
	return w.fsWatcher.Close()
}

// addWatchesRecursive walks the tree registering directory watches,
// skipping dependency and framework-managed directories.
func (w *Watcher) addWatchesRecursive(root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			return nil
		}
		if skipDir(info.Name()) && path != root {
			return filepath.SkipDir
		}
		return w.fsWatcher.Add(path)
	})
}

// skipDir reports whether a directory should not be watched. Vendor trees,
// node_modules, and Laravel's storage and cache directories churn without
// affecting validation rules.
func skipDir(name string) bool {
	if strings.HasPrefix(name, ".") {
		return true
	}
	switch name {
	case "vendor", "node_modules", "storage", "bootstrap":
		return true
	}
	return false
}

func (w *Watcher) processEvents(ctx context.Context) {
	ticker := time.NewTicker(w.debounce)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			w.handleFSEvent(event)
		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("Watcher error", "error", err)
		case <-ticker.C:
			w.flushPending()
		}
	}
}

func (w *Watcher) handleFSEvent(event fsnotify.Event) {
	if event.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if !skipDir(filepath.Base(event.Name)) {
				if err := w.addWatchesRecursive(event.Name); err != nil {
					w.logger.Warn("Failed to watch new directory",
						"path", event.Name, "error", err)
				}
			}
			return
		}
	}

	if filepath.Ext(event.Name) != ".php" {
		return
	}
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
		return
	}

	w.pendingMu.Lock()
	w.pending[event.Name] = time.Now()
	w.pendingMu.Unlock()
}

// flushPending emits events for files whose pending window has elapsed and
// whose content actually changed since the last emission.
func (w *Watcher) flushPending() {
	now := time.Now()

	w.pendingMu.Lock()
	var ready []string
	for path, stamp := range w.pending {
		if now.Sub(stamp) >= w.debounce {
			ready = append(ready, path)
			delete(w.pending, path)
		}
	}
	w.pendingMu.Unlock()

	for _, path := range ready {
		hash, err := hashFile(path)
		if err != nil {
			// Deleted between the event and the flush; still worth a rescan.
			w.sendEvent(ChangeEvent{Path: path})
			continue
		}
		if w.hashUnchanged(path, hash) {
			w.logger.Debug("Content unchanged, skipping", "path", path)
			continue
		}
		w.setHash(path, hash)
		w.sendEvent(ChangeEvent{Path: path})
	}
}

func (w *Watcher) hashUnchanged(path, hash string) bool {
	w.hashMu.RLock()
	defer w.hashMu.RUnlock()
	return w.hashes[path] == hash
}

func (w *Watcher) setHash(path, hash string) {
	w.hashMu.Lock()
	defer w.hashMu.Unlock()
	w.hashes[path] = hash
}

func (w *Watcher) sendEvent(event ChangeEvent) {
	select {
	case w.events <- event:
	default:
		w.logger.Warn("Event channel full, dropping event", "path", event.Path)
	}
}

func hashFile(path string) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(content)
	return fmt.Sprintf("%x", sum[:8]), nil
}
