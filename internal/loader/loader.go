// Package loader brings snapshots into the engine from disk: a one-shot file
// load plus a watcher that reloads the file whenever it changes.
package loader

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"eventpulse/internal/dataset"
)

// Load reads and decodes a snapshot file.
func Load(path string) (*dataset.Snapshot, error) {
	return dataset.DecodeFile(path)
}

// Watcher reloads a snapshot file on change and hands the decoded snapshot to
// a callback. Rapid successive writes (editor save patterns, partial writes)
// are debounced into one reload.
type Watcher struct {
	mu       sync.Mutex
	fs       *fsnotify.Watcher
	path     string
	onReload func(*dataset.Snapshot)
	logger   *zap.Logger
	debounce time.Duration
	lastHit  time.Time
	dirty    bool
	stopCh   chan struct{}
	doneCh   chan struct{}
	running  bool
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithLogger attaches a logger; the default discards everything.
func WithLogger(logger *zap.Logger) WatcherOption {
	return func(w *Watcher) { w.logger = logger }
}

// WithDebounce overrides the settle window before a changed file reloads.
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) { w.debounce = d }
}

// NewWatcher builds a watcher over one snapshot file. The callback runs on
// the watcher goroutine; it must not block for long.
func NewWatcher(path string, onReload func(*dataset.Snapshot), opts ...WatcherOption) (*Watcher, error) {
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	w := &Watcher{
		fs:       fs,
		path:     filepath.Clean(path),
		onReload: onReload,
		logger:   zap.NewNop(),
		debounce: 500 * time.Millisecond,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Start begins watching. Non-blocking; the event loop runs in a goroutine.
// Watching covers the file's directory so atomic rename-into-place saves are
// seen too.
func (w *Watcher) Start() error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	if err := w.fs.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(w.path), err)
	}
	w.logger.Info("watching snapshot file", zap.String("path", w.path))

	go w.run()
	return nil
}

// Stop halts the watcher and waits for the event loop to exit. Safe to call
// more than once.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh

	if err := w.fs.Close(); err != nil {
		w.logger.Error("failed to close file watcher", zap.Error(err))
	}
}

func (w *Watcher) run() {
	defer close(w.doneCh)

	tick := w.debounce / 4
	if tick <= 0 {
		tick = 10 * time.Millisecond
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return

		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.logger.Warn("file watcher error", zap.Error(err))

		case <-ticker.C:
			if w.settled() {
				w.reload()
			}
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if filepath.Clean(event.Name) != w.path {
		return
	}
	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
		return
	}

	w.mu.Lock()
	w.dirty = true
	w.lastHit = time.Now()
	w.mu.Unlock()
}

// settled reports whether a pending change has sat past the debounce window,
// consuming it when so.
func (w *Watcher) settled() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.dirty || time.Since(w.lastHit) < w.debounce {
		return false
	}
	w.dirty = false
	return true
}

func (w *Watcher) reload() {
	snap, err := Load(w.path)
	if err != nil {
		// A malformed or half-written file keeps the previous snapshot.
		w.logger.Warn("snapshot reload failed", zap.String("path", w.path), zap.Error(err))
		return
	}
	w.logger.Info("snapshot reloaded",
		zap.String("path", w.path),
		zap.Int("tables", len(snap.Tables)))
	w.onReload(snap)
}
