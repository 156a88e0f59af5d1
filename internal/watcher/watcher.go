// Package watcher reloads the knowledge base when files in the knowledge
// directory change outside the process.
package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"

	"github.com/nickcecere/ldebate/internal/docstore"
	"github.com/nickcecere/ldebate/internal/knowledge"
)

// Watcher watches the knowledge directory and triggers full reloads.
type Watcher struct {
	kb  *knowledge.Base
	dir string

	// pending holds file events collected since the last flush
	pending      map[string]fsnotify.Op
	pendingMu    sync.Mutex
	debounceTime time.Duration

	// callback for status updates
	onReload func(changed []string)
}

// Option configures the watcher.
type Option func(*Watcher)

// WithDebounceTime sets the debounce duration for batching events.
func WithDebounceTime(d time.Duration) Option {
	return func(w *Watcher) {
		w.debounceTime = d
	}
}

// WithReloadCallback sets a callback run after each reload with the names
// that caused it.
func WithReloadCallback(fn func(changed []string)) Option {
	return func(w *Watcher) {
		w.onReload = fn
	}
}

// New creates a watcher for the knowledge base's directory.
func New(kb *knowledge.Base, opts ...Option) *Watcher {
	w := &Watcher{
		kb:           kb,
		dir:          kb.Store().Dir(),
		pending:      make(map[string]fsnotify.Op),
		debounceTime: 500 * time.Millisecond,
		onReload:     func([]string) {},
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Start begins watching. Blocks until the context is cancelled.
func (w *Watcher) Start(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(w.dir); err != nil {
		return err
	}

	log.Info("Watching knowledge directory", "dir", w.dir)

	go w.processDebounced(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Error("Watcher error", "error", err)
		}
	}
}

// handleEvent queues an event for a file directly inside the directory.
func (w *Watcher) handleEvent(event fsnotify.Event) {
	if filepath.Dir(event.Name) != w.dir {
		return
	}

	name := filepath.Base(event.Name)
	if w.kb.Store().Ignored(name) {
		return
	}

	if event.Has(fsnotify.Chmod) && !event.Has(fsnotify.Write) {
		return
	}

	if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
		return
	}

	w.pendingMu.Lock()
	w.pending[name] |= event.Op
	w.pendingMu.Unlock()
}

func (w *Watcher) processDebounced(ctx context.Context) {
	ticker := time.NewTicker(w.debounceTime)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := w.Flush(ctx); err != nil {
				log.Error("Failed to reload knowledge base", "error", err)
			}
		}
	}
}

// Flush processes pending events and reloads once if any of them changed
// the corpus. It reports whether a reload ran.
func (w *Watcher) Flush(ctx context.Context) (bool, error) {
	w.pendingMu.Lock()
	if len(w.pending) == 0 {
		w.pendingMu.Unlock()
		return false, nil
	}
	events := w.pending
	w.pending = make(map[string]fsnotify.Op)
	w.pendingMu.Unlock()

	var changed []string
	for name := range events {
		if w.changed(name) {
			changed = append(changed, name)
		}
	}
	if len(changed) == 0 {
		log.Debug("Ignoring events with unchanged content", "files", len(events))
		return false, nil
	}
	sort.Strings(changed)

	if err := w.kb.Reload(ctx); err != nil {
		return false, err
	}

	log.Info("Knowledge base updated", "changed", changed)
	w.onReload(changed)
	return true, nil
}

// changed compares a file on disk with its indexed version.
func (w *Watcher) changed(name string) bool {
	indexed, ok := w.kb.Hash(name)

	raw, err := os.ReadFile(filepath.Join(w.dir, name))
	if err != nil {
		// removed, renamed away or unreadable
		return ok
	}

	return !ok || indexed != docstore.Hash(raw)
}

// Pending returns the number of files waiting for the next flush.
func (w *Watcher) Pending() int {
	w.pendingMu.Lock()
	defer w.pendingMu.Unlock()
	return len(w.pending)
}
