// Package watch triggers extraction when a saved task page lands in a
// watched directory. Only .html files whose name carries one of the
// configured keywords are handed to the processor, after a short settle
// delay so the browser finishes writing the snapshot.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Handler processes one detected snapshot file.
type Handler func(path string)

// Watcher observes one directory for task snapshots.
type Watcher struct {
	dir      string
	keywords []string
	settle   time.Duration
	handler  Handler

	busy atomic.Bool
}

// New creates a Watcher. keywords are matched case-insensitively against the
// file basename; an empty list accepts every .html file.
func New(dir string, keywords []string, settle time.Duration, handler Handler) *Watcher {
	lowered := make([]string, len(keywords))
	for i, k := range keywords {
		lowered[i] = strings.ToLower(k)
	}
	return &Watcher{dir: dir, keywords: lowered, settle: settle, handler: handler}
}

// Run watches until the context is canceled.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer fw.Close()

	if err := fw.Add(w.dir); err != nil {
		return fmt.Errorf("watching %s: %w", w.dir, err)
	}
	slog.Info("watching for task snapshots", "dir", w.dir, "keywords", w.keywords)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			w.maybeHandle(event.Name)
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			slog.Warn("watcher error", "error", err)
		}
	}
}

// maybeHandle filters the path and, when it qualifies, runs the handler on
// its own goroutine after the settle delay. One file at a time: events
// arriving while a file is processing are dropped, matching the original
// single-snapshot workflow.
func (w *Watcher) maybeHandle(path string) {
	if !w.matches(path) {
		return
	}
	if !w.busy.CompareAndSwap(false, true) {
		return
	}
	go func() {
		defer w.busy.Store(false)
		time.Sleep(w.settle)
		w.handler(path)
	}()
}

func (w *Watcher) matches(path string) bool {
	name := strings.ToLower(filepath.Base(path))
	if !strings.HasSuffix(name, ".html") {
		return false
	}
	if len(w.keywords) == 0 {
		return true
	}
	for _, k := range w.keywords {
		if strings.Contains(name, k) {
			return true
		}
	}
	return false
}
