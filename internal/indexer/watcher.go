package indexer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/sync/errgroup"
)

const (
	defaultDebounce  = 2 * time.Second
	defaultTickEvery = 500 * time.Millisecond
)

// Watcher refreshes the backend index once markdown changes in the vault have
// settled for the debounce delay. Bursts of edits collapse into one refresh.
type Watcher struct {
	indexer   *Indexer
	watcher   *fsnotify.Watcher
	pending   map[string]time.Time
	mu        sync.Mutex
	onMessage func(string)

	debounce  time.Duration
	tickEvery time.Duration
}

func NewWatcher(indexer *Indexer) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	return &Watcher{
		indexer:   indexer,
		watcher:   fsw,
		pending:   make(map[string]time.Time),
		debounce:  defaultDebounce,
		tickEvery: defaultTickEvery,
	}, nil
}

func (w *Watcher) SetMessageHandler(fn func(string)) {
	w.onMessage = fn
}

// SetDebounce changes how long changes must settle before a refresh.
func (w *Watcher) SetDebounce(d time.Duration) {
	w.debounce = d
	if d/4 < w.tickEvery {
		w.tickEvery = max(d/4, time.Millisecond)
	}
}

// Start watches the vault until ctx is done, then closes the watcher.
func (w *Watcher) Start(ctx context.Context) error {
	defer w.watcher.Close() //nolint:errcheck

	if err := w.addWatchRecursive(w.indexer.dir); err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return w.processEvents(ctx) })
	g.Go(func() error { return w.processPending(ctx) })

	w.message(fmt.Sprintf("Watching %s for changes...", w.indexer.dir))

	return g.Wait()
}

func (w *Watcher) addWatchRecursive(dir string) error {
	return filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if info.IsDir() {
			if path != dir && isHiddenDir(info.Name()) {
				return filepath.SkipDir
			}
			return w.watcher.Add(path)
		}

		return nil
	})
}

func (w *Watcher) processEvents(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.message(fmt.Sprintf("Watch error: %v", err))
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	relPath, err := filepath.Rel(w.indexer.dir, event.Name)
	if err != nil || strings.HasPrefix(relPath, "..") || isHiddenRelPath(relPath) {
		return
	}

	if event.Op&fsnotify.Create == fsnotify.Create {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.addWatchRecursive(event.Name); err != nil {
				w.message(fmt.Sprintf("Watch error: %v", err))
			}
			return
		}
	}

	if !isMarkdownFile(event.Name) {
		return
	}

	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	w.pending[relPath] = time.Now()
	w.message(fmt.Sprintf("Detected change: %s", relPath))
}

func (w *Watcher) processPending(ctx context.Context) error {
	ticker := time.NewTicker(w.tickEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			w.flushPending(ctx)
		}
	}
}

// flushPending refreshes once every pending change is older than the
// debounce delay.
func (w *Watcher) flushPending(ctx context.Context) {
	w.mu.Lock()
	if len(w.pending) == 0 {
		w.mu.Unlock()
		return
	}
	now := time.Now()
	for _, timestamp := range w.pending {
		if now.Sub(timestamp) < w.debounce {
			w.mu.Unlock()
			return
		}
	}
	changed := len(w.pending)
	w.pending = make(map[string]time.Time)
	w.mu.Unlock()

	w.message(fmt.Sprintf("Refreshing index (%d changed)", changed))
	p := w.indexer.Refresh(ctx, "watch")
	if p.Err != nil {
		w.message(fmt.Sprintf("Error refreshing index: %v", p.Err))
		return
	}
	w.message(fmt.Sprintf("Index refreshed in %s", p.Elapsed.Round(time.Millisecond)))
}

func (w *Watcher) message(msg string) {
	if w.onMessage != nil {
		w.onMessage(msg)
	} else {
		fmt.Println(msg)
	}
}
