package main

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/robfig/cron/v3"

	"wardrive/internal/config"
	"wardrive/internal/ingest"
	"wardrive/internal/scanlist"
)

// defaultDebounce coalesces the burst of Write events a copying tool
// emits while a scan file lands.
const defaultDebounce = 500 * time.Millisecond

var logf = log.Printf

// watcher couples an fsnotify watcher and an optional cron scheduler to
// one ingestion container. Every trigger funnels through the run loop, so
// file runs never overlap.
type watcher struct {
	c        *ingest.Container
	dirs     []string
	glob     string
	debounce time.Duration

	fsw    *fsnotify.Watcher
	cron   *cron.Cron
	done   chan struct{}
	single chan string
	sweeps chan []string

	mu      sync.Mutex
	pending map[string]*time.Timer
}

// newWatcher registers the configured directories and, when a cron spec
// is present, schedules sweeps. The caller drives it via run.
func newWatcher(c *ingest.Container, cfg config.Watch) (*watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	w := &watcher{
		c:        c,
		dirs:     cfg.Dirs,
		glob:     cfg.Glob,
		debounce: defaultDebounce,
		fsw:      fsw,
		done:     make(chan struct{}),
		single:   make(chan string),
		sweeps:   make(chan []string),
		pending:  make(map[string]*time.Timer),
	}
	if w.glob == "" {
		w.glob = scanlist.DefaultGlob
	}
	if cfg.DebounceMS > 0 {
		w.debounce = time.Duration(cfg.DebounceMS) * time.Millisecond
	}
	for _, d := range cfg.Dirs {
		if err := fsw.Add(d); err != nil {
			_ = fsw.Close()
			return nil, fmt.Errorf("watch %s: %w", d, err)
		}
	}
	if cfg.Cron != "" {
		w.cron = cron.New()
		if _, err := w.cron.AddFunc(cfg.Cron, w.sweep); err != nil {
			_ = fsw.Close()
			return nil, fmt.Errorf("cron spec %q: %w", cfg.Cron, err)
		}
	}
	return w, nil
}

// run pumps events and triggers until ctx is canceled, then shuts the
// watcher down. Pipeline runs happen here, one trigger at a time.
func (w *watcher) run(ctx context.Context) {
	if w.cron != nil {
		w.cron.Start()
	}
	for {
		select {
		case <-ctx.Done():
			w.shutdown()
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(ev)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			logf("watch: %v", err)
		case path := <-w.single:
			logf("watch: %s triggered", path)
			w.c.RunBatch(ctx, []string{path})
		case paths := <-w.sweeps:
			w.c.RunBatch(ctx, paths)
		}
	}
}

// handleEvent debounces Create/Write events per path; the timer fires
// once the file has settled for the debounce window.
func (w *watcher) handleEvent(ev fsnotify.Event) {
	if !ev.Op.Has(fsnotify.Create) && !ev.Op.Has(fsnotify.Write) {
		return
	}
	if !w.wanted(ev.Name) {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.pending[ev.Name]; ok {
		t.Stop()
	}
	path := ev.Name
	w.pending[path] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.pending, path)
		w.mu.Unlock()
		select {
		case w.single <- path:
		case <-w.done:
		}
	})
}

// wanted filters trigger paths: the name must match the glob and must not
// be one of the pipeline's own outputs, or repairing a file would trigger
// its repaired sibling forever.
func (w *watcher) wanted(path string) bool {
	base := filepath.Base(path)
	ok, err := filepath.Match(w.glob, base)
	if err != nil || !ok {
		return false
	}
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return !strings.HasSuffix(stem, "_fixed") && !strings.HasSuffix(stem, "_tidy")
}

// sweep collects every matching file under the watched directories and
// hands the batch to the run loop. Cron calls it from its own goroutine.
func (w *watcher) sweep() {
	var paths []string
	for _, d := range w.dirs {
		got, err := scanlist.ExpandDir(d, w.glob)
		if err != nil {
			logf("watch: sweep %s: %v", d, err)
			continue
		}
		for _, p := range got {
			if w.wanted(p) {
				paths = append(paths, p)
			}
		}
	}
	if len(paths) == 0 {
		return
	}
	logf("watch: sweep found %d files", len(paths))
	select {
	case w.sweeps <- paths:
	case <-w.done:
	}
}

// shutdown stops the cron scheduler, releases pending debounce timers,
// and closes the fsnotify watcher.
func (w *watcher) shutdown() {
	close(w.done)
	if w.cron != nil {
		w.cron.Stop()
	}
	w.mu.Lock()
	for p, t := range w.pending {
		t.Stop()
		delete(w.pending, p)
	}
	w.mu.Unlock()
	_ = w.fsw.Close()
}
