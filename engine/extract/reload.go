package extract

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
)

// Provider hands the pipeline its current Extractor. Indirection exists so
// the pattern set can be swapped under a running server.
type Provider interface {
	Current() *Extractor
}

// Static is a Provider with a fixed Extractor, used when no config file is
// given and in tests.
type Static struct{ E *Extractor }

func (s Static) Current() *Extractor { return s.E }

// Reloader watches a YAML config file and recompiles the Extractor when it
// changes. A file that fails to load or compile keeps the previous
// Extractor in place.
type Reloader struct {
	path    string
	log     *slog.Logger
	watcher *fsnotify.Watcher
	cur     atomic.Pointer[Extractor]
	done    chan struct{}
}

// NewReloader loads path once and starts watching it. The watch covers the
// parent directory because most editors and config mounts replace the file
// instead of writing it in place.
func NewReloader(path string, log *slog.Logger) (*Reloader, error) {
	if log == nil {
		log = slog.Default()
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}
	ex, err := New(cfg, log)
	if err != nil {
		return nil, err
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("extract: watcher: %w", err)
	}
	if err := w.Add(filepath.Dir(path)); err != nil {
		w.Close()
		return nil, fmt.Errorf("extract: watch %s: %w", path, err)
	}

	r := &Reloader{path: path, log: log, watcher: w, done: make(chan struct{})}
	r.cur.Store(ex)
	go r.loop()
	return r, nil
}

// Current returns the active Extractor. Safe for concurrent use.
func (r *Reloader) Current() *Extractor { return r.cur.Load() }

// Close stops the watcher.
func (r *Reloader) Close() error {
	close(r.done)
	return r.watcher.Close()
}

func (r *Reloader) loop() {
	for {
		select {
		case <-r.done:
			return
		case ev, ok := <-r.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != filepath.Clean(r.path) {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			r.reload()
		case err, ok := <-r.watcher.Errors:
			if !ok {
				return
			}
			r.log.Warn("extract: watcher error", "err", err)
		}
	}
}

func (r *Reloader) reload() {
	cfg, err := LoadConfig(r.path)
	if err != nil {
		r.log.Warn("extract: reload skipped", "path", r.path, "err", err)
		return
	}
	ex, err := New(cfg, r.log)
	if err != nil {
		r.log.Warn("extract: reload skipped", "path", r.path, "err", err)
		return
	}
	r.cur.Store(ex)
	r.log.Info("extract: pattern config reloaded", "path", r.path, "fields", len(cfg.Fields))
}
