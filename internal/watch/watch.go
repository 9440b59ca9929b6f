// Package watch reports changes to a fixed set of files.
//
// Directories are watched rather than the files themselves, so editors
// that save by writing a temporary file and renaming it over the original
// are seen as a change to the original path.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet period that must follow the last change
// before a callback.
const DefaultDebounce = 100 * time.Millisecond

// Config configures a Watcher.
type Config struct {
	// Paths are the files to watch.
	Paths []string

	// Debounce is how long the watched files must stay unchanged before
	// the pending batch is reported. Zero means DefaultDebounce.
	Debounce time.Duration

	// Logger for logging events. Nil means slog.Default().
	Logger *slog.Logger
}

// Watcher batches file change events.
type Watcher struct {
	fsw      *fsnotify.Watcher
	files    map[string]struct{} // absolute, cleaned
	debounce time.Duration
	logger   *slog.Logger

	pendingMu sync.Mutex
	pending   map[string]struct{}
}

// New creates a watcher for cfg.Paths. Every parent directory must exist.
func New(cfg Config) (*Watcher, error) {
	if len(cfg.Paths) == 0 {
		return nil, fmt.Errorf("watch: no paths")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	debounce := cfg.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: %w", err)
	}
	w := &Watcher{
		fsw:      fsw,
		files:    make(map[string]struct{}, len(cfg.Paths)),
		debounce: debounce,
		logger:   logger,
		pending:  make(map[string]struct{}),
	}

	dirs := make(map[string]struct{})
	for _, p := range cfg.Paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			fsw.Close()
			return nil, fmt.Errorf("watch: %w", err)
		}
		w.files[abs] = struct{}{}
		dirs[filepath.Dir(abs)] = struct{}{}
	}
	for dir := range dirs {
		if err := fsw.Add(dir); err != nil {
			fsw.Close()
			return nil, fmt.Errorf("watch %s: %w", dir, err)
		}
		logger.Debug("watching directory", "path", dir)
	}
	return w, nil
}

// Run delivers batches of changed paths to onChange until ctx is done.
// Every accepted event restarts the quiet period, so a file that is still
// being written is reported once, after its last write. Paths are absolute
// and sorted. onChange runs on the Run goroutine, so changes made while it
// runs are reported in the next batch.
func (w *Watcher) Run(ctx context.Context, onChange func(paths []string)) error {
	quiet := time.NewTimer(w.debounce)
	quiet.Stop()
	defer quiet.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if w.handle(event) {
				quiet.Reset(w.debounce)
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("watcher error", "error", err)

		case <-quiet.C:
			if batch := w.flush(); len(batch) > 0 {
				onChange(batch)
			}
		}
	}
}

// Close releases the underlying watches.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}

// handle records a change to a watched file and reports whether the
// event was accepted.
func (w *Watcher) handle(event fsnotify.Event) bool {
	path := filepath.Clean(event.Name)
	if _, ok := w.files[path]; !ok {
		return false
	}
	// A removal alone leaves nothing to compile; the following create
	// from a rename-over save is what gets reported.
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
		return false
	}

	w.pendingMu.Lock()
	w.pending[path] = struct{}{}
	w.pendingMu.Unlock()

	w.logger.Debug("file change detected", "path", path, "op", event.Op.String())
	return true
}

func (w *Watcher) flush() []string {
	w.pendingMu.Lock()
	defer w.pendingMu.Unlock()
	if len(w.pending) == 0 {
		return nil
	}
	out := make([]string, 0, len(w.pending))
	for p := range w.pending {
		out = append(out, p)
	}
	clear(w.pending)
	sort.Strings(out)
	return out
}
