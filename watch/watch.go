// Package watch re-runs an action when watched files change.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("lvglgen.watch")

// DefaultDebounce is how long a file must be quiet before the action runs.
const DefaultDebounce = 300 * time.Millisecond

// Func is called with the settled paths, sorted.
type Func func(ctx context.Context, changed []string)

// Watcher watches a fixed set of files. Their parent directories are
// watched so that editors replacing a file through rename are noticed.
type Watcher struct {
	files    map[string]bool
	debounce time.Duration
	fn       Func

	mu      sync.Mutex
	pending map[string]time.Time
}

// New creates a Watcher for paths. A debounce of zero or less means
// DefaultDebounce.
func New(paths []string, debounce time.Duration, fn Func) (*Watcher, error) {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	w := &Watcher{
		files:    make(map[string]bool, len(paths)),
		debounce: debounce,
		fn:       fn,
		pending:  make(map[string]time.Time),
	}
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, fmt.Errorf("resolving %s: %w", p, err)
		}
		w.files[abs] = true
	}
	return w, nil
}

// Run blocks until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer fw.Close()

	dirs := map[string]bool{}
	for f := range w.files {
		dirs[filepath.Dir(f)] = true
	}
	for dir := range dirs {
		if err := fw.Add(dir); err != nil {
			return fmt.Errorf("watching %s: %w", dir, err)
		}
		log.Debugf("watching directory %s", dir)
	}

	tick := max(w.debounce/3, 10*time.Millisecond)
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			w.handle(event)

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			log.Errorf("watch error: %s", err)

		case <-ticker.C:
			if settled := w.settled(time.Now()); len(settled) > 0 {
				w.fn(ctx, settled)
			}
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
		return
	}
	name, err := filepath.Abs(event.Name)
	if err != nil || !w.files[name] {
		return
	}
	log.Debugf("%s: %s", event.Op, name)

	w.mu.Lock()
	w.pending[name] = time.Now()
	w.mu.Unlock()
}

// settled removes and returns the paths that have been quiet for the
// debounce window.
func (w *Watcher) settled(now time.Time) []string {
	w.mu.Lock()
	defer w.mu.Unlock()

	var out []string
	for path, at := range w.pending {
		if now.Sub(at) >= w.debounce {
			out = append(out, path)
			delete(w.pending, path)
		}
	}
	sort.Strings(out)
	return out
}
