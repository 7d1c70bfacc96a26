package upload

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"time"

	"github.com/franz/score-librarian/internal/util"
	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long a file must stay unchanged before it is handled
const DefaultDebounce = 2 * time.Second

// Watcher reports PDFs that appear in a drop folder once they stop changing.
// Files are handed to the handler one at a time, in path order.
type Watcher struct {
	dir      string
	debounce time.Duration
	handle   func(ctx context.Context, path string) error
}

// NewWatcher creates a watcher for dir. handle is called for every settled PDF.
func NewWatcher(dir string, debounce time.Duration, handle func(ctx context.Context, path string) error) *Watcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{dir: dir, debounce: debounce, handle: handle}
}

// Run watches until ctx is cancelled. Handler errors are logged and do not
// stop the watcher; a handler returning a context or session error does.
func (w *Watcher) Run(ctx context.Context, stopOn func(error) bool) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer fsw.Close()

	if err := fsw.Add(w.dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.dir, err)
	}
	util.InfoLog("Watching %s for new PDFs", w.dir)

	pending := map[string]time.Time{}
	tick := time.NewTicker(w.debounce / 4)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) {
				if ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename) {
					delete(pending, ev.Name)
				}
				continue
			}
			if !IsPDFName(ev.Name) || filepath.Base(ev.Name)[0] == '.' {
				continue
			}
			pending[ev.Name] = time.Now()

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			util.WarnLog("Watcher error: %v", err)

		case now := <-tick.C:
			var ready []string
			for path, last := range pending {
				if now.Sub(last) >= w.debounce {
					ready = append(ready, path)
				}
			}
			sort.Strings(ready)
			for _, path := range ready {
				delete(pending, path)
				util.DebugLog("Watcher: %s settled", path)
				if err := w.handle(ctx, path); err != nil {
					if stopOn != nil && stopOn(err) {
						return err
					}
					util.ErrorLog("Failed to handle %s: %v", path, err)
				}
			}
		}
	}
}
