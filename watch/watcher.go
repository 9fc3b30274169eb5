// Package watch re-runs validation when mapping or shape files change.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is used when no debounce delay is given.
const DefaultDebounce = 500 * time.Millisecond

// Watcher collects file changes under a set of paths and reports them in
// debounced batches.
type Watcher struct {
	fsw       *fsnotify.Watcher
	debounce  time.Duration
	extension string
	logger    *slog.Logger

	// files named explicitly; their parent directories are watched
	files map[string]bool
	// roots of recursively watched directories
	trees []string

	pendingMu sync.Mutex
	pending   map[string]fsnotify.Op
}

// New creates a watcher over paths. Directories are watched recursively and
// only files ending in extension are reported from them. Files named
// directly are always reported.
func New(paths []string, extension string, debounce time.Duration, logger *slog.Logger) (*Watcher, error) {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if logger == nil {
		logger = slog.Default()
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	w := &Watcher{
		fsw:       fsw,
		debounce:  debounce,
		extension: extension,
		logger:    logger,
		files:     make(map[string]bool),
		pending:   make(map[string]fsnotify.Op),
	}

	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			fsw.Close()
			return nil, fmt.Errorf("resolve %s: %w", p, err)
		}
		info, err := os.Stat(abs)
		if err != nil {
			fsw.Close()
			return nil, fmt.Errorf("watch %s: %w", p, err)
		}
		if info.IsDir() {
			w.trees = append(w.trees, abs)
			if err := w.addRecursive(abs); err != nil {
				fsw.Close()
				return nil, err
			}
			continue
		}
		// Editors often replace files by rename, which drops a watch on
		// the file itself.
		w.files[abs] = true
		if err := fsw.Add(filepath.Dir(abs)); err != nil {
			fsw.Close()
			return nil, fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
		}
	}
	return w, nil
}

// Close stops watching.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}

// Run calls fn with the sorted list of changed files each time changes
// settle. Calls never overlap. Run returns when ctx is done or the watcher
// is closed.
func (w *Watcher) Run(ctx context.Context, fn func(ctx context.Context, changed []string)) error {
	ticker := time.NewTicker(w.debounce)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("Watcher error", "error", err)

		case <-ticker.C:
			if changed := w.takePending(); len(changed) > 0 {
				fn(ctx, changed)
			}
		}
	}
}

func (w *Watcher) addRecursive(root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			return nil
		}
		if hidden(path) && path != root {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			w.logger.Warn("Failed to watch directory", "path", path, "error", err)
		} else {
			w.logger.Debug("Watching directory", "path", path)
		}
		return nil
	})
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	path := event.Name

	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			if !hidden(path) {
				if err := w.addRecursive(path); err != nil {
					w.logger.Warn("Failed to watch new directory", "path", path, "error", err)
				}
			}
			return
		}
	}

	if !w.files[path] && !w.inWatchedTree(path) {
		return
	}

	w.pendingMu.Lock()
	w.pending[path] |= event.Op
	w.pendingMu.Unlock()

	w.logger.Debug("Change detected", "path", path, "op", event.Op.String())
}

// inWatchedTree reports whether path is a document under a recursively
// watched directory. Parents of explicit files are watched too, so their
// other entries are filtered out here.
func (w *Watcher) inWatchedTree(path string) bool {
	if !strings.HasSuffix(path, w.extension) {
		return false
	}
	for _, root := range w.trees {
		if strings.HasPrefix(path, root+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

func (w *Watcher) takePending() []string {
	w.pendingMu.Lock()
	defer w.pendingMu.Unlock()

	if len(w.pending) == 0 {
		return nil
	}
	changed := make([]string, 0, len(w.pending))
	for path := range w.pending {
		changed = append(changed, path)
	}
	w.pending = make(map[string]fsnotify.Op)
	sort.Strings(changed)
	return changed
}

func hidden(path string) bool {
	base := filepath.Base(path)
	return strings.HasPrefix(base, ".") && base != "." && base != ".."
}
