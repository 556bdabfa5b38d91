// Package watcher watches drop folders for spreadsheet files with fsnotify and debounces
// the events into ready/removed callbacks.
package watcher

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/hyperjump/extractify/pkg/utils"
	"go.uber.org/zap"
)

const defaultDebounce = 400 * time.Millisecond

// Watcher watches root directories and reports workbook files that settled after being
// created or written, and files that were removed.
type Watcher struct {
	roots       []string
	extensions  []string
	recursive   bool
	onReady     func(path string)
	onRemove    func(path string)
	debounce    time.Duration
	watcher     *fsnotify.Watcher
	mu          sync.Mutex
	debounceMap map[string]*time.Timer
	done        chan struct{} // closed by Stop; replaced on every Start
	started     bool
	logger      *zap.Logger
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithLogger sets a logger for debug output.
func WithLogger(l *zap.Logger) Option {
	return func(w *Watcher) { w.logger = utils.OrNop(l) }
}

// WithDebounce sets how long a file must stay quiet before onReady fires.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// New creates a watcher over roots. extensions filter which files are reported
// (empty = all). onReady runs once a created or written file has been quiet for the
// debounce interval; onRemove runs when a matching file is removed or renamed away.
// Either callback may be nil.
func New(roots []string, extensions []string, recursive bool, onReady, onRemove func(path string), opts ...Option) *Watcher {
	w := &Watcher{
		roots:       append([]string(nil), roots...),
		extensions:  extensions,
		recursive:   recursive,
		onReady:     onReady,
		onRemove:    onRemove,
		debounce:    defaultDebounce,
		debounceMap: make(map[string]*time.Timer),
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Start adds the roots, creating missing ones, and runs until ctx is cancelled or Stop
// is called. A stopped watcher can be started again.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.started {
		w.mu.Unlock()
		return nil
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		w.mu.Unlock()
		return err
	}
	w.watcher = fw
	w.started = true
	w.done = make(chan struct{})
	w.logger.Debug("watcher starting",
		zap.Strings("roots", w.roots),
		zap.Strings("extensions", w.extensions),
		zap.Bool("recursive", w.recursive))
	for _, root := range w.roots {
		if err := w.addRootLocked(root); err != nil {
			_ = fw.Close()
			w.watcher = nil
			w.started = false
			w.mu.Unlock()
			return err
		}
	}
	done := w.done
	w.mu.Unlock()
	go w.run(ctx, fw, done)
	return nil
}

func (w *Watcher) run(ctx context.Context, fw *fsnotify.Watcher, done chan struct{}) {
	for {
		select {
		case <-ctx.Done():
			w.mu.Lock()
			// A later Start may own the watcher by now.
			if w.done == done {
				w.stopLocked()
			}
			w.mu.Unlock()
			return
		case <-done:
			return
		case ev, ok := <-fw.Events:
			if !ok {
				return
			}
			w.handleEvent(ev)
		case err, ok := <-fw.Errors:
			if !ok {
				return
			}
			if err != nil {
				w.logger.Warn("watcher error", zap.Error(err))
			}
		}
	}
}

func (w *Watcher) handleEvent(ev fsnotify.Event) {
	path := ev.Name
	w.logger.Debug("watcher event", zap.String("op", ev.Op.String()), zap.String("path", path))
	switch {
	case ev.Has(fsnotify.Create) || ev.Has(fsnotify.Write):
		info, err := os.Stat(path)
		if err == nil && info.IsDir() {
			if ev.Has(fsnotify.Create) && w.recursive {
				w.handleNewDirectory(path)
			}
			return
		}
		if w.accepts(path) {
			w.debounceReady(path)
		}
	case ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename):
		w.cancelDebounce(path)
		if w.accepts(path) && w.onRemove != nil {
			w.onRemove(path)
		}
	}
}

// handleNewDirectory watches a directory created under a recursive root and reports the
// files already inside it.
func (w *Watcher) handleNewDirectory(dir string) {
	w.mu.Lock()
	fw := w.watcher
	w.mu.Unlock()
	if fw == nil {
		return
	}
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if err := fw.Add(path); err != nil {
				w.logger.Debug("watcher failed to add directory", zap.String("path", path), zap.Error(err))
			}
			return nil
		}
		if w.accepts(path) {
			w.debounceReady(path)
		}
		return nil
	})
}

func (w *Watcher) accepts(path string) bool {
	return MatchFile(path, w.extensions)
}

// MatchFile reports whether path names a workbook the watcher should handle: its
// extension is in extensions (case-insensitive, empty = any) and it is not a hidden file
// or an office lock file ("~$book.xlsx").
func MatchFile(path string, extensions []string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") || strings.HasPrefix(base, "~$") {
		return false
	}
	if len(extensions) == 0 {
		return true
	}
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(base)), ".")
	for _, e := range extensions {
		if strings.TrimPrefix(strings.ToLower(e), ".") == ext {
			return true
		}
	}
	return false
}

func (w *Watcher) debounceReady(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.debounceMap[path]; ok {
		t.Stop()
	}
	w.debounceMap[path] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.debounceMap, path)
		w.mu.Unlock()
		w.logger.Debug("watcher file ready", zap.String("path", path))
		if w.onReady != nil {
			w.onReady(path)
		}
	})
}

func (w *Watcher) cancelDebounce(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.debounceMap[path]; ok {
		t.Stop()
		delete(w.debounceMap, path)
	}
}

func (w *Watcher) addRootLocked(root string) error {
	root = filepath.Clean(root)
	if err := os.MkdirAll(root, 0755); err != nil {
		return err
	}
	if !w.recursive {
		return w.watcher.Add(root)
	}
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		return w.watcher.Add(path)
	})
}

// Directories returns a copy of the watched root directories.
func (w *Watcher) Directories() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]string(nil), w.roots...)
}

// ExistingFiles lists matching files already present under the roots, honoring the
// recursive setting. Call after Start to pick up files dropped while nothing was running.
func (w *Watcher) ExistingFiles() []string {
	w.mu.Lock()
	roots := append([]string(nil), w.roots...)
	exts := append([]string(nil), w.extensions...)
	recursive := w.recursive
	w.mu.Unlock()

	var files []string
	for _, root := range roots {
		root = filepath.Clean(root)
		_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return nil
			}
			if d.IsDir() {
				if path != root && !recursive {
					return filepath.SkipDir
				}
				return nil
			}
			if MatchFile(path, exts) {
				files = append(files, path)
			}
			return nil
		})
	}
	return files
}

// Stop stops the watcher and releases resources. Pending debounced files are dropped.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.stopLocked()
}

func (w *Watcher) stopLocked() {
	if !w.started || w.watcher == nil {
		return
	}
	for path, t := range w.debounceMap {
		t.Stop()
		delete(w.debounceMap, path)
	}
	_ = w.watcher.Close()
	w.watcher = nil
	w.started = false
	close(w.done)
}
