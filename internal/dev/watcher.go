package dev

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"
)

// ChangeType represents the type of file change.
type ChangeType int

const (
	ChangeAdd ChangeType = iota
	ChangeWrite
	ChangeRemove
)

// String returns the event name: add, change or unlink.
func (t ChangeType) String() string {
	switch t {
	case ChangeAdd:
		return "add"
	case ChangeWrite:
		return "change"
	case ChangeRemove:
		return "unlink"
	default:
		return "unknown"
	}
}

// Change represents a detected file change.
type Change struct {
	Path  string
	Type  ChangeType
	IsDir bool
}

// WatcherConfig configures the file watcher.
type WatcherConfig struct {
	// Paths are the directories to watch, recursively.
	Paths []string

	// Ignore holds doublestar patterns matched below each watched path,
	// e.g. "node_modules", "*.test.tsx" or "pages/@legacy".
	Ignore []string

	// Debounce is how long changes are collected before they are reported.
	Debounce time.Duration

	// Logger receives watcher errors.
	Logger *slog.Logger
}

// DefaultIgnore contains default patterns to ignore.
var DefaultIgnore = []string{
	".git",
	"node_modules",
	"*.tmp",
	"*.swp",
	"*~",
	".DS_Store",
}

// Watcher monitors directory trees for changes and reports them in batches.
type Watcher struct {
	config   WatcherConfig
	onChange func([]Change)
	mu       sync.Mutex
	running  bool
	stopCh   chan struct{}
	ready    chan struct{}
	once     sync.Once
	err      error
	fsw      *fsnotify.Watcher
}

// NewWatcher creates a new file watcher.
func NewWatcher(config WatcherConfig) *Watcher {
	if config.Debounce <= 0 {
		config.Debounce = 100 * time.Millisecond
	}
	if len(config.Ignore) == 0 {
		config.Ignore = DefaultIgnore
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	return &Watcher{config: config, ready: make(chan struct{})}
}

// Ready is closed once the initial directories are being watched, or once
// Start has failed to set the watch up. Err tells the two apart.
func (w *Watcher) Ready() <-chan struct{} {
	return w.ready
}

// Err returns the error that stopped Start from watching, if any.
func (w *Watcher) Err() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.err
}

// fail records a setup error and releases Ready waiters.
func (w *Watcher) fail(err error) error {
	w.mu.Lock()
	w.err = err
	w.mu.Unlock()
	w.once.Do(func() { close(w.ready) })
	return err
}

// OnChange sets the callback for change batches. The callback runs on the
// watcher goroutine; batches are never delivered concurrently.
func (w *Watcher) OnChange(fn func([]Change)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onChange = fn
}

// Start watches until ctx is done or Stop is called. It returns once the
// watch is torn down.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		w.mu.Unlock()
		return w.fail(err)
	}
	w.fsw = fsw
	w.running = true
	w.stopCh = make(chan struct{})
	stopCh := w.stopCh
	w.mu.Unlock()

	defer fsw.Close()

	for _, root := range w.config.Paths {
		if err := w.addTree(root, nil); err != nil {
			w.Stop()
			return w.fail(err)
		}
	}
	w.once.Do(func() { close(w.ready) })

	var (
		pending []Change
		index   = make(map[string]int)
		timer   *time.Timer
		fire    <-chan time.Time
	)
	record := func(c Change) {
		if i, ok := index[c.Path]; ok {
			// The latest event for a path wins, e.g. add then unlink.
			pending[i] = c
			return
		}
		index[c.Path] = len(pending)
		pending = append(pending, c)
		if timer == nil {
			timer = time.NewTimer(w.config.Debounce)
		} else {
			timer.Reset(w.config.Debounce)
		}
		fire = timer.C
	}

	for {
		select {
		case <-ctx.Done():
			w.Stop()
			return ctx.Err()
		case <-stopCh:
			return nil
		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			for _, c := range w.translate(event) {
				record(c)
			}
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.config.Logger.Warn("watch error", "error", err)
		case <-fire:
			fire = nil
			batch := pending
			pending = nil
			index = make(map[string]int)
			w.deliver(batch)
		}
	}
}

// translate turns one fsnotify event into changes. A new directory is added to
// the watch and every file already inside it is reported as added, since
// files created together with their directory raise no events of their own.
func (w *Watcher) translate(event fsnotify.Event) []Change {
	p := filepath.Clean(event.Name)
	if w.shouldIgnore(p) {
		return nil
	}

	switch {
	case event.Has(fsnotify.Create):
		info, err := os.Stat(p)
		if err != nil {
			return nil
		}
		if !info.IsDir() {
			return []Change{{Path: p, Type: ChangeAdd}}
		}
		changes := []Change{{Path: p, Type: ChangeAdd, IsDir: true}}
		if err := w.addTree(p, &changes); err != nil {
			w.config.Logger.Warn("watch error", "path", p, "error", err)
		}
		return changes
	case event.Has(fsnotify.Write):
		return []Change{{Path: p, Type: ChangeWrite}}
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		// fsnotify drops removed directories from the watch list by itself.
		return []Change{{Path: p, Type: ChangeRemove}}
	}
	return nil
}

// addTree adds root and every non-ignored directory below it to the watch.
// When found is not nil, regular files met on the way are appended as adds.
func (w *Watcher) addTree(root string, found *[]Change) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p == root {
				return err
			}
			return nil
		}
		if w.shouldIgnore(p) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return w.fsw.Add(p)
		}
		if found != nil && p != root {
			*found = append(*found, Change{Path: p, Type: ChangeAdd})
		}
		return nil
	})
}

func (w *Watcher) deliver(batch []Change) {
	w.mu.Lock()
	callback := w.onChange
	w.mu.Unlock()

	if callback == nil || len(batch) == 0 {
		return
	}
	callback(batch)
}

// Stop stops the watcher.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		close(w.stopCh)
		w.running = false
	}
}

// shouldIgnore reports whether p matches an ignore pattern. Patterns are
// doublestar globs matched below the watch root containing p, so a pattern
// never matches a folder above the watched tree. A pattern without "/"
// matches any single segment; one with "/" matches any run of segments.
func (w *Watcher) shouldIgnore(p string) bool {
	rel := w.relative(p)
	if rel == "." {
		return false
	}
	segments := strings.Split(rel, "/")

	for _, pattern := range w.config.Ignore {
		pattern = filepath.ToSlash(strings.TrimSpace(pattern))
		if pattern == "" {
			continue
		}
		if !strings.Contains(pattern, "/") {
			for _, segment := range segments {
				if ok, _ := doublestar.Match(pattern, segment); ok {
					return true
				}
			}
			continue
		}
		if matchesSubpath(pattern, segments) {
			return true
		}
	}
	return false
}

// relative returns p below the first watch root containing it, in slash form.
func (w *Watcher) relative(p string) string {
	for _, root := range w.config.Paths {
		rel, err := filepath.Rel(filepath.Clean(root), p)
		if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			continue
		}
		return filepath.ToSlash(rel)
	}
	return strings.TrimPrefix(filepath.ToSlash(filepath.Clean(p)), "/")
}

func matchesSubpath(pattern string, segments []string) bool {
	for i := range segments {
		for j := i + 1; j <= len(segments); j++ {
			if ok, _ := doublestar.Match(pattern, strings.Join(segments[i:j], "/")); ok {
				return true
			}
		}
	}
	return false
}

// IsRunning returns whether the watcher is running.
func (w *Watcher) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}
