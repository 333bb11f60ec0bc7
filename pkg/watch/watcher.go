// Package watch re-scans source files when they change on disk.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/pradeepp3/CODATS/pkg/language"
	"github.com/pradeepp3/CODATS/pkg/scanner"
)

// DefaultDebounceInterval is the quiet period before changed files are scanned.
const DefaultDebounceInterval = 300 * time.Millisecond

// skipDirs are never descended into.
var skipDirs = map[string]bool{
	"node_modules": true,
	"vendor":       true,
	"dist":         true,
	"build":        true,
}

// Config holds configuration for the watcher.
type Config struct {
	// Paths are the files and directories to watch.
	Paths []string

	// Recursive also watches subdirectories of directory paths.
	Recursive bool

	// DebounceInterval is the time to wait after the last change before scanning.
	DebounceInterval time.Duration

	// Language overrides extension-based language detection.
	Language string

	// MaxCodeLength limits scanned files, in characters.
	MaxCodeLength int

	// OnResult is called for every scanned file. err is set when the file
	// could not be read or was rejected.
	OnResult func(path string, result *scanner.Result, err error)

	// OnError is called when the underlying file watcher fails.
	OnError func(err error)

	Logger *zap.SugaredLogger
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Recursive:        true,
		DebounceInterval: DefaultDebounceInterval,
		MaxCodeLength:    scanner.DefaultMaxCodeLength,
	}
}

// Watcher monitors source files and scans them after they change.
type Watcher struct {
	config  Config
	engine  *scanner.Engine
	watcher *fsnotify.Watcher
	logger  *zap.SugaredLogger

	// files are explicitly watched files. scanDirs are directories whose
	// supported files are all scanned. dirs are all directories registered
	// with fsnotify, including the parents of explicit files.
	files    map[string]bool
	scanDirs map[string]bool
	dirs     map[string]bool

	stopCh  chan struct{}
	doneCh  chan struct{}
	mu      sync.Mutex
	running bool
}

// New creates a new watcher.
func New(engine *scanner.Engine, config Config) (*Watcher, error) {
	if engine == nil {
		return nil, errors.New("watch: engine is required")
	}
	if len(config.Paths) == 0 {
		return nil, errors.New("watch: at least one path is required")
	}
	if config.DebounceInterval <= 0 {
		config.DebounceInterval = DefaultDebounceInterval
	}
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: %w", err)
	}

	return &Watcher{
		config:   config,
		engine:   engine,
		watcher:  fsWatcher,
		logger:   logger,
		files:    make(map[string]bool),
		scanDirs: make(map[string]bool),
		dirs:     make(map[string]bool),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}, nil
}

// Start registers the configured paths and begins watching for changes.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}

	for _, p := range w.config.Paths {
		if err := w.addPath(p); err != nil {
			w.mu.Unlock()
			return err
		}
	}
	w.running = true
	w.mu.Unlock()

	w.logger.Infow("Watching for changes", "paths", w.config.Paths, "recursive", w.config.Recursive)

	go w.watchLoop(ctx)
	return nil
}

// Stop stops the watcher.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return w.watcher.Close()
	}
	w.running = false
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh
	return w.watcher.Close()
}

// Done is closed when the watch loop exits.
func (w *Watcher) Done() <-chan struct{} {
	return w.doneCh
}

// WatchedDirs returns the watched directories in sorted order.
func (w *Watcher) WatchedDirs() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	dirs := make([]string, 0, len(w.dirs))
	for d := range w.dirs {
		dirs = append(dirs, d)
	}
	sort.Strings(dirs)
	return dirs
}

func (w *Watcher) addPath(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}

	if !info.IsDir() {
		w.files[abs] = true
		return w.addDir(filepath.Dir(abs), false)
	}
	if !w.config.Recursive {
		return w.addDir(abs, true)
	}
	return w.addTree(abs)
}

func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if p != root && SkipDir(d.Name()) {
			return filepath.SkipDir
		}
		return w.addDir(p, true)
	})
}

func (w *Watcher) addDir(dir string, scanAll bool) error {
	if scanAll {
		w.scanDirs[dir] = true
	}
	if w.dirs[dir] {
		return nil
	}
	if err := w.watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	w.dirs[dir] = true
	return nil
}

// SkipDir reports whether a directory name is excluded from recursive
// scanning and watching.
func SkipDir(name string) bool {
	return skipDirs[name] || (strings.HasPrefix(name, ".") && name != "." && name != "..")
}

// wants reports whether an event for path should trigger a scan.
func (w *Watcher) wants(path string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.files[path] {
		return true
	}
	if !w.scanDirs[filepath.Dir(path)] {
		return false
	}
	return w.config.Language != "" || language.IsSupportedFile(path)
}

// watchLoop is the main event loop for the watcher.
func (w *Watcher) watchLoop(ctx context.Context) {
	defer close(w.doneCh)

	var debounceTimer *time.Timer
	var debounceCh <-chan time.Time
	pending := make(map[string]bool)

	stopTimer := func() {
		if debounceTimer != nil {
			debounceTimer.Stop()
		}
	}

	for {
		select {
		case <-ctx.Done():
			stopTimer()
			return

		case <-w.stopCh:
			stopTimer()
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}

			if event.Op&fsnotify.Create != 0 && w.config.Recursive {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() && !SkipDir(filepath.Base(event.Name)) {
					w.mu.Lock()
					err := w.addTree(event.Name)
					w.mu.Unlock()
					if err != nil {
						w.reportError(err)
					}
					continue
				}
			}

			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 || !w.wants(event.Name) {
				continue
			}

			// Debounce: reset timer on each event
			pending[event.Name] = true
			stopTimer()
			debounceTimer = time.NewTimer(w.config.DebounceInterval)
			debounceCh = debounceTimer.C

		case <-debounceCh:
			paths := make([]string, 0, len(pending))
			for p := range pending {
				paths = append(paths, p)
			}
			sort.Strings(paths)
			pending = make(map[string]bool)
			debounceCh = nil

			for _, p := range paths {
				w.scan(ctx, p)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.reportError(err)
		}
	}
}

func (w *Watcher) scan(ctx context.Context, path string) {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return
	}

	result, err := w.engine.ScanFile(ctx, path, w.config.Language, w.config.MaxCodeLength)
	if err != nil {
		w.logger.Warnw("Scan failed", "path", path, "error", err)
	} else {
		w.logger.Debugw("File scanned",
			"path", path,
			"findings", result.TotalVulnerabilities,
			"risk", result.RiskScore,
		)
	}

	if w.config.OnResult != nil {
		w.config.OnResult(path, result, err)
	}
}

func (w *Watcher) reportError(err error) {
	w.logger.Warnw("Watcher error", "error", err)
	if w.config.OnError != nil {
		w.config.OnError(err)
	}
}
