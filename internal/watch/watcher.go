package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// RunFunc performs one filter pass
type RunFunc func(ctx context.Context) error

// Watcher re-runs a filter pass whenever one of its input files changes
type Watcher struct {
	mu       sync.Mutex
	files    map[string]struct{}
	dirs     map[string]struct{}
	fw       *fsnotify.Watcher
	run      RunFunc
	debounce time.Duration
	logger   *zap.Logger
	trigger  chan struct{}
}

// New creates a watcher for the given files. Parent directories are watched
// so that editors replacing a file by rename are still noticed.
func New(files []string, debounce time.Duration, run RunFunc, logger *zap.Logger) (*Watcher, error) {
	if run == nil {
		return nil, fmt.Errorf("watch: run function is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	w := &Watcher{
		run:      run,
		debounce: debounce,
		logger:   logger,
		trigger:  make(chan struct{}, 1),
	}
	if err := w.SetFiles(files); err != nil {
		return nil, err
	}
	return w, nil
}

// SetFiles replaces the watched file set. While Run is active, directories
// that are no longer needed are dropped and new ones are added.
func (w *Watcher) SetFiles(files []string) error {
	nextFiles := make(map[string]struct{}, len(files))
	nextDirs := make(map[string]struct{}, len(files))
	for _, f := range files {
		abs, err := filepath.Abs(f)
		if err != nil {
			return fmt.Errorf("watch: resolve %s: %w", f, err)
		}
		nextFiles[abs] = struct{}{}
		nextDirs[filepath.Dir(abs)] = struct{}{}
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.fw != nil {
		for dir := range nextDirs {
			if _, ok := w.dirs[dir]; ok {
				continue
			}
			if err := w.fw.Add(dir); err != nil {
				return fmt.Errorf("watch: add %s: %w", dir, err)
			}
			w.logger.Debug("Watching directory", zap.String("dir", dir))
		}
		for dir := range w.dirs {
			if _, ok := nextDirs[dir]; ok {
				continue
			}
			if err := w.fw.Remove(dir); err != nil {
				w.logger.Warn("Failed to stop watching directory", zap.String("dir", dir), zap.Error(err))
			}
		}
	}

	w.files = nextFiles
	w.dirs = nextDirs
	return nil
}

// Files returns the watched files as sorted absolute paths.
func (w *Watcher) Files() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]string, 0, len(w.files))
	for f := range w.files {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

// Trigger schedules a run as if a watched file had changed.
func (w *Watcher) Trigger() {
	select {
	case w.trigger <- struct{}{}:
	default:
	}
}

// Run performs an initial pass, then one pass per burst of changes until ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	defer fw.Close()

	if err := w.attach(fw); err != nil {
		return err
	}
	defer w.detach()

	w.runOnce(ctx)

	timer := time.NewTimer(w.debounce)
	stopTimer(timer)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !w.relevant(ev) {
				continue
			}
			w.logger.Debug("Input changed", zap.String("file", ev.Name), zap.String("op", ev.Op.String()))
			stopTimer(timer)
			timer.Reset(w.debounce)
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("File watcher error", zap.Error(err))
		case <-w.trigger:
			stopTimer(timer)
			timer.Reset(w.debounce)
		case <-timer.C:
			w.runOnce(ctx)
		}
	}
}

func (w *Watcher) attach(fw *fsnotify.Watcher) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	for dir := range w.dirs {
		if err := fw.Add(dir); err != nil {
			return fmt.Errorf("watch: add %s: %w", dir, err)
		}
		w.logger.Debug("Watching directory", zap.String("dir", dir))
	}
	w.fw = fw
	return nil
}

func (w *Watcher) detach() {
	w.mu.Lock()
	w.fw = nil
	w.mu.Unlock()
}

func (w *Watcher) runOnce(ctx context.Context) {
	if err := w.run(ctx); err != nil {
		w.logger.Error("Filter run failed", zap.Error(err))
	}
}

func (w *Watcher) relevant(ev fsnotify.Event) bool {
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
		return false
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	_, ok := w.files[filepath.Clean(ev.Name)]
	return ok
}

func stopTimer(t *time.Timer) {
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
}
