package watcher

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/samber/lo"

	"github.com/0xmhha/token-cost/pkg/discovery"
	"github.com/0xmhha/token-cost/pkg/logger"
)

// watcher implements the Watcher interface using fsnotify.
type watcher struct {
	fsw    *fsnotify.Watcher
	logger logger.Logger
	config Config

	changes chan Change
	errors  chan error

	mu      sync.Mutex
	running bool
	closed  bool
	stop    chan struct{}
	done    chan struct{}
}

// New creates a new file system watcher.
func New(cfg Config, log logger.Logger) (Watcher, error) {
	if cfg.DebounceInterval < 0 {
		cfg.DebounceInterval = 0
	}
	if cfg.CircuitBreakerThreshold <= 0 {
		cfg.CircuitBreakerThreshold = 5
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	return &watcher{
		fsw:     fsw,
		logger:  log,
		config:  cfg,
		changes: make(chan Change),
		errors:  make(chan error, 10),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}, nil
}

// Start implements Watcher.Start.
func (w *watcher) Start(ctx context.Context, root string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return ErrWatcherClosed
	}
	if w.running {
		return ErrAlreadyStarted
	}

	root = discovery.ExpandHome(root)
	info, err := os.Stat(root)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidPath, root, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", ErrInvalidPath, root)
	}

	if err := w.addRecursive(root); err != nil {
		return fmt.Errorf("failed to watch %s: %w", root, err)
	}

	w.running = true
	go w.loop(ctx)

	w.logger.Debug("watcher started",
		"root", root,
		"debounce", w.config.DebounceInterval)

	return nil
}

// Changes implements Watcher.Changes.
func (w *watcher) Changes() <-chan Change {
	return w.changes
}

// Errors implements Watcher.Errors.
func (w *watcher) Errors() <-chan error {
	return w.errors
}

// Close implements Watcher.Close.
func (w *watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	running := w.running
	close(w.stop)
	w.mu.Unlock()

	if running {
		<-w.done
	} else {
		close(w.changes)
		close(w.errors)
	}

	if err := w.fsw.Close(); err != nil {
		return fmt.Errorf("failed to close watcher: %w", err)
	}

	w.logger.Debug("watcher closed")
	return nil
}

// loop owns the output channels and closes them on exit.
func (w *watcher) loop(ctx context.Context) {
	defer close(w.done)
	defer close(w.errors)
	defer close(w.changes)

	var (
		pending  = make(map[string]Op)
		ready    = make(map[string]Op)
		timer    *time.Timer
		timerC   <-chan time.Time
		out      chan<- Change
		failures int
	)

	for {
		// out is non-nil only while a batch waits for a receiver.
		var batch Change
		if out != nil {
			batch = newChange(ready)
		}

		select {
		case <-ctx.Done():
			w.logger.Debug("watcher stopped", "reason", "context cancelled")
			return

		case <-w.stop:
			w.logger.Debug("watcher stopped", "reason", "closed")
			return

		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			failures = 0
			if !w.handleEvent(event, pending) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.config.DebounceInterval)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.config.DebounceInterval)
			}
			timerC = timer.C

		case <-timerC:
			timerC = nil
			for path, op := range pending {
				ready[path] |= op
			}
			pending = make(map[string]Op)
			out = w.changes

		case out <- batch:
			out = nil
			ready = make(map[string]Op)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			failures++
			w.logger.Warn("fsnotify error",
				"error", err,
				"failure_count", failures)

			if failures >= w.config.CircuitBreakerThreshold {
				w.logger.Error("circuit breaker opened, watcher stopping",
					"threshold", w.config.CircuitBreakerThreshold)
				w.sendError(ErrCircuitBreakerOpen)
				return
			}
			w.sendError(err)
		}
	}
}

// handleEvent records a relevant event in pending. New directories are
// added to the watch list. Reports whether the event was recorded.
func (w *watcher) handleEvent(event fsnotify.Event, pending map[string]Op) bool {
	op := convertOp(event.Op)
	if op == 0 {
		return false
	}

	if op&OpCreate != 0 {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.addRecursive(event.Name); err != nil {
				w.logger.Warn("failed to watch new directory",
					"path", event.Name,
					"error", err)
			}
			pending[event.Name] |= op
			return true
		}
	}

	if !strings.HasSuffix(event.Name, ".jsonl") {
		return false
	}

	pending[event.Name] |= op
	return true
}

func (w *watcher) sendError(err error) {
	select {
	case w.errors <- err:
	default:
		w.logger.Warn("error channel full, dropping error", "error", err)
	}
}

// addRecursive adds dir and all of its subdirectories.
func (w *watcher) addRecursive(dir string) error {
	if err := w.fsw.Add(dir); err != nil {
		return err
	}

	return filepath.WalkDir(dir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			w.logger.Warn("error walking path",
				"path", path,
				"error", err)
			return nil
		}
		if !entry.IsDir() || path == dir {
			return nil
		}

		if addErr := w.fsw.Add(path); addErr != nil {
			w.logger.Warn("failed to add subdirectory",
				"path", path,
				"error", addErr)
		}
		return nil
	})
}

func convertOp(op fsnotify.Op) Op {
	var out Op
	if op.Has(fsnotify.Create) {
		out |= OpCreate
	}
	if op.Has(fsnotify.Write) {
		out |= OpWrite
	}
	if op.Has(fsnotify.Remove) {
		out |= OpRemove
	}
	if op.Has(fsnotify.Rename) {
		out |= OpRename
	}
	if op.Has(fsnotify.Chmod) {
		out |= OpChmod
	}
	return out
}

func newChange(paths map[string]Op) Change {
	keys := lo.Keys(paths)
	sort.Strings(keys)

	var ops Op
	for _, op := range paths {
		ops |= op
	}

	return Change{Paths: keys, Ops: ops, At: time.Now()}
}
