package viewer

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

// Watcher calls a reload function when a watched file is written or replaced.
// The parent directory is watched so editors that save by rename are still seen.
// Bursts of events are collapsed into one call after a quiet period.
type Watcher struct {
	mu       sync.Mutex
	fs       *fsnotify.Watcher
	path     string
	debounce time.Duration
	reload   func(path string)
	logger   *log.Logger
	timer    *time.Timer
	closed   bool
}

// NewWatcher starts watching path.
//
// Parameters:
//   - path: the file to watch
//   - debounce: the quiet period before reload is called
//   - reload: called with path after the file changes
//   - logger: the logger watch errors are written to
//
// Returns:
//   - *Watcher: the watcher; call Run to process events
//   - error: error if the watch cannot be established
func NewWatcher(path string, debounce time.Duration, reload func(path string), logger *log.Logger) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	fsWatch, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsWatch.Add(filepath.Dir(abs)); err != nil {
		fsWatch.Close()
		return nil, err
	}
	return &Watcher{
		fs:       fsWatch,
		path:     abs,
		debounce: debounce,
		reload:   reload,
		logger:   logger,
	}, nil
}

// Run processes file events until ctx is done or Close is called.
func (w *Watcher) Run(ctx context.Context) {
	for {
		select {
		case e, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if filepath.Clean(e.Name) != w.path {
				continue
			}
			// Handle create or modify events
			if e.Op&(fsnotify.Create|fsnotify.Write) != 0 {
				w.schedule()
			}

		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.logger.Error("file watch failed", "path", w.path, "err", err)

		case <-ctx.Done():
			w.Close()
			return
		}
	}
}

func (w *Watcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		closed := w.closed
		w.mu.Unlock()
		if !closed {
			w.reload(w.path)
		}
	})
}

// Close stops watching. It is safe to call more than once.
func (w *Watcher) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	w.closed = true
	if w.timer != nil {
		w.timer.Stop()
	}
	if err := w.fs.Close(); err != nil && !errors.Is(err, fsnotify.ErrClosed) {
		return err
	}
	return nil
}
