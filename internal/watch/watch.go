// Package watch observes a single source file for edits. Changes feed the
// preview session's activity tracking; they never trigger reloads (the dev
// server has its own hot-reload channel to the rendered page).
package watch

import (
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce coalesces editor save bursts (write + rename + chmod)
// into one change notification.
const DefaultDebounce = 200 * time.Millisecond

// Watcher reports debounced modifications of one file.
type Watcher struct {
	fs     *fsnotify.Watcher
	path   string
	logger *slog.Logger
}

// New starts watching path and invokes onChange (on the watcher goroutine)
// after each debounced burst of modifications.
//
// The parent directory is watched rather than the file itself: most
// editors save by rename-replace, which silently drops a watch on the
// file's inode.
func New(path string, debounce time.Duration, onChange func(), logger *slog.Logger) (*Watcher, error) {
	if logger == nil {
		logger = slog.Default()
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if err := fs.Add(filepath.Dir(abs)); err != nil {
		_ = fs.Close()
		return nil, err
	}

	w := &Watcher{
		fs:     fs,
		path:   abs,
		logger: logger.With(slog.String("component", "watch"), slog.String("watch.path", abs)),
	}

	go w.run(debounce, onChange)

	return w, nil
}

// Path returns the watched file's absolute path.
func (w *Watcher) Path() string {
	return w.path
}

// Close stops the watcher. No onChange calls are made after Close returns
// the underlying event channel closed.
func (w *Watcher) Close() error {
	return w.fs.Close()
}

func (w *Watcher) run(debounce time.Duration, onChange func()) {
	timer := time.NewTimer(debounce)
	if !timer.Stop() {
		<-timer.C
	}

	defer timer.Stop()

	for {
		select {
		case ev, ok := <-w.fs.Events:
			if !ok {
				return
			}

			if !w.relevant(ev) {
				continue
			}

			w.logger.Debug("file event", slog.String("watch.op", ev.Op.String()))

			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}

			timer.Reset(debounce)

		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}

			w.logger.Warn("watch error", slog.Any("error", err))

		case <-timer.C:
			onChange()
		}
	}
}

func (w *Watcher) relevant(ev fsnotify.Event) bool {
	if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
		return false
	}

	return filepath.Clean(ev.Name) == w.path
}
