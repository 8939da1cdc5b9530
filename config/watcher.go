package config

import (
	"github.com/howeyc/fsnotify"

	"github.com/otelmetric/sdk/internal/level"
)

// Watcher reloads a Config from disk whenever the underlying file changes,
// following the teacher's own habit (visible throughout pkg/) of pairing
// a background goroutine with a small typed callback rather than exposing
// a channel the caller must drain correctly.
type Watcher struct {
	watcher *fsnotify.Watcher
	path    string
	logger  *level.Logger
	done    chan struct{}
}

// WatchOption configures a Watcher.
type WatchOption func(*Watcher)

func WithWatcherLogger(l *level.Logger) WatchOption {
	return func(w *Watcher) { w.logger = l }
}

// Watch starts watching path for changes, invoking onReload with the
// freshly parsed Config (or the load error) after every write. The
// returned Watcher must be closed to release the underlying inotify
// handle.
func Watch(path string, onReload func(*Config, error), opts ...WatchOption) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fw.Watch(path); err != nil {
		fw.Close()
		return nil, err
	}

	w := &Watcher{watcher: fw, path: path, logger: level.NewNopLogger(), done: make(chan struct{})}
	for _, apply := range opts {
		apply(w)
	}

	go w.run(onReload)
	return w, nil
}

func (w *Watcher) run(onReload func(*Config, error)) {
	for {
		select {
		case ev, ok := <-w.watcher.Event:
			if !ok {
				return
			}
			if !ev.IsModify() && !ev.IsCreate() {
				continue
			}
			cfg, err := Load(w.path)
			if err != nil {
				w.logger.Warnf("config reload failed: %v", err)
			}
			onReload(cfg, err)
		case err, ok := <-w.watcher.Error:
			if !ok {
				return
			}
			w.logger.Warnf("config watch error: %v", err)
		case <-w.done:
			return
		}
	}
}

// Close stops watching and releases the underlying handle.
func (w *Watcher) Close() error {
	close(w.done)
	return w.watcher.Close()
}
