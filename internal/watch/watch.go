// Package watch turns a directory of diff files into a channel of
// paths ready to be re-read, debouncing bursts of filesystem events
// the way editors and build tools tend to produce them (a save is
// often a truncate plus several writes in quick succession).
package watch

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DebounceWindow is how long a path must go quiet before it is
// considered settled and delivered to Ready.
const DebounceWindow = 100 * time.Millisecond

// Watcher delivers settled *.diff/*.patch file paths under one
// directory to Ready, coalescing repeated events for the same path
// within DebounceWindow into a single delivery.
type Watcher struct {
	fsw    *fsnotify.Watcher
	logger *zap.Logger

	Ready chan string
	done  chan struct{}
}

// New starts watching dir (non-recursively) for *.diff/*.patch writes.
func New(dir string, logger *zap.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return nil, err
	}

	w := &Watcher{
		fsw:    fsw,
		logger: logger,
		Ready:  make(chan string),
		done:   make(chan struct{}),
	}
	go w.loop()
	return w, nil
}

func isDiffFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".diff" || ext == ".patch"
}

// loop drains fsnotify events, restarting a per-path debounce timer on
// every Write/Create until DebounceWindow passes with no new event for
// that path, then sends it to Ready.
func (w *Watcher) loop() {
	timers := make(map[string]*time.Timer)
	fire := make(chan string)

	defer func() {
		for _, t := range timers {
			t.Stop()
		}
		close(w.Ready)
	}()

	for {
		select {
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if !isDiffFile(event.Name) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}

			path := event.Name
			if t, exists := timers[path]; exists {
				t.Stop()
			}
			timers[path] = time.AfterFunc(DebounceWindow, func() {
				select {
				case fire <- path:
				case <-w.done:
				}
			})

		case path := <-fire:
			delete(timers, path)
			select {
			case w.Ready <- path:
			case <-w.done:
				return
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			if w.logger != nil {
				w.logger.Error("watch error", zap.Error(err))
			}

		case <-w.done:
			return
		}
	}
}

// Close stops the watcher and its debounce timers.
func (w *Watcher) Close() error {
	close(w.done)
	return w.fsw.Close()
}
