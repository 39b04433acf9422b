// Package watcher signals writes to a database file, so an open tree view
// can reload. A Filter drops signals for writes the process made itself.
package watcher

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce coalesces bursts of writes (a sqlite commit touches the
// main file, the WAL and the shm file) into one signal.
const DefaultDebounce = 300 * time.Millisecond

// Watcher emits on Changes() at most once per quiet period after the
// watched file, or one of its sqlite sidecar files, is written.
type Watcher struct {
	path     string
	base     string
	watcher  *fsnotify.Watcher
	debounce time.Duration
	changes  chan struct{}

	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	timer  *time.Timer
	filter func(context.Context) (bool, error)
}

// Filter installs fn, asked before every signal whether the burst should be
// reported. A false answer drops it; an error is logged and the signal sent.
// Call before Start.
func (w *Watcher) Filter(fn func(context.Context) (bool, error)) {
	w.mu.Lock()
	w.filter = fn
	w.mu.Unlock()
}

// New creates a watcher for the file at path. The parent directory must
// exist; the file itself may not yet.
func New(path string, debounce time.Duration) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	ctx, cancel := context.WithCancel(context.Background())
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	return &Watcher{
		path:     abs,
		base:     filepath.Base(abs),
		watcher:  fw,
		debounce: debounce,
		changes:  make(chan struct{}, 1),
		ctx:      ctx,
		cancel:   cancel,
	}, nil
}

// Start begins watching. Watching the directory rather than the file keeps
// working across the rename-and-replace some tools do.
func (w *Watcher) Start() error {
	if err := w.watcher.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(w.path), err)
	}
	go w.watchLoop()
	return nil
}

// Changes delivers one value per debounced burst. Signals are never queued
// beyond one; a slow reader sees a single pending change.
func (w *Watcher) Changes() <-chan struct{} {
	return w.changes
}

// Stop shuts the watcher down. Safe to call more than once.
func (w *Watcher) Stop() {
	w.cancel()
	_ = w.watcher.Close()
	w.mu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()
}

// Path returns the watched file.
func (w *Watcher) Path() string { return w.path }

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}
	name := filepath.Base(event.Name)
	return name == w.base || strings.HasPrefix(name, w.base+"-")
}

func (w *Watcher) watchLoop() {
	for {
		select {
		case <-w.ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !w.relevant(event) {
				continue
			}
			w.schedule()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("warning: watching %s: %v", w.path, err)
		}
	}
}

// schedule (re)arms the trailing-edge debounce timer.
func (w *Watcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.notify)
}

func (w *Watcher) notify() {
	if w.ctx.Err() != nil {
		return
	}
	w.mu.Lock()
	filter := w.filter
	w.mu.Unlock()
	if filter != nil {
		report, err := filter(w.ctx)
		if err != nil {
			log.Printf("warning: checking %s for changes: %v", w.path, err)
		} else if !report {
			return
		}
	}
	select {
	case w.changes <- struct{}{}:
	default:
		// a change is already pending
	}
}
