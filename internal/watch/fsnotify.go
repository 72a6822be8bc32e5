package watch

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/mattjoyce/blockeval/internal/log"
)

// FSNotifier implements Notifier on top of fsnotify. Sentinel files usually
// do not exist until the interpreter writes them, so the parent directory is
// watched and events are filtered by path. Directory watches are refcounted
// across sentinels sharing a temp dir.
type FSNotifier struct {
	watcher *fsnotify.Watcher
	logger  *slog.Logger

	mu      sync.Mutex
	nextID  Handle
	watches map[Handle]*fsWatch
	byPath  map[string][]Handle
	dirRefs map[string]int
	closed  bool
}

type fsWatch struct {
	path string
	dir  string
	fn   func()
}

// NewFSNotifier starts the event loop. Callers own the notifier and must
// Close it.
func NewFSNotifier() (*FSNotifier, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}
	n := &FSNotifier{
		watcher: w,
		logger:  log.WithComponent("watch"),
		nextID:  1,
		watches: make(map[Handle]*fsWatch),
		byPath:  make(map[string][]Handle),
		dirRefs: make(map[string]int),
	}
	go n.loop()
	return n, nil
}

// Watch registers fn against path. The parent directory must exist.
func (n *FSNotifier) Watch(path string, fn func()) (Handle, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return 0, fmt.Errorf("resolve watch path %q: %w", path, err)
	}
	dir := filepath.Dir(abs)

	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		return 0, fmt.Errorf("notifier is closed")
	}

	if n.dirRefs[dir] == 0 {
		if err := n.watcher.Add(dir); err != nil {
			return 0, fmt.Errorf("watch directory %q: %w", dir, err)
		}
	}
	n.dirRefs[dir]++

	h := n.nextID
	n.nextID++
	n.watches[h] = &fsWatch{path: abs, dir: dir, fn: fn}
	n.byPath[abs] = append(n.byPath[abs], h)
	return h, nil
}

// Unwatch cancels h and drops the directory watch when its last sentinel
// goes away.
func (n *FSNotifier) Unwatch(h Handle) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	w, ok := n.watches[h]
	if !ok {
		return nil
	}
	delete(n.watches, h)

	hs := n.byPath[w.path]
	for i, other := range hs {
		if other == h {
			n.byPath[w.path] = append(hs[:i], hs[i+1:]...)
			break
		}
	}
	if len(n.byPath[w.path]) == 0 {
		delete(n.byPath, w.path)
	}

	n.dirRefs[w.dir]--
	if n.dirRefs[w.dir] <= 0 {
		delete(n.dirRefs, w.dir)
		if !n.closed {
			_ = n.watcher.Remove(w.dir)
		}
	}
	return nil
}

// Close stops the event loop and cancels all watches.
func (n *FSNotifier) Close() error {
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return nil
	}
	n.closed = true
	n.mu.Unlock()
	return n.watcher.Close()
}

func (n *FSNotifier) loop() {
	for {
		select {
		case ev, ok := <-n.watcher.Events:
			if !ok {
				return
			}
			if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) {
				continue
			}
			n.dispatch(ev.Name)
		case err, ok := <-n.watcher.Errors:
			if !ok {
				return
			}
			n.logger.Warn("fsnotify error", "error", err)
		}
	}
}

func (n *FSNotifier) dispatch(name string) {
	abs, err := filepath.Abs(name)
	if err != nil {
		return
	}

	n.mu.Lock()
	var fns []func()
	for _, h := range n.byPath[abs] {
		if w, ok := n.watches[h]; ok {
			fns = append(fns, w.fn)
		}
	}
	n.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}
