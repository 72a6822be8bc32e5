package watch

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Poller implements Notifier by polling sentinel paths on an interval. It is
// the fallback for platforms or filesystems where fsnotify is unreliable
// (network mounts), and gives tests a deterministic signal source.
type Poller struct {
	interval time.Duration
	done     chan struct{}
	stopOnce sync.Once

	mu      sync.Mutex
	nextID  Handle
	watches map[Handle]*pollWatch
}

type pollWatch struct {
	path string
	fn   func()

	exists  bool
	modTime time.Time
	size    int64
}

// NewPoller starts a poller ticking at interval (100ms when zero).
func NewPoller(interval time.Duration) *Poller {
	if interval <= 0 {
		interval = 100 * time.Millisecond
	}
	p := &Poller{
		interval: interval,
		done:     make(chan struct{}),
		nextID:   1,
		watches:  make(map[Handle]*pollWatch),
	}
	go p.loop()
	return p
}

// Watch registers fn against path. A file that already exists fires on its
// next change, not immediately.
func (p *Poller) Watch(path string, fn func()) (Handle, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return 0, fmt.Errorf("resolve watch path %q: %w", path, err)
	}

	w := &pollWatch{path: abs, fn: fn}
	if info, err := os.Stat(abs); err == nil {
		w.exists = true
		w.modTime = info.ModTime()
		w.size = info.Size()
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	h := p.nextID
	p.nextID++
	p.watches[h] = w
	return h, nil
}

// Unwatch cancels h. Unknown handles are a no-op.
func (p *Poller) Unwatch(h Handle) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.watches, h)
	return nil
}

// Close stops the polling loop.
func (p *Poller) Close() error {
	p.stopOnce.Do(func() { close(p.done) })
	return nil
}

func (p *Poller) loop() {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-p.done:
			return
		case <-ticker.C:
			for _, fn := range p.sweep() {
				fn()
			}
		}
	}
}

// sweep stats every watched path and collects callbacks for changed ones.
func (p *Poller) sweep() []func() {
	p.mu.Lock()
	defer p.mu.Unlock()

	var fire []func()
	for _, w := range p.watches {
		info, err := os.Stat(w.path)
		if err != nil {
			w.exists = false
			continue
		}
		changed := !w.exists || info.ModTime() != w.modTime || info.Size() != w.size
		w.exists = true
		w.modTime = info.ModTime()
		w.size = info.Size()
		if changed {
			fire = append(fire, w.fn)
		}
	}
	return fire
}
