// ABOUTME: Polling file watcher that reloads settings while a session runs
// ABOUTME: Compares mtimes at a fixed interval and reports which config files changed

package config

import (
	"context"
	"os"
	"sync"
	"time"
)

// DefaultWatchInterval is how often watched files are checked.
const DefaultWatchInterval = time.Second

// Watcher polls files for changes. Files that do not exist yet are
// watched for creation.
type Watcher struct {
	paths    []string
	onChange func(changed []string)
	interval time.Duration

	mu       sync.Mutex
	mtimes   map[string]time.Time
	running  bool
	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewWatcher creates a watcher that calls onChange with the changed paths.
func NewWatcher(paths []string, onChange func(changed []string)) *Watcher {
	return &Watcher{
		paths:    paths,
		onChange: onChange,
		interval: DefaultWatchInterval,
		mtimes:   make(map[string]time.Time),
		stopCh:   make(chan struct{}),
	}
}

// SetInterval overrides the polling interval. Call before Start.
func (w *Watcher) SetInterval(d time.Duration) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if d > 0 {
		w.interval = d
	}
}

// Start records the current state and polls until ctx is done or Stop is
// called. Subsequent calls are no-ops.
func (w *Watcher) Start(ctx context.Context) {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return
	}
	w.running = true
	w.snapshotLocked()
	interval := w.interval
	w.mu.Unlock()

	go w.loop(ctx, interval)
}

// Stop halts polling. Safe to call multiple times and concurrently.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
		close(w.stopCh)
	})
}

// Check compares the files against the last snapshot and runs onChange
// synchronously when something changed. It reports whether it did.
func (w *Watcher) Check() bool {
	w.mu.Lock()
	changed := w.changedLocked()
	if len(changed) > 0 {
		w.snapshotLocked()
	}
	w.mu.Unlock()

	if len(changed) == 0 {
		return false
	}
	w.onChange(changed)
	return true
}

func (w *Watcher) loop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.Check()
		}
	}
}

// changedLocked lists files whose mtime or existence changed. Must hold mu.
func (w *Watcher) changedLocked() []string {
	var changed []string
	for _, path := range w.paths {
		info, err := os.Stat(path)
		prev, existed := w.mtimes[path]
		switch {
		case err != nil:
			if existed {
				changed = append(changed, path)
			}
		case !existed || !info.ModTime().Equal(prev):
			changed = append(changed, path)
		}
	}
	return changed
}

// snapshotLocked records current mtimes. Must hold mu.
func (w *Watcher) snapshotLocked() {
	for _, path := range w.paths {
		info, err := os.Stat(path)
		if err != nil {
			delete(w.mtimes, path)
			continue
		}
		w.mtimes[path] = info.ModTime()
	}
}
