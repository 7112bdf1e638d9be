// ABOUTME: Unix SIGWINCH handling for ProcessTerminal resize events.
// ABOUTME: A goroutine re-reads the terminal size on every SIGWINCH and invokes the callback.

//go:build unix

package terminal

import (
	"os"
	"os/signal"

	"golang.org/x/sys/unix"
)

// startResizeListener installs a SIGWINCH handler and returns a function
// that removes it.
func (t *ProcessTerminal) startResizeListener() func() {
	sigCh := make(chan os.Signal, 1)
	done := make(chan struct{})
	signal.Notify(sigCh, unix.SIGWINCH)

	go func() {
		for {
			select {
			case <-done:
				return
			case <-sigCh:
			}

			fn := t.currentResizeFn()
			if fn == nil {
				continue
			}
			w, h, err := t.Size()
			if err != nil {
				continue
			}
			fn(w, h)
		}
	}()

	return func() {
		signal.Stop(sigCh)
		close(done)
	}
}
