// ABOUTME: ProcessTerminal implements Terminal over the process's stdin/stdout using golang.org/x/term.
// ABOUTME: Raw mode is applied to the input descriptor; geometry is read from the output descriptor.

package terminal

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"golang.org/x/term"
)

// ErrNotTerminal is returned when raw mode is requested on something that
// is not a terminal (stdin redirected from a file or pipe).
var ErrNotTerminal = errors.New("not a terminal")

// ProcessTerminal is a real terminal backed by two file descriptors.
type ProcessTerminal struct {
	in  *os.File
	out *os.File

	mu       sync.Mutex
	oldState *term.State
	resizeFn func(width, height int)
	stopFn   func()
}

// NewProcessTerminal returns a ProcessTerminal reading from in and drawing to out.
func NewProcessTerminal(in, out *os.File) *ProcessTerminal {
	return &ProcessTerminal{in: in, out: out}
}

// IsTerminal reports whether the input side is an interactive terminal.
func (t *ProcessTerminal) IsTerminal() bool {
	return term.IsTerminal(int(t.in.Fd()))
}

// EnterRawMode switches the input descriptor to raw mode, saving the previous state.
func (t *ProcessTerminal) EnterRawMode() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !term.IsTerminal(int(t.in.Fd())) {
		return fmt.Errorf("entering raw mode: %w", ErrNotTerminal)
	}
	state, err := term.MakeRaw(int(t.in.Fd()))
	if err != nil {
		return fmt.Errorf("entering raw mode: %w", err)
	}
	t.oldState = state
	return nil
}

// ExitRawMode restores the state saved by EnterRawMode. Calling it when
// raw mode is not active is a no-op.
func (t *ProcessTerminal) ExitRawMode() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.oldState == nil {
		return nil
	}
	if err := term.Restore(int(t.in.Fd()), t.oldState); err != nil {
		return fmt.Errorf("exiting raw mode: %w", err)
	}
	t.oldState = nil
	return nil
}

// Size returns the current terminal dimensions.
func (t *ProcessTerminal) Size() (width, height int, err error) {
	w, h, err := term.GetSize(int(t.out.Fd()))
	if err != nil {
		return 0, 0, fmt.Errorf("getting terminal size: %w", err)
	}
	return w, h, nil
}

// Write sends bytes to the output descriptor.
func (t *ProcessTerminal) Write(p []byte) (int, error) {
	n, err := t.out.Write(p)
	if err != nil {
		return n, fmt.Errorf("writing to terminal: %w", err)
	}
	return n, nil
}

// OnResize registers a callback invoked when the terminal is resized.
// Only the first call installs the platform listener.
func (t *ProcessTerminal) OnResize(fn func(width, height int)) {
	t.mu.Lock()
	t.resizeFn = fn
	started := t.stopFn != nil
	t.mu.Unlock()

	if !started {
		stop := t.startResizeListener()
		t.mu.Lock()
		t.stopFn = stop
		t.mu.Unlock()
	}
}

// Close stops the resize listener. It does not touch raw mode.
func (t *ProcessTerminal) Close() {
	t.mu.Lock()
	stop := t.stopFn
	t.stopFn = nil
	t.resizeFn = nil
	t.mu.Unlock()

	if stop != nil {
		stop()
	}
}

func (t *ProcessTerminal) currentResizeFn() func(width, height int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.resizeFn
}
