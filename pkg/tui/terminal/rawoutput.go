// ABOUTME: RawOutput owns raw mode for the lifetime of a session and batches screen updates.
// ABOUTME: Print/PrintLine queue clear-then-draw operations; Flush writes them in a single call.

package terminal

import (
	"bytes"
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/x/ansi"
)

// clearLine returns the cursor to column one and erases the whole row.
// Every queued operation starts with it so no earlier render survives.
const clearLine = "\r" + ansi.EraseEntireLine

// newline moves to the start of the next row; raw mode disables the
// implicit carriage return.
const newline = "\r\n"

// RawOutput is the session's single handle on raw mode. Construct it with
// NewRawOutput and defer Close; raw mode is restored exactly once however
// the owner exits.
type RawOutput struct {
	term  Terminal
	buf   bytes.Buffer
	width int

	closeOnce sync.Once
	closeErr  error
	closed    bool
}

// NewRawOutput enters raw mode on t.
func NewRawOutput(t Terminal) (*RawOutput, error) {
	if err := t.EnterRawMode(); err != nil {
		return nil, fmt.Errorf("initialising raw output: %w", err)
	}

	width, _, err := t.Size()
	if err != nil || width <= 0 {
		width = DefaultWidth
	}
	return &RawOutput{term: t, width: width}, nil
}

// Width returns the terminal width used to fit the prompt.
func (o *RawOutput) Width() int {
	return o.width
}

// SetWidth updates the width after a resize. Non-positive values are ignored.
func (o *RawOutput) SetWidth(cols int) {
	if cols > 0 {
		o.width = cols
	}
}

// Print queues s on the current row without advancing, replacing whatever
// the row held. Used for the live prompt; s is cut to fit one row.
func (o *RawOutput) Print(s string) {
	o.buf.WriteString(clearLine)
	o.buf.WriteString(ansi.Truncate(s, o.width-1, ""))
	if strings.Contains(s, "\x1b") {
		o.buf.WriteString(ansi.ResetStyle)
	}
}

// PrintLine queues s on a cleared row and moves to a fresh row.
func (o *RawOutput) PrintLine(s string) {
	o.buf.WriteString(clearLine)
	o.buf.WriteString(s)
	if strings.Contains(s, "\x1b") {
		o.buf.WriteString(ansi.ResetStyle)
	}
	o.buf.WriteString(newline)
}

// Pending reports whether operations are queued.
func (o *RawOutput) Pending() bool {
	return o.buf.Len() > 0
}

// Flush writes every queued operation with one Write call.
func (o *RawOutput) Flush() error {
	if o.buf.Len() == 0 {
		return nil
	}
	defer o.buf.Reset()

	if _, err := o.term.Write(o.buf.Bytes()); err != nil {
		return fmt.Errorf("flushing output: %w", err)
	}
	return nil
}

// Close discards queued output and leaves raw mode. Only the first call
// has any effect; later calls return the first result.
func (o *RawOutput) Close() error {
	o.closeOnce.Do(func() {
		o.buf.Reset()
		o.closed = true
		if err := o.term.ExitRawMode(); err != nil {
			o.closeErr = fmt.Errorf("restoring terminal: %w", err)
		}
	})
	return o.closeErr
}

// Closed reports whether Close has run.
func (o *RawOutput) Closed() bool {
	return o.closed
}
