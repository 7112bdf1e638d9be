// ABOUTME: RestoreOnPanic and RecoverGoroutine put the terminal back into cooked mode on a panic.
// ABOUTME: Deferred by the goroutine owning the session and by the helper goroutines it starts.

package terminal

import (
	"fmt"
	"io"
	"os"
	"runtime/debug"

	"github.com/charmbracelet/x/ansi"
)

// panicOutput is where panic reports are written. Tests swap it.
var panicOutput io.Writer = os.Stderr

// exitFunc terminates the process after a panic report. Tests swap it.
var exitFunc = os.Exit

// RestoreOnPanic should be deferred at the top of main. On panic it leaves
// raw mode, prints the panic value and stack trace, then exits with code 1.
func RestoreOnPanic(t Terminal) {
	r := recover()
	if r == nil {
		return
	}

	restore(t)
	fmt.Fprintf(panicOutput, "\npanic: %v\n\n%s\n", r, debug.Stack())
	exitFunc(1)
}

// RecoverGoroutine should be deferred at the top of background goroutines
// that run while the terminal is raw. It restores the terminal and reports
// the panic without exiting, leaving shutdown to the main goroutine.
func RecoverGoroutine(t Terminal) {
	r := recover()
	if r == nil {
		return
	}

	restore(t)
	fmt.Fprintf(panicOutput, "\ngoroutine panic: %v\n\n%s\n", r, debug.Stack())
}

func restore(t Terminal) {
	// Best effort: drop any half-applied style and start on a clean line.
	_, _ = t.Write([]byte(ansi.ResetStyle + "\r\n"))
	_ = t.ExitRawMode()
}
