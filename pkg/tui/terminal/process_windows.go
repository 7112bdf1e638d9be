// ABOUTME: Windows stub for ProcessTerminal resize handling.
// ABOUTME: Windows has no SIGWINCH; the prompt keeps the width measured at startup.

//go:build windows

package terminal

func (t *ProcessTerminal) startResizeListener() func() {
	return func() {}
}
