// ABOUTME: Terminal abstracts the controlling terminal: raw mode, geometry, output, resize notification.
// ABOUTME: ProcessTerminal is the real implementation; VirtualTerminal backs the tests.

package terminal

const (
	// DefaultWidth is assumed when the terminal size cannot be queried.
	DefaultWidth = 80
	// DefaultHeight is assumed when the terminal size cannot be queried.
	DefaultHeight = 24
)

// Terminal is the low-level surface RawOutput draws on.
type Terminal interface {
	EnterRawMode() error
	ExitRawMode() error
	Size() (width, height int, err error)
	Write(p []byte) (n int, err error)
	OnResize(fn func(width, height int))
}
