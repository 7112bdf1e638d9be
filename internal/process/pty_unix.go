// ABOUTME: Pseudo-terminal allocation so a child line-buffers its stdout.
// ABOUTME: The child writes to the tty side; the relay reads from the master side.

//go:build unix

package process

import (
	"fmt"
	"os"

	"github.com/creack/pty"
)

// openPTY allocates a pseudo-terminal sized cols x rows. Zero sizes leave
// the kernel default in place.
func openPTY(cols, rows int) (master, tty *os.File, err error) {
	master, tty, err = pty.Open()
	if err != nil {
		return nil, nil, fmt.Errorf("opening pty: %w", err)
	}
	if cols > 0 && rows > 0 {
		if err := resizePTY(master, cols, rows); err != nil {
			_ = master.Close()
			_ = tty.Close()
			return nil, nil, err
		}
	}
	return master, tty, nil
}

func resizePTY(master *os.File, cols, rows int) error {
	if err := pty.Setsize(master, &pty.Winsize{Cols: uint16(cols), Rows: uint16(rows)}); err != nil {
		return fmt.Errorf("resizing pty: %w", err)
	}
	return nil
}
