// ABOUTME: Pseudo-terminals are unavailable on this platform.

//go:build !unix

package process

import (
	"errors"
	"os"
)

var errNoPTY = errors.New("pty output is not supported on this platform")

func openPTY(_, _ int) (master, tty *os.File, err error) {
	return nil, nil, errNoPTY
}

func resizePTY(_ *os.File, _, _ int) error {
	return errNoPTY
}
