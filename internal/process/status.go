// ABOUTME: ExitStatus describes how a child process ended.
// ABOUTME: Maps wait results to exit codes and signals, and to the wrapper's own exit code.

package process

import (
	"errors"
	"os/exec"
	"syscall"
)

// ExitStatus is the observed termination of a child.
type ExitStatus struct {
	// Code is the exit code, or -1 when the child did not exit normally.
	Code int
	// Signaled reports whether a signal terminated the child.
	Signaled bool
	// Signal is the terminating signal when Signaled is true.
	Signal syscall.Signal
}

// Success reports whether the child exited with code zero.
func (s ExitStatus) Success() bool {
	return !s.Signaled && s.Code == 0
}

// HasCode reports whether the child produced an exit code.
func (s ExitStatus) HasCode() bool {
	return !s.Signaled && s.Code >= 0
}

// SignalName returns the conventional name of the terminating signal, or
// "" when the child was not signaled.
func (s ExitStatus) SignalName() string {
	if !s.Signaled {
		return ""
	}
	return SignalName(s.Signal)
}

// WrapperCode is the exit code bio itself should use: the child's code,
// 128 plus the signal number for a signaled child, or 255 otherwise.
func (s ExitStatus) WrapperCode() int {
	switch {
	case s.HasCode():
		return s.Code
	case s.Signaled && s.Signal > 0:
		return 128 + int(s.Signal)
	default:
		return 255
	}
}

// statusFromWait converts the result of exec.Cmd.Wait.
func statusFromWait(err error) ExitStatus {
	if err == nil {
		return ExitStatus{Code: 0}
	}

	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		return ExitStatus{Code: -1}
	}
	if ws, ok := exitErr.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		return ExitStatus{Code: -1, Signaled: true, Signal: ws.Signal()}
	}
	return ExitStatus{Code: exitErr.ExitCode()}
}
