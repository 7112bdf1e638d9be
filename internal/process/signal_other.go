// ABOUTME: Fallback process control for platforms without process groups.
// ABOUTME: Signals go to the child alone and only termination signals are understood.

//go:build !unix

package process

import (
	"fmt"
	"os/exec"
	"strings"
	"syscall"
)

func setProcGroup(_ *exec.Cmd) {}

func signalGroup(cmd *exec.Cmd, _ syscall.Signal) error {
	return cmd.Process.Kill()
}

// ParseSignal accepts TERM, KILL and INT with or without the SIG prefix.
func ParseSignal(name string) (syscall.Signal, error) {
	switch strings.TrimPrefix(strings.ToUpper(strings.TrimSpace(name)), "SIG") {
	case "", "TERM":
		return syscall.SIGTERM, nil
	case "KILL":
		return syscall.SIGKILL, nil
	case "INT":
		return syscall.SIGINT, nil
	default:
		return 0, fmt.Errorf("unknown signal %q", name)
	}
}

// SignalName returns the signal's description.
func SignalName(sig syscall.Signal) string {
	return sig.String()
}
