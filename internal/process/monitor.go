// ABOUTME: Monitor waits on a started child and exposes non-blocking exit polling.
// ABOUTME: Kill and ForceKill signal the child's process group without waiting.

package process

import (
	"context"
	"os/exec"
	"sync"
	"syscall"

	"github.com/mauromedda/bio-go/internal/log"
)

// Monitor tracks the lifetime of one started exec.Cmd. It is safe for
// concurrent use.
type Monitor struct {
	cmd     *exec.Cmd
	killSig syscall.Signal

	done     chan struct{}
	waitOnce sync.Once

	// mu protects status.
	mu     sync.RWMutex
	status ExitStatus
}

// newMonitor returns a Monitor for cmd, which must already be started.
// A zero killSig selects SIGTERM.
func newMonitor(cmd *exec.Cmd, killSig syscall.Signal) *Monitor {
	if killSig == 0 {
		killSig = syscall.SIGTERM
	}
	m := &Monitor{
		cmd:     cmd,
		killSig: killSig,
		done:    make(chan struct{}),
	}
	go m.waitLoop()
	return m
}

// waitLoop reaps the child and publishes its status.
func (m *Monitor) waitLoop() {
	m.waitOnce.Do(func() {
		err := m.cmd.Wait()
		status := statusFromWait(err)
		log.Debug("child %d exited: code=%d signaled=%t signal=%d", m.Pid(), status.Code, status.Signaled, status.Signal)

		m.mu.Lock()
		m.status = status
		m.mu.Unlock()

		close(m.done)
	})
}

// Pid returns the child's process ID, or -1 if it was never started.
func (m *Monitor) Pid() int {
	if m.cmd.Process == nil {
		return -1
	}
	return m.cmd.Process.Pid
}

// PollExit reports the exit status if the child has terminated. It never
// blocks and keeps returning the same status once the child has exited.
func (m *Monitor) PollExit() (ExitStatus, bool) {
	select {
	case <-m.done:
		m.mu.RLock()
		defer m.mu.RUnlock()
		return m.status, true
	default:
		return ExitStatus{}, false
	}
}

// Wait blocks until the child exits or ctx is done.
func (m *Monitor) Wait(ctx context.Context) (ExitStatus, error) {
	select {
	case <-m.done:
		st, _ := m.PollExit()
		return st, nil
	case <-ctx.Done():
		return ExitStatus{}, ctx.Err()
	}
}

// Kill asks the child's process group to terminate with the configured
// signal. It returns immediately; use PollExit to observe the outcome.
func (m *Monitor) Kill() {
	m.signal(m.killSig)
}

// ForceKill sends SIGKILL to the child's process group.
func (m *Monitor) ForceKill() {
	m.signal(syscall.SIGKILL)
}

func (m *Monitor) signal(sig syscall.Signal) {
	if _, exited := m.PollExit(); exited || m.cmd.Process == nil {
		return
	}
	if err := signalGroup(m.cmd, sig); err != nil {
		log.Debug("signalling child %d with %s: %v", m.Pid(), SignalName(sig), err)
	}
}
