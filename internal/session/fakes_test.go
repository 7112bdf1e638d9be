// ABOUTME: Test doubles for the session: a scripted child, a scripted input source and an identity styler.

package session

import (
	"sync"
	"syscall"
	"time"

	"github.com/mauromedda/bio-go/internal/eventbus"
	"github.com/mauromedda/bio-go/internal/process"
	"github.com/mauromedda/bio-go/pkg/tui/input"
	"github.com/mauromedda/bio-go/pkg/tui/key"
)

// fakeChild is a Child whose lifetime the test controls.
type fakeChild struct {
	mu  sync.Mutex
	bus *eventbus.Bus[process.Event]

	status process.ExitStatus
	exited bool

	// killExitAfter is how many PollExit calls after Kill it takes to die.
	// Zero means Kill is ignored.
	killExitAfter  int
	killed         bool
	pollsSinceKill int

	kills      int
	forceKills int
	polls      int

	written     []string
	writeErr    error
	rejectErr   error
	stdinClosed bool
	onWrite     func(line string)

	resizes [][2]int
}

func newFakeChild(bus *eventbus.Bus[process.Event]) *fakeChild {
	return &fakeChild{bus: bus}
}

// finish sends the terminate events for both streams and sets the status.
func (c *fakeChild) finish(st process.ExitStatus) {
	c.bus.Send(process.Event{Kind: process.EventTerminate, Stream: process.Stdout})
	c.bus.Send(process.Event{Kind: process.EventTerminate, Stream: process.Stderr})
	c.mu.Lock()
	c.status, c.exited = st, true
	c.mu.Unlock()
}

func (c *fakeChild) PollExit() (process.ExitStatus, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.polls++
	if c.killed && !c.exited {
		c.pollsSinceKill++
		if c.pollsSinceKill >= c.killExitAfter {
			c.status = process.ExitStatus{Code: -1, Signaled: true, Signal: syscall.SIGTERM}
			c.exited = true
			go c.sendTerminates()
		}
	}
	return c.status, c.exited
}

func (c *fakeChild) sendTerminates() {
	c.bus.Send(process.Event{Kind: process.EventTerminate, Stream: process.Stdout})
	c.bus.Send(process.Event{Kind: process.EventTerminate, Stream: process.Stderr})
}

func (c *fakeChild) Kill() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.kills++
	if c.killExitAfter > 0 {
		c.killed = true
	}
}

func (c *fakeChild) ForceKill() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.forceKills++
	if !c.exited {
		c.status = process.ExitStatus{Code: -1, Signaled: true, Signal: syscall.SIGKILL}
		c.exited = true
		go c.sendTerminates()
	}
}

// WriteLine behaves like the real child's queue: rejectErr fails the call
// itself, writeErr fails the write and is reported on the bus.
func (c *fakeChild) WriteLine(line string) error {
	c.mu.Lock()
	if c.rejectErr != nil {
		defer c.mu.Unlock()
		return c.rejectErr
	}
	writeErr := c.writeErr
	if writeErr == nil {
		c.written = append(c.written, line)
	}
	onWrite := c.onWrite
	c.mu.Unlock()

	if writeErr != nil {
		c.bus.Send(process.Event{Kind: process.EventInputFailed, Stream: process.Stdin, Line: line, Err: writeErr})
		return nil
	}
	c.bus.Send(process.Event{Kind: process.EventInput, Stream: process.Stdin, Line: line})
	if onWrite != nil {
		onWrite(line)
	}
	return nil
}

func (c *fakeChild) CloseStdin() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stdinClosed = true
	return nil
}

func (c *fakeChild) Resize(cols, rows int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resizes = append(c.resizes, [2]int{cols, rows})
	return nil
}

// scriptedInput returns script[i] on the i-th Poll; afterwards it waits
// like a quiet terminal.
type scriptedInput struct {
	mu     sync.Mutex
	script [][]input.Event
	calls  int
	// onPoll runs before each Poll with the call index.
	onPoll func(call int)
}

func (s *scriptedInput) Poll(wait time.Duration, wake <-chan struct{}) []input.Event {
	s.mu.Lock()
	call := s.calls
	s.calls++
	onPoll := s.onPoll
	var batch []input.Event
	if call < len(s.script) {
		batch = s.script[call]
	}
	s.mu.Unlock()

	if onPoll != nil {
		onPoll(call)
	}
	if batch != nil {
		return batch
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-wake:
	case <-timer.C:
	}
	return nil
}

func keys(s string) []input.Event {
	var evs []input.Event
	for _, r := range s {
		evs = append(evs, input.Event{Kind: input.EventKey, Key: key.Key{Type: key.KeyRune, Rune: r}})
	}
	return evs
}

func press(t key.KeyType) input.Event {
	return input.Event{Kind: input.EventKey, Key: key.Key{Type: t}}
}

// plainStyler renders lines unchanged.
type plainStyler struct{}

func (plainStyler) Style(line string, _ process.Stream) string { return line }

// tagStyler marks each line with its stream so tests can see styling.
type tagStyler struct{}

func (tagStyler) Style(line string, stream process.Stream) string {
	return "[" + stream.String() + "]" + line
}
