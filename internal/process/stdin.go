// ABOUTME: stdinWriter feeds submitted lines to the child from its own goroutine.
// ABOUTME: Callers never block on a full pipe; each outcome is reported on the bus.

package process

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/mauromedda/bio-go/internal/log"
)

type stdinWriter struct {
	w   io.WriteCloser
	bus Sender

	mu      sync.Mutex
	queue   []string
	closing bool // no more lines are accepted
	aborted bool // queued lines are dropped

	wake chan struct{}
	done chan struct{}
}

func newStdinWriter(w io.WriteCloser, bus Sender) *stdinWriter {
	sw := &stdinWriter{
		w:    w,
		bus:  bus,
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
	go sw.loop()
	return sw
}

// enqueue queues line for writing. It fails only after close.
func (sw *stdinWriter) enqueue(line string) error {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	if sw.closing {
		return ErrStdinClosed
	}
	sw.queue = append(sw.queue, line)
	sw.notify()
	return nil
}

// close stops accepting lines. The pipe is closed once the queue is empty.
func (sw *stdinWriter) close() {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	if sw.closing {
		return
	}
	sw.closing = true
	sw.notify()
}

// abort closes the pipe now, which also fails a write blocked on a child
// that stopped reading, and waits for the writer goroutine to end.
func (sw *stdinWriter) abort() error {
	sw.mu.Lock()
	sw.closing = true
	sw.aborted = true
	sw.queue = nil
	sw.notify()
	sw.mu.Unlock()

	err := sw.w.Close()
	<-sw.done
	if err != nil && !errors.Is(err, os.ErrClosed) {
		return fmt.Errorf("closing stdin: %w", err)
	}
	return nil
}

func (sw *stdinWriter) notify() {
	select {
	case sw.wake <- struct{}{}:
	default:
	}
}

func (sw *stdinWriter) loop() {
	defer close(sw.done)

	for range sw.wake {
		for {
			sw.mu.Lock()
			if sw.aborted {
				sw.mu.Unlock()
				return
			}
			if len(sw.queue) == 0 {
				closing := sw.closing
				sw.mu.Unlock()
				if closing {
					if err := sw.w.Close(); err != nil && !errors.Is(err, os.ErrClosed) {
						log.Debug("closing child stdin: %v", err)
					}
					return
				}
				break
			}
			line := sw.queue[0]
			sw.queue = sw.queue[1:]
			sw.mu.Unlock()

			sw.write(line)
		}
	}
}

func (sw *stdinWriter) write(line string) {
	_, err := io.WriteString(sw.w, line+"\n")
	if err == nil {
		sw.bus.Send(Event{Kind: EventInput, Stream: Stdin, Line: line})
		return
	}

	sw.mu.Lock()
	aborted := sw.aborted
	sw.mu.Unlock()
	if aborted {
		return
	}
	log.Debug("writing to child stdin: %v", err)
	sw.bus.Send(Event{Kind: EventInputFailed, Stream: Stdin, Line: line, Err: fmt.Errorf("writing to stdin: %w", err)})
}
