// ABOUTME: Event types produced by a running child process and by the user's submitted input.
// ABOUTME: Events flow through the session's queue and are rendered in arrival order.

package process

import "fmt"

// Kind classifies an Event.
type Kind int

const (
	// EventOutput is one line the child wrote to stdout.
	EventOutput Kind = iota
	// EventError is one line the child wrote to stderr.
	EventError
	// EventInput is one line the user submitted, sent once it reached the
	// child's stdin.
	EventInput
	// EventTerminate marks the end of one child stream.
	EventTerminate
	// EventInputFailed is a submitted line that could not be written. Err
	// holds the cause.
	EventInputFailed
)

// String returns a human-readable kind name.
func (k Kind) String() string {
	switch k {
	case EventOutput:
		return "output"
	case EventError:
		return "error"
	case EventInput:
		return "input"
	case EventTerminate:
		return "terminate"
	case EventInputFailed:
		return "input-failed"
	default:
		return fmt.Sprintf("unknown(%d)", k)
	}
}

// Stream identifies a child stream.
type Stream int

const (
	Stdout Stream = iota
	Stderr
	Stdin
)

// String returns the conventional stream name.
func (s Stream) String() string {
	switch s {
	case Stdout:
		return "stdout"
	case Stderr:
		return "stderr"
	case Stdin:
		return "stdin"
	default:
		return fmt.Sprintf("stream(%d)", s)
	}
}

// Event is a single line of traffic, or the end of a stream. Line never
// contains a line terminator.
type Event struct {
	Kind   Kind
	Stream Stream
	Line   string
	Err    error
}

// String formats the event for debug logs.
func (e Event) String() string {
	if e.Kind == EventTerminate {
		return fmt.Sprintf("%s %s", e.Kind, e.Stream)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s %s %q: %v", e.Kind, e.Stream, e.Line, e.Err)
	}
	return fmt.Sprintf("%s %s %q", e.Kind, e.Stream, e.Line)
}

// Sender accepts events. eventbus.Bus[Event] satisfies it.
type Sender interface {
	Send(Event)
}
