// ABOUTME: Lifecycle states of the render loop.

package session

import "fmt"

// State is the lifecycle stage of the loop.
type State int

const (
	// Running: the child is alive and its streams are open.
	Running State = iota
	// Draining: a stream ended or the child exited; remaining output is
	// still being collected.
	Draining
	// Exited: the exit status was observed and reported.
	Exited
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case Draining:
		return "draining"
	case Exited:
		return "exited"
	default:
		return fmt.Sprintf("unknown(%d)", s)
	}
}
