// ABOUTME: Session is the render loop: it merges child output, typed input and exit into one screen.
// ABOUTME: A single goroutine polls input, drains the event queue, polls exit, redraws and flushes.

package session

import (
	"context"
	"fmt"
	"time"

	"github.com/mauromedda/bio-go/internal/eventbus"
	"github.com/mauromedda/bio-go/internal/log"
	"github.com/mauromedda/bio-go/internal/process"
	"github.com/mauromedda/bio-go/pkg/tui/input"
	"github.com/mauromedda/bio-go/pkg/tui/key"
	"github.com/mauromedda/bio-go/pkg/tui/terminal"
)

// Child is the running process as seen by the loop. None of its methods
// may block: WriteLine only queues the line, and the outcome arrives on the
// bus as EventInput or EventInputFailed.
type Child interface {
	PollExit() (process.ExitStatus, bool)
	Kill()
	ForceKill()
	WriteLine(line string) error
	CloseStdin() error
}

// Styler renders a line for display.
type Styler interface {
	Style(line string, stream process.Stream) string
}

// InputSource yields terminal events. Poll must not block longer than wait
// and should return early when wake fires.
type InputSource interface {
	Poll(wait time.Duration, wake <-chan struct{}) []input.Event
}

// Resizer is implemented by children whose output terminal tracks ours.
type Resizer interface {
	Resize(cols, rows int) error
}

// Config tunes the loop.
type Config struct {
	// Prompt precedes the input line.
	Prompt string
	// PollInterval bounds how long one iteration waits for input.
	PollInterval time.Duration
	// DrainGrace is how long to wait for stream ends once the child has
	// exited and its streams have gone quiet.
	DrainGrace time.Duration
	// HistorySize bounds Up/Down recall. Zero uses the input default.
	HistorySize int
	// Streams are the relayed streams expected to terminate. Nil means
	// stdout and stderr.
	Streams []process.Stream
}

// Defaults for zero Config fields.
const (
	defaultPollInterval = 30 * time.Millisecond
	defaultDrainGrace   = 500 * time.Millisecond
)

// Status lines printed by the loop.
const (
	msgStopping     = "Stopping process..."
	msgForceKilling = "Force killing process..."
	msgStdinClosed  = "Closed process input"
	msgWriteFailed  = "Failed to write to process: %v"
)

// Session owns the screen while a child runs.
type Session struct {
	cfg    Config
	child  Child
	bus    *eventbus.Bus[process.Event]
	input  InputSource
	styler Styler

	out     *terminal.RawOutput
	line    *input.Line
	history *input.History
	state   State

	pending    map[process.Stream]bool
	exitSeen   bool
	exitAt     time.Time
	relayAt    time.Time // last event from a relayed stream
	status     process.ExitStatus
	killCount  int
	cancelSeen bool
	notices    []string

	now func() time.Time
}

// New prepares a session. Nothing is drawn until Run.
func New(cfg Config, child Child, bus *eventbus.Bus[process.Event], in InputSource, styler Styler) *Session {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaultPollInterval
	}
	if cfg.DrainGrace <= 0 {
		cfg.DrainGrace = defaultDrainGrace
	}
	streams := cfg.Streams
	if streams == nil {
		streams = []process.Stream{process.Stdout, process.Stderr}
	}
	pending := make(map[process.Stream]bool, len(streams))
	for _, st := range streams {
		pending[st] = true
	}

	return &Session{
		cfg:     cfg,
		child:   child,
		bus:     bus,
		input:   in,
		styler:  styler,
		line:    input.NewLine(),
		history: input.NewHistory(cfg.HistorySize),
		state:   Running,
		pending: pending,
		now:     time.Now,
	}
}

// State returns the loop's current state.
func (s *Session) State() State {
	return s.state
}

// Run enters raw mode on t and loops until the child's exit is confirmed
// or the terminal fails. Raw mode is always restored before Run returns.
// Cancelling ctx asks the child to stop, the same as Ctrl-C.
func (s *Session) Run(ctx context.Context, t terminal.Terminal) (status process.ExitStatus, err error) {
	out, err := terminal.NewRawOutput(t)
	if err != nil {
		return process.ExitStatus{}, err
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	s.out = out

	unsubscribe := s.bus.Subscribe(func(e process.Event) {
		log.Debug("event: %s", e)
	})
	defer unsubscribe()

	s.drawPrompt()
	if err := s.out.Flush(); err != nil {
		return s.status, err
	}

	for s.state != Exited {
		if ctx.Err() != nil && !s.cancelSeen {
			s.cancelSeen = true
			log.Debug("session context done: %v", ctx.Err())
			s.requestKill()
		}
		if err := s.tick(); err != nil {
			return s.status, err
		}
	}
	return s.status, nil
}

// tick runs one iteration of the loop.
func (s *Session) tick() error {
	redraw := false

	for _, ev := range s.input.Poll(s.cfg.PollInterval, s.bus.Ready()) {
		if s.handleInput(ev) {
			redraw = true
		}
	}
	if s.drainBus() {
		redraw = true
	}
	if s.flushNotices() {
		redraw = true
	}

	s.pollExit()
	if s.state == Draining && s.readyToExit() {
		s.drainBus()
		s.flushNotices()
		s.state = Exited
		log.Debug("session exited: %+v", s.status)
		s.out.PrintLine(ExitMessage(s.status))
		return s.out.Flush()
	}

	if redraw || s.line.Dirty() {
		s.drawPrompt()
	}
	return s.out.Flush()
}

// handleInput applies one terminal event. It reports whether the screen
// needs a prompt redraw beyond what the line's dirty flag says.
func (s *Session) handleInput(ev input.Event) bool {
	if ev.Kind == input.EventResize {
		s.out.SetWidth(ev.Cols)
		if r, ok := s.child.(Resizer); ok {
			if err := r.Resize(ev.Cols, ev.Rows); err != nil {
				log.Debug("resizing child terminal: %v", err)
			}
		}
		return true
	}

	k := ev.Key
	switch k.Type {
	case key.KeyCtrlC:
		s.requestKill()
		return true
	case key.KeyEnter:
		s.submit()
	case key.KeyCtrlD:
		if s.line.IsEmpty() {
			s.closeStdin()
		}
	case key.KeyBackspace:
		if s.line.Backspace() {
			s.history.Reset()
		}
	case key.KeyCtrlU:
		if s.line.Clear() {
			s.history.Reset()
		}
	case key.KeyCtrlW:
		if s.line.DeleteWord() {
			s.history.Reset()
		}
	case key.KeyCtrlL:
		return true
	case key.KeyUp:
		if text, ok := s.history.Prev(s.line.String()); ok {
			s.line.Set(text)
		}
	case key.KeyDown:
		if text, ok := s.history.Next(); ok {
			s.line.Set(text)
		}
	case key.KeyRune:
		if !k.Alt && !k.Ctrl {
			s.line.Insert(k.Rune)
			s.history.Reset()
		}
	}
	return false
}

// submit forwards the current line to the child. The child echoes it on
// the bus once written.
func (s *Session) submit() {
	if s.line.IsEmpty() {
		return
	}
	text := s.line.Take()
	s.history.Add(text)
	if err := s.child.WriteLine(text); err != nil {
		log.Debug("writing to child stdin: %v", err)
		s.notices = append(s.notices, fmt.Sprintf(msgWriteFailed, err))
	}
}

func (s *Session) closeStdin() {
	if err := s.child.CloseStdin(); err != nil {
		s.notices = append(s.notices, fmt.Sprintf(msgWriteFailed, err))
		return
	}
	s.notices = append(s.notices, msgStdinClosed)
}

// requestKill stops the child: the first request asks politely, later
// ones force it.
func (s *Session) requestKill() {
	if s.exitSeen {
		return
	}
	s.killCount++
	if s.killCount == 1 {
		s.out.PrintLine(msgStopping)
		s.child.Kill()
		return
	}
	s.out.PrintLine(msgForceKilling)
	s.child.ForceKill()
}

// drainBus renders every queued event. It reports whether anything was
// printed.
func (s *Session) drainBus() bool {
	printed := false
	for _, ev := range s.bus.TryRecvAll() {
		if ev.Stream != process.Stdin {
			s.relayAt = s.now()
		}
		switch ev.Kind {
		case process.EventOutput:
			s.out.PrintLine(s.styler.Style(ev.Line, process.Stdout))
		case process.EventError:
			s.out.PrintLine(s.styler.Style(ev.Line, process.Stderr))
		case process.EventInput:
			s.out.PrintLine(s.styler.Style(ev.Line, process.Stdin))
		case process.EventInputFailed:
			s.out.PrintLine(fmt.Sprintf(msgWriteFailed, ev.Err))
		case process.EventTerminate:
			if !s.pending[ev.Stream] {
				continue
			}
			delete(s.pending, ev.Stream)
			if s.state == Running {
				s.state = Draining
			}
			continue
		default:
			continue
		}
		printed = true
	}
	return printed
}

func (s *Session) flushNotices() bool {
	if len(s.notices) == 0 {
		return false
	}
	for _, n := range s.notices {
		s.out.PrintLine(n)
	}
	s.notices = s.notices[:0]
	return true
}

func (s *Session) pollExit() {
	if s.exitSeen {
		return
	}
	st, ok := s.child.PollExit()
	if !ok {
		return
	}
	s.exitSeen = true
	s.exitAt = s.now()
	s.status = st
	if s.state == Running {
		s.state = Draining
	}
}

// readyToExit holds once the exit status is known and every stream has
// ended, or nothing has arrived from the streams for DrainGrace since the
// exit.
func (s *Session) readyToExit() bool {
	if !s.exitSeen {
		return false
	}
	if len(s.pending) == 0 {
		return true
	}
	quietSince := s.exitAt
	if s.relayAt.After(quietSince) {
		quietSince = s.relayAt
	}
	return s.now().Sub(quietSince) >= s.cfg.DrainGrace
}

// drawPrompt queues the prompt and as much of the line's tail as fits.
func (s *Session) drawPrompt() {
	s.out.Print(fitPrompt(s.cfg.Prompt, s.line.String(), s.out.Width()))
	s.line.MarkClean()
}

// ExitMessage is the final status line for st.
func ExitMessage(st process.ExitStatus) string {
	msg := "Process exited abnormally"
	if st.HasCode() {
		msg = fmt.Sprintf("Process exited with code %d", st.Code)
	}
	if name := st.SignalName(); name != "" {
		msg += fmt.Sprintf(" (signal: %s)", name)
	}
	return msg
}
