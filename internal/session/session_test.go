// ABOUTME: Tests for the render loop: scenarios, state transitions, redraw discipline and terminal restore.

package session

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/charmbracelet/x/ansi"

	"github.com/mauromedda/bio-go/internal/eventbus"
	"github.com/mauromedda/bio-go/internal/process"
	"github.com/mauromedda/bio-go/pkg/tui/input"
	"github.com/mauromedda/bio-go/pkg/tui/key"
	"github.com/mauromedda/bio-go/pkg/tui/terminal"
)

const clearRow = "\r" + ansi.EraseEntireLine

var testConfig = Config{
	Prompt:       "> ",
	PollInterval: time.Millisecond,
	DrainGrace:   time.Second,
}

type harness struct {
	bus   *eventbus.Bus[process.Event]
	child *fakeChild
	in    *scriptedInput
	vt    *terminal.VirtualTerminal
	sess  *Session
}

func newHarness(t *testing.T, cfg Config, script ...[]input.Event) *harness {
	t.Helper()
	bus := eventbus.New[process.Event]()
	child := newFakeChild(bus)
	in := &scriptedInput{script: script}
	return &harness{
		bus:   bus,
		child: child,
		in:    in,
		vt:    terminal.NewVirtualTerminal(80, 24),
		sess:  New(cfg, child, bus, in, plainStyler{}),
	}
}

func (h *harness) run(t *testing.T) (process.ExitStatus, error) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	type result struct {
		st  process.ExitStatus
		err error
	}
	done := make(chan result, 1)
	go func() {
		st, err := h.sess.Run(ctx, h.vt)
		done <- result{st, err}
	}()
	select {
	case r := <-done:
		return r.st, r.err
	case <-time.After(15 * time.Second):
		t.Fatal("session did not finish")
		return process.ExitStatus{}, nil
	}
}

func assertRestored(t *testing.T, vt *terminal.VirtualTerminal) {
	t.Helper()
	if vt.IsRawMode() {
		t.Error("terminal left in raw mode")
	}
	if vt.EnterCount() != 1 || vt.ExitCount() != 1 {
		t.Errorf("raw mode entered %d and restored %d times, want 1 and 1", vt.EnterCount(), vt.ExitCount())
	}
}

func assertOrder(t *testing.T, out string, parts ...string) {
	t.Helper()
	pos := 0
	for _, p := range parts {
		i := strings.Index(out[pos:], p)
		if i < 0 {
			t.Fatalf("%q not found in order in %q", p, out)
		}
		pos += i + len(p)
	}
}

func TestSession_PrintsOutputThenExit(t *testing.T) {
	t.Parallel()
	h := newHarness(t, testConfig)
	h.bus.Send(process.Event{Kind: process.EventOutput, Stream: process.Stdout, Line: "hello"})
	h.child.finish(process.ExitStatus{Code: 0})

	st, err := h.run(t)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !st.Success() || st.WrapperCode() != 0 {
		t.Errorf("status = %+v, want success", st)
	}

	out := h.vt.Output()
	assertOrder(t, out, clearRow+"hello\r\n", clearRow+"Process exited with code 0\r\n")
	if !strings.HasSuffix(out, "Process exited with code 0\r\n") {
		t.Errorf("prompt drawn after exit: %q", out)
	}
	if h.sess.State() != Exited {
		t.Errorf("State() = %v, want exited", h.sess.State())
	}
	assertRestored(t, h.vt)
}

func TestSession_SubmitsInputLine(t *testing.T) {
	t.Parallel()
	h := newHarness(t, testConfig, keys("ping"), []input.Event{press(key.KeyEnter)})
	h.child.onWrite = func(got string) {
		h.bus.Send(process.Event{Kind: process.EventOutput, Stream: process.Stdout, Line: "got " + got})
	}
	h.in.onPoll = func(call int) {
		if call == 3 {
			h.child.finish(process.ExitStatus{Code: 0})
		}
	}

	if _, err := h.run(t); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(h.child.written) != 1 || h.child.written[0] != "ping" {
		t.Fatalf("child received %q, want [ping]", h.child.written)
	}
	assertOrder(t, h.vt.Output(),
		clearRow+"> ping",
		clearRow+"ping\r\n",
		clearRow+"got ping\r\n",
		clearRow+"> ",
		clearRow+"Process exited with code 0",
	)
}

func TestSession_HistoryRecall(t *testing.T) {
	t.Parallel()
	script := append(keys("first"), press(key.KeyEnter))
	script = append(script, keys("second")...)
	script = append(script, press(key.KeyEnter), press(key.KeyUp), press(key.KeyUp), press(key.KeyEnter))
	script = append(script, keys("dra")...)
	script = append(script, press(key.KeyUp), press(key.KeyDown), press(key.KeyEnter))
	h := newHarness(t, testConfig, script)
	h.in.onPoll = func(call int) {
		if call == 1 {
			h.child.finish(process.ExitStatus{Code: 0})
		}
	}

	if _, err := h.run(t); err != nil {
		t.Fatalf("Run: %v", err)
	}

	want := []string{"first", "second", "first", "dra"}
	if len(h.child.written) != len(want) {
		t.Fatalf("child received %q, want %q", h.child.written, want)
	}
	for i := range want {
		if h.child.written[i] != want[i] {
			t.Errorf("write %d = %q, want %q", i, h.child.written[i], want[i])
		}
	}
}

func TestSession_HistoryKeepsEditedRecall(t *testing.T) {
	t.Parallel()
	script := append(keys("one"), press(key.KeyEnter), press(key.KeyUp))
	script = append(script, keys("!")...)
	script = append(script, press(key.KeyUp), press(key.KeyDown), press(key.KeyEnter))
	h := newHarness(t, testConfig, script)
	h.in.onPoll = func(call int) {
		if call == 1 {
			h.child.finish(process.ExitStatus{Code: 0})
		}
	}

	if _, err := h.run(t); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if want := []string{"one", "one!"}; !slices.Equal(h.child.written, want) {
		t.Errorf("child received %q, want %q", h.child.written, want)
	}
}

func TestSession_EmptyEnterIsNoop(t *testing.T) {
	t.Parallel()
	h := newHarness(t, testConfig, []input.Event{press(key.KeyEnter)})
	h.in.onPoll = func(call int) {
		if call == 2 {
			h.child.finish(process.ExitStatus{Code: 0})
		}
	}

	if _, err := h.run(t); err != nil {
		t.Fatal(err)
	}
	if len(h.child.written) != 0 {
		t.Errorf("empty line written to child: %q", h.child.written)
	}
}

func TestSession_CtrlCStopsChild(t *testing.T) {
	t.Parallel()
	h := newHarness(t, testConfig, []input.Event{press(key.KeyCtrlC)})
	h.child.killExitAfter = 3

	st, err := h.run(t)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if h.child.kills != 1 || h.child.forceKills != 0 {
		t.Errorf("kills = %d, force kills = %d; want 1, 0", h.child.kills, h.child.forceKills)
	}
	if h.child.polls < 3 {
		t.Errorf("loop ended after %d exit polls, before exit was confirmed", h.child.polls)
	}
	if !st.Signaled || st.Signal != syscall.SIGTERM {
		t.Errorf("status = %+v, want SIGTERM", st)
	}
	out := h.vt.Output()
	assertOrder(t, out, clearRow+msgStopping+"\r\n", "Process exited abnormally (signal: ")
	if strings.Count(out, "Process exited") != 1 {
		t.Errorf("exit reported %d times", strings.Count(out, "Process exited"))
	}
	assertRestored(t, h.vt)
}

func TestSession_SecondCtrlCForcesKill(t *testing.T) {
	t.Parallel()
	h := newHarness(t, testConfig,
		[]input.Event{press(key.KeyCtrlC)},
		[]input.Event{press(key.KeyCtrlC)},
	)
	// Kill is recorded but never takes effect.

	st, err := h.run(t)
	if err != nil {
		t.Fatal(err)
	}
	if h.child.kills != 1 || h.child.forceKills != 1 {
		t.Errorf("kills = %d, force kills = %d; want 1, 1", h.child.kills, h.child.forceKills)
	}
	if st.Signal != syscall.SIGKILL {
		t.Errorf("status = %+v, want SIGKILL", st)
	}
	assertOrder(t, h.vt.Output(), msgStopping, msgForceKilling, "Process exited abnormally")
}

func TestSession_WriteFailureIsReported(t *testing.T) {
	t.Parallel()
	line := append(keys("x"), press(key.KeyEnter))
	h := newHarness(t, testConfig, line)
	h.child.writeErr = syscall.EPIPE
	h.in.onPoll = func(call int) {
		if call == 2 {
			h.child.finish(process.ExitStatus{Code: 1})
		}
	}

	st, err := h.run(t)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if st.WrapperCode() != 1 {
		t.Errorf("WrapperCode() = %d, want 1", st.WrapperCode())
	}
	out := h.vt.Output()
	assertOrder(t, out, "Failed to write to process: "+syscall.EPIPE.Error(), "Process exited with code 1")
	if strings.Contains(out, clearRow+"x\r\n") {
		t.Error("a line that never reached the child was echoed")
	}
}

func TestSession_RejectedWriteIsReported(t *testing.T) {
	t.Parallel()
	h := newHarness(t, testConfig, append(keys("x"), press(key.KeyEnter)))
	h.child.rejectErr = process.ErrStdinClosed
	h.in.onPoll = func(call int) {
		if call == 2 {
			h.child.finish(process.ExitStatus{Code: 0})
		}
	}

	if _, err := h.run(t); err != nil {
		t.Fatalf("Run: %v", err)
	}
	assertOrder(t, h.vt.Output(), "Failed to write to process: "+process.ErrStdinClosed.Error(), "Process exited with code 0")
}

func TestSession_CtrlDClosesStdin(t *testing.T) {
	t.Parallel()
	h := newHarness(t, testConfig, []input.Event{press(key.KeyCtrlD)})
	h.in.onPoll = func(call int) {
		if call == 2 {
			h.child.finish(process.ExitStatus{Code: 0})
		}
	}

	if _, err := h.run(t); err != nil {
		t.Fatal(err)
	}
	if !h.child.stdinClosed {
		t.Error("Ctrl-D did not close child stdin")
	}
	if !strings.Contains(h.vt.Output(), msgStdinClosed) {
		t.Error("no status line for closed input")
	}
}

func TestSession_LineEditing(t *testing.T) {
	t.Parallel()
	script := [][]input.Event{
		keys("hello world"),
		{press(key.KeyCtrlW)},
		{press(key.KeyBackspace)},
		keys("p!"),
		{press(key.KeyCtrlU)},
		append(keys("ok"), press(key.KeyEnter)),
	}
	h := newHarness(t, testConfig, script...)
	h.child.onWrite = func(string) { h.child.finish(process.ExitStatus{Code: 0}) }

	if _, err := h.run(t); err != nil {
		t.Fatal(err)
	}
	assertOrder(t, h.vt.Output(),
		clearRow+"> hello world",
		clearRow+"> hello ",
		clearRow+"> hello",
		clearRow+"> hellop!",
		clearRow+"> ",
		clearRow+"ok\r\n",
	)
	if len(h.child.written) != 1 || h.child.written[0] != "ok" {
		t.Errorf("written = %q, want [ok]", h.child.written)
	}
}

func TestSession_EveryWriteStartsWithClear(t *testing.T) {
	t.Parallel()
	h := newHarness(t, testConfig, keys("ab"), []input.Event{press(key.KeyCtrlL)})
	h.bus.Send(process.Event{Kind: process.EventError, Stream: process.Stderr, Line: "warn"})
	h.in.onPoll = func(call int) {
		if call == 3 {
			h.child.finish(process.ExitStatus{Code: 0})
		}
	}

	if _, err := h.run(t); err != nil {
		t.Fatal(err)
	}
	out := h.vt.Output()
	if !strings.HasPrefix(out, clearRow) {
		t.Fatalf("output does not start with a clear: %q", out)
	}
	for _, seg := range strings.Split(out, clearRow)[1:] {
		if strings.Contains(seg, "\r\n") && !strings.HasSuffix(seg, "\r\n") {
			t.Errorf("row %q mixes two renders", seg)
		}
	}
}

func TestSession_OutputAfterExitIsDrained(t *testing.T) {
	t.Parallel()
	h := newHarness(t, testConfig)
	h.child.status, h.child.exited = process.ExitStatus{Code: 0}, true
	h.in.onPoll = func(call int) {
		if call == 3 {
			h.bus.Send(process.Event{Kind: process.EventOutput, Stream: process.Stdout, Line: "late"})
			h.child.sendTerminates()
		}
	}

	if _, err := h.run(t); err != nil {
		t.Fatal(err)
	}
	assertOrder(t, h.vt.Output(), "late\r\n", "Process exited with code 0")
}

func TestSession_DrainGraceBoundsWait(t *testing.T) {
	t.Parallel()
	cfg := testConfig
	cfg.DrainGrace = 20 * time.Millisecond
	h := newHarness(t, cfg)
	// Exits without its streams ever ending, as when a grandchild holds them.
	h.child.status, h.child.exited = process.ExitStatus{Code: 4}, true

	start := time.Now()
	st, err := h.run(t)
	if err != nil {
		t.Fatal(err)
	}
	if st.Code != 4 {
		t.Errorf("status = %+v, want code 4", st)
	}
	if time.Since(start) < cfg.DrainGrace {
		t.Error("loop exited before the drain grace elapsed")
	}
	if !strings.Contains(h.vt.Output(), "Process exited with code 4") {
		t.Error("missing exit line")
	}
}

func TestSession_ZeroDrainGraceWaitsForStreams(t *testing.T) {
	t.Parallel()
	cfg := testConfig
	cfg.DrainGrace = 0
	h := newHarness(t, cfg)
	if h.sess.cfg.DrainGrace != defaultDrainGrace {
		t.Fatalf("DrainGrace = %s, want default %s", h.sess.cfg.DrainGrace, defaultDrainGrace)
	}
	// The exit is visible before the relays have delivered the last line.
	h.child.status, h.child.exited = process.ExitStatus{Code: 0}, true
	go func() {
		time.Sleep(50 * time.Millisecond)
		h.bus.Send(process.Event{Kind: process.EventOutput, Stream: process.Stdout, Line: "last"})
		h.child.sendTerminates()
	}()

	if _, err := h.run(t); err != nil {
		t.Fatal(err)
	}
	assertOrder(t, h.vt.Output(), clearRow+"last\r\n", "Process exited with code 0")
}

func TestSession_DrainGraceRestartsOnOutput(t *testing.T) {
	t.Parallel()
	cfg := testConfig
	cfg.DrainGrace = 200 * time.Millisecond
	h := newHarness(t, cfg)
	h.child.status, h.child.exited = process.ExitStatus{Code: 0}, true
	// Output keeps flowing for twice the grace; the streams never end.
	go func() {
		for i := range 20 {
			h.bus.Send(process.Event{Kind: process.EventOutput, Stream: process.Stdout, Line: fmt.Sprintf("line %d", i)})
			time.Sleep(20 * time.Millisecond)
		}
	}()

	if _, err := h.run(t); err != nil {
		t.Fatal(err)
	}
	assertOrder(t, h.vt.Output(), "line 0\r\n", "line 19\r\n", "Process exited with code 0")
}

func TestSession_TerminateWithoutExitKeepsRunning(t *testing.T) {
	t.Parallel()
	h := newHarness(t, testConfig)
	h.child.sendTerminates()
	h.child.sendTerminates()

	var stateAtPoll State
	h.in.onPoll = func(call int) {
		if call == 5 {
			stateAtPoll = h.sess.State()
			h.child.mu.Lock()
			h.child.status, h.child.exited = process.ExitStatus{Code: 0}, true
			h.child.mu.Unlock()
		}
	}

	if _, err := h.run(t); err != nil {
		t.Fatal(err)
	}
	if stateAtPoll != Draining {
		t.Errorf("state after stream ends = %v, want draining", stateAtPoll)
	}
	if n := strings.Count(h.vt.Output(), "Process exited"); n != 1 {
		t.Errorf("exit reported %d times, want 1", n)
	}
}

func TestSession_StylesByStream(t *testing.T) {
	t.Parallel()
	h := newHarness(t, testConfig, append(keys("in"), press(key.KeyEnter)))
	h.sess.styler = tagStyler{}
	h.bus.Send(process.Event{Kind: process.EventOutput, Stream: process.Stdout, Line: "o"})
	h.bus.Send(process.Event{Kind: process.EventError, Stream: process.Stderr, Line: "e"})
	h.child.onWrite = func(string) { h.child.finish(process.ExitStatus{Code: 0}) }

	if _, err := h.run(t); err != nil {
		t.Fatal(err)
	}
	assertOrder(t, h.vt.Output(), "[stdout]o\r\n", "[stderr]e\r\n", "[stdin]in\r\n")
}

func TestSession_ResizeUpdatesWidth(t *testing.T) {
	t.Parallel()
	h := newHarness(t, testConfig,
		[]input.Event{{Kind: input.EventResize, Cols: 12, Rows: 5}},
		keys("abcdefghijklmnop"),
	)
	h.in.onPoll = func(call int) {
		if call == 3 {
			h.child.finish(process.ExitStatus{Code: 0})
		}
	}

	if _, err := h.run(t); err != nil {
		t.Fatal(err)
	}
	if len(h.child.resizes) != 1 || h.child.resizes[0] != [2]int{12, 5} {
		t.Errorf("child resizes = %v", h.child.resizes)
	}
	// 12 columns minus one, minus the two-cell prompt, leaves nine.
	if !strings.Contains(h.vt.Output(), clearRow+"> hijklmnop") {
		t.Errorf("long line not fitted to the new width: %q", h.vt.Output())
	}
}

func TestSession_ContextCancelKillsChild(t *testing.T) {
	t.Parallel()
	bus := eventbus.New[process.Event]()
	child := newFakeChild(bus)
	child.killExitAfter = 1
	vt := terminal.NewVirtualTerminal(80, 24)
	sess := New(testConfig, child, bus, &scriptedInput{}, plainStyler{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	st, err := sess.Run(ctx, vt)
	if err != nil {
		t.Fatal(err)
	}
	if child.kills != 1 || !st.Signaled {
		t.Errorf("kills = %d, status = %+v", child.kills, st)
	}
	assertRestored(t, vt)
}

func TestSession_IOErrorRestoresTerminal(t *testing.T) {
	t.Parallel()
	boom := errors.New("EIO")
	h := newHarness(t, testConfig)
	h.in.onPoll = func(call int) {
		if call == 1 {
			h.vt.FailWrites(boom)
			h.bus.Send(process.Event{Kind: process.EventOutput, Stream: process.Stdout, Line: "lost"})
		}
	}

	_, err := h.run(t)
	if !errors.Is(err, boom) {
		t.Fatalf("Run error = %v, want %v", err, boom)
	}
	assertRestored(t, h.vt)
}

func TestSession_RawModeFailure(t *testing.T) {
	t.Parallel()
	h := newHarness(t, testConfig)
	h.vt.FailEnterRawMode(terminal.ErrNotTerminal)

	if _, err := h.run(t); !errors.Is(err, terminal.ErrNotTerminal) {
		t.Fatalf("Run error = %v, want ErrNotTerminal", err)
	}
	if h.child.polls != 0 {
		t.Error("loop ran without raw mode")
	}
}

func TestExitMessage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		status process.ExitStatus
		want   string
	}{
		{name: "zero", status: process.ExitStatus{Code: 0}, want: "Process exited with code 0"},
		{name: "nonzero", status: process.ExitStatus{Code: 2}, want: "Process exited with code 2"},
		{name: "abnormal", status: process.ExitStatus{Code: -1}, want: "Process exited abnormally"},
		{
			name:   "signaled",
			status: process.ExitStatus{Code: -1, Signaled: true, Signal: syscall.SIGKILL},
			want:   "Process exited abnormally (signal: " + process.SignalName(syscall.SIGKILL) + ")",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := ExitMessage(tt.status); got != tt.want {
				t.Errorf("ExitMessage() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFitPrompt(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		prompt string
		line   string
		cols   int
		want   string
	}{
		{name: "fits", prompt: "> ", line: "abc", cols: 80, want: "> abc"},
		{name: "tail kept", prompt: "> ", line: "abcdef", cols: 6, want: "> def"},
		{name: "prompt too wide", prompt: "long prompt> ", line: "x", cols: 5, want: "long prompt> "},
		{name: "styled prompt", prompt: "\x1b[1m>\x1b[m ", line: "abcdef", cols: 6, want: "\x1b[1m>\x1b[m def"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := fitPrompt(tt.prompt, tt.line, tt.cols); got != tt.want {
				t.Errorf("fitPrompt() = %q, want %q", got, tt.want)
			}
		})
	}
}
