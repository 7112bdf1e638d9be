// ABOUTME: Spawn starts a child with piped stdin and relayed stdout/stderr.
// ABOUTME: Process combines the exit monitor, stdin writer and relay goroutines for one child.

package process

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/mauromedda/bio-go/internal/log"
)

// Sentinel errors for process package.
var (
	// ErrNoCommand is returned when Spawn is given an empty argv.
	ErrNoCommand = errors.New("no command given")

	// ErrStdinClosed is returned when writing after CloseStdin.
	ErrStdinClosed = errors.New("stdin is closed")
)

// Options tunes how a child is started.
type Options struct {
	// PTY gives the child a pseudo-terminal as stdout so it line-buffers.
	PTY bool
	// Cols and Rows size the pseudo-terminal when PTY is set.
	Cols, Rows int
	// Encoding is the IANA charset of the child's output. Empty means UTF-8.
	Encoding string
	// KillSignal is sent by Kill. Zero means SIGTERM.
	KillSignal syscall.Signal
	// Dir and Env are passed to exec.Cmd unchanged.
	Dir string
	Env []string
}

// Process is a running child. Its output arrives on the Sender given to
// Spawn; its termination is observed through the embedded Monitor.
type Process struct {
	*Monitor

	argv  []string
	stdin *stdinWriter

	readers []*os.File
	master  *os.File
	relays  errgroup.Group
}

// Spawn starts argv with its stdout and stderr relayed to bus.
func Spawn(argv []string, bus Sender, opts Options) (*Process, error) {
	if len(argv) == 0 || argv[0] == "" {
		return nil, ErrNoCommand
	}

	enc, err := LookupEncoding(opts.Encoding)
	if err != nil {
		return nil, err
	}

	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Dir = opts.Dir
	cmd.Env = opts.Env
	setProcGroup(cmd)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("creating stdin pipe: %w", err)
	}

	// The parent keeps only the read ends. Cmd.Wait never touches them, so
	// relays finish reading after the child is reaped.
	var parentEnds, childEnds []*os.File
	cleanup := func() {
		for _, f := range append(parentEnds, childEnds...) {
			_ = f.Close()
		}
		_ = stdin.Close()
	}

	var outR, outW *os.File
	if opts.PTY {
		outR, outW, err = openPTY(opts.Cols, opts.Rows)
	} else {
		outR, outW, err = os.Pipe()
	}
	if err != nil {
		cleanup()
		return nil, fmt.Errorf("creating stdout: %w", err)
	}
	parentEnds = append(parentEnds, outR)
	childEnds = append(childEnds, outW)

	errR, errW, err := os.Pipe()
	if err != nil {
		cleanup()
		return nil, fmt.Errorf("creating stderr pipe: %w", err)
	}
	parentEnds = append(parentEnds, errR)
	childEnds = append(childEnds, errW)

	cmd.Stdout = outW
	cmd.Stderr = errW

	if err := cmd.Start(); err != nil {
		cleanup()
		return nil, fmt.Errorf("starting %s: %w", argv[0], err)
	}
	for _, f := range childEnds {
		_ = f.Close()
	}
	log.Debug("started %q as pid %d (pty=%t)", argv, cmd.Process.Pid, opts.PTY)

	p := &Process{
		argv:    argv,
		stdin:   newStdinWriter(stdin, bus),
		readers: parentEnds,
	}
	if opts.PTY {
		p.master = outR
	}

	p.relays.Go(func() error {
		Relay(decodeReader(outR, enc), Stdout, bus)
		return nil
	})
	p.relays.Go(func() error {
		Relay(decodeReader(errR, enc), Stderr, bus)
		return nil
	})

	p.Monitor = newMonitor(cmd, opts.KillSignal)
	return p, nil
}

// Argv returns the command line the child was started with.
func (p *Process) Argv() []string {
	return p.argv
}

// WriteLine queues line for the child's stdin and returns at once; a child
// that stops reading never blocks the caller. Once written the line is
// sent on the bus as EventInput, or as EventInputFailed if the write fails.
// After CloseStdin it returns ErrStdinClosed.
func (p *Process) WriteLine(line string) error {
	return p.stdin.enqueue(line)
}

// CloseStdin signals end-of-input to the child after the lines already
// queued. Later writes fail with ErrStdinClosed.
func (p *Process) CloseStdin() error {
	p.stdin.close()
	return nil
}

// Resize updates the pseudo-terminal size. It is a no-op without a PTY.
func (p *Process) Resize(cols, rows int) error {
	if p.master == nil || cols <= 0 || rows <= 0 {
		return nil
	}
	return resizePTY(p.master, cols, rows)
}

// Wait blocks until the child has exited and both relays have sent their
// terminate events, or ctx is done.
func (p *Process) Wait(ctx context.Context) (ExitStatus, error) {
	st, err := p.Monitor.Wait(ctx)
	if err != nil {
		return st, err
	}

	relaysDone := make(chan struct{})
	go func() {
		_ = p.relays.Wait()
		close(relaysDone)
	}()

	select {
	case <-relaysDone:
		return st, nil
	case <-ctx.Done():
		return st, ctx.Err()
	}
}

// Close releases the parent's ends of the child's streams. Queued input is
// dropped and relays still blocked on a descendant that holds a stream open
// end immediately.
func (p *Process) Close() error {
	var errs []error
	if err := p.stdin.abort(); err != nil {
		errs = append(errs, err)
	}
	for _, f := range p.readers {
		if err := f.Close(); err != nil && !errors.Is(err, os.ErrClosed) {
			errs = append(errs, fmt.Errorf("closing %s: %w", f.Name(), err))
		}
	}
	return errors.Join(errs...)
}
