// ABOUTME: CLI entry point for bio with terminal crash recovery
// ABOUTME: Parses flags, loads config, spawns the command and runs the interactive session

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/muesli/cancelreader"

	// termfix pins lipgloss's background detection so no terminal query
	// reply can land in the raw input stream.
	_ "github.com/mauromedda/bio-go/internal/termfix"

	"github.com/mauromedda/bio-go/internal/config"
	"github.com/mauromedda/bio-go/internal/eventbus"
	biolog "github.com/mauromedda/bio-go/internal/log"
	"github.com/mauromedda/bio-go/internal/process"
	"github.com/mauromedda/bio-go/internal/session"
	"github.com/mauromedda/bio-go/internal/style"
	"github.com/mauromedda/bio-go/pkg/tui/input"
	"github.com/mauromedda/bio-go/pkg/tui/terminal"
)

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Exit codes for failures of bio itself.
const (
	exitFailure = 1
	exitUsage   = 2
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run executes bio and returns the process exit code.
func run(argv []string, stdout, stderr io.Writer) int {
	args, err := parseFlags(argv, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitUsage
	}

	switch {
	case args.help:
		fmt.Fprint(stdout, usageHeader)
		return 0
	case args.version:
		fmt.Fprintf(stdout, "bio %s (%s) built %s\n", version, commit, date)
		return 0
	}

	code, err := runCommand(args, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		if errors.Is(err, errUsage) {
			return exitUsage
		}
		return exitFailure
	}
	return code
}

// loadSettings resolves configuration and applies flag overrides.
func loadSettings(args cliArgs) (*config.Settings, config.LoadOptions, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, config.LoadOptions{}, fmt.Errorf("getting working directory: %w", err)
	}
	opts := config.LoadOptions{ProjectRoot: cwd, ExplicitPath: args.configPath}

	settings, err := config.Load(opts)
	if err != nil {
		return nil, opts, fmt.Errorf("loading config: %w", err)
	}
	args.applyOverrides(settings)
	return settings, opts, nil
}

// runCommand spawns the child and drives the session. It returns the
// exit code bio should use.
func runCommand(args cliArgs, stderr io.Writer) (int, error) {
	settings, loadOpts, err := loadSettings(args)
	if err != nil {
		return exitFailure, err
	}

	level, err := biolog.ParseLevel(settings.LogLevel)
	if err != nil {
		return exitFailure, fmt.Errorf("%w: %w", errUsage, err)
	}
	biolog.SetLevel(level)

	logOut := io.Discard
	if args.logFile != "" {
		f, err := os.OpenFile(args.logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return exitFailure, fmt.Errorf("opening log file: %w", err)
		}
		defer f.Close()
		logOut = f
	}

	killSig, err := process.ParseSignal(settings.KillSignal)
	if err != nil {
		return exitFailure, fmt.Errorf("%w: %w", errUsage, err)
	}

	styler, err := style.New(settings.Style, style.Options{
		Profile: style.DetectProfile(settings.NoColor),
		Builtin: settings.BuiltinStyle,
	})
	if err != nil {
		return exitFailure, fmt.Errorf("loading styles: %w", err)
	}

	term := terminal.NewProcessTerminal(os.Stdin, os.Stdout)
	defer terminal.RestoreOnPanic(term)
	if !term.IsTerminal() {
		return exitFailure, fmt.Errorf("bio needs an interactive terminal: %w", terminal.ErrNotTerminal)
	}
	defer term.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	defer stop()

	cols, rows, _ := term.Size()
	bus := eventbus.New[process.Event]()
	child, err := process.Spawn(args.command, bus, process.Options{
		PTY:        settings.PTY,
		Cols:       cols,
		Rows:       rows,
		Encoding:   settings.Encoding,
		KillSignal: killSig,
	})
	if err != nil {
		return exitFailure, fmt.Errorf("spawning command: %w", err)
	}
	defer func() {
		if _, exited := child.PollExit(); !exited {
			child.ForceKill()
		}
		if err := child.Close(); err != nil {
			biolog.Debug("closing child streams: %v", err)
		}
	}()

	stdin, err := cancelreader.NewReader(os.Stdin)
	if err != nil {
		return exitFailure, fmt.Errorf("opening stdin: %w", err)
	}
	defer stdin.Close()

	src := input.NewSource(stdin)
	inputCtx, stopInput := context.WithCancel(ctx)
	go func() {
		defer terminal.RecoverGoroutine(term)
		src.Start(inputCtx)
	}()
	defer func() {
		stopInput()
		stdin.Cancel()
	}()
	term.OnResize(src.Resize)

	watcher := config.NewWatcher(loadOpts.Paths(), func(changed []string) {
		reloadStyles(args, loadOpts, styler, changed)
	})
	watcher.Start(ctx)
	defer watcher.Stop()

	prevLog := biolog.SetOutput(logOut)
	defer biolog.SetOutput(prevLog)
	biolog.Info("running %q (pid %d)", child.Argv(), child.Pid())

	sess := session.New(session.Config{
		Prompt:       settings.Prompt,
		PollInterval: settings.PollInterval,
		DrainGrace:   settings.DrainGrace,
		HistorySize:  settings.HistorySize,
	}, child, bus, src, styler)

	status, err := sess.Run(ctx, term)
	if err != nil {
		return exitFailure, fmt.Errorf("running session: %w", err)
	}
	return status.WrapperCode(), nil
}

// reloadStyles re-reads configuration after a file change. A file that no
// longer parses leaves the current styles in place.
func reloadStyles(args cliArgs, opts config.LoadOptions, styler *style.Engine, changed []string) {
	settings, err := config.Load(opts)
	if err != nil {
		biolog.Warn("config changed (%v) but could not be loaded, keeping current styles: %v", changed, err)
		return
	}
	args.applyOverrides(settings)
	if err := styler.Reload(settings.Style); err != nil {
		biolog.Warn("config changed (%v) but styles are invalid, keeping current styles: %v", changed, err)
		return
	}
	biolog.Info("reloaded styles from %v", changed)
}
