// ABOUTME: CLI flag parsing using pflag; parsing stops at the first non-flag argument
// ABOUTME: Everything after it, or after "--", is the child command line

package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/pflag"

	"github.com/mauromedda/bio-go/internal/config"
	"github.com/mauromedda/bio-go/internal/process"
)

// errUsage marks command-line mistakes; main exits 2 for them.
var errUsage = errors.New("usage")

const usageHeader = `Usage: bio [flags] [--] command [args...]

Runs command with a live input line. Type a line and press Enter to send it
to the command's stdin. Ctrl-C stops the command (twice to force), Ctrl-D
closes its stdin, Ctrl-U clears the line.

Flags:
`

type cliArgs struct {
	configPath string
	prompt     string
	noColor    bool
	pty        bool
	encoding   string
	killSignal string
	verbose    bool
	logFile    string
	version    bool
	help       bool

	command []string
	changed map[string]bool
}

// parseFlags parses argv (without the program name).
func parseFlags(argv []string, stderr io.Writer) (cliArgs, error) {
	var args cliArgs

	fs := pflag.NewFlagSet("bio", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.SetInterspersed(false)
	fs.Usage = func() {
		fmt.Fprint(stderr, usageHeader)
		fs.PrintDefaults()
	}

	fs.StringVarP(&args.configPath, "config", "c", "", "Read settings from this YAML file")
	fs.StringVarP(&args.prompt, "prompt", "p", "", "Text shown before the input line")
	fs.BoolVar(&args.noColor, "no-color", false, "Disable colours")
	fs.BoolVar(&args.pty, "pty", false, "Give the command a pseudo-terminal as stdout")
	fs.StringVar(&args.encoding, "encoding", "", "Charset of the command's output (IANA name)")
	fs.StringVar(&args.killSignal, "kill-signal", "", "Signal sent by Ctrl-C (default SIGTERM)")
	fs.BoolVarP(&args.verbose, "verbose", "v", false, "Log debug detail")
	fs.StringVar(&args.logFile, "log-file", "", "Append logs to this file")
	fs.BoolVar(&args.version, "version", false, "Show version and exit")
	fs.BoolVarP(&args.help, "help", "h", false, "Show this help")

	if err := fs.Parse(argv); err != nil {
		return args, fmt.Errorf("%w: %w", errUsage, err)
	}

	args.changed = make(map[string]bool)
	fs.Visit(func(f *pflag.Flag) {
		args.changed[f.Name] = true
	})

	if args.help || args.version {
		return args, nil
	}

	args.command = process.SplitCommand(fs.Args())
	if len(args.command) == 0 {
		fs.Usage()
		return args, fmt.Errorf("%w: %w", errUsage, process.ErrNoCommand)
	}
	return args, nil
}

// applyOverrides copies explicitly given flags onto s.
func (a cliArgs) applyOverrides(s *config.Settings) {
	if a.changed["prompt"] {
		s.Prompt = a.prompt
	}
	if a.changed["no-color"] {
		s.NoColor = a.noColor
	}
	if a.changed["pty"] {
		s.PTY = a.pty
	}
	if a.changed["encoding"] {
		s.Encoding = a.encoding
	}
	if a.changed["kill-signal"] {
		s.KillSignal = a.killSignal
	}
	if a.verbose {
		s.LogLevel = "debug"
	}
}
