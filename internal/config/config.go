// ABOUTME: Settings loading with defaults, global, project and explicit YAML files, then environment.
// ABOUTME: Each later layer overrides only the fields it sets.

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mauromedda/bio-go/internal/style"
)

// Default values.
const (
	DefaultPrompt       = "> "
	DefaultPollInterval = 30 * time.Millisecond
	DefaultDrainGrace   = 500 * time.Millisecond
	DefaultKillSignal   = "SIGTERM"
	DefaultHistorySize  = 500
)

// Settings is the fully resolved configuration.
type Settings struct {
	Prompt       string
	PollInterval time.Duration
	DrainGrace   time.Duration
	KillSignal   string
	Encoding     string
	PTY          bool
	NoColor      bool
	BuiltinStyle bool
	LogLevel     string
	HistorySize  int
	Style        style.Spec

	// Sources lists the files that contributed, lowest precedence first.
	Sources []string
}

// File is one configuration layer as written in YAML. Nil fields are unset.
type File struct {
	Prompt       *string        `yaml:"prompt"`
	PollInterval *time.Duration `yaml:"poll_interval"`
	DrainGrace   *time.Duration `yaml:"drain_grace"`
	KillSignal   *string        `yaml:"kill_signal"`
	Encoding     *string        `yaml:"encoding"`
	PTY          *bool          `yaml:"pty"`
	NoColor      *bool          `yaml:"no_color"`
	BuiltinStyle *bool          `yaml:"builtin_style"`
	LogLevel     *string        `yaml:"log_level"`
	HistorySize  *int           `yaml:"history_size"`
	Style        *style.Spec    `yaml:"style"`
}

// Defaults returns the built-in settings.
func Defaults() Settings {
	return Settings{
		Prompt:       DefaultPrompt,
		PollInterval: DefaultPollInterval,
		DrainGrace:   DefaultDrainGrace,
		KillSignal:   DefaultKillSignal,
		BuiltinStyle: true,
		LogLevel:     "info",
		HistorySize:  DefaultHistorySize,
	}
}

// LoadOptions locates the configuration layers.
type LoadOptions struct {
	// ProjectRoot is searched for ProjectFileName. Empty means cwd.
	ProjectRoot string
	// ExplicitPath is a file named on the command line; it must exist.
	ExplicitPath string
	// Getenv reads the environment. Nil means os.Getenv.
	Getenv func(string) string
}

// Paths returns every file Load consults, lowest precedence first.
func (o LoadOptions) Paths() []string {
	paths := []string{GlobalConfigFile(), ProjectConfigFile(o.ProjectRoot)}
	if o.ExplicitPath != "" {
		paths = append(paths, o.ExplicitPath)
	}
	return paths
}

// Load resolves settings from defaults, config files and the environment.
func Load(opts LoadOptions) (*Settings, error) {
	s := Defaults()

	global, err := loadFile(GlobalConfigFile())
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading global config: %w", err)
	}
	if err == nil {
		merge(&s, global)
		s.Sources = append(s.Sources, GlobalConfigFile())
	}

	project, err := loadFile(ProjectConfigFile(opts.ProjectRoot))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading project config: %w", err)
	}
	if err == nil {
		merge(&s, project)
		s.Sources = append(s.Sources, ProjectConfigFile(opts.ProjectRoot))
	}

	if opts.ExplicitPath != "" {
		explicit, err := loadFile(opts.ExplicitPath)
		if err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
		merge(&s, explicit)
		s.Sources = append(s.Sources, opts.ExplicitPath)
	}

	getenv := opts.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}
	if err := applyEnv(&s, getenv); err != nil {
		return nil, err
	}

	s.Prompt = expandEnv(s.Prompt, getenv)
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate rejects settings the session cannot run with.
func (s *Settings) Validate() error {
	if s.PollInterval <= 0 {
		return fmt.Errorf("poll_interval must be positive, got %s", s.PollInterval)
	}
	if s.DrainGrace <= 0 {
		return fmt.Errorf("drain_grace must be positive, got %s", s.DrainGrace)
	}
	if s.HistorySize < 0 {
		return fmt.Errorf("history_size must not be negative, got %d", s.HistorySize)
	}
	return nil
}

// loadFile reads one YAML layer.
func loadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return &f, nil
}

// merge copies every field set in f onto s. Style rules are replaced per
// stream, not appended.
func merge(s *Settings, f *File) {
	if f == nil {
		return
	}
	if f.Prompt != nil {
		s.Prompt = *f.Prompt
	}
	if f.PollInterval != nil {
		s.PollInterval = *f.PollInterval
	}
	if f.DrainGrace != nil {
		s.DrainGrace = *f.DrainGrace
	}
	if f.KillSignal != nil {
		s.KillSignal = *f.KillSignal
	}
	if f.Encoding != nil {
		s.Encoding = *f.Encoding
	}
	if f.PTY != nil {
		s.PTY = *f.PTY
	}
	if f.NoColor != nil {
		s.NoColor = *f.NoColor
	}
	if f.BuiltinStyle != nil {
		s.BuiltinStyle = *f.BuiltinStyle
	}
	if f.LogLevel != nil {
		s.LogLevel = *f.LogLevel
	}
	if f.HistorySize != nil {
		s.HistorySize = *f.HistorySize
	}
	if f.Style != nil {
		if f.Style.Stdout != nil {
			s.Style.Stdout = f.Style.Stdout
		}
		if f.Style.Stderr != nil {
			s.Style.Stderr = f.Style.Stderr
		}
		if f.Style.Input != nil {
			s.Style.Input = f.Style.Input
		}
	}
}
