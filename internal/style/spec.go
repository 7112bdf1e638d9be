// ABOUTME: Declarative style rules as they appear in configuration files.
// ABOUTME: Colours are names, ANSI indexes or hex values; attributes are lower-case words.

package style

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Attrs describes the look of a piece of text.
type Attrs struct {
	Foreground string   `yaml:"foreground,omitempty"`
	Background string   `yaml:"background,omitempty"`
	Attributes []string `yaml:"attributes,omitempty"`
}

// RuleSpec styles every match of Pattern.
type RuleSpec struct {
	Pattern string `yaml:"pattern"`
	Attrs   `yaml:",inline"`
}

// Spec holds the rules for each stream. Rules run in order.
type Spec struct {
	Stdout []RuleSpec `yaml:"stdout,omitempty"`
	Stderr []RuleSpec `yaml:"stderr,omitempty"`
	Input  *Attrs     `yaml:"input,omitempty"`
}

// Rule is a compiled RuleSpec.
type Rule struct {
	Pattern *regexp.Regexp
	Style   lipgloss.Style
}

// namedColors maps the conventional 16 terminal colour names to ANSI indexes.
var namedColors = map[string]string{
	"black":        "0",
	"dark_red":     "1",
	"dark_green":   "2",
	"dark_yellow":  "3",
	"dark_blue":    "4",
	"dark_magenta": "5",
	"dark_cyan":    "6",
	"grey":         "7",
	"gray":         "7",
	"dark_grey":    "8",
	"dark_gray":    "8",
	"red":          "9",
	"green":        "10",
	"yellow":       "11",
	"blue":         "12",
	"magenta":      "13",
	"cyan":         "14",
	"white":        "15",
}

var hexColor = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// ParseColor validates a colour given by name, ANSI index (0-255) or
// "#rgb"/"#rrggbb".
func ParseColor(s string) (lipgloss.Color, error) {
	s = strings.TrimSpace(s)
	key := strings.ToLower(strings.ReplaceAll(s, "-", "_"))
	if idx, ok := namedColors[key]; ok {
		return lipgloss.Color(idx), nil
	}
	if n, err := strconv.Atoi(s); err == nil {
		if n < 0 || n > 255 {
			return "", fmt.Errorf("colour index %d out of range", n)
		}
		return lipgloss.Color(s), nil
	}
	if hexColor.MatchString(s) {
		return lipgloss.Color(s), nil
	}
	return "", fmt.Errorf("unknown colour %q", s)
}

// apply adds a onto st.
func (a Attrs) apply(st lipgloss.Style) (lipgloss.Style, error) {
	if a.Foreground != "" {
		c, err := ParseColor(a.Foreground)
		if err != nil {
			return st, fmt.Errorf("foreground: %w", err)
		}
		st = st.Foreground(c)
	}
	if a.Background != "" {
		c, err := ParseColor(a.Background)
		if err != nil {
			return st, fmt.Errorf("background: %w", err)
		}
		st = st.Background(c)
	}
	for _, name := range a.Attributes {
		switch strings.ToLower(strings.ReplaceAll(strings.TrimSpace(name), "-", "_")) {
		case "bold":
			st = st.Bold(true)
		case "dim", "faint":
			st = st.Faint(true)
		case "italic":
			st = st.Italic(true)
		case "underlined", "underline":
			st = st.Underline(true)
		case "slow_blink", "rapid_blink", "blink":
			st = st.Blink(true)
		case "reverse", "reversed":
			st = st.Reverse(true)
		case "crossed_out", "strikethrough":
			st = st.Strikethrough(true)
		default:
			return st, fmt.Errorf("unknown attribute %q", name)
		}
	}
	return st, nil
}

func compileRules(newStyle func() lipgloss.Style, specs []RuleSpec) ([]Rule, error) {
	rules := make([]Rule, 0, len(specs))
	for i, spec := range specs {
		if spec.Pattern == "" {
			return nil, fmt.Errorf("rule %d: empty pattern", i+1)
		}
		re, err := regexp.Compile(spec.Pattern)
		if err != nil {
			return nil, fmt.Errorf("rule %d: compiling pattern: %w", i+1, err)
		}
		st, err := spec.Attrs.apply(newStyle())
		if err != nil {
			return nil, fmt.Errorf("rule %d: %w", i+1, err)
		}
		rules = append(rules, Rule{Pattern: re, Style: st})
	}
	return rules, nil
}
