// ABOUTME: Engine styles child output and echoed input lines for display.
// ABOUTME: Rules split text into matched and unmatched segments; later rules refine earlier ones.

package style

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/mauromedda/bio-go/internal/process"
)

// Options selects the colour profile and built-in formatting.
type Options struct {
	// Profile is the colour depth to render with. termenv.Ascii disables
	// all styling.
	Profile termenv.Profile
	// Builtin enables the default formatter for stdout lines. Configured
	// stdout rules run on its result.
	Builtin bool
}

// Engine turns raw lines into styled lines. It is safe for concurrent use
// and may be reloaded while in use.
type Engine struct {
	renderer *lipgloss.Renderer
	builtin  bool

	mu     sync.RWMutex
	stdout []Rule
	stderr []Rule
	input  lipgloss.Style
}

// New compiles spec into an Engine.
func New(spec Spec, opts Options) (*Engine, error) {
	r := lipgloss.NewRenderer(io.Discard)
	r.SetColorProfile(opts.Profile)

	e := &Engine{renderer: r, builtin: opts.Builtin}
	if err := e.Reload(spec); err != nil {
		return nil, err
	}
	return e, nil
}

// Reload replaces the rules. On error the previous rules stay in effect.
func (e *Engine) Reload(spec Spec) error {
	stdout, err := compileRules(e.newStyle, spec.Stdout)
	if err != nil {
		return fmt.Errorf("compiling stdout rules: %w", err)
	}
	stderr, err := compileRules(e.newStyle, spec.Stderr)
	if err != nil {
		return fmt.Errorf("compiling stderr rules: %w", err)
	}

	input := e.newStyle().Foreground(lipgloss.Color(namedColors["cyan"]))
	if spec.Input != nil {
		input, err = spec.Input.apply(e.newStyle())
		if err != nil {
			return fmt.Errorf("compiling input style: %w", err)
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.stdout, e.stderr, e.input = stdout, stderr, input
	return nil
}

// newStyle returns an empty style that leaves tabs alone.
func (e *Engine) newStyle() lipgloss.Style {
	return e.renderer.NewStyle().TabWidth(lipgloss.NoTabConversion)
}

// Style renders line as it should appear for stream.
func (e *Engine) Style(line string, stream process.Stream) string {
	if line == "" {
		return line
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	switch stream {
	case process.Stdin:
		return e.input.Render(line)
	case process.Stderr:
		return render(applyRules([]segment{{text: line}}, e.stderr))
	default:
		segs := []segment{{text: line}}
		if e.builtin {
			segs = e.builtinSegments(line)
		}
		return render(applyRules(segs, e.stdout))
	}
}

// segment is a run of text with an optional style.
type segment struct {
	text   string
	style  lipgloss.Style
	styled bool
}

// applyRules runs each rule over every segment in turn. A match inside an
// already styled segment inherits that segment's style underneath its own.
func applyRules(segs []segment, rules []Rule) []segment {
	for _, rule := range rules {
		next := make([]segment, 0, len(segs))
		for _, seg := range segs {
			next = append(next, splitMatch(seg, rule)...)
		}
		segs = next
	}
	return segs
}

func splitMatch(seg segment, rule Rule) []segment {
	locs := rule.Pattern.FindAllStringIndex(seg.text, -1)
	if len(locs) == 0 {
		return []segment{seg}
	}

	matched := rule.Style
	if seg.styled {
		matched = rule.Style.Inherit(seg.style)
	}

	out := make([]segment, 0, 2*len(locs)+1)
	last := 0
	for _, loc := range locs {
		if loc[0] == loc[1] {
			continue
		}
		if loc[0] > last {
			out = append(out, segment{text: seg.text[last:loc[0]], style: seg.style, styled: seg.styled})
		}
		out = append(out, segment{text: seg.text[loc[0]:loc[1]], style: matched, styled: true})
		last = loc[1]
	}
	if last < len(seg.text) {
		out = append(out, segment{text: seg.text[last:], style: seg.style, styled: seg.styled})
	}
	return out
}

func render(segs []segment) string {
	var b strings.Builder
	for _, seg := range segs {
		if seg.styled {
			b.WriteString(seg.style.Render(seg.text))
			continue
		}
		b.WriteString(seg.text)
	}
	return b.String()
}
