// ABOUTME: Default formatting for configuration-like output.
// ABOUTME: Section headers, comments and key=value keys each get a distinct look.

package style

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// builtinSegments formats a stdout line:
//
//	[section]    yellow, bold
//	# comment    dark grey
//	key=value    key in green
func (e *Engine) builtinSegments(line string) []segment {
	trimmed := strings.TrimSpace(line)
	switch {
	case strings.HasPrefix(trimmed, "[") && strings.HasSuffix(trimmed, "]"):
		st := e.newStyle().Foreground(lipgloss.Color(namedColors["yellow"])).Bold(true)
		return []segment{{text: line, style: st, styled: true}}
	case strings.HasPrefix(trimmed, "#"):
		st := e.newStyle().Foreground(lipgloss.Color(namedColors["dark_grey"]))
		return []segment{{text: line, style: st, styled: true}}
	case strings.Contains(trimmed, "="):
		eq := strings.IndexByte(line, '=')
		st := e.newStyle().Foreground(lipgloss.Color(namedColors["green"]))
		segs := make([]segment, 0, 2)
		if eq > 0 {
			segs = append(segs, segment{text: line[:eq], style: st, styled: true})
		}
		return append(segs, segment{text: line[eq:]})
	default:
		return []segment{{text: line}}
	}
}
