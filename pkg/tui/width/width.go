// ABOUTME: VisibleWidth measures terminal cell width of possibly styled text.
// ABOUTME: Tail keeps the rightmost part of an input line that fits a column budget.

package width

import (
	"unicode/utf8"

	"github.com/charmbracelet/x/ansi"
	"github.com/mattn/go-runewidth"
	"github.com/rivo/uniseg"
)

// VisibleWidth returns the display width of s. Escape sequences count as
// zero cells; wide graphemes (CJK, emoji) count as two.
func VisibleWidth(s string) int {
	if s == "" {
		return 0
	}
	if isPlainASCII(s) {
		return len(s)
	}

	w := 0
	for _, cluster := range clusters(ansi.Strip(s)) {
		w += graphemeWidth(cluster)
	}
	return w
}

// Tail returns the longest suffix of s whose visible width is at most
// cols, cut on grapheme boundaries. s must not carry escape sequences.
func Tail(s string, cols int) string {
	if cols <= 0 {
		return ""
	}
	if isPlainASCII(s) {
		if len(s) <= cols {
			return s
		}
		return s[len(s)-cols:]
	}

	parts := clusters(s)
	used := 0
	start := len(parts)
	for start > 0 {
		w := graphemeWidth(parts[start-1])
		if used+w > cols {
			break
		}
		used += w
		start--
	}

	n := 0
	for _, p := range parts[:start] {
		n += len(p)
	}
	return s[n:]
}

// isPlainASCII reports whether s holds only printable ASCII.
func isPlainASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if b := s[i]; b < 0x20 || b > 0x7E {
			return false
		}
	}
	return true
}

func clusters(s string) []string {
	var out []string
	state := -1
	for len(s) > 0 {
		var cluster string
		cluster, s, _, state = uniseg.FirstGraphemeClusterInString(s, state)
		out = append(out, cluster)
	}
	return out
}

// graphemeWidth is the width of the cluster's leading rune; combining
// marks and joiners that follow it occupy no extra cell.
func graphemeWidth(cluster string) int {
	if cluster == "" {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(cluster)
	return runewidth.RuneWidth(r)
}
