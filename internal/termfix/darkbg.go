// ABOUTME: Pins lipgloss's background detection before the terminal goes raw
// ABOUTME: Imported with _ by main so the default renderer never sends OSC 11 queries

package termfix

import "github.com/charmbracelet/lipgloss"

func init() {
	// An OSC 11 query answered while bio owns stdin would arrive as typed
	// keys on the input line. With the background set explicitly the
	// default renderer's detection never runs.
	lipgloss.SetHasDarkBackground(true)
}
