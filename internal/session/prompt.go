// ABOUTME: Prompt fitting keeps the end of a long input line visible.

package session

import "github.com/mauromedda/bio-go/pkg/tui/width"

// fitPrompt joins prompt and line, dropping the line's head when the
// result would not fit in cols-1 cells.
func fitPrompt(prompt, line string, cols int) string {
	avail := cols - 1 - width.VisibleWidth(prompt)
	if avail <= 0 {
		return prompt
	}
	return prompt + width.Tail(line, avail)
}
