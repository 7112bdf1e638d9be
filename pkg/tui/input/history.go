// ABOUTME: History keeps submitted lines for Up/Down recall on the input line
// ABOUTME: In memory only; the draft typed before browsing is restored past the newest entry

package input

import "strings"

// DefaultHistorySize bounds how many lines History keeps.
const DefaultHistorySize = 500

// History is a bounded list of submitted lines. The render loop owns it.
type History struct {
	entries []string
	limit   int
	pos     int // -1 means not browsing
	draft   string
}

// NewHistory returns an empty History holding at most limit entries.
// A limit <= 0 uses DefaultHistorySize.
func NewHistory(limit int) *History {
	if limit <= 0 {
		limit = DefaultHistorySize
	}
	return &History{limit: limit, pos: -1}
}

// Len returns the number of stored entries.
func (h *History) Len() int {
	return len(h.entries)
}

// Add records entry and stops browsing. Blank entries and repeats of the
// newest entry are skipped.
func (h *History) Add(entry string) {
	h.pos = -1
	h.draft = ""
	if strings.TrimSpace(entry) == "" {
		return
	}
	if n := len(h.entries); n > 0 && h.entries[n-1] == entry {
		return
	}
	h.entries = append(h.entries, entry)
	if over := len(h.entries) - h.limit; over > 0 {
		h.entries = append(h.entries[:0], h.entries[over:]...)
	}
}

// Prev moves one entry back. current is what the line holds now and is
// kept as the draft when browsing starts. It returns the text to show and
// false when there is nothing older.
func (h *History) Prev(current string) (string, bool) {
	if len(h.entries) == 0 {
		return "", false
	}
	if h.pos == -1 {
		h.draft = current
		h.pos = len(h.entries)
	}
	if h.pos == 0 {
		return "", false
	}
	h.pos--
	return h.entries[h.pos], true
}

// Next moves one entry forward, ending at the saved draft.
func (h *History) Next() (string, bool) {
	if h.pos == -1 {
		return "", false
	}
	h.pos++
	if h.pos >= len(h.entries) {
		h.pos = -1
		draft := h.draft
		h.draft = ""
		return draft, true
	}
	return h.entries[h.pos], true
}

// Reset stops browsing without changing the entries. Call it when the
// shown line is edited so the next Prev keeps the edit as the draft.
func (h *History) Reset() {
	h.pos = -1
	h.draft = ""
}
