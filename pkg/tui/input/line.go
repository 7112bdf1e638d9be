// ABOUTME: Line is the edit buffer behind the prompt: the text typed but not yet submitted.
// ABOUTME: Every mutation sets the dirty flag so the render loop knows when to repaint.

package input

import "unicode"

// Line holds unsent user input. It never contains a line break.
// It is not safe for concurrent use; the render loop owns it.
type Line struct {
	runes []rune
	dirty bool
}

// NewLine returns an empty Line.
func NewLine() *Line {
	return &Line{runes: make([]rune, 0, 64)}
}

// Insert appends r. Line breaks are ignored.
func (l *Line) Insert(r rune) {
	if r == '\n' || r == '\r' {
		return
	}
	l.runes = append(l.runes, r)
	l.dirty = true
}

// Backspace removes the last rune. It reports whether anything was removed.
func (l *Line) Backspace() bool {
	if len(l.runes) == 0 {
		return false
	}
	l.runes = l.runes[:len(l.runes)-1]
	l.dirty = true
	return true
}

// DeleteWord removes trailing whitespace and then the word before it.
func (l *Line) DeleteWord() bool {
	end := len(l.runes)
	i := end
	for i > 0 && unicode.IsSpace(l.runes[i-1]) {
		i--
	}
	for i > 0 && !unicode.IsSpace(l.runes[i-1]) {
		i--
	}
	if i == end {
		return false
	}
	l.runes = l.runes[:i]
	l.dirty = true
	return true
}

// Take returns the contents and empties the buffer.
func (l *Line) Take() string {
	s := string(l.runes)
	if len(l.runes) > 0 {
		l.runes = l.runes[:0]
		l.dirty = true
	}
	return s
}

// Set replaces the contents with s, dropping line breaks.
func (l *Line) Set(s string) {
	l.runes = l.runes[:0]
	for _, r := range s {
		if r != '\n' && r != '\r' {
			l.runes = append(l.runes, r)
		}
	}
	l.dirty = true
}

// Clear discards the contents. It reports whether there was anything to discard.
func (l *Line) Clear() bool {
	return l.Take() != ""
}

// IsEmpty reports whether the buffer holds no input.
func (l *Line) IsEmpty() bool {
	return len(l.runes) == 0
}

func (l *Line) String() string {
	return string(l.runes)
}

// Dirty reports whether the buffer changed since the last MarkClean.
func (l *Line) Dirty() bool {
	return l.dirty
}

// MarkClean records that the current contents have been rendered.
func (l *Line) MarkClean() {
	l.dirty = false
}
