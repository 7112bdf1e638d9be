// ABOUTME: Defines the Key type and ParseKey for raw-mode keyboard input.
// ABOUTME: Maps control bytes and CSI/SS3 sequences to the keys the prompt line understands.

package key

import (
	"fmt"
	"unicode/utf8"
)

// Key represents a parsed keyboard input event.
type Key struct {
	Type KeyType
	Rune rune // For KeyRune
	Alt  bool
	Ctrl bool
}

// KeyType enumerates the kinds of key events the prompt can receive.
type KeyType int

const (
	KeyRune      KeyType = iota // Printable character
	KeyEnter                    // Enter / Return / Ctrl+J
	KeyTab                      // Tab
	KeyBackspace                // Backspace / DEL (0x7F) / Ctrl+H
	KeyDelete                   // Delete key
	KeyUp                       // Arrow up
	KeyDown                     // Arrow down
	KeyLeft                     // Arrow left
	KeyRight                    // Arrow right
	KeyHome                     // Home
	KeyEnd                      // End
	KeyEscape                   // Escape
	KeyCtrlC                    // Ctrl+C: stop the child
	KeyCtrlD                    // Ctrl+D: close the child's stdin
	KeyCtrlL                    // Ctrl+L: repaint the prompt
	KeyCtrlU                    // Ctrl+U: discard the input line
	KeyCtrlW                    // Ctrl+W: delete the previous word
	KeyUnknown                  // Unrecognized input
)

// ctrlKeys maps control byte values to their Key representations.
var ctrlKeys = map[byte]Key{
	0x03: {Type: KeyCtrlC, Ctrl: true},
	0x04: {Type: KeyCtrlD, Ctrl: true},
	0x0c: {Type: KeyCtrlL, Ctrl: true},
	0x15: {Type: KeyCtrlU, Ctrl: true},
	0x17: {Type: KeyCtrlW, Ctrl: true},
}

// ParseKey parses raw terminal input data into a Key.
func ParseKey(data string) Key {
	if len(data) == 0 {
		return Key{Type: KeyUnknown}
	}

	if len(data) == 1 {
		return parseSingleByte(data[0])
	}

	if data[0] == 0x1b {
		return parseEscapeSequence(data)
	}

	r, size := utf8.DecodeRuneInString(data)
	if r == utf8.RuneError || size != len(data) {
		return Key{Type: KeyUnknown}
	}
	return Key{Type: KeyRune, Rune: r}
}

func parseSingleByte(b byte) Key {
	switch {
	case b == 0x0d || b == 0x0a:
		return Key{Type: KeyEnter}
	case b == 0x09:
		return Key{Type: KeyTab}
	case b == 0x7f || b == 0x08:
		return Key{Type: KeyBackspace}
	case b == 0x1b:
		return Key{Type: KeyEscape}
	case b >= 0x20 && b <= 0x7e:
		return Key{Type: KeyRune, Rune: rune(b)}
	}

	if k, ok := ctrlKeys[b]; ok {
		return k
	}
	return Key{Type: KeyUnknown}
}

func parseEscapeSequence(data string) Key {
	if k, ok := legacySequences[data]; ok {
		return k
	}

	// Alt+letter: ESC followed by a single printable byte.
	if len(data) == 2 && data[1] >= 0x20 && data[1] <= 0x7e {
		return Key{Type: KeyRune, Rune: rune(data[1]), Alt: true}
	}

	return Key{Type: KeyUnknown}
}

var keyTypeNames = map[KeyType]string{
	KeyEnter:     "Enter",
	KeyTab:       "Tab",
	KeyBackspace: "Backspace",
	KeyDelete:    "Delete",
	KeyUp:        "Up",
	KeyDown:      "Down",
	KeyLeft:      "Left",
	KeyRight:     "Right",
	KeyHome:      "Home",
	KeyEnd:       "End",
	KeyEscape:    "Escape",
	KeyCtrlC:     "Ctrl+C",
	KeyCtrlD:     "Ctrl+D",
	KeyCtrlL:     "Ctrl+L",
	KeyCtrlU:     "Ctrl+U",
	KeyCtrlW:     "Ctrl+W",
}

// String returns a human-readable form of the key for debug logging.
func (k Key) String() string {
	if k.Type == KeyRune {
		if k.Alt {
			return fmt.Sprintf("Alt+%c", k.Rune)
		}
		return string(k.Rune)
	}
	if name, ok := keyTypeNames[k.Type]; ok {
		return name
	}
	return "Unknown"
}

// IsPrefix reports whether data could be the start of a longer escape
// sequence known to ParseKey.
func IsPrefix(data string) bool {
	for seq := range legacySequences {
		if len(seq) > len(data) && seq[:len(data)] == data {
			return true
		}
	}
	return false
}
