// ABOUTME: Source decodes raw-mode stdin into key events and queues terminal resize events.
// ABOUTME: Poll waits a bounded time for the first event, then drains whatever else is queued.

package input

import (
	"context"
	"io"
	"time"
	"unicode/utf8"

	"github.com/mauromedda/bio-go/pkg/tui/key"
)

const (
	readBufSize    = 256
	eventQueueSize = 256
	escTimeout     = 50 * time.Millisecond
	maxSequenceLen = 8
)

// EventKind distinguishes keyboard input from terminal geometry changes.
type EventKind int

const (
	EventKey EventKind = iota
	EventResize
)

// Event is a single terminal input event.
type Event struct {
	Kind EventKind
	Key  key.Key
	Cols int
	Rows int
}

// Source turns a raw byte stream (normally stdin in raw mode) into Events.
// Start runs the decoder; Poll is called from the render loop.
type Source struct {
	reader io.Reader
	events chan Event
	buf    []byte // only touched by the Start goroutine
}

// NewSource creates a Source reading from r.
func NewSource(r io.Reader) *Source {
	return &Source{
		reader: r,
		events: make(chan Event, eventQueueSize),
		buf:    make([]byte, 0, readBufSize),
	}
}

// Start reads and decodes input until ctx is cancelled or the reader fails.
// It blocks; run it in its own goroutine.
func (s *Source) Start(ctx context.Context) {
	readCh := make(chan readResult)
	done := make(chan struct{})

	go s.readLoop(readCh, done)
	defer close(done)

	var escTimer <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return
		case <-escTimer:
			// Nothing completed the sequence: decode what we have.
			escTimer = nil
			s.decode(ctx, true)
		case result, ok := <-readCh:
			if !ok || result.err != nil {
				s.decode(ctx, true)
				return
			}
			s.buf = append(s.buf, result.data...)
			escTimer = nil
			if s.decode(ctx, false) {
				escTimer = time.After(escTimeout)
			}
		}
	}
}

// Resize queues a resize event. It never blocks; when the queue is full the
// event is dropped, a later resize supersedes it anyway.
func (s *Source) Resize(cols, rows int) {
	select {
	case s.events <- Event{Kind: EventResize, Cols: cols, Rows: rows}:
	default:
	}
}

// Poll waits up to wait for the first event, returning early if wake fires,
// then returns every other event already queued. It never blocks longer
// than wait.
func (s *Source) Poll(wait time.Duration, wake <-chan struct{}) []Event {
	var events []Event

	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case ev := <-s.events:
		events = append(events, ev)
	case <-wake:
	case <-timer.C:
	}

	for {
		select {
		case ev := <-s.events:
			events = append(events, ev)
		default:
			return events
		}
	}
}

type readResult struct {
	data []byte
	err  error
}

// readLoop reads from the reader and forwards chunks until done is closed.
func (s *Source) readLoop(ch chan<- readResult, done <-chan struct{}) {
	defer close(ch)
	tmp := make([]byte, readBufSize)
	for {
		n, err := s.reader.Read(tmp)
		if n > 0 {
			data := make([]byte, n)
			copy(data, tmp[:n])
			select {
			case ch <- readResult{data: data}:
			case <-done:
				return
			}
		}
		if err != nil {
			select {
			case ch <- readResult{err: err}:
			case <-done:
			}
			return
		}
	}
}

// decode emits every complete key in the buffer. It returns true when the
// buffer ends in a partial sequence that needs more bytes.
func (s *Source) decode(ctx context.Context, force bool) bool {
	for len(s.buf) > 0 {
		consumed, k, wait := s.parseNext(force)
		if wait {
			return true
		}
		s.buf = s.buf[consumed:]
		if k.Type == key.KeyUnknown {
			continue
		}
		select {
		case s.events <- Event{Kind: EventKey, Key: k}:
		case <-ctx.Done():
			return false
		}
	}
	return false
}

// parseNext decodes one key from the front of the buffer.
// Returns (consumed bytes, key, needs-more-input).
func (s *Source) parseNext(force bool) (int, key.Key, bool) {
	b := s.buf
	if b[0] == 0x1b {
		return parseEscape(b, force)
	}

	if !utf8.FullRune(b) {
		if !force && len(b) < utf8.UTFMax {
			return 0, key.Key{}, true
		}
		return 1, key.Key{Type: key.KeyUnknown}, false
	}

	r, size := utf8.DecodeRune(b)
	if r == utf8.RuneError {
		return 1, key.Key{Type: key.KeyUnknown}, false
	}
	return size, key.ParseKey(string(b[:size])), false
}

func parseEscape(b []byte, force bool) (int, key.Key, bool) {
	if len(b) == 1 {
		if force {
			return 1, key.Key{Type: key.KeyEscape}, false
		}
		return 0, key.Key{}, true
	}

	for end := min(len(b), maxSequenceLen); end >= 3; end-- {
		if k := key.ParseKey(string(b[:end])); k.Type != key.KeyUnknown {
			return end, k, false
		}
	}

	if !force && key.IsPrefix(string(b)) {
		return 0, key.Key{}, true
	}

	if b[1] == '[' {
		// Unrecognised CSI: swallow it through its final byte so the
		// parameters never show up as typed text.
		for i := 2; i < len(b); i++ {
			if b[i] >= 0x40 && b[i] <= 0x7e {
				return i + 1, key.Key{Type: key.KeyUnknown}, false
			}
		}
		if !force {
			return 0, key.Key{}, true
		}
		return len(b), key.Key{Type: key.KeyUnknown}, false
	}

	return 2, key.ParseKey(string(b[:2])), false
}
