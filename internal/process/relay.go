// ABOUTME: Relay turns one child stream into line events followed by a single terminate event.
// ABOUTME: Read errors end the stream the same way end-of-file does.

package process

import (
	"bufio"
	"errors"
	"io"
	"strings"

	"github.com/mauromedda/bio-go/internal/log"
)

// Relay reads newline-terminated lines from r and sends one event per line
// until r is exhausted, then sends exactly one EventTerminate for stream.
// A trailing "\r" is stripped. A final partial line with no terminator is
// dropped. Relay blocks until r ends; run it on its own goroutine.
func Relay(r io.Reader, stream Stream, bus Sender) {
	defer bus.Send(Event{Kind: EventTerminate, Stream: stream})

	kind := EventOutput
	if stream == Stderr {
		kind = EventError
	}

	br := bufio.NewReader(r)
	for {
		line, err := br.ReadString('\n')
		if err != nil {
			if !errors.Is(err, io.EOF) {
				log.Debug("%s relay: read error treated as end of stream: %v", stream, err)
			}
			if line != "" {
				log.Debug("%s relay: dropping unterminated line (%d bytes)", stream, len(line))
			}
			return
		}

		line = strings.TrimSuffix(line, "\n")
		line = strings.TrimSuffix(line, "\r")
		bus.Send(Event{Kind: kind, Stream: stream, Line: line})
	}
}
