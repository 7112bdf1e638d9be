// ABOUTME: Charset decoding for child output that is not UTF-8.
// ABOUTME: Encodings are looked up by IANA name, for example "ISO-8859-1" or "Shift_JIS".

package process

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"
)

// LookupEncoding resolves an IANA charset name. An empty name or a UTF-8
// alias returns nil, meaning no decoding is needed.
func LookupEncoding(name string) (encoding.Encoding, error) {
	name = strings.TrimSpace(name)
	switch strings.ToLower(name) {
	case "", "utf-8", "utf8":
		return nil, nil
	}

	enc, err := ianaindex.IANA.Encoding(name)
	if err != nil {
		return nil, fmt.Errorf("looking up encoding %q: %w", name, err)
	}
	if enc == nil {
		return nil, fmt.Errorf("encoding %q is not supported", name)
	}
	return enc, nil
}

// decodeReader wraps r so bytes in enc are read as UTF-8. A nil enc
// returns r unchanged.
func decodeReader(r io.Reader, enc encoding.Encoding) io.Reader {
	if enc == nil {
		return r
	}
	return enc.NewDecoder().Reader(r)
}
