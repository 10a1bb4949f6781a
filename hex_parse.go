package cbor

import (
	"encoding/hex"
	"strings"
)

// ParseHex parses plain or annotated hex: a "#" begins a comment running to
// end of line (the inverse of ToHex's commentary), and all whitespace is
// insignificant. The remaining hex digits are decoded and handed to
// ParseBytes.
func ParseHex(text string, opts ...ReaderOption) (*Item, error) {
	var sb strings.Builder
	for _, line := range strings.Split(text, "\n") {
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		sb.WriteString(line)
	}
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\r':
			return -1
		default:
			return r
		}
	}, sb.String())
	data, err := hex.DecodeString(cleaned)
	if err != nil {
		return nil, NewCborError(ErrInvalidCbor, 0, "invalid hex input")
	}
	return ParseBytes(data, opts...)
}
