package index

import (
	"fmt"

	"golang.org/x/text/encoding/unicode"

	"github.com/meigma/xp3/internal/xp3type"
)

// MaxNameUnits is the longest name, in UTF-16 code units, a u16 length can describe.
const MaxNameUnits = 1<<16 - 1

var utf16le = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)

// EncodeName converts s to UTF-16LE. Invalid UTF-8 is replaced with U+FFFD.
// Names longer than MaxNameUnits fail with xp3type.ErrNameTooLong.
func EncodeName(s string) ([]byte, error) {
	b, err := utf16le.NewEncoder().Bytes([]byte(s))
	if err != nil {
		return nil, fmt.Errorf("encode name: %w", err)
	}
	if len(b)/2 > MaxNameUnits {
		return nil, fmt.Errorf("%w: %d code units", xp3type.ErrNameTooLong, len(b)/2)
	}
	return b, nil
}

// DecodeName converts UTF-16LE bytes to a string, replacing invalid
// sequences with U+FFFD.
func DecodeName(b []byte) string {
	s, err := utf16le.NewDecoder().Bytes(b)
	if err != nil {
		// The UTF-16 decoder substitutes instead of failing.
		return "\ufffd"
	}
	return string(s)
}
