package index

import (
	"encoding/binary"
	"fmt"
)

// Tag identifies a record. Tags are four ASCII characters read as a
// little-endian u32, so "File" is stored as the bytes 'F' 'i' 'l' 'e'.
type Tag uint32

// Known tags.
const (
	TagFile Tag = 0x656c6946 // "File"
	TagInfo Tag = 0x6f666e69 // "info"
	TagSegm Tag = 0x6d676573 // "segm"
	TagAdlr Tag = 0x726c6461 // "adlr"
	TagTime Tag = 0x656d6974 // "time"
)

// TagOf builds a tag from a four-character string.
func TagOf(s string) Tag {
	var b [4]byte
	copy(b[:], s)
	return Tag(binary.LittleEndian.Uint32(b[:]))
}

// String returns the four characters of t, or its hex value when they are
// not printable ASCII.
func (t Tag) String() string {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], uint32(t))
	for _, c := range b {
		if c < 0x20 || c > 0x7e {
			return fmt.Sprintf("%#08x", uint32(t))
		}
	}
	return string(b[:])
}
