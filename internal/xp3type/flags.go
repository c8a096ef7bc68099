// Package xp3type defines shared types used across the xp3 package and its
// internal packages. This avoids circular imports between xp3 and internal/index.
package xp3type

import "fmt"

// Protection is the info fragment flag marking an entry as protected.
type Protection uint32

const (
	NotProtected Protection = 0
	Protected    Protection = 0x80000000
)

// Valid reports whether p is one of the two values the format defines.
func (p Protection) Valid() bool {
	return p == NotProtected || p == Protected
}

func (p Protection) String() string {
	switch p {
	case NotProtected:
		return "not-protected"
	case Protected:
		return "protected"
	default:
		return fmt.Sprintf("protection(%#x)", uint32(p))
	}
}

// SegmentFlag tells whether a segment's stored bytes are zlib-compressed.
type SegmentFlag uint32

const (
	SegmentUncompressed SegmentFlag = 0
	SegmentCompressed   SegmentFlag = 1
)

// Valid reports whether f is one of the two values the format defines.
func (f SegmentFlag) Valid() bool {
	return f == SegmentUncompressed || f == SegmentCompressed
}

func (f SegmentFlag) String() string {
	switch f {
	case SegmentUncompressed:
		return "none"
	case SegmentCompressed:
		return "zlib"
	default:
		return "unknown"
	}
}

// IndexCompression selects whether the index set body is zlib-compressed.
type IndexCompression uint8

const (
	IndexUncompressed IndexCompression = 0
	IndexCompressed   IndexCompression = 1
)

// Valid reports whether c is one of the two values the format defines.
func (c IndexCompression) Valid() bool {
	return c == IndexUncompressed || c == IndexCompressed
}

func (c IndexCompression) String() string {
	switch c {
	case IndexUncompressed:
		return "none"
	case IndexCompressed:
		return "zlib"
	default:
		return "unknown"
	}
}
