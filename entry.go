package xp3

import (
	"time"

	"github.com/meigma/xp3/internal/index"
	"github.com/meigma/xp3/internal/xp3type"
)

// Entry is a read-only summary of one archive entry.
type Entry struct {
	Name string

	// Protected reports the engine's "do not extract" flag. It is advisory;
	// the content is readable either way.
	Protected bool

	OriginalSize uint64
	StoredSize   uint64

	// Checksum is the stored Adler-32 of the uncompressed content.
	Checksum uint32

	// Timestamp is the raw FILETIME value, nil when the entry has none.
	Timestamp *uint64

	// Segments is the number of stored segments.
	Segments int

	// Compressed reports whether any segment is zlib-compressed.
	Compressed bool
}

// ModTime returns the entry timestamp, or the zero time if there is none.
func (e Entry) ModTime() time.Time {
	if e.Timestamp == nil {
		return time.Time{}
	}
	return TimeFromFileTime(*e.Timestamp)
}

func entryFromIndex(f *index.FileIndex) Entry {
	e := Entry{
		Name:         f.Info.Name,
		Protected:    f.Info.Protection == xp3type.Protected,
		OriginalSize: f.Info.OriginalSize,
		StoredSize:   f.Info.StoredSize,
		Checksum:     f.Adler.Checksum,
		Segments:     len(f.Segments),
	}
	if f.Time != nil {
		ts := f.Time.Timestamp
		e.Timestamp = &ts
	}
	for _, seg := range f.Segments {
		if seg.Flag == xp3type.SegmentCompressed {
			e.Compressed = true
			break
		}
	}
	return e
}
