// Package header implements the archive preamble: the magic bytes, the
// version selector byte and the optional versioned header that follows them.
package header

import (
	"bytes"
	"fmt"
	"io"

	"github.com/meigma/xp3/internal/binio"
	"github.com/meigma/xp3/internal/xp3type"
)

// Magic is the 10-byte signature every archive starts with.
var Magic = [10]byte{0x58, 0x50, 0x33, 0x0d, 0x0a, 0x20, 0x0a, 0x1a, 0x8b, 0x67}

const (
	// Selector is the version selector byte written after the magic.
	Selector byte = 1

	// Marker is the little-endian u64 that opens a versioned header.
	Marker uint64 = 0x17

	// Identifier must follow the minor version in a versioned header.
	Identifier byte = 128

	// VersionedSize is the encoded size of a versioned header.
	VersionedSize = 21
)

// Version distinguishes the two header layouts.
type Version uint8

const (
	// Legacy archives have no header; the index offset follows the selector byte.
	Legacy Version = iota

	// Versioned archives carry a minor version and an index size offset.
	Versioned
)

func (v Version) String() string {
	switch v {
	case Legacy:
		return "legacy"
	case Versioned:
		return "versioned"
	default:
		return "unknown"
	}
}

// Header is the archive-level preamble following the magic and selector.
// MinorVersion and IndexSizeOffset are only meaningful for Versioned headers.
type Header struct {
	Version         Version
	MinorVersion    uint32
	IndexSizeOffset uint64
}

// Size returns the encoded size of h.
func (h Header) Size() int64 {
	if h.Version == Versioned {
		return VersionedSize
	}
	return 0
}

// Decode reads a header at the current position of r.
//
// The header is self-describing: when the next 8 bytes are not Marker the
// stream is rewound to where it was and a Legacy header is returned with
// consumed == 0.
func Decode(r io.ReadSeeker) (int64, Header, error) {
	start, err := r.Seek(0, io.SeekCurrent)
	if err != nil {
		return 0, Header{}, xp3type.IOError("seek", err)
	}

	marker, err := binio.ReadU64(r)
	if err != nil {
		return 0, Header{}, err
	}
	if marker != Marker {
		if _, err := r.Seek(start, io.SeekStart); err != nil {
			return 0, Header{}, xp3type.IOError("seek", err)
		}
		return 0, Header{Version: Legacy}, nil
	}

	minor, err := binio.ReadU32(r)
	if err != nil {
		return 0, Header{}, err
	}
	id, err := binio.ReadU8(r)
	if err != nil {
		return 0, Header{}, err
	}
	if id != Identifier {
		return 0, Header{}, fmt.Errorf("%w: identifier %d, want %d", xp3type.ErrInvalidHeader, id, Identifier)
	}
	offset, err := binio.ReadU64(r)
	if err != nil {
		return 0, Header{}, err
	}

	return VersionedSize, Header{
		Version:         Versioned,
		MinorVersion:    minor,
		IndexSizeOffset: offset,
	}, nil
}

// Encode writes h to w and returns the number of bytes written.
func Encode(w io.Writer, h Header) (int64, error) {
	if h.Version != Versioned {
		return 0, nil
	}
	if err := binio.WriteU64(w, Marker); err != nil {
		return 0, err
	}
	if err := binio.WriteU32(w, h.MinorVersion); err != nil {
		return 0, err
	}
	if err := binio.WriteU8(w, Identifier); err != nil {
		return 0, err
	}
	if err := binio.WriteU64(w, h.IndexSizeOffset); err != nil {
		return 0, err
	}
	return VersionedSize, nil
}

// WriteMagic writes the magic bytes followed by the selector byte.
func WriteMagic(w io.Writer) error {
	if err := binio.WriteBytes(w, Magic[:]); err != nil {
		return err
	}
	return binio.WriteU8(w, Selector)
}

// ReadMagic verifies the magic bytes and consumes the selector byte that
// follows them, returning the selector.
func ReadMagic(r io.Reader) (byte, error) {
	var buf [len(Magic)]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return 0, fmt.Errorf("%w: short magic", xp3type.ErrInvalidFile)
		}
		return 0, xp3type.IOError("read magic", err)
	}
	if !bytes.Equal(buf[:], Magic[:]) {
		return 0, fmt.Errorf("%w: bad magic %q", xp3type.ErrInvalidFile, buf[:])
	}
	return binio.ReadU8(r)
}
