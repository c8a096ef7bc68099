// Package binio reads and writes the fixed-width little-endian integers and
// raw byte runs the XP3 format is built from.
//
// Every failure is reported as an xp3type.ErrIO wrapping the underlying error;
// a stream that ends early yields io.ErrUnexpectedEOF rather than io.EOF.
package binio

import (
	"encoding/binary"
	"errors"
	"io"

	"github.com/meigma/xp3/internal/xp3type"
)

// smallRead is the largest run read with a single preallocated buffer.
// Larger runs grow incrementally so a corrupt length cannot force a huge
// allocation before the stream runs dry.
const smallRead = 64 << 10

func readFull(r io.Reader, buf []byte) error {
	if _, err := io.ReadFull(r, buf); err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return xp3type.IOError("read", err)
	}
	return nil
}

// ReadU8 reads one byte.
func ReadU8(r io.Reader) (uint8, error) {
	var b [1]byte
	if err := readFull(r, b[:]); err != nil {
		return 0, err
	}
	return b[0], nil
}

// ReadU16 reads a little-endian uint16.
func ReadU16(r io.Reader) (uint16, error) {
	var b [2]byte
	if err := readFull(r, b[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b[:]), nil
}

// ReadU32 reads a little-endian uint32.
func ReadU32(r io.Reader) (uint32, error) {
	var b [4]byte
	if err := readFull(r, b[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b[:]), nil
}

// ReadU64 reads a little-endian uint64.
func ReadU64(r io.Reader) (uint64, error) {
	var b [8]byte
	if err := readFull(r, b[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b[:]), nil
}

// ReadBytes reads exactly n bytes. It returns xp3type.ErrSizeOverflow when n
// exceeds limit; a limit of 0 disables the check.
func ReadBytes(r io.Reader, n, limit uint64) ([]byte, error) {
	if limit > 0 && n > limit {
		return nil, xp3type.ErrSizeOverflow
	}
	if n <= smallRead {
		buf := make([]byte, n)
		if err := readFull(r, buf); err != nil {
			return nil, err
		}
		return buf, nil
	}
	if n > uint64(maxInt) {
		return nil, xp3type.ErrSizeOverflow
	}
	buf, err := io.ReadAll(io.LimitReader(r, int64(n))) //nolint:gosec // bounded above
	if err != nil {
		return nil, xp3type.IOError("read", err)
	}
	if uint64(len(buf)) != n {
		return nil, xp3type.IOError("read", io.ErrUnexpectedEOF)
	}
	return buf, nil
}

const maxInt = int(^uint(0) >> 1)

func write(w io.Writer, b []byte) error {
	if _, err := w.Write(b); err != nil {
		return xp3type.IOError("write", err)
	}
	return nil
}

// WriteU8 writes one byte.
func WriteU8(w io.Writer, v uint8) error {
	return write(w, []byte{v})
}

// WriteU16 writes a little-endian uint16.
func WriteU16(w io.Writer, v uint16) error {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	return write(w, b[:])
}

// WriteU32 writes a little-endian uint32.
func WriteU32(w io.Writer, v uint32) error {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	return write(w, b[:])
}

// WriteU64 writes a little-endian uint64.
func WriteU64(w io.Writer, v uint64) error {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	return write(w, b[:])
}

// WriteBytes writes p in full.
func WriteBytes(w io.Writer, p []byte) error {
	return write(w, p)
}
