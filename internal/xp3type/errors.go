package xp3type

import (
	"errors"
	"fmt"
)

// Sentinel errors for archive operations.
var (
	// ErrIO wraps failures of the underlying stream or sink.
	ErrIO = errors.New("xp3: i/o error")

	// ErrInvalidFile is returned when the magic bytes do not match.
	ErrInvalidFile = errors.New("xp3: invalid file")

	// ErrInvalidHeader is returned when a versioned header has a bad identifier byte.
	ErrInvalidHeader = errors.New("xp3: invalid header")

	// ErrInvalidFileIndexHeader is returned for an unknown index compression selector.
	ErrInvalidFileIndexHeader = errors.New("xp3: invalid file index header")

	// ErrInvalidFileIndex is returned for malformed file index records.
	ErrInvalidFileIndex = errors.New("xp3: invalid file index")

	// ErrFileNotFound is returned when a name is not present in the index.
	ErrFileNotFound = errors.New("xp3: file not found")

	// ErrNameTooLong is returned when a name exceeds 65535 UTF-16 code units.
	ErrNameTooLong = errors.New("xp3: name too long")

	// ErrChecksumMismatch is returned when unpacked content does not match its Adler-32.
	ErrChecksumMismatch = errors.New("xp3: checksum mismatch")

	// ErrSizeOverflow is returned when byte counts exceed supported limits.
	ErrSizeOverflow = errors.New("xp3: size overflow")

	// ErrEntryInProgress is returned when an entry is opened while another is still open.
	ErrEntryInProgress = errors.New("xp3: entry in progress")

	// ErrWriterClosed is returned when a finished writer or entry is used again.
	ErrWriterClosed = errors.New("xp3: writer closed")
)

// IOError wraps err so that it matches both ErrIO and err itself.
// Errors that already match ErrIO are returned unchanged.
func IOError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrIO) {
		return err
	}
	return fmt.Errorf("%w: %s: %w", ErrIO, op, err)
}
