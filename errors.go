package xp3

import (
	"errors"

	"github.com/meigma/xp3/internal/pathutil"
	"github.com/meigma/xp3/internal/platform"
	"github.com/meigma/xp3/internal/xp3type"
)

// Errors re-exported from internal packages.
var (
	// ErrIO wraps failures of the underlying stream or sink.
	// The original error is preserved and matches errors.Is as well.
	ErrIO = xp3type.ErrIO

	// ErrInvalidFile is returned when the stream does not start with the XP3 magic.
	ErrInvalidFile = xp3type.ErrInvalidFile

	// ErrInvalidHeader is returned when a versioned header is malformed.
	ErrInvalidHeader = xp3type.ErrInvalidHeader

	// ErrInvalidFileIndexHeader is returned for an unknown index compression selector.
	ErrInvalidFileIndexHeader = xp3type.ErrInvalidFileIndexHeader

	// ErrInvalidFileIndex is returned for malformed or incomplete file index records.
	ErrInvalidFileIndex = xp3type.ErrInvalidFileIndex

	// ErrFileNotFound is returned when a name is not present in the archive.
	ErrFileNotFound = xp3type.ErrFileNotFound

	// ErrNameTooLong is returned when an entry name exceeds 65535 UTF-16 code units.
	ErrNameTooLong = xp3type.ErrNameTooLong

	// ErrChecksumMismatch is returned by verified unpacks when content does
	// not match the stored Adler-32.
	ErrChecksumMismatch = xp3type.ErrChecksumMismatch

	// ErrSizeOverflow is returned when a size exceeds a configured or representable limit.
	ErrSizeOverflow = xp3type.ErrSizeOverflow

	// ErrEntryInProgress is returned by EnterFile while another entry is still open.
	ErrEntryInProgress = xp3type.ErrEntryInProgress

	// ErrWriterClosed is returned when a finished writer or entry is used again.
	ErrWriterClosed = xp3type.ErrWriterClosed

	// ErrUnsafePath is returned by Extract for names that would escape the destination.
	ErrUnsafePath = pathutil.ErrUnsafePath

	// ErrSymlink is returned when a symlink is opened during directory packing.
	ErrSymlink = platform.ErrSymlink
)

// ErrTooManyFiles is returned when a directory holds more files than allowed.
var ErrTooManyFiles = errors.New("xp3: too many files")
