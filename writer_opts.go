package xp3

import (
	"log/slog"

	"github.com/klauspost/compress/zlib"
)

// DefaultCompressionLevel is the zlib level used for compressed segments
// and compressed indexes unless overridden.
const DefaultCompressionLevel = zlib.BestSpeed

// WriterOption configures a Writer.
type WriterOption func(*Writer)

// WriterWithCompressionLevel sets the zlib level for compressed segments.
func WriterWithCompressionLevel(level int) WriterOption {
	return func(w *Writer) {
		w.segmentLevel = level
	}
}

// WriterWithIndexLevel sets the zlib level for a compressed index.
func WriterWithIndexLevel(level int) WriterOption {
	return func(w *Writer) {
		w.indexLevel = level
	}
}

// WriterWithDefaultFlag sets the segment flag used by EntryWriter.Write.
// The default stores segments uncompressed.
func WriterWithDefaultFlag(flag SegmentFlag) WriterOption {
	return func(w *Writer) {
		w.defaultFlag = flag
	}
}

// WriterWithLogger sets the logger for write operations.
// If not set, logging is disabled.
func WriterWithLogger(logger *slog.Logger) WriterOption {
	return func(w *Writer) {
		w.logger = logger
	}
}
