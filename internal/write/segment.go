package write

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/zlib"

	"github.com/meigma/xp3/internal/file"
	"github.com/meigma/xp3/internal/xp3type"
)

// Result reports the sizes of one encoded segment.
type Result struct {
	OriginalSize uint64
	StoredSize   uint64
}

// Producer writes the uncompressed bytes of one segment to w.
type Producer func(ctx context.Context, w io.Writer) error

// FromReader returns a Producer that copies r until EOF.
// buf should be at least 32KB for efficient copying.
func FromReader(r io.Reader, buf []byte) Producer {
	return func(ctx context.Context, w io.Writer) error {
		_, err := file.CopyWithContext(ctx, w, r, buf)
		return err
	}
}

// Segment encodes the bytes of produce into w, deflating them when compress
// is set.
//
// Every produced byte is also written to sum when sum is non-nil, so a
// running checksum covers the uncompressed data. The pool must be non-nil
// when compress is set.
func Segment(ctx context.Context, w io.Writer, compress bool, pool *DeflatePool, sum io.Writer, produce Producer) (Result, error) {
	stored := &file.CountingWriter{W: w}

	// Stream: produce → MultiWriter(sum) → [zlib] → countingWriter(archive)
	var dst io.Writer = stored
	var zw *zlib.Writer
	if compress {
		if pool == nil {
			return Result{}, errors.New("xp3: compressed segment without deflate pool")
		}
		var release func()
		zw, release = pool.Get(stored)
		defer release()
		dst = zw
	}

	original := &file.CountingWriter{W: dst}
	var in io.Writer = original
	if sum != nil {
		in = io.MultiWriter(original, sum)
	}

	if err := produce(ctx, in); err != nil {
		if zw != nil {
			_ = zw.Close() //nolint:errcheck // already failing
		}
		return Result{}, wrapProduceErr(err)
	}
	if zw != nil {
		if err := zw.Close(); err != nil {
			return Result{}, xp3type.IOError("close zlib writer", err)
		}
	}
	return Result{OriginalSize: original.N, StoredSize: stored.N}, nil
}

func wrapProduceErr(err error) error {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	case errors.Is(err, file.ErrOverflow):
		return fmt.Errorf("%w: %w", xp3type.ErrSizeOverflow, err)
	case errors.Is(err, file.ErrSink):
		return xp3type.IOError("write segment", err)
	default:
		return xp3type.IOError("read source", err)
	}
}
