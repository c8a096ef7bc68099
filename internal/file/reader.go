package file

import (
	"context"
	"errors"
	"fmt"
	"hash/adler32"
	"io"

	"github.com/meigma/xp3/internal/index"
	"github.com/meigma/xp3/internal/sizing"
	"github.com/meigma/xp3/internal/xp3type"
)

// DefaultMaxFileSize is the default per-segment size limit. Zero means no
// limit; segments are streamed, so their size does not drive allocations.
const DefaultMaxFileSize = 0

// Reader copies entry content out of an archive stream.
type Reader struct {
	cursor      *Cursor
	pool        *InflatePool
	maxFileSize uint64
	buf         []byte
}

// Option configures a Reader.
type Option func(*Reader)

// WithMaxFileSize sets the per-segment size limit for both stored and
// original sizes. Set to 0 to disable the limit.
func WithMaxFileSize(limit uint64) Option {
	return func(r *Reader) {
		r.maxFileSize = limit
	}
}

// WithInflatePool shares a pool of zlib readers.
func WithInflatePool(p *InflatePool) Option {
	return func(r *Reader) {
		r.pool = p
	}
}

// NewReader creates a Reader over the stream tracked by c.
func NewReader(c *Cursor, opts ...Option) *Reader {
	r := &Reader{
		cursor:      c,
		maxFileSize: DefaultMaxFileSize,
		buf:         make([]byte, 32*1024),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.pool == nil {
		r.pool = NewInflatePool()
	}
	return r
}

// Entry writes the content of f to w, segment by segment in index order.
// When verify is set the Adler-32 of the produced bytes is compared against
// the stored checksum and xp3type.ErrChecksumMismatch is returned on mismatch.
func (r *Reader) Entry(ctx context.Context, f *index.FileIndex, w io.Writer, verify bool) error {
	var sum interface {
		io.Writer
		Sum32() uint32
	}
	if verify {
		sum = adler32.New()
		w = io.MultiWriter(w, sum)
	}

	for i, seg := range f.Segments {
		if _, err := r.Segment(ctx, seg, w); err != nil {
			return fmt.Errorf("segment %d: %w", i, err)
		}
	}

	if verify && sum.Sum32() != f.Adler.Checksum {
		return fmt.Errorf("%w: got %08x, want %08x", xp3type.ErrChecksumMismatch, sum.Sum32(), f.Adler.Checksum)
	}
	return nil
}

// Segment writes the decoded bytes of seg to w and returns how many were written.
//
// The stream must be positioned at the archive origin; it is returned there.
func (r *Reader) Segment(ctx context.Context, seg index.Segment, w io.Writer) (uint64, error) {
	if err := r.validate(seg); err != nil {
		return 0, err
	}

	var written uint64
	err := r.cursor.Window(seg.DataOffset, seg.StoredSize, func(src io.Reader) error {
		var err error
		switch seg.Flag {
		case xp3type.SegmentUncompressed:
			written, err = r.copyExact(ctx, w, src, seg.StoredSize)
		case xp3type.SegmentCompressed:
			written, err = r.inflate(ctx, w, src, seg.OriginalSize)
		default:
			err = fmt.Errorf("%w: segment flag %d", xp3type.ErrInvalidFileIndex, seg.Flag)
		}
		return err
	})
	return written, err
}

func (r *Reader) validate(seg index.Segment) error {
	if r.maxFileSize == 0 {
		return nil
	}
	if seg.StoredSize > r.maxFileSize || seg.OriginalSize > r.maxFileSize {
		return fmt.Errorf("%w: segment of %d bytes exceeds limit %d",
			xp3type.ErrSizeOverflow, max(seg.StoredSize, seg.OriginalSize), r.maxFileSize)
	}
	return nil
}

func (r *Reader) inflate(ctx context.Context, w io.Writer, src io.Reader, size uint64) (uint64, error) {
	zr, release, err := r.pool.Get(src)
	if err != nil {
		return 0, xp3type.IOError("inflate", err)
	}
	defer release()

	limit, err := sizing.ToInt64(size)
	if err != nil {
		return 0, err
	}
	// A stream that ends before size bytes is accepted as is.
	written, err := CopyWithContext(ctx, w, io.LimitReader(zr, limit), r.buf)
	return written, copyErr(err)
}

// copyExact copies exactly n bytes from src to w.
func (r *Reader) copyExact(ctx context.Context, w io.Writer, src io.Reader, n uint64) (uint64, error) {
	limit, err := sizing.ToInt64(n)
	if err != nil {
		return 0, err
	}

	written, err := CopyWithContext(ctx, w, io.LimitReader(src, limit), r.buf)
	if err == nil && written != n {
		return written, xp3type.IOError("read", io.ErrUnexpectedEOF)
	}
	return written, copyErr(err)
}

func copyErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	case errors.Is(err, ErrSink):
		return xp3type.IOError("write", err)
	default:
		return xp3type.IOError("read", err)
	}
}
