package xp3

import (
	"bytes"
	"context"
	"io"

	"github.com/meigma/xp3/internal/write"
)

// Source supplies the bytes of one segment together with the flag the
// segment is stored with.
//
// The set of sources is closed: BytesSource, ReaderSource and SegmentSource.
type Source interface {
	Flag() SegmentFlag
	producer(buf []byte) write.Producer
}

// BytesSource is a segment backed by an in-memory buffer.
type BytesSource struct {
	flag SegmentFlag
	data []byte
}

// FromBytes returns a Source for data. The slice is not copied.
func FromBytes(flag SegmentFlag, data []byte) BytesSource {
	return BytesSource{flag: flag, data: data}
}

// Flag implements Source.
func (s BytesSource) Flag() SegmentFlag { return s.flag }

func (s BytesSource) producer(buf []byte) write.Producer {
	return write.FromReader(bytes.NewReader(s.data), buf)
}

// ReaderSource is a segment streamed from a reader until EOF.
type ReaderSource struct {
	flag SegmentFlag
	r    io.Reader
}

// FromReader returns a Source that consumes r.
func FromReader(flag SegmentFlag, r io.Reader) ReaderSource {
	return ReaderSource{flag: flag, r: r}
}

// Flag implements Source.
func (s ReaderSource) Flag() SegmentFlag { return s.flag }

func (s ReaderSource) producer(buf []byte) write.Producer {
	return write.FromReader(s.r, buf)
}

// SegmentSource re-exports a segment of an open archive. The segment is
// decoded and stored again under its own flag, so a compressed segment may
// be rewritten raw and vice versa.
type SegmentSource struct {
	flag    SegmentFlag
	archive *Archive
	segment Segment
}

// FromSegment returns a Source that copies seg out of a.
func FromSegment(flag SegmentFlag, a *Archive, seg Segment) SegmentSource {
	return SegmentSource{flag: flag, archive: a, segment: seg}
}

// Flag implements Source.
func (s SegmentSource) Flag() SegmentFlag { return s.flag }

func (s SegmentSource) producer([]byte) write.Producer {
	return func(ctx context.Context, w io.Writer) error {
		return s.archive.unpackSegment(ctx, s.segment, w)
	}
}
