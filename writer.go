package xp3

import (
	"context"
	"fmt"
	"hash"
	"hash/adler32"
	"io"
	"log/slog"

	"github.com/meigma/xp3/internal/binio"
	"github.com/meigma/xp3/internal/header"
	"github.com/meigma/xp3/internal/index"
	"github.com/meigma/xp3/internal/sizing"
	"github.com/meigma/xp3/internal/write"
	"github.com/meigma/xp3/internal/xp3type"
)

// Container describes a finished archive.
type Container struct {
	Header   Header
	IndexSet *IndexSet

	// IndexOffset is the position of the index relative to the archive origin.
	IndexOffset uint64

	// Size is the total number of bytes written from the origin.
	Size uint64
}

// Writer builds an archive on a seekable stream.
//
// Entry data is written first and the index last. The index offset near
// the start of the archive is patched in by Finish. Entries are written one
// at a time; the stream position is the single write head.
type Writer struct {
	ws     io.WriteSeeker
	origin int64
	slot   int64
	header header.Header
	set    *index.Set

	segmentLevel int
	indexLevel   int
	defaultFlag  SegmentFlag
	pool         *write.DeflatePool
	buf          []byte

	active   *EntryWriter
	finished bool
	logger   *slog.Logger
}

// log returns the logger, falling back to a discard logger if nil.
func (w *Writer) log() *slog.Logger {
	if w.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return w.logger
}

// NewWriter starts an archive at the current position of ws.
//
// It writes the magic, the version selector, hdr, IndexSizeOffset bytes of
// zero padding for versioned headers, and a placeholder for the index offset.
func NewWriter(ws io.WriteSeeker, hdr Header, compression IndexCompression, opts ...WriterOption) (*Writer, error) {
	if hdr.Version != header.Legacy && hdr.Version != header.Versioned {
		return nil, fmt.Errorf("%w: version %d", ErrInvalidHeader, hdr.Version)
	}
	if !compression.Valid() {
		return nil, fmt.Errorf("%w: compression selector %d", ErrInvalidFileIndexHeader, compression)
	}

	w := &Writer{
		ws:           ws,
		header:       hdr,
		set:          index.NewSet(compression),
		segmentLevel: DefaultCompressionLevel,
		indexLevel:   DefaultCompressionLevel,
		buf:          make([]byte, 32*1024),
	}
	for _, opt := range opts {
		opt(w)
	}
	if !w.defaultFlag.Valid() {
		return nil, fmt.Errorf("%w: segment flag %d", ErrInvalidFileIndex, w.defaultFlag)
	}

	pool, err := write.NewDeflatePool(w.segmentLevel)
	if err != nil {
		return nil, err
	}
	w.pool = pool

	if w.origin, err = ws.Seek(0, io.SeekCurrent); err != nil {
		return nil, xp3type.IOError("seek", err)
	}
	if err := header.WriteMagic(ws); err != nil {
		return nil, err
	}
	if _, err := header.Encode(ws, hdr); err != nil {
		return nil, err
	}
	if hdr.Version == header.Versioned {
		if err := writeZeros(ws, hdr.IndexSizeOffset, w.buf); err != nil {
			return nil, err
		}
	}
	if w.slot, err = ws.Seek(0, io.SeekCurrent); err != nil {
		return nil, xp3type.IOError("seek", err)
	}
	if err := binio.WriteU64(ws, 0); err != nil {
		return nil, err
	}

	w.log().Debug("archive started", "header", hdr.Version.String(), "index_compression", compression.String())
	return w, nil
}

func writeZeros(w io.Writer, n uint64, buf []byte) error {
	clear(buf)
	for n > 0 {
		chunk := buf
		if uint64(len(chunk)) > n {
			chunk = chunk[:n]
		}
		if err := binio.WriteBytes(w, chunk); err != nil {
			return err
		}
		n -= uint64(len(chunk))
	}
	return nil
}

// AppendExtra adds a raw top-level record to the index. Extras are written
// before the file records, in the order they were appended.
func (w *Writer) AppendExtra(rec Record) error {
	if w.finished {
		return ErrWriterClosed
	}
	if rec.ID == index.TagFile {
		return fmt.Errorf("%w: extra record may not use the File tag", ErrInvalidFileIndex)
	}
	w.set.Extras = append(w.set.Extras, rec)
	return nil
}

// EnterFile opens a new entry. Its segments are written through the
// returned EntryWriter, which must be finished before the next entry is
// entered or the archive is finished.
//
// A later entry with the same name replaces an earlier one in the index;
// the earlier entry's data stays in the stream unreferenced.
func (w *Writer) EnterFile(protection Protection, name string, timestamp *uint64) (*EntryWriter, error) {
	if w.finished {
		return nil, ErrWriterClosed
	}
	if w.active != nil {
		return nil, fmt.Errorf("%w: %s", ErrEntryInProgress, w.active.name)
	}
	if !protection.Valid() {
		return nil, fmt.Errorf("%w: protection flag %#x", ErrInvalidFileIndex, uint32(protection))
	}
	if _, err := index.EncodeName(name); err != nil {
		return nil, err
	}

	e := &EntryWriter{
		w:           w,
		protection:  protection,
		name:        name,
		sum:         adler32.New(),
		defaultFlag: w.defaultFlag,
	}
	if timestamp != nil {
		ts := *timestamp
		e.timestamp = &ts
	}
	w.active = e
	return e, nil
}

// Finish patches the index offset and writes the index at the end of the
// stream. The writer cannot be used afterwards.
func (w *Writer) Finish() (*Container, error) {
	if w.finished {
		return nil, ErrWriterClosed
	}
	if w.active != nil {
		return nil, fmt.Errorf("%w: %s", ErrEntryInProgress, w.active.name)
	}

	end, err := w.ws.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, xp3type.IOError("seek", err)
	}
	indexOffset, err := sizing.ToUint64(end - w.origin)
	if err != nil {
		return nil, err
	}

	if _, err := w.ws.Seek(w.slot, io.SeekStart); err != nil {
		return nil, xp3type.IOError("seek", err)
	}
	if err := binio.WriteU64(w.ws, indexOffset); err != nil {
		return nil, err
	}
	if _, err := w.ws.Seek(end, io.SeekStart); err != nil {
		return nil, xp3type.IOError("seek", err)
	}

	n, err := w.set.Encode(w.ws, w.indexLevel)
	if err != nil {
		return nil, fmt.Errorf("write index: %w", err)
	}
	w.finished = true

	size, _ := sizing.ToUint64(n)
	w.log().Info("archive written", "entries", w.set.Len(), "index_offset", indexOffset, "index_size", n)
	return &Container{
		Header:      w.header,
		IndexSet:    w.set,
		IndexOffset: indexOffset,
		Size:        indexOffset + size,
	}, nil
}

// EntryWriter writes the segments of one entry.
type EntryWriter struct {
	w           *Writer
	protection  Protection
	name        string
	timestamp   *uint64
	defaultFlag SegmentFlag

	segments []index.Segment
	sum      hash.Hash32
	original uint64
	stored   uint64
	done     bool
}

// Name returns the entry name.
func (e *EntryWriter) Name() string {
	return e.name
}

// DefaultFlag returns the flag used by Write.
func (e *EntryWriter) DefaultFlag() SegmentFlag {
	return e.defaultFlag
}

// SetDefaultFlag changes the flag used by Write.
func (e *EntryWriter) SetDefaultFlag(flag SegmentFlag) {
	e.defaultFlag = flag
}

// WriteSegment writes data as one segment and returns its stored size.
func (e *EntryWriter) WriteSegment(flag SegmentFlag, data []byte) (uint64, error) {
	return e.WriteSegmentFrom(context.Background(), FromBytes(flag, data))
}

// WriteSegmentFrom writes the bytes of src as one segment and returns its
// stored size.
func (e *EntryWriter) WriteSegmentFrom(ctx context.Context, src Source) (uint64, error) {
	if e.done {
		return 0, ErrWriterClosed
	}
	flag := src.Flag()
	if !flag.Valid() {
		return 0, fmt.Errorf("%w: segment flag %d", ErrInvalidFileIndex, flag)
	}

	ws := e.w.ws
	pos, err := ws.Seek(0, io.SeekCurrent)
	if err != nil {
		return 0, xp3type.IOError("seek", err)
	}
	offset, err := sizing.ToUint64(pos - e.w.origin)
	if err != nil {
		return 0, err
	}

	res, err := write.Segment(ctx, ws, flag == SegmentCompressed, e.w.pool, e.sum, src.producer(e.w.buf))
	if err != nil {
		return 0, fmt.Errorf("write segment of %s: %w", e.name, err)
	}

	original, ok := sizing.AddUint64(e.original, res.OriginalSize)
	if !ok {
		return 0, ErrSizeOverflow
	}
	stored, ok := sizing.AddUint64(e.stored, res.StoredSize)
	if !ok {
		return 0, ErrSizeOverflow
	}
	e.original, e.stored = original, stored
	e.segments = append(e.segments, index.Segment{
		Flag:         flag,
		DataOffset:   offset,
		OriginalSize: res.OriginalSize,
		StoredSize:   res.StoredSize,
	})
	return res.StoredSize, nil
}

// Write implements io.Writer. Each call stores p as one segment using the
// default flag.
func (e *EntryWriter) Write(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if _, err := e.WriteSegment(e.defaultFlag, p); err != nil {
		return 0, err
	}
	return len(p), nil
}

// Finish records the entry in the index and releases the writer for the
// next entry.
func (e *EntryWriter) Finish() error {
	if e.done {
		return ErrWriterClosed
	}

	f := &index.FileIndex{
		Info: index.Info{
			Protection:   e.protection,
			OriginalSize: e.original,
			StoredSize:   e.stored,
			Name:         e.name,
		},
		Segments: e.segments,
		Adler:    index.Adler{Checksum: e.sum.Sum32()},
	}
	if e.timestamp != nil {
		f.Time = &index.Time{Timestamp: *e.timestamp}
	}

	e.w.set.Add(f)
	e.w.active = nil
	e.done = true

	e.w.log().Debug("entry written",
		"name", e.name,
		"segments", len(e.segments),
		"original_size", e.original,
		"stored_size", e.stored)
	return nil
}
