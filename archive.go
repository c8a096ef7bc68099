package xp3

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"os"

	"github.com/opencontainers/go-digest"
	"golang.org/x/sync/semaphore"

	"github.com/meigma/xp3/internal/binio"
	"github.com/meigma/xp3/internal/file"
	"github.com/meigma/xp3/internal/header"
	"github.com/meigma/xp3/internal/index"
	"github.com/meigma/xp3/internal/sizing"
)

// readFilePrealloc caps the buffer ReadFile allocates up front.
const readFilePrealloc = 64 << 20

// Archive provides access to the entries of an XP3 archive.
//
// The archive owns its stream. Between operations the stream is parked at
// the archive origin; each unpack leases it exclusively, so an Archive is
// safe for concurrent use but never decodes two entries at once.
type Archive struct {
	header header.Header
	set    *index.Set
	cursor *file.Cursor
	reader *file.Reader
	lease  *semaphore.Weighted
	closer io.Closer
	closed bool

	maxIndexSize uint64
	maxFileSize  uint64
	verify       bool
	logger       *slog.Logger
}

// log returns the logger, falling back to a discard logger if nil.
func (a *Archive) log() *slog.Logger {
	if a.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return a.logger
}

// Open reads the header and index of the archive starting at the current
// position of r.
//
// The current position becomes the archive origin; all stored offsets are
// relative to it, so an archive embedded in a larger file can be opened by
// seeking to its first byte.
func Open(r io.ReadSeeker, opts ...Option) (*Archive, error) {
	a := &Archive{
		lease:        semaphore.NewWeighted(1),
		maxIndexSize: index.DefaultMaxSize,
		maxFileSize:  file.DefaultMaxFileSize,
	}
	for _, opt := range opts {
		opt(a)
	}

	cursor, err := file.NewCursor(r)
	if err != nil {
		return nil, err
	}
	a.cursor = cursor

	if _, err := header.ReadMagic(r); err != nil {
		return nil, err
	}
	if _, a.header, err = header.Decode(r); err != nil {
		return nil, err
	}
	if a.header.Version == header.Versioned {
		if err := cursor.Skip(a.header.IndexSizeOffset); err != nil {
			return nil, err
		}
	}

	indexOffset, err := binio.ReadU64(r)
	if err != nil {
		return nil, fmt.Errorf("read index offset: %w", err)
	}
	if err := cursor.SeekOrigin(indexOffset); err != nil {
		return nil, err
	}
	if _, a.set, err = index.ReadSet(r, a.maxIndexSize); err != nil {
		return nil, err
	}
	if err := cursor.SeekOrigin(0); err != nil {
		return nil, err
	}

	a.reader = file.NewReader(cursor, file.WithMaxFileSize(a.maxFileSize))
	a.log().Debug("archive opened",
		"header", a.header.Version.String(),
		"index_offset", indexOffset,
		"index_compression", a.set.Compression.String(),
		"entries", a.set.Len(),
		"extras", len(a.set.Extras))
	return a, nil
}

// OpenFile opens the archive at path. Close releases the file.
func OpenFile(path string, opts ...Option) (*Archive, error) {
	f, err := os.Open(path) //nolint:gosec // caller-chosen archive path
	if err != nil {
		return nil, err
	}
	a, err := Open(f, opts...)
	if err != nil {
		_ = f.Close() //nolint:errcheck // already failing
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	a.closer = f
	return a, nil
}

// Header returns the archive header.
func (a *Archive) Header() Header {
	return a.header
}

// IndexSet returns the decoded index. Callers must not modify it.
func (a *Archive) IndexSet() *IndexSet {
	return a.set
}

// Len returns the number of entries.
func (a *Archive) Len() int {
	return a.set.Len()
}

// Lookup returns the summary of the named entry.
func (a *Archive) Lookup(name string) (Entry, bool) {
	f, ok := a.set.Lookup(name)
	if !ok {
		return Entry{}, false
	}
	return entryFromIndex(f), true
}

// Entries iterates over all entries in name order.
func (a *Archive) Entries() iter.Seq2[string, Entry] {
	return func(yield func(string, Entry) bool) {
		for _, name := range a.set.Names() {
			f, _ := a.set.Lookup(name)
			if !yield(name, entryFromIndex(f)) {
				return
			}
		}
	}
}

// Unpack writes the content of the named entry to w, concatenating its
// segments in index order.
//
// ctx bounds the wait for the stream lease and is checked between reads.
// Partial content may have reached w when an error is returned.
func (a *Archive) Unpack(ctx context.Context, name string, w io.Writer) error {
	return a.unpack(ctx, name, w, a.verify)
}

func (a *Archive) unpack(ctx context.Context, name string, w io.Writer, verify bool) error {
	f, ok := a.set.Lookup(name)
	if !ok {
		return fmt.Errorf("%w: %s", ErrFileNotFound, name)
	}

	release, err := a.acquire(ctx)
	if err != nil {
		return err
	}
	defer release()

	if err := a.reader.Entry(ctx, f, w, verify); err != nil {
		return fmt.Errorf("unpack %s: %w", name, err)
	}
	a.log().Debug("entry unpacked", "name", name, "size", f.Info.OriginalSize, "segments", len(f.Segments))
	return nil
}

// ReadFile returns the content of the named entry.
func (a *Archive) ReadFile(ctx context.Context, name string) ([]byte, error) {
	var buf bytes.Buffer
	if f, ok := a.set.Lookup(name); ok {
		if n, err := sizing.ToInt(f.Info.OriginalSize); err == nil {
			buf.Grow(min(n, readFilePrealloc))
		}
	}
	if err := a.Unpack(ctx, name, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Digest returns the sha256 digest of the named entry's content.
func (a *Archive) Digest(ctx context.Context, name string) (digest.Digest, error) {
	d := digest.Canonical.Digester()
	if err := a.Unpack(ctx, name, d.Hash()); err != nil {
		return "", err
	}
	return d.Digest(), nil
}

// unpackSegment writes the decoded bytes of one segment of this archive to w.
func (a *Archive) unpackSegment(ctx context.Context, seg Segment, w io.Writer) error {
	release, err := a.acquire(ctx)
	if err != nil {
		return err
	}
	defer release()

	_, err = a.reader.Segment(ctx, seg, w)
	return err
}

func (a *Archive) acquire(ctx context.Context) (func(), error) {
	if err := a.lease.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	if a.closed {
		a.lease.Release(1)
		return nil, os.ErrClosed
	}
	return func() { a.lease.Release(1) }, nil
}

// Close waits for any running unpack and releases the stream if the
// archive owns it. Close is idempotent.
func (a *Archive) Close() error {
	if err := a.lease.Acquire(context.Background(), 1); err != nil {
		return err
	}
	defer a.lease.Release(1)

	if a.closed {
		return nil
	}
	a.closed = true
	if a.closer != nil {
		return a.closer.Close()
	}
	return nil
}

