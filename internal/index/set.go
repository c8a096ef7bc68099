package index

import (
	"bytes"
	"fmt"
	"io"
	"slices"

	"github.com/klauspost/compress/zlib"

	"github.com/meigma/xp3/internal/binio"
	"github.com/meigma/xp3/internal/xp3type"
)

const (
	// DefaultMaxSize bounds the decoded index body (256MB).
	DefaultMaxSize = 256 << 20

	// DefaultLevel is the zlib level used for compressed index sets.
	DefaultLevel = zlib.BestSpeed

	// continuation may precede the compression selector and is skipped.
	continuation byte = 0x80
)

// Set is the whole-archive index: every file index keyed by name plus the
// top-level records this package does not interpret.
type Set struct {
	Compression xp3type.IndexCompression

	// Extras holds unrecognized top-level records in their original order.
	Extras []Record

	// Files maps entry names to their index. When two records share a
	// name the later one wins.
	Files map[string]*FileIndex
}

// NewSet returns an empty set using compression c.
func NewSet(c xp3type.IndexCompression) *Set {
	return &Set{
		Compression: c,
		Files:       make(map[string]*FileIndex),
	}
}

// Add inserts f keyed by its name, replacing any previous entry.
func (s *Set) Add(f *FileIndex) {
	if s.Files == nil {
		s.Files = make(map[string]*FileIndex)
	}
	s.Files[f.Info.Name] = f
}

// Lookup returns the file index for name.
func (s *Set) Lookup(name string) (*FileIndex, bool) {
	f, ok := s.Files[name]
	return f, ok
}

// Len returns the number of file indexes.
func (s *Set) Len() int {
	return len(s.Files)
}

// Names returns the file names in sorted order.
func (s *Set) Names() []string {
	names := make([]string, 0, len(s.Files))
	for name := range s.Files {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// ReadSet decodes an index set at the current position of r and returns the
// number of bytes consumed. Index bodies larger than maxSize fail with
// xp3type.ErrSizeOverflow; a maxSize of 0 disables the check.
func ReadSet(r io.Reader, maxSize uint64) (int64, *Set, error) {
	consumed := int64(1)
	raw, err := binio.ReadU8(r)
	if err != nil {
		return 0, nil, err
	}
	for raw == continuation {
		if raw, err = binio.ReadU8(r); err != nil {
			return 0, nil, err
		}
		consumed++
	}
	compression := xp3type.IndexCompression(raw)
	if !compression.Valid() {
		return 0, nil, fmt.Errorf("%w: compression selector %d", xp3type.ErrInvalidFileIndexHeader, raw)
	}

	var (
		body []byte
		size uint64
	)
	switch compression {
	case xp3type.IndexUncompressed:
		if size, err = binio.ReadU64(r); err != nil {
			return 0, nil, err
		}
		if body, err = binio.ReadBytes(r, size, maxSize); err != nil {
			return 0, nil, fmt.Errorf("read index: %w", err)
		}
		consumed += 8 + int64(size) //nolint:gosec // bounded by the successful read
	case xp3type.IndexCompressed:
		compressedSize, err := binio.ReadU64(r)
		if err != nil {
			return 0, nil, err
		}
		if size, err = binio.ReadU64(r); err != nil {
			return 0, nil, err
		}
		if maxSize > 0 && size > maxSize {
			return 0, nil, fmt.Errorf("read index: %w", xp3type.ErrSizeOverflow)
		}
		compressed, err := binio.ReadBytes(r, compressedSize, maxSize)
		if err != nil {
			return 0, nil, fmt.Errorf("read index: %w", err)
		}
		if body, err = inflate(compressed, size); err != nil {
			return 0, nil, err
		}
		consumed += 16 + int64(compressedSize) //nolint:gosec // bounded by the successful read
	}

	set, err := decodeBody(compression, body, size)
	if err != nil {
		return 0, nil, err
	}
	return consumed, set, nil
}

func inflate(compressed []byte, size uint64) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, xp3type.IOError("inflate index", err)
	}
	defer zr.Close()

	body, err := binio.ReadBytes(zr, size, 0)
	if err != nil {
		return nil, fmt.Errorf("inflate index: %w", err)
	}
	return body, nil
}

func decodeBody(compression xp3type.IndexCompression, body []byte, size uint64) (*Set, error) {
	set := NewSet(compression)
	r := bytes.NewReader(body)
	var read uint64
	for read < size {
		n, rec, err := ReadRecord(r, 0)
		if err != nil {
			return nil, fmt.Errorf("index record at %d: %w", read, err)
		}
		read += uint64(n) //nolint:gosec // n is a non-negative record size

		if rec.ID != TagFile {
			set.Extras = append(set.Extras, rec)
			continue
		}
		f, err := DecodeFileIndex(rec.Payload)
		if err != nil {
			return nil, fmt.Errorf("index record at %d: %w", read-uint64(n), err) //nolint:gosec // see above
		}
		set.Add(f)
	}
	return set, nil
}

// WriteTo encodes s to w using DefaultLevel.
func (s *Set) WriteTo(w io.Writer) (int64, error) {
	return s.Encode(w, DefaultLevel)
}

// Encode writes s to w, deflating the body at level when the set is
// compressed. Extras are written first, then files sorted by name.
func (s *Set) Encode(w io.Writer, level int) (int64, error) {
	if !s.Compression.Valid() {
		return 0, fmt.Errorf("%w: compression selector %d", xp3type.ErrInvalidFileIndexHeader, s.Compression)
	}

	var body bytes.Buffer
	for _, rec := range s.Extras {
		if _, err := rec.WriteTo(&body); err != nil {
			return 0, err
		}
	}
	for _, name := range s.Names() {
		rec, err := s.Files[name].Record()
		if err != nil {
			return 0, err
		}
		if _, err := rec.WriteTo(&body); err != nil {
			return 0, err
		}
	}

	if err := binio.WriteU8(w, uint8(s.Compression)); err != nil {
		return 0, err
	}

	if s.Compression == xp3type.IndexUncompressed {
		if err := binio.WriteU64(w, uint64(body.Len())); err != nil {
			return 1, err
		}
		if err := binio.WriteBytes(w, body.Bytes()); err != nil {
			return 9, err
		}
		return 9 + int64(body.Len()), nil
	}

	var compressed bytes.Buffer
	zw, err := zlib.NewWriterLevel(&compressed, level)
	if err != nil {
		return 1, fmt.Errorf("deflate index: %w", err)
	}
	if _, err := zw.Write(body.Bytes()); err != nil {
		return 1, fmt.Errorf("deflate index: %w", err)
	}
	if err := zw.Close(); err != nil {
		return 1, fmt.Errorf("deflate index: %w", err)
	}

	if err := binio.WriteU64(w, uint64(compressed.Len())); err != nil {
		return 1, err
	}
	if err := binio.WriteU64(w, uint64(body.Len())); err != nil {
		return 9, err
	}
	if err := binio.WriteBytes(w, compressed.Bytes()); err != nil {
		return 17, err
	}
	return 17 + int64(compressed.Len()), nil
}
