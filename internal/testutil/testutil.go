// Package testutil provides in-memory streams and fixtures for tests.
package testutil

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

var errNegativeOffset = errors.New("testutil: negative offset")

// SeekBuffer is an in-memory io.ReadWriteSeeker. Writes past the end grow
// the buffer, zero-filling any gap.
type SeekBuffer struct {
	data []byte
	pos  int64
}

// NewSeekBuffer returns a buffer holding a copy of data, positioned at 0.
func NewSeekBuffer(data []byte) *SeekBuffer {
	return &SeekBuffer{data: append([]byte(nil), data...)}
}

// Read implements io.Reader.
func (b *SeekBuffer) Read(p []byte) (int, error) {
	if b.pos >= int64(len(b.data)) {
		return 0, io.EOF
	}
	n := copy(p, b.data[b.pos:])
	b.pos += int64(n)
	return n, nil
}

// Write implements io.Writer.
func (b *SeekBuffer) Write(p []byte) (int, error) {
	end := b.pos + int64(len(p))
	if end > int64(len(b.data)) {
		if end > int64(cap(b.data)) {
			grown := make([]byte, end, max(end, 2*int64(cap(b.data))))
			copy(grown, b.data)
			b.data = grown
		} else {
			b.data = b.data[:end]
		}
	}
	copy(b.data[b.pos:], p)
	b.pos = end
	return len(p), nil
}

// Seek implements io.Seeker.
func (b *SeekBuffer) Seek(offset int64, whence int) (int64, error) {
	var abs int64
	switch whence {
	case io.SeekStart:
		abs = offset
	case io.SeekCurrent:
		abs = b.pos + offset
	case io.SeekEnd:
		abs = int64(len(b.data)) + offset
	default:
		return 0, errors.New("testutil: invalid whence")
	}
	if abs < 0 {
		return 0, errNegativeOffset
	}
	b.pos = abs
	return abs, nil
}

// Bytes returns the backing slice for tests that need to mutate data.
func (b *SeekBuffer) Bytes() []byte {
	return b.data
}

// Len returns the number of bytes written so far.
func (b *SeekBuffer) Len() int {
	return len(b.data)
}

// WriteTree creates files below dir from a map of slash-separated names to content.
func WriteTree(tb testing.TB, dir string, files map[string][]byte) {
	tb.Helper()
	for name, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(tb, os.MkdirAll(filepath.Dir(path), 0o750))
		require.NoError(tb, os.WriteFile(path, content, 0o600))
	}
}

// ReadTree returns every regular file below dir keyed by slash-separated name.
func ReadTree(tb testing.TB, dir string) map[string][]byte {
	tb.Helper()
	out := make(map[string][]byte)
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		data, err := os.ReadFile(path) //nolint:gosec // test fixture path
		if err != nil {
			return err
		}
		out[filepath.ToSlash(rel)] = data
		return nil
	})
	require.NoError(tb, err)
	return out
}
