package write

import (
	"fmt"
	"io"
	"sync"

	"github.com/klauspost/compress/zlib"
)

// DeflatePool manages reusable zlib writers of a single compression level.
type DeflatePool struct {
	level int
	pool  sync.Pool
}

// NewDeflatePool creates a pool for the given zlib level.
func NewDeflatePool(level int) (*DeflatePool, error) {
	// Validate the level once so Get cannot fail on it later.
	if _, err := zlib.NewWriterLevel(io.Discard, level); err != nil {
		return nil, fmt.Errorf("zlib level %d: %w", level, err)
	}
	return &DeflatePool{level: level}, nil
}

// Level returns the compression level of pooled writers.
func (p *DeflatePool) Level() int {
	return p.level
}

// Get returns a zlib writer that writes to w.
// The caller must Close the writer to flush it, then call release.
func (p *DeflatePool) Get(w io.Writer) (*zlib.Writer, func()) {
	if zw, ok := p.pool.Get().(*zlib.Writer); ok {
		zw.Reset(w)
		return zw, func() { p.pool.Put(zw) }
	}
	//nolint:errcheck // level validated in NewDeflatePool
	zw, _ := zlib.NewWriterLevel(w, p.level)
	return zw, func() { p.pool.Put(zw) }
}
