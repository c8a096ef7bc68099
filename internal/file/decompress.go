package file

import (
	"io"
	"sync"

	"github.com/klauspost/compress/zlib"
)

// InflatePool manages reusable zlib readers to reduce allocation overhead.
type InflatePool struct {
	pool sync.Pool
}

// NewInflatePool creates an empty pool.
func NewInflatePool() *InflatePool {
	return &InflatePool{}
}

// Get returns a zlib reader over r. The zlib header is read immediately.
// The caller must call the returned release function when done.
// If an error is returned, no release function needs to be called.
func (p *InflatePool) Get(r io.Reader) (io.ReadCloser, func(), error) {
	if v, ok := p.pool.Get().(io.ReadCloser); ok {
		if rs, ok := v.(zlib.Resetter); ok {
			if err := rs.Reset(r, nil); err != nil {
				// The header was bad; the reader is still reusable.
				p.pool.Put(v)
				return nil, nil, err
			}
			return v, func() { p.pool.Put(v) }, nil
		}
	}

	zr, err := zlib.NewReader(r)
	if err != nil {
		return nil, nil, err
	}
	return zr, func() { p.pool.Put(zr) }, nil
}
