package file

import (
	"io"

	"github.com/meigma/xp3/internal/sizing"
	"github.com/meigma/xp3/internal/xp3type"
)

// Cursor tracks the origin of an archive on a seekable stream.
type Cursor struct {
	rs     io.ReadSeeker
	origin int64
}

// NewCursor captures the current position of rs as the archive origin.
func NewCursor(rs io.ReadSeeker) (*Cursor, error) {
	origin, err := rs.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, xp3type.IOError("seek", err)
	}
	return &Cursor{rs: rs, origin: origin}, nil
}

// Origin returns the absolute stream position of the archive start.
func (c *Cursor) Origin() int64 {
	return c.origin
}

// Stream returns the underlying stream.
func (c *Cursor) Stream() io.ReadSeeker {
	return c.rs
}

// SeekOrigin moves the stream to origin + off.
func (c *Cursor) SeekOrigin(off uint64) error {
	delta, err := sizing.ToInt64(off)
	if err != nil {
		return err
	}
	if _, err := c.rs.Seek(c.origin+delta, io.SeekStart); err != nil {
		return xp3type.IOError("seek", err)
	}
	return nil
}

// Skip moves the stream forward by n bytes.
func (c *Cursor) Skip(n uint64) error {
	delta, err := sizing.ToInt64(n)
	if err != nil {
		return err
	}
	if _, err := c.rs.Seek(delta, io.SeekCurrent); err != nil {
		return xp3type.IOError("seek", err)
	}
	return nil
}

// Window seeks forward by delta from the current position, hands fn a
// reader limited to n bytes, and then restores the position it started from.
// The restore runs even when fn fails.
func (c *Cursor) Window(delta, n uint64, fn func(io.Reader) error) error {
	d, err := sizing.ToInt64(delta)
	if err != nil {
		return err
	}
	limit, err := sizing.ToInt64(n)
	if err != nil {
		return err
	}

	before, err := c.rs.Seek(0, io.SeekCurrent)
	if err != nil {
		return xp3type.IOError("seek", err)
	}
	if _, err := c.rs.Seek(d, io.SeekCurrent); err != nil {
		return xp3type.IOError("seek", err)
	}

	fnErr := fn(io.LimitReader(c.rs, limit))

	if _, err := c.rs.Seek(before, io.SeekStart); err != nil && fnErr == nil {
		return xp3type.IOError("seek", err)
	}
	return fnErr
}
