package index

import (
	"bytes"
	"fmt"

	"github.com/meigma/xp3/internal/binio"
	"github.com/meigma/xp3/internal/xp3type"
)

// Fixed fragment sizes.
const (
	infoFixedSize = 4 + 8 + 8 + 2
	SegmentSize   = 4 + 8 + 8 + 8
)

// Info holds an entry's name, protection flag and total sizes.
type Info struct {
	Protection   xp3type.Protection
	OriginalSize uint64
	StoredSize   uint64
	Name         string
}

// MarshalBinary encodes the info fragment payload.
func (i Info) MarshalBinary() ([]byte, error) {
	name, err := EncodeName(i.Name)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	buf.Grow(infoFixedSize + len(name))
	_ = binio.WriteU32(&buf, uint32(i.Protection))
	_ = binio.WriteU64(&buf, i.OriginalSize)
	_ = binio.WriteU64(&buf, i.StoredSize)
	_ = binio.WriteU16(&buf, uint16(len(name)/2)) //nolint:gosec // bounded by EncodeName
	buf.Write(name)
	return buf.Bytes(), nil
}

// UnmarshalBinary decodes an info fragment payload.
func (i *Info) UnmarshalBinary(p []byte) error {
	r := bytes.NewReader(p)
	flag, err := binio.ReadU32(r)
	if err != nil {
		return err
	}
	prot := xp3type.Protection(flag)
	if !prot.Valid() {
		return fmt.Errorf("%w: info flag %#x", xp3type.ErrInvalidFileIndex, flag)
	}
	original, err := binio.ReadU64(r)
	if err != nil {
		return err
	}
	stored, err := binio.ReadU64(r)
	if err != nil {
		return err
	}
	units, err := binio.ReadU16(r)
	if err != nil {
		return err
	}
	name, err := binio.ReadBytes(r, uint64(units)*2, 0)
	if err != nil {
		return err
	}
	*i = Info{
		Protection:   prot,
		OriginalSize: original,
		StoredSize:   stored,
		Name:         DecodeName(name),
	}
	return nil
}

// Segment locates one contiguous run of an entry's data.
// DataOffset is relative to the archive origin.
type Segment struct {
	Flag         xp3type.SegmentFlag
	DataOffset   uint64
	OriginalSize uint64
	StoredSize   uint64
}

func (s Segment) appendBinary(buf *bytes.Buffer) {
	_ = binio.WriteU32(buf, uint32(s.Flag))
	_ = binio.WriteU64(buf, s.DataOffset)
	_ = binio.WriteU64(buf, s.OriginalSize)
	_ = binio.WriteU64(buf, s.StoredSize)
}

func readSegment(r *bytes.Reader) (Segment, error) {
	flag, err := binio.ReadU32(r)
	if err != nil {
		return Segment{}, err
	}
	f := xp3type.SegmentFlag(flag)
	if !f.Valid() {
		return Segment{}, fmt.Errorf("%w: segment flag %#x", xp3type.ErrInvalidFileIndex, flag)
	}
	var s Segment
	s.Flag = f
	if s.DataOffset, err = binio.ReadU64(r); err != nil {
		return Segment{}, err
	}
	if s.OriginalSize, err = binio.ReadU64(r); err != nil {
		return Segment{}, err
	}
	if s.StoredSize, err = binio.ReadU64(r); err != nil {
		return Segment{}, err
	}
	return s, nil
}

// MarshalSegments encodes a segment list payload, 28 bytes per segment.
func MarshalSegments(segs []Segment) []byte {
	var buf bytes.Buffer
	buf.Grow(len(segs) * SegmentSize)
	for _, s := range segs {
		s.appendBinary(&buf)
	}
	return buf.Bytes()
}

// UnmarshalSegments decodes a segment list payload.
func UnmarshalSegments(p []byte) ([]Segment, error) {
	if len(p)%SegmentSize != 0 {
		return nil, fmt.Errorf("%w: segment list of %d bytes", xp3type.ErrInvalidFileIndex, len(p))
	}
	segs := make([]Segment, 0, len(p)/SegmentSize)
	r := bytes.NewReader(p)
	for r.Len() > 0 {
		s, err := readSegment(r)
		if err != nil {
			return nil, err
		}
		segs = append(segs, s)
	}
	return segs, nil
}

// Time is an entry timestamp. The engine stores Windows FILETIME ticks.
type Time struct {
	Timestamp uint64
}

// MarshalBinary encodes the time fragment payload.
func (t Time) MarshalBinary() ([]byte, error) {
	var buf bytes.Buffer
	_ = binio.WriteU64(&buf, t.Timestamp)
	return buf.Bytes(), nil
}

// UnmarshalBinary decodes a time fragment payload.
func (t *Time) UnmarshalBinary(p []byte) error {
	v, err := binio.ReadU64(bytes.NewReader(p))
	if err != nil {
		return err
	}
	t.Timestamp = v
	return nil
}

// Adler is the Adler-32 checksum of an entry's uncompressed content.
type Adler struct {
	Checksum uint32
}

// MarshalBinary encodes the adler fragment payload.
func (a Adler) MarshalBinary() ([]byte, error) {
	var buf bytes.Buffer
	_ = binio.WriteU32(&buf, a.Checksum)
	return buf.Bytes(), nil
}

// UnmarshalBinary decodes an adler fragment payload.
func (a *Adler) UnmarshalBinary(p []byte) error {
	v, err := binio.ReadU32(bytes.NewReader(p))
	if err != nil {
		return err
	}
	a.Checksum = v
	return nil
}
