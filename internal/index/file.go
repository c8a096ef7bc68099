package index

import (
	"bytes"
	"fmt"

	"github.com/meigma/xp3/internal/xp3type"
)

// FileIndex is the metadata of one archive entry.
type FileIndex struct {
	Info     Info
	Segments []Segment
	Adler    Adler
	Time     *Time
}

// Name returns the entry name the index set is keyed by.
func (f *FileIndex) Name() string {
	return f.Info.Name
}

// fragmentKind is the closed set of sub-records a file index understands.
type fragmentKind uint8

const (
	fragmentUnknown fragmentKind = iota
	fragmentInfo
	fragmentSegments
	fragmentAdler
	fragmentTime
)

func kindOf(t Tag) fragmentKind {
	switch t {
	case TagInfo:
		return fragmentInfo
	case TagSegm:
		return fragmentSegments
	case TagAdlr:
		return fragmentAdler
	case TagTime:
		return fragmentTime
	default:
		return fragmentUnknown
	}
}

// DecodeFileIndex parses the payload of a "File" record.
//
// Sub-records are read until len(p) bytes are consumed. Unknown tags are
// skipped. Info, segment list and adler are each required exactly once.
func DecodeFileIndex(p []byte) (*FileIndex, error) {
	var (
		f                             FileIndex
		haveInfo, haveSegm, haveAdler bool
	)

	r := bytes.NewReader(p)
	size := int64(len(p))
	var read int64
	for read < size {
		n, rec, err := ReadRecord(r, 0)
		if err != nil {
			return nil, err
		}
		read += n

		switch kindOf(rec.ID) {
		case fragmentInfo:
			if haveInfo {
				return nil, fmt.Errorf("%w: duplicate info", xp3type.ErrInvalidFileIndex)
			}
			if err := f.Info.UnmarshalBinary(rec.Payload); err != nil {
				return nil, err
			}
			haveInfo = true
		case fragmentSegments:
			if haveSegm {
				return nil, fmt.Errorf("%w: duplicate segment list", xp3type.ErrInvalidFileIndex)
			}
			segs, err := UnmarshalSegments(rec.Payload)
			if err != nil {
				return nil, err
			}
			f.Segments = segs
			haveSegm = true
		case fragmentAdler:
			if haveAdler {
				return nil, fmt.Errorf("%w: duplicate adler", xp3type.ErrInvalidFileIndex)
			}
			if err := f.Adler.UnmarshalBinary(rec.Payload); err != nil {
				return nil, err
			}
			haveAdler = true
		case fragmentTime:
			var t Time
			if err := t.UnmarshalBinary(rec.Payload); err != nil {
				return nil, err
			}
			f.Time = &t
		case fragmentUnknown:
		}
	}

	switch {
	case !haveInfo:
		return nil, fmt.Errorf("%w: missing info", xp3type.ErrInvalidFileIndex)
	case !haveSegm:
		return nil, fmt.Errorf("%w: missing segment list", xp3type.ErrInvalidFileIndex)
	case !haveAdler:
		return nil, fmt.Errorf("%w: missing adler", xp3type.ErrInvalidFileIndex)
	}
	return &f, nil
}

// MarshalBinary encodes the sub-records of f in wire order: adlr, time, info, segm.
func (f *FileIndex) MarshalBinary() ([]byte, error) {
	info, err := f.Info.MarshalBinary()
	if err != nil {
		return nil, err
	}
	adler, _ := f.Adler.MarshalBinary() //nolint:errcheck // fixed-size encode cannot fail

	recs := make([]Record, 0, 4)
	recs = append(recs, Record{ID: TagAdlr, Payload: adler})
	if f.Time != nil {
		ts, _ := f.Time.MarshalBinary() //nolint:errcheck // fixed-size encode cannot fail
		recs = append(recs, Record{ID: TagTime, Payload: ts})
	}
	recs = append(recs,
		Record{ID: TagInfo, Payload: info},
		Record{ID: TagSegm, Payload: MarshalSegments(f.Segments)},
	)

	var buf bytes.Buffer
	for _, rec := range recs {
		if _, err := rec.WriteTo(&buf); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

// Record wraps f in a "File" record.
func (f *FileIndex) Record() (Record, error) {
	p, err := f.MarshalBinary()
	if err != nil {
		return Record{}, fmt.Errorf("file index %q: %w", f.Info.Name, err)
	}
	return Record{ID: TagFile, Payload: p}, nil
}
