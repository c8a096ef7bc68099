package index

import (
	"io"

	"github.com/meigma/xp3/internal/binio"
)

// RecordHeaderSize is the size of a record's tag and length fields.
const RecordHeaderSize = 12

// Record is a generic tag-length-value unit.
type Record struct {
	ID      Tag
	Payload []byte
}

// Size returns the encoded size of r.
func (r Record) Size() int64 {
	return RecordHeaderSize + int64(len(r.Payload))
}

// ReadRecord reads one record from r and returns the number of bytes consumed.
// Payloads longer than limit fail with xp3type.ErrSizeOverflow; a limit of 0
// disables the check.
func ReadRecord(r io.Reader, limit uint64) (int64, Record, error) {
	id, err := binio.ReadU32(r)
	if err != nil {
		return 0, Record{}, err
	}
	n, err := binio.ReadU64(r)
	if err != nil {
		return 0, Record{}, err
	}
	payload, err := binio.ReadBytes(r, n, limit)
	if err != nil {
		return 0, Record{}, err
	}
	rec := Record{ID: Tag(id), Payload: payload}
	return rec.Size(), rec, nil
}

// WriteTo writes r to w.
func (r Record) WriteTo(w io.Writer) (int64, error) {
	if err := binio.WriteU32(w, uint32(r.ID)); err != nil {
		return 0, err
	}
	if err := binio.WriteU64(w, uint64(len(r.Payload))); err != nil {
		return RecordHeaderSize - 8, err
	}
	if err := binio.WriteBytes(w, r.Payload); err != nil {
		return RecordHeaderSize, err
	}
	return r.Size(), nil
}
