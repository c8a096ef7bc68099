// Package sizing provides safe size arithmetic and conversions to prevent overflow.
package sizing

import (
	"math"

	"github.com/meigma/xp3/internal/xp3type"
)

// ToInt converts a uint64 to int, returning xp3type.ErrSizeOverflow if it doesn't fit.
func ToInt(size uint64) (int, error) {
	if size > uint64(math.MaxInt) {
		return 0, xp3type.ErrSizeOverflow
	}
	return int(size), nil
}

// ToInt64 converts a uint64 to int64, returning xp3type.ErrSizeOverflow if it doesn't fit.
func ToInt64(size uint64) (int64, error) {
	if size > uint64(math.MaxInt64) {
		return 0, xp3type.ErrSizeOverflow
	}
	return int64(size), nil
}

// ToUint64 converts a non-negative int64 to uint64.
func ToUint64(n int64) (uint64, error) {
	if n < 0 {
		return 0, xp3type.ErrSizeOverflow
	}
	return uint64(n), nil
}

// AddUint64 adds two uint64 values, returning (result, false) on overflow.
func AddUint64(a, b uint64) (uint64, bool) {
	sum := a + b
	if sum < a {
		return 0, false
	}
	return sum, true
}
