package xp3

import "time"

const (
	// ticks are 100ns intervals since 1601-01-01 UTC.
	ticksPerSecond     = 10_000_000
	epochDeltaSeconds  = 11_644_473_600
	nanosecondsPerTick = 100
)

// FileTime converts t to the Windows FILETIME value stored in entry timestamps.
// Times before 1601 map to 0.
func FileTime(t time.Time) uint64 {
	sec := t.Unix() + epochDeltaSeconds
	if sec < 0 {
		return 0
	}
	return uint64(sec)*ticksPerSecond + uint64(t.Nanosecond()/nanosecondsPerTick) //nolint:gosec // sec checked non-negative
}

// TimeFromFileTime converts a stored FILETIME value to a UTC time.
func TimeFromFileTime(ft uint64) time.Time {
	sec := int64(ft / ticksPerSecond) //nolint:gosec // at most ~1.8e12
	nsec := int64(ft%ticksPerSecond) * nanosecondsPerTick
	return time.Unix(sec-epochDeltaSeconds, nsec).UTC()
}
