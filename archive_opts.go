package xp3

import "log/slog"

// Option configures an Archive.
type Option func(*Archive)

// WithMaxIndexSize limits the decoded size of the archive index.
// Set limit to 0 to disable the limit.
func WithMaxIndexSize(limit uint64) Option {
	return func(a *Archive) {
		a.maxIndexSize = limit
	}
}

// WithMaxFileSize limits the per-segment size (stored and original).
// Segments above the limit fail with ErrSizeOverflow. The default, 0,
// disables the limit.
func WithMaxFileSize(limit uint64) Option {
	return func(a *Archive) {
		a.maxFileSize = limit
	}
}

// WithVerifyChecksum controls whether unpacking compares the produced bytes
// against the stored Adler-32 and fails with ErrChecksumMismatch.
//
// Verification is off by default. The check runs after all bytes have been
// written to the sink, so a caller that needs to discard corrupt output must
// buffer it or use ReadFile.
func WithVerifyChecksum(enabled bool) Option {
	return func(a *Archive) {
		a.verify = enabled
	}
}

// WithLogger sets the logger for archive operations.
// If not set, logging is disabled.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Archive) {
		a.logger = logger
	}
}
