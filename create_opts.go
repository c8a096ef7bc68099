package xp3

import "log/slog"

// DefaultMaxFiles is the default limit used when no MaxFiles option is set.
const DefaultMaxFiles = 200_000

// ChangeDetection controls how strictly file changes are detected during creation.
type ChangeDetection uint8

const (
	ChangeDetectionNone ChangeDetection = iota
	ChangeDetectionStrict
)

// createConfig holds configuration for directory packing.
type createConfig struct {
	header           Header
	indexCompression IndexCompression
	segmentFlag      SegmentFlag
	level            int
	protection       Protection
	segmentSize      uint64
	changeDetection  ChangeDetection
	skipCompression  []SkipCompressionFunc
	maxFiles         int
	progress         ProgressFunc
	logger           *slog.Logger
}

func defaultCreateConfig() createConfig {
	return createConfig{
		header:           Header{Version: HeaderVersioned, MinorVersion: 1},
		indexCompression: IndexCompressed,
		segmentFlag:      SegmentCompressed,
		level:            DefaultCompressionLevel,
		protection:       NotProtected,
	}
}

// CreateOption configures directory packing.
type CreateOption func(*createConfig)

// CreateWithHeader sets the archive header.
// The default is a versioned header with minor version 1.
func CreateWithHeader(h Header) CreateOption {
	return func(cfg *createConfig) {
		cfg.header = h
	}
}

// CreateWithIndexCompression sets whether the index is compressed (default: compressed).
func CreateWithIndexCompression(c IndexCompression) CreateOption {
	return func(cfg *createConfig) {
		cfg.indexCompression = c
	}
}

// CreateWithCompression sets the flag for file segments.
// Use SegmentUncompressed to store every file raw.
func CreateWithCompression(flag SegmentFlag) CreateOption {
	return func(cfg *createConfig) {
		cfg.segmentFlag = flag
	}
}

// CreateWithCompressionLevel sets the zlib level for segments and index.
func CreateWithCompressionLevel(level int) CreateOption {
	return func(cfg *createConfig) {
		cfg.level = level
	}
}

// CreateWithProtection sets the protection flag written for every entry.
func CreateWithProtection(p Protection) CreateOption {
	return func(cfg *createConfig) {
		cfg.protection = p
	}
}

// CreateWithSegmentSize splits files into segments of at most n uncompressed
// bytes. Zero stores each file as a single segment.
func CreateWithSegmentSize(n uint64) CreateOption {
	return func(cfg *createConfig) {
		cfg.segmentSize = n
	}
}

// CreateWithChangeDetection controls whether the packer verifies files did
// not change while being written. The zero value disables the check.
func CreateWithChangeDetection(cd ChangeDetection) CreateOption {
	return func(cfg *createConfig) {
		cfg.changeDetection = cd
	}
}

// CreateWithSkipCompression adds predicates that decide to store a file uncompressed.
// If any predicate returns true, compression is skipped for that file.
// These checks are on the hot path, so keep them cheap.
func CreateWithSkipCompression(fns ...SkipCompressionFunc) CreateOption {
	return func(cfg *createConfig) {
		cfg.skipCompression = append(cfg.skipCompression, fns...)
	}
}

// CreateWithMaxFiles limits the number of files included in the archive.
// Zero uses DefaultMaxFiles. Negative means no limit.
func CreateWithMaxFiles(n int) CreateOption {
	return func(cfg *createConfig) {
		cfg.maxFiles = n
	}
}

// CreateWithProgress sets a callback to receive progress updates.
func CreateWithProgress(fn ProgressFunc) CreateOption {
	return func(cfg *createConfig) {
		cfg.progress = fn
	}
}

// CreateWithLogger sets the logger for packing.
// If not set, logging is disabled.
func CreateWithLogger(logger *slog.Logger) CreateOption {
	return func(cfg *createConfig) {
		cfg.logger = logger
	}
}
