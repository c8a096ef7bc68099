package xp3

import (
	"github.com/meigma/xp3/internal/header"
	"github.com/meigma/xp3/internal/index"
	"github.com/meigma/xp3/internal/write"
	"github.com/meigma/xp3/internal/xp3type"
)

// Header is the archive preamble following the magic bytes.
type Header = header.Header

// HeaderVersion selects the header layout.
type HeaderVersion = header.Version

// Header layouts.
const (
	HeaderLegacy    = header.Legacy
	HeaderVersioned = header.Versioned
)

// Protection is the protection flag stored with each entry.
type Protection = xp3type.Protection

// Protection flags.
const (
	NotProtected = xp3type.NotProtected
	Protected    = xp3type.Protected
)

// SegmentFlag tells whether a segment is stored raw or zlib-compressed.
type SegmentFlag = xp3type.SegmentFlag

// Segment flags.
const (
	SegmentUncompressed = xp3type.SegmentUncompressed
	SegmentCompressed   = xp3type.SegmentCompressed
)

// IndexCompression tells whether the index body is zlib-compressed.
type IndexCompression = xp3type.IndexCompression

// Index compression selectors.
const (
	IndexUncompressed = xp3type.IndexUncompressed
	IndexCompressed   = xp3type.IndexCompressed
)

// Tag is the four-character identifier of an index record.
type Tag = index.Tag

// Record identifiers.
const (
	TagFile = index.TagFile
	TagInfo = index.TagInfo
	TagSegm = index.TagSegm
	TagAdlr = index.TagAdlr
	TagTime = index.TagTime
)

// Record is a raw tag-length-value index record.
type Record = index.Record

// FileIndex is the decoded metadata of one entry.
type FileIndex = index.FileIndex

// Segment describes one stored run of an entry's data.
type Segment = index.Segment

// IndexSet is the decoded archive index.
type IndexSet = index.Set

// SkipCompressionFunc returns true when a file should be stored uncompressed.
// It is called once per file and should be inexpensive.
type SkipCompressionFunc = write.SkipCompressionFunc

// DefaultSkipCompression returns a SkipCompressionFunc that skips small files
// and known already-compressed extensions.
var DefaultSkipCompression = write.DefaultSkipCompression

// SkipExtensions returns a SkipCompressionFunc matching the given extensions.
var SkipExtensions = write.SkipExtensions

// TagOf returns the tag spelled by a four-character identifier.
var TagOf = index.TagOf
