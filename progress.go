package xp3

// ProgressEvent represents a progress update during packing or extraction.
type ProgressEvent struct {
	// Stage identifies the current phase of the operation.
	Stage ProgressStage

	// Name is the entry currently being processed, if applicable.
	Name string

	// BytesDone is the number of uncompressed bytes completed so far.
	BytesDone uint64

	// BytesTotal is the total number of uncompressed bytes.
	// Zero indicates the total is unknown.
	BytesTotal uint64

	// FilesDone is the number of entries completed.
	FilesDone int

	// FilesTotal is the total number of entries.
	// Zero indicates the total is unknown (e.g., during enumeration).
	FilesTotal int
}

// ProgressStage identifies the current phase of an operation.
type ProgressStage uint8

// Progress stages for packing and extraction.
const (
	// StageEnumerating indicates the operation is walking the directory tree.
	StageEnumerating ProgressStage = iota

	// StageCompressing indicates entry data is being written.
	StageCompressing

	// StageWritingIndex indicates the archive index is being written.
	StageWritingIndex

	// StageExtracting indicates entries are being unpacked.
	StageExtracting
)

// String returns the string representation of the stage.
func (s ProgressStage) String() string {
	switch s {
	case StageEnumerating:
		return "enumerating"
	case StageCompressing:
		return "compressing"
	case StageWritingIndex:
		return "writing index"
	case StageExtracting:
		return "extracting"
	default:
		return "unknown"
	}
}

// ProgressFunc receives progress updates during operations.
// It is called synchronously from the goroutine running the operation.
type ProgressFunc func(ProgressEvent)
