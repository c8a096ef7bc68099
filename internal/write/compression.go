package write

import (
	"io/fs"
	"path/filepath"
	"strings"
)

// SkipCompressionFunc returns true when a file should be stored uncompressed.
// It is called once per file and should be inexpensive.
type SkipCompressionFunc func(path string, info fs.FileInfo) bool

// DefaultSkipCompression returns a SkipCompressionFunc that skips small files
// and known already-compressed extensions.
func DefaultSkipCompression(minSize int64) SkipCompressionFunc {
	return func(path string, info fs.FileInfo) bool {
		if info != nil && minSize > 0 && info.Size() < minSize {
			return true
		}
		ext := strings.ToLower(filepath.Ext(path))
		_, ok := defaultSkipCompressionExts[ext]
		return ok
	}
}

// SkipExtensions returns a SkipCompressionFunc matching the given extensions.
// Extensions are compared case-insensitively; the leading dot is optional.
func SkipExtensions(exts ...string) SkipCompressionFunc {
	set := make(map[string]struct{}, len(exts))
	for _, ext := range exts {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		set[ext] = struct{}{}
	}
	return func(path string, _ fs.FileInfo) bool {
		_, ok := set[strings.ToLower(filepath.Ext(path))]
		return ok
	}
}

// ShouldSkip checks if any predicate returns true for the given file.
func ShouldSkip(path string, info fs.FileInfo, predicates []SkipCompressionFunc) bool {
	for _, fn := range predicates {
		if fn == nil {
			continue
		}
		if fn(path, info) {
			return true
		}
	}
	return false
}

// Game assets are mostly images, audio and video that are compressed already.
var defaultSkipCompressionExts = map[string]struct{}{
	".7z":   {},
	".avi":  {},
	".flac": {},
	".gif":  {},
	".gz":   {},
	".jpeg": {},
	".jpg":  {},
	".m4a":  {},
	".mkv":  {},
	".mp3":  {},
	".mp4":  {},
	".mpg":  {},
	".ogg":  {},
	".opus": {},
	".png":  {},
	".rar":  {},
	".tlg":  {},
	".webm": {},
	".webp": {},
	".wmv":  {},
	".xp3":  {},
	".zip":  {},
	".zst":  {},
}
