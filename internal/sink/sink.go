// Package sink writes unpacked entries to the filesystem.
package sink

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/meigma/xp3/internal/pathutil"
)

// Committer is a destination that becomes visible only on Commit.
type Committer interface {
	io.Writer
	Commit() error
	Discard() error
}

// FileSink writes entries to a directory with atomic writes.
//
// Files are written to a temporary file in the same directory,
// then renamed to the final path on Commit. Partially written files are
// never visible at the final path.
type FileSink struct {
	destDir       string
	overwrite     bool
	preserveTimes bool
}

// Option configures a FileSink.
type Option func(*FileSink)

// WithOverwrite allows overwriting existing files.
// By default, existing files are skipped.
func WithOverwrite(overwrite bool) Option {
	return func(s *FileSink) {
		s.overwrite = overwrite
	}
}

// WithPreserveTimes applies the entry timestamp as the file modification time.
// Entries without a timestamp keep the current time.
func WithPreserveTimes(preserve bool) Option {
	return func(s *FileSink) {
		s.preserveTimes = preserve
	}
}

// New creates a FileSink that writes below destDir.
// Parent directories are created as needed.
func New(destDir string, opts ...Option) *FileSink {
	s := &FileSink{destDir: destDir}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Path returns the destination path for an archive name.
func (s *FileSink) Path(name string) (string, error) {
	rel, err := pathutil.Local(name)
	if err != nil {
		return "", fmt.Errorf("%w: %q", err, name)
	}
	return filepath.Join(s.destDir, rel), nil
}

// ShouldProcess returns false if the destination exists and overwrite is disabled.
func (s *FileSink) ShouldProcess(name string) (bool, error) {
	dest, err := s.Path(name)
	if err != nil {
		return false, err
	}
	if s.overwrite {
		return true, nil
	}
	_, err = os.Stat(dest)
	return os.IsNotExist(err), nil
}

// Writer returns a Committer that writes to a temp file and renames on Commit.
// A zero modTime leaves the modification time untouched.
func (s *FileSink) Writer(name string, modTime time.Time) (Committer, error) {
	dest, err := s.Path(name)
	if err != nil {
		return nil, err
	}

	dir := filepath.Dir(dest)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create directory %s: %w", dir, err)
	}

	// Same directory so the final rename stays on one filesystem.
	tmp, err := os.CreateTemp(dir, ".xp3-*")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}

	c := &fileCommitter{destPath: dest, tempFile: tmp}
	if s.preserveTimes && !modTime.IsZero() {
		c.modTime = modTime
	}
	return c, nil
}

type fileCommitter struct {
	destPath string
	tempFile *os.File
	modTime  time.Time
}

func (c *fileCommitter) Write(p []byte) (int, error) {
	return c.tempFile.Write(p)
}

// Commit closes the temp file, applies the timestamp and renames it into place.
func (c *fileCommitter) Commit() error {
	tempPath := c.tempFile.Name()

	if err := c.tempFile.Close(); err != nil {
		_ = os.Remove(tempPath) //nolint:errcheck // best-effort cleanup
		return fmt.Errorf("close temp file: %w", err)
	}

	if !c.modTime.IsZero() {
		if err := os.Chtimes(tempPath, c.modTime, c.modTime); err != nil {
			_ = os.Remove(tempPath) //nolint:errcheck // best-effort cleanup
			return fmt.Errorf("chtimes: %w", err)
		}
	}

	if err := os.Rename(tempPath, c.destPath); err != nil {
		_ = os.Remove(tempPath) //nolint:errcheck // best-effort cleanup
		return fmt.Errorf("rename to %s: %w", c.destPath, err)
	}
	return nil
}

// Discard closes and removes the temp file.
func (c *fileCommitter) Discard() error {
	tempPath := c.tempFile.Name()
	_ = c.tempFile.Close() //nolint:errcheck // cleaning up
	return os.Remove(tempPath)
}
