package xp3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/meigma/xp3/internal/platform"
	"github.com/meigma/xp3/internal/write"
)

// CreateFromDir packs the regular files below dir into an archive written
// at the current position of ws.
//
// Files are visited in lexical walk order and stored under their
// slash-separated path relative to dir, with their modification time as a
// FILETIME timestamp. Empty directories are not preserved. Symbolic links
// are not followed. When ws is a file below dir, it is left out of the
// archive.
//
// The context can be used for cancellation of long-running archive creation.
func CreateFromDir(ctx context.Context, dir string, ws io.WriteSeeker, opts ...CreateOption) (*Container, error) {
	cfg := defaultCreateConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.maxFiles == 0 {
		cfg.maxFiles = DefaultMaxFiles
	}

	root, err := os.OpenRoot(dir)
	if err != nil {
		return nil, err
	}
	defer root.Close()

	p := &packer{cfg: cfg, logger: cfg.logger}
	if st, ok := ws.(interface{ Stat() (fs.FileInfo, error) }); ok {
		// The output may live below dir; it must not be packed into itself.
		if p.output, err = st.Stat(); err != nil {
			return nil, err
		}
	}
	p.log().Info("creating archive", "dir", dir, "segment_flag", cfg.segmentFlag.String())

	w, err := NewWriter(ws, cfg.header, cfg.indexCompression,
		WriterWithCompressionLevel(cfg.level),
		WriterWithIndexLevel(cfg.level),
		WriterWithLogger(cfg.logger),
	)
	if err != nil {
		return nil, err
	}

	if err := p.writeData(ctx, root, w); err != nil {
		return nil, err
	}

	p.reportProgress(StageWritingIndex, "", p.bytes, p.bytes, p.files, p.files)
	c, err := w.Finish()
	if err != nil {
		return nil, err
	}
	p.log().Info("archive created", "files", p.files, "bytes", p.bytes, "size", c.Size)
	return c, nil
}

// packer holds state for directory packing.
type packer struct {
	cfg    createConfig
	logger *slog.Logger
	output fs.FileInfo
	files  int
	bytes  uint64
}

// log returns the logger, falling back to a discard logger if nil.
func (p *packer) log() *slog.Logger {
	if p.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return p.logger
}

// reportProgress sends a progress event if a callback is configured.
func (p *packer) reportProgress(stage ProgressStage, name string, bytesDone, bytesTotal uint64, filesDone, filesTotal int) {
	if p.cfg.progress == nil {
		return
	}
	p.cfg.progress(ProgressEvent{
		Stage:      stage,
		Name:       name,
		BytesDone:  bytesDone,
		BytesTotal: bytesTotal,
		FilesDone:  filesDone,
		FilesTotal: filesTotal,
	})
}

// writeData walks the directory tree and writes one entry per regular file.
func (p *packer) writeData(ctx context.Context, root *os.Root, w *Writer) error {
	p.reportProgress(StageEnumerating, "", 0, 0, 0, 0)

	return fs.WalkDir(root.FS(), ".", func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		fsPath := filepath.FromSlash(path)
		info, ok, err := platform.RegularInfo(root, fsPath, d)
		if err != nil {
			return err
		}
		if !ok {
			p.log().Debug("skipped non-regular file", "path", path)
			return nil
		}
		if p.output != nil && os.SameFile(p.output, info) {
			p.log().Debug("skipped archive output", "path", path)
			return nil
		}
		if p.cfg.maxFiles > 0 && p.files >= p.cfg.maxFiles {
			return ErrTooManyFiles
		}

		if err := p.writeEntry(ctx, root, w, path, fsPath, info); err != nil {
			if errors.Is(err, platform.ErrSymlink) {
				p.log().Debug("skipped symlink", "path", path)
				return nil
			}
			return err
		}
		p.files++
		p.bytes += uint64(info.Size()) //nolint:gosec // size of a regular file is non-negative
		p.reportProgress(StageCompressing, path, p.bytes, 0, p.files, 0)
		return nil
	})
}

// writeEntry writes a single file as one entry, split into segments when a
// segment size is configured.
func (p *packer) writeEntry(ctx context.Context, root *os.Root, w *Writer, name, fsPath string, info fs.FileInfo) error {
	f, err := platform.OpenFileNoFollow(root, fsPath)
	if err != nil {
		return err
	}
	defer f.Close()

	if p.cfg.changeDetection == ChangeDetectionStrict {
		if err := platform.CheckUnchanged(f, name, info); err != nil {
			return err
		}
	}

	flag := p.cfg.segmentFlag
	if flag == SegmentCompressed && write.ShouldSkip(name, info, p.cfg.skipCompression) {
		flag = SegmentUncompressed
	}

	ts := FileTime(info.ModTime())
	ew, err := w.EnterFile(p.cfg.protection, name, &ts)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}

	size := uint64(info.Size()) //nolint:gosec // size of a regular file is non-negative
	chunk := p.cfg.segmentSize
	if chunk == 0 {
		chunk = max(size, 1)
	}

	var written uint64
	for written < size {
		n := min(chunk, size-written)
		lr := io.LimitReader(f, int64(n)) //nolint:gosec // n <= size, which came from an int64
		if _, err := ew.WriteSegmentFrom(ctx, FromReader(flag, lr)); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		written += n
	}

	// The file shrank while being read.
	if ew.original != size {
		return fmt.Errorf("xp3: file size changed during archive creation: %s: expected %d, got %d", name, size, ew.original)
	}
	if p.cfg.changeDetection == ChangeDetectionStrict {
		if err := platform.CheckUnchanged(f, name, info); err != nil {
			return err
		}
	}
	return ew.Finish()
}
