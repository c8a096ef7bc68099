package xp3

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/meigma/xp3/internal/pathutil"
	"github.com/meigma/xp3/internal/sink"
)

// ExtractStats summarizes an Extract call.
type ExtractStats struct {
	Files   int
	Skipped int
	Bytes   uint64
}

type extractConfig struct {
	overwrite     bool
	preserveTimes bool
	verify        bool
	skipProtected bool
	prefix        string
	progress      ProgressFunc
	logger        *slog.Logger
}

// ExtractOption configures Extract.
type ExtractOption func(*extractConfig)

// ExtractWithOverwrite allows overwriting existing files.
// By default, existing files are skipped.
func ExtractWithOverwrite(overwrite bool) ExtractOption {
	return func(cfg *extractConfig) {
		cfg.overwrite = overwrite
	}
}

// ExtractWithPreserveTimes applies entry timestamps as file modification times.
func ExtractWithPreserveTimes(preserve bool) ExtractOption {
	return func(cfg *extractConfig) {
		cfg.preserveTimes = preserve
	}
}

// ExtractWithVerify checks every entry against its stored Adler-32.
// A mismatching file is discarded and Extract fails with ErrChecksumMismatch.
func ExtractWithVerify(verify bool) ExtractOption {
	return func(cfg *extractConfig) {
		cfg.verify = verify
	}
}

// ExtractWithSkipProtected skips entries carrying the protection flag.
func ExtractWithSkipProtected(skip bool) ExtractOption {
	return func(cfg *extractConfig) {
		cfg.skipProtected = skip
	}
}

// ExtractWithPrefix limits extraction to entries below the directory dir.
func ExtractWithPrefix(dir string) ExtractOption {
	return func(cfg *extractConfig) {
		cfg.prefix = pathutil.DirPrefix(dir)
	}
}

// ExtractWithProgress sets a callback to receive progress updates.
func ExtractWithProgress(fn ProgressFunc) ExtractOption {
	return func(cfg *extractConfig) {
		cfg.progress = fn
	}
}

// ExtractWithLogger sets the logger for extraction.
// If not set, the archive's logger is used.
func ExtractWithLogger(logger *slog.Logger) ExtractOption {
	return func(cfg *extractConfig) {
		cfg.logger = logger
	}
}

// Extract writes the entries of a below destDir, in name order.
//
// Each file is written to a temporary file and renamed into place once
// complete. Entry names may use "/" or "\" as separators; names that would
// escape destDir fail with ErrUnsafePath before anything is written.
func Extract(ctx context.Context, a *Archive, destDir string, opts ...ExtractOption) (ExtractStats, error) {
	cfg := extractConfig{logger: a.logger}
	for _, opt := range opts {
		opt(&cfg)
	}
	logger := cfg.logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	dst := sink.New(destDir,
		sink.WithOverwrite(cfg.overwrite),
		sink.WithPreserveTimes(cfg.preserveTimes),
	)

	var (
		stats      ExtractStats
		candidates []Entry
		total      uint64
	)
	for name, e := range a.Entries() {
		if !pathutil.InDir(name, cfg.prefix) {
			continue
		}
		if cfg.skipProtected && e.Protected {
			stats.Skipped++
			continue
		}
		// Validate every name up front so a hostile archive writes nothing.
		if _, err := dst.Path(name); err != nil {
			return stats, err
		}
		candidates = append(candidates, e)
		total += e.OriginalSize
	}

	report := func(name string) {
		if cfg.progress != nil {
			cfg.progress(ProgressEvent{
				Stage:      StageExtracting,
				Name:       name,
				BytesDone:  stats.Bytes,
				BytesTotal: total,
				FilesDone:  stats.Files,
				FilesTotal: len(candidates),
			})
		}
	}
	report("")

	for _, e := range candidates {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		ok, err := dst.ShouldProcess(e.Name)
		if err != nil {
			return stats, err
		}
		if !ok {
			logger.Debug("skipped existing file", "name", e.Name)
			stats.Skipped++
			continue
		}

		if err := extractOne(ctx, a, dst, e, cfg.verify); err != nil {
			return stats, err
		}
		stats.Files++
		stats.Bytes += e.OriginalSize
		report(e.Name)
	}

	logger.Info("extracted archive", "dir", destDir, "files", stats.Files, "skipped", stats.Skipped, "bytes", stats.Bytes)
	return stats, nil
}

func extractOne(ctx context.Context, a *Archive, dst *sink.FileSink, e Entry, verify bool) error {
	w, err := dst.Writer(e.Name, e.ModTime())
	if err != nil {
		return err
	}
	if err := a.unpack(ctx, e.Name, w, verify); err != nil {
		return errors.Join(err, w.Discard())
	}
	if err := w.Commit(); err != nil {
		return fmt.Errorf("extract %s: %w", e.Name, err)
	}
	return nil
}
