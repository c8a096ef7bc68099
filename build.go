package xp3

import (
	"context"
	"fmt"
	"io"
)

// BuildOptions declares the archive-level settings of Build.
type BuildOptions struct {
	Header           Header
	IndexCompression IndexCompression

	// Extras are raw top-level records written ahead of the file records.
	Extras []Record
}

// WriteEntry declares one entry for Build.
type WriteEntry struct {
	Protection Protection
	Name       string
	Timestamp  *uint64

	// Sources are written in order, one segment each.
	Sources []Source
}

// Build writes a complete archive for entries to ws.
//
// Entries are written in the given order. Build stops at the first error;
// the stream then holds a partial archive without a valid index.
func Build(ctx context.Context, ws io.WriteSeeker, opts BuildOptions, entries []WriteEntry, wopts ...WriterOption) (*Container, error) {
	w, err := NewWriter(ws, opts.Header, opts.IndexCompression, wopts...)
	if err != nil {
		return nil, err
	}
	for _, rec := range opts.Extras {
		if err := w.AppendExtra(rec); err != nil {
			return nil, err
		}
	}

	for i := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := buildEntry(ctx, w, &entries[i]); err != nil {
			return nil, fmt.Errorf("entry %q: %w", entries[i].Name, err)
		}
	}
	return w.Finish()
}

func buildEntry(ctx context.Context, w *Writer, we *WriteEntry) error {
	ew, err := w.EnterFile(we.Protection, we.Name, we.Timestamp)
	if err != nil {
		return err
	}
	for _, src := range we.Sources {
		if _, err := ew.WriteSegmentFrom(ctx, src); err != nil {
			return err
		}
	}
	return ew.Finish()
}
