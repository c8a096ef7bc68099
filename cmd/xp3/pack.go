package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/meigma/xp3"
)

type packOptions struct {
	legacy        bool
	minor         uint32
	compressIndex bool
	noCompress    bool
	level         int
	segmentSize   string
	skipExt       []string
	protect       bool
	strict        bool
	maxFiles      int
}

func newPackCmd(g *globalOptions) *cobra.Command {
	o := &packOptions{}
	cmd := &cobra.Command{
		Use:   "pack DIR ARCHIVE",
		Short: "Create an archive from a directory tree",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := o.createOptions(g)
			if err != nil {
				return err
			}
			return pack(cmd, args[0], args[1], opts)
		},
	}
	f := cmd.Flags()
	f.BoolVar(&o.legacy, "legacy", false, "write a legacy header")
	f.Uint32Var(&o.minor, "minor", 1, "minor version of the versioned header")
	f.BoolVar(&o.compressIndex, "compress-index", true, "zlib-compress the index")
	f.BoolVar(&o.noCompress, "no-compress", false, "store every file uncompressed")
	f.IntVar(&o.level, "level", xp3.DefaultCompressionLevel, "zlib compression level (0-9)")
	f.StringVar(&o.segmentSize, "segment-size", "", "split files into segments of this size (e.g. 16MiB)")
	f.StringSliceVar(&o.skipExt, "skip-ext", nil, "store files with these extensions uncompressed")
	f.BoolVar(&o.protect, "protect", false, "mark every entry as protected")
	f.BoolVar(&o.strict, "strict", false, "fail if a file changes while it is being packed")
	f.IntVar(&o.maxFiles, "max-files", xp3.DefaultMaxFiles, "maximum number of files to pack")
	return cmd
}

func (o *packOptions) createOptions(g *globalOptions) ([]xp3.CreateOption, error) {
	hdr := xp3.Header{Version: xp3.HeaderVersioned, MinorVersion: o.minor}
	if o.legacy {
		hdr = xp3.Header{Version: xp3.HeaderLegacy}
	}
	ic := xp3.IndexUncompressed
	if o.compressIndex {
		ic = xp3.IndexCompressed
	}
	flag := xp3.SegmentCompressed
	if o.noCompress {
		flag = xp3.SegmentUncompressed
	}

	opts := []xp3.CreateOption{
		xp3.CreateWithHeader(hdr),
		xp3.CreateWithIndexCompression(ic),
		xp3.CreateWithCompression(flag),
		xp3.CreateWithCompressionLevel(o.level),
		xp3.CreateWithMaxFiles(o.maxFiles),
		xp3.CreateWithLogger(g.logger),
	}
	if o.segmentSize != "" {
		n, err := humanize.ParseBytes(o.segmentSize)
		if err != nil {
			return nil, fmt.Errorf("invalid --segment-size: %w", err)
		}
		opts = append(opts, xp3.CreateWithSegmentSize(n))
	}
	if len(o.skipExt) > 0 {
		opts = append(opts, xp3.CreateWithSkipCompression(xp3.SkipExtensions(o.skipExt...)))
	}
	if o.protect {
		opts = append(opts, xp3.CreateWithProtection(xp3.Protected))
	}
	if o.strict {
		opts = append(opts, xp3.CreateWithChangeDetection(xp3.ChangeDetectionStrict))
	}
	return opts, nil
}

// pack writes to a temporary file next to dest and renames it into place
// once the index has been written.
func pack(cmd *cobra.Command, dir, dest string, opts []xp3.CreateOption) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(dest), ".xp3-pack-*")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	c, err := xp3.CreateFromDir(cmd.Context(), dir, tmp, opts...)
	if err != nil {
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	if err = os.Chmod(tmp.Name(), 0o644); err != nil {
		return err
	}
	if err = os.Rename(tmp.Name(), dest); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "packed %s files into %s (%s)\n",
		humanize.Comma(int64(len(c.IndexSet.Files))),
		dest,
		humanize.IBytes(c.Size))
	return nil
}
