package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/meigma/xp3"
	"github.com/meigma/xp3/internal/pathutil"
)

func newListCmd(g *globalOptions) *cobra.Command {
	var (
		withDigest bool
		prefix     string
	)
	cmd := &cobra.Command{
		Use:   "list ARCHIVE",
		Short: "List the entries of an archive",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := xp3.OpenFile(args[0], xp3.WithLogger(g.logger))
			if err != nil {
				return err
			}
			defer a.Close()

			out := cmd.OutOrStdout()
			hdr := a.Header()
			fmt.Fprintf(out, "header: %s", hdr.Version)
			if hdr.Version == xp3.HeaderVersioned {
				fmt.Fprintf(out, " (minor %d)", hdr.MinorVersion)
			}
			fmt.Fprintf(out, ", index: %s, entries: %s\n\n", a.IndexSet().Compression, humanize.Comma(int64(a.Len())))

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprint(tw, "NAME\tSIZE\tSTORED\tSEGMENTS\tFLAGS\tMODIFIED")
			if withDigest {
				fmt.Fprint(tw, "\tDIGEST")
			}
			fmt.Fprintln(tw)

			dir := pathutil.DirPrefix(prefix)
			for name, e := range a.Entries() {
				if !pathutil.InDir(name, dir) {
					continue
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%s",
					name,
					humanize.IBytes(e.OriginalSize),
					humanize.IBytes(e.StoredSize),
					e.Segments,
					entryFlags(e),
					modified(e))
				if withDigest {
					d, err := a.Digest(cmd.Context(), name)
					if err != nil {
						return err
					}
					fmt.Fprintf(tw, "\t%s", d)
				}
				fmt.Fprintln(tw)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVar(&withDigest, "digest", false, "print the sha256 digest of each entry")
	cmd.Flags().StringVar(&prefix, "prefix", "", "only list entries below this directory")
	return cmd
}

func entryFlags(e xp3.Entry) string {
	flags := []byte("--")
	if e.Compressed {
		flags[0] = 'z'
	}
	if e.Protected {
		flags[1] = 'p'
	}
	return string(flags)
}

func modified(e xp3.Entry) string {
	if e.Timestamp == nil {
		return "-"
	}
	return e.ModTime().Format("2006-01-02 15:04:05")
}
