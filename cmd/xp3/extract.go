package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/meigma/xp3"
)

func newExtractCmd(g *globalOptions) *cobra.Command {
	var (
		overwrite     bool
		verify        bool
		preserveTimes bool
		skipProtected bool
		prefix        string
	)
	cmd := &cobra.Command{
		Use:   "extract ARCHIVE DIR",
		Short: "Extract the entries of an archive into a directory",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := xp3.OpenFile(args[0], xp3.WithLogger(g.logger))
			if err != nil {
				return err
			}
			defer a.Close()

			opts := []xp3.ExtractOption{
				xp3.ExtractWithOverwrite(overwrite),
				xp3.ExtractWithVerify(verify),
				xp3.ExtractWithPreserveTimes(preserveTimes),
				xp3.ExtractWithSkipProtected(skipProtected),
			}
			if prefix != "" {
				opts = append(opts, xp3.ExtractWithPrefix(prefix))
			}

			stats, err := xp3.Extract(cmd.Context(), a, args[1], opts...)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "extracted %s files (%s), skipped %s\n",
				humanize.Comma(int64(stats.Files)),
				humanize.IBytes(stats.Bytes),
				humanize.Comma(int64(stats.Skipped)))
			return nil
		},
	}
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "replace existing files")
	cmd.Flags().BoolVar(&verify, "verify", false, "check every entry against its stored Adler-32")
	cmd.Flags().BoolVar(&preserveTimes, "preserve-times", false, "apply entry timestamps to extracted files")
	cmd.Flags().BoolVar(&skipProtected, "skip-protected", false, "skip entries marked as protected")
	cmd.Flags().StringVar(&prefix, "prefix", "", "only extract entries below this directory")
	return cmd
}
