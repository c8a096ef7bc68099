package main

import (
	"github.com/spf13/cobra"

	"github.com/meigma/xp3"
)

func newCatCmd(g *globalOptions) *cobra.Command {
	var verify bool
	cmd := &cobra.Command{
		Use:   "cat ARCHIVE NAME",
		Short: "Write one entry to standard output",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := xp3.OpenFile(args[0], xp3.WithLogger(g.logger), xp3.WithVerifyChecksum(verify))
			if err != nil {
				return err
			}
			defer a.Close()
			return a.Unpack(cmd.Context(), args[1], cmd.OutOrStdout())
		},
	}
	cmd.Flags().BoolVar(&verify, "verify", false, "fail if the entry does not match its stored Adler-32")
	return cmd
}
