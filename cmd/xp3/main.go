// Command xp3 lists, extracts and creates XP3 archives.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "xp3:", err)
		stop()
		os.Exit(1) //nolint:gocritic // stop called above
	}
}
