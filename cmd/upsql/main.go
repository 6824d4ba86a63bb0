// Command upsql compiles command files into dialect-specific SQL and runs
// them against a database.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/roach88/upsql/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := cli.NewRootCommand().ExecuteContext(ctx)
	stop()
	os.Exit(cli.GetExitCode(err))
}
