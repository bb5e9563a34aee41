// aide - command-line client for the Anthropic Messages API.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/petal-labs/aide/cli/commands"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := commands.NewApp().ExecuteContext(ctx)
	stop()
	os.Exit(commands.ExitCode(err))
}
