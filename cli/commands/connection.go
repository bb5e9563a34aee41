package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/petal-labs/aide/core"
)

// errConnectionFailed is reported when the connectivity test fails.
var errConnectionFailed = errors.New("connection test failed")

func (a *App) newTestCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "test",
		Short: "Check that the API key and endpoint work",
		Long: `Send a minimal request to a low-cost model and report whether it
succeeded. Failures are logged; run with --verbose for details.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			exec, release, err := a.newExecutor(ctx)
			if err != nil {
				return err
			}
			defer release()

			if !exec.Holder().IsConfigured() {
				return exitWithCode(ExitValidation, core.ErrNotConfigured)
			}

			ok := exec.TestConnection(ctx)
			if a.jsonOutput {
				if err := a.outputJSON(map[string]bool{"ok": ok}); err != nil {
					return err
				}
			} else if ok {
				fmt.Fprintln(a.stdout, "Connection OK")
			}
			if !ok {
				return exitWithCode(ExitProvider, errConnectionFailed)
			}
			return nil
		},
	}
}
