package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/petal-labs/aide/cli/config"
)

func (a *App) newInitCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default config file",
		Long: `Write a config file with default values to the --config path
(default ~/.aide/config.yaml). An existing file is kept unless --force is set.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := a.configPath()
			if _, err := os.Stat(path); err == nil && !force {
				return exitWithCode(ExitValidation, fmt.Errorf("%s already exists (use --force to overwrite)", path))
			}

			if err := config.Default().Save(path); err != nil {
				return fmt.Errorf("write config: %w", err)
			}
			fmt.Fprintf(a.stdout, "Wrote %s\n", path)
			fmt.Fprintln(a.stdout, "Next: run 'aide keys set' to store your API key.")
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing config file")
	return cmd
}
