// Package commands implements the aide command tree using Cobra.
package commands

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/petal-labs/aide/core"
	"github.com/petal-labs/aide/providers/anthropic"
)

func (a *App) newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "aide",
		Short: "aide - Anthropic assistant client",
		Long: `aide is a command-line client for the Anthropic Messages API.

Use aide to chat with Claude models, manage API keys, and run the bridge
that relays requests for other processes.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.initConfig()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags available to all commands.
	root.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default is ~/.aide/config.yaml)")
	root.PersistentFlags().StringVar(&a.model, "model", "", "model ID (e.g. claude-sonnet-4-20250514)")
	root.PersistentFlags().StringVar(&a.bridgeURL, "bridge", "", "relay requests through the bridge at this ws:// URL")
	root.PersistentFlags().BoolVar(&a.jsonOutput, "json", false, "emit JSON output")
	root.PersistentFlags().BoolVar(&a.verbose, "verbose", false, "enable debug logging")

	root.AddCommand(a.newChatCommand())
	root.AddCommand(a.newModelsCommand())
	root.AddCommand(a.newTestCommand())
	root.AddCommand(a.newKeysCommand())
	root.AddCommand(a.newBridgeCommand())
	root.AddCommand(a.newMigrateCommand())
	root.AddCommand(a.newInitCommand())
	root.AddCommand(a.newVersionCommand())

	return root
}

// initConfig loads .env and the config file, then applies flag overrides.
func (a *App) initConfig() error {
	if err := a.loadDotenv(); err != nil {
		return exitWithCode(ExitValidation, fmt.Errorf("load .env: %w", err))
	}

	cfg, err := a.loadConfig(a.configPath())
	if err != nil {
		return exitWithCode(ExitValidation, err)
	}
	a.cfg = cfg

	if a.model != "" {
		if anthropic.GetModelInfo(core.ModelID(a.model)) == nil {
			return exitWithCode(ExitValidation, fmt.Errorf("unknown model %q: run 'aide models' for the list", a.model))
		}
		cfg.Anthropic.Model = a.model
	}
	if a.bridgeURL == "" {
		a.bridgeURL = cfg.Bridge.URL
	}

	if a.logger == nil {
		logger, err := newLogger(cfg.Log, a.verbose)
		if err != nil {
			return exitWithCode(ExitValidation, err)
		}
		a.logger = logger
	}
	return nil
}

// loadDotenv reads .env from the working directory when present. Variables
// already set in the environment win.
func loadDotenv() error {
	err := godotenv.Load()
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}
