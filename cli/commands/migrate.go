package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/petal-labs/aide/migrate"
)

func (a *App) newMigrateCommand() *cobra.Command {
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Copy settings between editor installations",
	}

	migrateCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List detected editor installations",
		RunE: func(cmd *cobra.Command, args []string) error {
			found := migrate.Detect(a.migrateEnv())
			if a.jsonOutput {
				return a.outputJSON(found)
			}
			if len(found) == 0 {
				fmt.Fprintln(a.stdout, "No editor installations found.")
				return nil
			}
			for _, inst := range found {
				fmt.Fprintf(a.stdout, "%s (%s)\n  user data:  %s\n  extensions: %s\n", inst.Name, inst.ID, inst.UserData, inst.Extensions)
			}
			return nil
		},
	})

	migrateCmd.AddCommand(&cobra.Command{
		Use:   "copy <from> <to>",
		Short: "Copy settings, keybindings, snippets and extensions",
		Long: `Copy settings from an installed editor into another known editor, for
example: aide migrate copy vscode cursor. Editors are named by id or name.
Copying is best-effort and every item that fails is reported.`,
		Args: cobra.ExactArgs(2),
		RunE: a.runMigrateCopy,
	})
	return migrateCmd
}

func findInstallation(list []migrate.Installation, name string) (migrate.Installation, bool) {
	for _, inst := range list {
		if inst.ID == name || strings.EqualFold(inst.Name, name) {
			return inst, true
		}
	}
	return migrate.Installation{}, false
}

func (a *App) runMigrateCopy(cmd *cobra.Command, args []string) error {
	env := a.migrateEnv()

	src, ok := findInstallation(migrate.Detect(env), args[0])
	if !ok {
		return exitWithCode(ExitValidation, fmt.Errorf("%q is not installed: run 'aide migrate list'", args[0]))
	}
	dst, ok := findInstallation(migrate.Known(env), args[1])
	if !ok {
		return exitWithCode(ExitValidation, fmt.Errorf("unknown editor %q", args[1]))
	}
	if src.UserData == dst.UserData {
		return exitWithCode(ExitValidation, fmt.Errorf("source and destination are the same"))
	}

	report := migrate.Copy(src, dst.UserData, dst.Extensions)
	if a.jsonOutput {
		if err := a.outputJSON(copyReportJSON(report)); err != nil {
			return err
		}
	} else {
		for _, item := range report.Copied {
			fmt.Fprintf(a.stdout, "copied   %s\n", item)
		}
		for _, item := range report.Skipped {
			fmt.Fprintf(a.stdout, "skipped  %s (not present)\n", item)
		}
		for _, f := range report.Failed {
			fmt.Fprintf(a.stdout, "failed   %s: %v\n", f.Item, f.Err)
		}
	}

	if !report.OK() {
		return fmt.Errorf("%d item(s) could not be copied", len(report.Failed))
	}
	return nil
}

func copyReportJSON(r migrate.Report) map[string]any {
	failed := make(map[string]string, len(r.Failed))
	for _, f := range r.Failed {
		failed[f.Item] = f.Err.Error()
	}
	return map[string]any{"copied": r.Copied, "skipped": r.Skipped, "failed": failed}
}
