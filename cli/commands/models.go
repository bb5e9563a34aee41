package commands

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/petal-labs/aide/core"
	"github.com/petal-labs/aide/providers/anthropic"
)

func (a *App) newModelsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List supported models",
		RunE: func(cmd *cobra.Command, args []string) error {
			models := anthropic.Models()
			if a.jsonOutput {
				return a.outputJSON(models)
			}

			tw := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tMAX INPUT\tMAX OUTPUT\tCAPABILITIES")
			for _, m := range models {
				id := string(m.ID)
				if m.IsDefault {
					id += " (default)"
				}
				fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%s\n", id, m.DisplayName, m.MaxInputTokens, m.MaxOutputTokens, capabilityList(m.Capabilities))
			}
			return tw.Flush()
		},
	}
}

func capabilityList(features []core.Feature) string {
	names := make([]string, len(features))
	for i, f := range features {
		names[i] = string(f)
	}
	return strings.Join(names, ",")
}
