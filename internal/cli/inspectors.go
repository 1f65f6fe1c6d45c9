package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/koustreak/schemadiff/internal/inspection"
)

func newInspectorsCommand(_ *app) *cobra.Command {
	return &cobra.Command{
		Use:   "inspectors",
		Short: "List the registered inspectors",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			for _, in := range inspection.Default.All() {
				scope := "table"
				if in.DBLevel() {
					scope = "database"
				}
				fmt.Fprintf(out, "%-20s %s\n", in.Key(), scope)
			}
			return nil
		},
	}
}
