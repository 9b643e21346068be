package cli

import (
	"fmt"

	"github.com/alexanderramin/dftlog/internal/cli/formatter"
	"github.com/spf13/cobra"
)

func newSitesCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "sites",
		Short: "List the sites in the registry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatSites(app.Field.Sites()))
			return nil
		},
	}
}
