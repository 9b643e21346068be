package cli

import (
	"context"
	"fmt"

	"github.com/alexanderramin/dftlog/internal/cli/formatter"
	"github.com/alexanderramin/dftlog/internal/completion"
	"github.com/alexanderramin/dftlog/internal/domain"
	"github.com/alexanderramin/dftlog/internal/navigation"
	"github.com/spf13/cobra"
)

func newPointsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "points",
		Short: "Inspect or replace the point catalog",
	}

	cmd.AddCommand(
		newPointsListCmd(app),
		newPointsLoadCmd(app),
	)

	return cmd
}

func newPointsListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List catalog points with completion for the session operator",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var points []domain.PointDefinition
			var ev *completion.Evaluator
			app.Field.View(func(m *navigation.Machine) {
				points = m.Points()
				ev = m.Evaluator()
			})
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatPoints(points, ev))
			return nil
		},
	}
}

func newPointsLoadCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "load FILE",
		Short: "Replace the catalog with a route CSV (id,name,category,routeOrder)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := app.Field.LoadPoints(context.Background(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatter.OKLine(fmt.Sprintf("Loaded %s from %s", formatter.Plural(n, "point"), args[0])))
			return nil
		},
	}
}
