package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/alexanderramin/dftlog/internal/catalog"
	"github.com/alexanderramin/dftlog/internal/cli/formatter"
	"github.com/alexanderramin/dftlog/internal/domain"
	"github.com/alexanderramin/dftlog/internal/navigation"
	"github.com/spf13/cobra"
)

func newSessionCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Configure the measurement session",
	}

	cmd.AddCommand(
		newSessionStartCmd(app),
		newSessionShowCmd(app),
	)

	return cmd
}

func newSessionStartCmd(app *App) *cobra.Command {
	var site, operator, label string
	var instruments []string

	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start a session on a site (loads the site's route)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := domain.SessionConfig{
				SiteID:              site,
				Operator:            operator,
				PrimaryInstrument:   label,
				SelectedInstruments: splitList(instruments),
			}
			if cfg.PrimaryInstrument == "" && len(cfg.SelectedInstruments) > 0 {
				cfg.PrimaryInstrument = cfg.SelectedInstruments[0]
			}
			if err := app.Field.StartSession(context.Background(), cfg); err != nil {
				return err
			}

			var session domain.SessionConfig
			var points int
			app.Field.View(func(m *navigation.Machine) {
				session = m.Session()
				points = len(m.Points())
			})
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, formatter.OKLine(fmt.Sprintf("Session started on %s (%s)", session.SiteName, formatter.Plural(points, "point"))))
			fmt.Fprintln(out, formatter.RenderBox("Session", strings.TrimRight(formatter.FormatSession(session), "\n")))
			return nil
		},
	}

	cmd.Flags().StringVar(&site, "site", catalog.DemoSiteID, "Site ID from the registry")
	cmd.Flags().StringVar(&operator, "operator", "", "Operator name")
	cmd.Flags().StringVar(&label, "label", "", "Instrument label (defaults to the first instrument)")
	cmd.Flags().StringSliceVar(&instruments, "instruments", nil, "Instruments in use: "+strings.Join(domain.Instruments, ", "))
	_ = cmd.MarkFlagRequired("operator")
	_ = cmd.MarkFlagRequired("instruments")

	return cmd
}

func newSessionShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the persisted session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var session domain.SessionConfig
			app.Field.View(func(m *navigation.Machine) { session = m.Session() })
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatSession(session))
			return nil
		},
	}
}

// splitList flattens repeated and comma-separated flag values.
func splitList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
