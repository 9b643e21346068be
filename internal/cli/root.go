package cli

import (
	"time"

	"github.com/alexanderramin/dftlog/internal/config"
	"github.com/alexanderramin/dftlog/internal/service"
	"github.com/spf13/cobra"
)

// App holds what the commands and the TUI need.
type App struct {
	Field  service.FieldService
	Config config.Config

	// IsInteractive is true when stdin is a terminal. The bare command
	// opens the TUI only then.
	IsInteractive bool

	// ExportDir is where the TUI writes export files. Empty means the
	// working directory.
	ExportDir string

	// Now stamps export file names. Nil means time.Now.
	Now func() time.Time
}

func (a *App) now() time.Time {
	if a.Now != nil {
		return a.Now()
	}
	return time.Now()
}

// NewRootCmd creates the top-level "dftlog" command and registers all
// subcommands against the provided App.
func NewRootCmd(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:           "dftlog",
		Short:         "Coating thickness field log",
		Long:          "dftlog records dry film thickness readings along an inspection route,\ntracks per-instrument completion and uploads the results.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.IsInteractive {
				return runTUI(app)
			}
			return cmd.Help()
		},
	}

	root.AddCommand(
		newTUICmd(app),
		newSitesCmd(app),
		newPointsCmd(app),
		newSessionCmd(app),
		newRecordCmd(app),
		newStatusCmd(app),
		newSyncCmd(app),
		newExportCmd(app),
		newResetCmd(app),
		newIngestCmd(app),
	)

	return root
}
