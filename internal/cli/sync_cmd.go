package cli

import (
	"context"
	"fmt"

	"github.com/alexanderramin/dftlog/internal/cli/formatter"
	"github.com/spf13/cobra"
)

func newSyncCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Upload unsynced records to the configured endpoint",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			stop := func() {}
			if app.IsInteractive {
				stop = formatter.StartSpinner(cmd.ErrOrStderr(), "Uploading…")
			}
			res, err := app.Field.Sync(context.Background())
			stop()
			if err != nil {
				return fmt.Errorf("sync failed: %w", err)
			}
			if res.Count == 0 && len(res.SubmittedIDs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), formatter.Dim("Nothing to sync."))
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatter.OKLine(fmt.Sprintf("Synced %s", formatter.Plural(res.Count, "record"))))
			return nil
		},
	}
}
