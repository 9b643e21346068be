package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/alexanderramin/dftlog/internal/cli/formatter"
	"github.com/spf13/cobra"
)

var errResetNotConfirmed = errors.New("reset deletes every local record, synced or not; pass --yes to confirm")

func newResetCmd(app *App) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete all local measurement records",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return errResetNotConfirmed
			}
			n := len(app.Field.Records())
			if err := app.Field.ResetRecords(context.Background()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatter.OKLine(fmt.Sprintf("Removed %s", formatter.Plural(n, "record"))))
			return nil
		},
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "Confirm the reset")

	return cmd
}
