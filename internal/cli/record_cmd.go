package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/alexanderramin/dftlog/internal/cli/formatter"
	"github.com/alexanderramin/dftlog/internal/domain"
	"github.com/alexanderramin/dftlog/internal/navigation"
	"github.com/alexanderramin/dftlog/internal/service"
	"github.com/spf13/cobra"
)

var errAmbiguousRecord = errors.New("record id prefix is ambiguous")

func newRecordCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "record",
		Aliases: []string{"records"},
		Short:   "Add, list, delete and retag measurement records",
	}

	cmd.AddCommand(
		newRecordAddCmd(app),
		newRecordListCmd(app),
		newRecordDeleteCmd(app),
		newRecordRetagCmd(app),
	)

	return cmd
}

func newRecordAddCmd(app *App) *cobra.Command {
	var in service.AddRecordInput

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Register readings for a point",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, err := app.Field.AddRecord(context.Background(), in)
			if err != nil {
				return err
			}
			var th domain.ThresholdTable
			app.Field.View(func(m *navigation.Machine) { th = m.Workspace().Thresholds })
			j := th.For(rec.Category).Judge(rec.Average)
			fmt.Fprintln(cmd.OutOrStdout(), formatter.OKLine("Registered "+rec.ID))
			fmt.Fprintln(cmd.OutOrStdout(), "  "+formatter.FormatRecordLine(rec, j)+"  "+formatter.JudgementIndicator(j))
			return nil
		},
	}

	cmd.Flags().StringVar(&in.PointID, "point", "", "Point ID")
	cmd.Flags().IntSliceVar(&in.Values, "values", nil, fmt.Sprintf("Readings in µm (%d to %d, comma separated)", domain.MinValues, domain.MaxValues))
	cmd.Flags().StringVar(&in.Instrument, "instrument", "", "Instrument (defaults to the session's)")
	cmd.Flags().StringVar(&in.Memo, "memo", "", "Free-text note")
	cmd.Flags().BoolVar(&in.Additional, "additional", false, "Record an additional measurement of an already measured point")
	_ = cmd.MarkFlagRequired("point")
	_ = cmd.MarkFlagRequired("values")

	return cmd
}

func newRecordListCmd(app *App) *cobra.Command {
	var unsynced bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded measurements",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var records []domain.MeasurementRecord
			var th domain.ThresholdTable
			app.Field.View(func(m *navigation.Machine) {
				if unsynced {
					records = m.Unsynced()
				} else {
					records = append(records, m.Records()...)
				}
				th = m.Workspace().Thresholds
			})
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatRecords(records, th))
			return nil
		},
	}

	cmd.Flags().BoolVar(&unsynced, "unsynced", false, "Only records not yet uploaded")

	return cmd
}

func newRecordDeleteCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete an unsynced record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := resolveRecordID(app.Field.Records(), args[0])
			if err != nil {
				return err
			}
			if err := app.Field.DeleteRecord(context.Background(), id); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatter.OKLine("Deleted "+id))
			return nil
		},
	}
}

func newRecordRetagCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "retag ID INSTRUMENT",
		Short: "Change the instrument of an unsynced record",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := resolveRecordID(app.Field.Records(), args[0])
			if err != nil {
				return err
			}
			if err := app.Field.RetagRecord(context.Background(), id, args[1]); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatter.OKLine(fmt.Sprintf("Retagged %s as %s", id, args[1])))
			return nil
		},
	}
}

// resolveRecordID accepts a full record ID or a unique prefix of one, such
// as the eight characters shown by 'record list'.
func resolveRecordID(records []domain.MeasurementRecord, arg string) (string, error) {
	arg = strings.TrimSpace(arg)
	var match string
	for _, r := range records {
		if r.ID == arg {
			return r.ID, nil
		}
		if arg != "" && strings.HasPrefix(r.ID, arg) {
			if match != "" {
				return "", fmt.Errorf("%w: %s", errAmbiguousRecord, arg)
			}
			match = r.ID
		}
	}
	if match == "" {
		return "", fmt.Errorf("%w: %s", navigation.ErrUnknownRecord, arg)
	}
	return match, nil
}
