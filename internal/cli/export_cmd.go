package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/alexanderramin/dftlog/internal/cli/formatter"
	"github.com/alexanderramin/dftlog/internal/export"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// formatValue is a --format flag checked against export.Formats while
// the command line is parsed.
type formatValue export.Format

var _ pflag.Value = (*formatValue)(nil)

func (v *formatValue) String() string { return string(*v) }
func (v *formatValue) Type() string   { return "format" }

func (v *formatValue) Set(s string) error {
	f, err := export.ParseFormat(s)
	if err != nil {
		return err
	}
	*v = formatValue(f)
	return nil
}

func newExportCmd(app *App) *cobra.Command {
	format := formatValue(export.FormatCSV)
	var out string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export records as JSON, CSV, XLSX or PDF",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := export.Format(format)
			if out == "-" {
				_, err := app.Field.Export(context.Background(), cmd.OutOrStdout(), f)
				return err
			}
			if out == "" {
				out = export.FileName(f, app.now())
			}
			n, err := exportToFile(app, out, f)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatter.OKLine(fmt.Sprintf("Exported %s to %s", formatter.Plural(n, "record"), out)))
			return nil
		},
	}

	cmd.Flags().Var(&format, "format", "json, csv, xlsx or pdf")
	cmd.Flags().StringVar(&out, "out", "", "Output file; '-' writes to stdout (default measurements_DATE.FORMAT)")

	return cmd
}

// exportToFile writes the export to path, removing a partial file on failure.
func exportToFile(app *App, path string, f export.Format) (int, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return 0, fmt.Errorf("creating export directory: %w", err)
		}
	}
	file, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("creating export file: %w", err)
	}
	n, err := app.Field.Export(context.Background(), file, f)
	if cerr := file.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(path)
		return 0, err
	}
	return n, nil
}
