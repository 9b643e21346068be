package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alexanderramin/dftlog/internal/ingest"
	"github.com/spf13/cobra"
)

func newIngestCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Run the upload receiver",
	}

	cmd.AddCommand(newIngestServeCmd(app))

	return cmd
}

func newIngestServeCmd(app *App) *cobra.Command {
	var addr, dsn string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Accept record batches over HTTP (SQLite file or postgres:// DSN)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: slog.LevelInfo}))

			store, err := ingest.OpenStore(ctx, dsn)
			if err != nil {
				return fmt.Errorf("opening ingest store: %w", err)
			}
			defer store.Close()
			logger.Info("ingest store ready", "dialect", store.Dialect())

			return ingest.NewServer(store, logger).ListenAndServe(ctx, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", app.Config.IngestAddr, "Listen address")
	cmd.Flags().StringVar(&dsn, "dsn", app.Config.IngestDSN, "SQLite path or postgres:// DSN")

	return cmd
}
