package main

import (
	"context"
	"fmt"
	"os"

	"github.com/alexanderramin/dftlog/internal/catalog"
	"github.com/alexanderramin/dftlog/internal/cli"
	"github.com/alexanderramin/dftlog/internal/config"
	"github.com/alexanderramin/dftlog/internal/db"
	"github.com/alexanderramin/dftlog/internal/repository"
	"github.com/alexanderramin/dftlog/internal/service"
	"github.com/alexanderramin/dftlog/internal/upload"
	"github.com/mattn/go-isatty"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.Load()

	// Open database
	database, err := db.OpenDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer database.Close()

	// Site registry: YAML file when present, else the demo route only
	registry := catalog.DemoRegistry()
	if cfg.SitesPath != "" {
		registry, err = catalog.LoadRegistry(cfg.SitesPath)
		if err != nil {
			return err
		}
	}

	// Wire repositories
	kv := repository.NewSQLiteKVStore(database)
	uow := db.NewSQLiteUnitOfWork(database)

	var uploadObserver upload.Observer = upload.NoopObserver{}
	var observers []service.UseCaseObserver
	if cfg.LogCalls {
		uploadObserver = upload.NewLogObserver(os.Stderr)
		observers = append(observers, service.NewLogUseCaseObserver(os.Stderr))
	}
	uploader := upload.NewHTTPUploader(cfg.UploadURL, cfg.UploadTimeout(), uploadObserver)

	field := service.NewFieldService(
		repository.NewKVRecordRepo(kv),
		repository.NewKVCatalogRepo(kv),
		repository.NewKVSessionRepo(kv),
		uow,
		registry,
		uploader,
		observers...,
	)
	if err := field.Load(context.Background()); err != nil {
		return fmt.Errorf("loading workspace: %w", err)
	}

	app := &cli.App{
		Field:  field,
		Config: cfg,
		// Detect interactive terminal for the TUI entrypoint.
		IsInteractive: isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd()),
	}

	return cli.NewRootCmd(app).Execute()
}
