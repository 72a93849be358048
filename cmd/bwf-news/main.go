package main

import (
	"context"
	"errors"
	"flag"
	"io/fs"
	"log"
	"os"

	"github.com/joho/godotenv"

	"bwf-news-parser/internal/app"
	"bwf-news-parser/internal/config"
	"bwf-news-parser/internal/discovery"
	"bwf-news-parser/internal/fetcher"
	"bwf-news-parser/internal/observability"
	"bwf-news-parser/internal/override"
	"bwf-news-parser/internal/scraper"
	"bwf-news-parser/internal/storage/jsonfile"
	"bwf-news-parser/internal/storage/mssql"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "configs/config.yaml", "path to config file")
	once := flag.Bool("once", false, "run once regardless of scheduler.mode")
	flag.Parse()

	// .env с ключами прокси не обязателен
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("Failed to load .env: %v", err)
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Printf("Failed to load config: %v", err)
		return 2
	}
	if *once {
		cfg.Scheduler.Mode = "oneshot"
	}

	logger := observability.NewLogger(cfg.Observability.LogPath, cfg.Observability.LogLevel)

	ctx, cancel := app.GracefulShutdown(context.Background(), logger)
	defer cancel()

	selectors, err := cfg.Selectors()
	if err != nil {
		logger.Error("Failed to load selectors", "path", cfg.SelectorsFile, "error", err.Error())
		return 2
	}

	f := fetcher.NewFetcher(cfg, logger)
	defer func() {
		if err := f.Close(); err != nil {
			logger.Warn("Failed to close fetcher", "error", err.Error())
		}
	}()

	overrides, err := override.Load(cfg.Storage.OverridesPath)
	if err != nil {
		logger.Warn("Overrides not loaded, continuing without them", "path", cfg.Storage.OverridesPath, "error", err.Error())
	}

	opts := []app.Option{
		app.WithOverrides(overrides),
		app.WithMetrics(observability.NewMetrics()),
	}
	if cfg.Discovery.Enabled {
		opts = append(opts, app.WithDiscoverer(discovery.NewDiscoverer(f, cfg.Discovery, cfg.Site.Domain, logger)))
	}
	if cfg.Storage.Archive.Enabled {
		repo, err := mssql.NewRepository(cfg.Storage.Archive.DSN, cfg.GetCommandTimeout(), logger)
		if err != nil {
			logger.Error("Archive unavailable, continuing without it", "error", err.Error())
		} else {
			defer func() { _ = repo.Close() }()
			opts = append(opts, app.WithArchive(repo))
		}
	}

	orchestrator := app.NewOrchestrator(
		cfg,
		logger,
		f,
		scraper.NewExtractor(cfg.Site.Domain, selectors),
		jsonfile.NewStore(cfg.Storage.OutputPath),
		opts...,
	)

	logger.Info("BWF news parser started",
		"mode", cfg.Scheduler.Mode,
		"output", cfg.Storage.OutputPath,
		"pages", len(cfg.Listing.Pages),
		"proxy", cfg.Proxy.HasKey(),
		"overrides", overrides.Len(),
	)

	err = app.RunScheduled(ctx, cfg, logger, func(ctx context.Context) error {
		_, err := orchestrator.Run(ctx)
		return err
	})
	if err != nil {
		logger.Error("Run failed", "error", err.Error())
		return 1
	}
	return 0
}
