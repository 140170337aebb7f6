package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/marquee/marquee/internal/api"
	"github.com/marquee/marquee/internal/auth"
	"github.com/marquee/marquee/internal/config"
	"github.com/marquee/marquee/internal/listings"
	"github.com/marquee/marquee/internal/logger"
	"github.com/marquee/marquee/internal/metadata"
	"github.com/marquee/marquee/internal/metadata/tmdb"
	"github.com/marquee/marquee/internal/refresh"
	"github.com/marquee/marquee/internal/scheduler"
	"github.com/marquee/marquee/internal/store"
)

func main() {
	// Optional .env for local development; real deployments use the config
	// file or MARQUEE_* environment variables.
	_ = godotenv.Load()

	configPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Config{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		Path:       cfg.Logging.Path,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
		Compress:   cfg.Logging.Compress,
	})
	defer log.Close()

	log.Info().
		Str("cinema", cfg.Cinema.Name).
		Str("addr", cfg.Server.Address()).
		Msg("Starting marquee")

	if err := run(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("marquee failed")
	}
}

func run(cfg *config.Config, log *logger.Logger) error {
	db, err := store.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	scraper, err := listings.NewScraper(cfg.Cinema, log.Logger)
	if err != nil {
		return fmt.Errorf("failed to create scraper: %w", err)
	}

	tmdbClient := tmdb.NewClient(cfg.TMDB, log.Logger)
	if !tmdbClient.IsConfigured() {
		log.Warn().Msg("TMDB API key not configured, serving listing-only schedule data")
	}

	cache := metadata.NewCache(metadata.CacheConfig{
		TTL: time.Duration(cfg.Refresh.CacheTTLMins) * time.Minute,
	})
	enricher := metadata.NewService(tmdbClient, cache, log.Logger)

	refresher := refresh.NewService(scraper, enricher, db, log.Logger)

	sched, err := scheduler.New(log.Logger)
	if err != nil {
		return fmt.Errorf("failed to create scheduler: %w", err)
	}

	err = sched.RegisterTask(scheduler.TaskConfig{
		ID:          "refresh",
		Name:        "Schedule refresh",
		Description: "Scrapes the cinema schedule and refreshes movie metadata",
		Cron:        cfg.Refresh.Cron,
		RunOnStart:  cfg.Refresh.RunOnStart,
		Func: func(ctx context.Context) error {
			_, err := refresher.Run(ctx)
			return err
		},
	})
	if err != nil {
		return fmt.Errorf("failed to register refresh task: %w", err)
	}

	authSvc, err := auth.NewService(cfg.Auth)
	if err != nil {
		return fmt.Errorf("failed to create auth service: %w", err)
	}
	if !authSvc.Enabled() {
		log.Warn().Msg("API authentication disabled, no auth.api_key configured")
	}

	server := api.NewServer(cfg, db, refresher, sched, enricher, authSvc, log.Logger)

	sched.Start()
	defer func() {
		if err := sched.Stop(); err != nil {
			log.Warn().Err(err).Msg("Failed to stop scheduler")
		}
	}()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		log.Info().Str("signal", sig.String()).Msg("Shutting down")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}

	return nil
}
