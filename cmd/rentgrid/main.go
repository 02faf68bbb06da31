// RentGrid Core - vehicle rental platform backend
//
// This is the main entry point for the RentGrid Core server. It wires
// together configuration, logging, the SQLite account store, the
// authorisation gate, and the HTTP API, then waits for a shutdown
// signal.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/rentgrid/rentgrid-core/migrations"

	"github.com/rentgrid/rentgrid-core/internal/api"
	"github.com/rentgrid/rentgrid-core/internal/audit"
	"github.com/rentgrid/rentgrid-core/internal/auth"
	"github.com/rentgrid/rentgrid-core/internal/infrastructure/config"
	"github.com/rentgrid/rentgrid-core/internal/infrastructure/database"
	"github.com/rentgrid/rentgrid-core/internal/infrastructure/logging"
	"github.com/rentgrid/rentgrid-core/internal/infrastructure/metrics"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	// Create a context that cancels on interrupt signals (Ctrl+C, SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting RentGrid Core",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Open database
	db, err := database.Open(database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()
	log.Info("database connected", "path", cfg.Database.Path)

	// Run migrations
	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database migrations complete")

	// Account store and principal resolver
	accounts := auth.NewAccountRepository(db.DB)
	resolver := auth.NewResolver(accounts)

	// First-run bootstrap: an empty platform gets one admin account so
	// someone can sign in and create the rest.
	if _, seedErr := auth.SeedAdmin(ctx, accounts, log.Logger); seedErr != nil {
		return fmt.Errorf("seeding admin account: %w", seedErr)
	}

	// Decision metrics (optional)
	var recorder *metrics.Recorder
	if cfg.Metrics.Enabled {
		recorder, err = metrics.Connect(cfg.Metrics)
		if err != nil && !errors.Is(err, metrics.ErrDisabled) {
			return fmt.Errorf("connecting to metrics: %w", err)
		}
		if recorder != nil {
			defer func() {
				log.Info("closing metrics connection")
				recorder.Close()
			}()
			recorder.OnError(func(err error) {
				log.Error("metrics write error", "error", err)
			})
			log.Info("metrics connected",
				"url", cfg.Metrics.URL,
				"bucket", cfg.Metrics.Bucket,
			)
		}
	} else {
		log.Info("metrics disabled")
	}

	// HTTP API server
	server, err := api.New(api.Deps{
		Config:   cfg.API,
		Security: cfg.Security,
		Logger:   log,
		Accounts: accounts,
		Resolver: resolver,
		Audit:    audit.NewSQLiteRepository(db.DB),
		Metrics:  recorder,
		Version:  version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}

	if startErr := server.Start(ctx); startErr != nil {
		return fmt.Errorf("starting API server: %w", startErr)
	}
	defer func() {
		if closeErr := server.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()

	if err := healthCheck(ctx, db, server); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	log.Info("initialisation complete, waiting for shutdown signal")

	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")
	log.Info("RentGrid Core stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses RENTGRID_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("RENTGRID_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// healthCheck verifies infrastructure connections are healthy.
func healthCheck(ctx context.Context, db *database.DB, server *api.Server) error {
	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if err := server.HealthCheck(ctx); err != nil {
		return fmt.Errorf("api: %w", err)
	}
	return nil
}
