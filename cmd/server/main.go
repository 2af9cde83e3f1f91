// Callscope - Conversational AI Call Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/callscope

// Package main is the Callscope server entrypoint.
//
// Startup order:
//  1. Load configuration (koanf: defaults, YAML file, environment).
//  2. Initialize structured logging (zerolog).
//  3. Open DuckDB and run schema migrations.
//  4. Construct the sync engine and CSV archiver.
//  5. Build the chi router over the HTTP API.
//  6. Assemble the supervisor tree (suture) with the sync scheduler,
//     the archive scheduler and the HTTP server as supervised services.
//  7. Serve until SIGINT/SIGTERM, then shut down gracefully.
//
// All long-running components run under the supervisor tree so a
// panicking or failing service is restarted with backoff instead of
// taking the process down.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tomtom215/callscope/internal/api"
	"github.com/tomtom215/callscope/internal/config"
	"github.com/tomtom215/callscope/internal/database"
	"github.com/tomtom215/callscope/internal/export"
	"github.com/tomtom215/callscope/internal/logging"
	"github.com/tomtom215/callscope/internal/scheduler"
	"github.com/tomtom215/callscope/internal/supervisor"
	"github.com/tomtom215/callscope/internal/supervisor/services"
	syncengine "github.com/tomtom215/callscope/internal/sync"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.LoadWithKoanf()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("environment", cfg.Server.Environment).
		Int("agents", len(cfg.ElevenLabs.Agents)).
		Bool("archive_enabled", cfg.Archive.Enabled).
		Msg("Starting Callscope")

	db, err := database.New(&cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to open database")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}()
	logging.Info().Str("path", cfg.Database.Path).Msg("Database ready")

	engine := syncengine.NewEngine(db, cfg)
	archiver := export.NewArchiver(db, &cfg.Archive)

	router := api.NewRouter(db, engine, archiver, cfg)
	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.Setup(),
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
		IdleTimeout:  60 * time.Second,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to build supervisor tree")
	}

	// Sync layer: scheduled provider syncs and month-boundary archival.
	tree.AddSyncService(scheduler.NewSyncScheduler(engine, cfg))
	if cfg.Archive.Enabled {
		tree.AddSyncService(scheduler.NewArchiveScheduler(archiver, &cfg.Archive))
		logging.Info().Str("dir", cfg.Archive.Dir).Msg("Archive scheduler enabled")
	}

	// API layer.
	tree.AddAPIService(services.NewHTTPServerService(server, shutdownTimeout))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("Starting supervisor tree")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	// Drain the error channel until the supervisor has fully stopped.
	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}

	logging.Info().Msg("Callscope stopped gracefully")
}
