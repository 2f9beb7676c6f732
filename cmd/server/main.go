// Soundalike - Content-Based Music Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/soundalike

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tomtom215/soundalike/internal/api"
	"github.com/tomtom215/soundalike/internal/config"
	"github.com/tomtom215/soundalike/internal/database"
	"github.com/tomtom215/soundalike/internal/logging"
	"github.com/tomtom215/soundalike/internal/supervisor"
	"github.com/tomtom215/soundalike/internal/supervisor/services"
)

//nolint:gocyclo // Main initialization function with sequential setup steps
func main() {
	// Load configuration first to get logging settings
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logCfg := logging.DefaultConfig()
	logCfg.Level = cfg.Logging.Level
	logCfg.Format = cfg.Logging.Format
	logCfg.Caller = cfg.Logging.Caller
	logging.Init(logCfg)

	logging.Info().Msg("Starting Soundalike with supervisor tree")
	logging.Info().
		Str("db_path", cfg.Database.Path).
		Str("embedding_provider", cfg.Embeddings.Provider).
		Str("embedding_model", cfg.Embeddings.Model).
		Bool("nats_enabled", cfg.NATS.Enabled).
		Msg("Configuration loaded")

	db, err := database.New(&cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}()
	logging.Info().Msg("Database initialized successfully")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Catalog.SeedFile != "" {
		result, err := importSeedFile(ctx, db, cfg.Catalog.SeedFile)
		if err != nil {
			logging.Fatal().Err(err).Str("file", cfg.Catalog.SeedFile).Msg("Failed to import catalog seed file")
		}
		logging.Info().
			Int("artists", result.Artists).
			Int("tracks", result.Tracks).
			Int("links", result.Links).
			Msg("Catalog seed file imported")
	}

	reco, err := initRecommend(cfg, db, logging.WithComponent("recommend"))
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize recommendation engine")
	}
	defer reco.Close()

	// Bridge zerolog to slog for sutureslog
	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		FailureThreshold: 5,
		FailureBackoff:   15 * time.Second,
		ShutdownTimeout:  10 * time.Second,
	})
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}

	// === CATALOG LAYER ===

	tree.AddCatalogService(services.NewCatalogMaintenanceService(reco.Engine, services.CatalogMaintenanceConfig{
		SyncOnStartup:   cfg.Catalog.SyncOnStartup,
		WarmOnStartup:   cfg.Catalog.WarmOnStartup,
		RefreshInterval: cfg.Catalog.RefreshInterval,
	}, logging.WithComponent("catalog")))
	logging.Info().Dur("refresh_interval", cfg.Catalog.RefreshInterval).Msg("Catalog maintenance added to supervisor tree")

	if err := initCatalogEvents(cfg, reco.Engine, tree); err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize catalog events")
	}

	// === API LAYER ===

	if cfg.Security.RateLimitDisabled {
		logging.Warn().Msg("Rate limiting is DISABLED (DISABLE_RATE_LIMIT=true)")
	}

	handler := api.NewHandler(reco.Engine, db, cfg)
	router := api.NewRouter(handler, api.NewChiMiddlewareFromConfig(&cfg.Security))

	server := &http.Server{
		Handler:      router.SetupChi(),
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
		IdleTimeout:  60 * time.Second,
	}
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.Addr(), 10*time.Second))
	logging.Info().Str("addr", cfg.Server.Addr()).Msg("HTTP server service added")

	// === START SUPERVISOR TREE ===

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("Starting supervisor tree...")
	errCh := tree.ServeBackground(ctx)

	// The tree stops when ctx is canceled or the root supervisor gives up.
	if err := <-errCh; err != nil && !errors.Is(err, context.Canceled) {
		logging.Error().Err(err).Msg("Supervisor tree error")
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	if len(unstopped) > 0 {
		logging.Warn().Int("count", len(unstopped)).Msg("Services failed to stop within timeout")
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service failed to stop")
		}
	}

	logging.Info().Msg("Application stopped gracefully")
}
