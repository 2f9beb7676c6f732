// Soundalike - Content-Based Music Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/soundalike

// Package services provides suture service wrappers for Soundalike's
// long-running components.
package services

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/soundalike/internal/logging"
	"github.com/tomtom215/soundalike/internal/recommend"
	"github.com/tomtom215/soundalike/internal/recommend/embeddings"
)

// CatalogEngine is the engine surface driven by the maintenance service.
// *recommend.Engine implements it.
type CatalogEngine interface {
	Initialize(ctx context.Context) error
	SyncEmbeddings(ctx context.Context) (embeddings.SyncResult, error)
	Refresh(ctx context.Context, kind recommend.Kind) error
}

// CatalogMaintenanceConfig holds configuration for the maintenance service.
type CatalogMaintenanceConfig struct {
	// SyncOnStartup runs embedding maintenance and warms both snapshots
	// when the service starts.
	SyncOnStartup bool

	// WarmOnStartup loads both snapshots at start without syncing
	// embeddings. Ignored when SyncOnStartup is set.
	WarmOnStartup bool

	// RefreshInterval is how often embeddings are synced and snapshots
	// rebuilt. Zero disables the periodic cycle.
	RefreshInterval time.Duration

	// CycleTimeout bounds one startup or periodic cycle. Default: 30m.
	CycleTimeout time.Duration
}

// CatalogMaintenanceService keeps the snapshots and artist embeddings in step
// with the catalog. Failures are logged and retried on the next cycle; the
// engine keeps serving its previous snapshots meanwhile.
type CatalogMaintenanceService struct {
	engine CatalogEngine
	config CatalogMaintenanceConfig
	logger zerolog.Logger
	name   string
}

// NewCatalogMaintenanceService creates the service.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewCatalogMaintenanceService(engine CatalogEngine, cfg CatalogMaintenanceConfig, logger zerolog.Logger) *CatalogMaintenanceService {
	if cfg.CycleTimeout <= 0 {
		cfg.CycleTimeout = 30 * time.Minute
	}
	return &CatalogMaintenanceService{
		engine: engine,
		config: cfg,
		logger: logger.With().Str("service", "catalog-maintenance").Logger(),
		name:   "catalog-maintenance",
	}
}

// Serve implements suture.Service.
func (s *CatalogMaintenanceService) Serve(ctx context.Context) error {
	s.logger.Info().
		Bool("sync_on_startup", s.config.SyncOnStartup).
		Bool("warm_on_startup", s.config.WarmOnStartup).
		Dur("refresh_interval", s.config.RefreshInterval).
		Msg("catalog maintenance starting")

	switch {
	case s.config.SyncOnStartup:
		s.runCycle(ctx, "startup", s.initialize)
	case s.config.WarmOnStartup:
		s.runCycle(ctx, "startup", s.warm)
	}

	if s.config.RefreshInterval <= 0 {
		<-ctx.Done()
		s.logger.Info().Msg("catalog maintenance shutting down")
		return ctx.Err()
	}

	ticker := time.NewTicker(s.config.RefreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("catalog maintenance shutting down")
			return ctx.Err()

		case <-ticker.C:
			s.runCycle(ctx, "scheduled", s.refresh)
		}
	}
}

// runCycle runs fn under its own timeout and correlation ID, logging the
// outcome. It never returns an error: a failed cycle is retried next tick.
func (s *CatalogMaintenanceService) runCycle(ctx context.Context, trigger string, fn func(context.Context) error) {
	cycleCtx, cancel := context.WithTimeout(ctx, s.config.CycleTimeout)
	defer cancel()
	cycleCtx = logging.ContextWithNewCorrelationID(cycleCtx)
	cycleCtx = logging.ContextWithLogger(cycleCtx, s.logger)

	start := time.Now()
	if err := fn(cycleCtx); err != nil {
		logging.Ctx(cycleCtx).Warn().Err(err).Str("trigger", trigger).Msg("catalog maintenance cycle failed (will retry on schedule)")
		return
	}
	logging.Ctx(cycleCtx).Info().
		Str("trigger", trigger).
		Dur("duration", time.Since(start)).
		Msg("catalog maintenance cycle complete")
}

func (s *CatalogMaintenanceService) initialize(ctx context.Context) error {
	return s.engine.Initialize(ctx)
}

func (s *CatalogMaintenanceService) warm(ctx context.Context) error {
	return s.engine.Refresh(ctx, recommend.KindAll)
}

// refresh syncs embeddings (which rebuilds the artist snapshot) and rebuilds
// the track snapshot. Without a maintainer the artist snapshot is rebuilt
// directly.
func (s *CatalogMaintenanceService) refresh(ctx context.Context) error {
	var errs []error

	result, err := s.engine.SyncEmbeddings(ctx)
	switch {
	case errors.Is(err, recommend.ErrNoMaintainer):
		if err := s.engine.Refresh(ctx, recommend.KindArtists); err != nil {
			errs = append(errs, err)
		}
	case errors.Is(err, embeddings.ErrSyncInProgress):
		logging.Ctx(ctx).Debug().Msg("embedding sync already running, skipping")
	case err != nil:
		errs = append(errs, err)
	default:
		logging.Ctx(ctx).Debug().Int("written", result.Written).Int("failed", result.Failed).Msg("embeddings synced")
	}

	if err := s.engine.Refresh(ctx, recommend.KindTracks); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// String returns the service name for logging.
func (s *CatalogMaintenanceService) String() string {
	return s.name
}
