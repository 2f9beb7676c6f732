// Soundalike - Content-Based Music Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/soundalike

package main

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/tomtom215/soundalike/internal/config"
	"github.com/tomtom215/soundalike/internal/database"
	"github.com/tomtom215/soundalike/internal/recommend"
	"github.com/tomtom215/soundalike/internal/recommend/embeddings"
)

// RecommendComponents holds the recommendation engine and what it owns.
type RecommendComponents struct {
	Engine     *recommend.Engine
	Encoder    embeddings.TextEncoder
	Maintainer *embeddings.Maintainer
	logger     zerolog.Logger
}

// initRecommend builds the text encoder, the embedding maintainer and the
// engine over db. Snapshots are loaded later by the catalog maintenance
// service.
//
//nolint:gocritic // hugeParam: logger passed by value for zerolog chaining
func initRecommend(cfg *config.Config, db *database.DB, logger zerolog.Logger) (*RecommendComponents, error) {
	engineCfg := buildEngineConfig(cfg)
	if err := engineCfg.Validate(); err != nil {
		return nil, fmt.Errorf("recommend config: %w", err)
	}

	encoder, err := embeddings.NewFromConfig(&cfg.Embeddings, logger)
	if err != nil {
		return nil, fmt.Errorf("create text encoder: %w", err)
	}

	engine, err := recommend.NewEngine(engineCfg, db, db, logger)
	if err != nil {
		_ = embeddings.Close(encoder)
		return nil, fmt.Errorf("create engine: %w", err)
	}

	maintainer := embeddings.NewMaintainer(db, encoder, embeddings.MaintainerConfig{
		BatchSize: cfg.Embeddings.BatchSize,
	}, logger)
	engine.SetMaintainer(maintainer)

	logger.Info().
		Str("provider", cfg.Embeddings.Provider).
		Str("model", encoder.ModelID()).
		Int("dimension", encoder.Dimension()).
		Bool("encoder_cache", cfg.Embeddings.CachePath != "").
		Int("genre_slots", engineCfg.Tracks.GenreSlots).
		Msg("recommendation engine initialized")

	return &RecommendComponents{
		Engine:     engine,
		Encoder:    encoder,
		Maintainer: maintainer,
		logger:     logger,
	}, nil
}

// Close releases the encoder and its cache.
func (c *RecommendComponents) Close() {
	if err := embeddings.Close(c.Encoder); err != nil {
		c.logger.Error().Err(err).Msg("error closing text encoder")
	}
}

// buildEngineConfig creates the engine configuration from app config.
// Zero values keep the engine defaults.
func buildEngineConfig(cfg *config.Config) *recommend.Config {
	out := recommend.DefaultConfig()
	rc := cfg.Recommend

	if rc.DurationCeiling > 0 {
		out.Tracks.DurationCeiling = rc.DurationCeiling
	}
	if rc.BitRateCeiling > 0 {
		out.Tracks.BitRateCeiling = rc.BitRateCeiling
	}
	if rc.GenreSlots > 0 {
		out.Tracks.GenreSlots = rc.GenreSlots
	}
	if rc.DefaultLimit > 0 {
		out.Limits.DefaultLimit = rc.DefaultLimit
	}
	if rc.MaxLimit > 0 {
		out.Limits.MaxLimit = rc.MaxLimit
	}
	if rc.MaxSeeds > 0 {
		out.Limits.MaxSeeds = rc.MaxSeeds
	}
	return out
}
