// Soundalike - Content-Based Music Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/soundalike

package api

import (
	"context"
	"time"

	"github.com/tomtom215/soundalike/internal/config"
	"github.com/tomtom215/soundalike/internal/database"
	"github.com/tomtom215/soundalike/internal/models"
	"github.com/tomtom215/soundalike/internal/recommend"
	"github.com/tomtom215/soundalike/internal/recommend/embeddings"
)

// Recommender is the engine surface used by the handlers.
// *recommend.Engine implements it.
type Recommender interface {
	RecommendTracks(ctx context.Context, seedIDs []int64, topN int) ([]models.TrackRecommendation, error)
	RecommendArtists(ctx context.Context, seedIDs []int64, topN int) ([]models.ArtistRecommendation, error)
	Refresh(ctx context.Context, kind recommend.Kind) error
	SyncEmbeddings(ctx context.Context) (embeddings.SyncResult, error)
	Stats() recommend.Stats
}

// CatalogStore is the read side of the catalog used outside the engine.
// *database.DB implements it.
type CatalogStore interface {
	SearchTracks(ctx context.Context, title, artistName string, limit int) ([]models.Track, error)
	GetCatalogCounts(ctx context.Context) (database.CatalogCounts, error)
	Ping(ctx context.Context) error
}

// Handler contains dependencies for API handlers.
//
// Handler methods are split across files:
//   - handlers.go: Handler struct and constructor (this file)
//   - handlers_helpers.go: response writing and parameter parsing
//   - handlers_health.go: liveness, readiness, status
//   - handlers_recommend.go: recommendation and search endpoints
//   - handlers_catalog.go: snapshot refresh and embedding sync triggers
type Handler struct {
	engine       Recommender
	store        CatalogStore
	defaultLimit int
	maxLimit     int
	maxSeeds     int
	queryTimeout time.Duration
	syncTimeout  time.Duration
	startTime    time.Time
}

// NewHandler creates a Handler. store may be nil, in which case search and
// catalog counts are unavailable.
//
//	handler := api.NewHandler(engine, db, cfg)
func NewHandler(engine Recommender, store CatalogStore, cfg *config.Config) *Handler {
	h := &Handler{
		engine:       engine,
		store:        store,
		defaultLimit: 5,
		maxLimit:     50,
		maxSeeds:     100,
		queryTimeout: 10 * time.Second,
		syncTimeout:  5 * time.Minute,
		startTime:    time.Now(),
	}
	if cfg == nil {
		return h
	}

	if cfg.Recommend.DefaultLimit > 0 {
		h.defaultLimit = cfg.Recommend.DefaultLimit
	}
	if cfg.Recommend.MaxLimit > 0 {
		h.maxLimit = cfg.Recommend.MaxLimit
	}
	if cfg.Recommend.MaxSeeds > 0 {
		h.maxSeeds = cfg.Recommend.MaxSeeds
	}
	if cfg.Server.QueryTimeout > 0 {
		h.queryTimeout = cfg.Server.QueryTimeout
	}
	return h
}
