// Soundalike - Content-Based Music Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/soundalike

package recommend

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/soundalike/internal/logging"
	"github.com/tomtom215/soundalike/internal/metrics"
	"github.com/tomtom215/soundalike/internal/models"
	"github.com/tomtom215/soundalike/internal/recommend/catalog"
	"github.com/tomtom215/soundalike/internal/recommend/embeddings"
)

// ErrNoMaintainer is returned by SyncEmbeddings when no maintainer is set.
var ErrNoMaintainer = errors.New("embedding maintainer not configured")

// Engine answers similarity queries over the track and artist indexes.
// It is safe for concurrent use.
type Engine struct {
	config *Config
	logger zerolog.Logger

	tracks  *catalog.Index[models.Track]
	artists *catalog.Index[models.Artist]

	maintainer EmbeddingMaintainer

	requestCount atomic.Int64
	errorCount   atomic.Int64
}

// NewEngine creates an engine reading tracks and artists from the given
// sources. Nothing is loaded until the first query or Initialize.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewEngine(cfg *Config, tracks TrackSource, artists ArtistSource, logger zerolog.Logger) (*Engine, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if tracks == nil || artists == nil {
		return nil, errors.New("track and artist sources are required")
	}

	logger = logger.With().Str("component", "recommend").Logger()
	encoder := cfg.Tracks

	return &Engine{
		config: cfg,
		logger: logger,
		tracks: catalog.NewIndex[models.Track](string(KindTracks),
			catalog.LoaderFunc[models.Track](tracks.LoadTracks),
			catalog.AlwaysEncode(encoder.Encode),
			logger),
		artists: catalog.NewIndex[models.Artist](string(KindArtists),
			catalog.LoaderFunc[models.Artist](artists.LoadArtists),
			artistEmbedding,
			logger),
	}, nil
}

// artistEmbedding uses the stored vector; artists without one are not
// eligible until the next sync.
//
//nolint:gocritic // signature fixed by catalog.Encoder
func artistEmbedding(a models.Artist) ([]float64, bool) {
	return a.Embedding, len(a.Embedding) > 0
}

// SetMaintainer sets the embedding maintainer used by SyncEmbeddings.
func (e *Engine) SetMaintainer(m EmbeddingMaintainer) {
	e.maintainer = m
}

// Config returns a copy of the engine configuration.
func (e *Engine) Config() *Config {
	return e.config.Clone()
}

// RecommendTracks returns up to topN tracks most similar to the seeds.
// Unknown seed ids are ignored; an empty slice is returned when none
// resolve or topN <= 0. Only snapshot load failures are errors.
func (e *Engine) RecommendTracks(ctx context.Context, seedIDs []int64, topN int) ([]models.TrackRecommendation, error) {
	start := time.Now()
	e.requestCount.Add(1)

	if topN <= 0 {
		return []models.TrackRecommendation{}, nil
	}

	snap, err := e.tracks.EnsureLoaded(ctx)
	if err != nil {
		e.errorCount.Add(1)
		return nil, err
	}

	matches, resolved := rank(snap, seedIDs, topN)
	out := make([]models.TrackRecommendation, 0, len(matches))
	for _, m := range matches {
		t := &snap.Records[m.row]
		out = append(out, models.TrackRecommendation{
			TrackID:    t.ID,
			TrackTitle: t.Title,
			ArtistID:   t.ArtistID,
			ArtistName: t.ArtistName,
			Similarity: round4(m.score),
		})
	}

	e.observe(ctx, KindTracks, seedIDs, resolved, len(out), start)
	return out, nil
}

// RecommendArtists returns up to topN artists most similar to the seeds.
// Same contract as RecommendTracks.
func (e *Engine) RecommendArtists(ctx context.Context, seedIDs []int64, topN int) ([]models.ArtistRecommendation, error) {
	start := time.Now()
	e.requestCount.Add(1)

	if topN <= 0 {
		return []models.ArtistRecommendation{}, nil
	}

	snap, err := e.artists.EnsureLoaded(ctx)
	if err != nil {
		e.errorCount.Add(1)
		return nil, err
	}

	matches, resolved := rank(snap, seedIDs, topN)
	out := make([]models.ArtistRecommendation, 0, len(matches))
	for _, m := range matches {
		a := &snap.Records[m.row]
		out = append(out, models.ArtistRecommendation{
			ArtistID:   a.ID,
			ArtistName: a.Name,
			Similarity: round4(m.score),
		})
	}

	e.observe(ctx, KindArtists, seedIDs, resolved, len(out), start)
	return out, nil
}

func (e *Engine) observe(ctx context.Context, kind Kind, seedIDs []int64, resolved, results int, start time.Time) {
	unknown := uniqueCount(seedIDs) - resolved
	metrics.RecordRecommendation(string(kind), time.Since(start), results, unknown)

	ev := logging.Ctx(logging.ContextWithLogger(ctx, e.logger)).Debug()
	if unknown > 0 {
		ev = ev.Int("unknown_seeds", unknown)
	}
	ev.Str("kind", string(kind)).
		Int("seeds", len(seedIDs)).
		Int("results", results).
		Dur("duration", time.Since(start)).
		Msg("Recommendation served")
}

func uniqueCount(ids []int64) int {
	seen := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		seen[id] = struct{}{}
	}
	return len(seen)
}

// Initialize runs embedding maintenance (when a maintainer is set), which
// also rebuilds the artist index, and warms the track index. Safe to call
// again; a second run writes no embeddings unless the catalog changed.
func (e *Engine) Initialize(ctx context.Context) error {
	var errs []error

	if e.maintainer != nil {
		if _, err := e.SyncEmbeddings(ctx); err != nil {
			errs = append(errs, err)
		}
	} else if _, err := e.artists.Refresh(ctx); err != nil {
		errs = append(errs, err)
	}

	if _, err := e.tracks.EnsureLoaded(ctx); err != nil {
		errs = append(errs, err)
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("initialize recommendation engine: %w", err)
	}
	e.logger.Info().Msg("Recommendation engine initialized")
	return nil
}

// SyncEmbeddings writes missing artist embeddings and then rebuilds the
// artist index so newly embedded artists become eligible.
func (e *Engine) SyncEmbeddings(ctx context.Context) (embeddings.SyncResult, error) {
	if e.maintainer == nil {
		return embeddings.SyncResult{}, ErrNoMaintainer
	}

	result, err := e.maintainer.Sync(ctx)
	if err != nil {
		return result, fmt.Errorf("sync embeddings: %w", err)
	}

	if _, err := e.artists.Refresh(ctx); err != nil {
		return result, err
	}
	return result, nil
}

// Refresh rebuilds the selected indexes from the catalog. With KindAll both
// are rebuilt even if the first fails.
func (e *Engine) Refresh(ctx context.Context, kind Kind) error {
	if kind != KindAll && kind != KindTracks && kind != KindArtists {
		return fmt.Errorf("unknown index kind %q", kind)
	}

	var errs []error
	if kind == KindAll || kind == KindTracks {
		if _, err := e.tracks.Refresh(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if kind == KindAll || kind == KindArtists {
		if _, err := e.artists.Refresh(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Stats returns per-index state and request counters.
func (e *Engine) Stats() Stats {
	stats := Stats{
		Tracks:   e.tracks.Stats(),
		Artists:  e.artists.Stats(),
		Requests: e.requestCount.Load(),
		Errors:   e.errorCount.Load(),
	}
	if e.maintainer != nil {
		if last, ok := e.maintainer.LastResult(); ok {
			stats.LastSync = &last
		}
	}
	return stats
}
