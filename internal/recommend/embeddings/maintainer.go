// Soundalike - Content-Based Music Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/soundalike

package embeddings

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/soundalike/internal/logging"
	"github.com/tomtom215/soundalike/internal/metrics"
	"github.com/tomtom215/soundalike/internal/models"
	"github.com/tomtom215/soundalike/internal/recommend/features"
)

// DefaultBatchSize is used when MaintainerConfig.BatchSize is not positive.
const DefaultBatchSize = 64

// ErrSyncInProgress is returned when Sync is called while another run is active.
var ErrSyncInProgress = errors.New("embedding sync already in progress")

// Store is the persistence the maintainer needs. *database.DB implements it.
type Store interface {
	EnsureEmbeddingColumn(ctx context.Context) error
	ArtistsMissingEmbedding(ctx context.Context) ([]models.Artist, error)
	UpsertArtistEmbedding(ctx context.Context, artistID int64, vec []float64) error
}

// SyncResult counts what one Sync run did.
type SyncResult struct {
	Missing    int       `json:"missing"`
	Written    int       `json:"written"`
	Failed     int       `json:"failed"`
	DurationMS int64     `json:"duration_ms"`
	FinishedAt time.Time `json:"finished_at"`
}

// MaintainerConfig configures a Maintainer.
type MaintainerConfig struct {
	BatchSize int
}

// Maintainer writes embeddings for artists that have none.
type Maintainer struct {
	store     Store
	encoder   TextEncoder
	batchSize int
	logger    zerolog.Logger

	runMu  sync.Mutex
	lastMu sync.RWMutex
	last   *SyncResult
}

// NewMaintainer creates a maintainer.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewMaintainer(store Store, encoder TextEncoder, cfg MaintainerConfig, logger zerolog.Logger) *Maintainer {
	batch := cfg.BatchSize
	if batch <= 0 {
		batch = DefaultBatchSize
	}
	return &Maintainer{
		store:     store,
		encoder:   encoder,
		batchSize: batch,
		logger:    logger.With().Str("component", "embeddings").Str("model", encoder.ModelID()).Logger(),
	}
}

// Sync makes sure the embedding column exists, reads every artist without
// an embedding and writes one for each. A failure to encode or write one
// artist is logged and counted in Failed; only schema and read failures are
// returned. Running it again with nothing missing writes nothing.
func (m *Maintainer) Sync(ctx context.Context) (result SyncResult, err error) {
	if !m.runMu.TryLock() {
		return SyncResult{}, ErrSyncInProgress
	}
	defer m.runMu.Unlock()

	start := time.Now()
	ctx = logging.ContextWithLogger(logging.ContextWithNewCorrelationID(ctx), m.logger)
	log := logging.Ctx(ctx)

	defer func() {
		result.DurationMS = time.Since(start).Milliseconds()
		result.FinishedAt = time.Now()
		metrics.RecordEmbeddingSync(time.Since(start))
		if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			m.setLast(result)
		}
	}()

	if err := m.store.EnsureEmbeddingColumn(ctx); err != nil {
		return result, fmt.Errorf("ensure embedding column: %w", err)
	}

	artists, err := m.store.ArtistsMissingEmbedding(ctx)
	if err != nil {
		return result, fmt.Errorf("load artists missing embeddings: %w", err)
	}
	result.Missing = len(artists)
	if len(artists) == 0 {
		log.Debug().Msg("No artists missing embeddings")
		return result, nil
	}

	log.Info().Int("missing", len(artists)).Int("batch_size", m.batchSize).Msg("Embedding sync started")

	for lo := 0; lo < len(artists); lo += m.batchSize {
		if err := ctx.Err(); err != nil {
			log.Warn().Err(err).Int("written", result.Written).Msg("Embedding sync interrupted")
			return result, err
		}

		hi := lo + m.batchSize
		if hi > len(artists) {
			hi = len(artists)
		}
		m.syncBatch(ctx, artists[lo:hi], &result)
	}

	log.Info().
		Int("missing", result.Missing).
		Int("written", result.Written).
		Int("failed", result.Failed).
		Dur("duration", time.Since(start)).
		Msg("Embedding sync complete")

	return result, nil
}

// LastResult returns the result of the most recent completed run.
func (m *Maintainer) LastResult() (SyncResult, bool) {
	m.lastMu.RLock()
	defer m.lastMu.RUnlock()
	if m.last == nil {
		return SyncResult{}, false
	}
	return *m.last, true
}

func (m *Maintainer) setLast(r SyncResult) {
	m.lastMu.Lock()
	m.last = &r
	m.lastMu.Unlock()
}

func (m *Maintainer) syncBatch(ctx context.Context, batch []models.Artist, result *SyncResult) {
	log := logging.Ctx(ctx)
	vecs := m.encodeBatch(ctx, batch)

	for i := range batch {
		id := batch[i].ID
		if vecs[i] == nil {
			result.Failed++
			metrics.RecordEmbeddingWrite(false)
			continue
		}
		if err := m.store.UpsertArtistEmbedding(ctx, id, vecs[i]); err != nil {
			log.Warn().Err(err).Int64("artist_id", id).Msg("Embedding write failed")
			result.Failed++
			metrics.RecordEmbeddingWrite(false)
			continue
		}
		result.Written++
		metrics.RecordEmbeddingWrite(true)
	}
}

// encodeBatch returns one vector per artist, nil where encoding failed. A
// failed batch call is retried one text at a time so a single bad input
// does not fail its neighbours.
func (m *Maintainer) encodeBatch(ctx context.Context, batch []models.Artist) [][]float64 {
	log := logging.Ctx(ctx)
	texts := make([]string, len(batch))
	for i := range batch {
		texts[i] = features.ArtistText(batch[i])
	}

	if be, ok := m.encoder.(BatchEncoder); ok && len(texts) > 1 {
		vecs, err := be.EncodeTexts(ctx, texts)
		if err == nil && len(vecs) == len(texts) {
			return m.checkWidths(ctx, batch, vecs)
		}
		log.Warn().Err(err).Int("size", len(texts)).Msg("Batch encode failed, encoding one by one")
	}

	vecs := make([][]float64, len(texts))
	for i, text := range texts {
		vec, err := m.encoder.EncodeText(ctx, text)
		if err != nil {
			log.Warn().Err(err).Int64("artist_id", batch[i].ID).Msg("Embedding encode failed")
			continue
		}
		vecs[i] = vec
	}
	return m.checkWidths(ctx, batch, vecs)
}

// checkWidths drops vectors whose width does not match the encoder.
func (m *Maintainer) checkWidths(ctx context.Context, batch []models.Artist, vecs [][]float64) [][]float64 {
	want := m.encoder.Dimension()
	for i, vec := range vecs {
		if vec == nil || want <= 0 || len(vec) == want {
			continue
		}
		logging.Ctx(ctx).Warn().
			Int64("artist_id", batch[i].ID).
			Int("dimension", len(vec)).
			Int("expected", want).
			Msg("Embedding has unexpected width")
		vecs[i] = nil
	}
	return vecs
}
