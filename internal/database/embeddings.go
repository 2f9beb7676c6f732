// Soundalike - Content-Based Music Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/soundalike

package database

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/soundalike/internal/metrics"
)

// EnsureEmbeddingColumn adds artist.artist_embedding when it is missing.
// The vector is stored as a JSON array in a VARCHAR column.
func (db *DB) EnsureEmbeddingColumn(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("ensure_embedding_column", "artist", time.Since(start), err) }()

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	if _, err = db.conn.ExecContext(ctx, "ALTER TABLE artist ADD COLUMN IF NOT EXISTS artist_embedding VARCHAR"); err != nil {
		return fmt.Errorf("add embedding column: %w", err)
	}
	return nil
}

// UpsertArtistEmbedding stores vec as the embedding of artist id.
// Returns ErrArtistNotFound when no such artist exists.
func (db *DB) UpsertArtistEmbedding(ctx context.Context, id int64, vec []float64) (err error) {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("upsert_embedding", "artist", time.Since(start), err) }()

	encoded, err := encodeEmbeddingColumn(vec)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	return withConflictRetry(ctx, func(ctx context.Context) error {
		res, err := db.conn.ExecContext(ctx, "UPDATE artist SET artist_embedding = ? WHERE artist_id = ?", encoded, id)
		if err != nil {
			return fmt.Errorf("update artist %d embedding: %w", id, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("update artist %d embedding: %w", id, err)
		}
		if n == 0 {
			return fmt.Errorf("update artist %d embedding: %w", id, ErrArtistNotFound)
		}
		return nil
	})
}

// ClearArtistEmbeddings drops every stored embedding so the next maintenance
// run re-encodes all artists. Used after switching encoder models.
func (db *DB) ClearArtistEmbeddings(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	res, err := db.conn.ExecContext(ctx, "UPDATE artist SET artist_embedding = NULL WHERE artist_embedding IS NOT NULL")
	if err != nil {
		return 0, fmt.Errorf("clear embeddings: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("clear embeddings: %w", err)
	}
	return n, nil
}

func encodeEmbeddingColumn(vec []float64) (string, error) {
	if len(vec) == 0 {
		return "", fmt.Errorf("encode embedding: empty vector")
	}
	for i, v := range vec {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return "", fmt.Errorf("encode embedding: non-finite value at index %d", i)
		}
	}
	data, err := json.Marshal(vec)
	if err != nil {
		return "", fmt.Errorf("encode embedding: %w", err)
	}
	return string(data), nil
}

func decodeEmbeddingColumn(raw string) ([]float64, error) {
	var vec []float64
	if err := json.Unmarshal([]byte(raw), &vec); err != nil {
		return nil, fmt.Errorf("decode embedding: %w", err)
	}
	if len(vec) == 0 {
		return nil, fmt.Errorf("decode embedding: empty vector")
	}
	return vec, nil
}
