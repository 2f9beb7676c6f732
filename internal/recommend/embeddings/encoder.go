// Soundalike - Content-Based Music Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/soundalike

// Package embeddings produces and maintains the semantic vectors stored for
// artists.
//
// The semantic model is an opaque capability behind TextEncoder. Three
// implementations are provided:
//
//   - HashEncoder: deterministic token hashing, no network, used offline and in tests
//   - HTTPEncoder: a remote embedding server guarded by a circuit breaker and a rate limiter
//   - CachedEncoder: a badger-backed cache in front of any other encoder
//
// Maintainer.Sync fills in embeddings for artists that have none.
package embeddings

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"github.com/tomtom215/soundalike/internal/config"
)

// ErrEncoderUnavailable is returned when the remote encoder cannot be
// reached or its circuit breaker is open.
var ErrEncoderUnavailable = errors.New("text encoder unavailable")

// TextEncoder maps text to a fixed-width vector.
type TextEncoder interface {
	// EncodeText returns the vector for text. Empty text is valid input.
	EncodeText(ctx context.Context, text string) ([]float64, error)

	// Dimension is the width of every vector returned.
	Dimension() int

	// ModelID names the model, used to key caches.
	ModelID() string
}

// BatchEncoder is implemented by encoders that can encode many texts in
// one call. The result is parallel to texts.
type BatchEncoder interface {
	TextEncoder
	EncodeTexts(ctx context.Context, texts []string) ([][]float64, error)
}

// NewFromConfig builds the encoder selected by cfg.Provider, wrapped in a
// CachedEncoder when cfg.CachePath is set. The returned encoder implements
// io.Closer when it holds resources.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewFromConfig(cfg *config.EmbeddingsConfig, logger zerolog.Logger) (TextEncoder, error) {
	var base TextEncoder
	switch cfg.Provider {
	case config.EmbeddingProviderHash:
		base = NewHashEncoder(cfg.Dimension, cfg.Model)
	case config.EmbeddingProviderHTTP:
		base = NewHTTPEncoder(cfg, logger)
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.Provider)
	}

	if cfg.CachePath == "" {
		return base, nil
	}

	cached, err := NewCachedEncoder(base, CacheOptions{Path: cfg.CachePath, TTL: cfg.CacheTTL}, logger)
	if err != nil {
		return nil, err
	}
	return cached, nil
}

// Close releases enc if it holds resources.
func Close(enc TextEncoder) error {
	if c, ok := enc.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
