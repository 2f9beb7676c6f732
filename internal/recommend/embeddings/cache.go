// Soundalike - Content-Based Music Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/soundalike

package embeddings

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/tomtom215/soundalike/internal/metrics"
)

// CacheOptions configures a CachedEncoder.
type CacheOptions struct {
	// Path is the badger directory. Ignored when InMemory is set.
	Path string

	// TTL expires entries; zero keeps them forever.
	TTL time.Duration

	InMemory bool
}

// CachedEncoder stores encoder output in badger keyed by model and text, so
// re-running a sync after a crash or a model server outage does not pay for
// texts that were already encoded.
type CachedEncoder struct {
	next   TextEncoder
	db     *badger.DB
	ttl    time.Duration
	logger zerolog.Logger
}

// NewCachedEncoder opens the cache and wraps next.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewCachedEncoder(next TextEncoder, opts CacheOptions, logger zerolog.Logger) (*CachedEncoder, error) {
	bopts := badger.DefaultOptions(opts.Path)
	if opts.InMemory {
		bopts = badger.DefaultOptions("").WithInMemory(true)
	}
	bopts.Logger = nil

	db, err := badger.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("open encoder cache: %w", err)
	}

	logger = logger.With().Str("component", "embeddings").Str("cache", opts.Path).Logger()
	logger.Info().Bool("in_memory", opts.InMemory).Dur("ttl", opts.TTL).Msg("Encoder cache opened")

	return &CachedEncoder{next: next, db: db, ttl: opts.TTL, logger: logger}, nil
}

// EncodeText implements TextEncoder.
func (c *CachedEncoder) EncodeText(ctx context.Context, text string) ([]float64, error) {
	key := c.key(text)

	if vec, ok := c.lookup(key); ok {
		metrics.RecordEncoderCache(true)
		return vec, nil
	}
	metrics.RecordEncoderCache(false)

	vec, err := c.next.EncodeText(ctx, text)
	if err != nil {
		return nil, err
	}
	c.store(key, vec)
	return vec, nil
}

// EncodeTexts implements BatchEncoder. Only cache misses reach the wrapped
// encoder, in one batch when it supports batching.
func (c *CachedEncoder) EncodeTexts(ctx context.Context, texts []string) ([][]float64, error) {
	out := make([][]float64, len(texts))
	keys := make([][]byte, len(texts))
	var missIdx []int
	var missTexts []string

	for i, text := range texts {
		keys[i] = c.key(text)
		if vec, ok := c.lookup(keys[i]); ok {
			metrics.RecordEncoderCache(true)
			out[i] = vec
			continue
		}
		metrics.RecordEncoderCache(false)
		missIdx = append(missIdx, i)
		missTexts = append(missTexts, text)
	}
	if len(missIdx) == 0 {
		return out, nil
	}

	var vecs [][]float64
	if batch, ok := c.next.(BatchEncoder); ok {
		var err error
		if vecs, err = batch.EncodeTexts(ctx, missTexts); err != nil {
			return nil, err
		}
	} else {
		vecs = make([][]float64, len(missTexts))
		for i, text := range missTexts {
			vec, err := c.next.EncodeText(ctx, text)
			if err != nil {
				return nil, err
			}
			vecs[i] = vec
		}
	}

	for j, i := range missIdx {
		out[i] = vecs[j]
		c.store(keys[i], vecs[j])
	}
	return out, nil
}

// Dimension implements TextEncoder.
func (c *CachedEncoder) Dimension() int { return c.next.Dimension() }

// ModelID implements TextEncoder.
func (c *CachedEncoder) ModelID() string { return c.next.ModelID() }

// Close closes the wrapped encoder if needed and then the cache.
func (c *CachedEncoder) Close() error {
	return errors.Join(Close(c.next), c.db.Close())
}

// key is sha256(model \x00 text). The model is part of the key so that
// switching models never serves stale vectors.
func (c *CachedEncoder) key(text string) []byte {
	h := sha256.New()
	h.Write([]byte(c.next.ModelID()))
	h.Write([]byte{0})
	h.Write([]byte(text))
	return append([]byte("emb:"), h.Sum(nil)...)
}

func (c *CachedEncoder) lookup(key []byte) ([]float64, bool) {
	var vec []float64
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &vec)
		})
	})
	if err != nil {
		if !errors.Is(err, badger.ErrKeyNotFound) {
			c.logger.Warn().Err(err).Msg("Encoder cache read failed")
		}
		return nil, false
	}
	return vec, true
}

// store is best effort: a failed write only costs a future re-encode.
func (c *CachedEncoder) store(key []byte, vec []float64) {
	data, err := json.Marshal(vec)
	if err != nil {
		c.logger.Warn().Err(err).Msg("Encoder cache encode failed")
		return
	}
	err = c.db.Update(func(txn *badger.Txn) error {
		e := badger.NewEntry(key, data)
		if c.ttl > 0 {
			e = e.WithTTL(c.ttl)
		}
		return txn.SetEntry(e)
	})
	if err != nil {
		c.logger.Warn().Err(err).Msg("Encoder cache write failed")
	}
}
