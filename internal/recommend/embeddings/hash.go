// Soundalike - Content-Based Music Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/soundalike

package embeddings

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"unicode"
)

const defaultHashDimension = 384

// HashEncoder is a deterministic bag-of-words encoder. Each lower-cased
// token is hashed into a signed bucket and the result is L2-normalized, so
// texts sharing words score higher under cosine similarity. It needs no
// network and gives identical output across processes.
type HashEncoder struct {
	dim   int
	model string
}

// NewHashEncoder creates a hash encoder of width dim.
func NewHashEncoder(dim int, model string) *HashEncoder {
	if dim <= 0 {
		dim = defaultHashDimension
	}
	if model == "" {
		model = "hash"
	}
	return &HashEncoder{dim: dim, model: "hash:" + model}
}

// EncodeText implements TextEncoder. Empty text yields the zero vector.
func (e *HashEncoder) EncodeText(_ context.Context, text string) ([]float64, error) {
	vec := make([]float64, e.dim)

	tokens := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, token := range tokens {
		h := fnv.New64a()
		_, _ = h.Write([]byte(token))
		sum := h.Sum64()

		bucket := int(sum % uint64(e.dim)) //nolint:gosec // dim is a small positive int
		if sum&(1<<63) != 0 {
			vec[bucket]--
		} else {
			vec[bucket]++
		}
	}

	var norm float64
	for _, v := range vec {
		norm += v * v
	}
	if norm == 0 {
		return vec, nil
	}
	norm = math.Sqrt(norm)
	for i := range vec {
		vec[i] /= norm
	}
	return vec, nil
}

// EncodeTexts implements BatchEncoder.
func (e *HashEncoder) EncodeTexts(ctx context.Context, texts []string) ([][]float64, error) {
	out := make([][]float64, len(texts))
	for i, text := range texts {
		vec, err := e.EncodeText(ctx, text)
		if err != nil {
			return nil, err
		}
		out[i] = vec
	}
	return out, nil
}

// Dimension implements TextEncoder.
func (e *HashEncoder) Dimension() int { return e.dim }

// ModelID implements TextEncoder.
func (e *HashEncoder) ModelID() string { return e.model }
