// Soundalike - Content-Based Music Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/soundalike

// Package features turns catalog records into numeric feature vectors.
//
// Tracks get a structural encoding: two clipped numeric slots followed by a
// hashed multi-hot genre block. Artists are described by a single text
// string which an embeddings.TextEncoder turns into a vector.
//
// All encoders are pure functions of their input and safe for concurrent use.
package features

import (
	"hash/fnv"
	"strings"

	"github.com/tomtom215/soundalike/internal/models"
)

// Default structural encoder parameters.
const (
	DefaultDurationCeiling = 600.0
	DefaultBitRateCeiling  = 320.0
	DefaultGenreSlots      = 16
)

// TrackEncoder builds the structural vector of a track:
//
//	[duration/DurationCeiling, bitrate/BitRateCeiling, genre slot 0..GenreSlots-1]
//
// Numeric slots are clipped to [0,1]. Each genre token sets slot
// fnv32a(token) mod GenreSlots to 1. Hash collisions are accepted.
type TrackEncoder struct {
	DurationCeiling float64
	BitRateCeiling  float64
	GenreSlots      int
}

// DefaultTrackEncoder returns an encoder with the default ceilings and 16 genre slots.
func DefaultTrackEncoder() TrackEncoder {
	return TrackEncoder{
		DurationCeiling: DefaultDurationCeiling,
		BitRateCeiling:  DefaultBitRateCeiling,
		GenreSlots:      DefaultGenreSlots,
	}
}

// Dimension returns the length of every vector produced by Encode.
func (e TrackEncoder) Dimension() int {
	return 2 + e.slots()
}

// Encode returns the feature vector of t. It never fails.
//
//nolint:gocritic // models.Track is passed by value so Encode can be used as a func(models.Track) value
func (e TrackEncoder) Encode(t models.Track) []float64 {
	vec := make([]float64, e.Dimension())
	vec[0] = clipRatio(t.Duration, e.DurationCeiling)
	vec[1] = clipRatio(t.BitRate, e.BitRateCeiling)

	slots := e.slots()
	for _, token := range GenreTokens(t.GenreTop, t.Genre) {
		vec[2+GenreSlot(token, slots)] = 1
	}
	return vec
}

func (e TrackEncoder) slots() int {
	if e.GenreSlots <= 0 {
		return DefaultGenreSlots
	}
	return e.GenreSlots
}

// clipRatio returns value/ceiling clipped to [0,1]. A non-positive ceiling
// yields 0 so a misconfigured encoder cannot produce Inf.
func clipRatio(value, ceiling float64) float64 {
	if ceiling <= 0 || value <= 0 {
		return 0
	}
	r := value / ceiling
	if r > 1 {
		return 1
	}
	return r
}

// GenreTokens joins the genre fields with a space, lower-cases the result,
// treats commas as whitespace and splits on whitespace.
func GenreTokens(genreTop, genre string) []string {
	text := strings.ToLower(genreTop + " " + genre)
	text = strings.ReplaceAll(text, ",", " ")
	return strings.Fields(text)
}

// GenreSlot maps token to its multi-hot slot.
func GenreSlot(token string, slots int) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(token))
	return int(h.Sum32() % uint32(slots)) //nolint:gosec // slots is a small positive int
}

// ArtistText is the text the semantic encoder sees for an artist: the
// non-empty descriptive fields joined with single spaces.
//
//nolint:gocritic // models.Artist is passed by value to mirror TrackEncoder.Encode
func ArtistText(a models.Artist) string {
	parts := make([]string, 0, 5)
	for _, field := range []string{a.Name, a.Bio, a.Tags, a.Location, a.AssociatedLabel} {
		if field != "" {
			parts = append(parts, field)
		}
	}
	return strings.Join(parts, " ")
}
