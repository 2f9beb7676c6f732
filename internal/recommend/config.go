// Soundalike - Content-Based Music Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/soundalike

package recommend

import (
	"fmt"
	"time"

	"github.com/tomtom215/soundalike/internal/recommend/features"
)

// Config contains all configuration for the recommendation engine.
type Config struct {
	// Tracks parameterizes the structural track encoder.
	Tracks features.TrackEncoder `json:"tracks"`

	// Limits contains request limits enforced by callers of the engine.
	Limits LimitsConfig `json:"limits"`

	// RefreshTimeout bounds one snapshot rebuild or embedding sync
	// started in the background. Zero means no extra deadline.
	RefreshTimeout time.Duration `json:"refresh_timeout"`
}

// LimitsConfig contains operational limits.
type LimitsConfig struct {
	// DefaultLimit is the result count when a request does not set one.
	// Default: 5.
	DefaultLimit int `json:"default_limit"`

	// MaxLimit is the largest allowed result count.
	// Default: 50.
	MaxLimit int `json:"max_limit"`

	// MaxSeeds caps the seed ids accepted by one multi-seed request.
	// Default: 100.
	MaxSeeds int `json:"max_seeds"`
}

// DefaultConfig returns a Config with production defaults.
func DefaultConfig() *Config {
	return &Config{
		Tracks: features.DefaultTrackEncoder(),
		Limits: LimitsConfig{
			DefaultLimit: 5,
			MaxLimit:     50,
			MaxSeeds:     100,
		},
		RefreshTimeout: 5 * time.Minute,
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Tracks.DurationCeiling <= 0 {
		return fmt.Errorf("tracks.duration_ceiling must be positive, got %f", c.Tracks.DurationCeiling)
	}
	if c.Tracks.BitRateCeiling <= 0 {
		return fmt.Errorf("tracks.bit_rate_ceiling must be positive, got %f", c.Tracks.BitRateCeiling)
	}
	if c.Tracks.GenreSlots < 1 {
		return fmt.Errorf("tracks.genre_slots must be positive, got %d", c.Tracks.GenreSlots)
	}

	if c.Limits.DefaultLimit < 1 {
		return fmt.Errorf("limits.default_limit must be positive, got %d", c.Limits.DefaultLimit)
	}
	if c.Limits.MaxLimit < c.Limits.DefaultLimit {
		return fmt.Errorf("limits.max_limit must be >= limits.default_limit, got %d < %d", c.Limits.MaxLimit, c.Limits.DefaultLimit)
	}
	if c.Limits.MaxSeeds < 1 {
		return fmt.Errorf("limits.max_seeds must be positive, got %d", c.Limits.MaxSeeds)
	}

	if c.RefreshTimeout < 0 {
		return fmt.Errorf("refresh_timeout must be non-negative, got %v", c.RefreshTimeout)
	}
	return nil
}

// Clone returns a copy of the configuration.
func (c *Config) Clone() *Config {
	// All nested structs hold value types only.
	clone := *c
	return &clone
}
