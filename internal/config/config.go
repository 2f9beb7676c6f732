// Soundalike - Content-Based Music Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/soundalike

// Package config loads Soundalike configuration.
//
// Sources are layered with koanf, later layers winning:
//  1. Defaults (defaultConfig)
//  2. Optional YAML file (CONFIG_PATH, config.yaml, /etc/soundalike/config.yaml)
//  3. Environment variables mapped through envTransformFunc
//
// Config is immutable after Load and safe for concurrent reads.
package config

import (
	"fmt"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Database   DatabaseConfig   `koanf:"database"`
	Server     ServerConfig     `koanf:"server"`
	Security   SecurityConfig   `koanf:"security"`
	Logging    LoggingConfig    `koanf:"logging"`
	Recommend  RecommendConfig  `koanf:"recommend"`
	Embeddings EmbeddingsConfig `koanf:"embeddings"`
	Catalog    CatalogConfig    `koanf:"catalog"`
	NATS       NATSConfig       `koanf:"nats"` // Only honoured by binaries built with -tags nats
}

// DatabaseConfig holds DuckDB catalog store settings.
type DatabaseConfig struct {
	Path                   string `koanf:"path"`
	MaxMemory              string `koanf:"max_memory"`
	Threads                int    `koanf:"threads"` // 0 = runtime.NumCPU()
	PreserveInsertionOrder bool   `koanf:"preserve_insertion_order"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         int           `koanf:"port"`
	Host         string        `koanf:"host"`
	Timeout      time.Duration `koanf:"timeout"`
	QueryTimeout time.Duration `koanf:"query_timeout"` // Per-request deadline for recommendation queries
	Environment  string        `koanf:"environment"`
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// SecurityConfig holds HTTP hardening settings.
type SecurityConfig struct {
	CORSOrigins       []string      `koanf:"cors_origins"`
	RateLimitReqs     int           `koanf:"rate_limit_requests"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// RecommendConfig holds structural encoder and query settings.
type RecommendConfig struct {
	DurationCeiling float64 `koanf:"duration_ceiling"` // seconds
	BitRateCeiling  float64 `koanf:"bitrate_ceiling"`  // kbps
	GenreSlots      int     `koanf:"genre_slots"`
	DefaultLimit    int     `koanf:"default_limit"`
	MaxLimit        int     `koanf:"max_limit"`
	MaxSeeds        int     `koanf:"max_seeds"`
}

// EmbeddingsConfig holds semantic text encoder settings.
type EmbeddingsConfig struct {
	// Provider is "http" (remote model server) or "hash" (deterministic, offline).
	Provider          string        `koanf:"provider"`
	URL               string        `koanf:"url"`
	Model             string        `koanf:"model"`
	Dimension         int           `koanf:"dimension"`
	Timeout           time.Duration `koanf:"timeout"`
	RequestsPerSecond float64       `koanf:"requests_per_second"`
	Burst             int           `koanf:"burst"`
	BatchSize         int           `koanf:"batch_size"`
	CachePath         string        `koanf:"cache_path"` // Empty disables the on-disk encoder cache
	CacheTTL          time.Duration `koanf:"cache_ttl"`

	// Circuit breaker
	BreakerFailureThreshold uint32        `koanf:"breaker_failure_threshold"`
	BreakerTimeout          time.Duration `koanf:"breaker_timeout"`
	BreakerInterval         time.Duration `koanf:"breaker_interval"`
}

// CatalogConfig controls the catalog maintenance service.
type CatalogConfig struct {
	WarmOnStartup   bool          `koanf:"warm_on_startup"`
	SyncOnStartup   bool          `koanf:"sync_on_startup"`
	RefreshInterval time.Duration `koanf:"refresh_interval"` // 0 disables periodic refresh
	SeedFile        string        `koanf:"seed_file"`        // JSON catalog imported before startup
}

// NATSConfig holds catalog-change subscription settings.
type NATSConfig struct {
	Enabled        bool          `koanf:"enabled"`
	URL            string        `koanf:"url"`
	Subject        string        `koanf:"subject"`
	Stream         string        `koanf:"stream"`
	QueueGroup     string        `koanf:"queue_group"`
	MaxReconnects  int           `koanf:"max_reconnects"`
	ReconnectWait  time.Duration `koanf:"reconnect_wait"`
	AckWaitTimeout time.Duration `koanf:"ack_wait_timeout"`
}

// IsProduction reports whether the server runs with ENVIRONMENT=production.
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

// Load reads configuration from defaults, config file and environment.
func Load() (*Config, error) {
	return LoadWithKoanf()
}
