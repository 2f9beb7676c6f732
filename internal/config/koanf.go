// Soundalike - Content-Based Music Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/soundalike

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists config file locations in priority order.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/soundalike/config.yaml",
	"/etc/soundalike/config.yml",
}

// ConfigPathEnvVar overrides the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

func defaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Path:                   "/data/soundalike.duckdb",
			MaxMemory:              "1GB",
			Threads:                0,
			PreserveInsertionOrder: true, // snapshot rows follow fetch order
		},
		Server: ServerConfig{
			Port:         8089,
			Host:         "0.0.0.0",
			Timeout:      30 * time.Second,
			QueryTimeout: 10 * time.Second,
			Environment:  "development",
		},
		Security: SecurityConfig{
			CORSOrigins:       []string{"*"},
			RateLimitReqs:     100,
			RateLimitWindow:   time.Minute,
			RateLimitDisabled: false,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
		Recommend: RecommendConfig{
			DurationCeiling: 600,
			BitRateCeiling:  320,
			GenreSlots:      16,
			DefaultLimit:    5,
			MaxLimit:        50,
			MaxSeeds:        100,
		},
		Embeddings: EmbeddingsConfig{
			Provider:                "hash",
			URL:                     "",
			Model:                   "all-MiniLM-L6-v2",
			Dimension:               384,
			Timeout:                 30 * time.Second,
			RequestsPerSecond:       10,
			Burst:                   5,
			BatchSize:               64,
			CachePath:               "",
			CacheTTL:                30 * 24 * time.Hour,
			BreakerFailureThreshold: 5,
			BreakerTimeout:          60 * time.Second,
			BreakerInterval:         time.Minute,
		},
		Catalog: CatalogConfig{
			WarmOnStartup:   true,
			SyncOnStartup:   true,
			RefreshInterval: 0,
		},
		NATS: NATSConfig{
			Enabled:        false,
			URL:            "nats://127.0.0.1:4222",
			Subject:        "catalog.changed",
			Stream:         "CATALOG",
			QueueGroup:     "soundalike",
			MaxReconnects:  -1,
			ReconnectWait:  2 * time.Second,
			AckWaitTimeout: 30 * time.Second,
		},
	}
}

// LoadWithKoanf loads configuration with layered sources: defaults, then an
// optional YAML file, then environment variables (highest priority).
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// sliceConfigPaths are parsed from comma-separated env values.
var sliceConfigPaths = []string{
	"security.cors_origins",
}

func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("failed to set %s: %w", path, err)
			}
		}
	}
	return nil
}

// envMappings maps environment variable names (lower-cased) to koanf paths.
// Unmapped variables are ignored.
var envMappings = map[string]string{
	"duckdb_path":                     "database.path",
	"duckdb_max_memory":               "database.max_memory",
	"duckdb_threads":                  "database.threads",
	"duckdb_preserve_insertion_order": "database.preserve_insertion_order",

	"http_port":     "server.port",
	"http_host":     "server.host",
	"http_timeout":  "server.timeout",
	"query_timeout": "server.query_timeout",
	"environment":   "server.environment",

	"cors_origins":        "security.cors_origins",
	"rate_limit_requests": "security.rate_limit_requests",
	"rate_limit_window":   "security.rate_limit_window",
	"disable_rate_limit":  "security.rate_limit_disabled",

	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",

	"reco_duration_ceiling": "recommend.duration_ceiling",
	"reco_bitrate_ceiling":  "recommend.bitrate_ceiling",
	"reco_genre_slots":      "recommend.genre_slots",
	"reco_default_limit":    "recommend.default_limit",
	"reco_max_limit":        "recommend.max_limit",
	"reco_max_seeds":        "recommend.max_seeds",

	"embedding_provider":         "embeddings.provider",
	"embedding_url":              "embeddings.url",
	"embedding_model":            "embeddings.model",
	"embedding_dimension":        "embeddings.dimension",
	"embedding_timeout":          "embeddings.timeout",
	"embedding_rps":              "embeddings.requests_per_second",
	"embedding_burst":            "embeddings.burst",
	"embedding_batch_size":       "embeddings.batch_size",
	"embedding_cache_path":       "embeddings.cache_path",
	"embedding_cache_ttl":        "embeddings.cache_ttl",
	"embedding_breaker_failures": "embeddings.breaker_failure_threshold",
	"embedding_breaker_timeout":  "embeddings.breaker_timeout",
	"embedding_breaker_interval": "embeddings.breaker_interval",

	"catalog_warm_on_startup":  "catalog.warm_on_startup",
	"catalog_sync_on_startup":  "catalog.sync_on_startup",
	"catalog_refresh_interval": "catalog.refresh_interval",
	"catalog_seed_file":        "catalog.seed_file",

	"nats_enabled":          "nats.enabled",
	"nats_url":              "nats.url",
	"nats_subject":          "nats.subject",
	"nats_stream":           "nats.stream",
	"nats_queue_group":      "nats.queue_group",
	"nats_max_reconnects":   "nats.max_reconnects",
	"nats_reconnect_wait":   "nats.reconnect_wait",
	"nats_ack_wait_timeout": "nats.ack_wait_timeout",
}

// envTransformFunc maps an environment variable name to its koanf path.
//
//   - DUCKDB_PATH -> database.path
//   - EMBEDDING_URL -> embeddings.url
//   - HTTP_PORT -> server.port
func envTransformFunc(key string) string {
	if mapped, ok := envMappings[strings.ToLower(key)]; ok {
		return mapped
	}
	return ""
}
