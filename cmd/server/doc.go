// Soundalike - Content-Based Music Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/soundalike

/*
Package main is the entry point for the Soundalike server.

Soundalike recommends tracks and artists that sound alike. Tracks are
compared on a structural feature vector (duration, bit rate, explicit flag,
hashed genre); artists on a semantic embedding of their name, genre and
description. Both are ranked by cosine similarity against the mean of the
seed vectors.

# Application Architecture

	RootSupervisor ("soundalike")
	├── CatalogSupervisor ("catalog-layer")
	│   ├── Catalog maintenance (startup sync, periodic refresh)
	│   └── Catalog events (optional, -tags nats)
	└── APISupervisor ("api-layer")
	    └── HTTP Server

Component initialization order:

 1. Configuration: koanf with defaults, config.yaml and environment
 2. Logging: zerolog with JSON/console output
 3. Database: DuckDB catalog store, embedding column ensured
 4. Seed import (optional): CATALOG_SEED_FILE
 5. Recommendation engine: text encoder, embedding maintainer, snapshots
 6. Supervisor tree: suture v4
 7. HTTP server: chi router

# Configuration

Common environment variables:

	DUCKDB_PATH=/data/catalog.duckdb
	HTTP_PORT=8080
	EMBEDDING_PROVIDER=http            # or hash (offline, deterministic)
	EMBEDDING_URL=http://encoder:8000/v1/embeddings
	EMBEDDING_MODEL=all-MiniLM-L6-v2
	EMBEDDING_CACHE_PATH=/data/embedding-cache
	CATALOG_REFRESH_INTERVAL=15m
	NATS_ENABLED=true                  # requires -tags nats
	NATS_URL=nats://nats:4222

# Build Tags

	go build ./cmd/server              # periodic refresh only
	go build -tags nats ./cmd/server   # also react to catalog change events

# Signal Handling

SIGINT and SIGTERM cancel the root context. The HTTP server drains
in-flight requests for up to 10s, the catalog services stop, and the
database and encoder cache are closed.
*/
package main
