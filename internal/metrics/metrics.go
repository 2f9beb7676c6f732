// Soundalike - Content-Based Music Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/soundalike

// Package metrics holds the Prometheus collectors exported on /metrics.
//
// Collectors are package-level and registered with the default registry via
// promauto. Callers use the Record* helpers rather than touching the vectors
// directly so label sets stay consistent.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Database Metrics
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "soundalike_duckdb_query_duration_seconds",
			Help:    "Duration of DuckDB queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "table"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "soundalike_duckdb_query_errors_total",
			Help: "Total number of DuckDB query errors",
		},
		[]string{"operation", "table"},
	)

	// API Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "soundalike_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "soundalike_api_request_duration_seconds",
			Help:    "Duration of API requests in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "soundalike_api_active_requests",
			Help: "Number of in-flight API requests",
		},
	)

	// Snapshot Metrics
	SnapshotBuildDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "soundalike_snapshot_build_duration_seconds",
			Help:    "Duration of catalog snapshot builds in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
		[]string{"index"},
	)

	SnapshotBuildsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "soundalike_snapshot_builds_total",
			Help: "Total number of catalog snapshot builds",
		},
		[]string{"index", "result"}, // result: "success", "failure"
	)

	SnapshotRows = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "soundalike_snapshot_rows",
			Help: "Number of rows in the installed catalog snapshot",
		},
		[]string{"index"},
	)

	SnapshotSkippedRows = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "soundalike_snapshot_skipped_rows_total",
			Help: "Rows skipped during snapshot builds (dimension mismatch or duplicate id)",
		},
		[]string{"index", "reason"},
	)

	SnapshotState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "soundalike_snapshot_state",
			Help: "Catalog index state (0=empty, 1=loading, 2=ready)",
		},
		[]string{"index"},
	)

	// Recommendation Metrics
	RecommendDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "soundalike_recommend_duration_seconds",
			Help:    "Duration of similarity ranking in seconds",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
		[]string{"kind"},
	)

	RecommendResultSize = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "soundalike_recommend_result_size",
			Help:    "Number of results returned per recommendation",
			Buckets: []float64{0, 1, 5, 10, 25, 50},
		},
		[]string{"kind"},
	)

	RecommendUnknownSeeds = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "soundalike_recommend_unknown_seeds_total",
			Help: "Seed ids that did not resolve to a snapshot row",
		},
		[]string{"kind"},
	)

	// Embedding Metrics
	EmbeddingWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "soundalike_embedding_writes_total",
			Help: "Artist embedding writes during maintenance",
		},
		[]string{"result"}, // result: "ok", "failed"
	)

	EmbeddingSyncDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "soundalike_embedding_sync_duration_seconds",
			Help:    "Duration of embedding maintenance runs",
			Buckets: []float64{0.1, 1, 5, 15, 30, 60, 300, 900},
		},
	)

	EncoderRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "soundalike_encoder_request_duration_seconds",
			Help:    "Duration of text encoder calls",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"model"},
	)

	EncoderCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "soundalike_encoder_cache_hits_total",
			Help: "Text encoder cache hits",
		},
	)

	EncoderCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "soundalike_encoder_cache_misses_total",
			Help: "Text encoder cache misses",
		},
	)

	// Catalog Events
	CatalogEventsReceived = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "soundalike_catalog_events_total",
			Help: "Catalog change notifications received",
		},
		[]string{"result"}, // result: "applied", "failed", "invalid"
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "soundalike_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "soundalike_circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // result: "success", "failure", "rejected"
	)

	CircuitBreakerConsecutiveFailures = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "soundalike_circuit_breaker_consecutive_failures",
			Help: "Current number of consecutive failures",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "soundalike_circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)
)

// RecordDBQuery records a DuckDB query duration and, on error, an error count.
func RecordDBQuery(operation, table string, duration time.Duration, err error) {
	DBQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
	if err != nil {
		DBQueryErrors.WithLabelValues(operation, table).Inc()
	}
}

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint string, statusCode int, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(statusCode)).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest increments or decrements the in-flight gauge.
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordSnapshotBuild records one snapshot build attempt.
func RecordSnapshotBuild(index string, duration time.Duration, rows int, err error) {
	SnapshotBuildDuration.WithLabelValues(index).Observe(duration.Seconds())
	if err != nil {
		SnapshotBuildsTotal.WithLabelValues(index, "failure").Inc()
		return
	}
	SnapshotBuildsTotal.WithLabelValues(index, "success").Inc()
	SnapshotRows.WithLabelValues(index).Set(float64(rows))
}

// RecordSnapshotSkip records a row left out of a snapshot.
func RecordSnapshotSkip(index, reason string) {
	SnapshotSkippedRows.WithLabelValues(index, reason).Inc()
}

// SetSnapshotState publishes the index state as a gauge value.
func SetSnapshotState(index string, state int) {
	SnapshotState.WithLabelValues(index).Set(float64(state))
}

// RecordRecommendation records one ranking call.
func RecordRecommendation(kind string, duration time.Duration, results, unknownSeeds int) {
	RecommendDuration.WithLabelValues(kind).Observe(duration.Seconds())
	RecommendResultSize.WithLabelValues(kind).Observe(float64(results))
	if unknownSeeds > 0 {
		RecommendUnknownSeeds.WithLabelValues(kind).Add(float64(unknownSeeds))
	}
}

// RecordEmbeddingWrite records one artist embedding write outcome.
func RecordEmbeddingWrite(ok bool) {
	if ok {
		EmbeddingWrites.WithLabelValues("ok").Inc()
		return
	}
	EmbeddingWrites.WithLabelValues("failed").Inc()
}

// RecordEmbeddingSync records the duration of a maintenance run.
func RecordEmbeddingSync(duration time.Duration) {
	EmbeddingSyncDuration.Observe(duration.Seconds())
}

// RecordEncoderRequest records the latency of one encoder call.
func RecordEncoderRequest(model string, duration time.Duration) {
	EncoderRequestDuration.WithLabelValues(model).Observe(duration.Seconds())
}

// RecordEncoderCache records a cache lookup outcome.
func RecordEncoderCache(hit bool) {
	if hit {
		EncoderCacheHits.Inc()
		return
	}
	EncoderCacheMisses.Inc()
}

// RecordCatalogEvent records how a catalog change notification was handled.
func RecordCatalogEvent(result string) {
	CatalogEventsReceived.WithLabelValues(result).Inc()
}
