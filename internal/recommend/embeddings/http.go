// Soundalike - Content-Based Music Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/soundalike

package embeddings

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/tomtom215/soundalike/internal/config"
	"github.com/tomtom215/soundalike/internal/metrics"
)

// maxErrorBody caps how much of a failed response body ends up in an error.
const maxErrorBody = 512

// embedRequest is the body sent to the embedding server. The shape follows
// the OpenAI-compatible /v1/embeddings API served by most model servers.
type embedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embedResponse struct {
	Model string `json:"model"`
	Data  []struct {
		Index     int       `json:"index"`
		Embedding []float64 `json:"embedding"`
	} `json:"data"`
}

// HTTPEncoder calls a remote embedding server. Requests are throttled by a
// token bucket and guarded by a circuit breaker; an open breaker or a
// transport failure surfaces as ErrEncoderUnavailable.
type HTTPEncoder struct {
	url     string
	model   string
	dim     int
	client  *http.Client
	limiter *rate.Limiter
	cb      *gobreaker.CircuitBreaker[interface{}]
	name    string
	logger  zerolog.Logger
}

// NewHTTPEncoder creates an encoder for the server at cfg.URL.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewHTTPEncoder(cfg *config.EmbeddingsConfig, logger zerolog.Logger) *HTTPEncoder {
	name := "embedding-encoder"
	logger = logger.With().Str("component", "embeddings").Str("model", cfg.Model).Logger()

	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}

	threshold := cfg.BreakerFailureThreshold
	if threshold == 0 {
		threshold = 5
	}

	metrics.CircuitBreakerState.WithLabelValues(name).Set(0)
	metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(name).Set(0)

	cb := gobreaker.NewCircuitBreaker[interface{}](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    cfg.BreakerInterval,
		Timeout:     cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			trip := counts.ConsecutiveFailures >= threshold
			if trip {
				logger.Warn().Uint32("consecutive_failures", counts.ConsecutiveFailures).Msg("[CIRCUIT BREAKER] Opening circuit")
			}
			return trip
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			fromStr, toStr := stateToString(from), stateToString(to)
			logger.Info().Str("from", fromStr).Str("to", toStr).Msg("[CIRCUIT BREAKER] State transition")

			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, fromStr, toStr).Inc()
			if to == gobreaker.StateClosed {
				metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(name).Set(0)
			}
		},
	})

	return &HTTPEncoder{
		url:     cfg.URL,
		model:   cfg.Model,
		dim:     cfg.Dimension,
		client:  &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(limit, burst),
		cb:      cb,
		name:    name,
		logger:  logger,
	}
}

// EncodeText implements TextEncoder.
func (e *HTTPEncoder) EncodeText(ctx context.Context, text string) ([]float64, error) {
	vecs, err := e.EncodeTexts(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EncodeTexts implements BatchEncoder with one request per call.
func (e *HTTPEncoder) EncodeTexts(ctx context.Context, texts []string) ([][]float64, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	if err := e.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("wait for encoder rate limit: %w", err)
	}

	start := time.Now()
	result, err := e.execute(func() (interface{}, error) {
		return e.post(ctx, texts)
	})
	metrics.RecordEncoderRequest(e.model, time.Since(start))
	if err != nil {
		return nil, err
	}

	vecs, ok := result.([][]float64)
	if !ok {
		return nil, fmt.Errorf("circuit breaker: unexpected result type %T", result)
	}
	return vecs, nil
}

// Dimension implements TextEncoder.
func (e *HTTPEncoder) Dimension() int { return e.dim }

// ModelID implements TextEncoder.
func (e *HTTPEncoder) ModelID() string { return e.model }

// State returns the circuit breaker state name.
func (e *HTTPEncoder) State() string {
	return stateToString(e.cb.State())
}

// execute runs fn through the circuit breaker and maps breaker rejections
// and transport failures to ErrEncoderUnavailable.
func (e *HTTPEncoder) execute(fn func() (interface{}, error)) (interface{}, error) {
	result, err := e.cb.Execute(fn)
	if err == nil {
		metrics.CircuitBreakerRequests.WithLabelValues(e.name, "success").Inc()
		metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(e.name).Set(0)
		return result, nil
	}

	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		metrics.CircuitBreakerRequests.WithLabelValues(e.name, "rejected").Inc()
		return nil, fmt.Errorf("%w: %w", ErrEncoderUnavailable, err)
	}

	metrics.CircuitBreakerRequests.WithLabelValues(e.name, "failure").Inc()
	metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(e.name).Set(float64(e.cb.Counts().ConsecutiveFailures))
	return nil, err
}

func (e *HTTPEncoder) post(ctx context.Context, texts []string) ([][]float64, error) {
	body, err := json.Marshal(embedRequest{Model: e.model, Input: texts})
	if err != nil {
		return nil, fmt.Errorf("encode embedding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEncoderUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		err := fmt.Errorf("embedding request failed with status %d: %s", resp.StatusCode, bytes.TrimSpace(snippet))
		if resp.StatusCode >= http.StatusInternalServerError || resp.StatusCode == http.StatusTooManyRequests {
			return nil, fmt.Errorf("%w: %w", ErrEncoderUnavailable, err)
		}
		return nil, err
	}

	var decoded embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("failed to decode embedding response: %w", err)
	}
	return e.collect(&decoded, len(texts))
}

// collect orders the response rows by index and checks their width.
func (e *HTTPEncoder) collect(resp *embedResponse, want int) ([][]float64, error) {
	if len(resp.Data) != want {
		return nil, fmt.Errorf("embedding response has %d rows, want %d", len(resp.Data), want)
	}
	out := make([][]float64, want)
	for _, row := range resp.Data {
		if row.Index < 0 || row.Index >= want || out[row.Index] != nil {
			return nil, fmt.Errorf("embedding response has invalid index %d", row.Index)
		}
		if e.dim > 0 && len(row.Embedding) != e.dim {
			return nil, fmt.Errorf("embedding width %d, want %d", len(row.Embedding), e.dim)
		}
		out[row.Index] = row.Embedding
	}
	return out, nil
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

func stateToString(state gobreaker.State) string {
	switch state {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}
