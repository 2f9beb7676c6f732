// Soundalike - Content-Based Music Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/soundalike

package catalogevents

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/soundalike/internal/logging"
	"github.com/tomtom215/soundalike/internal/metrics"
	"github.com/tomtom215/soundalike/internal/recommend"
	"github.com/tomtom215/soundalike/internal/recommend/embeddings"
)

// ErrInvalidEvent marks a message that can never be applied.
var ErrInvalidEvent = errors.New("invalid catalog event")

// Handling outcomes recorded in metrics.
const (
	OutcomeApplied = "applied"
	OutcomeInvalid = "invalid"
	OutcomeFailed  = "failed"
)

// CatalogChanged announces that part of the catalog was written.
type CatalogChanged struct {
	Kind           string    `json:"kind"`
	SyncEmbeddings bool      `json:"sync_embeddings,omitempty"`
	Reason         string    `json:"reason,omitempty"`
	ChangedAt      time.Time `json:"changed_at,omitempty"`
}

// Refresher is the engine surface a catalog event drives.
// *recommend.Engine implements it.
type Refresher interface {
	SyncEmbeddings(ctx context.Context) (embeddings.SyncResult, error)
	Refresh(ctx context.Context, kind recommend.Kind) error
}

// Handler applies catalog change events to the engine.
type Handler struct {
	engine  Refresher
	timeout time.Duration
}

// NewHandler creates a handler. Each event is bounded by timeout
// (default 10m).
func NewHandler(engine Refresher, timeout time.Duration) *Handler {
	if timeout <= 0 {
		timeout = 10 * time.Minute
	}
	return &Handler{engine: engine, timeout: timeout}
}

// Decode parses a message payload. Errors wrap ErrInvalidEvent.
func Decode(payload []byte) (CatalogChanged, recommend.Kind, error) {
	var ev CatalogChanged
	if err := json.Unmarshal(payload, &ev); err != nil {
		return ev, "", fmt.Errorf("%w: %v", ErrInvalidEvent, err)
	}
	kind, err := recommend.ParseKind(ev.Kind)
	if err != nil {
		return ev, "", fmt.Errorf("%w: %v", ErrInvalidEvent, err)
	}
	return ev, kind, nil
}

// Handle decodes and applies one payload, recording the outcome. A non-nil
// error that does not wrap ErrInvalidEvent is worth redelivering.
func (h *Handler) Handle(ctx context.Context, payload []byte) error {
	ev, kind, err := Decode(payload)
	if err != nil {
		metrics.RecordCatalogEvent(OutcomeInvalid)
		logging.Ctx(ctx).Warn().Err(err).Msg("dropping catalog event")
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	start := time.Now()
	if err := h.apply(ctx, kind, ev.SyncEmbeddings); err != nil {
		metrics.RecordCatalogEvent(OutcomeFailed)
		return fmt.Errorf("apply %s change: %w", kind, err)
	}

	metrics.RecordCatalogEvent(OutcomeApplied)
	logging.Ctx(ctx).Info().
		Str("kind", string(kind)).
		Bool("sync_embeddings", ev.SyncEmbeddings).
		Str("reason", ev.Reason).
		Dur("duration", time.Since(start)).
		Msg("catalog change applied")
	return nil
}

func (h *Handler) apply(ctx context.Context, kind recommend.Kind, syncEmbeddings bool) error {
	if syncEmbeddings && kind != recommend.KindTracks {
		_, err := h.engine.SyncEmbeddings(ctx)
		switch {
		case err == nil, errors.Is(err, embeddings.ErrSyncInProgress):
			// The sync (ours or the running one) rebuilds the artist snapshot.
			if kind == recommend.KindArtists {
				return nil
			}
			kind = recommend.KindTracks
		case errors.Is(err, recommend.ErrNoMaintainer):
			logging.Ctx(ctx).Debug().Msg("no embedding maintainer, refreshing snapshots only")
		default:
			return err
		}
	}
	return h.engine.Refresh(ctx, kind)
}
