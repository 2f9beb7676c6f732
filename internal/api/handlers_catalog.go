// Soundalike - Content-Based Music Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/soundalike

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/tomtom215/soundalike/internal/logging"
	"github.com/tomtom215/soundalike/internal/recommend"
)

// RefreshCatalog rebuilds catalog snapshots after the catalog changed.
// Requests keep being served from the previous snapshots while it runs.
//
// POST /api/v1/catalog/refresh?kind=tracks|artists|all
func (h *Handler) RefreshCatalog(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	req := RefreshRequest{Kind: r.URL.Query().Get("kind")}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondAPIError(w, http.StatusBadRequest, apiErr)
		return
	}
	kind, err := recommend.ParseKind(req.Kind)
	if err != nil {
		respondError(w, http.StatusBadRequest, CodeValidation, err.Error(), nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.syncTimeout)
	defer cancel()
	ctx = logging.ContextWithNewCorrelationID(ctx)

	if err := h.engine.Refresh(ctx, kind); err != nil {
		respondEngineError(w, r, err)
		return
	}

	logging.Ctx(ctx).Info().Str("kind", string(kind)).Msg("Catalog snapshots refreshed via API")
	respondSuccess(w, h.engine.Stats(), start)
}

// SyncEmbeddings computes embeddings for artists that lack one and rebuilds
// the artist snapshot. Returns 409 if a sync is already running.
//
// POST /api/v1/catalog/embeddings/sync
func (h *Handler) SyncEmbeddings(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	ctx, cancel := context.WithTimeout(r.Context(), h.syncTimeout)
	defer cancel()
	ctx = logging.ContextWithNewCorrelationID(ctx)

	result, err := h.engine.SyncEmbeddings(ctx)
	if err != nil {
		respondEngineError(w, r, err)
		return
	}

	logging.Ctx(ctx).Info().
		Int("missing", result.Missing).
		Int("written", result.Written).
		Int("failed", result.Failed).
		Msg("Embedding sync triggered via API")
	respondSuccess(w, result, start)
}
