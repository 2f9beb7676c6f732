// Soundalike - Content-Based Music Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/soundalike

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/tomtom215/soundalike/internal/database"
	"github.com/tomtom215/soundalike/internal/models"
	"github.com/tomtom215/soundalike/internal/recommend"
)

// HealthStatus is the payload of GET /api/v1/health.
type HealthStatus struct {
	Status            string                  `json:"status"` // healthy, degraded
	DatabaseConnected bool                    `json:"database_connected"`
	Engine            recommend.Stats         `json:"engine"`
	Catalog           *database.CatalogCounts `json:"catalog,omitempty"`
	Uptime            float64                 `json:"uptime_seconds"`
}

// HealthLive reports that the process is running. It never touches the
// database or the engine.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data: map[string]interface{}{
			"alive":  true,
			"uptime": time.Since(h.startTime).Seconds(),
		},
		Metadata: models.Metadata{
			Timestamp: time.Now(),
		},
	})
}

// HealthReady returns 200 once both catalog snapshots are loaded, 503 before.
// Serving continues from the last good snapshot after a failed refresh, so a
// failed rebuild does not make the service unready.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	stats := h.engine.Stats()
	if !stats.Ready() {
		respondJSON(w, http.StatusServiceUnavailable, &models.APIResponse{
			Status: "error",
			Data:   stats,
			Metadata: models.Metadata{
				Timestamp: time.Now(),
			},
			Error: &models.APIError{
				Code:    CodeNotReady,
				Message: "Catalog snapshots not loaded",
			},
		})
		return
	}

	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data:   map[string]interface{}{"ready": true},
		Metadata: models.Metadata{
			Timestamp: time.Now(),
		},
	})
}

// Health returns engine stats, last embedding sync, and catalog row counts.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	health := HealthStatus{
		Status: "healthy",
		Engine: h.engine.Stats(),
		Uptime: time.Since(h.startTime).Seconds(),
	}

	if h.store != nil && h.store.Ping(ctx) == nil {
		health.DatabaseConnected = true
		if counts, err := h.store.GetCatalogCounts(ctx); err == nil {
			health.Catalog = &counts
		}
	}

	if !health.DatabaseConnected || !health.Engine.Ready() {
		health.Status = "degraded"
	}

	respondSuccess(w, health, start)
}
