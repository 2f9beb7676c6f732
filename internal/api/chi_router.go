// Soundalike - Content-Based Music Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/soundalike

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Router sets up HTTP routes using Chi router.
type Router struct {
	handler       *Handler
	chiMiddleware *ChiMiddleware
}

// NewRouter creates a Router. A nil middleware uses DefaultChiMiddlewareConfig.
func NewRouter(handler *Handler, mw *ChiMiddleware) *Router {
	if mw == nil {
		mw = NewChiMiddleware(nil)
	}
	return &Router{handler: handler, chiMiddleware: mw}
}

// SetupChi configures all HTTP routes.
func (router *Router) SetupChi() http.Handler {
	r := chi.NewRouter()

	// ========================
	// Global Middleware Stack
	// ========================
	r.Use(RequestIDWithLogging())
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.chiMiddleware.CORS()) // CORS must be global to handle OPTIONS preflight
	r.Use(chimiddleware.Compress(5, "application/json"))

	// ========================
	// Health Endpoints
	// ========================
	r.Route("/api/v1/health", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimitHealth())
		r.Use(APISecurityHeaders())
		r.Get("/live", router.handler.HealthLive)
		r.Get("/ready", router.handler.HealthReady)
		r.Get("/", router.handler.Health)
	})

	// ========================
	// Recommendation Endpoints
	// ========================
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimit())
		r.Use(APISecurityHeaders())
		r.Use(PrometheusMetrics)

		r.Route("/tracks", func(r chi.Router) {
			r.Get("/search", router.handler.SearchTracks)
			r.Get("/reco", router.handler.TrackRecommendationsMulti)
			r.Post("/reco", router.handler.TrackRecommendationsMulti)
			r.Get("/{id}/reco", router.handler.TrackRecommendations)
		})

		r.Route("/artists", func(r chi.Router) {
			r.Get("/reco", router.handler.ArtistRecommendationsMulti)
			r.Post("/reco", router.handler.ArtistRecommendationsMulti)
			r.Get("/{id}/reco", router.handler.ArtistRecommendations)
		})

		r.Route("/catalog", func(r chi.Router) {
			r.Post("/refresh", router.handler.RefreshCatalog)
			r.Post("/embeddings/sync", router.handler.SyncEmbeddings)
		})
	})

	r.Handle("/metrics", promhttp.Handler())

	return r
}
