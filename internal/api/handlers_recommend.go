// Soundalike - Content-Based Music Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/soundalike

package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/soundalike/internal/models"
)

// seedQuery is the parsed, validated input of any recommendation request.
type seedQuery struct {
	ids   []int64
	limit int
	// target is the path parameter name on single-seed routes.
	target string
}

// TrackRecommendations returns tracks similar to the track in the path.
//
// GET /api/v1/tracks/{id}/reco?limit=5
func (h *Handler) TrackRecommendations(w http.ResponseWriter, r *http.Request) {
	q, ok := h.singleSeed(w, r, "track_id")
	if !ok {
		return
	}
	h.serveTracks(w, r, q)
}

// ArtistRecommendations returns artists similar to the artist in the path.
//
// GET /api/v1/artists/{id}/reco?limit=5
func (h *Handler) ArtistRecommendations(w http.ResponseWriter, r *http.Request) {
	q, ok := h.singleSeed(w, r, "artist_id")
	if !ok {
		return
	}
	h.serveArtists(w, r, q)
}

// TrackRecommendationsMulti ranks tracks against several seed tracks.
//
// GET  /api/v1/tracks/reco?ids=2,3,10&limit=5
// POST /api/v1/tracks/reco  {"ids": [2, 3, 10], "limit": 5}
func (h *Handler) TrackRecommendationsMulti(w http.ResponseWriter, r *http.Request) {
	q, ok := h.multiSeed(w, r)
	if !ok {
		return
	}
	h.serveTracks(w, r, q)
}

// ArtistRecommendationsMulti ranks artists against several seed artists.
//
// GET  /api/v1/artists/reco?ids=1,4&limit=5
// POST /api/v1/artists/reco  {"ids": [1, 4]}
func (h *Handler) ArtistRecommendationsMulti(w http.ResponseWriter, r *http.Request) {
	q, ok := h.multiSeed(w, r)
	if !ok {
		return
	}
	h.serveArtists(w, r, q)
}

// SearchTracks finds tracks by title and artist name, most listened first.
// It is the usual way to discover seed ids.
//
// GET /api/v1/tracks/search?title=love&artist=AWOL&limit=10
func (h *Handler) SearchTracks(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	if h.store == nil {
		respondError(w, http.StatusServiceUnavailable, CodeNotConfigured, "Catalog store not configured", nil)
		return
	}

	limit, apiErr := getLimitParam(r, defaultSearchLimit)
	if apiErr != nil {
		respondAPIError(w, http.StatusBadRequest, apiErr)
		return
	}
	req := SearchRequest{
		Title:  r.URL.Query().Get("title"),
		Artist: r.URL.Query().Get("artist"),
		Limit:  limit,
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondAPIError(w, http.StatusBadRequest, apiErr)
		return
	}

	ctx, cancel := h.withQueryTimeout(r)
	defer cancel()

	tracks, err := h.store.SearchTracks(ctx, req.Title, req.Artist, req.Limit)
	if err != nil {
		respondEngineError(w, r, err)
		return
	}
	respondSuccess(w, models.NewRecommendationList(tracks), start)
}

// singleSeed parses {id} and ?limit.
func (h *Handler) singleSeed(w http.ResponseWriter, r *http.Request, field string) (seedQuery, bool) {
	id, apiErr := parseID(field, chi.URLParam(r, "id"))
	if apiErr != nil {
		respondAPIError(w, http.StatusBadRequest, apiErr)
		return seedQuery{}, false
	}

	limit, apiErr := getLimitParam(r, h.defaultLimit)
	if apiErr == nil {
		apiErr = h.checkLimit(limit)
	}
	if apiErr != nil {
		respondAPIError(w, http.StatusBadRequest, apiErr)
		return seedQuery{}, false
	}
	return seedQuery{ids: []int64{id}, limit: limit, target: field}, true
}

// multiSeed parses ids and limit from the query string (GET) or a JSON body
// (POST).
func (h *Handler) multiSeed(w http.ResponseWriter, r *http.Request) (seedQuery, bool) {
	var (
		q      seedQuery
		apiErr *models.APIError
	)

	if r.Method == http.MethodPost {
		var req SeedsRequest
		if apiErr = decodeJSONBody(w, r, &req); apiErr == nil {
			apiErr = validateRequest(&req)
		}
		q.ids = req.IDs
		q.limit = h.defaultLimit
		if req.Limit != nil {
			q.limit = *req.Limit
		}
	} else {
		q.ids, apiErr = parseIDList("ids", r.URL.Query().Get("ids"))
		if apiErr == nil && len(q.ids) == 0 {
			apiErr = invalidParam("ids", "", "ids is required")
		}
		if apiErr == nil {
			q.limit, apiErr = getLimitParam(r, h.defaultLimit)
		}
	}

	if apiErr == nil {
		apiErr = validateVar("ids", q.ids, fmt.Sprintf("max=%d", h.maxSeeds))
	}
	if apiErr == nil {
		apiErr = h.checkLimit(q.limit)
	}
	if apiErr != nil {
		respondAPIError(w, http.StatusBadRequest, apiErr)
		return seedQuery{}, false
	}
	return q, true
}

func (h *Handler) checkLimit(limit int) *models.APIError {
	return validateVar("limit", limit, fmt.Sprintf("min=1,max=%d", h.maxLimit))
}

func (h *Handler) serveTracks(w http.ResponseWriter, r *http.Request, q seedQuery) {
	serveRecommendations(w, r, h, q, h.engine.RecommendTracks)
}

func (h *Handler) serveArtists(w http.ResponseWriter, r *http.Request, q seedQuery) {
	serveRecommendations(w, r, h, q, h.engine.RecommendArtists)
}

// serveRecommendations runs one ranking call under the query timeout and
// writes {count, results}.
func serveRecommendations[T any](
	w http.ResponseWriter,
	r *http.Request,
	h *Handler,
	q seedQuery,
	recommendFn func(ctx context.Context, seedIDs []int64, topN int) ([]T, error),
) {
	start := time.Now()

	ctx, cancel := h.withQueryTimeout(r)
	defer cancel()

	results, err := recommendFn(ctx, q.ids, q.limit)
	if err != nil {
		respondEngineError(w, r, err)
		return
	}

	list := models.NewRecommendationList(results)
	switch q.target {
	case "track_id":
		list.TargetTrackID = &q.ids[0]
	case "artist_id":
		list.TargetArtistID = &q.ids[0]
	}
	respondSuccess(w, list, start)
}
