// Soundalike - Content-Based Music Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/soundalike

package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/tomtom215/soundalike/internal/models"
	"github.com/tomtom215/soundalike/internal/recommend/catalog"
)

func TestTrackRecommendations_Params(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		id        string
		query     string
		wantCode  int
		wantLimit int
		wantField string
	}{
		{name: "default limit", id: "2", wantCode: http.StatusOK, wantLimit: 5},
		{name: "explicit limit", id: "2", query: "?limit=10", wantCode: http.StatusOK, wantLimit: 10},
		{name: "max limit", id: "2", query: "?limit=50", wantCode: http.StatusOK, wantLimit: 50},
		{name: "limit too large", id: "2", query: "?limit=51", wantCode: http.StatusBadRequest, wantField: "limit"},
		{name: "limit zero", id: "2", query: "?limit=0", wantCode: http.StatusBadRequest, wantField: "limit"},
		{name: "limit not numeric", id: "2", query: "?limit=ten", wantCode: http.StatusBadRequest, wantField: "limit"},
		{name: "id not numeric", id: "abc", wantCode: http.StatusBadRequest, wantField: "track_id"},
		{name: "id zero", id: "0", wantCode: http.StatusBadRequest, wantField: "track_id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			engine := &mockEngine{tracks: []models.TrackRecommendation{{TrackID: 3, TrackTitle: "Three", Similarity: 0.5}}}
			h := newTestHandler(engine, nil)

			req := httptest.NewRequest(http.MethodGet, "/api/v1/tracks/"+tt.id+"/reco"+tt.query, nil)
			req = withURLParam(req, "id", tt.id)
			rec := httptest.NewRecorder()
			h.TrackRecommendations(rec, req)

			if rec.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tt.wantCode, rec.Body.String())
			}
			env := decodeEnvelope(t, rec)

			if tt.wantCode != http.StatusOK {
				if env.Error == nil || env.Error.Code != CodeValidation {
					t.Fatalf("error = %+v, want VALIDATION_ERROR", env.Error)
				}
				if got := env.Error.Details["field"]; got != tt.wantField {
					t.Errorf("details.field = %v, want %s", got, tt.wantField)
				}
				return
			}

			ids, limit := engine.last()
			if limit != tt.wantLimit {
				t.Errorf("engine limit = %d, want %d", limit, tt.wantLimit)
			}
			if len(ids) != 1 || ids[0] != 2 {
				t.Errorf("engine seeds = %v, want [2]", ids)
			}
			list := decodeList[models.TrackRecommendation](t, env)
			if list.Count != 1 || list.Results[0].TrackID != 3 {
				t.Errorf("list = %+v", list)
			}
			if list.TargetTrackID == nil || *list.TargetTrackID != 2 || list.TargetArtistID != nil {
				t.Errorf("target_track_id = %v, target_artist_id = %v; want 2 and absent", list.TargetTrackID, list.TargetArtistID)
			}
		})
	}
}

func TestRecommendations_EmptyResult(t *testing.T) {
	t.Parallel()

	h := newTestHandler(&mockEngine{artists: []models.ArtistRecommendation{}}, nil)

	req := withURLParam(httptest.NewRequest(http.MethodGet, "/api/v1/artists/9999/reco", nil), "id", "9999")
	rec := httptest.NewRecorder()
	h.ArtistRecommendations(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"results":[]`) {
		t.Errorf("body %s should contain an empty results array", rec.Body.String())
	}
	list := decodeList[models.ArtistRecommendation](t, decodeEnvelope(t, rec))
	if list.Count != 0 {
		t.Errorf("count = %d, want 0", list.Count)
	}
	if list.TargetArtistID == nil || *list.TargetArtistID != 9999 {
		t.Errorf("target_artist_id = %v, want 9999", list.TargetArtistID)
	}
}

func TestRecommendations_EngineErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      error
		wantCode int
		wantAPI  string
	}{
		{
			name:     "load failure",
			err:      fmt.Errorf("%w: tracks: %w", catalog.ErrLoadFailed, errors.New("db down")),
			wantCode: http.StatusServiceUnavailable,
			wantAPI:  CodeNotReady,
		},
		{
			name:     "timeout",
			err:      fmt.Errorf("%w: tracks: %w", catalog.ErrLoadFailed, context.DeadlineExceeded),
			wantCode: http.StatusGatewayTimeout,
			wantAPI:  CodeTimeout,
		},
		{
			name:     "unexpected",
			err:      errors.New("boom"),
			wantCode: http.StatusInternalServerError,
			wantAPI:  CodeInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			h := newTestHandler(&mockEngine{err: tt.err}, nil)
			req := withURLParam(httptest.NewRequest(http.MethodGet, "/api/v1/tracks/2/reco", nil), "id", "2")
			rec := httptest.NewRecorder()
			h.TrackRecommendations(rec, req)

			if rec.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantCode)
			}
			env := decodeEnvelope(t, rec)
			if env.Error == nil || env.Error.Code != tt.wantAPI {
				t.Errorf("error = %+v, want code %s", env.Error, tt.wantAPI)
			}
		})
	}
}

func TestTrackRecommendationsMulti_Get(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		query     string
		wantCode  int
		wantIDs   []int64
		wantLimit int
	}{
		{name: "ids and limit", query: "?ids=2,3&limit=7", wantCode: http.StatusOK, wantIDs: []int64{2, 3}, wantLimit: 7},
		{name: "duplicate ids pass through", query: "?ids=2,2", wantCode: http.StatusOK, wantIDs: []int64{2, 2}, wantLimit: 5},
		{name: "missing ids", query: "", wantCode: http.StatusBadRequest},
		{name: "bad id", query: "?ids=2,b", wantCode: http.StatusBadRequest},
		{name: "too many seeds", query: "?ids=1,2,3,4", wantCode: http.StatusBadRequest},
		{name: "bad limit", query: "?ids=1&limit=99", wantCode: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			engine := &mockEngine{}
			h := newTestHandler(engine, nil)
			rec := httptest.NewRecorder()
			h.TrackRecommendationsMulti(rec, httptest.NewRequest(http.MethodGet, "/api/v1/tracks/reco"+tt.query, nil))

			if rec.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tt.wantCode, rec.Body.String())
			}
			if tt.wantCode != http.StatusOK {
				return
			}
			ids, limit := engine.last()
			if fmt.Sprint(ids) != fmt.Sprint(tt.wantIDs) || limit != tt.wantLimit {
				t.Errorf("engine got ids=%v limit=%d, want ids=%v limit=%d", ids, limit, tt.wantIDs, tt.wantLimit)
			}
			if strings.Contains(rec.Body.String(), "target_") {
				t.Errorf("multi-seed body should not carry a target id: %s", rec.Body.String())
			}
		})
	}
}

func TestArtistRecommendationsMulti_Post(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		body      string
		wantCode  int
		wantIDs   []int64
		wantLimit int
	}{
		{name: "ids only", body: `{"ids":[1,4]}`, wantCode: http.StatusOK, wantIDs: []int64{1, 4}, wantLimit: 5},
		{name: "ids and limit", body: `{"ids":[1],"limit":20}`, wantCode: http.StatusOK, wantIDs: []int64{1}, wantLimit: 20},
		{name: "explicit zero limit", body: `{"ids":[1],"limit":0}`, wantCode: http.StatusBadRequest},
		{name: "empty ids", body: `{"ids":[]}`, wantCode: http.StatusBadRequest},
		{name: "negative id", body: `{"ids":[-1]}`, wantCode: http.StatusBadRequest},
		{name: "too many seeds", body: `{"ids":[1,2,3,4]}`, wantCode: http.StatusBadRequest},
		{name: "unknown field", body: `{"ids":[1],"user":3}`, wantCode: http.StatusBadRequest},
		{name: "malformed", body: `{"ids":`, wantCode: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			engine := &mockEngine{}
			h := newTestHandler(engine, nil)
			req := httptest.NewRequest(http.MethodPost, "/api/v1/artists/reco", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			rec := httptest.NewRecorder()
			h.ArtistRecommendationsMulti(rec, req)

			if rec.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tt.wantCode, rec.Body.String())
			}
			if tt.wantCode != http.StatusOK {
				env := decodeEnvelope(t, rec)
				if env.Error == nil || env.Error.Code != CodeValidation {
					t.Errorf("error = %+v, want VALIDATION_ERROR", env.Error)
				}
				return
			}
			ids, limit := engine.last()
			if fmt.Sprint(ids) != fmt.Sprint(tt.wantIDs) || limit != tt.wantLimit {
				t.Errorf("engine got ids=%v limit=%d, want ids=%v limit=%d", ids, limit, tt.wantIDs, tt.wantLimit)
			}
		})
	}
}

func TestSearchTracks(t *testing.T) {
	t.Parallel()

	t.Run("passes filters and default limit", func(t *testing.T) {
		t.Parallel()

		store := &mockStore{tracks: []models.Track{{ID: 2, Title: "Love Song", ArtistName: "AWOL"}}}
		h := newTestHandler(&mockEngine{}, store)
		rec := httptest.NewRecorder()
		h.SearchTracks(rec, httptest.NewRequest(http.MethodGet, "/api/v1/tracks/search?title=love&artist=awol", nil))

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		if store.lastTitle != "love" || store.lastArtist != "awol" || store.lastLimit != defaultSearchLimit {
			t.Errorf("store got (%q, %q, %d)", store.lastTitle, store.lastArtist, store.lastLimit)
		}
		list := decodeList[models.Track](t, decodeEnvelope(t, rec))
		if list.Count != 1 || list.Results[0].ID != 2 {
			t.Errorf("list = %+v", list)
		}
	})

	t.Run("limit out of range", func(t *testing.T) {
		t.Parallel()

		h := newTestHandler(&mockEngine{}, &mockStore{})
		rec := httptest.NewRecorder()
		h.SearchTracks(rec, httptest.NewRequest(http.MethodGet, "/api/v1/tracks/search?title=a&limit=500", nil))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("no store", func(t *testing.T) {
		t.Parallel()

		h := newTestHandler(&mockEngine{}, nil)
		rec := httptest.NewRecorder()
		h.SearchTracks(rec, httptest.NewRequest(http.MethodGet, "/api/v1/tracks/search?title=a", nil))
		if rec.Code != http.StatusServiceUnavailable {
			t.Errorf("status = %d, want 503", rec.Code)
		}
	})

	t.Run("store error", func(t *testing.T) {
		t.Parallel()

		h := newTestHandler(&mockEngine{}, &mockStore{err: errors.New("query failed")})
		rec := httptest.NewRecorder()
		h.SearchTracks(rec, httptest.NewRequest(http.MethodGet, "/api/v1/tracks/search?title=a", nil))
		if rec.Code != http.StatusInternalServerError {
			t.Errorf("status = %d, want 500", rec.Code)
		}
	})
}
