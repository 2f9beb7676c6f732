// Soundalike - Content-Based Music Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/soundalike

package models

import (
	"time"
)

// APIResponse is the envelope written by every HTTP endpoint.
//
// Status is "success" (see Data) or "error" (see Error).
//
//	{
//	  "status": "success",
//	  "data": {"count": 2, "results": [...]},
//	  "metadata": {"timestamp": "2026-03-01T12:00:00Z", "query_time_ms": 3}
//	}
type APIResponse struct {
	Status   string      `json:"status"`
	Data     interface{} `json:"data"`
	Metadata Metadata    `json:"metadata"`
	Error    *APIError   `json:"error,omitempty"`
}

// Metadata carries response timing.
type Metadata struct {
	Timestamp   time.Time `json:"timestamp"`
	QueryTimeMS int64     `json:"query_time_ms,omitempty"`
}

// APIError describes a failed request.
//
// Codes used by the API:
//   - VALIDATION_ERROR: bad path or query parameter (400)
//   - NOT_READY: catalog snapshot could not be loaded (503)
//   - TIMEOUT: query exceeded its deadline (504)
//   - INTERNAL_ERROR: anything else (500)
type APIError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// RecommendationList is the data payload of the recommendation endpoints.
// The single-seed routes echo their seed as target_track_id or
// target_artist_id.
type RecommendationList[T any] struct {
	TargetTrackID  *int64 `json:"target_track_id,omitempty"`
	TargetArtistID *int64 `json:"target_artist_id,omitempty"`
	Count          int    `json:"count"`
	Results        []T    `json:"results"`
}

// NewRecommendationList wraps results, never emitting a null array.
func NewRecommendationList[T any](results []T) RecommendationList[T] {
	if results == nil {
		results = []T{}
	}
	return RecommendationList[T]{Count: len(results), Results: results}
}
