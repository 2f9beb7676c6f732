// Soundalike - Content-Based Music Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/soundalike

package api

// Request structs carry go-playground/validator tags. Bounds that come from
// configuration (limit ceiling, seed count) are checked with validateVar in
// the handlers instead.

// SeedsRequest is the JSON body of the multi-seed endpoints.
//
//	{"ids": [2, 3, 10], "limit": 10}
type SeedsRequest struct {
	IDs   []int64 `json:"ids" validate:"required,min=1,dive,gt=0"`
	Limit *int    `json:"limit,omitempty"`
}

// SearchRequest holds the query parameters of /tracks/search.
type SearchRequest struct {
	Title  string `query:"title" validate:"max=200"`
	Artist string `query:"artist" validate:"max=200"`
	Limit  int    `query:"limit" validate:"min=1,max=100"`
}

// RefreshRequest holds the query parameters of /catalog/refresh.
type RefreshRequest struct {
	Kind string `query:"kind" validate:"omitempty,oneof=tracks artists all"`
}

// defaultSearchLimit matches the catalog lookup used to pick seed tracks.
const defaultSearchLimit = 10
