// Soundalike - Content-Based Music Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/soundalike

package recommend

import (
	"context"
	"fmt"

	"github.com/tomtom215/soundalike/internal/models"
	"github.com/tomtom215/soundalike/internal/recommend/catalog"
	"github.com/tomtom215/soundalike/internal/recommend/embeddings"
)

// Kind selects which index an operation applies to.
type Kind string

const (
	KindTracks  Kind = "tracks"
	KindArtists Kind = "artists"
	KindAll     Kind = "all"
)

// ParseKind parses a kind name. The empty string means KindAll.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case "", KindAll:
		return KindAll, nil
	case KindTracks, KindArtists:
		return Kind(s), nil
	default:
		return "", fmt.Errorf("unknown index kind %q", s)
	}
}

// TrackSource loads every track in one bulk read. *database.DB implements it.
type TrackSource interface {
	LoadTracks(ctx context.Context) ([]models.Track, error)
}

// ArtistSource loads every artist that has a stored embedding.
// *database.DB implements it.
type ArtistSource interface {
	LoadArtists(ctx context.Context) ([]models.Artist, error)
}

// EmbeddingMaintainer fills in missing artist embeddings.
// *embeddings.Maintainer implements it.
type EmbeddingMaintainer interface {
	Sync(ctx context.Context) (embeddings.SyncResult, error)
	LastResult() (embeddings.SyncResult, bool)
}

// Stats reports engine state for health and status endpoints.
type Stats struct {
	Tracks   catalog.IndexStats     `json:"tracks"`
	Artists  catalog.IndexStats     `json:"artists"`
	LastSync *embeddings.SyncResult `json:"last_sync,omitempty"`
	Requests int64                  `json:"requests"`
	Errors   int64                  `json:"errors"`
}

// Ready reports whether both indexes hold a snapshot.
func (s Stats) Ready() bool {
	return s.Tracks.State == catalog.StateReady.String() && s.Artists.State == catalog.StateReady.String()
}
