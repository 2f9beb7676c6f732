// Soundalike - Content-Based Music Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/soundalike

// Package models defines the catalog records and API payloads shared across
// Soundalike packages.
package models

// Track is one catalog track as read for feature encoding.
//
// Nullable numeric columns arrive as zero. ArtistID and ArtistName come from
// the first artist linked through album_artist_track and are zero/empty for
// unlinked tracks.
type Track struct {
	ID         int64   `json:"track_id"`
	Title      string  `json:"track_title"`
	Duration   float64 `json:"track_duration"` // seconds
	BitRate    float64 `json:"track_bit_rate"` // kbps
	GenreTop   string  `json:"track_genre_top"`
	Genre      string  `json:"track_genre"`
	Listens    int64   `json:"track_listens"`
	ArtistID   int64   `json:"artist_id,omitempty"`
	ArtistName string  `json:"artist_name,omitempty"`
}

// RecordID implements catalog.Record.
func (t Track) RecordID() int64 { return t.ID }

// Artist is one catalog artist.
//
// Embedding is the stored semantic vector, nil when none has been written yet.
type Artist struct {
	ID              int64     `json:"artist_id"`
	Name            string    `json:"artist_name"`
	Bio             string    `json:"artist_bio,omitempty"`
	Tags            string    `json:"artist_tags,omitempty"`
	Location        string    `json:"artist_location,omitempty"`
	AssociatedLabel string    `json:"artist_associated_label,omitempty"`
	Embedding       []float64 `json:"-"`
}

// RecordID implements catalog.Record.
func (a Artist) RecordID() int64 { return a.ID }

// TrackRecommendation is one ranked similar track.
type TrackRecommendation struct {
	TrackID    int64   `json:"track_id"`
	TrackTitle string  `json:"track_title"`
	ArtistID   int64   `json:"artist_id,omitempty"`
	ArtistName string  `json:"artist_name,omitempty"`
	Similarity float64 `json:"similarity"`
}

// ArtistRecommendation is one ranked similar artist.
type ArtistRecommendation struct {
	ArtistID   int64   `json:"artist_id"`
	ArtistName string  `json:"artist_name"`
	Similarity float64 `json:"similarity"`
}
