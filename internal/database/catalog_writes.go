// Soundalike - Content-Based Music Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/soundalike

package database

import (
	"context"
	"fmt"
	"time"

	"github.com/tomtom215/soundalike/internal/metrics"
	"github.com/tomtom215/soundalike/internal/models"
)

// UpsertTrack inserts or replaces one track row.
func (db *DB) UpsertTrack(ctx context.Context, t *models.Track) (err error) {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("upsert_track", "tracks", time.Since(start), err) }()

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	return withConflictRetry(ctx, func(ctx context.Context) error {
		_, err := db.conn.ExecContext(ctx, `
			INSERT INTO tracks (
				track_id, track_title, track_duration, track_bit_rate,
				track_genre_top, track_genre, track_listens
			) VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (track_id) DO UPDATE SET
				track_title = EXCLUDED.track_title,
				track_duration = EXCLUDED.track_duration,
				track_bit_rate = EXCLUDED.track_bit_rate,
				track_genre_top = EXCLUDED.track_genre_top,
				track_genre = EXCLUDED.track_genre,
				track_listens = EXCLUDED.track_listens`,
			t.ID, t.Title, t.Duration, t.BitRate, t.GenreTop, t.Genre, t.Listens)
		if err != nil {
			return fmt.Errorf("upsert track %d: %w", t.ID, err)
		}
		return nil
	})
}

// UpsertArtist inserts or updates one artist's descriptive fields.
//
// When any text field changes the stored embedding is cleared, so the next
// maintenance run re-encodes the artist. An unchanged artist keeps its
// embedding. a.Embedding is ignored; use UpsertArtistEmbedding.
func (db *DB) UpsertArtist(ctx context.Context, a *models.Artist) (err error) {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("upsert_artist", "artist", time.Since(start), err) }()

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	return withConflictRetry(ctx, func(ctx context.Context) error {
		res, err := db.conn.ExecContext(ctx, `
			UPDATE artist SET
				artist_embedding = CASE
					WHEN artist_name IS DISTINCT FROM ?
						OR artist_bio IS DISTINCT FROM ?
						OR artist_tags IS DISTINCT FROM ?
						OR artist_location IS DISTINCT FROM ?
						OR artist_associated_label IS DISTINCT FROM ?
					THEN NULL
					ELSE artist_embedding
				END,
				artist_name = ?,
				artist_bio = ?,
				artist_tags = ?,
				artist_location = ?,
				artist_associated_label = ?
			WHERE artist_id = ?`,
			a.Name, a.Bio, a.Tags, a.Location, a.AssociatedLabel,
			a.Name, a.Bio, a.Tags, a.Location, a.AssociatedLabel,
			a.ID)
		if err != nil {
			return fmt.Errorf("update artist %d: %w", a.ID, err)
		}
		if n, err := res.RowsAffected(); err == nil && n > 0 {
			return nil
		}

		_, err = db.conn.ExecContext(ctx, `
			INSERT INTO artist (
				artist_id, artist_name, artist_bio, artist_tags,
				artist_location, artist_associated_label
			) VALUES (?, ?, ?, ?, ?, ?)`,
			a.ID, a.Name, a.Bio, a.Tags, a.Location, a.AssociatedLabel)
		if err != nil {
			return fmt.Errorf("insert artist %d: %w", a.ID, err)
		}
		return nil
	})
}

// LinkTrackArtist records that artistID performs trackID on albumID.
// Linking the same triple twice is a no-op.
func (db *DB) LinkTrackArtist(ctx context.Context, albumID, artistID, trackID int64) (err error) {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("link_track_artist", "album_artist_track", time.Since(start), err) }()

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	_, err = db.conn.ExecContext(ctx, `
		INSERT INTO album_artist_track (album_id, artist_id, track_id)
		VALUES (?, ?, ?)
		ON CONFLICT DO NOTHING`,
		albumID, artistID, trackID)
	if err != nil {
		return fmt.Errorf("link track %d to artist %d: %w", trackID, artistID, err)
	}
	return nil
}

// CatalogImport is a batch of catalog rows loaded by ImportCatalog.
type CatalogImport struct {
	Tracks  []models.Track  `json:"tracks"`
	Artists []models.Artist `json:"artists"`
	Links   []TrackLink     `json:"links"`
}

// TrackLink is one album_artist_track row.
type TrackLink struct {
	AlbumID  int64 `json:"album_id"`
	ArtistID int64 `json:"artist_id"`
	TrackID  int64 `json:"track_id"`
}

// ImportResult counts the rows written by ImportCatalog.
type ImportResult struct {
	Tracks  int `json:"tracks"`
	Artists int `json:"artists"`
	Links   int `json:"links"`
}

// ImportCatalog upserts artists, tracks and links in that order, stopping at
// the first failure.
func (db *DB) ImportCatalog(ctx context.Context, in *CatalogImport) (ImportResult, error) {
	var res ImportResult
	for i := range in.Artists {
		if err := db.UpsertArtist(ctx, &in.Artists[i]); err != nil {
			return res, err
		}
		res.Artists++
	}
	for i := range in.Tracks {
		if err := db.UpsertTrack(ctx, &in.Tracks[i]); err != nil {
			return res, err
		}
		res.Tracks++
	}
	for _, l := range in.Links {
		if err := db.LinkTrackArtist(ctx, l.AlbumID, l.ArtistID, l.TrackID); err != nil {
			return res, err
		}
		res.Links++
	}
	return res, nil
}
