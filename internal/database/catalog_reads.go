// Soundalike - Content-Based Music Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/soundalike

package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/tomtom215/soundalike/internal/database/query"
	"github.com/tomtom215/soundalike/internal/logging"
	"github.com/tomtom215/soundalike/internal/metrics"
	"github.com/tomtom215/soundalike/internal/models"
)

// trackSelect joins each track to its first linked artist (lowest artist_id).
const trackSelect = `
	SELECT
		t.track_id,
		COALESCE(t.track_title, '') AS track_title,
		t.track_duration,
		t.track_bit_rate,
		COALESCE(t.track_genre_top, '') AS track_genre_top,
		COALESCE(t.track_genre, '') AS track_genre,
		COALESCE(t.track_listens, 0) AS track_listens,
		a.artist_id,
		COALESCE(a.artist_name, '') AS artist_name
	FROM tracks t
	LEFT JOIN (
		SELECT track_id, MIN(artist_id) AS artist_id
		FROM album_artist_track
		GROUP BY track_id
	) first_artist ON first_artist.track_id = t.track_id
	LEFT JOIN artist a ON a.artist_id = first_artist.artist_id`

const artistSelect = `
	SELECT
		artist_id,
		COALESCE(artist_name, '') AS artist_name,
		COALESCE(artist_bio, '') AS artist_bio,
		COALESCE(artist_tags, '') AS artist_tags,
		COALESCE(artist_location, '') AS artist_location,
		COALESCE(artist_associated_label, '') AS artist_associated_label,
		artist_embedding
	FROM artist`

// LoadTracks returns every track in one query, ordered by track_id.
func (db *DB) LoadTracks(ctx context.Context) (tracks []models.Track, err error) {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("load_tracks", "tracks", time.Since(start), err) }()

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	return db.queryTracks(ctx, trackSelect+"\n\tORDER BY t.track_id")
}

// SearchTracks finds tracks whose title (and, when given, first artist name)
// contain the given text, case-insensitively. Results are ordered by listens,
// most played first.
func (db *DB) SearchTracks(ctx context.Context, title, artistName string, limit int) (tracks []models.Track, err error) {
	if limit <= 0 {
		return []models.Track{}, nil
	}

	start := time.Now()
	defer func() { metrics.RecordDBQuery("search_tracks", "tracks", time.Since(start), err) }()

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	wb := query.NewWhereBuilder().
		AddContains("t.track_title", title).
		AddContains("a.artist_name", artistName)
	where, args := wb.BuildWithPrefix()

	q := fmt.Sprintf("%s\n\t%s\n\tORDER BY COALESCE(t.track_listens, 0) DESC, t.track_id\n\tLIMIT %d", trackSelect, where, limit)

	return db.queryTracks(ctx, q, args...)
}

// GetTracksByID returns the tracks with the given ids, ordered by track_id.
// Unknown ids are absent from the result.
func (db *DB) GetTracksByID(ctx context.Context, ids []int64) (tracks []models.Track, err error) {
	if len(ids) == 0 {
		return []models.Track{}, nil
	}

	start := time.Now()
	defer func() { metrics.RecordDBQuery("get_tracks", "tracks", time.Since(start), err) }()

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	where, args := query.NewWhereBuilder().AddInt64s("t.track_id", ids).BuildWithPrefix()
	return db.queryTracks(ctx, trackSelect+"\n\t"+where+"\n\tORDER BY t.track_id", args...)
}

func (db *DB) queryTracks(ctx context.Context, q string, args ...interface{}) ([]models.Track, error) {
	rows, err := db.conn.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query tracks: %w", err)
	}
	defer closeWithLog(rows, "rows")

	tracks := make([]models.Track, 0, 256)
	for rows.Next() {
		var (
			t        models.Track
			duration sql.NullFloat64
			bitRate  sql.NullFloat64
			artistID sql.NullInt64
		)
		if err := rows.Scan(&t.ID, &t.Title, &duration, &bitRate, &t.GenreTop, &t.Genre, &t.Listens, &artistID, &t.ArtistName); err != nil {
			return nil, fmt.Errorf("scan track: %w", err)
		}
		t.Duration = duration.Float64
		t.BitRate = bitRate.Float64
		t.ArtistID = artistID.Int64
		tracks = append(tracks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tracks: %w", err)
	}
	return tracks, nil
}

// LoadArtists returns every artist that has a stored embedding, ordered by
// artist_id. Artists whose stored embedding cannot be decoded are skipped
// with a warning.
func (db *DB) LoadArtists(ctx context.Context) (artists []models.Artist, err error) {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("load_artists", "artist", time.Since(start), err) }()

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	return db.queryArtists(ctx, artistSelect+"\n\tWHERE artist_embedding IS NOT NULL\n\tORDER BY artist_id", true)
}

// ArtistsMissingEmbedding returns every artist without a stored embedding,
// ordered by artist_id.
func (db *DB) ArtistsMissingEmbedding(ctx context.Context) (artists []models.Artist, err error) {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("artists_missing_embedding", "artist", time.Since(start), err) }()

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	return db.queryArtists(ctx, artistSelect+"\n\tWHERE artist_embedding IS NULL\n\tORDER BY artist_id", false)
}

func (db *DB) queryArtists(ctx context.Context, q string, decodeEmbedding bool) ([]models.Artist, error) {
	rows, err := db.conn.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("query artists: %w", err)
	}
	defer closeWithLog(rows, "rows")

	artists := make([]models.Artist, 0, 256)
	for rows.Next() {
		var (
			a         models.Artist
			embedding sql.NullString
		)
		if err := rows.Scan(&a.ID, &a.Name, &a.Bio, &a.Tags, &a.Location, &a.AssociatedLabel, &embedding); err != nil {
			return nil, fmt.Errorf("scan artist: %w", err)
		}
		if decodeEmbedding && embedding.Valid {
			vec, err := decodeEmbeddingColumn(embedding.String)
			if err != nil {
				logging.Warn().Int64("artist_id", a.ID).Err(err).Msg("Skipping artist with unreadable embedding")
				continue
			}
			a.Embedding = vec
		}
		artists = append(artists, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate artists: %w", err)
	}
	return artists, nil
}

// CatalogCounts summarizes the catalog for health reporting.
type CatalogCounts struct {
	Tracks           int64 `json:"tracks"`
	Artists          int64 `json:"artists"`
	ArtistsEmbedded  int64 `json:"artists_embedded"`
	TrackArtistLinks int64 `json:"track_artist_links"`
}

// GetCatalogCounts returns row counts of the catalog tables.
func (db *DB) GetCatalogCounts(ctx context.Context) (CatalogCounts, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var c CatalogCounts
	err := db.conn.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM tracks),
			(SELECT COUNT(*) FROM artist),
			(SELECT COUNT(*) FROM artist WHERE artist_embedding IS NOT NULL),
			(SELECT COUNT(*) FROM album_artist_track)`).
		Scan(&c.Tracks, &c.Artists, &c.ArtistsEmbedded, &c.TrackArtistLinks)
	if err != nil {
		return CatalogCounts{}, fmt.Errorf("count catalog: %w", err)
	}
	return c, nil
}
