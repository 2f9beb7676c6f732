// Soundalike - Content-Based Music Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/soundalike

package database

import (
	"context"
	"fmt"
)

// Column and table names follow the catalog the service was first deployed
// against, so existing dumps load without renames.
var schemaStatements = []struct {
	name string
	ddl  string
}{
	{"tracks", `CREATE TABLE IF NOT EXISTS tracks (
		track_id BIGINT PRIMARY KEY,
		track_title VARCHAR,
		track_duration DOUBLE,
		track_bit_rate DOUBLE,
		track_genre_top VARCHAR,
		track_genre VARCHAR,
		track_listens BIGINT
	)`},
	{"artist", `CREATE TABLE IF NOT EXISTS artist (
		artist_id BIGINT PRIMARY KEY,
		artist_name VARCHAR,
		artist_bio VARCHAR,
		artist_tags VARCHAR,
		artist_location VARCHAR,
		artist_associated_label VARCHAR
	)`},
	{"album_artist_track", `CREATE TABLE IF NOT EXISTS album_artist_track (
		album_id BIGINT NOT NULL,
		artist_id BIGINT NOT NULL,
		track_id BIGINT NOT NULL,
		PRIMARY KEY (album_id, artist_id, track_id)
	)`},
}

func (db *DB) createTables(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := db.conn.ExecContext(ctx, stmt.ddl); err != nil {
			return fmt.Errorf("failed to create table %s: %w", stmt.name, err)
		}
	}
	return nil
}
