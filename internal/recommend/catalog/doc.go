// Soundalike - Content-Based Music Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/soundalike

/*
Package catalog holds the in-memory feature index the similarity engine
searches.

An Index owns one immutable Snapshot at a time: the catalog records in
fetch order, a parallel feature matrix (row i belongs to record i) and an
id to row map. A rebuild loads every record with one bulk Loader call,
encodes it and installs the new Snapshot with a single atomic pointer
store, so readers either see the old snapshot or the complete new one.

# Lifecycle

	Empty --EnsureLoaded/Refresh--> Loading --ok--> Ready
	                                   |
	                                   +--error--> Ready (previous kept) or Empty

Rebuilds are serialized by a mutex. A caller of EnsureLoaded that arrives
while a build is running waits for it and reuses the result instead of
starting another one.

# Row filtering

Rows are skipped, with a warning and a metric, when the encoder reports no
vector, when the vector width differs from the first accepted row, or when
the id was already seen (the first row wins).

# Usage

	tracks := catalog.NewIndex("tracks", catalog.LoaderFunc[models.Track](db.LoadTracks),
		catalog.AlwaysEncode(features.DefaultTrackEncoder().Encode), logger)

	snap, err := tracks.EnsureLoaded(ctx)
	if errors.Is(err, catalog.ErrLoadFailed) {
		// serve 503
	}
	row, ok := snap.Row(42)
*/
package catalog
