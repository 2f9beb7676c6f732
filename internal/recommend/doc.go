// Soundalike - Content-Based Music Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/soundalike

// Package recommend implements content-based "more like this" recommendations
// for tracks and artists.
//
// # Architecture
//
// The engine keeps one catalog.Index per record kind:
//
//   - tracks: structural vectors from features.TrackEncoder (duration, bit
//     rate, hashed genre tokens)
//   - artists: semantic vectors stored in the catalog by embeddings.Maintainer
//
// A query resolves the seed ids against the current snapshot, averages their
// vectors into a profile and ranks every row by cosine similarity to it.
// Seeds never appear in their own results. Unknown seeds are dropped; if no
// seed resolves the result is empty rather than an error.
//
// # Usage
//
//	engine, err := recommend.NewEngine(recommend.DefaultConfig(), db, db, logger)
//	engine.SetMaintainer(embeddings.NewMaintainer(db, encoder, embeddings.MaintainerConfig{}, logger))
//
//	if err := engine.Initialize(ctx); err != nil {
//	    // catalog not reachable yet; queries retry the load
//	}
//	recs, err := engine.RecommendTracks(ctx, []int64{42}, 5)
//
// # Thread Safety
//
// The engine is safe for concurrent use. Queries only read the immutable
// snapshot installed in each index; refreshes build a new snapshot and swap
// it in atomically.
package recommend
