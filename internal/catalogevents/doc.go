// Soundalike - Content-Based Music Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/soundalike

/*
Package catalogevents rebuilds catalog snapshots when the catalog owner
announces a change over NATS.

Whatever writes the catalog (an importer, the CRUD service) publishes a
CatalogChanged message on a JetStream subject (default "catalog.changed"):

	{"kind": "tracks", "sync_embeddings": false, "reason": "bulk import"}

kind is "tracks", "artists" or "all" (empty means all). When
sync_embeddings is set and artists are affected, missing artist embeddings
are computed first; the sync itself rebuilds the artist snapshot.

Handling outcomes:
  - applied: the snapshots were rebuilt; the message is acked
  - invalid: undecodable payload or unknown kind; acked and dropped
  - failed: the rebuild failed; nacked for redelivery up to MaxDeliver

The NATS transport is compiled only with -tags nats. Without the tag
NewService returns ErrNATSNotCompiled and the server relies on the
periodic refresh instead. Handler has no build tag and can be driven
directly.
*/
package catalogevents
