// Soundalike - Content-Based Music Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/soundalike

/*
Package api provides the HTTP API for Soundalike.

Routes are served by a Chi router with a shared middleware stack (request IDs
carried into the logging context, real client IP, panic recovery, CORS, rate
limiting, security headers, Prometheus instrumentation).

Endpoints:

	GET  /api/v1/health/live            process is up
	GET  /api/v1/health/ready           both catalog snapshots are loaded
	GET  /api/v1/health                 engine stats and catalog counts

	GET  /api/v1/tracks/{id}/reco       tracks similar to one track
	GET  /api/v1/tracks/reco?ids=1,2    tracks similar to several tracks
	POST /api/v1/tracks/reco            same, ids in a JSON body
	GET  /api/v1/tracks/search          find seed tracks by title and artist
	GET  /api/v1/artists/{id}/reco      artists similar to one artist
	GET  /api/v1/artists/reco?ids=1,2   artists similar to several artists
	POST /api/v1/artists/reco           same, ids in a JSON body

	POST /api/v1/catalog/refresh?kind=  rebuild snapshots (tracks|artists|all)
	POST /api/v1/catalog/embeddings/sync
	GET  /metrics                       Prometheus exposition

Every JSON response uses the models.APIResponse envelope. Recommendation
payloads are {"count": n, "results": [...]}, plus target_track_id or
target_artist_id on the single-seed routes; an empty result is a 200 with
count 0, never an error.

Error codes:

	VALIDATION_ERROR     400  bad id, limit, or body
	NOT_READY            503  a catalog snapshot could not be loaded
	ENCODER_UNAVAILABLE  503  the text encoder is failing or its breaker is open
	SYNC_IN_PROGRESS     409  another embedding sync is running
	TIMEOUT              504  the query exceeded its deadline
	INTERNAL_ERROR       500  anything else

Usage:

	handler := api.NewHandler(engine, db, cfg)
	router := api.NewRouter(handler, api.NewChiMiddlewareFromConfig(&cfg.Security))
	srv := &http.Server{Addr: cfg.Server.Addr(), Handler: router.SetupChi()}
*/
package api
