// Soundalike - Content-Based Music Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/soundalike

/*
Package supervisor provides process supervision for Soundalike using suture v4.

Long-running services are organized into two layers:

	RootSupervisor ("soundalike")
	├── CatalogSupervisor ("catalog-layer")
	│   ├── CatalogMaintenanceService  (startup sync/warm, periodic refresh)
	│   └── CatalogEventsService       (if NATS_ENABLED, build tag: nats)
	└── APISupervisor ("api-layer")
	    └── HTTPServerService

A failing embedding sync or a broker outage restarts inside the catalog
layer; the API keeps answering from the snapshots it already has.

Supervisor events (start, failure, backoff) are logged through sutureslog,
which is given an slog.Logger bridged onto zerolog:

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	tree.AddCatalogService(services.NewCatalogMaintenanceService(engine, cfg, logger))
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.Addr(), 10*time.Second))
	err = tree.Serve(ctx)
*/
package supervisor
