// Soundalike - Content-Based Music Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/soundalike

package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/goccy/go-json"

	"github.com/tomtom215/soundalike/internal/catalogevents"
	"github.com/tomtom215/soundalike/internal/config"
	"github.com/tomtom215/soundalike/internal/database"
	"github.com/tomtom215/soundalike/internal/logging"
	"github.com/tomtom215/soundalike/internal/supervisor"
)

// CatalogImporter writes a seed catalog. *database.DB implements it.
type CatalogImporter interface {
	ImportCatalog(ctx context.Context, in *database.CatalogImport) (database.ImportResult, error)
}

// importSeedFile loads a JSON catalog ({"artists": [...], "tracks": [...],
// "links": [...]}) and upserts it.
func importSeedFile(ctx context.Context, db CatalogImporter, path string) (database.ImportResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return database.ImportResult{}, fmt.Errorf("read seed file: %w", err)
	}

	var in database.CatalogImport
	if err := json.Unmarshal(data, &in); err != nil {
		return database.ImportResult{}, fmt.Errorf("decode seed file: %w", err)
	}
	return db.ImportCatalog(ctx, &in)
}

// initCatalogEvents subscribes to catalog change events when NATS is
// enabled. Binaries built without -tags nats log a warning and rely on
// the periodic refresh.
func initCatalogEvents(cfg *config.Config, engine catalogevents.Refresher, tree *supervisor.SupervisorTree) error {
	if !cfg.NATS.Enabled {
		logging.Info().Msg("Catalog events disabled (NATS_ENABLED=false)")
		return nil
	}

	eventsCfg := catalogevents.ConfigFromApp(&cfg.NATS)
	svc, err := catalogevents.NewService(
		eventsCfg,
		catalogevents.NewHandler(engine, eventsCfg.HandleTimeout),
		logging.WithComponent("catalog-events"),
	)
	if errors.Is(err, catalogevents.ErrNATSNotCompiled) {
		logging.Warn().Msg("NATS_ENABLED=true but NATS support not compiled (build with -tags nats)")
		return nil
	}
	if err != nil {
		return err
	}

	tree.AddCatalogService(svc)
	logging.Info().
		Str("url", eventsCfg.URL).
		Str("subject", eventsCfg.Subject).
		Str("stream", eventsCfg.Stream).
		Msg("Catalog event subscriber added to supervisor tree")
	return nil
}
