// Soundalike - Content-Based Music Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/soundalike

package catalog

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/soundalike/internal/logging"
	"github.com/tomtom215/soundalike/internal/metrics"
)

// ErrLoadFailed is returned when a snapshot could not be built. The
// previously installed snapshot, if any, stays in place.
var ErrLoadFailed = errors.New("catalog snapshot load failed")

// State is the lifecycle state of an Index.
type State int32

const (
	StateEmpty State = iota
	StateLoading
	StateReady
)

// String returns the lower-case state name.
func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Index owns the current Snapshot of one record kind. It is safe for
// concurrent use.
type Index[R Record] struct {
	name   string
	loader Loader[R]
	encode Encoder[R]
	logger zerolog.Logger

	current atomic.Pointer[Snapshot[R]]
	state   atomic.Int32
	buildMu sync.Mutex

	builds   atomic.Int64
	failures atomic.Int64
}

// NewIndex creates an empty index. name labels logs and metrics.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewIndex[R Record](name string, loader Loader[R], encode Encoder[R], logger zerolog.Logger) *Index[R] {
	ix := &Index[R]{
		name:   name,
		loader: loader,
		encode: encode,
		logger: logger.With().Str("component", "catalog").Str("index", name).Logger(),
	}
	metrics.SetSnapshotState(name, int(StateEmpty))
	return ix
}

// Name returns the index name.
func (ix *Index[R]) Name() string {
	return ix.name
}

// State returns the current lifecycle state.
func (ix *Index[R]) State() State {
	return State(ix.state.Load())
}

// Current returns the installed snapshot or nil. It never blocks.
func (ix *Index[R]) Current() *Snapshot[R] {
	return ix.current.Load()
}

// EnsureLoaded returns the installed snapshot, building it first if none
// exists. Concurrent first callers share one build.
func (ix *Index[R]) EnsureLoaded(ctx context.Context) (*Snapshot[R], error) {
	if snap := ix.current.Load(); snap != nil {
		return snap, nil
	}

	ix.buildMu.Lock()
	defer ix.buildMu.Unlock()

	// A build that finished while we waited for the lock is reused.
	if snap := ix.current.Load(); snap != nil {
		return snap, nil
	}
	return ix.rebuildLocked(ctx)
}

// Refresh rebuilds the snapshot from the loader and swaps it in.
func (ix *Index[R]) Refresh(ctx context.Context) (*Snapshot[R], error) {
	ix.buildMu.Lock()
	defer ix.buildMu.Unlock()

	return ix.rebuildLocked(ctx)
}

// IndexStats summarizes an index for health and status endpoints.
type IndexStats struct {
	Name      string    `json:"name"`
	State     string    `json:"state"`
	Rows      int       `json:"rows"`
	Dimension int       `json:"dimension"`
	BuiltAt   time.Time `json:"built_at,omitempty"`
	Builds    int64     `json:"builds"`
	Failures  int64     `json:"failures"`
}

// Stats returns a point-in-time summary.
func (ix *Index[R]) Stats() IndexStats {
	stats := IndexStats{
		Name:     ix.name,
		State:    ix.State().String(),
		Builds:   ix.builds.Load(),
		Failures: ix.failures.Load(),
	}
	if snap := ix.current.Load(); snap != nil {
		stats.Rows = snap.Len()
		stats.Dimension = snap.Dimension
		stats.BuiltAt = snap.BuiltAt
	}
	return stats
}

// rebuildLocked must be called with buildMu held.
func (ix *Index[R]) rebuildLocked(ctx context.Context) (*Snapshot[R], error) {
	ix.setState(StateLoading)
	start := time.Now()
	ix.builds.Add(1)

	log := logging.Ctx(logging.ContextWithLogger(ctx, ix.logger))

	records, err := ix.loader.Load(ctx)
	if err != nil {
		ix.failures.Add(1)
		ix.restoreState()
		metrics.RecordSnapshotBuild(ix.name, time.Since(start), 0, err)
		log.Error().Err(err).Msg("Snapshot build failed, keeping previous snapshot")
		return nil, fmt.Errorf("%w: %s: %w", ErrLoadFailed, ix.name, err)
	}

	snap := buildSnapshot(records, ix.encode, func(record R, reason skipReason, dim int) {
		metrics.RecordSnapshotSkip(ix.name, string(reason))
		ev := log.Warn()
		if reason == skipNoVector {
			ev = log.Debug()
		}
		ev.Int64("id", record.RecordID()).
			Str("reason", string(reason)).
			Int("dimension", dim).
			Msg("Row skipped")
	})

	ix.current.Store(snap)
	ix.setState(StateReady)

	duration := time.Since(start)
	metrics.RecordSnapshotBuild(ix.name, duration, snap.Len(), nil)
	log.Info().
		Int("rows", snap.Len()).
		Int("fetched", len(records)).
		Int("dimension", snap.Dimension).
		Dur("duration", duration).
		Msg("Snapshot built")

	return snap, nil
}

// restoreState returns the state to Ready when a previous snapshot exists
// and to Empty otherwise.
func (ix *Index[R]) restoreState() {
	if ix.current.Load() != nil {
		ix.setState(StateReady)
		return
	}
	ix.setState(StateEmpty)
}

func (ix *Index[R]) setState(s State) {
	ix.state.Store(int32(s))
	metrics.SetSnapshotState(ix.name, int(s))
}
