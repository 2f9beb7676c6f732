// Soundalike - Content-Based Music Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/soundalike

package catalog

import (
	"context"
	"time"
)

// Record is anything the index can hold.
type Record interface {
	RecordID() int64
}

// Loader fetches every record of one kind in a single bulk read.
type Loader[R Record] interface {
	Load(ctx context.Context) ([]R, error)
}

// LoaderFunc adapts a plain function to Loader.
type LoaderFunc[R Record] func(ctx context.Context) ([]R, error)

// Load calls f.
func (f LoaderFunc[R]) Load(ctx context.Context) ([]R, error) {
	return f(ctx)
}

// Encoder returns the feature vector of a record. ok=false means the record
// has no vector yet and is left out of the snapshot.
type Encoder[R Record] func(record R) (vec []float64, ok bool)

// AlwaysEncode adapts a total encoding function to Encoder.
func AlwaysEncode[R Record](fn func(R) []float64) Encoder[R] {
	return func(record R) ([]float64, bool) {
		return fn(record), true
	}
}

// Snapshot is an immutable view of the catalog at one point in time.
// Matrix[i] is the vector of Records[i]. Callers must not modify it.
type Snapshot[R Record] struct {
	Records   []R
	Matrix    [][]float64
	Dimension int
	BuiltAt   time.Time

	index map[int64]int
}

// Len returns the number of rows.
func (s *Snapshot[R]) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Records)
}

// Row returns the row holding id.
func (s *Snapshot[R]) Row(id int64) (int, bool) {
	if s == nil {
		return 0, false
	}
	row, ok := s.index[id]
	return row, ok
}

// skipReason labels rows left out of a build.
type skipReason string

const (
	skipNoVector  skipReason = "no_vector"
	skipDimension skipReason = "dimension_mismatch"
	skipDuplicate skipReason = "duplicate_id"
)

// buildSnapshot encodes records in order and stacks the accepted rows.
// The first accepted row fixes the dimension. onSkip is called for every
// rejected record.
func buildSnapshot[R Record](records []R, encode Encoder[R], onSkip func(record R, reason skipReason, dim int)) *Snapshot[R] {
	snap := &Snapshot[R]{
		Records: make([]R, 0, len(records)),
		Matrix:  make([][]float64, 0, len(records)),
		index:   make(map[int64]int, len(records)),
		BuiltAt: time.Now(),
	}

	for _, record := range records {
		vec, ok := encode(record)
		if !ok || len(vec) == 0 {
			onSkip(record, skipNoVector, len(vec))
			continue
		}
		if snap.Dimension == 0 {
			snap.Dimension = len(vec)
		} else if len(vec) != snap.Dimension {
			onSkip(record, skipDimension, len(vec))
			continue
		}
		id := record.RecordID()
		if _, seen := snap.index[id]; seen {
			onSkip(record, skipDuplicate, len(vec))
			continue
		}

		snap.index[id] = len(snap.Records)
		snap.Records = append(snap.Records, record)
		snap.Matrix = append(snap.Matrix, vec)
	}

	return snap
}
