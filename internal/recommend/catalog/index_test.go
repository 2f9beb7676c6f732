// Soundalike - Content-Based Music Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/soundalike

package catalog

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

type testRecord struct {
	id  int64
	vec []float64
}

func (r testRecord) RecordID() int64 { return r.id }

// mockLoader returns the configured records or error and counts calls.
type mockLoader struct {
	mu      sync.Mutex
	records []testRecord
	err     error
	calls   int32
	release chan struct{}
}

func (m *mockLoader) Load(ctx context.Context) ([]testRecord, error) {
	atomic.AddInt32(&m.calls, 1)
	if m.release != nil {
		select {
		case <-m.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	return m.records, nil
}

func (m *mockLoader) set(records []testRecord, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = records
	m.err = err
}

func vectorOf(r testRecord) ([]float64, bool) {
	return r.vec, r.vec != nil
}

func newTestIndex(t *testing.T, loader Loader[testRecord]) *Index[testRecord] {
	t.Helper()
	return NewIndex[testRecord](t.Name(), loader, vectorOf, zerolog.Nop())
}

func TestIndex_EnsureLoaded(t *testing.T) {
	t.Parallel()

	loader := &mockLoader{records: []testRecord{
		{id: 1, vec: []float64{1, 0}},
		{id: 2, vec: []float64{0, 1}},
	}}
	ix := newTestIndex(t, loader)

	if ix.State() != StateEmpty {
		t.Fatalf("initial State() = %v, want empty", ix.State())
	}
	if ix.Current() != nil {
		t.Fatal("Current() before load should be nil")
	}

	snap, err := ix.EnsureLoaded(context.Background())
	if err != nil {
		t.Fatalf("EnsureLoaded() error = %v", err)
	}
	if ix.State() != StateReady {
		t.Errorf("State() = %v, want ready", ix.State())
	}
	if snap.Len() != 2 || snap.Dimension != 2 {
		t.Errorf("snapshot rows=%d dim=%d, want 2 and 2", snap.Len(), snap.Dimension)
	}

	again, err := ix.EnsureLoaded(context.Background())
	if err != nil {
		t.Fatalf("second EnsureLoaded() error = %v", err)
	}
	if again != snap {
		t.Error("second EnsureLoaded() returned a different snapshot")
	}
	if calls := atomic.LoadInt32(&loader.calls); calls != 1 {
		t.Errorf("loader called %d times, want 1", calls)
	}
}

func TestIndex_EnsureLoadedConcurrentCallersShareBuild(t *testing.T) {
	t.Parallel()

	loader := &mockLoader{
		records: []testRecord{{id: 1, vec: []float64{1}}},
		release: make(chan struct{}),
	}
	ix := newTestIndex(t, loader)

	const callers = 8
	var wg sync.WaitGroup
	snaps := make([]*Snapshot[testRecord], callers)
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			snaps[i], errs[i] = ix.EnsureLoaded(context.Background())
		}(i)
	}

	// Let the callers pile up behind the first build.
	deadline := time.Now().Add(2 * time.Second)
	for atomic.LoadInt32(&loader.calls) == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if ix.State() != StateLoading {
		t.Errorf("State() during build = %v, want loading", ix.State())
	}
	close(loader.release)
	wg.Wait()

	for i := 0; i < callers; i++ {
		if errs[i] != nil {
			t.Fatalf("caller %d error = %v", i, errs[i])
		}
		if snaps[i] != snaps[0] {
			t.Errorf("caller %d got a different snapshot", i)
		}
	}
	if calls := atomic.LoadInt32(&loader.calls); calls != 1 {
		t.Errorf("loader called %d times, want 1", calls)
	}
}

func TestIndex_RefreshSwapsSnapshot(t *testing.T) {
	t.Parallel()

	loader := &mockLoader{records: []testRecord{{id: 1, vec: []float64{1, 1}}}}
	ix := newTestIndex(t, loader)

	first, err := ix.EnsureLoaded(context.Background())
	if err != nil {
		t.Fatalf("EnsureLoaded() error = %v", err)
	}

	loader.set([]testRecord{
		{id: 1, vec: []float64{1, 1}},
		{id: 5, vec: []float64{0, 1}},
	}, nil)

	second, err := ix.Refresh(context.Background())
	if err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	if second == first {
		t.Fatal("Refresh() returned the old snapshot")
	}
	if ix.Current() != second {
		t.Error("Current() does not return the refreshed snapshot")
	}
	if first.Len() != 1 {
		t.Errorf("old snapshot mutated: rows = %d, want 1", first.Len())
	}
	if row, ok := second.Row(5); !ok || row != 1 {
		t.Errorf("Row(5) = %d, %v, want 1, true", row, ok)
	}
}

func TestIndex_LoadFailureKeepsPreviousSnapshot(t *testing.T) {
	t.Parallel()

	loader := &mockLoader{records: []testRecord{{id: 1, vec: []float64{1}}}}
	ix := newTestIndex(t, loader)

	prev, err := ix.EnsureLoaded(context.Background())
	if err != nil {
		t.Fatalf("EnsureLoaded() error = %v", err)
	}

	boom := errors.New("connection reset")
	loader.set(nil, boom)

	snap, err := ix.Refresh(context.Background())
	if !errors.Is(err, ErrLoadFailed) {
		t.Fatalf("Refresh() error = %v, want ErrLoadFailed", err)
	}
	if !errors.Is(err, boom) {
		t.Errorf("Refresh() error = %v, want it to wrap the loader error", err)
	}
	if snap != nil {
		t.Error("Refresh() returned a snapshot on failure")
	}
	if ix.Current() != prev {
		t.Error("previous snapshot was not kept")
	}
	if ix.State() != StateReady {
		t.Errorf("State() = %v, want ready", ix.State())
	}

	stats := ix.Stats()
	if stats.Builds != 2 || stats.Failures != 1 {
		t.Errorf("Stats() builds=%d failures=%d, want 2 and 1", stats.Builds, stats.Failures)
	}
}

func TestIndex_FirstLoadFailureLeavesEmpty(t *testing.T) {
	t.Parallel()

	loader := &mockLoader{err: errors.New("no such table: tracks")}
	ix := newTestIndex(t, loader)

	if _, err := ix.EnsureLoaded(context.Background()); !errors.Is(err, ErrLoadFailed) {
		t.Fatalf("EnsureLoaded() error = %v, want ErrLoadFailed", err)
	}
	if ix.State() != StateEmpty {
		t.Errorf("State() = %v, want empty", ix.State())
	}
	if ix.Current() != nil {
		t.Error("Current() should be nil after a failed first load")
	}

	// The next call retries.
	loader.set([]testRecord{{id: 3, vec: []float64{1}}}, nil)
	snap, err := ix.EnsureLoaded(context.Background())
	if err != nil {
		t.Fatalf("retry EnsureLoaded() error = %v", err)
	}
	if snap.Len() != 1 {
		t.Errorf("rows = %d, want 1", snap.Len())
	}
}

func TestIndex_BuildFiltersRows(t *testing.T) {
	t.Parallel()

	loader := &mockLoader{records: []testRecord{
		{id: 10, vec: []float64{1, 0, 0}},
		{id: 11},                          // no vector
		{id: 12, vec: []float64{1, 0}},    // width drift
		{id: 10, vec: []float64{0, 0, 1}}, // duplicate, first wins
		{id: 13, vec: []float64{0, 1, 0}},
	}}
	ix := newTestIndex(t, loader)

	snap, err := ix.EnsureLoaded(context.Background())
	if err != nil {
		t.Fatalf("EnsureLoaded() error = %v", err)
	}

	if snap.Len() != 2 {
		t.Fatalf("rows = %d, want 2", snap.Len())
	}
	if len(snap.Matrix) != len(snap.Records) {
		t.Fatalf("matrix rows %d != records %d", len(snap.Matrix), len(snap.Records))
	}
	if snap.Records[0].id != 10 || snap.Records[1].id != 13 {
		t.Errorf("record order = [%d %d], want [10 13]", snap.Records[0].id, snap.Records[1].id)
	}
	if snap.Matrix[0][0] != 1 {
		t.Errorf("duplicate id replaced the first row: %v", snap.Matrix[0])
	}
	for _, id := range []int64{11, 12} {
		if _, ok := snap.Row(id); ok {
			t.Errorf("Row(%d) present, want skipped", id)
		}
	}
	for id, row := range snap.index {
		if snap.Records[row].id != id {
			t.Errorf("index[%d] = %d holds id %d", id, row, snap.Records[row].id)
		}
	}
}

func TestIndex_EmptyCatalog(t *testing.T) {
	t.Parallel()

	ix := newTestIndex(t, &mockLoader{})

	snap, err := ix.EnsureLoaded(context.Background())
	if err != nil {
		t.Fatalf("EnsureLoaded() error = %v", err)
	}
	if snap.Len() != 0 || snap.Dimension != 0 {
		t.Errorf("rows=%d dim=%d, want 0 and 0", snap.Len(), snap.Dimension)
	}
	if ix.State() != StateReady {
		t.Errorf("State() = %v, want ready", ix.State())
	}
}

func TestLoaderFuncAndAlwaysEncode(t *testing.T) {
	t.Parallel()

	load := LoaderFunc[testRecord](func(context.Context) ([]testRecord, error) {
		return []testRecord{{id: 7}}, nil
	})
	encode := AlwaysEncode(func(r testRecord) []float64 { return []float64{float64(r.id)} })

	ix := NewIndex[testRecord]("func", load, encode, zerolog.Nop())
	snap, err := ix.EnsureLoaded(context.Background())
	if err != nil {
		t.Fatalf("EnsureLoaded() error = %v", err)
	}
	if snap.Len() != 1 || snap.Matrix[0][0] != 7 {
		t.Errorf("snapshot = %+v", snap.Matrix)
	}
}

func TestState_String(t *testing.T) {
	t.Parallel()

	tests := map[State]string{
		StateEmpty:   "empty",
		StateLoading: "loading",
		StateReady:   "ready",
		State(9):     "state(9)",
	}
	for s, want := range tests {
		if got := s.String(); got != want {
			t.Errorf("State(%d).String() = %q, want %q", int32(s), got, want)
		}
	}
}

func TestSnapshot_NilSafe(t *testing.T) {
	t.Parallel()

	var snap *Snapshot[testRecord]
	if snap.Len() != 0 {
		t.Error("nil snapshot Len() != 0")
	}
	if _, ok := snap.Row(1); ok {
		t.Error("nil snapshot Row() found a row")
	}
}
