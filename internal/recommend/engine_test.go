// Soundalike - Content-Based Music Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/soundalike

package recommend

import (
	"context"
	"errors"
	"math"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"

	"github.com/tomtom215/soundalike/internal/models"
	"github.com/tomtom215/soundalike/internal/recommend/catalog"
	"github.com/tomtom215/soundalike/internal/recommend/embeddings"
)

// mockCatalog implements TrackSource and ArtistSource for testing.
type mockCatalog struct {
	mu              sync.Mutex
	tracks          []models.Track
	artists         []models.Artist
	tracksErr       error
	artistsErr      error
	loadTracksCalls int32
}

func (m *mockCatalog) LoadTracks(context.Context) ([]models.Track, error) {
	atomic.AddInt32(&m.loadTracksCalls, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.tracksErr != nil {
		return nil, m.tracksErr
	}
	return append([]models.Track(nil), m.tracks...), nil
}

// LoadArtists mirrors the database: only artists with an embedding.
func (m *mockCatalog) LoadArtists(context.Context) ([]models.Artist, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.artistsErr != nil {
		return nil, m.artistsErr
	}
	var out []models.Artist
	for _, a := range m.artists {
		if a.Embedding != nil {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *mockCatalog) setTracksErr(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tracksErr = err
}

// mockMaintainer gives every artist without an embedding a one-hot vector.
type mockMaintainer struct {
	catalog *mockCatalog
	calls   int32
	err     error
	last    *embeddings.SyncResult
}

func (m *mockMaintainer) Sync(context.Context) (embeddings.SyncResult, error) {
	atomic.AddInt32(&m.calls, 1)
	if m.err != nil {
		return embeddings.SyncResult{}, m.err
	}
	m.catalog.mu.Lock()
	defer m.catalog.mu.Unlock()

	var res embeddings.SyncResult
	for i := range m.catalog.artists {
		if m.catalog.artists[i].Embedding == nil {
			res.Missing++
			vec := make([]float64, 4)
			vec[i%4] = 1
			m.catalog.artists[i].Embedding = vec
			res.Written++
		}
	}
	m.last = &res
	return res, nil
}

func (m *mockMaintainer) LastResult() (embeddings.SyncResult, bool) {
	if m.last == nil {
		return embeddings.SyncResult{}, false
	}
	return *m.last, true
}

func newTestEngine(t *testing.T, cat *mockCatalog) *Engine {
	t.Helper()
	e, err := NewEngine(DefaultConfig(), cat, cat, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}
	return e
}

// scenarioTracks: durations 120, 120, 600 with no bit rate or genre.
func scenarioTracks() []models.Track {
	return []models.Track{
		{ID: 1, Title: "One", Duration: 120},
		{ID: 2, Title: "Two", Duration: 120},
		{ID: 3, Title: "Three", Duration: 600},
	}
}

func genreTracks() []models.Track {
	return []models.Track{
		{ID: 10, Title: "Riff", Duration: 300, GenreTop: "Rock", ArtistID: 7, ArtistName: "The Drones"},
		{ID: 11, Title: "Riff II", Duration: 300, GenreTop: "Rock", ArtistID: 7, ArtistName: "The Drones"},
		{ID: 12, Title: "Ballad", Duration: 300, GenreTop: "Jazz"},
	}
}

func trackIDs(recs []models.TrackRecommendation) []int64 {
	ids := make([]int64, len(recs))
	for i, r := range recs {
		ids[i] = r.TrackID
	}
	return ids
}

func equalIDs(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestNewEngine(t *testing.T) {
	t.Parallel()

	cat := &mockCatalog{}
	if _, err := NewEngine(nil, cat, cat, zerolog.Nop()); err != nil {
		t.Errorf("NewEngine(nil config) error = %v", err)
	}

	bad := DefaultConfig()
	bad.Limits.DefaultLimit = 0
	if _, err := NewEngine(bad, cat, cat, zerolog.Nop()); err == nil {
		t.Error("NewEngine() expected error for invalid config")
	}

	if _, err := NewEngine(DefaultConfig(), nil, cat, zerolog.Nop()); err == nil {
		t.Error("NewEngine() expected error for nil track source")
	}
}

func TestEngine_RecommendTracks(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		tracks  []models.Track
		seeds   []int64
		topN    int
		wantIDs []int64
	}{
		{"tie broken by row order", scenarioTracks(), []int64{1}, 1, []int64{2}},
		{"all ties in row order", scenarioTracks(), []int64{1}, 5, []int64{2, 3}},
		{"unknown seed only", scenarioTracks(), []int64{9999}, 5, []int64{}},
		{"unknown seed dropped", genreTracks(), []int64{9999, 10}, 5, []int64{11, 12}},
		{"topN larger than catalog", genreTracks(), []int64{10}, 50, []int64{11, 12}},
		{"topN zero", genreTracks(), []int64{10}, 0, []int64{}},
		{"topN negative", genreTracks(), []int64{10}, -3, []int64{}},
		{"no seeds", genreTracks(), nil, 5, []int64{}},
		{"multi seed excludes all seeds", genreTracks(), []int64{10, 12}, 5, []int64{11}},
		{"empty catalog", nil, []int64{1}, 5, []int64{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			e := newTestEngine(t, &mockCatalog{tracks: tt.tracks})

			recs, err := e.RecommendTracks(context.Background(), tt.seeds, tt.topN)
			if err != nil {
				t.Fatalf("RecommendTracks() error = %v", err)
			}
			if recs == nil {
				t.Fatal("RecommendTracks() returned nil, want empty slice")
			}
			if got := trackIDs(recs); !equalIDs(got, tt.wantIDs) {
				t.Errorf("RecommendTracks() ids = %v, want %v", got, tt.wantIDs)
			}
		})
	}
}

func TestEngine_RecommendTracksScores(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, &mockCatalog{tracks: genreTracks()})

	recs, err := e.RecommendTracks(context.Background(), []int64{10}, 5)
	if err != nil {
		t.Fatalf("RecommendTracks() error = %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("got %d results, want 2", len(recs))
	}

	want := []models.TrackRecommendation{
		{TrackID: 11, TrackTitle: "Riff II", ArtistID: 7, ArtistName: "The Drones", Similarity: 1},
		{TrackID: 12, TrackTitle: "Ballad", Similarity: 0.2},
	}
	for i := range want {
		if recs[i] != want[i] {
			t.Errorf("result %d = %+v, want %+v", i, recs[i], want[i])
		}
	}
}

func TestEngine_DuplicateSeedsEqualSingleSeed(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, &mockCatalog{tracks: genreTracks()})
	ctx := context.Background()

	single, err := e.RecommendTracks(ctx, []int64{10}, 5)
	if err != nil {
		t.Fatalf("RecommendTracks() error = %v", err)
	}
	dup, err := e.RecommendTracks(ctx, []int64{10, 10, 10}, 5)
	if err != nil {
		t.Fatalf("RecommendTracks() error = %v", err)
	}
	if len(single) != len(dup) {
		t.Fatalf("len %d != %d", len(single), len(dup))
	}
	for i := range single {
		if single[i] != dup[i] {
			t.Errorf("result %d: %+v != %+v", i, single[i], dup[i])
		}
	}
}

func TestEngine_RecommendTracksLoadFailure(t *testing.T) {
	t.Parallel()

	cat := &mockCatalog{tracksErr: errors.New("database is locked")}
	e := newTestEngine(t, cat)

	_, err := e.RecommendTracks(context.Background(), []int64{1}, 5)
	if !errors.Is(err, catalog.ErrLoadFailed) {
		t.Fatalf("RecommendTracks() error = %v, want ErrLoadFailed", err)
	}
	if s := e.Stats(); s.Errors != 1 || s.Tracks.State != "empty" {
		t.Errorf("Stats() errors=%d state=%s, want 1 and empty", s.Errors, s.Tracks.State)
	}

	// topN <= 0 short-circuits before any load.
	if recs, err := e.RecommendTracks(context.Background(), []int64{1}, 0); err != nil || len(recs) != 0 {
		t.Errorf("RecommendTracks(topN=0) = %v, %v", recs, err)
	}
}

func TestEngine_RefreshFailureKeepsServing(t *testing.T) {
	t.Parallel()

	cat := &mockCatalog{tracks: scenarioTracks()}
	e := newTestEngine(t, cat)
	ctx := context.Background()

	if _, err := e.RecommendTracks(ctx, []int64{1}, 5); err != nil {
		t.Fatalf("RecommendTracks() error = %v", err)
	}

	cat.setTracksErr(errors.New("io error"))
	if err := e.Refresh(ctx, KindTracks); !errors.Is(err, catalog.ErrLoadFailed) {
		t.Fatalf("Refresh() error = %v, want ErrLoadFailed", err)
	}

	recs, err := e.RecommendTracks(ctx, []int64{1}, 5)
	if err != nil {
		t.Fatalf("RecommendTracks() after failed refresh error = %v", err)
	}
	if len(recs) != 2 {
		t.Errorf("got %d results from the previous snapshot, want 2", len(recs))
	}
	if calls := atomic.LoadInt32(&cat.loadTracksCalls); calls != 2 {
		t.Errorf("LoadTracks called %d times, want 2", calls)
	}
}

func TestEngine_RecommendArtists(t *testing.T) {
	t.Parallel()

	cat := &mockCatalog{artists: []models.Artist{
		{ID: 1, Name: "Nina Blue", Embedding: []float64{1, 0}},
		{ID: 2, Name: "Nina Green", Embedding: []float64{0.9, 0.1}},
		{ID: 3, Name: "The Drones", Embedding: []float64{0, 1}},
		{ID: 4, Name: "Not Yet Embedded"},
	}}
	e := newTestEngine(t, cat)

	recs, err := e.RecommendArtists(context.Background(), []int64{1}, 5)
	if err != nil {
		t.Fatalf("RecommendArtists() error = %v", err)
	}

	want := []models.ArtistRecommendation{
		{ArtistID: 2, ArtistName: "Nina Green", Similarity: 0.9939},
		{ArtistID: 3, ArtistName: "The Drones", Similarity: 0},
	}
	if len(recs) != len(want) {
		t.Fatalf("got %d results, want %d: %+v", len(recs), len(want), recs)
	}
	for i := range want {
		if recs[i] != want[i] {
			t.Errorf("result %d = %+v, want %+v", i, recs[i], want[i])
		}
	}

	// An artist without an embedding is not a resolvable seed.
	recs, err = e.RecommendArtists(context.Background(), []int64{4}, 5)
	if err != nil || len(recs) != 0 {
		t.Errorf("RecommendArtists(unembedded seed) = %v, %v; want empty", recs, err)
	}
}

func TestEngine_RankingUsesFullPrecision(t *testing.T) {
	t.Parallel()

	// Both candidates report 0.9999; artist 3 is closer before rounding.
	unit := func(c float64) []float64 { return []float64{c, math.Sqrt(1 - c*c)} }
	cat := &mockCatalog{artists: []models.Artist{
		{ID: 1, Name: "Seed", Embedding: []float64{1, 0}},
		{ID: 2, Name: "Close", Embedding: unit(0.99991)},
		{ID: 3, Name: "Closer", Embedding: unit(0.99994)},
	}}
	e := newTestEngine(t, cat)

	recs, err := e.RecommendArtists(context.Background(), []int64{1}, 2)
	if err != nil {
		t.Fatalf("RecommendArtists() error = %v", err)
	}
	want := []models.ArtistRecommendation{
		{ArtistID: 3, ArtistName: "Closer", Similarity: 0.9999},
		{ArtistID: 2, ArtistName: "Close", Similarity: 0.9999},
	}
	if len(recs) != len(want) {
		t.Fatalf("got %+v, want %+v", recs, want)
	}
	for i := range want {
		if recs[i] != want[i] {
			t.Errorf("result %d = %+v, want %+v", i, recs[i], want[i])
		}
	}
}

func TestEngine_RepeatedSeedWeighsTwice(t *testing.T) {
	t.Parallel()

	// Seeds [1,1,2] give the profile (2/3, 1/3, 0), parallel to artist 4.
	cat := &mockCatalog{artists: []models.Artist{
		{ID: 1, Name: "X", Embedding: []float64{1, 0, 0}},
		{ID: 2, Name: "Y", Embedding: []float64{0, 1, 0}},
		{ID: 3, Name: "Z", Embedding: []float64{0, 0, 1}},
		{ID: 4, Name: "Mostly X", Embedding: []float64{0.9, 0.45, 0}},
		{ID: 5, Name: "Even", Embedding: []float64{1, 1, 0.2}},
	}}
	e := newTestEngine(t, cat)

	recs, err := e.RecommendArtists(context.Background(), []int64{1, 1, 2}, 5)
	if err != nil {
		t.Fatalf("RecommendArtists() error = %v", err)
	}
	want := []models.ArtistRecommendation{
		{ArtistID: 4, ArtistName: "Mostly X", Similarity: 1},
		{ArtistID: 5, ArtistName: "Even", Similarity: 0.9393},
		{ArtistID: 3, ArtistName: "Z", Similarity: 0},
	}
	if len(recs) != len(want) {
		t.Fatalf("got %+v, want %+v", recs, want)
	}
	for i := range want {
		if recs[i] != want[i] {
			t.Errorf("result %d = %+v, want %+v", i, recs[i], want[i])
		}
	}
}

func TestEngine_Deterministic(t *testing.T) {
	t.Parallel()

	tracks := append(genreTracks(),
		models.Track{ID: 13, Title: "Fusion", Duration: 250, BitRate: 192, GenreTop: "Jazz", Genre: "Rock"},
		models.Track{ID: 14, Title: "Drone", Duration: 600, GenreTop: "Experimental"},
	)
	e := newTestEngine(t, &mockCatalog{tracks: tracks})
	ctx := context.Background()

	tests := []struct {
		name  string
		seeds []int64
	}{
		{"single seed", []int64{10}},
		{"multi seed", []int64{12, 14}},
		{"with unknown", []int64{9999, 13}},
	}
	for _, tt := range tests {
		first, err := e.RecommendTracks(ctx, tt.seeds, 10)
		if err != nil {
			t.Fatalf("%s: RecommendTracks() error = %v", tt.name, err)
		}
		second, err := e.RecommendTracks(ctx, tt.seeds, 10)
		if err != nil {
			t.Fatalf("%s: RecommendTracks() error = %v", tt.name, err)
		}
		if len(first) != len(second) {
			t.Fatalf("%s: len %d != %d", tt.name, len(first), len(second))
		}
		for i := range first {
			if first[i] != second[i] {
				t.Errorf("%s: result %d differs: %+v != %+v", tt.name, i, first[i], second[i])
			}
		}
	}
}

func TestEngine_InitializeRunsMaintenance(t *testing.T) {
	t.Parallel()

	cat := &mockCatalog{
		tracks: scenarioTracks(),
		artists: []models.Artist{
			{ID: 1, Name: "A"},
			{ID: 2, Name: "B"},
		},
	}
	e := newTestEngine(t, cat)
	maint := &mockMaintainer{catalog: cat}
	e.SetMaintainer(maint)

	if err := e.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}

	stats := e.Stats()
	if !stats.Ready() {
		t.Fatalf("Stats() not ready after Initialize: %+v", stats)
	}
	if stats.Artists.Rows != 2 || stats.Tracks.Rows != 3 {
		t.Errorf("rows artists=%d tracks=%d, want 2 and 3", stats.Artists.Rows, stats.Tracks.Rows)
	}
	if stats.LastSync == nil || stats.LastSync.Written != 2 {
		t.Errorf("LastSync = %+v, want 2 written", stats.LastSync)
	}

	// Second run is a no-op for embeddings.
	if err := e.Initialize(context.Background()); err != nil {
		t.Fatalf("second Initialize() error = %v", err)
	}
	if got := e.Stats().LastSync; got == nil || got.Written != 0 {
		t.Errorf("second LastSync = %+v, want 0 written", got)
	}
	if atomic.LoadInt32(&maint.calls) != 2 {
		t.Errorf("Sync called %d times, want 2", maint.calls)
	}
	if calls := atomic.LoadInt32(&cat.loadTracksCalls); calls != 1 {
		t.Errorf("LoadTracks called %d times, want 1 (warm only once)", calls)
	}
}

func TestEngine_InitializeWithoutMaintainer(t *testing.T) {
	t.Parallel()

	cat := &mockCatalog{
		tracks:  scenarioTracks(),
		artists: []models.Artist{{ID: 1, Name: "A", Embedding: []float64{1}}},
	}
	e := newTestEngine(t, cat)

	if err := e.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	if !e.Stats().Ready() {
		t.Error("engine not ready")
	}
	if _, err := e.SyncEmbeddings(context.Background()); !errors.Is(err, ErrNoMaintainer) {
		t.Errorf("SyncEmbeddings() error = %v, want ErrNoMaintainer", err)
	}
}

func TestEngine_InitializeReportsFailures(t *testing.T) {
	t.Parallel()

	syncErr := errors.New("encoder down")
	cat := &mockCatalog{tracksErr: errors.New("no such table")}
	e := newTestEngine(t, cat)
	e.SetMaintainer(&mockMaintainer{catalog: cat, err: syncErr})

	err := e.Initialize(context.Background())
	if !errors.Is(err, syncErr) {
		t.Errorf("Initialize() error = %v, want it to wrap the sync error", err)
	}
	if !errors.Is(err, catalog.ErrLoadFailed) {
		t.Errorf("Initialize() error = %v, want it to wrap ErrLoadFailed", err)
	}
}

func TestEngine_Refresh(t *testing.T) {
	t.Parallel()

	cat := &mockCatalog{tracks: scenarioTracks()}
	e := newTestEngine(t, cat)
	ctx := context.Background()

	if err := e.Refresh(ctx, KindAll); err != nil {
		t.Fatalf("Refresh(all) error = %v", err)
	}
	if err := e.Refresh(ctx, KindTracks); err != nil {
		t.Fatalf("Refresh(tracks) error = %v", err)
	}
	if err := e.Refresh(ctx, Kind("albums")); err == nil {
		t.Error("Refresh(albums) expected error")
	}

	stats := e.Stats()
	if stats.Tracks.Builds != 2 || stats.Artists.Builds != 1 {
		t.Errorf("builds tracks=%d artists=%d, want 2 and 1", stats.Tracks.Builds, stats.Artists.Builds)
	}
}

func TestParseKind(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    Kind
		wantErr bool
	}{
		{"", KindAll, false},
		{"all", KindAll, false},
		{"tracks", KindTracks, false},
		{"artists", KindArtists, false},
		{"albums", "", true},
	}
	for _, tt := range tests {
		got, err := ParseKind(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseKind(%q) = %q, %v", tt.in, got, err)
		}
	}
}
