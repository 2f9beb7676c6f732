// Soundalike - Content-Based Music Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/soundalike

package models

import (
	"strings"
	"testing"

	"github.com/goccy/go-json"
)

func TestNewRecommendationList_NilResults(t *testing.T) {
	t.Parallel()

	list := NewRecommendationList[TrackRecommendation](nil)
	if list.Count != 0 {
		t.Errorf("Count = %d, want 0", list.Count)
	}

	data, err := json.Marshal(list)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if !strings.Contains(string(data), `"results":[]`) {
		t.Errorf("expected empty results array, got %s", data)
	}
}

func TestArtistEmbeddingNotSerialized(t *testing.T) {
	t.Parallel()

	data, err := json.Marshal(Artist{ID: 1, Name: "Nina", Embedding: []float64{0.1, 0.2}})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if strings.Contains(string(data), "0.1") {
		t.Errorf("embedding leaked into JSON: %s", data)
	}
}

func TestRecordID(t *testing.T) {
	t.Parallel()

	if got := (Track{ID: 7}).RecordID(); got != 7 {
		t.Errorf("Track.RecordID() = %d, want 7", got)
	}
	if got := (Artist{ID: 9}).RecordID(); got != 9 {
		t.Errorf("Artist.RecordID() = %d, want 9", got)
	}
}
