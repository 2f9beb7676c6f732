// Soundalike - Content-Based Music Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/soundalike

package logging

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/rs/zerolog"
)

func TestWatermillAdapter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	adapter := NewWatermillAdapter(zerolog.New(&buf).Level(zerolog.InfoLevel))

	scoped := adapter.With(watermill.LogFields{"subject": "catalog.changed"})
	scoped.Info("subscribed", watermill.LogFields{"durable": "soundalike"})
	scoped.Error("ack failed", errors.New("timeout"), nil)
	scoped.Debug("dropped below level", nil)
	scoped.Trace("dropped below level", nil)

	out := buf.String()
	for _, want := range []string{
		`"subject":"catalog.changed"`,
		`"durable":"soundalike"`,
		`"message":"subscribed"`,
		`"error":"timeout"`,
		`"level":"error"`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %s:\n%s", want, out)
		}
	}
	if strings.Contains(out, "dropped below level") {
		t.Errorf("debug and trace entries should be filtered:\n%s", out)
	}
	if lines := strings.Count(out, "\n"); lines != 2 {
		t.Errorf("got %d lines, want 2", lines)
	}
}
