// Soundalike - Content-Based Music Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/soundalike

//go:build !nats

package catalogevents

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
)

func TestStubs_ReportMissingBuildTag(t *testing.T) {
	t.Parallel()

	if _, err := NewService(DefaultConfig(), NewHandler(&mockRefresher{}, 0), zerolog.Nop()); !errors.Is(err, ErrNATSNotCompiled) {
		t.Errorf("NewService() error = %v, want ErrNATSNotCompiled", err)
	}
	if _, err := NewPublisher(context.Background(), DefaultConfig(), zerolog.Nop()); !errors.Is(err, ErrNATSNotCompiled) {
		t.Errorf("NewPublisher() error = %v, want ErrNATSNotCompiled", err)
	}
	if err := EnsureStream(context.Background(), DefaultConfig()); !errors.Is(err, ErrNATSNotCompiled) {
		t.Errorf("EnsureStream() error = %v, want ErrNATSNotCompiled", err)
	}
}
