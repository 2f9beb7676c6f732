// Soundalike - Content-Based Music Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/soundalike

//go:build !nats

package catalogevents

import (
	"context"

	"github.com/rs/zerolog"
)

// Service is unavailable without -tags nats.
type Service struct{}

// NewService returns ErrNATSNotCompiled.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewService(Config, *Handler, zerolog.Logger) (*Service, error) {
	return nil, ErrNATSNotCompiled
}

// Serve returns ErrNATSNotCompiled.
func (s *Service) Serve(context.Context) error {
	return ErrNATSNotCompiled
}

func (s *Service) String() string {
	return "catalog-events"
}

// Publisher is unavailable without -tags nats.
type Publisher struct{}

// NewPublisher returns ErrNATSNotCompiled.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewPublisher(context.Context, Config, zerolog.Logger) (*Publisher, error) {
	return nil, ErrNATSNotCompiled
}

// Publish returns ErrNATSNotCompiled.
func (p *Publisher) Publish(CatalogChanged) error {
	return ErrNATSNotCompiled
}

// EnsureStream returns ErrNATSNotCompiled.
func EnsureStream(context.Context, Config) error {
	return ErrNATSNotCompiled
}

// Close is a no-op.
func (p *Publisher) Close() error {
	return nil
}
