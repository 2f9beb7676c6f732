// Soundalike - Content-Based Music Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/soundalike

package catalogevents

import (
	"errors"
	"time"

	"github.com/tomtom215/soundalike/internal/config"
)

// ErrNATSNotCompiled is returned by the NATS constructors in binaries built
// without -tags nats.
var ErrNATSNotCompiled = errors.New("catalog events require a build with -tags=nats")

// Config holds catalog event transport settings.
type Config struct {
	URL            string
	Subject        string
	Stream         string // JetStream stream holding Subject
	QueueGroup     string // also the durable consumer name
	MaxReconnects  int    // -1 = forever
	ReconnectWait  time.Duration
	AckWaitTimeout time.Duration
	MaxDeliver     int
	MaxAge         time.Duration // stream retention
	CloseTimeout   time.Duration
	HandleTimeout  time.Duration
}

// DefaultConfig returns settings for a local NATS server.
func DefaultConfig() Config {
	return Config{
		URL:            "nats://127.0.0.1:4222",
		Subject:        "catalog.changed",
		Stream:         "CATALOG",
		QueueGroup:     "soundalike",
		MaxReconnects:  -1,
		ReconnectWait:  2 * time.Second,
		AckWaitTimeout: 30 * time.Second,
		MaxDeliver:     5,
		MaxAge:         7 * 24 * time.Hour,
		CloseTimeout:   10 * time.Second,
		HandleTimeout:  10 * time.Minute,
	}
}

// ConfigFromApp overlays the application NATS settings on DefaultConfig.
// Zero values keep the defaults.
func ConfigFromApp(app *config.NATSConfig) Config {
	cfg := DefaultConfig()
	if app == nil {
		return cfg
	}
	if app.URL != "" {
		cfg.URL = app.URL
	}
	if app.Subject != "" {
		cfg.Subject = app.Subject
	}
	if app.Stream != "" {
		cfg.Stream = app.Stream
	}
	if app.QueueGroup != "" {
		cfg.QueueGroup = app.QueueGroup
	}
	if app.MaxReconnects != 0 {
		cfg.MaxReconnects = app.MaxReconnects
	}
	if app.ReconnectWait > 0 {
		cfg.ReconnectWait = app.ReconnectWait
	}
	if app.AckWaitTimeout > 0 {
		cfg.AckWaitTimeout = app.AckWaitTimeout
	}
	return cfg
}
