// Soundalike - Content-Based Music Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/soundalike

//go:build nats

package catalogevents

import (
	"context"
	"errors"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	wmNats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	natsgo "github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/tomtom215/soundalike/internal/logging"
)

// Service consumes catalog change events under suture. The subscriber is
// created on each Serve so a restart after a broker failure reconnects.
type Service struct {
	cfg     Config
	handler *Handler
	logger  zerolog.Logger
	name    string
}

// NewService creates the subscription service.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewService(cfg Config, handler *Handler, logger zerolog.Logger) (*Service, error) {
	if cfg.URL == "" || cfg.Subject == "" {
		return nil, errors.New("catalog events: URL and Subject are required")
	}
	if handler == nil {
		return nil, errors.New("catalog events: handler is required")
	}
	return &Service{
		cfg:     cfg,
		handler: handler,
		logger:  logger.With().Str("service", "catalog-events").Str("subject", cfg.Subject).Logger(),
		name:    "catalog-events",
	}, nil
}

func (s *Service) newSubscriber() (message.Subscriber, error) {
	logger := logging.NewWatermillAdapter(s.logger)

	natsOpts := []natsgo.Option{
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(s.cfg.MaxReconnects),
		natsgo.ReconnectWait(s.cfg.ReconnectWait),
		natsgo.DisconnectErrHandler(func(_ *natsgo.Conn, err error) {
			if err != nil {
				logger.Error("Catalog event subscriber disconnected", err, nil)
			}
		}),
		natsgo.ReconnectHandler(func(nc *natsgo.Conn) {
			logger.Info("Catalog event subscriber reconnected", watermill.LogFields{
				"url": nc.ConnectedUrl(),
			})
		}),
	}

	subOpts := []natsgo.SubOpt{
		natsgo.MaxDeliver(s.cfg.MaxDeliver),
		natsgo.AckWait(s.cfg.AckWaitTimeout),
		natsgo.DeliverAll(),
		natsgo.BindStream(s.cfg.Stream),
	}

	sub, err := wmNats.NewSubscriber(wmNats.SubscriberConfig{
		URL:              s.cfg.URL,
		QueueGroupPrefix: s.cfg.QueueGroup,
		SubscribersCount: 1,
		AckWaitTimeout:   s.cfg.AckWaitTimeout,
		CloseTimeout:     s.cfg.CloseTimeout,
		NatsOptions:      natsOpts,
		Unmarshaler:      &wmNats.NATSMarshaler{},
		JetStream: wmNats.JetStreamConfig{
			AutoProvision:    false,
			AckAsync:         false,
			SubscribeOptions: subOpts,
			DurablePrefix:    s.cfg.QueueGroup,
		},
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("create watermill subscriber: %w", err)
	}
	return sub, nil
}

// Serve implements suture.Service.
func (s *Service) Serve(ctx context.Context) error {
	if err := EnsureStream(ctx, s.cfg); err != nil {
		return err
	}

	sub, err := s.newSubscriber()
	if err != nil {
		return err
	}
	defer func() {
		if err := sub.Close(); err != nil {
			s.logger.Warn().Err(err).Msg("close catalog event subscriber")
		}
	}()

	messages, err := sub.Subscribe(ctx, s.cfg.Subject)
	if err != nil {
		return fmt.Errorf("subscribe to %s: %w", s.cfg.Subject, err)
	}
	s.logger.Info().Str("queue_group", s.cfg.QueueGroup).Msg("catalog event subscriber started")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-messages:
			if !ok {
				// Closed underneath us; let the supervisor restart.
				return errors.New("catalog event subscription closed")
			}
			s.process(ctx, msg)
		}
	}
}

// process applies one message. Invalid payloads are acked so they are
// never redelivered.
func (s *Service) process(ctx context.Context, msg *message.Message) {
	msgCtx := logging.ContextWithCorrelationID(ctx, msg.UUID)
	msgCtx = logging.ContextWithLogger(msgCtx, s.logger.With().Str("message_uuid", msg.UUID).Logger())

	err := s.handler.Handle(msgCtx, msg.Payload)
	switch {
	case err == nil, errors.Is(err, ErrInvalidEvent):
		msg.Ack()
	default:
		logging.Ctx(msgCtx).Error().Err(err).Msg("catalog event failed, requesting redelivery")
		msg.Nack()
	}
}

// String implements fmt.Stringer for suture's log messages.
func (s *Service) String() string {
	return s.name
}
