// Tourdesk - Tour Operator Booking and Enquiry Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tourdesk

package eventprocessor

import (
	"context"
	"errors"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	natsgo "github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// Connect dials NATS with reconnect handling. Connection state changes are
// logged through logger.
func Connect(cfg *NATSConfig, logger watermill.LoggerAdapter) (*natsgo.Conn, error) {
	nc, err := natsgo.Connect(cfg.URL, connectOptions(cfg, logger, "nats")...)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS at %s: %w", cfg.URL, err)
	}
	return nc, nil
}

func connectOptions(cfg *NATSConfig, logger watermill.LoggerAdapter, name string) []natsgo.Option {
	return []natsgo.Option{
		natsgo.Name("tourdesk-" + name),
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(cfg.MaxReconnects),
		natsgo.ReconnectWait(cfg.ReconnectWait),
		natsgo.DisconnectErrHandler(func(_ *natsgo.Conn, err error) {
			if err != nil {
				logger.Error("NATS disconnected", err, watermill.LogFields{"client": name})
			}
		}),
		natsgo.ReconnectHandler(func(nc *natsgo.Conn) {
			logger.Info("NATS reconnected", watermill.LogFields{"client": name, "url": nc.ConnectedUrl()})
		}),
	}
}

// EnsureStream creates the notification stream, or updates it to match cfg.
func EnsureStream(ctx context.Context, js jetstream.JetStream, cfg *NATSConfig) (jetstream.Stream, error) {
	streamCfg := jetstream.StreamConfig{
		Name:      cfg.StreamName,
		Subjects:  cfg.StreamSubjects,
		Retention: jetstream.LimitsPolicy,
		MaxAge:    cfg.StreamMaxAge,
		Storage:   jetstream.FileStorage,
		Discard:   jetstream.DiscardOld,
	}

	_, err := js.Stream(ctx, cfg.StreamName)
	switch {
	case err == nil:
		stream, err := js.UpdateStream(ctx, streamCfg)
		if err != nil {
			return nil, fmt.Errorf("update stream %s: %w", cfg.StreamName, err)
		}
		return stream, nil
	case errors.Is(err, jetstream.ErrStreamNotFound):
		stream, err := js.CreateStream(ctx, streamCfg)
		if err != nil {
			return nil, fmt.Errorf("create stream %s: %w", cfg.StreamName, err)
		}
		return stream, nil
	default:
		return nil, fmt.Errorf("look up stream %s: %w", cfg.StreamName, err)
	}
}
