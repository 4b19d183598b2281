// Tourdesk - Tour Operator Booking and Enquiry Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tourdesk

package eventprocessor

import (
	"errors"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	wmNats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	natsgo "github.com/nats-io/nats.go"
)

// ErrUnknownTransport is returned by NewPubSub.
var ErrUnknownTransport = errors.New("unknown message transport")

// PubSub pairs the publisher and subscriber of one transport.
type PubSub struct {
	Publisher  message.Publisher
	Subscriber message.Subscriber
	Transport  string

	closers []func() error
}

// Close closes the subscriber and then the publisher.
func (p *PubSub) Close() error {
	var errs []error
	for _, c := range p.closers {
		if err := c(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// NewPubSub builds the pubsub for transport. cfg is only read for the nats
// transport; the stream must already exist (see EnsureStream).
func NewPubSub(transport string, cfg *NATSConfig, logger watermill.LoggerAdapter) (*PubSub, error) {
	if logger == nil {
		logger = watermill.NopLogger{}
	}
	switch transport {
	case TransportGoChannel, "":
		return NewGoChannel(logger), nil
	case TransportNATS:
		return newNATSPubSub(cfg, logger)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownTransport, transport)
	}
}

// NewGoChannel returns an in-process pubsub. Messages published while no
// subscriber is attached are dropped.
func NewGoChannel(logger watermill.LoggerAdapter) *PubSub {
	ch := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 64}, logger)
	return &PubSub{
		Publisher:  ch,
		Subscriber: ch,
		Transport:  TransportGoChannel,
		closers:    []func() error{ch.Close},
	}
}

func newNATSPubSub(cfg *NATSConfig, logger watermill.LoggerAdapter) (*PubSub, error) {
	pub, err := wmNats.NewPublisher(wmNats.PublisherConfig{
		URL:         cfg.URL,
		NatsOptions: connectOptions(cfg, logger, "publisher"),
		Marshaler:   &wmNats.NATSMarshaler{},
		JetStream: wmNats.JetStreamConfig{
			Disabled:      false,
			AutoProvision: false,
			TrackMsgId:    true,
			PublishOptions: []natsgo.PubOpt{
				natsgo.RetryAttempts(3),
				natsgo.RetryWait(100 * time.Millisecond),
			},
		},
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("create watermill publisher: %w", err)
	}

	sub, err := wmNats.NewSubscriber(wmNats.SubscriberConfig{
		URL:              cfg.URL,
		QueueGroupPrefix: cfg.QueueGroup,
		SubscribersCount: cfg.SubscribersCount,
		AckWaitTimeout:   cfg.AckWaitTimeout,
		CloseTimeout:     cfg.CloseTimeout,
		NatsOptions:      connectOptions(cfg, logger, "subscriber"),
		Unmarshaler:      &wmNats.NATSMarshaler{},
		JetStream: wmNats.JetStreamConfig{
			Disabled:      false,
			AutoProvision: false,
			AckAsync:      false,
			SubscribeOptions: []natsgo.SubOpt{
				natsgo.MaxDeliver(cfg.MaxDeliver),
				natsgo.AckWait(cfg.AckWaitTimeout),
				natsgo.DeliverNew(),
				natsgo.BindStream(cfg.StreamName),
			},
			DurablePrefix: cfg.DurableName,
		},
	}, logger)
	if err != nil {
		_ = pub.Close()
		return nil, fmt.Errorf("create watermill subscriber: %w", err)
	}

	return &PubSub{
		Publisher:  pub,
		Subscriber: sub,
		Transport:  TransportNATS,
		closers:    []func() error{sub.Close, pub.Close},
	}, nil
}
