// Tourdesk - Tour Operator Booking and Enquiry Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tourdesk

// Package eventprocessor provides the message bus behind notification
// delivery: an in-process watermill gochannel, or NATS JetStream through
// watermill-nats with an optional embedded server.
package eventprocessor

import "time"

// Transport names accepted by NewPubSub.
const (
	TransportGoChannel = "gochannel"
	TransportNATS      = "nats"
)

// ServerConfig holds embedded NATS server configuration.
type ServerConfig struct {
	Host              string
	Port              int
	StoreDir          string
	JetStreamMaxMem   int64
	JetStreamMaxStore int64
}

// DefaultServerConfig returns defaults for the embedded NATS server.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Host:              "127.0.0.1",
		Port:              4222,
		StoreDir:          "/data/nats/jetstream",
		JetStreamMaxMem:   256 << 20,
		JetStreamMaxStore: 1 << 30,
	}
}

// NATSConfig configures connections, the JetStream publisher and the durable
// subscriber.
type NATSConfig struct {
	URL           string
	MaxReconnects int
	ReconnectWait time.Duration

	// DurableName prefixes the JetStream durable consumer.
	DurableName string
	// QueueGroup load-balances deliveries across replicas.
	QueueGroup       string
	SubscribersCount int
	AckWaitTimeout   time.Duration
	CloseTimeout     time.Duration
	// MaxDeliver bounds redeliveries of an unacked message.
	MaxDeliver int

	// StreamName is the JetStream stream bound by publisher and subscriber.
	StreamName     string
	StreamSubjects []string
	StreamMaxAge   time.Duration
}

// DefaultNATSConfig returns defaults for url.
func DefaultNATSConfig(url string) NATSConfig {
	return NATSConfig{
		URL:              url,
		MaxReconnects:    -1,
		ReconnectWait:    2 * time.Second,
		DurableName:      "tourdesk-notify",
		QueueGroup:       "tourdesk",
		SubscribersCount: 1,
		AckWaitTimeout:   30 * time.Second,
		CloseTimeout:     10 * time.Second,
		MaxDeliver:       5,
		StreamName:       "NOTIFICATIONS",
		StreamSubjects:   []string{"notifications.>"},
		StreamMaxAge:     72 * time.Hour,
	}
}

// RouterConfig configures the watermill router.
type RouterConfig struct {
	CloseTimeout time.Duration

	// RetryMaxRetries is 0 to disable in-router retries.
	RetryMaxRetries      int
	RetryInitialInterval time.Duration
	RetryMaxInterval     time.Duration
	RetryMultiplier      float64
}

// DefaultRouterConfig returns the router defaults: no retries.
func DefaultRouterConfig() RouterConfig {
	return RouterConfig{
		CloseTimeout:         10 * time.Second,
		RetryMaxRetries:      0,
		RetryInitialInterval: time.Second,
		RetryMaxInterval:     30 * time.Second,
		RetryMultiplier:      2.0,
	}
}
