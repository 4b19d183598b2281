// Tourdesk - Tour Operator Booking and Enquiry Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tourdesk

package services

import (
	"context"
	"time"
)

// EmbeddedServer matches eventprocessor.EmbeddedServer.
type EmbeddedServer interface {
	Shutdown(ctx context.Context) error
	IsRunning() bool
}

// NATSServerService owns the shutdown of an embedded NATS server.
//
// The server is started before the tree so that the JetStream connection,
// the counter bucket and the notification stream can be set up during boot.
// Serve only keeps it alive for the tree and stops it on cancellation, after
// the API layer is gone.
type NATSServerService struct {
	server          EmbeddedServer
	shutdownTimeout time.Duration
	name            string
}

// NewNATSServerService wraps server. A non-positive shutdownTimeout becomes 10s.
func NewNATSServerService(server EmbeddedServer, shutdownTimeout time.Duration) *NATSServerService {
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}
	return &NATSServerService{
		server:          server,
		shutdownTimeout: shutdownTimeout,
		name:            "nats-server",
	}
}

// Serve implements suture.Service.
func (s *NATSServerService) Serve(ctx context.Context) error {
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()
	if err := s.server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return ctx.Err()
}

// String implements fmt.Stringer.
func (s *NATSServerService) String() string {
	return s.name
}
