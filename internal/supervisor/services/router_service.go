// Tourdesk - Tour Operator Booking and Enquiry Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tourdesk

package services

import (
	"context"

	"github.com/thejerf/suture/v4"

	"github.com/tomtom215/tourdesk/internal/logging"
)

// Router matches the eventprocessor.Router lifecycle.
type Router interface {
	Run(ctx context.Context) error
	Running() <-chan struct{}
}

// RouterService runs the notification router under supervision.
//
// A watermill router cannot be restarted once it stops, so an unexpected
// exit terminates the tree instead of looping on restarts.
type RouterService struct {
	router Router
	name   string
}

// NewRouterService wraps router.
func NewRouterService(router Router) *RouterService {
	return &RouterService{router: router, name: "notification-router"}
}

// Serve implements suture.Service.
func (s *RouterService) Serve(ctx context.Context) error {
	err := s.router.Run(ctx)
	if ctx.Err() != nil {
		return ctx.Err()
	}
	logging.Error().Err(err).Str("service", s.name).Msg("Notification router stopped unexpectedly")
	return suture.ErrTerminateSupervisorTree
}

// Running is closed once every handler is subscribed.
func (s *RouterService) Running() <-chan struct{} {
	return s.router.Running()
}

// String implements fmt.Stringer.
func (s *RouterService) String() string {
	return s.name
}
