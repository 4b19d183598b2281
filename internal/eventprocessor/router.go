// Tourdesk - Tour Operator Booking and Enquiry Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tourdesk

package eventprocessor

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
)

// Router wraps the watermill router with the notification middleware chain.
//
// Middleware, outer to inner:
//  1. AckOnFailure: a handler error that survives the inner layers is logged
//     and the message is acked, so a broken mail server never causes an
//     endless redelivery loop.
//  2. Retry, when RetryMaxRetries > 0.
//  3. Recoverer: panics become handler errors.
type Router struct {
	router  *message.Router
	logger  watermill.LoggerAdapter
	running atomic.Bool
}

// NewRouter creates a router. A nil cfg uses DefaultRouterConfig.
func NewRouter(cfg *RouterConfig, logger watermill.LoggerAdapter) (*Router, error) {
	if logger == nil {
		logger = watermill.NopLogger{}
	}
	if cfg == nil {
		def := DefaultRouterConfig()
		cfg = &def
	}

	wmRouter, err := message.NewRouter(message.RouterConfig{CloseTimeout: cfg.CloseTimeout}, logger)
	if err != nil {
		return nil, fmt.Errorf("create watermill router: %w", err)
	}

	wmRouter.AddMiddleware(AckOnFailure(logger))
	if cfg.RetryMaxRetries > 0 {
		wmRouter.AddMiddleware(middleware.Retry{
			MaxRetries:      cfg.RetryMaxRetries,
			InitialInterval: cfg.RetryInitialInterval,
			MaxInterval:     cfg.RetryMaxInterval,
			Multiplier:      cfg.RetryMultiplier,
			Logger:          logger,
		}.Middleware)
	}
	wmRouter.AddMiddleware(middleware.Recoverer)

	return &Router{router: wmRouter, logger: logger}, nil
}

// AckOnFailure logs a handler error and swallows it so the message is acked.
func AckOnFailure(logger watermill.LoggerAdapter) message.HandlerMiddleware {
	return func(h message.HandlerFunc) message.HandlerFunc {
		return func(msg *message.Message) ([]*message.Message, error) {
			out, err := h(msg)
			if err != nil {
				logger.Error("Message handling failed, dropping", err, watermill.LogFields{
					"message_uuid": msg.UUID,
					"handler":      message.HandlerNameFromCtx(msg.Context()),
				})
				return nil, nil
			}
			return out, nil
		}
	}
}

// AddConsumerHandler registers a handler that produces no messages.
func (r *Router) AddConsumerHandler(name, topic string, sub message.Subscriber, fn message.NoPublishHandlerFunc) *message.Handler {
	return r.router.AddConsumerHandler(name, topic, sub, fn)
}

// Run blocks until ctx is canceled or Close is called.
func (r *Router) Run(ctx context.Context) error {
	r.running.Store(true)
	defer r.running.Store(false)
	return r.router.Run(ctx)
}

// Running is closed once every handler is subscribed.
func (r *Router) Running() <-chan struct{} {
	return r.router.Running()
}

// Close stops the router, waiting up to CloseTimeout for in-flight handlers.
func (r *Router) Close() error {
	return r.router.Close()
}

// IsRunning reports whether Run is active.
func (r *Router) IsRunning() bool {
	return r.running.Load()
}
