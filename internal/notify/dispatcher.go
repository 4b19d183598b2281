// Tourdesk - Tour Operator Booking and Enquiry Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tourdesk

package notify

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/goccy/go-json"

	"github.com/tomtom215/tourdesk/internal/logging"
	"github.com/tomtom215/tourdesk/internal/metrics"
)

// DefaultTopic carries rendered emails.
const DefaultTopic = "notifications.email"

// Metadata keys set on every published message.
const (
	MetadataAudience      = "audience"
	MetadataKind          = "kind"
	MetadataCode          = "code"
	MetadataCorrelationID = "correlation_id"
)

// ErrNoStaffAddress is returned by NewDispatcher without a staff address.
var ErrNoStaffAddress = errors.New("notify: staff address is required")

// DispatcherConfig configures a Dispatcher.
type DispatcherConfig struct {
	Topic        string
	StaffAddress string
}

// Dispatcher publishes the emails for stored submissions without blocking
// the caller.
type Dispatcher struct {
	publisher message.Publisher
	renderer  *Renderer
	topic     string
	staff     string

	wg sync.WaitGroup
}

// NewDispatcher creates a Dispatcher publishing to pub.
func NewDispatcher(pub message.Publisher, renderer *Renderer, cfg DispatcherConfig) (*Dispatcher, error) {
	if cfg.StaffAddress == "" {
		return nil, ErrNoStaffAddress
	}
	if cfg.Topic == "" {
		cfg.Topic = DefaultTopic
	}
	if renderer == nil {
		renderer = NewRenderer("")
	}
	return &Dispatcher{
		publisher: pub,
		renderer:  renderer,
		topic:     cfg.Topic,
		staff:     cfg.StaffAddress,
	}, nil
}

// Topic returns the topic emails are published to.
func (d *Dispatcher) Topic() string { return d.topic }

// Dispatch starts a detached task that renders and publishes every email
// for n. It returns immediately. The task ignores cancellation of ctx and
// keeps only its values for log correlation. Each audience is published
// independently; a failure is logged and counted, never returned.
func (d *Dispatcher) Dispatch(ctx context.Context, n Notice) {
	ctx = context.WithoutCancel(ctx)
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				metrics.RecordNotificationPublish("panic", fmt.Errorf("panic: %v", r))
				logging.Ctx(ctx).Error().
					Interface("panic", r).
					Str("code", n.Code).
					Msg("Notification dispatch panicked")
			}
		}()

		for _, audience := range Audiences(n.Kind) {
			err := d.publish(ctx, n, audience)
			metrics.RecordNotificationPublish(string(audience), err)
			if err != nil {
				logging.Ctx(ctx).Error().Err(err).
					Str("audience", string(audience)).
					Str("kind", string(n.Kind)).
					Str("code", n.Code).
					Msg("Failed to publish notification")
			}
		}
	}()
}

func (d *Dispatcher) publish(ctx context.Context, n Notice, audience Audience) error {
	to := d.staff
	if audience == AudienceCustomer {
		to = n.Email
		if to == "" {
			return fmt.Errorf("notify: no customer address for %s", n.Code)
		}
	}

	email, err := d.renderer.Render(n, audience, to)
	if err != nil {
		return err
	}
	email.ID = watermill.NewUUID()

	payload, err := json.Marshal(email)
	if err != nil {
		return fmt.Errorf("notify: marshal email: %w", err)
	}

	msg := message.NewMessage(email.ID, payload)
	msg.SetContext(ctx)
	msg.Metadata.Set(MetadataAudience, string(audience))
	msg.Metadata.Set(MetadataKind, string(n.Kind))
	msg.Metadata.Set(MetadataCode, n.Code)
	if id := logging.CorrelationIDFromContext(ctx); id != "" {
		msg.Metadata.Set(MetadataCorrelationID, id)
	}

	if err := d.publisher.Publish(d.topic, msg); err != nil {
		return fmt.Errorf("notify: publish %s email: %w", audience, err)
	}
	return nil
}

// Wait blocks until every dispatched task has finished or ctx is done.
func (d *Dispatcher) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
