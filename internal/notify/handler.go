// Tourdesk - Tour Operator Booking and Enquiry Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tourdesk

package notify

import (
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/goccy/go-json"

	"github.com/tomtom215/tourdesk/internal/logging"
	"github.com/tomtom215/tourdesk/internal/metrics"
)

// HandlerName identifies the email consumer on the router.
const HandlerName = "email-delivery"

// EmailHandler consumes rendered emails and sends them.
type EmailHandler struct {
	sender Sender
}

// NewEmailHandler creates a handler sending through sender.
func NewEmailHandler(sender Sender) *EmailHandler {
	return &EmailHandler{sender: sender}
}

// Handle sends one message. A returned error is logged and acked by the
// router middleware; emails are not redelivered unless router retries are
// configured.
func (h *EmailHandler) Handle(msg *message.Message) error {
	var email Email
	if err := json.Unmarshal(msg.Payload, &email); err != nil {
		metrics.RecordNotificationDelivery("invalid", 0, err)
		return fmt.Errorf("notify: decode email %s: %w", msg.UUID, err)
	}

	ctx := msg.Context()
	if id := msg.Metadata.Get(MetadataCorrelationID); id != "" {
		ctx = logging.ContextWithCorrelationID(ctx, id)
	}

	start := time.Now()
	err := h.sender.Send(ctx, email)
	metrics.RecordNotificationDelivery(string(email.Audience), time.Since(start), err)

	log := logging.Ctx(ctx)
	if err != nil {
		log.Error().Err(err).
			Str("audience", string(email.Audience)).
			Str("code", email.Code).
			Str("reason", classifyEmailError(err)).
			Msg("Email delivery failed")
		return fmt.Errorf("notify: send %s email for %s: %w", email.Audience, email.Code, err)
	}
	log.Debug().
		Str("audience", string(email.Audience)).
		Str("code", email.Code).
		Msg("Email delivered")
	return nil
}
