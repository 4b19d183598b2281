// Tourdesk - Tour Operator Booking and Enquiry Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tourdesk

// Package notify sends staff and customer emails after a submission is
// stored.
//
// The Dispatcher renders one Email per audience and publishes each as its
// own watermill message; dispatch is detached from the request and its
// failures are only logged. EmailHandler consumes the topic and hands each
// Email to a Sender: SMTP behind a circuit breaker and rate limiter, or a
// LogSender when no SMTP host is configured.
package notify

import (
	"time"

	"github.com/tomtom215/tourdesk/internal/models"
)

// Audience is the recipient group of an email.
type Audience string

const (
	AudienceStaff    Audience = "staff"
	AudienceCustomer Audience = "customer"
)

// Audiences returns who is emailed for kind. Contact messages only reach
// staff.
func Audiences(kind models.Kind) []Audience {
	if kind == models.KindContact {
		return []Audience{AudienceStaff}
	}
	return []Audience{AudienceStaff, AudienceCustomer}
}

// Detail is one labelled line in an email body.
type Detail struct {
	Label string
	Value string
}

// Notice describes a stored submission for rendering.
type Notice struct {
	Kind  models.Kind
	Code  string
	Name  string
	Email string
	Phone string
	// Subject and Message are set for contact messages.
	Subject  string
	Message  string
	ItemName string
	Items    []models.PricedItem
	Total    models.Money
	Details  []Detail
	// CreatedAt is when the record was stored.
	CreatedAt time.Time
}

// Email is the message payload carried on the notification topic.
type Email struct {
	ID       string      `json:"id"`
	Audience Audience    `json:"audience"`
	Kind     models.Kind `json:"kind"`
	Code     string      `json:"code"`
	To       string      `json:"to"`
	ReplyTo  string      `json:"replyTo,omitempty"`
	Subject  string      `json:"subject"`
	Text     string      `json:"text"`
	HTML     string      `json:"html,omitempty"`
}
