// Tourdesk - Tour Operator Booking and Enquiry Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tourdesk

// Package testinfra provides container-backed test infrastructure.
//
// It uses testcontainers-go to run real dependencies for integration tests.
// Everything here is behind the integration build tag:
//
//	go test -tags integration ./...
//
// # Mailpit
//
// MailpitContainer runs a Mailpit SMTP capture server, so the SMTP sender
// is tested against a real SMTP conversation and the delivered messages can
// be inspected:
//
//	mailpit, err := testinfra.NewMailpitContainer(ctx)
//	...
//	msgs, err := mailpit.Messages(ctx)
//
// Tests are skipped when Docker is unavailable.
package testinfra
