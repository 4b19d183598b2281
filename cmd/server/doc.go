// Tourdesk - Tour Operator Booking and Enquiry Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tourdesk

/*
Package main is the entry point for the Tourdesk server.

Tourdesk accepts bookings, quote requests, contact messages, package bundle
requests and custom package requests from a tour operator's public website.
Every submission goes through the trusted submission pipeline: per-IP quota,
honeypot, sanitization, validation, catalog pricing, a transactional write
with a confirmation code, and detached email notification.

# Startup

 1. Configuration: koanf defaults, config.yaml, then environment variables
 2. Logging: zerolog, JSON or console
 3. Database: DuckDB, optionally seeded from catalog.seed_path
 4. NATS (optional): embedded or external, when the guard backend or the
    notification transport is nats
 5. Abuse guard: memory, badger or NATS KV counters
 6. Notifications: watermill router, SMTP or log sender, dispatcher
 7. Supervisor tree: suture v4 with the messaging and api layers

# Configuration

Common environment variables:

	HTTP_PORT=8080
	TRUSTED_PROXIES=10.0.0.0/8      # peers whose X-Forwarded-For is believed
	DUCKDB_PATH=/data/tourdesk.duckdb
	GUARD_BACKEND=memory            # memory, badger, nats
	GUARD_FAILURE_POLICY=closed     # closed, open
	NOTIFY_TRANSPORT=gochannel      # gochannel, nats
	NOTIFY_STAFF_ADDRESS=reservations@example.com
	SMTP_HOST=smtp.example.com      # unset logs emails instead of sending
	NATS_EMBEDDED=true

# Signal Handling

On SIGINT or SIGTERM the HTTP server is stopped first, pending notification
dispatches are drained for up to NOTIFY_CLOSE_TIMEOUT, and then the router,
NATS and the database are closed.
*/
package main
