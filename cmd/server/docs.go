// Tourdesk - Tour Operator Booking and Enquiry Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tourdesk

// General API information for swag. Regenerate the docs package with:
//
//	swag init -g cmd/server/docs.go -o docs
//
// @title Tourdesk API
// @version 1.0
// @description Public submission endpoints of the tour operator website: bookings,
// @description quotes, contact messages, package bundles and custom packages.
// @description Every response uses the {success, data | error, meta} envelope.
//
// @contact.name GitHub Repository
// @contact.url https://github.com/tomtom215/tourdesk/issues
//
// @license.name AGPL-3.0-or-later
// @license.url https://www.gnu.org/licenses/agpl-3.0.html
//
// @host localhost:8080
// @BasePath /
// @schemes http https
//
// @tag.name Submissions
// @tag.description Public form submissions, rate limited per client IP and endpoint
//
// @tag.name Health
// @tag.description Liveness and readiness checks
package main
