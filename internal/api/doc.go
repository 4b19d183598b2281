// Tourdesk - Tour Operator Booking and Enquiry Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tourdesk

/*
Package api provides the public HTTP surface of Tourdesk.

Routes:

	POST /api/v1/bookings         booking request
	POST /api/v1/quotes           quote request
	POST /api/v1/contact          contact message
	POST /api/v1/bundles          package bundle request
	POST /api/v1/custom-packages  custom multi-destination package
	GET  /health/live             liveness probe
	GET  /health/ready            readiness probe (database ping)
	GET  /metrics                 Prometheus exposition

Every submission route hands the raw body to submission.Pipeline and maps
its error class to one response envelope:

	rate limited          429 TOO_MANY_REQUESTS  Retry-After, X-RateLimit-*
	honeypot, bad JSON    400 BAD_REQUEST        one generic message
	validation failed     400 VALIDATION_FAILED  per-field details
	missing or inactive   404 NOT_FOUND
	anything else         500 INTERNAL_ERROR

Responses never include database text or stack traces.

Middleware Stack:

Global, outermost first: RequestID, ClientIP, Recoverer, CORS, security
headers, Prometheus metrics. The /api group adds a coarse per-IP limiter
(go-chi/httprate) ahead of the per-class quotas enforced by the guard.

Client Address:

Both limiters key on the address ClientIPResolver derives. Forwarding
headers (X-Forwarded-For, X-Real-IP) are read only when the socket peer is
listed in server.trusted_proxies; otherwise the socket address is used.
*/
package api
