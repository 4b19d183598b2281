// Tourdesk - Tour Operator Booking and Enquiry Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tourdesk

/*
Package middleware provides the HTTP middleware shared by every route.

Key Components:

  - RequestID: accepts a well-formed upstream X-Request-ID or generates one,
    and stores request and correlation IDs in the logging context
  - PrometheusMetrics: request count, latency and in-flight gauge, labelled
    by the chi route pattern so path parameters do not explode cardinality
  - SecurityHeaders: nosniff, frame denial, referrer policy, no-store and
    optional HSTS

Middleware here uses the http.HandlerFunc form. The api package adapts it
for chi:

	r.Use(chiMiddleware(middleware.PrometheusMetrics))

See Also:

  - internal/api: router assembly and the remaining chi middleware (CORS,
    httprate, client address resolution, Recoverer)
  - internal/metrics: metric definitions
*/
package middleware
