// Tourdesk - Tour Operator Booking and Enquiry Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tourdesk

/*
Package services adapts Tourdesk components to suture's Serve pattern.

  - HTTPServerService wraps *http.Server with graceful shutdown and an
    optional readiness gate.
  - RouterService runs the watermill notification router.
  - NATSServerService stops the embedded NATS server when the tree stops.

Each wrapper implements fmt.Stringer so suture can name it in logs.
*/
package services
