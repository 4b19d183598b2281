// Tourdesk - Tour Operator Booking and Enquiry Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tourdesk

/*
Package supervisor provides process supervision for Tourdesk using suture v4.

	RootSupervisor ("tourdesk")
	├── MessagingSupervisor ("messaging-layer")
	│   ├── NATSServerService (if nats.embedded_server)
	│   └── RouterService (notification delivery)
	└── APISupervisor ("api-layer")
	    └── HTTPServerService

Crashed services are restarted with suture's backoff. Supervisor events are
logged through sutureslog.

# Shutdown

On SIGINT or SIGTERM the server stops in this order:

 1. StopAPIService removes the HTTP server so no new submission is accepted
 2. the notification dispatcher is drained with a bounded wait
 3. the tree context is canceled, stopping the router and NATS

# Usage

	tree, err := supervisor.NewSupervisorTree(slogger, supervisor.TreeConfig{
	    ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})
	tree.AddMessagingService(services.NewRouterService(router))
	httpToken := tree.AddAPIService(services.NewHTTPServerService(srv, timeout,
	    services.WithReady(router.Running())))
	errCh := tree.ServeBackground(ctx)
*/
package supervisor
