// Tourdesk - Tour Operator Booking and Enquiry Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tourdesk

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/thejerf/suture/v4"

	_ "github.com/tomtom215/tourdesk/docs" // Import generated swagger docs
	"github.com/tomtom215/tourdesk/internal/api"
	"github.com/tomtom215/tourdesk/internal/config"
	"github.com/tomtom215/tourdesk/internal/database"
	"github.com/tomtom215/tourdesk/internal/guard"
	"github.com/tomtom215/tourdesk/internal/logging"
	"github.com/tomtom215/tourdesk/internal/pricing"
	"github.com/tomtom215/tourdesk/internal/submission"
	"github.com/tomtom215/tourdesk/internal/supervisor"
	"github.com/tomtom215/tourdesk/internal/supervisor/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// Config not yet available, default logger.
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("db_path", cfg.Database.Path).
		Str("guard_backend", cfg.Guard.Backend).
		Bool("notifications", cfg.Notifications.Enabled).
		Str("transport", cfg.Notifications.Transport).
		Msg("Starting Tourdesk")

	if err := run(cfg); err != nil {
		logging.Fatal().Err(err).Msg("Tourdesk stopped with an error")
	}
	logging.Info().Msg("Application stopped gracefully")
}

//nolint:gocyclo // Sequential startup and shutdown steps
func run(cfg *config.Config) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := database.New(&cfg.Database)
	if err != nil {
		return fmt.Errorf("initialize database: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}()
	logging.Info().Msg("Database initialized successfully")

	if cfg.Catalog.SeedPath != "" {
		if err := db.SeedFromFile(ctx, cfg.Catalog.SeedPath); err != nil {
			return fmt.Errorf("seed catalog: %w", err)
		}
		logging.Info().Str("path", cfg.Catalog.SeedPath).Msg("Catalog seeded")
	}

	var nats *natsComponents
	if needsNATS(cfg) {
		if nats, err = startNATS(cfg); err != nil {
			return err
		}
		defer nats.close()
	}

	counters, closeCounters, err := newCounterStore(ctx, cfg.Guard, nats)
	if err != nil {
		return fmt.Errorf("initialize guard store: %w", err)
	}
	defer func() {
		if err := closeCounters(); err != nil {
			logging.Error().Err(err).Msg("Error closing guard store")
		}
	}()
	abuseGuard := guard.New(counters, guard.Config{
		Limits:        guardLimits(cfg.Guard),
		FailurePolicy: guard.FailurePolicy(cfg.Guard.FailurePolicy),
		HoneypotField: cfg.Guard.HoneypotField,
	})

	deps := submission.Deps{
		Guard:  abuseGuard,
		Pricer: pricing.NewResolver(db),
		Store:  db,
	}
	var notif *notifications
	if cfg.Notifications.Enabled {
		if notif, err = newNotifications(ctx, cfg, nats); err != nil {
			return fmt.Errorf("initialize notifications: %w", err)
		}
		defer func() {
			if err := notif.pubsub.Close(); err != nil {
				logging.Error().Err(err).Msg("Error closing notification transport")
			}
		}()
		deps.Notifier = notif.dispatcher
	} else {
		logging.Warn().Msg("Notifications disabled, submissions are stored without emails")
	}
	pipeline := submission.New(deps, submission.WithMaxBodyBytes(cfg.Server.MaxBodyBytes))

	mw := api.DefaultChiMiddlewareConfig()
	mw.CORSAllowedOrigins = cfg.Server.CORSOrigins
	mw.RateLimitRequests = cfg.Server.GlobalRateLimit
	mw.RateLimitWindow = cfg.Server.GlobalRateWindow
	mw.RateLimitDisabled = cfg.Server.GlobalRateLimit <= 0
	mw.TrustedProxies = cfg.Server.TrustedProxies

	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           api.NewRouter(api.NewHandler(pipeline, db), api.RouterConfig{Middleware: mw, HSTS: cfg.Server.EnableHSTS}),
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})
	if err != nil {
		return fmt.Errorf("create supervisor tree: %w", err)
	}

	if nats != nil && nats.server != nil {
		tree.AddMessagingService(services.NewNATSServerService(nats.server, cfg.Server.ShutdownTimeout))
	}
	var httpOpts []services.HTTPOption
	if notif != nil {
		routerSvc := services.NewRouterService(notif.router)
		tree.AddMessagingService(routerSvc)
		httpOpts = append(httpOpts, services.WithReady(routerSvc.Running()))
	}
	httpToken := tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout, httpOpts...))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	logging.Info().Msg("Starting supervisor tree...")
	errCh := tree.ServeBackground(ctx)

	var treeErr error
	select {
	case sig := <-sigCh:
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		shutdown(tree, httpToken, notif, cfg)
		cancel()
		treeErr = <-errCh
	case treeErr = <-errCh:
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}

	switch {
	case treeErr == nil, errors.Is(treeErr, context.Canceled):
		return nil
	case errors.Is(treeErr, suture.ErrTerminateSupervisorTree):
		return errors.New("supervisor tree terminated by a failed service")
	default:
		return treeErr
	}
}

// shutdown stops accepting submissions, then gives in-flight notifications
// until the close timeout to be published.
func shutdown(tree *supervisor.SupervisorTree, httpToken suture.ServiceToken, notif *notifications, cfg *config.Config) {
	if err := tree.StopAPIService(httpToken, cfg.Server.ShutdownTimeout+time.Second); err != nil {
		logging.Warn().Err(err).Msg("HTTP server did not stop cleanly")
	}
	if notif == nil {
		return
	}

	drainCtx, cancel := context.WithTimeout(context.Background(), cfg.Notifications.CloseTimeout)
	defer cancel()
	if err := notif.dispatcher.Wait(drainCtx); err != nil {
		logging.Warn().Err(err).Msg("Notification dispatch did not drain before timeout")
		return
	}
	logging.Info().Msg("Notification dispatch drained")
}
