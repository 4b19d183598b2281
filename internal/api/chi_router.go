// Tourdesk - Tour Operator Booking and Enquiry Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tourdesk

package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/tomtom215/tourdesk/internal/middleware"
)

var errNoDatabase = errors.New("no database configured")

// RouterConfig configures NewRouter.
type RouterConfig struct {
	Middleware *ChiMiddlewareConfig
	// HSTS adds Strict-Transport-Security on TLS requests.
	HSTS bool
}

// NewRouter builds the chi router with every route and middleware.
func NewRouter(handler *Handler, cfg RouterConfig) http.Handler {
	mw := NewChiMiddleware(cfg.Middleware)
	r := chi.NewRouter()

	// ========================
	// Global Middleware Stack
	// ========================
	r.Use(chiMiddleware(middleware.RequestID))
	r.Use(mw.ClientIP())
	r.Use(chimiddleware.Recoverer)
	r.Use(mw.CORS()) // CORS must be global to handle OPTIONS preflight
	r.Use(chiMiddleware(middleware.SecurityHeaders(cfg.HSTS)))
	r.Use(chiMiddleware(middleware.PrometheusMetrics))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		NewResponseWriter(w, r).NotFound(MsgRouteNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		NewResponseWriter(w, r).Error(http.StatusMethodNotAllowed, ErrCodeMethodNotAllowed, MsgMethodNotAllowed)
	})

	// ========================
	// Health, Metrics and API Docs
	// ========================
	r.Get("/health/live", handler.HealthLive)
	r.Get("/health/ready", handler.HealthReady)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
		httpSwagger.DeepLinking(true),
		httpSwagger.DocExpansion("list"),
		httpSwagger.DomID("swagger-ui"),
	))

	// ========================
	// Public Submissions
	// ========================
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(mw.RateLimit())

		r.Post("/bookings", handler.CreateBooking)
		r.Post("/quotes", handler.CreateQuote)
		r.Post("/contact", handler.CreateContact)
		r.Post("/bundles", handler.CreateBundle)
		r.Post("/custom-packages", handler.CreateCustomPackage)
	})

	return r
}
