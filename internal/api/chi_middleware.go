// Tourdesk - Tour Operator Booking and Enquiry Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tourdesk

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"

	"github.com/tomtom215/tourdesk/internal/logging"
	"github.com/tomtom215/tourdesk/internal/metrics"
)

// ChiMiddlewareConfig holds configuration for Chi middleware factories.
type ChiMiddlewareConfig struct {
	// CORS configuration
	CORSAllowedOrigins []string
	CORSAllowedMethods []string
	CORSAllowedHeaders []string
	CORSMaxAge         int // seconds

	// Global per-IP limit over all /api routes
	RateLimitRequests int
	RateLimitWindow   time.Duration
	RateLimitDisabled bool

	// Proxies whose forwarding headers name the client
	TrustedProxies []string
}

// DefaultChiMiddlewareConfig returns a secure default configuration.
// CORS origins default to empty, requiring explicit configuration.
func DefaultChiMiddlewareConfig() *ChiMiddlewareConfig {
	return &ChiMiddlewareConfig{
		CORSAllowedOrigins: []string{},
		CORSAllowedMethods: []string{"POST", "OPTIONS"},
		CORSAllowedHeaders: []string{"Content-Type", "X-Request-ID"},
		CORSMaxAge:         86400,

		RateLimitRequests: 120,
		RateLimitWindow:   time.Minute,
	}
}

// ChiMiddleware provides Chi-compatible middleware factories.
type ChiMiddleware struct {
	config   *ChiMiddlewareConfig
	cors     func(http.Handler) http.Handler
	clientIP *ClientIPResolver
}

// NewChiMiddleware creates a new Chi middleware factory with the given configuration.
func NewChiMiddleware(config *ChiMiddlewareConfig) *ChiMiddleware {
	if config == nil {
		config = DefaultChiMiddlewareConfig()
	}

	corsHandler := cors.Handler(cors.Options{
		AllowedOrigins:   config.CORSAllowedOrigins,
		AllowedMethods:   config.CORSAllowedMethods,
		AllowedHeaders:   config.CORSAllowedHeaders,
		ExposedHeaders:   []string{"X-Request-ID", "Retry-After", "X-RateLimit-Limit", "X-RateLimit-Remaining"},
		AllowCredentials: false,
		MaxAge:           config.CORSMaxAge,
	})

	return &ChiMiddleware{
		config:   config,
		cors:     corsHandler,
		clientIP: NewClientIPResolver(config.TrustedProxies),
	}
}

// ClientIP resolves the client address for the guard and the limiter.
func (m *ChiMiddleware) ClientIP() func(http.Handler) http.Handler {
	return m.clientIP.Middleware
}

// CORS returns the go-chi/cors middleware.
func (m *ChiMiddleware) CORS() func(http.Handler) http.Handler {
	return m.cors
}

// RateLimit returns the global per-IP limiter. Rejections use the same
// envelope as guard denials.
func (m *ChiMiddleware) RateLimit() func(http.Handler) http.Handler {
	if m.config.RateLimitDisabled || m.config.RateLimitRequests <= 0 {
		return func(next http.Handler) http.Handler {
			return next
		}
	}

	return httprate.Limit(
		m.config.RateLimitRequests,
		m.config.RateLimitWindow,
		httprate.WithKeyFuncs(KeyFunc),
		httprate.WithLimitHandler(onGlobalLimit),
	)
}

func onGlobalLimit(w http.ResponseWriter, r *http.Request) {
	metrics.APIRateLimitHits.WithLabelValues("/api").Inc()
	ip := clientIP(r)
	logging.Ctx(r.Context()).Warn().
		Str("ip", logging.MaskIP(ip)).
		Str("path", r.URL.Path).
		Msg("Global rate limit exceeded")
	NewResponseWriter(w, r).TooManyRequests()
}

// chiMiddleware adapts http.HandlerFunc middleware for chi.
func chiMiddleware(mw func(http.HandlerFunc) http.HandlerFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return mw(next.ServeHTTP)
	}
}
