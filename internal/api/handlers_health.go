// Tourdesk - Tour Operator Booking and Enquiry Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tourdesk

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/tomtom215/tourdesk/internal/logging"
)

// readyTimeout bounds the readiness database ping.
const readyTimeout = 2 * time.Second

// HealthLive handles liveness probe requests (Kubernetes-style).
// Returns 200 OK while the process is serving.
//
// @Summary Liveness check
// @Description Returns 200 OK while the process is serving, regardless of the database.
// @Tags Health
// @Produce json
// @Success 200 {object} APIResponse "Service is alive"
// @Router /health/live [get]
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	NewResponseWriter(w, r).Success(map[string]interface{}{
		"alive":  true,
		"uptime": time.Since(h.startTime).Seconds(),
	})
}

// HealthReady handles readiness probe requests (Kubernetes-style).
// Returns 200 OK only if the submission store answers a ping.
//
// @Summary Readiness check
// @Description Returns 200 OK only when the submission store answers a ping, 503 otherwise.
// @Tags Health
// @Produce json
// @Success 200 {object} APIResponse "Service is ready"
// @Failure 503 {object} APIResponse{error=APIError} "Service is not ready"
// @Router /health/ready [get]
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	var err error
	if h.db == nil {
		err = errNoDatabase
	} else {
		err = h.db.Ping(ctx)
	}
	if err != nil {
		logging.Ctx(r.Context()).Warn().Err(err).Msg("Readiness check failed")
		rw.ServiceUnavailable(MsgNotReady)
		return
	}

	rw.Success(map[string]interface{}{
		"ready":              true,
		"database_connected": true,
		"uptime":             time.Since(h.startTime).Seconds(),
	})
}
