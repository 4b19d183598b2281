// Tourdesk - Tour Operator Booking and Enquiry Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tourdesk

// Package metrics registers the Prometheus collectors exported on /metrics.
//
// Collectors are package-level and registered on the default registry at
// init. Record* helpers keep label sets consistent across callers.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	APIRateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_rate_limit_hits_total",
			Help: "Requests rejected by the global per-IP limiter",
		},
		[]string{"endpoint"},
	)

	// Submission pipeline
	SubmissionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "submissions_total",
			Help: "Submissions by kind and outcome",
		},
		[]string{"kind", "outcome"}, // outcome: accepted or a submission error class
	)

	SubmissionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "submission_duration_seconds",
			Help:    "Time spent in the submission pipeline",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"kind"},
	)

	GuardDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "abuse_guard_decisions_total",
			Help: "Abuse guard decisions per request class",
		},
		[]string{"class", "decision"}, // decision: allowed, limited, honeypot, store_error
	)

	GuardStoreErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "guard_store_errors_total",
			Help: "Counter store failures, labelled by the failure policy applied",
		},
		[]string{"policy"},
	)

	// Database
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "duckdb_query_duration_seconds",
			Help:    "Duration of DuckDB queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "table"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "duckdb_query_errors_total",
			Help: "Total number of DuckDB query errors",
		},
		[]string{"operation", "table"},
	)

	ConfirmationCodeCollisions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "confirmation_code_collisions_total",
			Help: "Generated confirmation codes rejected by the unique index",
		},
	)

	// Notifications
	NotificationsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_published_total",
			Help: "Notification messages handed to the message bus",
		},
		[]string{"audience", "result"},
	)

	NotificationsDelivered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_delivered_total",
			Help: "Notification delivery attempts by audience and result",
		},
		[]string{"audience", "result"},
	)

	NotificationDeliveryDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "notification_delivery_duration_seconds",
			Help:    "Time to render and send one notification",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
	)

	// Circuit breakers
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// System
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "app_info",
			Help: "Application version and build information",
		},
		[]string{"version", "go_version"},
	)
)

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active API requests
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordSubmission records one pipeline run.
func RecordSubmission(kind, outcome string, duration time.Duration) {
	SubmissionsTotal.WithLabelValues(kind, outcome).Inc()
	SubmissionDuration.WithLabelValues(kind).Observe(duration.Seconds())
}

// RecordGuardDecision records one abuse guard decision.
func RecordGuardDecision(class, decision string) {
	GuardDecisions.WithLabelValues(class, decision).Inc()
}

// RecordGuardStoreError records a counter store failure.
func RecordGuardStoreError(policy string) {
	GuardStoreErrors.WithLabelValues(policy).Inc()
}

// RecordDBQuery records a database query metric
func RecordDBQuery(operation, table string, duration time.Duration, err error) {
	DBQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
	if err != nil {
		DBQueryErrors.WithLabelValues(operation, table).Inc()
	}
}

// RecordNotificationPublish records a publish to the notification topic.
func RecordNotificationPublish(audience string, err error) {
	NotificationsPublished.WithLabelValues(audience, result(err)).Inc()
}

// RecordNotificationDelivery records one delivery attempt.
func RecordNotificationDelivery(audience string, duration time.Duration, err error) {
	NotificationsDelivered.WithLabelValues(audience, result(err)).Inc()
	NotificationDeliveryDuration.Observe(duration.Seconds())
}

// RecordCircuitBreakerTransition updates the state gauge and counts the
// transition. States use gobreaker's names.
func RecordCircuitBreakerTransition(name, from, to string) {
	CircuitBreakerTransitions.WithLabelValues(name, from, to).Inc()
	CircuitBreakerState.WithLabelValues(name).Set(breakerStateValue(to))
}

func breakerStateValue(state string) float64 {
	switch state {
	case "half-open":
		return 1
	case "open":
		return 2
	default:
		return 0
	}
}

func result(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}
