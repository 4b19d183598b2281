// Tourdesk - Tour Operator Booking and Enquiry Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tourdesk

// Package guard rejects abusive submissions before any work is done.
//
// Two checks run for every public submission:
//
//   - Allow applies a fixed-window quota per client IP and endpoint class.
//     It runs before the request body is read.
//   - CheckHoneypot rejects bodies whose hidden honeypot field was filled in.
//     It runs after decoding and before sanitization.
//
// Quota state lives in a CounterStore (in-process, BadgerDB or NATS
// JetStream KV). When the store fails, the configured FailurePolicy decides
// whether the request is denied (closed) or allowed (open).
package guard

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tomtom215/tourdesk/internal/logging"
	"github.com/tomtom215/tourdesk/internal/metrics"
	"github.com/tomtom215/tourdesk/internal/models"
)

var (
	// ErrRateLimited is returned by Allow when the request must be rejected.
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrBotDetected is returned by CheckHoneypot.
	ErrBotDetected = errors.New("honeypot field filled")

	// ErrNoLimit is returned for a class with no configured quota.
	ErrNoLimit = errors.New("no rate limit configured for class")
)

// DefaultHoneypotField is the hidden form field name.
const DefaultHoneypotField = "website"

// FailurePolicy decides the outcome when the counter store errors.
type FailurePolicy string

const (
	FailClosed FailurePolicy = "closed"
	FailOpen   FailurePolicy = "open"
)

// Limit is a fixed-window quota.
type Limit struct {
	Requests int
	Window   time.Duration
}

// Config configures a Guard.
type Config struct {
	Limits        map[models.Kind]Limit
	FailurePolicy FailurePolicy
	HoneypotField string
}

// Decision describes the quota state after an Allow call.
type Decision struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
	// RetryAfter is set on denials.
	RetryAfter time.Duration
}

// Guard is safe for concurrent use.
type Guard struct {
	store    CounterStore
	limits   map[models.Kind]Limit
	policy   FailurePolicy
	honeypot string
	audit    *logging.AbuseLogger
	now      func() time.Time
}

// Option customizes a Guard.
type Option func(*Guard)

// WithAbuseLogger replaces the audit logger.
func WithAbuseLogger(l *logging.AbuseLogger) Option {
	return func(g *Guard) { g.audit = l }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(g *Guard) { g.now = now }
}

// New returns a Guard over store. Missing policy and honeypot settings take
// their defaults.
func New(store CounterStore, cfg Config, opts ...Option) *Guard {
	g := &Guard{
		store:    store,
		limits:   make(map[models.Kind]Limit, len(cfg.Limits)),
		policy:   cfg.FailurePolicy,
		honeypot: cfg.HoneypotField,
		now:      time.Now,
	}
	for k, l := range cfg.Limits {
		g.limits[k] = l
	}
	if g.policy != FailOpen {
		g.policy = FailClosed
	}
	if g.honeypot == "" {
		g.honeypot = DefaultHoneypotField
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.audit == nil {
		g.audit = logging.NewAbuseLogger()
	}
	return g
}

// HoneypotField returns the configured honeypot field name.
func (g *Guard) HoneypotField() string { return g.honeypot }

// Allow consumes one unit of ip's quota for class. A denial returns the
// decision together with an error wrapping ErrRateLimited.
func (g *Guard) Allow(ctx context.Context, ip string, class models.Kind) (Decision, error) {
	limit, ok := g.limits[class]
	if !ok || limit.Requests <= 0 || limit.Window <= 0 {
		return Decision{}, fmt.Errorf("%w: %s", ErrNoLimit, class)
	}

	res, err := g.store.TryConsume(ctx, string(class)+":"+ip, limit.Requests, limit.Window)
	if err != nil {
		return g.onStoreError(ctx, ip, class, limit, err)
	}

	d := Decision{
		Allowed:   res.Allowed,
		Limit:     limit.Requests,
		Remaining: res.Remaining,
		ResetAt:   res.ResetAt,
	}
	if res.Allowed {
		metrics.RecordGuardDecision(string(class), "allowed")
		return d, nil
	}

	d.RetryAfter = res.ResetAt.Sub(g.now())
	if d.RetryAfter < time.Second {
		d.RetryAfter = time.Second
	}
	metrics.RecordGuardDecision(string(class), "limited")
	g.audit.LogRateLimited(string(class), ip, UserAgentFromContext(ctx))
	return d, ErrRateLimited
}

func (g *Guard) onStoreError(ctx context.Context, ip string, class models.Kind, limit Limit, err error) (Decision, error) {
	allowed := g.policy == FailOpen
	metrics.RecordGuardStoreError(string(g.policy))
	metrics.RecordGuardDecision(string(class), "store_error")
	g.audit.LogStoreError(string(class), ip, allowed, err)

	if allowed {
		return Decision{Allowed: true, Limit: limit.Requests, Remaining: limit.Requests}, nil
	}
	return Decision{
		Limit:      limit.Requests,
		ResetAt:    g.now().Add(limit.Window),
		RetryAfter: limit.Window,
	}, fmt.Errorf("%w: counter store: %w", ErrRateLimited, err)
}

// CheckHoneypot returns ErrBotDetected when the honeypot field holds anything
// other than the empty string, whitespace included. An absent or null field
// passes. class and ip are only used for the audit trail.
func (g *Guard) CheckHoneypot(ctx context.Context, fields map[string]any, ip string, class models.Kind) error {
	v, ok := fields[g.honeypot]
	if !ok || v == nil {
		return nil
	}
	if s, isString := v.(string); isString && s == "" {
		return nil
	}
	metrics.RecordGuardDecision(string(class), "honeypot")
	g.audit.LogHoneypot(string(class), ip, UserAgentFromContext(ctx))
	return ErrBotDetected
}

type ctxKey struct{}

// ContextWithUserAgent attaches the client user agent for the audit trail.
func ContextWithUserAgent(ctx context.Context, ua string) context.Context {
	return context.WithValue(ctx, ctxKey{}, ua)
}

// UserAgentFromContext returns the user agent set by ContextWithUserAgent.
func UserAgentFromContext(ctx context.Context) string {
	ua, _ := ctx.Value(ctxKey{}).(string)
	return ua
}
