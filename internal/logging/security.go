// Tourdesk - Tour Operator Booking and Enquiry Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tourdesk

package logging

import (
	"net"
	"strings"

	"github.com/rs/zerolog"
)

// AbuseEvent describes a request rejected by the abuse guard.
type AbuseEvent struct {
	// Event is rate_limited, honeypot_tripped or guard_store_error.
	Event string
	// Class is the endpoint class (booking, quote, contact, bundle, custom).
	Class string
	// IPAddress is masked before it is written.
	IPAddress string
	// UserAgent is truncated before it is written.
	UserAgent string
	// Allowed is true when the request went through anyway (fail-open).
	Allowed bool
	// Error carries the store error for guard_store_error events.
	Error string
	Details map[string]string
}

// AbuseLogger writes the abuse audit trail. Client addresses and any
// email-looking values are masked so the trail can be retained longer than
// submission data.
type AbuseLogger struct {
	logger zerolog.Logger
}

// NewAbuseLogger returns a logger tagged component=abuse_guard.
func NewAbuseLogger() *AbuseLogger {
	return &AbuseLogger{logger: WithComponent("abuse_guard")}
}

// NewAbuseLoggerWithLogger is used by tests to capture output.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewAbuseLoggerWithLogger(logger zerolog.Logger) *AbuseLogger {
	return &AbuseLogger{logger: logger.With().Str("component", "abuse_guard").Logger()}
}

// LogEvent writes one abuse event at warn level.
func (l *AbuseLogger) LogEvent(event *AbuseEvent) {
	e := l.logger.Warn().
		Str("event", event.Event).
		Bool("allowed", event.Allowed)

	if event.Class != "" {
		e = e.Str("class", event.Class)
	}
	if event.IPAddress != "" {
		e = e.Str("ip", MaskIP(event.IPAddress))
	}
	if event.UserAgent != "" {
		e = e.Str("user_agent", truncateString(event.UserAgent, 100))
	}
	if event.Error != "" {
		e = e.Str("error", truncateString(event.Error, 200))
	}
	for k, v := range event.Details {
		e = e.Str(k, SanitizeValue(v))
	}
	e.Msg("Abuse guard rejection")
}

// LogRateLimited records a quota denial.
func (l *AbuseLogger) LogRateLimited(class, ip, userAgent string) {
	l.LogEvent(&AbuseEvent{Event: "rate_limited", Class: class, IPAddress: ip, UserAgent: userAgent})
}

// LogHoneypot records a filled honeypot field.
func (l *AbuseLogger) LogHoneypot(class, ip, userAgent string) {
	l.LogEvent(&AbuseEvent{Event: "honeypot_tripped", Class: class, IPAddress: ip, UserAgent: userAgent})
}

// LogStoreError records a counter store failure and the policy outcome.
func (l *AbuseLogger) LogStoreError(class, ip string, allowed bool, err error) {
	ev := &AbuseEvent{Event: "guard_store_error", Class: class, IPAddress: ip, Allowed: allowed}
	if err != nil {
		ev.Error = err.Error()
	}
	l.LogEvent(ev)
}

// MaskIP zeroes the host part of an address: the last octet of IPv4 and the
// last 80 bits of IPv6. Unparseable input is returned as "***".
//
//	MaskIP("203.0.113.45") == "203.0.113.0"
func MaskIP(addr string) string {
	ip := net.ParseIP(strings.TrimSpace(addr))
	if ip == nil {
		return "***"
	}
	if v4 := ip.To4(); v4 != nil {
		return v4.Mask(net.CIDRMask(24, 32)).String()
	}
	return ip.Mask(net.CIDRMask(48, 128)).String()
}

// SanitizeEmail masks the local part of an address.
// Example: "john.doe@example.com" -> "jo***@example.com"
func SanitizeEmail(email string) string {
	if email == "" {
		return ""
	}
	at := strings.Index(email, "@")
	if at <= 0 {
		return "***"
	}
	local, domain := email[:at], email[at:]
	if len(local) <= 2 {
		return "***" + domain
	}
	return local[:2] + "***" + domain
}

// SanitizeValue masks email-looking values and truncates the rest.
func SanitizeValue(value string) string {
	if strings.Contains(value, "@") && strings.Contains(value, ".") {
		return SanitizeEmail(value)
	}
	return truncateString(value, 200)
}

func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
