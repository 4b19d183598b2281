// Tourdesk - Tour Operator Booking and Enquiry Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tourdesk

package config

import (
	"fmt"
	"net/mail"
	"net/netip"
	"strings"

	"github.com/tomtom215/tourdesk/internal/logging"
)

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	if err := c.validateGuard(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	return c.validateSMTP()
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.MaxBodyBytes <= 0 {
		return fmt.Errorf("MAX_BODY_BYTES must be positive")
	}
	if c.Server.GlobalRateLimit < 0 {
		return fmt.Errorf("GLOBAL_RATE_LIMIT must not be negative")
	}
	if c.Server.GlobalRateLimit > 0 && c.Server.GlobalRateWindow <= 0 {
		return fmt.Errorf("GLOBAL_RATE_WINDOW must be positive when GLOBAL_RATE_LIMIT is set")
	}
	for _, proxy := range c.Server.TrustedProxies {
		if !validProxy(proxy) {
			return fmt.Errorf("TRUSTED_PROXIES entry %q is not an IP address or CIDR", proxy)
		}
	}
	return nil
}

func validProxy(s string) bool {
	if strings.Contains(s, "/") {
		_, err := netip.ParsePrefix(s)
		return err == nil
	}
	_, err := netip.ParseAddr(s)
	return err == nil
}

func (c *Config) validateLogging() error {
	if !logging.ValidLevel(c.Logging.Level) {
		return fmt.Errorf("LOG_LEVEL %q is not a valid level", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "json", "console":
		return nil
	default:
		return fmt.Errorf("LOG_FORMAT must be json or console, got %q", c.Logging.Format)
	}
}

func (c *Config) validateGuard() error {
	switch c.Guard.Backend {
	case "memory", "nats":
	case "badger":
		if c.Guard.BadgerDir == "" {
			return fmt.Errorf("GUARD_BADGER_DIR is required when GUARD_BACKEND=badger")
		}
	default:
		return fmt.Errorf("GUARD_BACKEND must be memory, badger or nats, got %q", c.Guard.Backend)
	}

	switch c.Guard.FailurePolicy {
	case "open", "closed":
	default:
		return fmt.Errorf("GUARD_FAILURE_POLICY must be open or closed, got %q", c.Guard.FailurePolicy)
	}

	if strings.TrimSpace(c.Guard.HoneypotField) == "" {
		return fmt.Errorf("GUARD_HONEYPOT_FIELD must not be empty")
	}

	limits := map[string]LimitConfig{
		"booking": c.Guard.Booking,
		"quote":   c.Guard.Quote,
		"contact": c.Guard.Contact,
		"bundle":  c.Guard.Bundle,
		"custom":  c.Guard.Custom,
	}
	for class, l := range limits {
		if l.Requests < 1 {
			return fmt.Errorf("rate limit for %s must allow at least 1 request, got %d", class, l.Requests)
		}
		if l.Window <= 0 {
			return fmt.Errorf("rate limit window for %s must be positive", class)
		}
	}
	return nil
}

func (c *Config) validateNotifications() error {
	n := c.Notifications
	if !n.Enabled {
		return nil
	}
	switch n.Transport {
	case "gochannel", "nats":
	default:
		return fmt.Errorf("NOTIFY_TRANSPORT must be gochannel or nats, got %q", n.Transport)
	}
	if n.Topic == "" {
		return fmt.Errorf("NOTIFY_TOPIC must not be empty")
	}
	if _, err := mail.ParseAddress(n.StaffAddress); err != nil {
		return fmt.Errorf("NOTIFY_STAFF_ADDRESS is not a valid address: %w", err)
	}
	if _, err := mail.ParseAddress(n.FromAddress); err != nil {
		return fmt.Errorf("NOTIFY_FROM_ADDRESS is not a valid address: %w", err)
	}
	if n.MaxRetries < 0 {
		return fmt.Errorf("NOTIFY_MAX_RETRIES must not be negative")
	}
	if n.SendRate <= 0 {
		return fmt.Errorf("NOTIFY_SEND_RATE must be positive")
	}
	return nil
}

func (c *Config) validateSMTP() error {
	if c.SMTP.Host == "" {
		return nil
	}
	if c.SMTP.Port < 1 || c.SMTP.Port > 65535 {
		return fmt.Errorf("SMTP_PORT must be between 1 and 65535, got %d", c.SMTP.Port)
	}
	if c.SMTP.BreakerFailures == 0 {
		return fmt.Errorf("SMTP_BREAKER_FAILURES must be at least 1")
	}
	return nil
}
