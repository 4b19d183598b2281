// Tourdesk - Tour Operator Booking and Enquiry Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tourdesk

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// TestDefaultConfig verifies that defaultConfig() returns proper defaults
func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Server.MaxBodyBytes != 64<<10 {
		t.Errorf("Server.MaxBodyBytes = %d, want 64KiB", cfg.Server.MaxBodyBytes)
	}
	if cfg.Guard.Backend != "memory" {
		t.Errorf("Guard.Backend = %q, want memory", cfg.Guard.Backend)
	}
	if cfg.Guard.FailurePolicy != "closed" {
		t.Errorf("Guard.FailurePolicy = %q, want closed", cfg.Guard.FailurePolicy)
	}
	if cfg.Guard.HoneypotField != "website" {
		t.Errorf("Guard.HoneypotField = %q, want website", cfg.Guard.HoneypotField)
	}
	if cfg.Guard.Booking.Requests >= cfg.Guard.Contact.Requests {
		t.Errorf("bookings should be limited more tightly than contact messages")
	}
	if cfg.Guard.Booking.Window != time.Hour {
		t.Errorf("Guard.Booking.Window = %v, want 1h", cfg.Guard.Booking.Window)
	}
	if cfg.Notifications.Transport != "gochannel" {
		t.Errorf("Notifications.Transport = %q, want gochannel", cfg.Notifications.Transport)
	}
	if cfg.Notifications.MaxRetries != 0 {
		t.Errorf("Notifications.MaxRetries = %d, want 0", cfg.Notifications.MaxRetries)
	}
	if cfg.SMTP.Host != "" {
		t.Errorf("SMTP.Host should be empty by default, got %q", cfg.SMTP.Host)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestLoadWithKoanf_EnvOverrides(t *testing.T) {
	t.Setenv(ConfigPathEnvVar, filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("GUARD_FAILURE_POLICY", "open")
	t.Setenv("RATE_BOOKING_REQUESTS", "3")
	t.Setenv("RATE_BOOKING_WINDOW", "30m")
	t.Setenv("CORS_ORIGINS", "https://example.com, https://www.example.com")
	t.Setenv("SMTP_HOST", "mail.example.com")
	t.Setenv("TRUSTED_PROXIES", "10.0.0.0/8, 192.0.2.10")

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf() error = %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Guard.FailurePolicy != "open" {
		t.Errorf("Guard.FailurePolicy = %q, want open", cfg.Guard.FailurePolicy)
	}
	if cfg.Guard.Booking.Requests != 3 {
		t.Errorf("Guard.Booking.Requests = %d, want 3", cfg.Guard.Booking.Requests)
	}
	if cfg.Guard.Booking.Window != 30*time.Minute {
		t.Errorf("Guard.Booking.Window = %v, want 30m", cfg.Guard.Booking.Window)
	}
	if len(cfg.Server.CORSOrigins) != 2 || cfg.Server.CORSOrigins[1] != "https://www.example.com" {
		t.Errorf("Server.CORSOrigins = %v", cfg.Server.CORSOrigins)
	}
	if cfg.SMTP.Host != "mail.example.com" {
		t.Errorf("SMTP.Host = %q", cfg.SMTP.Host)
	}
	if len(cfg.Server.TrustedProxies) != 2 || cfg.Server.TrustedProxies[0] != "10.0.0.0/8" {
		t.Errorf("Server.TrustedProxies = %v", cfg.Server.TrustedProxies)
	}
	// Untouched values keep their defaults.
	if cfg.Guard.Contact.Requests != 20 {
		t.Errorf("Guard.Contact.Requests = %d, want 20", cfg.Guard.Contact.Requests)
	}
}

func TestLoadWithKoanf_File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  port: 7000
guard:
  backend: badger
  badger_dir: /tmp/guard
  quote:
    requests: 2
    window: 10m
notifications:
  staff_address: desk@example.org
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv(ConfigPathEnvVar, path)
	t.Setenv("HTTP_PORT", "7100")

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf() error = %v", err)
	}

	if cfg.Server.Port != 7100 {
		t.Errorf("env must override file: Server.Port = %d, want 7100", cfg.Server.Port)
	}
	if cfg.Guard.Backend != "badger" {
		t.Errorf("Guard.Backend = %q, want badger", cfg.Guard.Backend)
	}
	if cfg.Guard.Quote.Requests != 2 || cfg.Guard.Quote.Window != 10*time.Minute {
		t.Errorf("Guard.Quote = %+v", cfg.Guard.Quote)
	}
	if cfg.Notifications.StaffAddress != "desk@example.org" {
		t.Errorf("Notifications.StaffAddress = %q", cfg.Notifications.StaffAddress)
	}
}

func TestEnvTransformFunc(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"SMTP_HOST", "smtp.host"},
		{"RATE_CONTACT_WINDOW", "guard.contact.window"},
		{"GUARD_BACKEND", "guard.backend"},
		{"PATH", ""},
		{"HOME", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := envTransformFunc(tt.in); got != tt.want {
				t.Errorf("envTransformFunc(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"bad port", func(c *Config) { c.Server.Port = 0 }, "HTTP_PORT"},
		{"bad trusted proxy", func(c *Config) { c.Server.TrustedProxies = []string{"10.0.0.1", "proxy.internal"} }, "TRUSTED_PROXIES"},
		{"bad trusted cidr", func(c *Config) { c.Server.TrustedProxies = []string{"10.0.0.0/99"} }, "TRUSTED_PROXIES"},
		{"bad backend", func(c *Config) { c.Guard.Backend = "redis" }, "GUARD_BACKEND"},
		{"badger without dir", func(c *Config) { c.Guard.Backend = "badger"; c.Guard.BadgerDir = "" }, "GUARD_BADGER_DIR"},
		{"bad policy", func(c *Config) { c.Guard.FailurePolicy = "maybe" }, "GUARD_FAILURE_POLICY"},
		{"zero quota", func(c *Config) { c.Guard.Bundle.Requests = 0 }, "bundle"},
		{"zero window", func(c *Config) { c.Guard.Quote.Window = 0 }, "quote"},
		{"empty honeypot", func(c *Config) { c.Guard.HoneypotField = " " }, "GUARD_HONEYPOT_FIELD"},
		{"bad transport", func(c *Config) { c.Notifications.Transport = "kafka" }, "NOTIFY_TRANSPORT"},
		{"bad staff address", func(c *Config) { c.Notifications.StaffAddress = "nobody" }, "NOTIFY_STAFF_ADDRESS"},
		{"bad smtp port", func(c *Config) { c.SMTP.Host = "smtp"; c.SMTP.Port = 70000 }, "SMTP_PORT"},
		{"bad log level", func(c *Config) { c.Logging.Level = "loud" }, "LOG_LEVEL"},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }, "LOG_FORMAT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatalf("expected error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestValidate_NotificationsDisabled(t *testing.T) {
	cfg := defaultConfig()
	cfg.Notifications.Enabled = false
	cfg.Notifications.StaffAddress = ""
	if err := cfg.Validate(); err != nil {
		t.Errorf("disabled notifications should not require addresses: %v", err)
	}
}
