// Tourdesk - Tour Operator Booking and Enquiry Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tourdesk

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths are searched in order when CONFIG_PATH is unset.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/tourdesk/config.yaml",
	"/etc/tourdesk/config.yml",
}

// ConfigPathEnvVar overrides the config file location.
const ConfigPathEnvVar = "CONFIG_PATH"

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:             "0.0.0.0",
			Port:             8080,
			ReadTimeout:      10 * time.Second,
			WriteTimeout:     15 * time.Second,
			IdleTimeout:      60 * time.Second,
			ShutdownTimeout:  10 * time.Second,
			MaxBodyBytes:     64 << 10,
			CORSOrigins:      []string{"*"},
			GlobalRateLimit:  120,
			GlobalRateWindow: time.Minute,
			TrustedProxies:   []string{},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Database: DatabaseConfig{
			Path:      "/data/tourdesk.duckdb",
			MaxMemory: "512MB",
		},
		Guard: GuardConfig{
			Backend:       "memory",
			FailurePolicy: "closed",
			BadgerDir:     "/data/guard",
			KVBucket:      "tourdesk_ratelimit",
			HoneypotField: "website",
			Booking:       LimitConfig{Requests: 5, Window: time.Hour},
			Quote:         LimitConfig{Requests: 10, Window: time.Hour},
			Contact:       LimitConfig{Requests: 20, Window: time.Hour},
			Bundle:        LimitConfig{Requests: 5, Window: time.Hour},
			Custom:        LimitConfig{Requests: 5, Window: time.Hour},
		},
		Notifications: NotificationsConfig{
			Enabled:      true,
			Transport:    "gochannel",
			Topic:        "notifications.email",
			StaffAddress: "reservations@example.com",
			FromAddress:  "no-reply@example.com",
			FromName:     "Tourdesk",
			MaxRetries:   0,
			RetryDelay:   2 * time.Second,
			CloseTimeout: 30 * time.Second,
			SendRate:     5,
		},
		SMTP: SMTPConfig{
			Port:            587,
			UseTLS:          true,
			Timeout:         30 * time.Second,
			BreakerFailures: 5,
			BreakerTimeout:  time.Minute,
		},
		NATS: NATSConfig{
			URL:             "nats://127.0.0.1:4222",
			EmbeddedServer:  false,
			StoreDir:        "/data/nats",
			MaxMemory:       256 << 20,
			MaxStore:        1 << 30,
			MaxReconnects:   -1,
			ReconnectWait:   2 * time.Second,
			DurableName:     "tourdesk-notifier",
			QueueGroup:      "notifiers",
			AckWaitTimeout:  30 * time.Second,
			SubscriberCount: 1,
		},
	}
}

// LoadWithKoanf loads defaults, then the config file if any, then the environment.
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

var sliceConfigPaths = []string{
	"server.cors_origins",
	"server.trusted_proxies",
}

// processSliceFields splits comma-separated env values for slice fields.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if err := k.Set(path, trimmed); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// envMappings maps environment variable names (lower-cased) to koanf paths.
// Variables not listed are ignored.
var envMappings = map[string]string{
	"http_host":             "server.host",
	"http_port":             "server.port",
	"http_read_timeout":     "server.read_timeout",
	"http_write_timeout":    "server.write_timeout",
	"http_idle_timeout":     "server.idle_timeout",
	"shutdown_timeout":      "server.shutdown_timeout",
	"max_body_bytes":        "server.max_body_bytes",
	"cors_origins":          "server.cors_origins",
	"global_rate_limit":     "server.global_rate_limit",
	"global_rate_window":    "server.global_rate_window",
	"enable_hsts":           "server.enable_hsts",
	"trusted_proxies":       "server.trusted_proxies",
	"log_level":             "logging.level",
	"log_format":            "logging.format",
	"log_caller":            "logging.caller",
	"duckdb_path":           "database.path",
	"duckdb_max_memory":     "database.max_memory",
	"duckdb_threads":        "database.threads",
	"guard_backend":         "guard.backend",
	"guard_failure_policy":  "guard.failure_policy",
	"guard_badger_dir":      "guard.badger_dir",
	"guard_kv_bucket":       "guard.kv_bucket",
	"guard_honeypot_field":  "guard.honeypot_field",
	"rate_booking_requests": "guard.booking.requests",
	"rate_booking_window":   "guard.booking.window",
	"rate_quote_requests":   "guard.quote.requests",
	"rate_quote_window":     "guard.quote.window",
	"rate_contact_requests": "guard.contact.requests",
	"rate_contact_window":   "guard.contact.window",
	"rate_bundle_requests":  "guard.bundle.requests",
	"rate_bundle_window":    "guard.bundle.window",
	"rate_custom_requests":  "guard.custom.requests",
	"rate_custom_window":    "guard.custom.window",
	"notify_enabled":        "notifications.enabled",
	"notify_transport":      "notifications.transport",
	"notify_topic":          "notifications.topic",
	"notify_staff_address":  "notifications.staff_address",
	"notify_from_address":   "notifications.from_address",
	"notify_from_name":      "notifications.from_name",
	"notify_max_retries":    "notifications.max_retries",
	"notify_retry_delay":    "notifications.retry_delay",
	"notify_send_rate":      "notifications.send_rate",
	"notify_close_timeout":  "notifications.close_timeout",
	"smtp_host":             "smtp.host",
	"smtp_port":             "smtp.port",
	"smtp_username":         "smtp.username",
	"smtp_password":         "smtp.password",
	"smtp_use_tls":          "smtp.use_tls",
	"smtp_timeout":          "smtp.timeout",
	"smtp_breaker_failures": "smtp.breaker_failures",
	"smtp_breaker_timeout":  "smtp.breaker_timeout",
	"nats_url":              "nats.url",
	"nats_embedded":         "nats.embedded_server",
	"nats_store_dir":        "nats.store_dir",
	"nats_max_memory":       "nats.max_memory",
	"nats_max_store":        "nats.max_store",
	"nats_durable_name":     "nats.durable_name",
	"nats_queue_group":      "nats.queue_group",
	"catalog_seed_path":     "catalog.seed_path",
}

// envTransformFunc returns "" for unmapped variables, which koanf skips.
//
//	SMTP_HOST -> smtp.host
//	RATE_BOOKING_REQUESTS -> guard.booking.requests
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}
