// Tourdesk - Tour Operator Booking and Enquiry Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tourdesk

// Package config loads Tourdesk configuration from defaults, an optional YAML
// file and environment variables, in that order of increasing priority.
package config

import (
	"time"
)

// Config is the root configuration.
type Config struct {
	Server        ServerConfig        `koanf:"server"`
	Logging       LoggingConfig       `koanf:"logging"`
	Database      DatabaseConfig      `koanf:"database"`
	Guard         GuardConfig         `koanf:"guard"`
	Notifications NotificationsConfig `koanf:"notifications"`
	SMTP          SMTPConfig          `koanf:"smtp"`
	NATS          NATSConfig          `koanf:"nats"`
	Catalog       CatalogConfig       `koanf:"catalog"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	IdleTimeout     time.Duration `koanf:"idle_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	MaxBodyBytes    int64         `koanf:"max_body_bytes"`
	CORSOrigins     []string      `koanf:"cors_origins"`
	// GlobalRateLimit is a coarse per-IP ceiling over all /api routes,
	// applied before the per-class guard quotas.
	GlobalRateLimit  int           `koanf:"global_rate_limit"`
	GlobalRateWindow time.Duration `koanf:"global_rate_window"`
	EnableHSTS       bool          `koanf:"enable_hsts"`
	// TrustedProxies are the IPs or CIDRs whose X-Forwarded-For and
	// X-Real-IP headers are believed. Empty means the socket peer is the
	// client.
	TrustedProxies []string `koanf:"trusted_proxies"`
}

// LoggingConfig mirrors logging.Config.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// DatabaseConfig configures the DuckDB submission store.
type DatabaseConfig struct {
	// Path is a DuckDB file path, or ":memory:".
	Path      string `koanf:"path"`
	MaxMemory string `koanf:"max_memory"`
	Threads   int    `koanf:"threads"`
}

// LimitConfig is a fixed quota per window.
type LimitConfig struct {
	Requests int           `koanf:"requests"`
	Window   time.Duration `koanf:"window"`
}

// GuardConfig configures the abuse guard.
type GuardConfig struct {
	// Backend selects the counter store: memory, badger or nats.
	Backend string `koanf:"backend"`
	// FailurePolicy is closed (deny) or open (allow) when the counter store errors.
	FailurePolicy string `koanf:"failure_policy"`
	// BadgerDir is the badger data directory for Backend=badger.
	BadgerDir string `koanf:"badger_dir"`
	// KVBucket is the JetStream key-value bucket for Backend=nats.
	KVBucket      string      `koanf:"kv_bucket"`
	HoneypotField string      `koanf:"honeypot_field"`
	Booking       LimitConfig `koanf:"booking"`
	Quote         LimitConfig `koanf:"quote"`
	Contact       LimitConfig `koanf:"contact"`
	Bundle        LimitConfig `koanf:"bundle"`
	Custom        LimitConfig `koanf:"custom"`
}

// NotificationsConfig configures the detached email dispatcher.
type NotificationsConfig struct {
	Enabled bool `koanf:"enabled"`
	// Transport is gochannel (in-process) or nats (JetStream via watermill-nats).
	Transport    string        `koanf:"transport"`
	Topic        string        `koanf:"topic"`
	StaffAddress string        `koanf:"staff_address"`
	FromAddress  string        `koanf:"from_address"`
	FromName     string        `koanf:"from_name"`
	MaxRetries   int           `koanf:"max_retries"`
	RetryDelay   time.Duration `koanf:"retry_delay"`
	CloseTimeout time.Duration `koanf:"close_timeout"`
	// SendRate caps outbound emails per second.
	SendRate float64 `koanf:"send_rate"`
}

// SMTPConfig configures outbound mail. An empty Host selects the log sender.
type SMTPConfig struct {
	Host     string        `koanf:"host"`
	Port     int           `koanf:"port"`
	Username string        `koanf:"username"`
	Password string        `koanf:"password"`
	UseTLS   bool          `koanf:"use_tls"`
	Timeout  time.Duration `koanf:"timeout"`
	// BreakerFailures consecutive failures open the circuit for BreakerTimeout.
	BreakerFailures uint32        `koanf:"breaker_failures"`
	BreakerTimeout  time.Duration `koanf:"breaker_timeout"`
}

// NATSConfig is shared by the NATS KV counter store and the NATS notification transport.
type NATSConfig struct {
	URL             string        `koanf:"url"`
	EmbeddedServer  bool          `koanf:"embedded_server"`
	StoreDir        string        `koanf:"store_dir"`
	MaxMemory       int64         `koanf:"max_memory"`
	MaxStore        int64         `koanf:"max_store"`
	MaxReconnects   int           `koanf:"max_reconnects"`
	ReconnectWait   time.Duration `koanf:"reconnect_wait"`
	DurableName     string        `koanf:"durable_name"`
	QueueGroup      string        `koanf:"queue_group"`
	AckWaitTimeout  time.Duration `koanf:"ack_wait_timeout"`
	SubscriberCount int           `koanf:"subscriber_count"`
}

// CatalogConfig points at an optional YAML catalog seed.
type CatalogConfig struct {
	SeedPath string `koanf:"seed_path"`
}

// Load reads configuration from all layers and validates it.
func Load() (*Config, error) {
	return LoadWithKoanf()
}
