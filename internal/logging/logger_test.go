// Tourdesk - Tour Operator Booking and Enquiry Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tourdesk

package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/rs/zerolog"
)

// captureGlobal points the global logger at a buffer for the duration of the test.
func captureGlobal(t *testing.T, level string) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	Init(Config{Level: level, Format: "json", Output: &buf})
	t.Cleanup(func() { Init(DefaultConfig()) })
	return &buf
}

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	if cfg.Level != "info" {
		t.Errorf("expected default level 'info', got '%s'", cfg.Level)
	}
	if cfg.Format != "json" {
		t.Errorf("expected default format 'json', got '%s'", cfg.Format)
	}
	if cfg.Caller {
		t.Error("expected default caller to be false")
	}
	if !cfg.Timestamp {
		t.Error("expected default timestamp to be true")
	}
}

func TestInit(t *testing.T) {
	buf := captureGlobal(t, "debug")

	Info().Msg("test message")

	output := buf.String()
	if !strings.Contains(output, "test message") {
		t.Errorf("expected output to contain 'test message', got: %s", output)
	}
	if !strings.Contains(output, `"level":"info"`) {
		t.Errorf("expected output to contain level, got: %s", output)
	}
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input    string
		expected zerolog.Level
	}{
		{"trace", zerolog.TraceLevel},
		{"debug", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"disabled", zerolog.Disabled},
		{"DEBUG", zerolog.DebugLevel},
		{" warn ", zerolog.WarnLevel},
		{"invalid", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := parseLevel(tt.input); got != tt.expected {
				t.Errorf("parseLevel(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestValidLevel(t *testing.T) {
	t.Parallel()

	if !ValidLevel("Info") {
		t.Error("expected Info to be valid")
	}
	if ValidLevel("verbose") {
		t.Error("expected verbose to be invalid")
	}
}

func TestCtx_AddsIDs(t *testing.T) {
	buf := captureGlobal(t, "info")

	ctx := ContextWithRequestID(context.Background(), "req-1")
	ctx = ContextWithCorrelationID(ctx, "corr1234")
	Ctx(ctx).Info().Msg("with ids")

	output := buf.String()
	if !strings.Contains(output, `"request_id":"req-1"`) {
		t.Errorf("missing request_id: %s", output)
	}
	if !strings.Contains(output, `"correlation_id":"corr1234"`) {
		t.Errorf("missing correlation_id: %s", output)
	}
}

func TestCtx_EmptyContext(t *testing.T) {
	buf := captureGlobal(t, "info")

	Ctx(context.Background()).Info().Msg("plain")

	if strings.Contains(buf.String(), "request_id") {
		t.Errorf("unexpected request_id in %s", buf.String())
	}
}

func TestGenerateCorrelationID(t *testing.T) {
	t.Parallel()

	a, b := GenerateCorrelationID(), GenerateCorrelationID()
	if len(a) != 8 {
		t.Errorf("expected 8 characters, got %d", len(a))
	}
	if a == b {
		t.Error("expected distinct ids")
	}
}

func TestSlogHandler(t *testing.T) {
	buf := captureGlobal(t, "debug")

	logger := NewSlogLogger().With("service", "http-server").WithGroup("event")
	logger.Warn("service failed", "attempt", 3)

	output := buf.String()
	for _, want := range []string{`"level":"warn"`, `"service":"http-server"`, `"event.attempt":3`, "service failed"} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %s in %s", want, output)
		}
	}
}

func TestSlogHandler_Enabled(t *testing.T) {
	captureGlobal(t, "warn")

	h := NewSlogHandler()
	h.logger = h.logger.Level(zerolog.WarnLevel)
	if h.Enabled(context.Background(), slog.LevelInfo) {
		t.Error("info must be disabled at warn level")
	}
	if !h.Enabled(context.Background(), slog.LevelError) {
		t.Error("error must be enabled at warn level")
	}
}

func TestWatermillLogger(t *testing.T) {
	buf := captureGlobal(t, "debug")

	var adapter watermill.LoggerAdapter = NewWatermillLogger("notifications")
	adapter = adapter.With(watermill.LogFields{"topic": "notifications.email"})
	adapter.Info("router started", watermill.LogFields{"handlers": 1})

	output := buf.String()
	for _, want := range []string{`"component":"notifications"`, `"topic":"notifications.email"`, `"handlers":1`} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %s in %s", want, output)
		}
	}
}
