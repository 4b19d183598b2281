// Tourdesk - Tour Operator Booking and Enquiry Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tourdesk

package database

import (
	"errors"
	"io"
	"strings"

	"github.com/tomtom215/tourdesk/internal/logging"
)

var (
	// ErrPersistence wraps every store failure surfaced to the pipeline.
	ErrPersistence = errors.New("persistence failure")

	// ErrCodeExhausted is returned when every code attempt collided.
	ErrCodeExhausted = errors.New("confirmation code attempts exhausted")

	// ErrClosed is returned after Close.
	ErrClosed = errors.New("database closed")
)

// isUniqueViolation reports whether err is a DuckDB unique or primary key
// constraint violation.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "unique constraint") ||
		(strings.Contains(msg, "constraint error") && strings.Contains(msg, "unique"))
}

// closeWithLog closes a resource and logs any error.
func closeWithLog(closer io.Closer, resourceType string) {
	if closer == nil {
		return
	}
	if err := closer.Close(); err != nil {
		logging.Warn().Str("type", resourceType).Err(err).Msg("Failed to close resource")
	}
}

// closeQuietly closes a resource and ignores any error. Use it on error
// paths where Close errors are not actionable.
func closeQuietly(closer io.Closer) {
	if closer != nil {
		_ = closer.Close()
	}
}
