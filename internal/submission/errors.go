// Tourdesk - Tour Operator Booking and Enquiry Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tourdesk

package submission

import (
	"errors"
	"fmt"

	"github.com/tomtom215/tourdesk/internal/guard"
	"github.com/tomtom215/tourdesk/internal/validation"
)

// Class groups pipeline failures by how they are reported to the client.
// The values double as metric outcome labels.
type Class string

const (
	ClassRateLimited        Class = "rate_limited"
	ClassBotDetected        Class = "bot_detected"
	ClassMalformed          Class = "malformed"
	ClassValidationFailed   Class = "validation_failed"
	ClassItemNotFound       Class = "item_not_found"
	ClassItemUnavailable    Class = "item_unavailable"
	ClassPersistenceFailure Class = "persistence_failure"
	ClassInternal           Class = "internal"
)

var (
	// ErrBodyTooLarge is the cause of a Malformed error for oversized bodies.
	ErrBodyTooLarge = errors.New("request body too large")

	// ErrNotObject is the cause of a Malformed error when the body is valid
	// JSON but not an object.
	ErrNotObject = errors.New("request body is not a JSON object")

	// ErrUnknownKind is returned for a kind with no request type.
	ErrUnknownKind = errors.New("unknown submission kind")
)

// Error is returned by Pipeline.Submit for every rejected submission.
type Error struct {
	Class Class
	Err   error
	// Fields is set for ClassValidationFailed.
	Fields *validation.ErrorSet
	// Quota is set for ClassRateLimited.
	Quota guard.Decision
}

func (e *Error) Error() string {
	if e.Err == nil {
		return "submission: " + string(e.Class)
	}
	return fmt.Sprintf("submission: %s: %v", e.Class, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// ClassOf returns the class of err, or ClassInternal when err is not an
// *Error.
func ClassOf(err error) Class {
	var se *Error
	if errors.As(err, &se) {
		return se.Class
	}
	return ClassInternal
}

func fail(class Class, err error) *Error {
	return &Error{Class: class, Err: err}
}
