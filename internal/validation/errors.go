// Tourdesk - Tour Operator Booking and Enquiry Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tourdesk

package validation

import "strings"

// FieldError holds the messages reported for one field path, in the order
// the rules failed.
type FieldError struct {
	Field    string   `json:"field"`
	Messages []string `json:"messages"`
}

// ErrorSet is an ordered mapping from field path to messages. Fields keep
// the order they were first added in. A nil *ErrorSet means no errors.
type ErrorSet struct {
	fields []FieldError
	index  map[string]int
}

// Add appends msg to field, creating the field entry if needed.
func (s *ErrorSet) Add(field, msg string) {
	if s.index == nil {
		s.index = make(map[string]int)
	}
	if i, ok := s.index[field]; ok {
		s.fields[i].Messages = append(s.fields[i].Messages, msg)
		return
	}
	s.index[field] = len(s.fields)
	s.fields = append(s.fields, FieldError{Field: field, Messages: []string{msg}})
}

// Len returns the number of failing fields.
func (s *ErrorSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.fields)
}

// Fields returns a copy of the entries in order.
func (s *ErrorSet) Fields() []FieldError {
	if s == nil {
		return nil
	}
	out := make([]FieldError, len(s.fields))
	for i, f := range s.fields {
		out[i] = FieldError{Field: f.Field, Messages: append([]string(nil), f.Messages...)}
	}
	return out
}

// Messages returns the messages for field, or nil.
func (s *ErrorSet) Messages(field string) []string {
	if s == nil {
		return nil
	}
	if i, ok := s.index[field]; ok {
		return append([]string(nil), s.fields[i].Messages...)
	}
	return nil
}

// Has reports whether field failed.
func (s *ErrorSet) Has(field string) bool {
	return len(s.Messages(field)) > 0
}

// First returns the first message of the first field, or "".
func (s *ErrorSet) First() string {
	if s.Len() == 0 {
		return ""
	}
	return s.fields[0].Messages[0]
}

// FirstField returns the path of the first failing field, or "".
func (s *ErrorSet) FirstField() string {
	if s.Len() == 0 {
		return ""
	}
	return s.fields[0].Field
}

// Error implements error.
func (s *ErrorSet) Error() string {
	if s.Len() == 0 {
		return "validation failed"
	}
	parts := make([]string, 0, len(s.fields))
	for _, f := range s.fields {
		parts = append(parts, f.Field+": "+strings.Join(f.Messages, ", "))
	}
	return strings.Join(parts, "; ")
}
