// Tourdesk - Tour Operator Booking and Enquiry Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tourdesk

// Package sanitize cleans free-text submission fields before validation.
//
// Two policies exist. Strict is for plain-text fields (names, emails,
// subjects) and returns text with every tag removed. Permissive is for
// rich text (special requests, messages, notes) and keeps a small set of
// structural tags with no attributes. Both are idempotent: cleaning a
// cleaned value returns it unchanged.
package sanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// maxPasses bounds the fixed-point loop. Real input settles in two or three.
const maxPasses = 8

// Mode selects a cleaning policy for a field.
type Mode int

const (
	Strict Mode = iota
	Permissive
)

func (m Mode) String() string {
	if m == Permissive {
		return "permissive"
	}
	return "strict"
}

// Policy maps field names to a Mode. Fields not listed are Strict.
type Policy map[string]Mode

// ModeFor returns the mode of field.
func (p Policy) ModeFor(field string) Mode {
	if m, ok := p[field]; ok {
		return m
	}
	return Strict
}

// Sanitizer holds the compiled bluemonday policies. It is safe for
// concurrent use.
type Sanitizer struct {
	strict     *bluemonday.Policy
	permissive *bluemonday.Policy
}

// New compiles the strict and permissive policies.
func New() *Sanitizer {
	permissive := bluemonday.NewPolicy()
	permissive.AllowElements("b", "i", "em", "strong", "p", "br", "ul", "ol", "li")

	return &Sanitizer{
		strict:     bluemonday.StrictPolicy(),
		permissive: permissive,
	}
}

// Strict removes all markup and returns plain, unescaped text.
func (s *Sanitizer) Strict(in string) string {
	cur := in
	for i := 0; i < maxPasses; i++ {
		next := s.strictPass(cur)
		if next == cur {
			return cur
		}
		cur = next
	}
	return strictFallback(cur)
}

// strictPass strips tags and decodes entities. Decoding can surface
// entity-encoded tags ("&lt;script&gt;"), which the next pass removes.
func (s *Sanitizer) strictPass(in string) string {
	return strings.TrimSpace(html.UnescapeString(s.strict.Sanitize(in)))
}

// strictFallback drops every markup-significant character. Its output is a
// fixed point of strictPass.
func strictFallback(in string) string {
	return strings.TrimSpace(strings.Map(func(r rune) rune {
		switch r {
		case '<', '>', '&':
			return -1
		}
		return r
	}, in))
}

// Permissive keeps the allow-listed structural tags and escapes everything else.
func (s *Sanitizer) Permissive(in string) string {
	cur := in
	for i := 0; i < maxPasses; i++ {
		next := strings.TrimSpace(s.permissive.Sanitize(cur))
		if next == cur {
			return cur
		}
		cur = next
	}
	return html.EscapeString(s.Strict(cur))
}

// Clean applies mode to in.
func (s *Sanitizer) Clean(in string, mode Mode) string {
	if mode == Permissive {
		return s.Permissive(in)
	}
	return s.Strict(in)
}

// Map returns a copy of fields with every string cleaned per policy.
// Numbers, booleans and nulls pass through. Nested objects are cleaned using
// their own keys; strings inside arrays use the array field's mode.
func (s *Sanitizer) Map(fields map[string]any, policy Policy) map[string]any {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		out[k] = s.value(v, policy.ModeFor(k), policy)
	}
	return out
}

func (s *Sanitizer) value(v any, mode Mode, policy Policy) any {
	switch t := v.(type) {
	case string:
		return s.Clean(t, mode)
	case map[string]any:
		return s.Map(t, policy)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = s.value(e, mode, policy)
		}
		return out
	default:
		return v
	}
}
