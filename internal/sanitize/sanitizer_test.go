// Tourdesk - Tour Operator Booking and Enquiry Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tourdesk

package sanitize

import (
	"strings"
	"testing"
)

// corpus mixes benign text, markup and common injection payloads.
var corpus = []string{
	"",
	"   ",
	"John",
	"  Jane Doe  ",
	"O'Brien",
	"Tom & Jerry",
	`He said "hello"`,
	"2 < 3 and 5 > 4",
	"<b>bold</b> and <i>italic</i>",
	"<script>alert('x')</script>Safari",
	"&lt;script&gt;alert(1)&lt;/script&gt;ok",
	"&amp;lt;b&amp;gt;double&amp;lt;/b&amp;gt;",
	`<img src=x onerror="alert(1)">Hi`,
	`<a href="javascript:alert(1)">click</a>`,
	`<p style="color:red" onclick="steal()">Hello <strong>there</strong></p>`,
	"<iframe src='https://evil.example'></iframe>content",
	"<object data=x></object><embed src=y>after",
	"<ul><li>one</li><li>two</li></ul>",
	"<<script>script>alert(1)<</script>/script>",
	"<style>body{display:none}</style>text",
	"unterminated <b",
	"emoji 🦁 and accents éàü",
	"line one\nline two",
}

func TestStrict(t *testing.T) {
	t.Parallel()
	s := New()

	tests := []struct {
		in   string
		want string
	}{
		{"  <b>Jane</b> ", "Jane"},
		{"<script>alert(1)</script>John", "John"},
		{"O'Brien", "O'Brien"},
		{"Tom & Jerry", "Tom & Jerry"},
		{"&lt;script&gt;alert(1)&lt;/script&gt;ok", "ok"},
		{`<img src=x onerror="alert(1)">Hi`, "Hi"},
		{"<style>body{display:none}</style>text", "text"},
		{"JOHN@EXAMPLE.COM", "JOHN@EXAMPLE.COM"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := s.Strict(tt.in); got != tt.want {
				t.Errorf("Strict(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestStrict_NoTags(t *testing.T) {
	t.Parallel()
	s := New()

	for _, in := range corpus {
		out := s.Strict(in)
		for _, tag := range []string{"<script", "<b>", "<img", "<iframe", "<p", "<style"} {
			if strings.Contains(strings.ToLower(out), tag) {
				t.Errorf("Strict(%q) = %q still contains %s", in, out, tag)
			}
		}
	}
}

func TestPermissive(t *testing.T) {
	t.Parallel()
	s := New()

	tests := []struct {
		in   string
		want string
	}{
		{"<p>Hello <strong>there</strong></p><script>x()</script>", "<p>Hello <strong>there</strong></p>"},
		{`<a href="javascript:alert(1)">click</a>`, "click"},
		{`<p style="color:red" onclick="steal()">Hi</p>`, "<p>Hi</p>"},
		{"<iframe src=x></iframe>ok", "ok"},
		{"<ul><li>one</li></ul>", "<ul><li>one</li></ul>"},
		{"  plain  ", "plain"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := s.Permissive(tt.in); got != tt.want {
				t.Errorf("Permissive(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestPermissive_NoExecutableContent(t *testing.T) {
	t.Parallel()
	s := New()

	for _, in := range corpus {
		out := strings.ToLower(s.Permissive(in))
		for _, bad := range []string{"<script", "javascript:", "onerror=", "onclick=", "style=", "<iframe", "<embed", "<object", "href="} {
			if strings.Contains(out, bad) {
				t.Errorf("Permissive(%q) = %q contains %s", in, out, bad)
			}
		}
	}
}

func TestIdempotence(t *testing.T) {
	t.Parallel()
	s := New()

	for _, mode := range []Mode{Strict, Permissive} {
		for _, in := range corpus {
			once := s.Clean(in, mode)
			twice := s.Clean(once, mode)
			if once != twice {
				t.Errorf("%s not idempotent for %q: %q then %q", mode, in, once, twice)
			}
		}
	}
}

func TestStrictFallbackIsFixedPoint(t *testing.T) {
	t.Parallel()
	s := New()

	for _, in := range corpus {
		fb := strictFallback(in)
		if got := s.strictPass(fb); got != fb {
			t.Errorf("strictPass(strictFallback(%q)) = %q, want %q", in, got, fb)
		}
	}
}

func TestMap(t *testing.T) {
	t.Parallel()
	s := New()

	policy := Policy{"specialRequests": Permissive, "notes": Permissive}
	in := map[string]any{
		"firstName":         " <b>John</b> ",
		"specialRequests":   "<p>Vegetarian <em>meals</em></p><script>x</script>",
		"numberOfTravelers": float64(4),
		"active":            true,
		"missing":           nil,
		"packages": []any{
			map[string]any{"packageId": float64(5), "notes": "<i>window</i> seat<img src=x>"},
			"<b>loose</b>",
		},
	}

	out := s.Map(in, policy)

	if out["firstName"] != "John" {
		t.Errorf("firstName = %q", out["firstName"])
	}
	if out["specialRequests"] != "<p>Vegetarian <em>meals</em></p>" {
		t.Errorf("specialRequests = %q", out["specialRequests"])
	}
	if out["numberOfTravelers"] != float64(4) || out["active"] != true || out["missing"] != nil {
		t.Errorf("non-string values must pass through: %+v", out)
	}

	pkgs := out["packages"].([]any)
	first := pkgs[0].(map[string]any)
	if first["notes"] != "<i>window</i> seat" {
		t.Errorf("nested notes = %q", first["notes"])
	}
	if first["packageId"] != float64(5) {
		t.Errorf("nested packageId = %v", first["packageId"])
	}
	if pkgs[1] != "loose" {
		t.Errorf("array string = %q", pkgs[1])
	}

	// The input map is left untouched.
	if in["firstName"] != " <b>John</b> " {
		t.Error("Map must not modify its input")
	}
}

func TestPolicy_ModeFor(t *testing.T) {
	t.Parallel()

	p := Policy{"message": Permissive}
	if p.ModeFor("message") != Permissive {
		t.Error("message should be permissive")
	}
	if p.ModeFor("email") != Strict {
		t.Error("unlisted fields default to strict")
	}
}
