// Tourdesk - Tour Operator Booking and Enquiry Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tourdesk

package validation

import (
	"reflect"
	"strings"
	"time"

	"github.com/tomtom215/tourdesk/internal/models"
)

// Normalize rewrites req in place before validation:
//   - every string, including those in nested items, is trimmed
//   - email is lower-cased
//   - bookingType and paymentMethod are upper-cased
//   - RFC 3339 timestamps in date fields are reduced to YYYY-MM-DD
func Normalize(req models.Request) {
	if req == nil {
		return
	}
	trimStrings(reflect.ValueOf(req))

	switch r := req.(type) {
	case *models.BookingRequest:
		r.Email = strings.ToLower(r.Email)
		r.BookingType = models.BookingType(strings.ToUpper(string(r.BookingType)))
		r.PaymentMethod = strings.ToUpper(r.PaymentMethod)
		r.TravelDateFrom = normalizeDate(r.TravelDateFrom)
		r.TravelDateTo = normalizeDate(r.TravelDateTo)
	case *models.QuoteRequest:
		r.Email = strings.ToLower(r.Email)
	case *models.ContactMessage:
		r.Email = strings.ToLower(r.Email)
	case *models.PackageBundleRequest:
		r.Email = strings.ToLower(r.Email)
		r.TravelDate = normalizeDate(r.TravelDate)
	case *models.CustomPackageRequest:
		r.Email = strings.ToLower(r.Email)
		r.TravelDateFrom = normalizeDate(r.TravelDateFrom)
		r.TravelDateTo = normalizeDate(r.TravelDateTo)
	}
}

func trimStrings(v reflect.Value) {
	switch v.Kind() {
	case reflect.Pointer, reflect.Interface:
		if !v.IsNil() {
			trimStrings(v.Elem())
		}
	case reflect.Struct:
		for i := 0; i < v.NumField(); i++ {
			if v.Type().Field(i).IsExported() {
				trimStrings(v.Field(i))
			}
		}
	case reflect.Slice, reflect.Array:
		for i := 0; i < v.Len(); i++ {
			trimStrings(v.Index(i))
		}
	case reflect.String:
		if v.CanSet() {
			v.SetString(strings.TrimSpace(v.String()))
		}
	}
}

// normalizeDate keeps the calendar date of an RFC 3339 timestamp as written,
// without converting time zones. Anything else is returned unchanged.
func normalizeDate(s string) string {
	if len(s) <= len(models.DateLayout) {
		return s
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.Format(models.DateLayout)
	}
	return s
}
