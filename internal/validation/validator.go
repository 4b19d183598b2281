// Tourdesk - Tour Operator Booking and Enquiry Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tourdesk

// Package validation checks decoded submission requests using
// go-playground/validator v10.
//
// Field rules live in the struct tags of internal/models. This package adds
// the custom tags (personname, phone, slug), the cross-field rules that need
// a clock (date ranges), and the translation of validator errors into an
// ordered ErrorSet keyed by JSON field path.
//
// Ordering: struct tags are evaluated left to right and the first failing tag
// of a field wins. Failing fields are reported in struct declaration order,
// with slice elements after their parent field (packages, then
// packages[0].packageId, then packages[1].packageId). Cross-field messages
// follow the tag message of the same field.
//
// Example:
//
//	v := validation.Default()
//	if errs := v.Validate(req); errs != nil {
//	    return errs.First()
//	}
package validation

import (
	"errors"
	"reflect"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/go-playground/validator/v10"

	"github.com/tomtom215/tourdesk/internal/models"
)

// MaxTripDays is the longest allowed span between travel dates.
const MaxTripDays = 365

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// Validator is safe for concurrent use. The underlying validator caches
// struct metadata, so share one instance.
type Validator struct {
	v   *validator.Validate
	now func() time.Time
}

// Option customizes a Validator.
type Option func(*Validator)

// WithClock sets the clock used for "not in the past" rules.
func WithClock(now func() time.Time) Option {
	return func(val *Validator) { val.now = now }
}

var (
	defaultValidator *Validator
	defaultOnce      sync.Once
)

// Default returns the process-wide validator using the wall clock.
func Default() *Validator {
	defaultOnce.Do(func() {
		defaultValidator = New()
	})
	return defaultValidator
}

// New builds a validator with the custom tags and cross-field rules
// registered.
func New(opts ...Option) *Validator {
	val := &Validator{now: time.Now}
	for _, opt := range opts {
		opt(val)
	}

	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(jsonFieldName)

	// Registration only fails for empty tags or nil functions.
	_ = v.RegisterValidation("personname", validatePersonName)
	_ = v.RegisterValidation("phone", validatePhone)
	_ = v.RegisterValidation("slug", validateSlug)

	v.RegisterStructValidation(val.bookingRules, models.BookingRequest{})
	v.RegisterStructValidation(val.bundleRules, models.PackageBundleRequest{})
	v.RegisterStructValidation(val.customRules, models.CustomPackageRequest{})

	val.v = v
	return val
}

// Validate normalizes req in place and checks it. It returns nil when req
// is accepted.
func (val *Validator) Validate(req models.Request) *ErrorSet {
	Normalize(req)

	err := val.v.Struct(req)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		set := &ErrorSet{}
		set.Add("body", "request could not be validated")
		return set
	}

	root := reflect.TypeOf(req)
	type ordered struct {
		key []int
		fe  validator.FieldError
	}
	list := make([]ordered, len(fieldErrs))
	for i, fe := range fieldErrs {
		list[i] = ordered{key: orderKey(root, fe.StructNamespace()), fe: fe}
	}
	sort.SliceStable(list, func(i, j int) bool { return lessKey(list[i].key, list[j].key) })

	set := &ErrorSet{}
	for _, o := range list {
		set.Add(fieldPath(o.fe.Namespace()), translate(o.fe))
	}
	return set
}

// today is the current UTC date at midnight.
func (val *Validator) today() time.Time {
	y, m, d := val.now().UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func (val *Validator) bookingRules(sl validator.StructLevel) {
	req := sl.Current().Interface().(models.BookingRequest)

	switch req.BookingType {
	case models.BookingTypePackage:
		if req.PackageID <= 0 {
			sl.ReportError(req.PackageID, "packageId", "PackageID", "requiredfortype", string(req.BookingType))
		}
		if req.DestinationID != 0 {
			sl.ReportError(req.DestinationID, "destinationId", "DestinationID", "excludedfortype", string(req.BookingType))
		}
	case models.BookingTypeDestination:
		if req.PackageID != 0 {
			sl.ReportError(req.PackageID, "packageId", "PackageID", "excludedfortype", string(req.BookingType))
		}
		if req.DestinationID <= 0 {
			sl.ReportError(req.DestinationID, "destinationId", "DestinationID", "requiredfortype", string(req.BookingType))
		}
	}

	val.dateRange(sl, req.TravelDateFrom, req.TravelDateTo)
}

func (val *Validator) customRules(sl validator.StructLevel) {
	req := sl.Current().Interface().(models.CustomPackageRequest)
	val.dateRange(sl, req.TravelDateFrom, req.TravelDateTo)
}

func (val *Validator) bundleRules(sl validator.StructLevel) {
	req := sl.Current().Interface().(models.PackageBundleRequest)
	if req.TravelDate == "" {
		return
	}
	if d, err := models.ParseDate(req.TravelDate); err == nil && d.Before(val.today()) {
		sl.ReportError(req.TravelDate, "travelDate", "TravelDate", "notpast", "")
	}
}

// dateRange applies the travel window rules. Malformed dates are left to
// the datetime tag.
func (val *Validator) dateRange(sl validator.StructLevel, fromStr, toStr string) {
	from, fromErr := models.ParseDate(fromStr)
	to, toErr := models.ParseDate(toStr)

	if fromErr == nil && from.Before(val.today()) {
		sl.ReportError(fromStr, "travelDateFrom", "TravelDateFrom", "notpast", "")
	}
	if fromErr != nil || toErr != nil {
		return
	}
	if !to.After(from) {
		sl.ReportError(toStr, "travelDateTo", "TravelDateTo", "after", "travelDateFrom")
		return
	}
	if to.Sub(from) > MaxTripDays*24*time.Hour {
		sl.ReportError(toStr, "travelDateTo", "TravelDateTo", "maxspan", strconv.Itoa(MaxTripDays))
	}
}

func jsonFieldName(fld reflect.StructField) string {
	name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
	if name == "-" {
		return ""
	}
	return name
}

// validatePersonName accepts letters of any script, spaces, hyphens and
// apostrophes.
func validatePersonName(fl validator.FieldLevel) bool {
	for _, r := range fl.Field().String() {
		switch {
		case unicode.IsLetter(r), unicode.Is(unicode.Mn, r):
		case r == ' ', r == '-', r == '\'', r == '’':
		default:
			return false
		}
	}
	return true
}

// validatePhone accepts digits and "+-() " with at least 7 digits and at
// most 20 characters.
func validatePhone(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	if len(s) < 7 || len(s) > 20 {
		return false
	}
	digits := 0
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			digits++
		case r == '+', r == '-', r == '(', r == ')', r == ' ':
		default:
			return false
		}
	}
	return digits >= 7
}

func validateSlug(fl validator.FieldLevel) bool {
	return slugPattern.MatchString(fl.Field().String())
}

// fieldPath drops the root struct name from a validator namespace:
// "PackageBundleRequest.packages[2].packageId" → "packages[2].packageId".
func fieldPath(ns string) string {
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return ns
}

// orderKey maps a Go struct namespace to declaration indices. Slice
// elements add index+1 after their field so the field itself sorts first.
func orderKey(root reflect.Type, structNs string) []int {
	for root.Kind() == reflect.Pointer {
		root = root.Elem()
	}
	path := fieldPath(structNs)
	var key []int
	t := root
	for _, seg := range strings.Split(path, ".") {
		name, idx := seg, -1
		if open := strings.IndexByte(seg, '['); open >= 0 && strings.HasSuffix(seg, "]") {
			name = seg[:open]
			if n, err := strconv.Atoi(seg[open+1 : len(seg)-1]); err == nil {
				idx = n
			}
		}
		for t.Kind() == reflect.Pointer {
			t = t.Elem()
		}
		if t.Kind() != reflect.Struct {
			return append(key, 1<<30)
		}
		f, ok := t.FieldByName(name)
		if !ok {
			return append(key, 1<<30)
		}
		key = append(key, f.Index[0])
		t = f.Type
		if idx >= 0 {
			key = append(key, idx+1)
			if t.Kind() == reflect.Slice || t.Kind() == reflect.Array {
				t = t.Elem()
			}
		}
	}
	return key
}

func lessKey(a, b []int) bool {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return len(a) < len(b)
}
