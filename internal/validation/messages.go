// Tourdesk - Tour Operator Booking and Enquiry Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tourdesk

package validation

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// messageTemplates maps tags to templates taking the field name.
var messageTemplates = map[string]string{
	"required":   "%s is required",
	"email":      "%s must be a valid email address",
	"personname": "%s may only contain letters, spaces, hyphens and apostrophes",
	"phone":      "%s must be a valid phone number (digits, spaces and + - ( ) only, at least 7 digits)",
	"slug":       "%s must be a lowercase slug such as serengeti-safari",
	"datetime":   "%s must be a date in YYYY-MM-DD format",
	"unique":     "%s must not contain the same item twice",
	"notpast":    "%s must not be in the past",
}

// paramTemplates maps tags to templates taking the field name and param.
var paramTemplates = map[string]string{
	"after":           "%s must be after %s",
	"maxspan":         "%s must be no more than %s days after the start date",
	"requiredfortype": "%s is required when bookingType is %s",
	"excludedfortype": "%s must not be set when bookingType is %s",
	"gt":              "%s must be greater than %s",
	"lt":              "%s must be less than %s",
	"gte":             "%s must be at least %s",
	"lte":             "%s must be at most %s",
}

// translate converts a validator.FieldError to a user-facing message.
func translate(fe validator.FieldError) string {
	field := fieldLabel(fe.Namespace())
	tag := fe.Tag()
	param := fe.Param()

	if tpl, ok := messageTemplates[tag]; ok {
		return fmt.Sprintf(tpl, field)
	}
	if tpl, ok := paramTemplates[tag]; ok {
		return fmt.Sprintf(tpl, field, param)
	}

	switch tag {
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.Join(strings.Fields(param), ", "))
	case "min", "max":
		return translateMinMax(fe.Kind(), field, tag, param)
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

// translateMinMax words length limits by kind.
func translateMinMax(kind reflect.Kind, field, tag, param string) string {
	bound := "at least"
	if tag == "max" {
		bound = "at most"
	}
	switch kind {
	case reflect.String:
		return fmt.Sprintf("%s must be %s %s characters", field, bound, param)
	case reflect.Slice, reflect.Array, reflect.Map:
		return fmt.Sprintf("%s must contain %s %s items", field, bound, param)
	default:
		return fmt.Sprintf("%s must be %s %s", field, bound, param)
	}
}

// fieldLabel is the last path segment without an index:
// "packages[2].packageId" → "packageId".
func fieldLabel(ns string) string {
	p := fieldPath(ns)
	if i := strings.LastIndexByte(p, '.'); i >= 0 {
		p = p[i+1:]
	}
	if i := strings.IndexByte(p, '['); i >= 0 {
		p = p[:i]
	}
	return p
}
