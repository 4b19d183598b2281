// Tourdesk - Tour Operator Booking and Enquiry Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tourdesk

package validation

import (
	"fmt"
	"reflect"
	"strconv"

	"github.com/goccy/go-json"

	"github.com/tomtom215/tourdesk/internal/models"
)

// typeMessages are reported when a JSON value cannot fill its field.
var typeMessages = map[reflect.Kind]string{
	reflect.String:  "%s must be text",
	reflect.Int:     "%s must be a whole number",
	reflect.Float64: "%s must be a number",
	reflect.Bool:    "%s must be true or false",
	reflect.Slice:   "%s must be a list",
	reflect.Struct:  "%s must be an object",
}

// CheckTypes reports fields of a decoded body whose JSON type does not fit
// the request type of req, such as "4" or 4.5 for a traveler count. Fields
// are reported in declaration order, one message each. Unknown keys and
// null values are ignored. It returns nil when every field fits.
//
// fields must come from a decoder with UseNumber enabled.
func CheckTypes(req models.Request, fields map[string]any) *ErrorSet {
	t := reflect.TypeOf(req)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		return nil
	}
	set := &ErrorSet{}
	checkObject(set, "", t, fields)
	if set.Len() == 0 {
		return nil
	}
	return set
}

func checkObject(set *ErrorSet, prefix string, t reflect.Type, fields map[string]any) {
	for i := 0; i < t.NumField(); i++ {
		fld := t.Field(i)
		name := jsonFieldName(fld)
		if !fld.IsExported() || name == "" {
			continue
		}
		v, ok := fields[name]
		if !ok || v == nil {
			continue
		}
		checkValue(set, prefix+name, name, fld.Type, v)
	}
}

func checkValue(set *ErrorSet, path, label string, t reflect.Type, v any) {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	kind := t.Kind()
	fits := true

	switch kind {
	case reflect.String:
		_, fits = v.(string)
	case reflect.Bool:
		_, fits = v.(bool)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		kind = reflect.Int
		n, ok := v.(json.Number)
		fits = ok && fitsInt(n, t.Bits())
	case reflect.Float32, reflect.Float64:
		kind = reflect.Float64
		n, ok := v.(json.Number)
		fits = ok && validFloat(n)
	case reflect.Slice:
		items, ok := v.([]any)
		if !ok {
			fits = false
			break
		}
		for i, item := range items {
			if item == nil {
				continue
			}
			checkValue(set, fmt.Sprintf("%s[%d]", path, i), label, t.Elem(), item)
		}
	case reflect.Struct:
		obj, ok := v.(map[string]any)
		if !ok {
			fits = false
			break
		}
		checkObject(set, path+".", t, obj)
	}

	if !fits {
		if tpl, ok := typeMessages[kind]; ok {
			set.Add(path, fmt.Sprintf(tpl, label))
		}
	}
}

func fitsInt(n json.Number, bits int) bool {
	_, err := strconv.ParseInt(string(n), 10, bits)
	return err == nil
}

func validFloat(n json.Number) bool {
	_, err := strconv.ParseFloat(string(n), 64)
	return err == nil
}
