// Backupd - Automated Backup Scheduling and Retention Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/backupd

package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

const codeValidation = "VALIDATION_ERROR"

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// GetValidator returns the shared validator, registering the backupname
// rule and wire field names on first use.
func GetValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(wireName)
		if err := validate.RegisterValidation("backupname", validateBackupName); err != nil {
			panic(fmt.Sprintf("register backupname validator: %v", err))
		}
	})
	return validate
}

// wireName reports a field by the name clients send: json, then query, then
// the Go name.
func wireName(fld reflect.StructField) string {
	for _, key := range []string{"json", "query"} {
		name, _, _ := strings.Cut(fld.Tag.Get(key), ",")
		switch name {
		case "-":
			return ""
		case "":
			continue
		default:
			return name
		}
	}
	return fld.Name
}

// validateBackupName accepts a bare file name: no separators, no NUL and no
// leading dot (which also rules out "." and "..").
func validateBackupName(fl validator.FieldLevel) bool {
	name := fl.Field().String()
	return name != "" && name[0] != '.' && !strings.ContainsAny(name, "/\\\x00")
}

// ValidationError is one failed rule on one field.
type ValidationError struct {
	field, tag, param, message string
	value                      interface{}
}

// Field is the wire name of the field.
func (e *ValidationError) Field() string { return e.field }

// Tag is the failed rule, e.g. "max".
func (e *ValidationError) Tag() string { return e.tag }

// Param is the rule parameter, e.g. "100" for max=100.
func (e *ValidationError) Param() string { return e.param }

// Value is the rejected value.
func (e *ValidationError) Value() interface{} { return e.value }

func (e *ValidationError) Error() string { return e.message }

// RequestValidationError collects every failed rule of one request.
type RequestValidationError struct {
	errors []ValidationError
}

// Errors returns the failures in field order.
func (ve *RequestValidationError) Errors() []ValidationError {
	return ve.errors
}

func (ve *RequestValidationError) Error() string {
	if len(ve.errors) == 0 {
		return "validation failed"
	}
	return ve.joined()
}

func (ve *RequestValidationError) joined() string {
	msgs := make([]string, len(ve.errors))
	for i := range ve.errors {
		msgs[i] = ve.errors[i].message
	}
	return strings.Join(msgs, "; ")
}

// APIError mirrors models.APIError; importing models here would cycle.
type APIError struct {
	Code    string
	Message string
	Details map[string]interface{}
}

// ToAPIError renders the failures as a VALIDATION_ERROR. Details["field"] is
// always the first failing field; with several failures Details["fields"]
// lists them all.
func (ve *RequestValidationError) ToAPIError() *APIError {
	apiErr := &APIError{Code: codeValidation, Message: "Validation failed"}
	switch len(ve.errors) {
	case 0:
	case 1:
		e := ve.errors[0]
		apiErr.Message = e.message
		apiErr.Details = map[string]interface{}{"field": e.field, "tag": e.tag, "value": e.value}
	default:
		fields := make([]map[string]interface{}, len(ve.errors))
		for i, e := range ve.errors {
			fields[i] = map[string]interface{}{"field": e.field, "tag": e.tag, "message": e.message}
		}
		apiErr.Message = ve.joined()
		apiErr.Details = map[string]interface{}{"field": ve.errors[0].field, "fields": fields}
	}
	return apiErr
}

// ValidateStruct runs the shared validator over s and returns nil when every
// rule passes.
func ValidateStruct(s interface{}) *RequestValidationError {
	err := GetValidator().Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return &RequestValidationError{errors: []ValidationError{{field: "unknown", tag: "unknown", message: err.Error()}}}
	}

	out := make([]ValidationError, len(fieldErrs))
	for i, fe := range fieldErrs {
		out[i] = ValidationError{
			field:   fe.Field(),
			tag:     fe.Tag(),
			param:   fe.Param(),
			value:   fe.Value(),
			message: describe(fe),
		}
	}
	return &RequestValidationError{errors: out}
}

// messages renders a failure from the field name, rule parameter and whether
// the field is a string.
var messages = map[string]func(field, param string, str bool) string{
	"required": func(f, _ string, _ bool) string { return f + " is required" },
	"backupname": func(f, _ string, _ bool) string {
		return f + " must be a backup file name without path components"
	},
	"timezone": func(f, _ string, _ bool) string { return f + " must be a valid IANA time zone" },
	"oneof":    func(f, p string, _ bool) string { return fmt.Sprintf("%s must be one of: %s", f, p) },
	"gte":      func(f, p string, _ bool) string { return fmt.Sprintf("%s must be greater than or equal to %s", f, p) },
	"lte":      func(f, p string, _ bool) string { return fmt.Sprintf("%s must be less than or equal to %s", f, p) },
	"gt":       func(f, p string, _ bool) string { return fmt.Sprintf("%s must be greater than %s", f, p) },
	"lt":       func(f, p string, _ bool) string { return fmt.Sprintf("%s must be less than %s", f, p) },
	"min":      func(f, p string, str bool) string { return bound(f, "at least", p, str) },
	"max":      func(f, p string, str bool) string { return bound(f, "at most", p, str) },
}

func bound(field, rel, param string, str bool) string {
	if str {
		return fmt.Sprintf("%s must be %s %s characters", field, rel, param)
	}
	return fmt.Sprintf("%s must be %s %s", field, rel, param)
}

func describe(fe validator.FieldError) string {
	if render, ok := messages[fe.Tag()]; ok {
		return render(fe.Field(), fe.Param(), fe.Kind() == reflect.String)
	}
	return fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag())
}
