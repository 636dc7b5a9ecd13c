// Package domainerrors carries coded errors from services to transports.
//
// Services return these (wrapping infrastructure errors where useful) so the
// HTTP layer can translate them into status codes without string matching.
package domainerrors

import (
	"errors"
	"maps"
	"time"
)

// Code classifies a domain error.
type Code string

const (
	CodeBadRequest         Code = "bad_request"
	CodeValidation         Code = "validation_failed"
	CodeSecurityViolation  Code = "security_violation"
	CodeInvariantViolation Code = "invariant_violation"
	CodeConflict           Code = "conflict"
	CodeNotFound           Code = "not_found"
	CodeTenantDenied       Code = "tenant_denied"
	CodeUnauthorized       Code = "unauthorized"
	CodeForbidden          Code = "forbidden"
	CodeRateLimited        Code = "rate_limited"
	CodeInternal           Code = "internal_error"
)

// Error is a coded error with optional field-level messages.
type Error struct {
	Code    Code
	Message string
	Fields  map[string]string
	Err     error
	// RetryAfter is how long a rate limited caller should wait. Zero if unknown.
	RetryAfter time.Duration
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a coded error.
func New(code Code, msg string) *Error {
	return &Error{Code: code, Message: msg}
}

// Wrap attaches a code and message to an underlying error.
func Wrap(err error, code Code, msg string) *Error {
	return &Error{Code: code, Message: msg, Err: err}
}

// WithField returns a copy of e with a field-level message added.
func (e *Error) WithField(field, msg string) *Error {
	out := *e
	out.Fields = make(map[string]string, len(e.Fields)+1)
	maps.Copy(out.Fields, e.Fields)
	out.Fields[field] = msg
	return &out
}

// Field builds a single-field error.
func Field(code Code, field, msg string) *Error {
	return New(code, msg).WithField(field, msg)
}

// As extracts the first *Error in err's chain.
func As(err error) (*Error, bool) {
	var de *Error
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}

// HasCode reports whether any *Error in err's chain carries code.
func HasCode(err error, code Code) bool {
	for err != nil {
		var de *Error
		if !errors.As(err, &de) {
			return false
		}
		if de.Code == code {
			return true
		}
		err = de.Err
	}
	return false
}

// Is reports whether the outermost domain error in err's chain carries code.
func Is(err error, code Code) bool {
	de, ok := As(err)
	return ok && de.Code == code
}

// FieldsOf returns the field messages of the outermost domain error, if any.
func FieldsOf(err error) map[string]string {
	if de, ok := As(err); ok {
		return de.Fields
	}
	return nil
}
