// Package httputil writes the JSON response envelope shared by every endpoint.
package httputil

import (
	"encoding/json"
	"errors"
	"io"
	"math"
	"net/http"
	"strconv"

	dErrors "medplant/pkg/domain-errors"
)

const maxBodyBytes = 1 << 20

// GenericErrorMessage replaces the message of unexpected failures.
const GenericErrorMessage = "an unexpected error occurred, please try again"

// Envelope is the response body: {success, message, data?, errors?}.
type Envelope struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Code    string            `json:"code,omitempty"`
	Data    any               `json:"data,omitempty"`
	Errors  map[string]string `json:"errors,omitempty"`
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteSuccess writes a 2xx envelope.
func WriteSuccess(w http.ResponseWriter, status int, message string, data any) {
	WriteJSON(w, status, Envelope{Success: true, Message: message, Data: data})
}

// WriteError translates err into a status and envelope. Errors without a
// domain code are treated as internal and their text is never sent.
func WriteError(w http.ResponseWriter, err error) {
	de, ok := dErrors.As(err)
	if !ok {
		de = dErrors.New(dErrors.CodeInternal, GenericErrorMessage)
	}
	msg := de.Message
	if de.Code == dErrors.CodeInternal {
		msg = GenericErrorMessage
	}
	if de.Code == dErrors.CodeRateLimited && de.RetryAfter > 0 {
		w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(de.RetryAfter.Seconds()))))
	}
	WriteJSON(w, StatusFor(de.Code), Envelope{
		Success: false,
		Message: msg,
		Code:    string(de.Code),
		Errors:  de.Fields,
	})
}

// StatusFor maps a domain code to an HTTP status. Duplicates and security
// rejections are form errors, so they share 400 with validation.
func StatusFor(code dErrors.Code) int {
	switch code {
	case dErrors.CodeBadRequest, dErrors.CodeValidation, dErrors.CodeSecurityViolation,
		dErrors.CodeConflict, dErrors.CodeInvariantViolation:
		return http.StatusBadRequest
	case dErrors.CodeNotFound, dErrors.CodeTenantDenied:
		return http.StatusNotFound
	case dErrors.CodeUnauthorized:
		return http.StatusUnauthorized
	case dErrors.CodeForbidden:
		return http.StatusForbidden
	case dErrors.CodeRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// DecodeInto reads a size-limited JSON body into dst. Decoder detail stays in
// the wrapped error and is never part of the message.
func DecodeInto(w http.ResponseWriter, r *http.Request, dst any) error {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			return dErrors.New(dErrors.CodeBadRequest, "request body too large")
		case errors.Is(err, io.EOF):
			return dErrors.New(dErrors.CodeBadRequest, "request body is required")
		default:
			return dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid request body")
		}
	}
	return nil
}
