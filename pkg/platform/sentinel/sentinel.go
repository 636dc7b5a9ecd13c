package sentinel

import (
	"errors"
	"fmt"
)

// Sentinel errors for infrastructure facts. Stores and infrastructure layers return
// these (optionally wrapped) so services can translate them into domain errors.
//
// These represent factual states about resources, not validation failures:
// - ErrNotFound: entity does not exist in store
// - ErrConflict: write collided with existing state
// - ErrUnavailable: service or resource temporarily unavailable
//
// For validation errors (bad input, missing fields), use pkg/domain-errors directly.
var (
	ErrNotFound    = errors.New("not found")
	ErrConflict    = errors.New("conflict")
	ErrUnavailable = errors.New("unavailable")
)

// UniqueViolation is returned by stores when a write breaks a unique index.
// Constraint carries the index name so callers can map it to a field.
type UniqueViolation struct {
	Constraint string
	Err        error
}

func (e *UniqueViolation) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("unique constraint %q violated: %v", e.Constraint, e.Err)
	}
	return fmt.Sprintf("unique constraint %q violated", e.Constraint)
}

// Is lets errors.Is(err, ErrConflict) match any unique violation.
func (e *UniqueViolation) Is(target error) bool {
	return target == ErrConflict
}

func (e *UniqueViolation) Unwrap() error {
	return e.Err
}

// AsUniqueViolation extracts a *UniqueViolation from err's chain.
func AsUniqueViolation(err error) (*UniqueViolation, bool) {
	var uv *UniqueViolation
	if errors.As(err, &uv) {
		return uv, true
	}
	return nil, false
}
