package audit

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Operation codes combined with an entity type to form an action code,
// e.g. DEPARTMENT_CREATE.
const (
	OpCreate   = "CREATE"
	OpUpdate   = "UPDATE"
	OpDelete   = "DELETE"
	OpView     = "VIEW"
	OpEditView = "EDIT_VIEW"
	OpList     = "LIST"
	OpExists   = "EXISTS"
)

// Suffixes appended to an action code for non-success branches.
const (
	SuffixAttempt           = "_ATTEMPT"
	SuffixValidationFailed  = "_VALIDATION_FAILED"
	SuffixSecurityViolation = "_SECURITY_VIOLATION"
	SuffixDuplicate         = "_DUPLICATE"
	SuffixRateLimited       = "_RATE_LIMITED"
	SuffixPlantDeny         = "_PLANT_DENY"
	SuffixUnauthorized      = "_UNAUTHORIZED"
	SuffixNotFound          = "_NOT_FOUND"
	SuffixFailed            = "_FAILED"
)

// Action builds an action code from an entity type, an operation and an
// optional suffix.
func Action(entityType, op, suffix string) string {
	return strings.ToUpper(entityType) + "_" + op + suffix
}

// Entry is one immutable audit record. Entries are appended and never
// updated or deleted.
type Entry struct {
	ID          uuid.UUID       `json:"id"`
	EntityType  string          `json:"entity_type"`
	Action      string          `json:"action"`
	RecordID    string          `json:"record_id,omitempty"`
	Before      json.RawMessage `json:"before,omitempty"`
	After       json.RawMessage `json:"after,omitempty"`
	Changes     []string        `json:"changes,omitempty"`
	Description string          `json:"description"`
	Actor       string          `json:"actor"`
	TenantID    *int64          `json:"tenant_id,omitempty"`
	RequestID   string          `json:"request_id,omitempty"`
	Timestamp   time.Time       `json:"timestamp"`
}

// HasSuffix reports whether the entry's action ends with suffix.
func (e Entry) HasSuffix(suffix string) bool {
	return strings.HasSuffix(e.Action, suffix)
}
