package pipeline

import (
	"context"
	"time"

	"medplant/internal/entity/models"
	rlmodels "medplant/internal/ratelimit/models"
)

// Entity is any record the pipeline can manage.
type Entity interface {
	Meta() *models.Base
}

// UniqueRule describes one uniqueness requirement. The storage constraint is
// authoritative; the pre-check only produces a friendlier error earlier.
type UniqueRule[E Entity] struct {
	// Field is the form field that receives the error.
	Field string
	// Column is the storage column checked by Repository.Exists.
	Column string
	// Constraint is the storage index name reported on violation.
	Constraint string
	// PerTenant limits uniqueness to the entity's plant.
	PerTenant bool
	// Value extracts the value to check. Empty strings skip the check.
	Value func(E) any
}

// Policy is the per-entity configuration of the pipeline.
type Policy[E Entity] struct {
	// EntityType is the audit prefix, e.g. DEPARTMENT.
	EntityType string
	// Label is used in user-facing messages, e.g. Department.
	Label string
	New   func() E
	// Validate holds business rules beyond struct tags. It returns field errors.
	Validate func(e E, now time.Time) map[string]string
	Uniques  []UniqueRule[E]
	Rules    rlmodels.Rules
	// TenantScoped entities carry a plant and are filtered by it.
	TenantScoped bool
	// AllowScopeBypass lets principals with the bypass capability see all plants.
	AllowScopeBypass bool
	// BeforePersist runs after validation and rate limiting. existing is the
	// stored record on update and the zero value on create.
	BeforePersist func(ctx context.Context, e E, existing E) error
}

// RuleFor finds the unique rule for a form field.
func (p Policy[E]) RuleFor(field string) (UniqueRule[E], bool) {
	for _, r := range p.Uniques {
		if r.Field == field {
			return r, true
		}
	}
	return UniqueRule[E]{}, false
}

func (p Policy[E]) ruleForConstraint(constraint string) (UniqueRule[E], bool) {
	for _, r := range p.Uniques {
		if r.Constraint != "" && r.Constraint == constraint {
			return r, true
		}
	}
	return UniqueRule[E]{}, false
}
