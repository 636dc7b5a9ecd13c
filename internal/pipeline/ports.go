package pipeline

import (
	"context"
	"time"

	rlmodels "medplant/internal/ratelimit/models"
	tmodels "medplant/internal/tenant/models"
	"medplant/pkg/requestcontext"
)

//go:generate mockgen -source=ports.go -destination=mocks/mocks.go -package=mocks RateLimiter,TenantScope

// Repository is the per-entity storage port. A nil tenantID means unscoped.
// GetByID and Delete return sentinel.ErrNotFound when nothing matches; Add
// and Update return *sentinel.UniqueViolation when a unique index is hit.
type Repository[E Entity] interface {
	List(ctx context.Context, tenantID *int64) ([]E, error)
	GetByID(ctx context.Context, id int64, tenantID *int64) (E, error)
	Add(ctx context.Context, e E) error
	Update(ctx context.Context, e E, modifiedBy string, modifiedOn time.Time) error
	Delete(ctx context.Context, id int64, tenantID *int64) error
	Exists(ctx context.Context, column string, value any, excludeID int64, tenantID *int64) (bool, error)
}

type RateLimiter interface {
	Allow(ctx context.Context, principalKey, actionKey string, rule rlmodels.Rule) (*rlmodels.Result, error)
}

type TenantScope interface {
	Authorize(p requestcontext.Principal, entityTenant *int64, allowBypass bool) tmodels.Decision
	CheckTransfer(p requestcontext.Principal, from, to *int64, allowBypass bool) bool
}
