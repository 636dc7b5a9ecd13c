package tenant

import (
	"log/slog"

	"medplant/internal/tenant/metrics"
	"medplant/internal/tenant/service"
)

// Scope resolves principals and enforces plant scoping.
type Scope = service.Scope

// UserTenantLookup is implemented by the system user store.
type UserTenantLookup = service.UserTenantLookup

// NewScope constructs the plant scope with the configured admin roles.
func NewScope(lookup UserTenantLookup, adminRoles []string, logger *slog.Logger, m *metrics.Metrics) (*Scope, error) {
	return service.New(lookup,
		service.WithAdminRoles(adminRoles...),
		service.WithLogger(logger),
		service.WithMetrics(m),
	)
}
