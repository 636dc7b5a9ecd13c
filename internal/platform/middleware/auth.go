// Package middleware adapts token claims to the plant scope.
package middleware

import (
	"context"

	tenantmodels "medplant/internal/tenant/models"
	authmw "medplant/pkg/platform/middleware/auth"
	"medplant/pkg/requestcontext"
)

// PrincipalResolver is the part of the plant scope the auth middleware needs.
type PrincipalResolver interface {
	ResolvePrincipal(ctx context.Context, claims tenantmodels.Claims) (requestcontext.Principal, error)
}

// ResolveWith returns an auth resolver that looks the caller's plant up
// through scope.
func ResolveWith(scope PrincipalResolver) authmw.PrincipalResolver {
	return func(ctx context.Context, c *authmw.Claims) (requestcontext.Principal, error) {
		return scope.ResolvePrincipal(ctx, ToTenantClaims(c))
	}
}

// ToTenantClaims copies the identity fields of a verified token.
func ToTenantClaims(c *authmw.Claims) tenantmodels.Claims {
	return tenantmodels.Claims{
		Subject:  c.Subject,
		Name:     c.Name,
		FullName: c.FullName,
		Role:     c.Role,
		PlantID:  c.PlantID,
	}
}
