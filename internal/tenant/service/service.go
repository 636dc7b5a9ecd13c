// Package service resolves a caller's plant and enforces plant scoping.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"medplant/internal/tenant/metrics"
	"medplant/internal/tenant/models"
	"medplant/pkg/platform/sentinel"
	"medplant/pkg/requestcontext"
)

// UserTenantLookup returns the plant a user is assigned to. It returns
// sentinel.ErrNotFound when the user has no row, and (nil, nil) when the user
// exists but belongs to no plant.
type UserTenantLookup interface {
	GetUserTenantID(ctx context.Context, principalName string) (*int64, error)
}

// Scope is the single place that decides plant visibility.
type Scope struct {
	lookup     UserTenantLookup
	adminRoles map[string]struct{}
	logger     *slog.Logger
	metrics    *metrics.Metrics
}

type Option func(*Scope)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Scope) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Scope) {
		s.metrics = m
	}
}

// WithAdminRoles sets the roles granted the tenant-scope bypass capability.
// Matching is case-insensitive.
func WithAdminRoles(roles ...string) Option {
	return func(s *Scope) {
		for _, r := range roles {
			if r = strings.ToLower(strings.TrimSpace(r)); r != "" {
				s.adminRoles[r] = struct{}{}
			}
		}
	}
}

func New(lookup UserTenantLookup, opts ...Option) (*Scope, error) {
	if lookup == nil {
		return nil, errors.New("user tenant lookup is required")
	}
	s := &Scope{
		lookup:     lookup,
		adminRoles: make(map[string]struct{}),
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// ResolveTenant returns the principal's plant, or nil when there is none.
func (s *Scope) ResolveTenant(ctx context.Context, principalName string) (*int64, error) {
	tenantID, err := s.lookup.GetUserTenantID(ctx, principalName)
	if err != nil {
		return nil, err
	}
	return tenantID, nil
}

// ResolvePrincipal builds the request's Principal from verified claims. The
// stored user row wins over the token's plant claim.
func (s *Scope) ResolvePrincipal(ctx context.Context, claims models.Claims) (requestcontext.Principal, error) {
	name := claims.Name
	if name == "" {
		name = claims.Subject
	}

	tenantID, err := s.ResolveTenant(ctx, name)
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		tenantID = claims.PlantID
	case err != nil:
		return requestcontext.Principal{}, err
	}

	_, admin := s.adminRoles[strings.ToLower(claims.Role)]
	return requestcontext.Principal{
		ID:                  claims.Subject,
		Name:                name,
		FullName:            claims.FullName,
		TenantID:            tenantID,
		Role:                claims.Role,
		BypassesTenantScope: admin,
	}, nil
}

// Authorize decides whether p may act on an entity owned by entityTenant.
// allowBypass is the entity policy's permission to honour the principal's
// bypass capability.
func (s *Scope) Authorize(p requestcontext.Principal, entityTenant *int64, allowBypass bool) models.Decision {
	d := decide(p, entityTenant, allowBypass)
	if s.metrics != nil {
		s.metrics.RecordDecision(d.String())
	}
	return d
}

func decide(p requestcontext.Principal, entityTenant *int64, allowBypass bool) models.Decision {
	if allowBypass && p.BypassesTenantScope {
		return models.Allowed
	}
	if p.TenantID == nil {
		return models.DenyNoTenant
	}
	if entityTenant == nil || *entityTenant != *p.TenantID {
		return models.DenyMismatch
	}
	return models.Allowed
}

// CheckTransfer reports whether an update may move an entity from one plant
// to another. Keeping the plant is always allowed; moving is allowed only
// into the principal's own plant, or anywhere for a bypassing principal when
// the entity allows it.
func (s *Scope) CheckTransfer(p requestcontext.Principal, from, to *int64, allowBypass bool) bool {
	if sameTenant(from, to) {
		return true
	}
	if allowBypass && p.BypassesTenantScope {
		return true
	}
	return to != nil && p.TenantID != nil && *to == *p.TenantID
}

func sameTenant(a, b *int64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
