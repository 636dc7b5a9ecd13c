package middleware

import (
	"context"
	"testing"

	"medplant/internal/entity/models"
	"medplant/internal/entity/policy"
	"medplant/internal/entity/store"
	rlmodels "medplant/internal/ratelimit/models"
	"medplant/internal/tenant/service"
	authmw "medplant/pkg/platform/middleware/auth"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveWith_StoredPlantWins(t *testing.T) {
	stored := int64(3)
	claimed := int64(9)
	users := store.NewMemoryRepository(policy.SystemUser(rlmodels.Rules{}, 0).Uniques)
	require.NoError(t, users.Add(context.Background(), &models.SystemUser{
		Base: models.Base{PlantID: &stored}, Username: "alice", Active: true,
	}))
	scope, err := service.New(store.NewMemoryUserDirectory(users), service.WithAdminRoles("admin"))
	require.NoError(t, err)

	resolve := ResolveWith(scope)
	p, err := resolve(context.Background(), &authmw.Claims{Name: "alice", FullName: "Alice Moreau", Role: "Admin", PlantID: &claimed})
	require.NoError(t, err)

	assert.Equal(t, "alice", p.Name)
	require.NotNil(t, p.TenantID)
	assert.Equal(t, stored, *p.TenantID)
	assert.True(t, p.BypassesTenantScope)
	assert.Equal(t, "alice - Alice Moreau", p.DisplayName())
}

func TestResolveWith_UnknownUserFallsBackToClaim(t *testing.T) {
	claimed := int64(9)
	users := store.NewMemoryRepository(policy.SystemUser(rlmodels.Rules{}, 0).Uniques)
	scope, err := service.New(store.NewMemoryUserDirectory(users))
	require.NoError(t, err)

	p, err := ResolveWith(scope)(context.Background(), &authmw.Claims{Name: "bob", PlantID: &claimed})
	require.NoError(t, err)
	require.NotNil(t, p.TenantID)
	assert.Equal(t, claimed, *p.TenantID)
	assert.False(t, p.BypassesTenantScope)
}
