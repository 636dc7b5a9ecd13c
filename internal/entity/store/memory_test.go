package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medplant/internal/entity/models"
	"medplant/internal/entity/policy"
	rlmodels "medplant/internal/ratelimit/models"
	"medplant/pkg/platform/sentinel"
)

func plant(id int64) *int64 { return &id }

func newDepartments() *MemoryRepository[*models.Department] {
	return NewMemoryRepository(policy.Department(rlmodels.Rules{}).Uniques)
}

func TestMemoryRepositoryCRUD(t *testing.T) {
	ctx := context.Background()
	repo := newDepartments()

	d := &models.Department{Base: models.Base{PlantID: plant(7)}, Name: "ICU"}
	require.NoError(t, repo.Add(ctx, d))
	assert.Equal(t, int64(1), d.ID)

	d.Name = "changed after add"
	got, err := repo.GetByID(ctx, 1, plant(7))
	require.NoError(t, err)
	assert.Equal(t, "ICU", got.Name, "stored copy is isolated from the caller")

	_, err = repo.GetByID(ctx, 1, plant(8))
	assert.ErrorIs(t, err, sentinel.ErrNotFound)

	got.Name = "Intensive Care"
	now := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	require.NoError(t, repo.Update(ctx, got, "alice", now))
	got, err = repo.GetByID(ctx, 1, nil)
	require.NoError(t, err)
	assert.Equal(t, "Intensive Care", got.Name)
	assert.Equal(t, "alice", got.ModifiedBy)

	assert.ErrorIs(t, repo.Delete(ctx, 1, plant(8)), sentinel.ErrNotFound)
	require.NoError(t, repo.Delete(ctx, 1, plant(7)))
	assert.Zero(t, repo.Len())
	assert.ErrorIs(t, repo.Update(ctx, got, "alice", now), sentinel.ErrNotFound)
}

func TestMemoryRepositoryUniqueRules(t *testing.T) {
	ctx := context.Background()
	repo := newDepartments()
	require.NoError(t, repo.Add(ctx, &models.Department{Base: models.Base{PlantID: plant(7)}, Name: "ICU"}))

	err := repo.Add(ctx, &models.Department{Base: models.Base{PlantID: plant(7)}, Name: "icu"})
	uv, ok := sentinel.AsUniqueViolation(err)
	require.True(t, ok)
	assert.Equal(t, policy.DepartmentName, uv.Constraint)
	assert.ErrorIs(t, err, sentinel.ErrConflict)

	require.NoError(t, repo.Add(ctx, &models.Department{Base: models.Base{PlantID: plant(8)}, Name: "ICU"}))

	exists, err := repo.Exists(ctx, "name", "Icu", 0, plant(7))
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.Exists(ctx, "name", "ICU", 1, plant(7))
	require.NoError(t, err)
	assert.False(t, exists, "the record itself is excluded")

	_, err = repo.Exists(ctx, "description", "x", 0, nil)
	assert.Error(t, err)
}

func TestMemoryRepositoryListIsOrderedAndScoped(t *testing.T) {
	ctx := context.Background()
	repo := newDepartments()
	for _, n := range []string{"A", "B", "C"} {
		require.NoError(t, repo.Add(ctx, &models.Department{Base: models.Base{PlantID: plant(7)}, Name: n}))
	}
	require.NoError(t, repo.Add(ctx, &models.Department{Base: models.Base{PlantID: plant(8)}, Name: "D"}))

	list, err := repo.List(ctx, plant(7))
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, []string{"A", "B", "C"}, []string{list[0].Name, list[1].Name, list[2].Name})

	all, err := repo.List(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

func TestMemoryUserDirectory(t *testing.T) {
	ctx := context.Background()
	users := NewMemoryRepository(policy.SystemUser(rlmodels.Rules{}, 0).Uniques)
	require.NoError(t, users.Add(ctx, &models.SystemUser{Base: models.Base{PlantID: plant(7)}, Username: "alice", Active: true}))
	require.NoError(t, users.Add(ctx, &models.SystemUser{Username: "root", Active: true}))
	require.NoError(t, users.Add(ctx, &models.SystemUser{Base: models.Base{PlantID: plant(7)}, Username: "gone"}))
	dir := NewMemoryUserDirectory(users)

	tenant, err := dir.GetUserTenantID(ctx, "Alice")
	require.NoError(t, err)
	assert.Equal(t, int64(7), *tenant)

	tenant, err = dir.GetUserTenantID(ctx, "root")
	require.NoError(t, err)
	assert.Nil(t, tenant)

	_, err = dir.GetUserTenantID(ctx, "gone")
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}
