package pipeline_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"medplant/internal/entity/models"
	"medplant/internal/entity/policy"
	"medplant/internal/entity/store"
	"medplant/internal/pipeline"
	"medplant/internal/pipeline/mocks"
	rlmodels "medplant/internal/ratelimit/models"
	tmodels "medplant/internal/tenant/models"
	dErrors "medplant/pkg/domain-errors"
	"medplant/pkg/platform/audit"
	auditmem "medplant/pkg/platform/audit/store/memory"
	"medplant/pkg/requestcontext"
)

func newMockedPipeline(t *testing.T) (*pipeline.Pipeline[*models.Department], *mocks.MockRateLimiter, *mocks.MockTenantScope, *store.MemoryRepository[*models.Department], *auditmem.InMemoryStore) {
	t.Helper()
	ctrl := gomock.NewController(t)
	limiter := mocks.NewMockRateLimiter(ctrl)
	scope := mocks.NewMockTenantScope(ctrl)
	pol := policy.Department(rlmodels.DefaultRules())
	repo := store.NewMemoryRepository(pol.Uniques)
	audits := auditmem.NewInMemoryStore()

	p, err := pipeline.New(pol, repo, pipeline.Deps{
		Limiter: limiter,
		Scope:   scope,
		Audit:   audit.NewRecorder(audits),
	})
	require.NoError(t, err)
	return p, limiter, scope, repo, audits
}

func principalCtx(plant int64) context.Context {
	return requestcontext.WithPrincipal(context.Background(), requestcontext.Principal{Name: "alice", TenantID: &plant})
}

func TestCreateUsesEntityActionAsRateLimitKey(t *testing.T) {
	p, limiter, _, repo, _ := newMockedPipeline(t)

	limiter.EXPECT().
		Allow(gomock.Any(), "alice", "DEPARTMENT_CREATE", rlmodels.Rule{Limit: 5, Window: 5 * time.Minute}).
		Return(&rlmodels.Result{Allowed: false, RetryAfter: 42}, nil)

	_, err := p.Create(principalCtx(7), &models.Department{Name: "ICU"})
	de, ok := dErrors.As(err)
	require.True(t, ok)
	assert.Equal(t, dErrors.CodeRateLimited, de.Code)
	assert.Equal(t, 42*time.Second, de.RetryAfter)
	assert.Zero(t, repo.Len())
}

func TestLimiterStoreFailureDoesNotBlockCreate(t *testing.T) {
	p, limiter, _, repo, _ := newMockedPipeline(t)

	limiter.EXPECT().Allow(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(&rlmodels.Result{Allowed: true}, errors.New("redis down"))

	_, err := p.Create(principalCtx(7), &models.Department{Name: "ICU"})
	require.NoError(t, err)
	assert.Equal(t, 1, repo.Len())
}

func TestDetailsHonoursScopeDecision(t *testing.T) {
	tests := []struct {
		decision tmodels.Decision
		code     dErrors.Code
		action   string
	}{
		{tmodels.DenyNoTenant, dErrors.CodeUnauthorized, "DEPARTMENT_VIEW_UNAUTHORIZED"},
		{tmodels.DenyMismatch, dErrors.CodeTenantDenied, "DEPARTMENT_VIEW_PLANT_DENY"},
	}
	for _, tt := range tests {
		t.Run(tt.decision.String(), func(t *testing.T) {
			p, _, scope, repo, audits := newMockedPipeline(t)
			plant := int64(7)
			require.NoError(t, repo.Add(context.Background(), &models.Department{Base: models.Base{PlantID: &plant}, Name: "ICU"}))

			scope.EXPECT().Authorize(gomock.Any(), &plant, false).Return(tt.decision)

			_, err := p.Details(principalCtx(7), 1, audit.OpView)
			assert.True(t, dErrors.Is(err, tt.code))

			entries, err := audits.ListByAction(context.Background(), tt.action)
			require.NoError(t, err)
			assert.Len(t, entries, 1)
		})
	}
}

func TestNewRequiresCollaborators(t *testing.T) {
	pol := policy.Department(rlmodels.DefaultRules())
	_, err := pipeline.New(pol, nil, pipeline.Deps{})
	assert.Error(t, err)
}
