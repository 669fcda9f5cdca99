package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/menucraft/api/internal/app"
	"github.com/menucraft/api/pkg/domain/plan"
	"github.com/menucraft/api/pkg/logger"
)

type fakePlanRepo struct {
	plans []*plan.Plan
	err   error
}

func (f *fakePlanRepo) GetByTier(_ context.Context, tier plan.Tier) (*plan.Plan, error) {
	for _, p := range f.plans {
		if p.Tier() == tier {
			return p, nil
		}
	}
	return nil, errors.New("not found")
}

func (f *fakePlanRepo) List(context.Context, bool) ([]*plan.Plan, error) {
	return f.plans, f.err
}

func (f *fakePlanRepo) Upsert(context.Context, *plan.Plan) error { return nil }

func newPlanHandler(t *testing.T, repo *fakePlanRepo) *PlanHandler {
	t.Helper()
	svc, err := app.NewPlanService(repo, nil, logger.NewNop())
	require.NoError(t, err)
	return NewPlanHandler(svc, logger.NewNop())
}

func TestPlanHandlerList(t *testing.T) {
	starter, err := plan.New(plan.TierStarter, "Starter", 2900,
		plan.Limits{Restaurants: 3, Products: 500, APICalls: 50000},
		map[string]bool{"menuEditor": true, "menuExport": true},
	)
	require.NoError(t, err)

	h := newPlanHandler(t, &fakePlanRepo{plans: []*plan.Plan{plan.DefaultFree(), starter}})
	rec := httptest.NewRecorder()

	h.List(rec, httptest.NewRequest(http.MethodGet, "/api/v1/plans", nil))

	assert.Equal(t, http.StatusOK, rec.Code)

	var body PlansResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Plans, 2)
	assert.Equal(t, "STARTER", string(body.Plans[1].Tier))
	assert.True(t, body.Plans[1].Features["menuExport"])
}

func TestPlanHandlerListEmptyCatalog(t *testing.T) {
	h := newPlanHandler(t, &fakePlanRepo{})
	rec := httptest.NewRecorder()

	h.List(rec, httptest.NewRequest(http.MethodGet, "/api/v1/plans", nil))

	assert.Equal(t, http.StatusOK, rec.Code)

	var body PlansResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.NotNil(t, body.Plans)
	assert.Empty(t, body.Plans)
}

func TestPlanHandlerListServiceError(t *testing.T) {
	h := newPlanHandler(t, &fakePlanRepo{err: errors.New("db down")})
	rec := httptest.NewRecorder()

	h.List(rec, httptest.NewRequest(http.MethodGet, "/api/v1/plans", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
