package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/menucraft/api/internal/app"
	"github.com/menucraft/api/pkg/domain/entitlement"
	"github.com/menucraft/api/pkg/domain/organization"
	"github.com/menucraft/api/pkg/domain/plan"
	"github.com/menucraft/api/pkg/domain/shared"
	"github.com/menucraft/api/pkg/domain/subscription"
	"github.com/menucraft/api/pkg/domain/usage"
	"github.com/menucraft/api/pkg/logger"
)

// productLedger plays both sides of the create path: the live counter the
// evaluator reads and the store the handler writes.
type productLedger struct {
	mu    sync.Mutex
	count int64
}

func (p *productLedger) CountActive(context.Context, shared.ID) (int64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.count, nil
}

func (p *productLedger) add() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.count++
}

func (p *productLedger) total() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.count
}

type zeroCounter struct{}

func (zeroCounter) CountActive(context.Context, shared.ID) (int64, error) { return 0, nil }

type staticPlans struct{ plan *plan.Plan }

func (s staticPlans) GetByTier(context.Context, plan.Tier) (*plan.Plan, error) {
	return s.plan, nil
}

type staticSubs struct{ sub *subscription.Subscription }

func (s staticSubs) Create(context.Context, *subscription.Subscription) error { return nil }

func (s staticSubs) GetByOrganization(_ context.Context, orgID shared.ID) (*subscription.Subscription, error) {
	if s.sub != nil && s.sub.OrganizationID() == orgID {
		return s.sub, nil
	}
	return nil, shared.ErrNotFound
}

func (s staticSubs) Update(context.Context, *subscription.Subscription) error { return nil }

func (s staticSubs) ListExpiredActive(context.Context, time.Time, int) ([]*subscription.Subscription, error) {
	return nil, nil
}

type staticOrgs struct{ org *organization.Organization }

func (s staticOrgs) Create(context.Context, *organization.Organization) error { return nil }

func (s staticOrgs) GetByID(context.Context, shared.ID) (*organization.Organization, error) {
	return s.org, nil
}

func (s staticOrgs) GetBySlug(context.Context, string) (*organization.Organization, error) {
	return nil, shared.ErrNotFound
}

func (s staticOrgs) GetByUser(context.Context, string) (*organization.Organization, error) {
	return nil, shared.ErrNotFound
}

func (s staticOrgs) Update(context.Context, *organization.Organization) error { return nil }

func (s staticOrgs) List(context.Context, int, int) ([]*organization.Organization, int64, error) {
	return nil, 0, nil
}

type emptyUsage struct{}

func (emptyUsage) Increment(context.Context, shared.ID, usage.Metric, time.Time, int64) error {
	return nil
}

func (emptyUsage) Get(context.Context, shared.ID, usage.Metric, time.Time) (*usage.Record, error) {
	return nil, shared.ErrNotFound
}

func (emptyUsage) DeleteOlderThan(context.Context, time.Time) (int64, error) { return 0, nil }

// TestLimitEnforcementEndToEnd drives the real evaluator behind the guard:
// an organization one product under its cap creates the final product, then
// an identical request is rejected with the user-facing denial.
func TestLimitEnforcementEndToEnd(t *testing.T) {
	orgID := shared.NewID()
	now := time.Now().UTC()

	starter, err := plan.New(plan.TierStarter, "Starter", 2900,
		plan.Limits{Restaurants: 3, Products: 200, APICalls: 50000},
		map[string]bool{"menuEditor": true, "menuExport": true},
	)
	require.NoError(t, err)

	sub := subscription.Reconstitute(
		shared.NewID(), orgID,
		plan.TierStarter, subscription.StatusActive,
		now.AddDate(0, -1, 0), now.AddDate(0, 1, 0),
		false, now.AddDate(0, -1, 0), now,
	)

	org := organization.Reconstitute(orgID, "Mario's", "marios", "owner@marios.io", now, now)

	products := &productLedger{count: 199}
	evaluator := app.NewEntitlementService(
		staticOrgs{org: org},
		staticSubs{sub: sub},
		staticPlans{plan: starter},
		emptyUsage{},
		zeroCounter{},
		products,
		nil,
		logger.NewNop(),
	)

	guard := NewEntitlementGuard(evaluator, nil, logger.NewNop())
	createPolicy := entitlement.Policy{
		Operation:    "write",
		AllowTrial:   true,
		TrackAPICall: true,
		RequireLimit: &entitlement.LimitRequirement{Metric: usage.MetricProducts, Amount: 1},
	}

	createHandler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		products.add()
		w.WriteHeader(http.StatusCreated)
	})
	protected := guard.Require(createPolicy)(createHandler)

	newRequest := func() *http.Request {
		r := httptest.NewRequest(http.MethodPost, "/api/v1/products/", nil)
		ctx := context.WithValue(r.Context(), UserIDKey, shared.NewID().String())
		ctx = context.WithValue(ctx, OrganizationIDKey, orgID.String())
		return r.WithContext(ctx)
	}

	rec := httptest.NewRecorder()
	protected.ServeHTTP(rec, newRequest())

	require.Equal(t, http.StatusCreated, rec.Code)
	require.Equal(t, int64(200), products.total())

	rec = httptest.NewRecorder()
	protected.ServeHTTP(rec, newRequest())

	assert.Equal(t, http.StatusPaymentRequired, rec.Code)
	assert.Equal(t, int64(200), products.total())

	var body struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "LIMIT_EXCEEDED", body.Code)
	assert.Equal(t, "products limit exceeded. Current: 200, Limit: 200, Requested: 1", body.Message)
}
