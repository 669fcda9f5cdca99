package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/menucraft/api/pkg/domain/audit"
	"github.com/menucraft/api/pkg/domain/organization"
	"github.com/menucraft/api/pkg/domain/plan"
	"github.com/menucraft/api/pkg/domain/shared"
	"github.com/menucraft/api/pkg/domain/subscription"
	"github.com/menucraft/api/pkg/domain/usage"
)

// In-memory fakes backing the service tests. They honor the same contracts
// as the Postgres repositories, including atomic ledger increments.

type fakePlanRepo struct {
	mu    sync.Mutex
	plans map[plan.Tier]*plan.Plan
}

func newFakePlanRepo(plans ...*plan.Plan) *fakePlanRepo {
	r := &fakePlanRepo{plans: make(map[plan.Tier]*plan.Plan)}
	for _, p := range plans {
		r.plans[p.Tier()] = p
	}
	return r
}

func (r *fakePlanRepo) GetByTier(_ context.Context, tier plan.Tier) (*plan.Plan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.plans[tier]
	if !ok {
		return nil, fmt.Errorf("%w: plan %s", shared.ErrNotFound, tier)
	}
	return p, nil
}

func (r *fakePlanRepo) List(_ context.Context, activeOnly bool) ([]*plan.Plan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*plan.Plan
	for _, p := range r.plans {
		if activeOnly && !p.Active() {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (r *fakePlanRepo) Upsert(_ context.Context, p *plan.Plan) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.plans[p.Tier()] = p
	return nil
}

type fakeSubscriptionRepo struct {
	mu   sync.Mutex
	byID map[shared.ID]*subscription.Subscription
}

func newFakeSubscriptionRepo() *fakeSubscriptionRepo {
	return &fakeSubscriptionRepo{byID: make(map[shared.ID]*subscription.Subscription)}
}

func (r *fakeSubscriptionRepo) Create(_ context.Context, s *subscription.Subscription) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byID[s.OrganizationID()]; exists {
		return fmt.Errorf("%w: subscription exists", shared.ErrConflict)
	}
	r.byID[s.OrganizationID()] = s
	return nil
}

func (r *fakeSubscriptionRepo) GetByOrganization(_ context.Context, orgID shared.ID) (*subscription.Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.byID[orgID]
	if !ok {
		return nil, fmt.Errorf("%w: subscription for %s", shared.ErrNotFound, orgID)
	}
	return s, nil
}

func (r *fakeSubscriptionRepo) Update(_ context.Context, s *subscription.Subscription) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[s.OrganizationID()] = s
	return nil
}

func (r *fakeSubscriptionRepo) ListExpiredActive(_ context.Context, now time.Time, limit int) ([]*subscription.Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*subscription.Subscription
	for _, s := range r.byID {
		if s.Status().IsActive() && s.IsExpired(now) {
			out = append(out, s)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

type usageKey struct {
	org    shared.ID
	metric usage.Metric
	period time.Time
}

type fakeUsageRepo struct {
	mu     sync.Mutex
	counts map[usageKey]int64
}

func newFakeUsageRepo() *fakeUsageRepo {
	return &fakeUsageRepo{counts: make(map[usageKey]int64)}
}

func (r *fakeUsageRepo) Increment(_ context.Context, orgID shared.ID, metric usage.Metric, periodStart time.Time, delta int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.counts[usageKey{orgID, metric, usage.MonthStart(periodStart)}] += delta
	return nil
}

func (r *fakeUsageRepo) Get(_ context.Context, orgID shared.ID, metric usage.Metric, periodStart time.Time) (*usage.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := usageKey{orgID, metric, usage.MonthStart(periodStart)}
	count, ok := r.counts[key]
	if !ok {
		return nil, fmt.Errorf("%w: no usage recorded", shared.ErrNotFound)
	}
	return &usage.Record{
		OrganizationID: orgID,
		Metric:         metric,
		PeriodStart:    key.period,
		PeriodEnd:      usage.MonthEnd(key.period),
		Count:          count,
	}, nil
}

func (r *fakeUsageRepo) DeleteOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var removed int64
	for key := range r.counts {
		if usage.MonthEnd(key.period).Before(cutoff) {
			delete(r.counts, key)
			removed++
		}
	}
	return removed, nil
}

type fakeOrgRepo struct {
	mu   sync.Mutex
	byID map[shared.ID]*organization.Organization
}

func newFakeOrgRepo(orgs ...*organization.Organization) *fakeOrgRepo {
	r := &fakeOrgRepo{byID: make(map[shared.ID]*organization.Organization)}
	for _, o := range orgs {
		r.byID[o.ID()] = o
	}
	return r
}

func (r *fakeOrgRepo) Create(_ context.Context, o *organization.Organization) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[o.ID()] = o
	return nil
}

func (r *fakeOrgRepo) GetByID(_ context.Context, id shared.ID) (*organization.Organization, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: organization %s", shared.ErrNotFound, id)
	}
	return o, nil
}

func (r *fakeOrgRepo) GetBySlug(_ context.Context, slug string) (*organization.Organization, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range r.byID {
		if o.Slug() == slug {
			return o, nil
		}
	}
	return nil, fmt.Errorf("%w: organization %q", shared.ErrNotFound, slug)
}

func (r *fakeOrgRepo) GetByUser(_ context.Context, _ string) (*organization.Organization, error) {
	return nil, shared.ErrNotFound
}

func (r *fakeOrgRepo) Update(_ context.Context, o *organization.Organization) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[o.ID()] = o
	return nil
}

func (r *fakeOrgRepo) List(_ context.Context, _, _ int) ([]*organization.Organization, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*organization.Organization
	for _, o := range r.byID {
		out = append(out, o)
	}
	return out, int64(len(out)), nil
}

// fakeCounter is a LiveCounter with a settable count.
type fakeCounter struct {
	mu    sync.Mutex
	count int64
	err   error
}

func (c *fakeCounter) CountActive(context.Context, shared.ID) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.count, c.err
}

func (c *fakeCounter) set(n int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.count = n
}

func (c *fakeCounter) add(delta int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.count += delta
}

type fakeAuditRepo struct {
	mu      sync.Mutex
	entries []*audit.Entry
}

func (r *fakeAuditRepo) Create(_ context.Context, e *audit.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, e)
	return nil
}

func (r *fakeAuditRepo) List(_ context.Context, _ audit.Filter, _, _ int) ([]*audit.Entry, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*audit.Entry(nil), r.entries...), int64(len(r.entries)), nil
}

type fakeNotifier struct {
	mu        sync.Mutex
	warnings  []subscription.Warning
	suspended []shared.ID
}

func (n *fakeNotifier) NotifyExpiryWarning(_ context.Context, _ shared.ID, w subscription.Warning) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.warnings = append(n.warnings, w)
	return nil
}

func (n *fakeNotifier) NotifySuspended(_ context.Context, orgID shared.ID) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.suspended = append(n.suspended, orgID)
	return nil
}
