package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/menucraft/api/pkg/domain/audit"
	"github.com/menucraft/api/pkg/domain/plan"
	"github.com/menucraft/api/pkg/domain/shared"
	"github.com/menucraft/api/pkg/domain/subscription"
	"github.com/menucraft/api/pkg/logger"
)

type billingFixture struct {
	*entitlementFixture
	svc      *BillingService
	audits   *fakeAuditRepo
	notifier *fakeNotifier
}

func newBillingFixture(t *testing.T) *billingFixture {
	t.Helper()
	base := newEntitlementFixture(t)
	f := &billingFixture{
		entitlementFixture: base,
		audits:             &fakeAuditRepo{},
		notifier:           &fakeNotifier{},
	}
	f.svc = NewBillingService(
		base.subRepo, base.planRepo, base.svc,
		base.restaurants, base.products,
		f.audits, f.notifier, base.clock, 100, logger.NewNop(),
	)
	return f
}

func TestBillingService_ChangePlan(t *testing.T) {
	ctx := context.Background()

	t.Run("upgrade materializes the virtual trial", func(t *testing.T) {
		f := newBillingFixture(t)

		status, err := f.svc.ChangePlan(ctx, f.org.ID(), nil, plan.TierStarter)

		require.NoError(t, err)
		assert.Equal(t, subscription.SourcePersisted, status.Source)
		assert.Equal(t, plan.TierStarter, status.PlanTier)
		assert.Equal(t, subscription.StatusActive, status.Status)

		sub, err := f.subRepo.GetByOrganization(ctx, f.org.ID())
		require.NoError(t, err)
		assert.Equal(t, plan.TierStarter, sub.PlanTier())
	})

	t.Run("upgrade succeeds regardless of usage", func(t *testing.T) {
		f := newBillingFixture(t)
		f.withSubscription(t, plan.TierStarter, subscription.StatusActive, f.clock.Time.AddDate(0, 0, 20))
		f.products.set(10000)

		_, err := f.svc.ChangePlan(ctx, f.org.ID(), nil, plan.TierEnterprise)

		require.NoError(t, err)
	})

	t.Run("downgrade rejected while usage exceeds target caps", func(t *testing.T) {
		f := newBillingFixture(t)
		f.withSubscription(t, plan.TierEnterprise, subscription.StatusActive, f.clock.Time.AddDate(0, 0, 20))
		f.restaurants.set(5)

		_, err := f.svc.ChangePlan(ctx, f.org.ID(), nil, plan.TierStarter)

		require.ErrorIs(t, err, shared.ErrConflict)
		assert.Contains(t, err.Error(), "you have 5 restaurants")
		assert.Contains(t, err.Error(), "allows 3")

		// Subscription unchanged.
		sub, err := f.subRepo.GetByOrganization(ctx, f.org.ID())
		require.NoError(t, err)
		assert.Equal(t, plan.TierEnterprise, sub.PlanTier())
	})

	t.Run("downgrade allowed once usage fits", func(t *testing.T) {
		f := newBillingFixture(t)
		f.withSubscription(t, plan.TierEnterprise, subscription.StatusActive, f.clock.Time.AddDate(0, 0, 20))
		f.restaurants.set(3)
		f.products.set(200)

		status, err := f.svc.ChangePlan(ctx, f.org.ID(), nil, plan.TierStarter)

		require.NoError(t, err)
		assert.Equal(t, plan.TierStarter, status.PlanTier)
	})

	t.Run("unknown tier rejected", func(t *testing.T) {
		f := newBillingFixture(t)

		_, err := f.svc.ChangePlan(ctx, f.org.ID(), nil, plan.Tier("PLATINUM"))

		assert.ErrorIs(t, err, shared.ErrValidation)
	})

	t.Run("writes an audit entry", func(t *testing.T) {
		f := newBillingFixture(t)

		_, err := f.svc.ChangePlan(ctx, f.org.ID(), nil, plan.TierStarter)

		require.NoError(t, err)
		require.Len(t, f.audits.entries, 1)
		assert.Equal(t, audit.ActionPlanChanged, f.audits.entries[0].Action())
	})
}

func TestBillingService_CancelReactivate(t *testing.T) {
	ctx := context.Background()

	t.Run("cancel keeps access until period end", func(t *testing.T) {
		f := newBillingFixture(t)
		f.withSubscription(t, plan.TierStarter, subscription.StatusActive, f.clock.Time.AddDate(0, 0, 20))

		status, err := f.svc.Cancel(ctx, f.org.ID(), nil)

		require.NoError(t, err)
		assert.True(t, status.CancelAtPeriodEnd)
		assert.True(t, status.IsActive)
	})

	t.Run("reactivate clears pending cancellation", func(t *testing.T) {
		f := newBillingFixture(t)
		f.withSubscription(t, plan.TierStarter, subscription.StatusActive, f.clock.Time.AddDate(0, 0, 20))
		_, err := f.svc.Cancel(ctx, f.org.ID(), nil)
		require.NoError(t, err)

		status, err := f.svc.Reactivate(ctx, f.org.ID(), nil)

		require.NoError(t, err)
		assert.False(t, status.CancelAtPeriodEnd)
	})

	t.Run("reactivate without pending cancellation conflicts", func(t *testing.T) {
		f := newBillingFixture(t)
		f.withSubscription(t, plan.TierStarter, subscription.StatusActive, f.clock.Time.AddDate(0, 0, 20))

		_, err := f.svc.Reactivate(ctx, f.org.ID(), nil)

		assert.ErrorIs(t, err, shared.ErrConflict)
	})
}

func TestBillingService_RestoreAccess(t *testing.T) {
	ctx := context.Background()
	f := newBillingFixture(t)
	f.withSubscription(t, plan.TierStarter, subscription.StatusPastDue, f.clock.Time.Add(-10*24*time.Hour))

	status, err := f.svc.RestoreAccess(ctx, f.org.ID(), nil)

	require.NoError(t, err)
	assert.Equal(t, subscription.StatusActive, status.Status)
	assert.False(t, status.IsExpired)
	assert.Equal(t, f.clock.Time.AddDate(0, 1, 0), status.CurrentPeriodEnd)
}

func TestBillingService_GetWarnings(t *testing.T) {
	ctx := context.Background()

	cases := []struct {
		name     string
		daysLeft int
		severity string
	}{
		{"seven days out", 7, subscription.SeverityWarning},
		{"three days out", 3, subscription.SeverityUrgent},
		{"two days out stays urgent", 2, subscription.SeverityUrgent},
		{"one day out", 1, subscription.SeverityCritical},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newBillingFixture(t)
			f.withSubscription(t, plan.TierStarter, subscription.StatusActive,
				f.clock.Time.Add(time.Duration(tc.daysLeft)*24*time.Hour))

			warnings, err := f.svc.GetWarnings(ctx, f.org.ID())

			require.NoError(t, err)
			require.Len(t, warnings, 1, "exactly one warning per check")
			assert.Equal(t, tc.severity, warnings[0].Severity)
			assert.Equal(t, subscription.BillingURL, warnings[0].ActionURL)
		})
	}

	t.Run("far from expiry yields none", func(t *testing.T) {
		f := newBillingFixture(t)
		f.withSubscription(t, plan.TierStarter, subscription.StatusActive, f.clock.Time.AddDate(0, 0, 20))

		warnings, err := f.svc.GetWarnings(ctx, f.org.ID())

		require.NoError(t, err)
		assert.Empty(t, warnings)
	})

	t.Run("expired in grace yields grace notice", func(t *testing.T) {
		f := newBillingFixture(t)
		f.withSubscription(t, plan.TierStarter, subscription.StatusActive, f.clock.Time.Add(-2*24*time.Hour))

		warnings, err := f.svc.GetWarnings(ctx, f.org.ID())

		require.NoError(t, err)
		require.Len(t, warnings, 1)
		assert.Equal(t, subscription.SeverityCritical, warnings[0].Severity)
		assert.Equal(t, "Grace Period Active", warnings[0].Title)
	})

	t.Run("past grace yields suspended notice", func(t *testing.T) {
		f := newBillingFixture(t)
		f.withSubscription(t, plan.TierStarter, subscription.StatusActive, f.clock.Time.Add(-9*24*time.Hour))

		warnings, err := f.svc.GetWarnings(ctx, f.org.ID())

		require.NoError(t, err)
		require.Len(t, warnings, 1)
		assert.Equal(t, "Subscription Suspended", warnings[0].Title)
	})
}

func TestBillingService_ProcessExpiredSubscriptions(t *testing.T) {
	ctx := context.Background()

	t.Run("in grace notifies but does not mark past due", func(t *testing.T) {
		f := newBillingFixture(t)
		f.withSubscription(t, plan.TierStarter, subscription.StatusActive, f.clock.Time.Add(-3*24*time.Hour))

		processed, err := f.svc.ProcessExpiredSubscriptions(ctx)

		require.NoError(t, err)
		assert.Zero(t, processed)
		assert.NotEmpty(t, f.notifier.warnings)

		sub, err := f.subRepo.GetByOrganization(ctx, f.org.ID())
		require.NoError(t, err)
		assert.Equal(t, subscription.StatusActive, sub.Status())
	})

	t.Run("past grace marks past due and notifies suspension", func(t *testing.T) {
		f := newBillingFixture(t)
		f.withSubscription(t, plan.TierStarter, subscription.StatusActive, f.clock.Time.Add(-8*24*time.Hour))

		processed, err := f.svc.ProcessExpiredSubscriptions(ctx)

		require.NoError(t, err)
		assert.Equal(t, 1, processed)
		assert.Equal(t, []shared.ID{f.org.ID()}, f.notifier.suspended)

		sub, err := f.subRepo.GetByOrganization(ctx, f.org.ID())
		require.NoError(t, err)
		assert.Equal(t, subscription.StatusPastDue, sub.Status())
	})

	t.Run("active subscriptions untouched", func(t *testing.T) {
		f := newBillingFixture(t)
		f.withSubscription(t, plan.TierStarter, subscription.StatusActive, f.clock.Time.AddDate(0, 0, 20))

		processed, err := f.svc.ProcessExpiredSubscriptions(ctx)

		require.NoError(t, err)
		assert.Zero(t, processed)
		assert.Empty(t, f.notifier.warnings)
	})
}
