package subscription

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/menucraft/api/pkg/domain/plan"
	"github.com/menucraft/api/pkg/domain/shared"
)

func testSubscription(t *testing.T, status Status, periodEnd time.Time) *Subscription {
	t.Helper()
	start := periodEnd.AddDate(0, -1, 0)
	return Reconstitute(
		shared.NewID(), shared.NewID(), plan.TierStarter, status,
		start, periodEnd, false, start, start,
	)
}

func TestSubscription_New(t *testing.T) {
	now := time.Date(2025, 6, 1, 9, 30, 0, 0, time.UTC)

	t.Run("starts a free trial", func(t *testing.T) {
		orgID := shared.NewID()
		sub, err := New(orgID, now)

		require.NoError(t, err)
		assert.Equal(t, plan.TierFree, sub.PlanTier())
		assert.Equal(t, StatusTrialing, sub.Status())
		assert.Equal(t, now, sub.CurrentPeriodStart())
		assert.Equal(t, now.Add(TrialDuration), sub.CurrentPeriodEnd())
		assert.True(t, sub.OrganizationID().Equals(orgID))
	})

	t.Run("requires an organization", func(t *testing.T) {
		_, err := New(shared.ID{}, now)
		assert.ErrorIs(t, err, shared.ErrValidation)
	})
}

func TestStatus_IsActive(t *testing.T) {
	assert.True(t, StatusActive.IsActive())
	assert.True(t, StatusTrialing.IsActive())
	assert.False(t, StatusPastDue.IsActive())
	assert.False(t, StatusCancelled.IsActive())
	assert.False(t, StatusExpired.IsActive())
}

func TestSubscription_IsExpired(t *testing.T) {
	periodEnd := time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)
	sub := testSubscription(t, StatusActive, periodEnd)

	t.Run("exactly at period end is not expired", func(t *testing.T) {
		assert.False(t, sub.IsExpired(periodEnd))
	})

	t.Run("one second past is expired", func(t *testing.T) {
		assert.True(t, sub.IsExpired(periodEnd.Add(time.Second)))
	})

	t.Run("one second before is not expired", func(t *testing.T) {
		assert.False(t, sub.IsExpired(periodEnd.Add(-time.Second)))
	})
}

func TestSubscription_DaysUntilExpiry(t *testing.T) {
	periodEnd := time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)
	sub := testSubscription(t, StatusActive, periodEnd)

	cases := []struct {
		name string
		now  time.Time
		want int
	}{
		{"partial day rounds up", periodEnd.Add(-25 * time.Hour), 2},
		{"exact day stays whole", periodEnd.Add(-24 * time.Hour), 1},
		{"under a day rounds to one", periodEnd.Add(-time.Hour), 1},
		{"at expiry is zero", periodEnd, 0},
		{"past expiry goes negative", periodEnd.Add(48 * time.Hour), -2},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, sub.DaysUntilExpiry(tc.now))
		})
	}
}

func TestSubscription_Grace(t *testing.T) {
	periodEnd := time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)
	graceEnd := periodEnd.Add(GraceDuration)
	sub := testSubscription(t, StatusActive, periodEnd)

	t.Run("not expired has zero window", func(t *testing.T) {
		w := sub.Grace(periodEnd.Add(-time.Second))
		assert.False(t, w.InGracePeriod)
		assert.Nil(t, w.ExpiredDate)
	})

	t.Run("one second past expiry is in grace", func(t *testing.T) {
		w := sub.Grace(periodEnd.Add(time.Second))
		assert.True(t, w.InGracePeriod)
		assert.Equal(t, 7, w.DaysRemaining)
	})

	t.Run("exactly at grace end is still in grace", func(t *testing.T) {
		w := sub.Grace(graceEnd)
		assert.True(t, w.InGracePeriod)
	})

	t.Run("one second past grace end is out", func(t *testing.T) {
		w := sub.Grace(graceEnd.Add(time.Second))
		assert.False(t, w.InGracePeriod)
		require.NotNil(t, w.GracePeriodEnd)
		assert.Equal(t, graceEnd, *w.GracePeriodEnd)
	})
}

func TestOperationAllowedInGrace(t *testing.T) {
	for _, op := range []string{"read", "export", "billing", "READ", " Billing "} {
		assert.True(t, OperationAllowedInGrace(op), op)
	}
	for _, op := range []string{"write", "delete", "create", ""} {
		assert.False(t, OperationAllowedInGrace(op), op)
	}
}

func TestSubscription_Warnings(t *testing.T) {
	periodEnd := time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)
	sub := testSubscription(t, StatusActive, periodEnd)

	t.Run("eight days out yields nothing", func(t *testing.T) {
		assert.Empty(t, sub.Warnings(periodEnd.AddDate(0, 0, -8)))
	})

	t.Run("thresholds yield a single warning of the tightest severity", func(t *testing.T) {
		cases := []struct {
			days int
			want string
		}{
			{7, SeverityWarning},
			{5, SeverityWarning},
			{3, SeverityUrgent},
			{2, SeverityUrgent},
			{1, SeverityCritical},
		}
		for _, tc := range cases {
			warnings := sub.Warnings(periodEnd.AddDate(0, 0, -tc.days))
			require.Len(t, warnings, 1, "days=%d", tc.days)
			assert.Equal(t, tc.want, warnings[0].Severity, "days=%d", tc.days)
			assert.Equal(t, BillingURL, warnings[0].ActionURL)
		}
	})

	t.Run("expired in grace yields grace notice", func(t *testing.T) {
		warnings := sub.Warnings(periodEnd.AddDate(0, 0, 2))
		require.Len(t, warnings, 1)
		assert.Equal(t, SeverityCritical, warnings[0].Severity)
		assert.Equal(t, "Grace Period Active", warnings[0].Title)
		assert.Contains(t, warnings[0].Message, "5 day(s)")
	})

	t.Run("past grace yields suspended notice", func(t *testing.T) {
		warnings := sub.Warnings(periodEnd.AddDate(0, 0, 8))
		require.Len(t, warnings, 1)
		assert.Equal(t, "Subscription Suspended", warnings[0].Title)
	})
}

func TestSubscription_Lifecycle(t *testing.T) {
	now := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)

	t.Run("change plan activates", func(t *testing.T) {
		sub := testSubscription(t, StatusTrialing, now.AddDate(0, 0, 10))
		require.NoError(t, sub.ChangePlan(plan.TierProfessional, now))
		assert.Equal(t, plan.TierProfessional, sub.PlanTier())
		assert.Equal(t, StatusActive, sub.Status())
	})

	t.Run("change plan rejects unknown tier", func(t *testing.T) {
		sub := testSubscription(t, StatusActive, now.AddDate(0, 0, 10))
		assert.ErrorIs(t, sub.ChangePlan(plan.Tier("GOLD"), now), shared.ErrValidation)
	})

	t.Run("cancel then reactivate", func(t *testing.T) {
		sub := testSubscription(t, StatusActive, now.AddDate(0, 0, 10))
		sub.Cancel(now)
		assert.True(t, sub.CancelAtPeriodEnd())
		require.NoError(t, sub.Reactivate(now))
		assert.False(t, sub.CancelAtPeriodEnd())
	})

	t.Run("restore access rolls period forward", func(t *testing.T) {
		sub := testSubscription(t, StatusPastDue, now.AddDate(0, 0, -20))
		sub.RestoreAccess(now)
		assert.Equal(t, StatusActive, sub.Status())
		assert.Equal(t, now, sub.CurrentPeriodStart())
		assert.Equal(t, now.AddDate(0, 1, 0), sub.CurrentPeriodEnd())
	})
}

func TestNewVirtualView(t *testing.T) {
	orgID := shared.NewID()
	createdAt := time.Date(2025, 5, 1, 8, 0, 0, 0, time.UTC)
	free := plan.DefaultFree()

	view := NewVirtualView(orgID, createdAt, free)

	assert.Equal(t, SourceVirtual, view.Source)
	assert.True(t, view.IsVirtual())
	assert.True(t, view.Subscription.ID().IsZero())
	assert.Equal(t, StatusTrialing, view.Subscription.Status())
	assert.Equal(t, createdAt.Add(TrialDuration), view.Subscription.CurrentPeriodEnd())
	assert.Equal(t, plan.TierFree, view.Plan.Tier())
}
