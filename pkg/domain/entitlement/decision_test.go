package entitlement

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/menucraft/api/pkg/domain/subscription"
	"github.com/menucraft/api/pkg/domain/usage"
)

func TestLimitExceededMessage(t *testing.T) {
	// The wording is a user-facing contract.
	msg := LimitExceededMessage(usage.MetricProducts, 200, 200, 1)
	assert.Equal(t, "products limit exceeded. Current: 200, Limit: 200, Requested: 1", msg)

	msg = LimitExceededMessage(usage.MetricAPICalls, 9995, 10000, 10)
	assert.Equal(t, "apiCalls limit exceeded. Current: 9995, Limit: 10000, Requested: 10", msg)
}

func TestDenial_Message(t *testing.T) {
	t.Run("limit exceeded uses the contract wording", func(t *testing.T) {
		d := &Denial{
			Reason:       ReasonLimitExceeded,
			Metric:       usage.MetricRestaurants,
			CurrentUsage: 3,
			Limit:        3,
			Requested:    1,
		}
		assert.Equal(t, "restaurants limit exceeded. Current: 3, Limit: 3, Requested: 1", d.Message())
	})

	t.Run("feature denial names the plan", func(t *testing.T) {
		d := &Denial{Reason: ReasonFeatureDenied, Feature: "apiAccess", PlanName: "Starter"}
		assert.Contains(t, d.Message(), `"apiAccess"`)
		assert.Contains(t, d.Message(), "Starter")
	})

	t.Run("expired message reflects grace state", func(t *testing.T) {
		now := time.Now()
		inGrace := &Denial{Reason: ReasonExpired, Grace: &subscription.GraceWindow{
			InGracePeriod: true, DaysRemaining: 4, GracePeriodEnd: &now,
		}}
		assert.Contains(t, inGrace.Message(), "grace period")

		outOfGrace := &Denial{Reason: ReasonExpired, Grace: &subscription.GraceWindow{}}
		assert.Contains(t, outOfGrace.Message(), "grace period has ended")
	})

	t.Run("unknown reason falls back", func(t *testing.T) {
		d := &Denial{Reason: DenialReason("WHATEVER")}
		assert.Equal(t, "Access denied", d.Message())
	})
}

func TestPolicy_OperationOrDefault(t *testing.T) {
	assert.Equal(t, "write", Policy{}.OperationOrDefault())
	assert.Equal(t, "read", Policy{Operation: "read"}.OperationOrDefault())
}
