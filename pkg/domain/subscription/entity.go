// Package subscription defines the per-organization subscription record and
// the temporal policies derived from it (grace period, staged warnings).
package subscription

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/menucraft/api/pkg/domain/plan"
	"github.com/menucraft/api/pkg/domain/shared"
)

// Status is the lifecycle state of a subscription.
type Status string

// Subscription statuses.
const (
	StatusTrialing  Status = "TRIALING"
	StatusActive    Status = "ACTIVE"
	StatusPastDue   Status = "PAST_DUE"
	StatusCancelled Status = "CANCELLED"
	StatusExpired   Status = "EXPIRED"
)

// ParseStatus parses a status string.
func ParseStatus(s string) (Status, error) {
	st := Status(strings.ToUpper(strings.TrimSpace(s)))
	if !st.IsValid() {
		return "", fmt.Errorf("%w: unknown subscription status %q", shared.ErrValidation, s)
	}
	return st, nil
}

// IsValid checks if the status is known.
func (s Status) IsValid() bool {
	switch s {
	case StatusTrialing, StatusActive, StatusPastDue, StatusCancelled, StatusExpired:
		return true
	default:
		return false
	}
}

// IsActive reports whether the status grants normal access.
// TRIALING counts as active; everything else requires payment action.
func (s Status) IsActive() bool {
	return s == StatusActive || s == StatusTrialing
}

// String returns the status name.
func (s Status) String() string {
	return string(s)
}

// TrialDuration is the default trial window granted at onboarding.
const TrialDuration = 30 * 24 * time.Hour

// Subscription is an organization's subscription record. At most one exists
// per organization, and it is never hard-deleted; lifecycle moves through
// status transitions instead.
type Subscription struct {
	id                 shared.ID
	organizationID     shared.ID
	planTier           plan.Tier
	status             Status
	currentPeriodStart time.Time
	currentPeriodEnd   time.Time
	cancelAtPeriodEnd  bool
	createdAt          time.Time
	updatedAt          time.Time
}

// New creates the onboarding-time subscription: FREE tier, 30-day trial.
func New(organizationID shared.ID, now time.Time) (*Subscription, error) {
	if organizationID.IsZero() {
		return nil, fmt.Errorf("%w: organization id is required", shared.ErrValidation)
	}
	now = now.UTC()
	return &Subscription{
		id:                 shared.NewID(),
		organizationID:     organizationID,
		planTier:           plan.TierFree,
		status:             StatusTrialing,
		currentPeriodStart: now,
		currentPeriodEnd:   now.Add(TrialDuration),
		createdAt:          now,
		updatedAt:          now,
	}, nil
}

// Reconstitute recreates a Subscription from persistence.
func Reconstitute(
	id, organizationID shared.ID,
	tier plan.Tier,
	status Status,
	periodStart, periodEnd time.Time,
	cancelAtPeriodEnd bool,
	createdAt, updatedAt time.Time,
) *Subscription {
	return &Subscription{
		id:                 id,
		organizationID:     organizationID,
		planTier:           tier,
		status:             status,
		currentPeriodStart: periodStart,
		currentPeriodEnd:   periodEnd,
		cancelAtPeriodEnd:  cancelAtPeriodEnd,
		createdAt:          createdAt,
		updatedAt:          updatedAt,
	}
}

// ID returns the subscription ID.
func (s *Subscription) ID() shared.ID {
	return s.id
}

// OrganizationID returns the owning organization's ID.
func (s *Subscription) OrganizationID() shared.ID {
	return s.organizationID
}

// PlanTier returns the current plan tier.
func (s *Subscription) PlanTier() plan.Tier {
	return s.planTier
}

// Status returns the lifecycle status.
func (s *Subscription) Status() Status {
	return s.status
}

// CurrentPeriodStart returns the start of the billing period.
func (s *Subscription) CurrentPeriodStart() time.Time {
	return s.currentPeriodStart
}

// CurrentPeriodEnd returns the end of the billing period.
func (s *Subscription) CurrentPeriodEnd() time.Time {
	return s.currentPeriodEnd
}

// CancelAtPeriodEnd reports whether the subscription ends at the period end.
func (s *Subscription) CancelAtPeriodEnd() bool {
	return s.cancelAtPeriodEnd
}

// CreatedAt returns the creation timestamp.
func (s *Subscription) CreatedAt() time.Time {
	return s.createdAt
}

// UpdatedAt returns the last update timestamp.
func (s *Subscription) UpdatedAt() time.Time {
	return s.updatedAt
}

// IsExpired reports whether the billing period has ended as of now.
// Status flags can be stale between sweeps; the date is the source of truth.
func (s *Subscription) IsExpired(now time.Time) bool {
	return s.currentPeriodEnd.Before(now)
}

// DaysUntilExpiry returns the ceiling of the day difference to the period
// end. Negative once expired.
func (s *Subscription) DaysUntilExpiry(now time.Time) int {
	return ceilDays(s.currentPeriodEnd.Sub(now))
}

// ChangePlan moves the subscription to a new tier and activates it.
func (s *Subscription) ChangePlan(tier plan.Tier, now time.Time) error {
	if !tier.IsValid() {
		return fmt.Errorf("%w: invalid tier %q", shared.ErrValidation, tier)
	}
	s.planTier = tier
	s.status = StatusActive
	s.updatedAt = now.UTC()
	return nil
}

// Cancel schedules cancellation at the end of the current period.
// Access continues until then.
func (s *Subscription) Cancel(now time.Time) {
	s.cancelAtPeriodEnd = true
	s.updatedAt = now.UTC()
}

// Reactivate clears a pending cancellation.
func (s *Subscription) Reactivate(now time.Time) error {
	if !s.cancelAtPeriodEnd {
		return fmt.Errorf("%w: subscription is not scheduled for cancellation", shared.ErrConflict)
	}
	s.cancelAtPeriodEnd = false
	s.updatedAt = now.UTC()
	return nil
}

// MarkPastDue transitions an expired subscription to PAST_DUE once its grace
// period has elapsed. Only the expiry sweep calls this.
func (s *Subscription) MarkPastDue(now time.Time) {
	s.status = StatusPastDue
	s.updatedAt = now.UTC()
}

// RestoreAccess reactivates the subscription after successful payment,
// rolling the billing period one month forward from now.
func (s *Subscription) RestoreAccess(now time.Time) {
	now = now.UTC()
	s.status = StatusActive
	s.currentPeriodStart = now
	s.currentPeriodEnd = now.AddDate(0, 1, 0)
	s.cancelAtPeriodEnd = false
	s.updatedAt = now
}

// ceilDays converts a duration to whole days, rounding up.
func ceilDays(d time.Duration) int {
	const day = 24 * time.Hour
	days := d / day
	if d%day > 0 {
		days++
	}
	return int(days)
}

// Repository defines persistence operations for subscriptions.
type Repository interface {
	Create(ctx context.Context, s *Subscription) error
	GetByOrganization(ctx context.Context, orgID shared.ID) (*Subscription, error)
	Update(ctx context.Context, s *Subscription) error

	// ListExpiredActive returns ACTIVE subscriptions whose period ended
	// before now. Consumed by the expiry sweep.
	ListExpiredActive(ctx context.Context, now time.Time, limit int) ([]*Subscription, error)
}
