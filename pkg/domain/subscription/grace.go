package subscription

import (
	"strings"
	"time"
)

// GraceDuration is the fixed post-expiry window during which a restricted
// set of operations stays available.
const GraceDuration = 7 * 24 * time.Hour

// graceOperations is the allow-list of operations permitted during the grace
// period. Matched case-insensitively.
var graceOperations = map[string]bool{
	"read":    true,
	"export":  true,
	"billing": true,
}

// OperationAllowedInGrace reports whether an operation is on the grace-period
// allow-list.
func OperationAllowedInGrace(operation string) bool {
	return graceOperations[strings.ToLower(strings.TrimSpace(operation))]
}

// GraceWindow describes where "now" sits relative to the grace period.
// It is derived from the period end, never stored.
type GraceWindow struct {
	InGracePeriod  bool       `json:"in_grace_period"`
	DaysRemaining  int        `json:"days_remaining,omitempty"`
	ExpiredDate    *time.Time `json:"expired_date,omitempty"`
	GracePeriodEnd *time.Time `json:"grace_period_end,omitempty"`
}

// Grace computes the grace window for a subscription as of now.
//
// now <= periodEnd            : not expired, zero window
// periodEnd < now <= grace end: in grace period
// now > grace end             : grace elapsed (caller treats as suspended)
func (s *Subscription) Grace(now time.Time) GraceWindow {
	periodEnd := s.currentPeriodEnd
	if !periodEnd.Before(now) {
		return GraceWindow{}
	}

	graceEnd := periodEnd.Add(GraceDuration)
	expired := periodEnd
	w := GraceWindow{
		ExpiredDate:    &expired,
		GracePeriodEnd: &graceEnd,
	}
	if now.After(graceEnd) {
		return w
	}

	w.InGracePeriod = true
	w.DaysRemaining = ceilDays(graceEnd.Sub(now))
	return w
}
