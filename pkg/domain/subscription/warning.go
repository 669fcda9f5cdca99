package subscription

import (
	"fmt"
	"time"
)

// Warning severities, in increasing order of urgency.
const (
	SeverityWarning  = "warning"
	SeverityUrgent   = "urgent"
	SeverityCritical = "critical"
)

// BillingURL is where every warning points the user.
const BillingURL = "/billing"

// Warning is a staged expiry notice surfaced to the organization.
type Warning struct {
	Severity  string `json:"severity"`
	Title     string `json:"title"`
	Message   string `json:"message"`
	ActionURL string `json:"action_url"`
}

// warningThresholds are the descending days-until-expiry cutoffs.
// <=7 days: warning, <=3: urgent, <=1: critical.
var warningThresholds = []struct {
	days     int
	severity string
}{
	{7, SeverityWarning},
	{3, SeverityUrgent},
	{1, SeverityCritical},
}

// Warnings computes the staged notices for a subscription as of now.
//
// Before expiry at most one threshold warning is returned: the tightest
// threshold the remaining days have reached, never one per threshold
// crossed. Once expired, a single critical notice describes whether the
// grace period is still running or access is suspended.
func (s *Subscription) Warnings(now time.Time) []Warning {
	days := s.DaysUntilExpiry(now)

	if days > 0 {
		severity := ""
		for _, th := range warningThresholds {
			if days <= th.days {
				severity = th.severity
			}
		}
		if severity == "" {
			return nil
		}
		return []Warning{{
			Severity:  severity,
			Title:     "Subscription Expiring Soon",
			Message:   fmt.Sprintf("Your subscription expires in %d day(s). Update your billing to keep full access.", days),
			ActionURL: BillingURL,
		}}
	}

	grace := s.Grace(now)
	if grace.InGracePeriod {
		return []Warning{{
			Severity:  SeverityCritical,
			Title:     "Grace Period Active",
			Message:   fmt.Sprintf("Your subscription has expired. You have %d day(s) of limited access remaining.", grace.DaysRemaining),
			ActionURL: BillingURL,
		}}
	}
	return []Warning{{
		Severity:  SeverityCritical,
		Title:     "Subscription Suspended",
		Message:   "Your subscription has expired and the grace period has ended. Update your billing to restore access.",
		ActionURL: BillingURL,
	}}
}
