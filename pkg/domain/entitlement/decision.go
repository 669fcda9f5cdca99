// Package entitlement defines the boundary-agnostic contract of the
// enforcement layer: declarative policies, typed denials, and the pure
// message formatting both transports share. The HTTP middleware and the RPC
// procedure wrapper only translate these types onto the wire; they never
// restate the decision rules.
package entitlement

import (
	"fmt"

	"github.com/menucraft/api/pkg/domain/subscription"
	"github.com/menucraft/api/pkg/domain/usage"
)

// UpgradeURL is the billing surface every denial points to.
const UpgradeURL = "/billing"

// DenialReason enumerates why a request was denied. Denials are expected
// control flow, distinguishable from infrastructure failures by this tag,
// never by message matching.
type DenialReason string

// Denial reasons.
const (
	ReasonUnauthenticated DenialReason = "UNAUTHENTICATED"
	ReasonNoOrganization  DenialReason = "NO_ORGANIZATION"
	ReasonInactive        DenialReason = "SUBSCRIPTION_INACTIVE"
	ReasonExpired         DenialReason = "SUBSCRIPTION_EXPIRED"
	ReasonFeatureDenied   DenialReason = "FEATURE_NOT_AVAILABLE"
	ReasonLimitExceeded   DenialReason = "LIMIT_EXCEEDED"
)

// Denial is a structured entitlement denial. Only the fields relevant to the
// Reason variant are set.
type Denial struct {
	Reason DenialReason

	// Feature gating
	Feature  string
	PlanName string

	// Limit gating
	Metric       usage.Metric
	CurrentUsage int64
	Limit        int64
	Requested    int64

	// Set on expiry denials so the UI can render "in grace period" instead
	// of "fully blocked".
	Grace *subscription.GraceWindow
}

// Message renders the user-facing denial text. Pure function of the variant;
// the limit-exceeded wording is a contract surfaced to end users and must
// not change.
func (d *Denial) Message() string {
	switch d.Reason {
	case ReasonUnauthenticated:
		return "Authentication required"
	case ReasonNoOrganization:
		return "No organization is associated with this account"
	case ReasonInactive:
		return "Subscription is not active. Please update your billing to continue."
	case ReasonExpired:
		if d.Grace != nil && d.Grace.InGracePeriod {
			return "Subscription expired. Limited access is available during the grace period; update your billing to restore full access."
		}
		return "Subscription expired and grace period has ended. Please update your billing to restore access."
	case ReasonFeatureDenied:
		if d.PlanName != "" {
			return fmt.Sprintf("Feature %q is not available on the %s plan. Please upgrade to access it.", d.Feature, d.PlanName)
		}
		return fmt.Sprintf("Feature %q is not available on your current plan. Please upgrade to access it.", d.Feature)
	case ReasonLimitExceeded:
		return LimitExceededMessage(d.Metric, d.CurrentUsage, d.Limit, d.Requested)
	default:
		return "Access denied"
	}
}

// LimitExceededMessage formats the verbatim limit denial contract:
// "{metricType} limit exceeded. Current: {currentUsage}, Limit: {limit}, Requested: {requestedAmount}"
func LimitExceededMessage(metric usage.Metric, current, limit, requested int64) string {
	return fmt.Sprintf("%s limit exceeded. Current: %d, Limit: %d, Requested: %d", metric, current, limit, requested)
}

// LimitCheck is the outcome of a limit evaluation.
type LimitCheck struct {
	Allowed      bool   `json:"allowed"`
	CurrentUsage int64  `json:"current_usage"`
	Limit        int64  `json:"limit"`
	Requested    int64  `json:"requested"`
	Message      string `json:"message,omitempty"`
}
