package entitlement

import "github.com/menucraft/api/pkg/domain/usage"

// LimitRequirement asks the guard to verify a usage increment fits the plan.
type LimitRequirement struct {
	Metric usage.Metric
	Amount int64
}

// Policy declares what an entry point requires before its handler may run.
// The zero value requires only an active (or trialing) subscription.
type Policy struct {
	// RequireFeature gates on a plan feature flag.
	RequireFeature string

	// RequireLimit gates on a usage increment fitting the plan limit.
	RequireLimit *LimitRequirement

	// AllowTrial permits TRIALING subscriptions. Enabled for nearly every
	// endpoint; disable only for surfaces reserved to paying customers.
	AllowTrial bool

	// Operation names the kind of access for the grace-period allow-list
	// ("read", "export", "billing", "write", ...). Empty means "write",
	// which the allow-list denies.
	Operation string

	// TrackAPICall records an apiCalls usage increment after the wrapped
	// handler succeeds. Detached from the response, never blocking.
	TrackAPICall bool
}

// OperationOrDefault returns the declared operation, defaulting to "write".
func (p Policy) OperationOrDefault() string {
	if p.Operation == "" {
		return "write"
	}
	return p.Operation
}
