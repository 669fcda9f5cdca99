// Package plan defines the subscription plan catalog: tiers, limits and
// feature flags. Plans are immutable reference data seeded by migration and
// read-only at runtime.
package plan

import (
	"fmt"
	"strings"

	"github.com/menucraft/api/pkg/domain/shared"
)

// Tier is an ordered subscription level.
type Tier string

// Known tiers, lowest to highest.
const (
	TierFree         Tier = "FREE"
	TierStarter      Tier = "STARTER"
	TierProfessional Tier = "PROFESSIONAL"
	TierEnterprise   Tier = "ENTERPRISE"
)

// AllTiers lists tiers in ascending order.
var AllTiers = []Tier{TierFree, TierStarter, TierProfessional, TierEnterprise}

// ParseTier parses a tier string (case-insensitive).
func ParseTier(s string) (Tier, error) {
	t := Tier(strings.ToUpper(strings.TrimSpace(s)))
	if !t.IsValid() {
		return "", fmt.Errorf("%w: unknown tier %q", shared.ErrValidation, s)
	}
	return t, nil
}

// IsValid checks if the tier is one of the known tiers.
func (t Tier) IsValid() bool {
	switch t {
	case TierFree, TierStarter, TierProfessional, TierEnterprise:
		return true
	default:
		return false
	}
}

// Priority returns the tier's position in the upgrade order.
// Higher means more expensive. Unknown tiers sort below FREE.
func (t Tier) Priority() int {
	switch t {
	case TierFree:
		return 0
	case TierStarter:
		return 1
	case TierProfessional:
		return 2
	case TierEnterprise:
		return 3
	default:
		return -1
	}
}

// String returns the tier name.
func (t Tier) String() string {
	return string(t)
}

// Unlimited marks a limit as having no cap.
const Unlimited int64 = -1

// Limits holds the per-metric caps of a plan. A value of Unlimited (-1)
// means no cap for that metric.
type Limits struct {
	Restaurants int64 `json:"restaurants" yaml:"restaurants"`
	Products    int64 `json:"products" yaml:"products"`
	APICalls    int64 `json:"api_calls" yaml:"api_calls"`
}

// Plan represents a subscription plan.
type Plan struct {
	id           shared.ID
	tier         Tier
	name         string
	priceMonthly int64 // cents
	limits       Limits
	features     map[string]bool
	active       bool
}

// New creates a new Plan entity.
func New(tier Tier, name string, priceMonthly int64, limits Limits, features map[string]bool) (*Plan, error) {
	if !tier.IsValid() {
		return nil, fmt.Errorf("%w: invalid tier %q", shared.ErrValidation, tier)
	}
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", shared.ErrValidation)
	}
	if priceMonthly < 0 {
		return nil, fmt.Errorf("%w: price must not be negative", shared.ErrValidation)
	}
	if features == nil {
		features = make(map[string]bool)
	}
	return &Plan{
		id:           shared.NewID(),
		tier:         tier,
		name:         name,
		priceMonthly: priceMonthly,
		limits:       limits,
		features:     features,
		active:       true,
	}, nil
}

// Reconstitute recreates a Plan from persistence.
func Reconstitute(id shared.ID, tier Tier, name string, priceMonthly int64, limits Limits, features map[string]bool, active bool) *Plan {
	if features == nil {
		features = make(map[string]bool)
	}
	return &Plan{
		id:           id,
		tier:         tier,
		name:         name,
		priceMonthly: priceMonthly,
		limits:       limits,
		features:     features,
		active:       active,
	}
}

// ID returns the plan ID.
func (p *Plan) ID() shared.ID {
	return p.id
}

// Tier returns the plan tier.
func (p *Plan) Tier() Tier {
	return p.tier
}

// Name returns the display name.
func (p *Plan) Name() string {
	return p.name
}

// PriceMonthly returns the monthly price in cents.
func (p *Plan) PriceMonthly() int64 {
	return p.priceMonthly
}

// Limits returns the per-metric caps.
func (p *Plan) Limits() Limits {
	return p.limits
}

// Features returns a copy of the feature flag map.
func (p *Plan) Features() map[string]bool {
	out := make(map[string]bool, len(p.features))
	for k, v := range p.features {
		out[k] = v
	}
	return out
}

// HasFeature reports whether the plan enables a feature.
// An absent key means the feature is off; there is no implicit default.
func (p *Plan) HasFeature(name string) bool {
	return p.features[name]
}

// Active reports whether the plan can be subscribed to.
func (p *Plan) Active() bool {
	return p.active
}

// Retire withdraws the plan from sale. Existing subscribers keep resolving
// it; new subscriptions cannot pick it.
func (p *Plan) Retire() {
	p.active = false
}

// Reinstate puts a retired plan back on sale.
func (p *Plan) Reinstate() {
	p.active = true
}

// LimitFor returns the cap for a metric name. The second return value is
// false for unknown metrics.
func (p *Plan) LimitFor(metric string) (int64, bool) {
	switch metric {
	case "restaurants":
		return p.limits.Restaurants, true
	case "products":
		return p.limits.Products, true
	case "apiCalls":
		return p.limits.APICalls, true
	default:
		return 0, false
	}
}
