package plan

import "github.com/menucraft/api/pkg/domain/shared"

// Snapshot is the serializable form of a Plan, used for caching and API
// responses.
type Snapshot struct {
	ID           shared.ID       `json:"id"`
	Tier         Tier            `json:"tier"`
	Name         string          `json:"name"`
	PriceMonthly int64           `json:"price_monthly"`
	Limits       Limits          `json:"limits"`
	Features     map[string]bool `json:"features"`
	Active       bool            `json:"active"`
}

// Snapshot returns the serializable form of the plan.
func (p *Plan) Snapshot() Snapshot {
	return Snapshot{
		ID:           p.id,
		Tier:         p.tier,
		Name:         p.name,
		PriceMonthly: p.priceMonthly,
		Limits:       p.limits,
		Features:     p.Features(),
		Active:       p.active,
	}
}

// FromSnapshot rebuilds a Plan from its serializable form.
func FromSnapshot(s Snapshot) *Plan {
	return Reconstitute(s.ID, s.Tier, s.Name, s.PriceMonthly, s.Limits, s.Features, s.Active)
}
