package plan

import "context"

// Repository defines persistence operations for the plan catalog.
type Repository interface {
	GetByTier(ctx context.Context, tier Tier) (*Plan, error)
	List(ctx context.Context, activeOnly bool) ([]*Plan, error)
	Upsert(ctx context.Context, p *Plan) error
}

// DefaultFree returns the built-in FREE plan used when the catalog has not
// been seeded yet, and as the plan of virtual trial subscriptions.
// Numbers mirror the seeded catalog; keep plans.yaml in sync.
func DefaultFree() *Plan {
	p, _ := New(TierFree, "Free", 0, Limits{
		Restaurants: 1,
		Products:    50,
		APICalls:    1000,
	}, map[string]bool{
		"menuEditor": true,
	})
	return p
}
