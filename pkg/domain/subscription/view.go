package subscription

import (
	"time"

	"github.com/menucraft/api/pkg/domain/plan"
	"github.com/menucraft/api/pkg/domain/shared"
)

// Source tags how a subscription view was obtained. Organizations without a
// stored row get a virtual FREE trial so callers never branch on nil, but
// the tag keeps them from mistaking it for a persisted record.
type Source string

// View sources.
const (
	SourcePersisted Source = "persisted"
	SourceVirtual   Source = "virtual"
)

// View joins a subscription with its resolved plan.
type View struct {
	Source       Source
	Subscription *Subscription
	Plan         *plan.Plan
}

// IsVirtual reports whether the view was synthesized rather than loaded.
func (v View) IsVirtual() bool {
	return v.Source == SourceVirtual
}

// NewPersistedView builds a view over a stored subscription.
func NewPersistedView(s *Subscription, p *plan.Plan) View {
	return View{Source: SourcePersisted, Subscription: s, Plan: p}
}

// NewVirtualView synthesizes the implicit FREE/TRIALING subscription for an
// organization without a stored row. The trial window is anchored at the
// organization's creation time so the view is stable across calls. The
// subscription carries a zero ID and must never be persisted as-is.
func NewVirtualView(orgID shared.ID, orgCreatedAt time.Time, freePlan *plan.Plan) View {
	orgCreatedAt = orgCreatedAt.UTC()
	s := Reconstitute(
		shared.ID{},
		orgID,
		plan.TierFree,
		StatusTrialing,
		orgCreatedAt,
		orgCreatedAt.Add(TrialDuration),
		false,
		orgCreatedAt,
		orgCreatedAt,
	)
	return View{Source: SourceVirtual, Subscription: s, Plan: freePlan}
}
