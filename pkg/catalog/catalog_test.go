package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/menucraft/api/pkg/domain/plan"
)

const sampleCatalog = `
plans:
  - tier: free
    name: Free
    price_monthly: 0
    limits:
      restaurants: 1
      products: 50
      api_calls: 1000
    features:
      menuEditor: true
  - tier: STARTER
    name: Starter
    price_monthly: 2900
    limits:
      restaurants: 3
      products: 500
      api_calls: 50000
    features:
      menuEditor: true
      menuExport: true
  - tier: enterprise
    name: Enterprise
    price_monthly: 29900
    limits:
      restaurants: -1
      products: -1
      api_calls: -1
    features:
      menuEditor: true
    active: false
`

func TestParseCatalog(t *testing.T) {
	plans, err := Parse([]byte(sampleCatalog))
	require.NoError(t, err)
	require.Len(t, plans, 3)

	free := plans[0]
	assert.Equal(t, plan.TierFree, free.Tier())
	assert.Equal(t, "Free", free.Name())
	assert.True(t, free.Active())
	assert.True(t, free.HasFeature("menuEditor"))

	limit, ok := free.LimitFor("products")
	require.True(t, ok)
	assert.Equal(t, int64(50), limit)

	starter := plans[1]
	assert.Equal(t, plan.TierStarter, starter.Tier())
	assert.Equal(t, int64(2900), starter.PriceMonthly())
	assert.True(t, starter.HasFeature("menuExport"))

	enterprise := plans[2]
	assert.False(t, enterprise.Active())

	limit, ok = enterprise.LimitFor("restaurants")
	require.True(t, ok)
	assert.Equal(t, plan.Unlimited, limit)
}

func TestParseRejectsDuplicateTier(t *testing.T) {
	raw := []byte(`
plans:
  - tier: free
    name: Free
    limits: {restaurants: 1, products: 1, api_calls: 1}
  - tier: FREE
    name: Also Free
    limits: {restaurants: 1, products: 1, api_calls: 1}
`)

	_, err := Parse(raw)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate tier")
}

func TestParseRejectsUnknownTier(t *testing.T) {
	raw := []byte(`
plans:
  - tier: platinum
    name: Platinum
    limits: {restaurants: 1, products: 1, api_calls: 1}
`)

	_, err := Parse(raw)
	require.Error(t, err)
}

func TestParseRejectsEmptyCatalog(t *testing.T) {
	_, err := Parse([]byte("plans: []"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no plans")
}

func TestParseRejectsMalformedYAML(t *testing.T) {
	_, err := Parse([]byte("plans: [not: valid"))
	require.Error(t, err)
}
