package plan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTier(t *testing.T) {
	t.Run("parse is case-insensitive", func(t *testing.T) {
		tier, err := ParseTier(" starter ")
		require.NoError(t, err)
		assert.Equal(t, TierStarter, tier)
	})

	t.Run("unknown tier fails", func(t *testing.T) {
		_, err := ParseTier("platinum")
		assert.Error(t, err)
	})

	t.Run("priority orders tiers", func(t *testing.T) {
		assert.Less(t, TierFree.Priority(), TierStarter.Priority())
		assert.Less(t, TierStarter.Priority(), TierProfessional.Priority())
		assert.Less(t, TierProfessional.Priority(), TierEnterprise.Priority())
		assert.Equal(t, -1, Tier("GOLD").Priority())
	})
}

func TestPlan_HasFeature(t *testing.T) {
	p, err := New(TierStarter, "Starter", 2900, Limits{Restaurants: 3}, map[string]bool{
		"menuEditor": true,
		"apiAccess":  false,
	})
	require.NoError(t, err)

	assert.True(t, p.HasFeature("menuEditor"))
	assert.False(t, p.HasFeature("apiAccess"), "explicit false stays false")
	assert.False(t, p.HasFeature("whiteLabel"), "absent key is false, never a default")
}

func TestPlan_LimitFor(t *testing.T) {
	p, err := New(TierProfessional, "Professional", 9900, Limits{
		Restaurants: 10,
		Products:    1000,
		APICalls:    Unlimited,
	}, nil)
	require.NoError(t, err)

	cases := []struct {
		metric string
		want   int64
		ok     bool
	}{
		{"restaurants", 10, true},
		{"products", 1000, true},
		{"apiCalls", Unlimited, true},
		{"widgets", 0, false},
	}
	for _, tc := range cases {
		limit, ok := p.LimitFor(tc.metric)
		assert.Equal(t, tc.ok, ok, tc.metric)
		assert.Equal(t, tc.want, limit, tc.metric)
	}
}

func TestPlan_Snapshot(t *testing.T) {
	p, err := New(TierEnterprise, "Enterprise", 29900, Limits{
		Restaurants: Unlimited,
		Products:    Unlimited,
		APICalls:    Unlimited,
	}, map[string]bool{"apiAccess": true})
	require.NoError(t, err)

	rebuilt := FromSnapshot(p.Snapshot())

	assert.True(t, rebuilt.ID().Equals(p.ID()))
	assert.Equal(t, p.Tier(), rebuilt.Tier())
	assert.Equal(t, p.Limits(), rebuilt.Limits())
	assert.True(t, rebuilt.HasFeature("apiAccess"))
}

func TestDefaultFree(t *testing.T) {
	p := DefaultFree()

	assert.Equal(t, TierFree, p.Tier())
	limit, ok := p.LimitFor("restaurants")
	require.True(t, ok)
	assert.Equal(t, int64(1), limit)
	limit, _ = p.LimitFor("products")
	assert.Equal(t, int64(50), limit)
	limit, _ = p.LimitFor("apiCalls")
	assert.Equal(t, int64(1000), limit)
	assert.True(t, p.HasFeature("menuEditor"))
}

func TestPlan_New_Validation(t *testing.T) {
	t.Run("rejects empty name", func(t *testing.T) {
		_, err := New(TierFree, "", 0, Limits{}, nil)
		assert.Error(t, err)
	})

	t.Run("rejects negative price", func(t *testing.T) {
		_, err := New(TierFree, "Free", -1, Limits{}, nil)
		assert.Error(t, err)
	})
}
