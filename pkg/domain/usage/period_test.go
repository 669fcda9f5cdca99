package usage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMonthStart(t *testing.T) {
	t.Run("truncates to first of month UTC", func(t *testing.T) {
		in := time.Date(2025, 6, 15, 23, 45, 12, 0, time.UTC)
		assert.Equal(t, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), MonthStart(in))
	})

	t.Run("converts zones before truncating", func(t *testing.T) {
		// 2025-07-01 05:30 in UTC+6 is still June 30 in UTC.
		zone := time.FixedZone("UTC+6", 6*3600)
		in := time.Date(2025, 7, 1, 5, 30, 0, 0, zone)
		assert.Equal(t, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), MonthStart(in))
	})
}

func TestMonthEnd(t *testing.T) {
	cases := []struct {
		in   time.Time
		want time.Time
	}{
		{time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC), time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)},
		{time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC), time.Date(2025, 2, 28, 0, 0, 0, 0, time.UTC)},
		{time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC), time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC)},
		{time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC), time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC)},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, MonthEnd(tc.in))
	}
}

func TestParseMetric(t *testing.T) {
	for _, name := range []string{"restaurants", "products", "apiCalls"} {
		m, err := ParseMetric(name)
		require.NoError(t, err)
		assert.Equal(t, name, m.String())
	}

	_, err := ParseMetric("widgets")
	assert.Error(t, err)
}

func TestMetric_IsLedgerBacked(t *testing.T) {
	assert.True(t, MetricAPICalls.IsLedgerBacked())
	assert.False(t, MetricRestaurants.IsLedgerBacked())
	assert.False(t, MetricProducts.IsLedgerBacked())
}
