// Package usage defines the per-organization, per-metric, per-month usage
// ledger. Restaurant and product usage is derived from live row counts, so
// the ledger only carries metrics too expensive to count on demand.
package usage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/menucraft/api/pkg/domain/shared"
)

// Metric identifies a limited resource.
type Metric string

// Known metrics.
const (
	MetricRestaurants Metric = "restaurants"
	MetricProducts    Metric = "products"
	MetricAPICalls    Metric = "apiCalls"
)

// AllMetrics lists every known metric.
var AllMetrics = []Metric{MetricRestaurants, MetricProducts, MetricAPICalls}

// ParseMetric parses a metric name.
func ParseMetric(s string) (Metric, error) {
	switch strings.TrimSpace(s) {
	case string(MetricRestaurants):
		return MetricRestaurants, nil
	case string(MetricProducts):
		return MetricProducts, nil
	case string(MetricAPICalls):
		return MetricAPICalls, nil
	default:
		return "", fmt.Errorf("%w: unknown metric %q", shared.ErrValidation, s)
	}
}

// IsLedgerBacked reports whether the metric is tracked in the ledger rather
// than derived from live counts.
func (m Metric) IsLedgerBacked() bool {
	return m == MetricAPICalls
}

// String returns the metric name.
func (m Metric) String() string {
	return string(m)
}

// Record is one calendar month of usage for one organization and metric.
// Exactly one record exists per (org, metric, month); increments are additive
// via atomic upsert.
type Record struct {
	OrganizationID shared.ID
	Metric         Metric
	PeriodStart    time.Time // first day of the month, UTC midnight
	PeriodEnd      time.Time // last day of the month
	Count          int64
	UpdatedAt      time.Time
}

// Repository defines persistence operations for the usage ledger.
type Repository interface {
	// Increment atomically adds delta to the record for the month containing
	// periodStart, creating it lazily. Must be an upsert-with-increment, not
	// read-modify-write, so concurrent increments never lose updates.
	Increment(ctx context.Context, orgID shared.ID, metric Metric, periodStart time.Time, delta int64) error

	// Get returns the record for the month containing periodStart, or
	// shared.ErrNotFound when no usage has been recorded yet.
	Get(ctx context.Context, orgID shared.ID, metric Metric, periodStart time.Time) (*Record, error)

	// DeleteOlderThan removes ledger rows whose period ended before cutoff.
	// Retention cleanup only; returns the number of rows removed.
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}
