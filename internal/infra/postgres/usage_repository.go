package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/menucraft/api/pkg/domain/shared"
	"github.com/menucraft/api/pkg/domain/usage"
)

// UsageRepository implements the usage ledger using PostgreSQL. Increments
// ride on INSERT ... ON CONFLICT DO UPDATE so concurrent writers serialize
// inside the database row lock instead of racing a read-modify-write.
type UsageRepository struct {
	db *DB
}

// NewUsageRepository creates a new UsageRepository.
func NewUsageRepository(db *DB) *UsageRepository {
	return &UsageRepository{db: db}
}

// Increment atomically adds delta to the month's ledger row, creating it
// lazily.
func (r *UsageRepository) Increment(ctx context.Context, orgID shared.ID, metric usage.Metric, periodStart time.Time, delta int64) error {
	start := usage.MonthStart(periodStart)
	query := `
		INSERT INTO usage_records (organization_id, metric, period_start, period_end, count, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		ON CONFLICT (organization_id, metric, period_start)
		DO UPDATE SET count = usage_records.count + EXCLUDED.count, updated_at = NOW()
	`
	_, err := r.db.ExecContext(ctx, query,
		orgID.String(),
		metric.String(),
		start,
		usage.MonthEnd(start),
		delta,
	)
	if err != nil {
		return fmt.Errorf("failed to increment usage: %w", err)
	}
	return nil
}

// Get returns the ledger row for the month containing periodStart.
func (r *UsageRepository) Get(ctx context.Context, orgID shared.ID, metric usage.Metric, periodStart time.Time) (*usage.Record, error) {
	query := `
		SELECT organization_id, metric, period_start, period_end, count, updated_at
		FROM usage_records
		WHERE organization_id = $1 AND metric = $2 AND period_start = $3
	`
	var (
		record    usage.Record
		metricStr string
	)
	err := r.db.QueryRowContext(ctx, query,
		orgID.String(), metric.String(), usage.MonthStart(periodStart),
	).Scan(&record.OrganizationID, &metricStr, &record.PeriodStart,
		&record.PeriodEnd, &record.Count, &record.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: usage for %s/%s", shared.ErrNotFound, orgID, metric)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get usage: %w", err)
	}

	record.Metric, err = usage.ParseMetric(metricStr)
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// DeleteOlderThan removes ledger rows whose period ended before cutoff.
func (r *UsageRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM usage_records WHERE period_end < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete usage records: %w", err)
	}
	removed, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count deleted usage records: %w", err)
	}
	return removed, nil
}
