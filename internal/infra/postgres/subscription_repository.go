package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/menucraft/api/pkg/domain/plan"
	"github.com/menucraft/api/pkg/domain/shared"
	"github.com/menucraft/api/pkg/domain/subscription"
)

// SubscriptionRepository implements subscription.Repository using PostgreSQL.
// The organization_id column carries a unique constraint; at most one
// subscription exists per organization.
type SubscriptionRepository struct {
	db *DB
}

// NewSubscriptionRepository creates a new SubscriptionRepository.
func NewSubscriptionRepository(db *DB) *SubscriptionRepository {
	return &SubscriptionRepository{db: db}
}

const subscriptionColumns = `id, organization_id, plan_tier, status, current_period_start, current_period_end, cancel_at_period_end, created_at, updated_at`

// Create persists a new subscription.
func (r *SubscriptionRepository) Create(ctx context.Context, s *subscription.Subscription) error {
	query := `
		INSERT INTO subscriptions (` + subscriptionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := r.db.ExecContext(ctx, query,
		s.ID().String(),
		s.OrganizationID().String(),
		s.PlanTier().String(),
		s.Status().String(),
		s.CurrentPeriodStart(),
		s.CurrentPeriodEnd(),
		s.CancelAtPeriodEnd(),
		s.CreatedAt(),
		s.UpdatedAt(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: organization already has a subscription", shared.ErrConflict)
		}
		return fmt.Errorf("failed to create subscription: %w", err)
	}
	return nil
}

// GetByOrganization retrieves the organization's subscription.
func (r *SubscriptionRepository) GetByOrganization(ctx context.Context, orgID shared.ID) (*subscription.Subscription, error) {
	query := `
		SELECT ` + subscriptionColumns + `
		FROM subscriptions
		WHERE organization_id = $1
	`
	sub, err := scanSubscription(r.db.QueryRowContext(ctx, query, orgID.String()))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: subscription for organization %s", shared.ErrNotFound, orgID)
	}
	return sub, err
}

// Update persists subscription changes.
func (r *SubscriptionRepository) Update(ctx context.Context, s *subscription.Subscription) error {
	query := `
		UPDATE subscriptions
		SET plan_tier = $2, status = $3, current_period_start = $4, current_period_end = $5,
		    cancel_at_period_end = $6, updated_at = $7
		WHERE id = $1
	`
	result, err := r.db.ExecContext(ctx, query,
		s.ID().String(),
		s.PlanTier().String(),
		s.Status().String(),
		s.CurrentPeriodStart(),
		s.CurrentPeriodEnd(),
		s.CancelAtPeriodEnd(),
		s.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to update subscription: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// ListExpiredActive returns ACTIVE or TRIALING subscriptions whose period
// ended before now, oldest first so the sweep drains the backlog in order.
func (r *SubscriptionRepository) ListExpiredActive(ctx context.Context, now time.Time, limit int) ([]*subscription.Subscription, error) {
	query := `
		SELECT ` + subscriptionColumns + `
		FROM subscriptions
		WHERE status IN ('ACTIVE', 'TRIALING') AND current_period_end < $1
		ORDER BY current_period_end
		LIMIT $2
	`
	rows, err := r.db.QueryContext(ctx, query, now, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list expired subscriptions: %w", err)
	}
	defer rows.Close()

	var subs []*subscription.Subscription
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}

func scanSubscription(s rowScanner) (*subscription.Subscription, error) {
	var (
		id, orgID          shared.ID
		tierStr, statusStr string
		periodStart        time.Time
		periodEnd          time.Time
		cancelAtPeriodEnd  bool
		createdAt          time.Time
		updatedAt          time.Time
	)
	err := s.Scan(&id, &orgID, &tierStr, &statusStr,
		&periodStart, &periodEnd, &cancelAtPeriodEnd, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan subscription: %w", err)
	}

	tier, err := plan.ParseTier(tierStr)
	if err != nil {
		return nil, err
	}
	status, err := subscription.ParseStatus(statusStr)
	if err != nil {
		return nil, err
	}
	return subscription.Reconstitute(id, orgID, tier, status,
		periodStart, periodEnd, cancelAtPeriodEnd, createdAt, updatedAt), nil
}
