package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/menucraft/api/pkg/domain/plan"
	"github.com/menucraft/api/pkg/domain/shared"
)

// PlanRepository implements plan.Repository using PostgreSQL.
type PlanRepository struct {
	db *DB
}

// NewPlanRepository creates a new PlanRepository.
func NewPlanRepository(db *DB) *PlanRepository {
	return &PlanRepository{db: db}
}

// GetByTier retrieves a plan by tier.
func (r *PlanRepository) GetByTier(ctx context.Context, tier plan.Tier) (*plan.Plan, error) {
	query := `
		SELECT id, tier, name, price_monthly_cents, limit_restaurants, limit_products, limit_api_calls, features, active
		FROM plans
		WHERE tier = $1
	`
	return r.scanPlan(r.db.QueryRowContext(ctx, query, tier.String()))
}

// List returns the catalog in tier order.
func (r *PlanRepository) List(ctx context.Context, activeOnly bool) ([]*plan.Plan, error) {
	query := `
		SELECT id, tier, name, price_monthly_cents, limit_restaurants, limit_products, limit_api_calls, features, active
		FROM plans
	`
	if activeOnly {
		query += ` WHERE active`
	}
	query += ` ORDER BY price_monthly_cents`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list plans: %w", err)
	}
	defer rows.Close()

	var plans []*plan.Plan
	for rows.Next() {
		p, err := r.scanPlanRows(rows)
		if err != nil {
			return nil, err
		}
		plans = append(plans, p)
	}
	return plans, rows.Err()
}

// Upsert inserts or replaces the plan for a tier. Used by seeding and the
// admin CLI.
func (r *PlanRepository) Upsert(ctx context.Context, p *plan.Plan) error {
	features, err := toJSONB(p.Features())
	if err != nil {
		return fmt.Errorf("failed to marshal features: %w", err)
	}

	query := `
		INSERT INTO plans (id, tier, name, price_monthly_cents, limit_restaurants, limit_products, limit_api_calls, features, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (tier) DO UPDATE SET
			name = EXCLUDED.name,
			price_monthly_cents = EXCLUDED.price_monthly_cents,
			limit_restaurants = EXCLUDED.limit_restaurants,
			limit_products = EXCLUDED.limit_products,
			limit_api_calls = EXCLUDED.limit_api_calls,
			features = EXCLUDED.features,
			active = EXCLUDED.active
	`
	limits := p.Limits()
	_, err = r.db.ExecContext(ctx, query,
		p.ID().String(),
		p.Tier().String(),
		p.Name(),
		p.PriceMonthly(),
		limits.Restaurants,
		limits.Products,
		limits.APICalls,
		features,
		p.Active(),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert plan: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *PlanRepository) scanPlan(row *sql.Row) (*plan.Plan, error) {
	p, err := scanPlanFrom(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: plan", shared.ErrNotFound)
	}
	return p, err
}

func (r *PlanRepository) scanPlanRows(rows *sql.Rows) (*plan.Plan, error) {
	return scanPlanFrom(rows)
}

func scanPlanFrom(s rowScanner) (*plan.Plan, error) {
	var (
		id           shared.ID
		tierStr      string
		name         string
		priceMonthly int64
		limits       plan.Limits
		featuresRaw  []byte
		active       bool
	)
	err := s.Scan(&id, &tierStr, &name, &priceMonthly,
		&limits.Restaurants, &limits.Products, &limits.APICalls,
		&featuresRaw, &active)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan plan: %w", err)
	}

	features := make(map[string]bool)
	if err := fromJSONB(featuresRaw, &features); err != nil {
		return nil, fmt.Errorf("failed to unmarshal features: %w", err)
	}

	tier, err := plan.ParseTier(tierStr)
	if err != nil {
		return nil, err
	}
	return plan.Reconstitute(id, tier, name, priceMonthly, limits, features, active), nil
}
