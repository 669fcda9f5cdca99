package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/menucraft/api/pkg/domain/restaurant"
	"github.com/menucraft/api/pkg/domain/shared"
)

// RestaurantRepository implements restaurant.Repository using PostgreSQL.
type RestaurantRepository struct {
	db *DB
}

// NewRestaurantRepository creates a new RestaurantRepository.
func NewRestaurantRepository(db *DB) *RestaurantRepository {
	return &RestaurantRepository{db: db}
}

const restaurantColumns = `id, organization_id, name, address, active, created_at, updated_at`

// Create persists a new restaurant.
func (r *RestaurantRepository) Create(ctx context.Context, rest *restaurant.Restaurant) error {
	query := `
		INSERT INTO restaurants (` + restaurantColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.db.ExecContext(ctx, query,
		rest.ID().String(),
		rest.OrganizationID().String(),
		rest.Name(),
		rest.Address(),
		rest.Active(),
		rest.CreatedAt(),
		rest.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to create restaurant: %w", err)
	}
	return nil
}

// GetByID retrieves a restaurant by ID.
func (r *RestaurantRepository) GetByID(ctx context.Context, id shared.ID) (*restaurant.Restaurant, error) {
	query := `SELECT ` + restaurantColumns + ` FROM restaurants WHERE id = $1`
	rest, err := scanRestaurant(r.db.QueryRowContext(ctx, query, id.String()))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: restaurant %s", shared.ErrNotFound, id)
	}
	return rest, err
}

// Update persists restaurant changes.
func (r *RestaurantRepository) Update(ctx context.Context, rest *restaurant.Restaurant) error {
	query := `
		UPDATE restaurants
		SET name = $2, address = $3, active = $4, updated_at = $5
		WHERE id = $1
	`
	result, err := r.db.ExecContext(ctx, query,
		rest.ID().String(), rest.Name(), rest.Address(), rest.Active(), rest.UpdatedAt())
	if err != nil {
		return fmt.Errorf("failed to update restaurant: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// ListByOrganization returns the organization's restaurants newest first.
func (r *RestaurantRepository) ListByOrganization(ctx context.Context, orgID shared.ID, offset, limit int) ([]*restaurant.Restaurant, int64, error) {
	var total int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM restaurants WHERE organization_id = $1`,
		orgID.String()).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count restaurants: %w", err)
	}

	query := `
		SELECT ` + restaurantColumns + `
		FROM restaurants
		WHERE organization_id = $1
		ORDER BY created_at DESC
		OFFSET $2 LIMIT $3
	`
	rows, err := r.db.QueryContext(ctx, query, orgID.String(), offset, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list restaurants: %w", err)
	}
	defer rows.Close()

	var restaurants []*restaurant.Restaurant
	for rows.Next() {
		rest, err := scanRestaurant(rows)
		if err != nil {
			return nil, 0, err
		}
		restaurants = append(restaurants, rest)
	}
	return restaurants, total, rows.Err()
}

// CountActive counts the organization's active restaurants. This is the
// live count the limit evaluator compares against the plan cap.
func (r *RestaurantRepository) CountActive(ctx context.Context, orgID shared.ID) (int64, error) {
	var count int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM restaurants WHERE organization_id = $1 AND active`,
		orgID.String()).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count active restaurants: %w", err)
	}
	return count, nil
}

func scanRestaurant(s rowScanner) (*restaurant.Restaurant, error) {
	var (
		id, orgID            shared.ID
		name, address        string
		active               bool
		createdAt, updatedAt time.Time
	)
	err := s.Scan(&id, &orgID, &name, &address, &active, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan restaurant: %w", err)
	}
	return restaurant.Reconstitute(id, orgID, name, address, active, createdAt, updatedAt), nil
}
