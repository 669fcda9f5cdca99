package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/menucraft/api/pkg/domain/product"
	"github.com/menucraft/api/pkg/domain/shared"
)

// ProductRepository implements product.Repository using PostgreSQL.
// Allergens are stored as a text array.
type ProductRepository struct {
	db *DB
}

// NewProductRepository creates a new ProductRepository.
func NewProductRepository(db *DB) *ProductRepository {
	return &ProductRepository{db: db}
}

const productColumns = `id, organization_id, restaurant_id, name, description, price_cents, allergens, active, created_at, updated_at`

// Create persists a new product.
func (r *ProductRepository) Create(ctx context.Context, p *product.Product) error {
	query := `
		INSERT INTO products (` + productColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := r.db.ExecContext(ctx, query,
		p.ID().String(),
		p.OrganizationID().String(),
		p.RestaurantID().String(),
		p.Name(),
		p.Description(),
		p.PriceCents(),
		pq.Array(p.Allergens()),
		p.Active(),
		p.CreatedAt(),
		p.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}
	return nil
}

// GetByID retrieves a product by ID.
func (r *ProductRepository) GetByID(ctx context.Context, id shared.ID) (*product.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`
	p, err := scanProduct(r.db.QueryRowContext(ctx, query, id.String()))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: product %s", shared.ErrNotFound, id)
	}
	return p, err
}

// Update persists product changes.
func (r *ProductRepository) Update(ctx context.Context, p *product.Product) error {
	query := `
		UPDATE products
		SET name = $2, description = $3, price_cents = $4, allergens = $5, active = $6, updated_at = $7
		WHERE id = $1
	`
	result, err := r.db.ExecContext(ctx, query,
		p.ID().String(),
		p.Name(),
		p.Description(),
		p.PriceCents(),
		pq.Array(p.Allergens()),
		p.Active(),
		p.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to update product: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// ListByOrganization returns the organization's products newest first.
func (r *ProductRepository) ListByOrganization(ctx context.Context, orgID shared.ID, offset, limit int) ([]*product.Product, int64, error) {
	var total int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM products WHERE organization_id = $1`,
		orgID.String()).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	query := `
		SELECT ` + productColumns + `
		FROM products
		WHERE organization_id = $1
		ORDER BY created_at DESC
		OFFSET $2 LIMIT $3
	`
	rows, err := r.db.QueryContext(ctx, query, orgID.String(), offset, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	var products []*product.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, 0, err
		}
		products = append(products, p)
	}
	return products, total, rows.Err()
}

// CountActive counts the organization's active products for limit checks.
func (r *ProductRepository) CountActive(ctx context.Context, orgID shared.ID) (int64, error) {
	var count int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM products WHERE organization_id = $1 AND active`,
		orgID.String()).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count active products: %w", err)
	}
	return count, nil
}

func scanProduct(s rowScanner) (*product.Product, error) {
	var (
		id, orgID, restID    shared.ID
		name, description    string
		priceCents           int64
		allergens            pq.StringArray
		active               bool
		createdAt, updatedAt time.Time
	)
	err := s.Scan(&id, &orgID, &restID, &name, &description, &priceCents,
		&allergens, &active, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan product: %w", err)
	}
	return product.Reconstitute(id, orgID, restID, name, description,
		priceCents, allergens, active, createdAt, updatedAt), nil
}
