package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/menucraft/api/pkg/domain/organization"
	"github.com/menucraft/api/pkg/domain/shared"
)

// OrganizationRepository implements organization.Repository using PostgreSQL.
type OrganizationRepository struct {
	db *DB
}

// NewOrganizationRepository creates a new OrganizationRepository.
func NewOrganizationRepository(db *DB) *OrganizationRepository {
	return &OrganizationRepository{db: db}
}

const organizationColumns = `id, name, slug, created_by, created_at, updated_at`

// Create persists a new organization.
func (r *OrganizationRepository) Create(ctx context.Context, o *organization.Organization) error {
	query := `
		INSERT INTO organizations (` + organizationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.db.ExecContext(ctx, query,
		o.ID().String(), o.Name(), o.Slug(), o.CreatedBy(), o.CreatedAt(), o.UpdatedAt())
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: slug %q is taken", shared.ErrConflict, o.Slug())
		}
		return fmt.Errorf("failed to create organization: %w", err)
	}
	return nil
}

// GetByID retrieves an organization by ID.
func (r *OrganizationRepository) GetByID(ctx context.Context, id shared.ID) (*organization.Organization, error) {
	query := `SELECT ` + organizationColumns + ` FROM organizations WHERE id = $1`
	org, err := scanOrganization(r.db.QueryRowContext(ctx, query, id.String()))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: organization %s", shared.ErrNotFound, id)
	}
	return org, err
}

// GetBySlug retrieves an organization by slug.
func (r *OrganizationRepository) GetBySlug(ctx context.Context, slug string) (*organization.Organization, error) {
	query := `SELECT ` + organizationColumns + ` FROM organizations WHERE slug = $1`
	org, err := scanOrganization(r.db.QueryRowContext(ctx, query, slug))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: organization %q", shared.ErrNotFound, slug)
	}
	return org, err
}

// GetByUser retrieves the organization a user belongs to.
func (r *OrganizationRepository) GetByUser(ctx context.Context, userID string) (*organization.Organization, error) {
	query := `
		SELECT o.id, o.name, o.slug, o.created_by, o.created_at, o.updated_at
		FROM organizations o
		JOIN users u ON u.organization_id = o.id
		WHERE u.id = $1
	`
	org, err := scanOrganization(r.db.QueryRowContext(ctx, query, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: organization for user %s", shared.ErrNotFound, userID)
	}
	return org, err
}

// Update persists organization changes.
func (r *OrganizationRepository) Update(ctx context.Context, o *organization.Organization) error {
	query := `
		UPDATE organizations
		SET name = $2, slug = $3, updated_at = $4
		WHERE id = $1
	`
	result, err := r.db.ExecContext(ctx, query,
		o.ID().String(), o.Name(), o.Slug(), o.UpdatedAt())
	if err != nil {
		return fmt.Errorf("failed to update organization: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// List returns organizations newest first.
func (r *OrganizationRepository) List(ctx context.Context, offset, limit int) ([]*organization.Organization, int64, error) {
	var total int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM organizations`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count organizations: %w", err)
	}

	query := `
		SELECT ` + organizationColumns + `
		FROM organizations
		ORDER BY created_at DESC
		OFFSET $1 LIMIT $2
	`
	rows, err := r.db.QueryContext(ctx, query, offset, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list organizations: %w", err)
	}
	defer rows.Close()

	var orgs []*organization.Organization
	for rows.Next() {
		org, err := scanOrganization(rows)
		if err != nil {
			return nil, 0, err
		}
		orgs = append(orgs, org)
	}
	return orgs, total, rows.Err()
}

func scanOrganization(s rowScanner) (*organization.Organization, error) {
	var (
		id                   shared.ID
		name, slug, creator  string
		createdAt, updatedAt time.Time
	)
	err := s.Scan(&id, &name, &slug, &creator, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan organization: %w", err)
	}
	return organization.Reconstitute(id, name, slug, creator, createdAt, updatedAt), nil
}
