// Package restaurant defines the restaurant entity. The entitlement
// evaluator counts active restaurants live, so the repository carries a
// CountActive query alongside plain CRUD.
package restaurant

import (
	"context"
	"fmt"
	"time"

	"github.com/menucraft/api/pkg/domain/shared"
)

// Restaurant is one location managed by an organization.
type Restaurant struct {
	id             shared.ID
	organizationID shared.ID
	name           string
	address        string
	active         bool
	createdAt      time.Time
	updatedAt      time.Time
}

// New creates a new Restaurant entity.
func New(organizationID shared.ID, name, address string) (*Restaurant, error) {
	if organizationID.IsZero() {
		return nil, fmt.Errorf("%w: organization id is required", shared.ErrValidation)
	}
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", shared.ErrValidation)
	}

	now := time.Now().UTC()
	return &Restaurant{
		id:             shared.NewID(),
		organizationID: organizationID,
		name:           name,
		address:        address,
		active:         true,
		createdAt:      now,
		updatedAt:      now,
	}, nil
}

// Reconstitute recreates a Restaurant from persistence.
func Reconstitute(id, organizationID shared.ID, name, address string, active bool, createdAt, updatedAt time.Time) *Restaurant {
	return &Restaurant{
		id:             id,
		organizationID: organizationID,
		name:           name,
		address:        address,
		active:         active,
		createdAt:      createdAt,
		updatedAt:      updatedAt,
	}
}

// ID returns the restaurant ID.
func (r *Restaurant) ID() shared.ID { return r.id }

// OrganizationID returns the owning organization's ID.
func (r *Restaurant) OrganizationID() shared.ID { return r.organizationID }

// Name returns the restaurant name.
func (r *Restaurant) Name() string { return r.name }

// Address returns the street address.
func (r *Restaurant) Address() string { return r.address }

// Active reports whether the restaurant counts against the plan limit.
func (r *Restaurant) Active() bool { return r.active }

// CreatedAt returns the creation timestamp.
func (r *Restaurant) CreatedAt() time.Time { return r.createdAt }

// UpdatedAt returns the last update timestamp.
func (r *Restaurant) UpdatedAt() time.Time { return r.updatedAt }

// Rename updates the restaurant name.
func (r *Restaurant) Rename(name string) error {
	if name == "" {
		return fmt.Errorf("%w: name is required", shared.ErrValidation)
	}
	r.name = name
	r.updatedAt = time.Now().UTC()
	return nil
}

// Deactivate soft-deletes the restaurant; it stops counting against limits.
func (r *Restaurant) Deactivate() {
	r.active = false
	r.updatedAt = time.Now().UTC()
}

// Repository defines persistence operations for restaurants.
type Repository interface {
	Create(ctx context.Context, r *Restaurant) error
	GetByID(ctx context.Context, id shared.ID) (*Restaurant, error)
	Update(ctx context.Context, r *Restaurant) error
	ListByOrganization(ctx context.Context, orgID shared.ID, offset, limit int) ([]*Restaurant, int64, error)
	CountActive(ctx context.Context, orgID shared.ID) (int64, error)
}
