// Package product defines menu products. Like restaurants, active products
// are counted live for limit checks.
package product

import (
	"context"
	"fmt"
	"time"

	"github.com/menucraft/api/pkg/domain/shared"
)

// Product is one menu item belonging to a restaurant.
type Product struct {
	id             shared.ID
	organizationID shared.ID
	restaurantID   shared.ID
	name           string
	description    string
	priceCents     int64
	allergens      []string
	active         bool
	createdAt      time.Time
	updatedAt      time.Time
}

// New creates a new Product entity.
func New(organizationID, restaurantID shared.ID, name, description string, priceCents int64, allergens []string) (*Product, error) {
	if organizationID.IsZero() {
		return nil, fmt.Errorf("%w: organization id is required", shared.ErrValidation)
	}
	if restaurantID.IsZero() {
		return nil, fmt.Errorf("%w: restaurant id is required", shared.ErrValidation)
	}
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", shared.ErrValidation)
	}
	if priceCents < 0 {
		return nil, fmt.Errorf("%w: price must not be negative", shared.ErrValidation)
	}

	now := time.Now().UTC()
	return &Product{
		id:             shared.NewID(),
		organizationID: organizationID,
		restaurantID:   restaurantID,
		name:           name,
		description:    description,
		priceCents:     priceCents,
		allergens:      append([]string(nil), allergens...),
		active:         true,
		createdAt:      now,
		updatedAt:      now,
	}, nil
}

// Reconstitute recreates a Product from persistence.
func Reconstitute(id, organizationID, restaurantID shared.ID, name, description string, priceCents int64, allergens []string, active bool, createdAt, updatedAt time.Time) *Product {
	return &Product{
		id:             id,
		organizationID: organizationID,
		restaurantID:   restaurantID,
		name:           name,
		description:    description,
		priceCents:     priceCents,
		allergens:      allergens,
		active:         active,
		createdAt:      createdAt,
		updatedAt:      updatedAt,
	}
}

// ID returns the product ID.
func (p *Product) ID() shared.ID { return p.id }

// OrganizationID returns the owning organization's ID.
func (p *Product) OrganizationID() shared.ID { return p.organizationID }

// RestaurantID returns the restaurant the product belongs to.
func (p *Product) RestaurantID() shared.ID { return p.restaurantID }

// Name returns the product name.
func (p *Product) Name() string { return p.name }

// Description returns the product description.
func (p *Product) Description() string { return p.description }

// PriceCents returns the price in cents.
func (p *Product) PriceCents() int64 { return p.priceCents }

// Allergens returns a copy of the allergen labels.
func (p *Product) Allergens() []string {
	return append([]string(nil), p.allergens...)
}

// Active reports whether the product counts against the plan limit.
func (p *Product) Active() bool { return p.active }

// CreatedAt returns the creation timestamp.
func (p *Product) CreatedAt() time.Time { return p.createdAt }

// UpdatedAt returns the last update timestamp.
func (p *Product) UpdatedAt() time.Time { return p.updatedAt }

// Apply updates the provided fields. Nil pointers leave fields untouched; a
// nil allergens slice is treated as "no change" while an empty one clears
// the labels.
func (p *Product) Apply(name, description *string, priceCents *int64, allergens []string) error {
	if name != nil {
		if *name == "" {
			return fmt.Errorf("%w: name is required", shared.ErrValidation)
		}
		p.name = *name
	}
	if description != nil {
		p.description = *description
	}
	if priceCents != nil {
		if *priceCents < 0 {
			return fmt.Errorf("%w: price must not be negative", shared.ErrValidation)
		}
		p.priceCents = *priceCents
	}
	if allergens != nil {
		p.allergens = append([]string(nil), allergens...)
	}
	p.updatedAt = time.Now().UTC()
	return nil
}

// Deactivate soft-deletes the product; it stops counting against limits.
func (p *Product) Deactivate() {
	p.active = false
	p.updatedAt = time.Now().UTC()
}

// Repository defines persistence operations for products.
type Repository interface {
	Create(ctx context.Context, p *Product) error
	GetByID(ctx context.Context, id shared.ID) (*Product, error)
	Update(ctx context.Context, p *Product) error
	ListByOrganization(ctx context.Context, orgID shared.ID, offset, limit int) ([]*Product, int64, error)
	CountActive(ctx context.Context, orgID shared.ID) (int64, error)
}
