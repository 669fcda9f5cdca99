package app

import (
	"context"
	"fmt"

	"github.com/menucraft/api/pkg/domain/product"
	"github.com/menucraft/api/pkg/domain/restaurant"
	"github.com/menucraft/api/pkg/domain/shared"
	"github.com/menucraft/api/pkg/logger"
	"github.com/menucraft/api/pkg/pagination"
)

// CreateProductInput is the payload for creating a menu product.
type CreateProductInput struct {
	RestaurantID string   `json:"restaurant_id" validate:"required,uuid"`
	Name         string   `json:"name" validate:"required,min=1,max=200"`
	Description  string   `json:"description" validate:"max=2000"`
	PriceCents   int64    `json:"price_cents" validate:"gte=0"`
	Allergens    []string `json:"allergens" validate:"max=30,dive,max=50"`
}

// UpdateProductInput carries partial product updates.
type UpdateProductInput struct {
	Name        *string  `json:"name" validate:"omitempty,min=1,max=200"`
	Description *string  `json:"description" validate:"omitempty,max=2000"`
	PriceCents  *int64   `json:"price_cents" validate:"omitempty,gte=0"`
	Allergens   []string `json:"allergens" validate:"omitempty,max=30,dive,max=50"`
}

// ProductService manages menu products. Like restaurants, plan limits are
// checked at the boundary before the request reaches this service.
type ProductService struct {
	repo           product.Repository
	restaurantRepo restaurant.Repository
	logger         *logger.Logger
}

// NewProductService creates a new ProductService.
func NewProductService(repo product.Repository, restaurantRepo restaurant.Repository, log *logger.Logger) *ProductService {
	return &ProductService{
		repo:           repo,
		restaurantRepo: restaurantRepo,
		logger:         log.With("service", "product"),
	}
}

// Create adds a product to one of the organization's restaurants.
func (s *ProductService) Create(ctx context.Context, orgID shared.ID, in CreateProductInput) (*product.Product, error) {
	restaurantID, err := shared.IDFromString(in.RestaurantID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid restaurant id", shared.ErrValidation)
	}
	r, err := s.restaurantRepo.GetByID(ctx, restaurantID)
	if err != nil {
		return nil, err
	}
	if !r.OrganizationID().Equals(orgID) {
		return nil, fmt.Errorf("%w: restaurant %s", shared.ErrNotFound, restaurantID)
	}

	p, err := product.New(orgID, restaurantID, in.Name, in.Description, in.PriceCents, in.Allergens)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	return p, nil
}

// Get returns a product, verifying it belongs to the organization.
func (s *ProductService) Get(ctx context.Context, orgID, id shared.ID) (*product.Product, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.OrganizationID().Equals(orgID) {
		return nil, fmt.Errorf("%w: product %s", shared.ErrNotFound, id)
	}
	return p, nil
}

// List returns the organization's products, paginated.
func (s *ProductService) List(ctx context.Context, orgID shared.ID, p pagination.Pagination) ([]*product.Product, int64, error) {
	return s.repo.ListByOrganization(ctx, orgID, p.Offset(), p.Limit())
}

// Export returns every product of the organization, paging through the
// repository in fixed batches.
func (s *ProductService) Export(ctx context.Context, orgID shared.ID) ([]*product.Product, error) {
	const batch = 500
	var out []*product.Product
	for offset := 0; ; offset += batch {
		page, total, err := s.repo.ListByOrganization(ctx, orgID, offset, batch)
		if err != nil {
			return nil, fmt.Errorf("failed to list products: %w", err)
		}
		out = append(out, page...)
		if int64(offset+len(page)) >= total || len(page) == 0 {
			break
		}
	}
	return out, nil
}

// Update applies partial changes to a product.
func (s *ProductService) Update(ctx context.Context, orgID, id shared.ID, in UpdateProductInput) (*product.Product, error) {
	p, err := s.Get(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	if err := p.Apply(in.Name, in.Description, in.PriceCents, in.Allergens); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to update product: %w", err)
	}
	return p, nil
}

// Deactivate soft-deletes a product, freeing its slot against the plan
// limit.
func (s *ProductService) Deactivate(ctx context.Context, orgID, id shared.ID) error {
	p, err := s.Get(ctx, orgID, id)
	if err != nil {
		return err
	}
	p.Deactivate()
	if err := s.repo.Update(ctx, p); err != nil {
		return fmt.Errorf("failed to deactivate product: %w", err)
	}
	return nil
}
