package app

import (
	"context"
	"fmt"

	"github.com/menucraft/api/pkg/domain/restaurant"
	"github.com/menucraft/api/pkg/domain/shared"
	"github.com/menucraft/api/pkg/logger"
	"github.com/menucraft/api/pkg/pagination"
)

// CreateRestaurantInput is the payload for creating a restaurant.
type CreateRestaurantInput struct {
	Name    string `json:"name" validate:"required,min=1,max=200"`
	Address string `json:"address" validate:"max=500"`
}

// RestaurantService manages an organization's restaurants. Plan limits are
// enforced at the transport boundary, not here; the service assumes the
// caller was already authorized.
type RestaurantService struct {
	repo   restaurant.Repository
	logger *logger.Logger
}

// NewRestaurantService creates a new RestaurantService.
func NewRestaurantService(repo restaurant.Repository, log *logger.Logger) *RestaurantService {
	return &RestaurantService{
		repo:   repo,
		logger: log.With("service", "restaurant"),
	}
}

// Create adds a restaurant to the organization.
func (s *RestaurantService) Create(ctx context.Context, orgID shared.ID, in CreateRestaurantInput) (*restaurant.Restaurant, error) {
	r, err := restaurant.New(orgID, in.Name, in.Address)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, r); err != nil {
		return nil, fmt.Errorf("failed to create restaurant: %w", err)
	}
	return r, nil
}

// Get returns a restaurant, verifying it belongs to the organization.
func (s *RestaurantService) Get(ctx context.Context, orgID, id shared.ID) (*restaurant.Restaurant, error) {
	r, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !r.OrganizationID().Equals(orgID) {
		return nil, fmt.Errorf("%w: restaurant %s", shared.ErrNotFound, id)
	}
	return r, nil
}

// List returns the organization's restaurants, paginated.
func (s *RestaurantService) List(ctx context.Context, orgID shared.ID, p pagination.Pagination) ([]*restaurant.Restaurant, int64, error) {
	return s.repo.ListByOrganization(ctx, orgID, p.Offset(), p.Limit())
}

// Rename changes a restaurant's name.
func (s *RestaurantService) Rename(ctx context.Context, orgID, id shared.ID, name string) (*restaurant.Restaurant, error) {
	r, err := s.Get(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	if err := r.Rename(name); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, r); err != nil {
		return nil, fmt.Errorf("failed to update restaurant: %w", err)
	}
	return r, nil
}

// Deactivate soft-deletes a restaurant, freeing its slot against the plan
// limit.
func (s *RestaurantService) Deactivate(ctx context.Context, orgID, id shared.ID) error {
	r, err := s.Get(ctx, orgID, id)
	if err != nil {
		return err
	}
	r.Deactivate()
	if err := s.repo.Update(ctx, r); err != nil {
		return fmt.Errorf("failed to deactivate restaurant: %w", err)
	}
	return nil
}
