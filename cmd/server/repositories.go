package main

import (
	"github.com/menucraft/api/internal/infra/postgres"
	"github.com/menucraft/api/pkg/domain/audit"
	"github.com/menucraft/api/pkg/domain/organization"
	"github.com/menucraft/api/pkg/domain/plan"
	"github.com/menucraft/api/pkg/domain/product"
	"github.com/menucraft/api/pkg/domain/restaurant"
	"github.com/menucraft/api/pkg/domain/subscription"
	"github.com/menucraft/api/pkg/domain/usage"
	"github.com/menucraft/api/pkg/domain/user"
)

// repositories bundles all persistence implementations.
type repositories struct {
	Organization organization.Repository
	User         user.Repository
	Plan         plan.Repository
	Subscription subscription.Repository
	Usage        usage.Repository
	Restaurant   restaurant.Repository
	Product      product.Repository
	Audit        audit.Repository

	// Concrete types kept for the live-count interfaces.
	restaurantRepo *postgres.RestaurantRepository
	productRepo    *postgres.ProductRepository
}

func newRepositories(db *postgres.DB) *repositories {
	restaurantRepo := postgres.NewRestaurantRepository(db)
	productRepo := postgres.NewProductRepository(db)
	return &repositories{
		Organization:   postgres.NewOrganizationRepository(db),
		User:           postgres.NewUserRepository(db),
		Plan:           postgres.NewPlanRepository(db),
		Subscription:   postgres.NewSubscriptionRepository(db),
		Usage:          postgres.NewUsageRepository(db),
		Restaurant:     restaurantRepo,
		Product:        productRepo,
		Audit:          postgres.NewAuditRepository(db),
		restaurantRepo: restaurantRepo,
		productRepo:    productRepo,
	}
}
