package main

import (
	"fmt"

	"github.com/menucraft/api/internal/app"
	"github.com/menucraft/api/internal/config"
	"github.com/menucraft/api/internal/infra/jobs"
	"github.com/menucraft/api/internal/infra/redis"
	"github.com/menucraft/api/pkg/jwt"
	"github.com/menucraft/api/pkg/logger"
	"github.com/menucraft/api/pkg/password"
)

// services bundles all application services plus the token manager.
type services struct {
	Tokens       *jwt.Manager
	Auth         *app.AuthService
	Organization *app.OrganizationService
	Plan         *app.PlanService
	Entitlement  *app.EntitlementService
	Billing      *app.BillingService
	Restaurant   *app.RestaurantService
	Product      *app.ProductService
}

func newServices(cfg *config.Config, repos *repositories, redisClient *redis.Client, log *logger.Logger) (*services, *jobs.Client, error) {
	tokens, err := jwt.NewManager(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer, cfg.Auth.AccessTokenTTL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create token manager: %w", err)
	}

	tokenStore, err := redis.NewTokenStore(redisClient)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create token store: %w", err)
	}

	jobClient, err := jobs.NewClient(jobs.ClientConfig{
		RedisAddr:     cfg.Redis.Addr(),
		RedisPassword: cfg.Redis.Password,
		RedisDB:       cfg.Redis.DB,
	}, log)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create job client: %w", err)
	}

	planService, err := app.NewPlanService(repos.Plan, redisClient, log)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create plan service: %w", err)
	}

	hasher := password.New()

	entitlementService := app.NewEntitlementService(
		repos.Organization,
		repos.Subscription,
		planService,
		repos.Usage,
		repos.restaurantRepo,
		repos.productRepo,
		nil,
		log,
	)

	billingService := app.NewBillingService(
		repos.Subscription,
		planService,
		entitlementService,
		repos.restaurantRepo,
		repos.productRepo,
		repos.Audit,
		jobs.NewNotifier(jobClient),
		nil,
		cfg.Billing.SweepBatchSize,
		log,
	)

	return &services{
		Tokens:       tokens,
		Auth:         app.NewAuthService(repos.User, tokens, tokenStore, hasher, nil, log),
		Organization: app.NewOrganizationService(repos.Organization, repos.User, repos.Subscription, hasher, nil, log),
		Plan:         planService,
		Entitlement:  entitlementService,
		Billing:      billingService,
		Restaurant:   app.NewRestaurantService(repos.Restaurant, log),
		Product:      app.NewProductService(repos.Product, repos.Restaurant, log),
	}, jobClient, nil
}
