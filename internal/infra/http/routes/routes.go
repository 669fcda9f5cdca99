// Package routes registers all HTTP routes for the API.
package routes

import (
	"github.com/prometheus/client_golang/prometheus/promhttp"

	infrahttp "github.com/menucraft/api/internal/infra/http"
	"github.com/menucraft/api/internal/infra/http/handler"
	"github.com/menucraft/api/internal/infra/http/middleware"
	"github.com/menucraft/api/pkg/domain/entitlement"
	"github.com/menucraft/api/pkg/domain/usage"
)

// Middleware is an alias to the http package's Middleware type.
type Middleware = infrahttp.Middleware

// Router is an alias to the http package's Router interface.
type Router = infrahttp.Router

// Handlers holds all HTTP handlers for route registration.
type Handlers struct {
	Health       *handler.HealthHandler
	Auth         *handler.AuthHandler
	Organization *handler.OrganizationHandler
	Billing      *handler.BillingHandler
	Plan         *handler.PlanHandler
	Restaurant   *handler.RestaurantHandler
	Product      *handler.ProductHandler
}

// Entry-point policies. Reads and exports stay available through the grace
// period, writes do not. Creates additionally reserve a limit slot before
// the handler runs.
var (
	readPolicy = entitlement.Policy{
		Operation:    "read",
		AllowTrial:   true,
		TrackAPICall: true,
	}
	writePolicy = entitlement.Policy{
		Operation:    "write",
		AllowTrial:   true,
		TrackAPICall: true,
	}
	exportPolicy = entitlement.Policy{
		Operation:    "export",
		AllowTrial:   true,
		TrackAPICall: true,
	}
	billingPolicy = entitlement.Policy{
		Operation:  "billing",
		AllowTrial: true,
	}
	createRestaurantPolicy = entitlement.Policy{
		Operation:    "write",
		AllowTrial:   true,
		TrackAPICall: true,
		RequireLimit: &entitlement.LimitRequirement{Metric: usage.MetricRestaurants, Amount: 1},
	}
	createProductPolicy = entitlement.Policy{
		Operation:    "write",
		AllowTrial:   true,
		TrackAPICall: true,
		RequireLimit: &entitlement.LimitRequirement{Metric: usage.MetricProducts, Amount: 1},
	}
)

// Register registers all application routes. The login limiter is optional;
// when nil the signup and login endpoints run unthrottled.
func Register(
	router Router,
	h Handlers,
	auth *middleware.Authenticator,
	guard *middleware.EntitlementGuard,
	loginLimiter Middleware,
) {
	// Probes and metrics are public and sit outside /api/v1.
	router.GET("/health", h.Health.Health)
	router.GET("/ready", h.Health.Ready)
	router.GET("/metrics", promhttp.Handler().ServeHTTP)

	requireAuth := auth.RequireAuth()

	router.Group("/api/v1", func(r Router) {
		// Public surface: signup, login, refresh, plan catalog.
		if loginLimiter != nil {
			r.POST("/signup", h.Organization.Onboard, loginLimiter)
			r.POST("/auth/login", h.Auth.Login, loginLimiter)
			r.POST("/auth/refresh", h.Auth.Refresh, loginLimiter)
		} else {
			r.POST("/signup", h.Organization.Onboard)
			r.POST("/auth/login", h.Auth.Login)
			r.POST("/auth/refresh", h.Auth.Refresh)
		}
		r.GET("/plans", h.Plan.List)

		// Authenticated, no entitlement gate. Logout and profile must work
		// for suspended organizations too.
		r.POST("/auth/logout", h.Auth.Logout, requireAuth)
		r.GET("/auth/me", h.Auth.Me, requireAuth)

		// Billing is reachable in every subscription state so a suspended
		// organization can pay its way back in.
		r.Group("/billing", func(b Router) {
			b.GET("/status", h.Billing.GetStatus, guard.Require(billingPolicy))
			b.GET("/usage", h.Billing.GetUsage, guard.Require(billingPolicy))
			b.GET("/warnings", h.Billing.GetWarnings, guard.Require(billingPolicy))
			b.POST("/plan", h.Billing.ChangePlan, guard.Require(billingPolicy))
			b.POST("/cancel", h.Billing.Cancel, guard.Require(billingPolicy))
			b.POST("/reactivate", h.Billing.Reactivate, guard.Require(billingPolicy))
			b.POST("/restore", h.Billing.RestoreAccess, guard.Require(billingPolicy))
		}, requireAuth)

		// Organization management.
		r.GET("/organization", h.Organization.Get, requireAuth, guard.Require(readPolicy))
		r.PATCH("/organization", h.Organization.Rename, requireAuth, guard.Require(writePolicy))

		// Restaurants.
		r.Group("/restaurants", func(rt Router) {
			rt.GET("/", h.Restaurant.List, guard.Require(readPolicy))
			rt.POST("/", h.Restaurant.Create, guard.Require(createRestaurantPolicy))
			rt.GET("/{id}", h.Restaurant.Get, guard.Require(readPolicy))
			rt.PATCH("/{id}", h.Restaurant.Rename, guard.Require(writePolicy))
			rt.DELETE("/{id}", h.Restaurant.Deactivate, guard.Require(writePolicy))
		}, requireAuth)

		// Products.
		r.Group("/products", func(p Router) {
			p.GET("/", h.Product.List, guard.Require(readPolicy))
			p.POST("/", h.Product.Create, guard.Require(createProductPolicy))
			p.GET("/export", h.Product.ExportCSV, guard.Require(exportPolicy))
			p.GET("/{id}", h.Product.Get, guard.Require(readPolicy))
			p.PATCH("/{id}", h.Product.Update, guard.Require(writePolicy))
			p.DELETE("/{id}", h.Product.Deactivate, guard.Require(writePolicy))
		}, requireAuth)
	})
}
