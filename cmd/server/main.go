package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/menucraft/api/internal/config"
	"github.com/menucraft/api/internal/infra/controller"
	"github.com/menucraft/api/internal/infra/http"
	"github.com/menucraft/api/internal/infra/http/handler"
	"github.com/menucraft/api/internal/infra/http/middleware"
	"github.com/menucraft/api/internal/infra/http/routes"
	"github.com/menucraft/api/internal/infra/postgres"
	"github.com/menucraft/api/internal/infra/redis"
	"github.com/menucraft/api/pkg/logger"
	"github.com/menucraft/api/pkg/migrations"
	"github.com/menucraft/api/pkg/validator"
)

var (
	migrationsDir = flag.String("migrations", "migrations", "Path to SQL migration files")
	skipMigrate   = flag.Bool("skip-migrate", false, "Skip running pending migrations on boot")
)

func main() {
	flag.Parse()
	os.Exit(run())
}

func run() int {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log := logger.NewDefault()
		log.Error("failed to load configuration", "error", err)
		return 1
	}

	log := logger.New(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	log.Info("starting application", "app", cfg.App.Name, "env", cfg.App.Env)

	// Infrastructure.
	db, err := postgres.New(&cfg.Database)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		return 1
	}
	defer closeWithLog(db, "database", log)
	log.Info("database connected")

	if !*skipMigrate {
		runner := migrations.NewRunner(db.DB, *migrationsDir)
		if err := runner.Up(ctx); err != nil {
			log.Error("failed to run migrations", "error", err)
			return 1
		}
		log.Info("migrations applied")
	}

	redisClient, err := redis.New(&cfg.Redis, log)
	if err != nil {
		log.Error("failed to connect to redis", "error", err)
		return 1
	}
	defer closeWithLog(redisClient, "redis", log)
	log.Info("redis connected")

	// Repositories, services, job queue.
	repos := newRepositories(db)

	services, jobClient, err := newServices(cfg, repos, redisClient, log)
	if err != nil {
		log.Error("failed to initialize services", "error", err)
		return 1
	}
	defer closeWithLog(jobClient, "job client", log)
	log.Info("services initialized")

	// Background worker and controllers.
	worker := newWorker(cfg, repos, services, log)
	if worker != nil {
		if err := worker.Start(); err != nil {
			log.Error("failed to start worker", "error", err)
			return 1
		}
		defer worker.Stop()
		log.Info("worker started", "concurrency", cfg.Worker.Concurrency)
	}

	maintenanceCron, err := newMaintenanceCron(cfg, jobClient, log)
	if err != nil {
		log.Error("failed to schedule maintenance tasks", "error", err)
		return 1
	}
	if maintenanceCron != nil {
		maintenanceCron.Start()
		defer maintenanceCron.Stop()
		log.Info("maintenance schedule started", "spec", cfg.Worker.MaintenanceCron)
	}

	manager := controller.NewManager(&controller.ManagerConfig{
		Metrics: controller.NewPrometheusMetrics("menucraft"),
		Logger:  log,
	})
	manager.Register(controller.NewSubscriptionExpiryController(services.Billing, &controller.SubscriptionExpiryControllerConfig{
		Interval: cfg.Billing.SweepInterval,
		Logger:   log,
	}))
	manager.Register(controller.NewUsageRetentionController(repos.Usage, &controller.UsageRetentionControllerConfig{
		RetentionMonths: cfg.Billing.UsageRetentionMonths,
		Logger:          log,
	}))

	controllerCtx, stopControllers := context.WithCancel(ctx)
	defer stopControllers()
	if err := manager.Start(controllerCtx); err != nil {
		log.Error("failed to start controllers", "error", err)
		return 1
	}

	// HTTP server.
	v := validator.New()
	handlers := routes.Handlers{
		Health:       handler.NewHealthHandler(handler.WithDatabase(db), handler.WithRedis(redisClient)),
		Auth:         handler.NewAuthHandler(services.Auth, repos.User, v, log),
		Organization: handler.NewOrganizationHandler(services.Organization, jobClient, v, log),
		Billing:      handler.NewBillingHandler(services.Entitlement, services.Billing, v, log),
		Plan:         handler.NewPlanHandler(services.Plan, log),
		Restaurant:   handler.NewRestaurantHandler(services.Restaurant, v, log),
		Product:      handler.NewProductHandler(services.Product, v, log),
	}

	authenticator := middleware.NewAuthenticator(services.Tokens, services.Auth, log)
	guard := middleware.NewEntitlementGuard(services.Entitlement, newAPICallTracker(cfg, jobClient, services, log), log)
	loginLimiter := newLoginLimiter(redisClient, log)

	server := http.NewServer(cfg, log)
	routes.Register(server.Router(), handlers, authenticator, guard, loginLimiter)

	go func() {
		if err := server.Start(); err != nil {
			log.Error("server error", "error", err)
		}
	}()
	log.Info("application started", "http_addr", cfg.Server.Addr())

	// Graceful shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	stopControllers()
	if err := manager.Stop(); err != nil {
		log.Error("failed to stop controllers", "error", err)
	}

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", "error", err)
		return 1
	}

	log.Info("application stopped")
	return 0
}

type closer interface {
	Close() error
}

func closeWithLog(c closer, name string, log *logger.Logger) {
	if err := c.Close(); err != nil {
		log.Error("failed to close "+name, "error", err)
	}
}
