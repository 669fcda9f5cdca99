package main

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/menucraft/api/internal/config"
	infrahttp "github.com/menucraft/api/internal/infra/http"
	"github.com/menucraft/api/internal/infra/http/middleware"
	"github.com/menucraft/api/internal/infra/jobs"
	"github.com/menucraft/api/internal/infra/redis"
	"github.com/menucraft/api/pkg/email"
	"github.com/menucraft/api/pkg/logger"
)

// Auth endpoints share one Redis window so the limit holds across replicas.
const (
	loginRateLimit  = 10
	loginRateWindow = time.Minute
)

// newWorker builds the asynq worker, or nil when the worker is disabled.
func newWorker(cfg *config.Config, repos *repositories, svcs *services, log *logger.Logger) *jobs.Worker {
	if !cfg.Worker.Enabled {
		return nil
	}

	var sender email.Sender = email.NewNoOpSender()
	if cfg.Email.Host != "" {
		sender = email.NewSMTPSender(email.Config{
			Host:       cfg.Email.Host,
			Port:       cfg.Email.Port,
			User:       cfg.Email.User,
			Password:   cfg.Email.Password,
			From:       cfg.Email.From,
			FromName:   cfg.Email.FromName,
			TLS:        cfg.Email.TLS,
			SkipVerify: cfg.Email.SkipVerify,
		})
	}

	billingTasks := jobs.NewBillingTaskHandler(repos.Organization, sender, cfg.App.Name, cfg.App.BaseURL, log)
	usageTasks := jobs.NewUsageTaskHandler(svcs.Entitlement, log)
	maintenanceTasks := jobs.NewMaintenanceTaskHandler(svcs.Billing, repos.Usage, nil, log)

	return jobs.NewWorker(jobs.WorkerConfig{
		RedisAddr:     cfg.Redis.Addr(),
		RedisPassword: cfg.Redis.Password,
		RedisDB:       cfg.Redis.DB,
		Concurrency:   cfg.Worker.Concurrency,
	}, billingTasks, usageTasks, maintenanceTasks, log)
}

// newAPICallTracker picks the apiCalls metering path. With the worker
// enabled the increment rides the queue (with a direct fallback inside the
// recorder); without a worker nothing would consume the tasks, so the
// increment is applied directly.
func newAPICallTracker(cfg *config.Config, jobClient *jobs.Client, svcs *services, log *logger.Logger) middleware.APICallTracker {
	if !cfg.Worker.Enabled {
		return svcs.Entitlement
	}
	return jobs.NewUsageRecorder(jobClient, svcs.Entitlement, log)
}

// newMaintenanceCron schedules the nightly maintenance tasks. The cron only
// enqueues; the worker does the actual work.
func newMaintenanceCron(cfg *config.Config, jobClient *jobs.Client, log *logger.Logger) (*cron.Cron, error) {
	if !cfg.Worker.Enabled || cfg.Worker.MaintenanceCron == "" {
		return nil, nil
	}

	c := cron.New()
	_, err := c.AddFunc(cfg.Worker.MaintenanceCron, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := jobClient.EnqueueExpirySweep(ctx); err != nil {
			log.Error("failed to enqueue expiry sweep", "error", err)
		}
		if err := jobClient.EnqueueUsageRetention(ctx, jobs.UsageRetentionPayload{
			RetentionMonths: cfg.Billing.UsageRetentionMonths,
		}); err != nil {
			log.Error("failed to enqueue usage retention", "error", err)
		}
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

// newLoginLimiter builds the Redis-backed limiter for the public auth
// endpoints. A limiter construction failure degrades to no throttling.
func newLoginLimiter(redisClient *redis.Client, log *logger.Logger) infrahttp.Middleware {
	limiter, err := redis.NewRateLimiter(redisClient, "login", loginRateLimit, loginRateWindow, log)
	if err != nil {
		log.Warn("login rate limiter disabled", "error", err)
		return nil
	}
	return middleware.RedisRateLimit(limiter, log)
}
