package jobs

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"

	"github.com/menucraft/api/pkg/logger"
)

// Client manages enqueueing background jobs using Asynq.
type Client struct {
	client *asynq.Client
	logger *logger.Logger
}

// ClientConfig contains configuration for the job client.
type ClientConfig struct {
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// NewClient creates a new job client for enqueueing tasks.
func NewClient(cfg ClientConfig, log *logger.Logger) (*Client, error) {
	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}

	client := asynq.NewClient(redisOpt)

	return &Client{
		client: client,
		logger: log.With("component", "job_client"),
	}, nil
}

// Close closes the client connection.
func (c *Client) Close() error {
	return c.client.Close()
}

// EnqueueExpiryWarning enqueues an expiry warning notification job.
func (c *Client) EnqueueExpiryWarning(ctx context.Context, payload ExpiryWarningPayload) error {
	task, err := NewExpiryWarningTask(payload)
	if err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}

	info, err := c.client.EnqueueContext(ctx, task)
	if err != nil {
		c.logger.Error("failed to enqueue expiry warning",
			"organization_id", payload.OrganizationID,
			"error", err,
		)
		return fmt.Errorf("failed to enqueue task: %w", err)
	}

	c.logger.Info("expiry warning queued",
		"task_id", info.ID,
		"organization_id", payload.OrganizationID,
		"severity", payload.Severity,
		"queue", info.Queue,
	)
	return nil
}

// EnqueueSuspended enqueues a suspension notification job.
func (c *Client) EnqueueSuspended(ctx context.Context, payload SuspendedPayload) error {
	task, err := NewSuspendedTask(payload)
	if err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}

	info, err := c.client.EnqueueContext(ctx, task)
	if err != nil {
		c.logger.Error("failed to enqueue suspension notice",
			"organization_id", payload.OrganizationID,
			"error", err,
		)
		return fmt.Errorf("failed to enqueue task: %w", err)
	}

	c.logger.Info("suspension notice queued",
		"task_id", info.ID,
		"organization_id", payload.OrganizationID,
		"queue", info.Queue,
	)
	return nil
}

// EnqueueWelcomeEmail enqueues an onboarding welcome email job.
func (c *Client) EnqueueWelcomeEmail(ctx context.Context, payload WelcomeEmailPayload) error {
	task, err := NewWelcomeEmailTask(payload)
	if err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}

	info, err := c.client.EnqueueContext(ctx, task)
	if err != nil {
		c.logger.Error("failed to enqueue welcome email",
			"email", payload.UserEmail,
			"error", err,
		)
		return fmt.Errorf("failed to enqueue task: %w", err)
	}

	c.logger.Info("welcome email queued",
		"task_id", info.ID,
		"email", payload.UserEmail,
		"queue", info.Queue,
	)
	return nil
}

// EnqueueUsageTrack enqueues a usage ledger increment job.
func (c *Client) EnqueueUsageTrack(ctx context.Context, payload UsageTrackPayload) error {
	task, err := NewUsageTrackTask(payload)
	if err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}

	if _, err := c.client.EnqueueContext(ctx, task); err != nil {
		c.logger.Error("failed to enqueue usage track",
			"organization_id", payload.OrganizationID,
			"error", err,
		)
		return fmt.Errorf("failed to enqueue task: %w", err)
	}
	return nil
}

// EnqueueExpirySweep enqueues a subscription expiry sweep job.
func (c *Client) EnqueueExpirySweep(ctx context.Context) error {
	info, err := c.client.EnqueueContext(ctx, NewExpirySweepTask())
	if err != nil {
		c.logger.Error("failed to enqueue expiry sweep", "error", err)
		return fmt.Errorf("failed to enqueue task: %w", err)
	}

	c.logger.Info("expiry sweep queued", "task_id", info.ID, "queue", info.Queue)
	return nil
}

// EnqueueUsageRetention enqueues a usage ledger retention cleanup job.
func (c *Client) EnqueueUsageRetention(ctx context.Context, payload UsageRetentionPayload) error {
	task, err := NewUsageRetentionTask(payload)
	if err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}

	info, err := c.client.EnqueueContext(ctx, task)
	if err != nil {
		c.logger.Error("failed to enqueue usage retention", "error", err)
		return fmt.Errorf("failed to enqueue task: %w", err)
	}

	c.logger.Info("usage retention queued",
		"task_id", info.ID,
		"retention_months", payload.RetentionMonths,
		"queue", info.Queue,
	)
	return nil
}
