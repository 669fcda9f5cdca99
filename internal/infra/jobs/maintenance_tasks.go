package jobs

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"

	"github.com/menucraft/api/pkg/domain/shared"
	"github.com/menucraft/api/pkg/domain/usage"
	"github.com/menucraft/api/pkg/logger"
)

// ExpirySweeper reconciles subscriptions whose paid period has elapsed.
type ExpirySweeper interface {
	ProcessExpiredSubscriptions(ctx context.Context) (int, error)
}

// MaintenanceTaskHandler runs scheduled cleanup work.
type MaintenanceTaskHandler struct {
	sweeper ExpirySweeper
	usage   usage.Repository
	clock   shared.Clock
	logger  *logger.Logger
}

// NewMaintenanceTaskHandler creates a handler for maintenance tasks.
func NewMaintenanceTaskHandler(sweeper ExpirySweeper, usageRepo usage.Repository, clock shared.Clock, log *logger.Logger) *MaintenanceTaskHandler {
	if clock == nil {
		clock = shared.SystemClock{}
	}
	return &MaintenanceTaskHandler{
		sweeper: sweeper,
		usage:   usageRepo,
		clock:   clock,
		logger:  log.With("component", "maintenance_tasks"),
	}
}

// HandleExpirySweep processes a subscription expiry sweep task.
func (h *MaintenanceTaskHandler) HandleExpirySweep(ctx context.Context, _ *asynq.Task) error {
	processed, err := h.sweeper.ProcessExpiredSubscriptions(ctx)
	if err != nil {
		return fmt.Errorf("expiry sweep: %w", err)
	}
	if processed > 0 {
		h.logger.Info("expiry sweep finished", "suspended", processed)
	}
	return nil
}

// HandleUsageRetention prunes usage ledger rows past the retention window.
func (h *MaintenanceTaskHandler) HandleUsageRetention(ctx context.Context, t *asynq.Task) error {
	var payload UsageRetentionPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal usage retention payload: %v: %w", err, asynq.SkipRetry)
	}
	if payload.RetentionMonths < 1 {
		return fmt.Errorf("retention months must be positive, got %d: %w", payload.RetentionMonths, asynq.SkipRetry)
	}

	cutoff := h.clock.Now().AddDate(0, -payload.RetentionMonths, 0)
	removed, err := h.usage.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("usage retention: %w", err)
	}

	h.logger.Info("usage retention finished",
		"removed", removed,
		"cutoff", cutoff.Format("2006-01-02"),
	)
	return nil
}
