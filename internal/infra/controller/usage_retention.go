package controller

import (
	"context"
	"time"

	"github.com/menucraft/api/pkg/domain/usage"
	"github.com/menucraft/api/pkg/logger"
)

// UsageRetentionControllerConfig configures the UsageRetentionController.
type UsageRetentionControllerConfig struct {
	// Interval is how often to run the cleanup. Default: 24 hours.
	Interval time.Duration

	// RetentionMonths is how many months of ledger history to keep.
	// Default: 12.
	RetentionMonths int

	// Logger for logging.
	Logger *logger.Logger
}

// UsageRetentionController prunes usage ledger rows whose billing period
// ended before the retention window. Entitlement checks only read the
// current period, so old rows are audit history, not live state.
type UsageRetentionController struct {
	usageRepo usage.Repository
	config    *UsageRetentionControllerConfig
	logger    *logger.Logger
}

// NewUsageRetentionController creates a new UsageRetentionController.
func NewUsageRetentionController(
	usageRepo usage.Repository,
	config *UsageRetentionControllerConfig,
) *UsageRetentionController {
	if config == nil {
		config = &UsageRetentionControllerConfig{}
	}
	if config.Interval == 0 {
		config.Interval = 24 * time.Hour
	}
	if config.RetentionMonths == 0 {
		config.RetentionMonths = 12
	}
	if config.Logger == nil {
		config.Logger = logger.NewNop()
	}

	return &UsageRetentionController{
		usageRepo: usageRepo,
		config:    config,
		logger:    config.Logger,
	}
}

// Name returns the controller name.
func (c *UsageRetentionController) Name() string {
	return "usage-retention"
}

// Interval returns the reconciliation interval.
func (c *UsageRetentionController) Interval() time.Duration {
	return c.config.Interval
}

// Reconcile deletes ledger rows past the retention window.
func (c *UsageRetentionController) Reconcile(ctx context.Context) (int, error) {
	cutoff := time.Now().AddDate(0, -c.config.RetentionMonths, 0)

	removed, err := c.usageRepo.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		c.logger.Error("failed to prune usage ledger",
			"controller", "usage-retention",
			"error", err,
		)
		return 0, err
	}

	if removed > 0 {
		c.logger.Info("pruned usage ledger",
			"controller", "usage-retention",
			"removed", removed,
			"cutoff", cutoff.Format("2006-01-02"),
		)
	}

	return int(removed), nil
}
