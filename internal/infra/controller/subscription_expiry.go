package controller

import (
	"context"
	"time"

	"github.com/menucraft/api/pkg/logger"
)

// ExpirySweeper reconciles subscriptions whose paid period has elapsed.
type ExpirySweeper interface {
	ProcessExpiredSubscriptions(ctx context.Context) (int, error)
}

// SubscriptionExpiryControllerConfig configures the SubscriptionExpiryController.
type SubscriptionExpiryControllerConfig struct {
	// Interval is how often to run the sweep. Default: 1 hour.
	Interval time.Duration

	// Logger for logging.
	Logger *logger.Logger
}

// SubscriptionExpiryController periodically sweeps active subscriptions
// whose period has ended: ones still in the grace window get staged
// warnings, ones past it are marked past due and suspended.
type SubscriptionExpiryController struct {
	sweeper ExpirySweeper
	config  *SubscriptionExpiryControllerConfig
	logger  *logger.Logger
}

// NewSubscriptionExpiryController creates a new SubscriptionExpiryController.
func NewSubscriptionExpiryController(
	sweeper ExpirySweeper,
	config *SubscriptionExpiryControllerConfig,
) *SubscriptionExpiryController {
	if config == nil {
		config = &SubscriptionExpiryControllerConfig{}
	}
	if config.Interval == 0 {
		config.Interval = time.Hour
	}
	if config.Logger == nil {
		config.Logger = logger.NewNop()
	}

	return &SubscriptionExpiryController{
		sweeper: sweeper,
		config:  config,
		logger:  config.Logger,
	}
}

// Name returns the controller name.
func (c *SubscriptionExpiryController) Name() string {
	return "subscription-expiry"
}

// Interval returns the reconciliation interval.
func (c *SubscriptionExpiryController) Interval() time.Duration {
	return c.config.Interval
}

// Reconcile suspends subscriptions past the grace period.
func (c *SubscriptionExpiryController) Reconcile(ctx context.Context) (int, error) {
	suspended, err := c.sweeper.ProcessExpiredSubscriptions(ctx)
	if err != nil {
		c.logger.Error("failed to process expired subscriptions",
			"controller", "subscription-expiry",
			"error", err,
		)
		return 0, err
	}

	if suspended > 0 {
		c.logger.Info("suspended expired subscriptions",
			"controller", "subscription-expiry",
			"count", suspended,
		)
	}

	return suspended, nil
}
