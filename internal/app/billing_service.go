package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/menucraft/api/pkg/domain/audit"
	"github.com/menucraft/api/pkg/domain/plan"
	"github.com/menucraft/api/pkg/domain/shared"
	"github.com/menucraft/api/pkg/domain/subscription"
	"github.com/menucraft/api/pkg/domain/usage"
	"github.com/menucraft/api/pkg/logger"
)

// ExpiryNotifier enqueues subscription lifecycle notifications. Implemented
// by the background jobs client; a nop implementation is used when the
// worker is disabled.
type ExpiryNotifier interface {
	NotifyExpiryWarning(ctx context.Context, orgID shared.ID, warning subscription.Warning) error
	NotifySuspended(ctx context.Context, orgID shared.ID) error
}

// NopNotifier discards all notifications.
type NopNotifier struct{}

func (NopNotifier) NotifyExpiryWarning(context.Context, shared.ID, subscription.Warning) error {
	return nil
}
func (NopNotifier) NotifySuspended(context.Context, shared.ID) error { return nil }

// BillingService owns subscription lifecycle mutations and the expiry sweep.
// Read-side entitlement questions belong to EntitlementService.
type BillingService struct {
	subRepo          subscription.Repository
	plans            PlanSource
	entitlements     *EntitlementService
	restaurantCounts LiveCounter
	productCounts    LiveCounter
	auditRepo        audit.Repository
	notifier         ExpiryNotifier
	clock            shared.Clock
	sweepBatchSize   int
	logger           *logger.Logger
}

// NewBillingService creates a new BillingService.
func NewBillingService(
	subRepo subscription.Repository,
	plans PlanSource,
	entitlements *EntitlementService,
	restaurantCounts LiveCounter,
	productCounts LiveCounter,
	auditRepo audit.Repository,
	notifier ExpiryNotifier,
	clock shared.Clock,
	sweepBatchSize int,
	log *logger.Logger,
) *BillingService {
	if clock == nil {
		clock = shared.SystemClock{}
	}
	if notifier == nil {
		notifier = NopNotifier{}
	}
	if sweepBatchSize <= 0 {
		sweepBatchSize = 100
	}
	return &BillingService{
		subRepo:          subRepo,
		plans:            plans,
		entitlements:     entitlements,
		restaurantCounts: restaurantCounts,
		productCounts:    productCounts,
		auditRepo:        auditRepo,
		notifier:         notifier,
		clock:            clock,
		sweepBatchSize:   sweepBatchSize,
		logger:           log.With("service", "billing"),
	}
}

// ChangePlan moves the organization to a new tier. Upgrades always succeed;
// downgrades are rejected while current live usage exceeds any cap of the
// target plan, with the offending counts spelled out so the user knows what
// to remove first.
//
// Organizations still on the implicit trial get a row materialized here;
// this is the first moment a subscription must actually be persisted.
func (s *BillingService) ChangePlan(ctx context.Context, orgID shared.ID, actorID *shared.ID, tier plan.Tier) (*StatusView, error) {
	if !tier.IsValid() {
		return nil, fmt.Errorf("%w: unknown plan tier %q", shared.ErrValidation, tier)
	}

	target, err := s.plans.GetByTier(ctx, tier)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve plan %s: %w", tier, err)
	}

	if err := s.validateDowngrade(ctx, orgID, actorID, target); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	sub, err := s.subRepo.GetByOrganization(ctx, orgID)
	switch {
	case err == nil:
		if err := sub.ChangePlan(tier, now); err != nil {
			return nil, err
		}
		if err := s.subRepo.Update(ctx, sub); err != nil {
			return nil, fmt.Errorf("failed to update subscription: %w", err)
		}
	case errors.Is(err, shared.ErrNotFound):
		sub, err = subscription.New(orgID, now)
		if err != nil {
			return nil, err
		}
		if err := sub.ChangePlan(tier, now); err != nil {
			return nil, err
		}
		if err := s.subRepo.Create(ctx, sub); err != nil {
			return nil, fmt.Errorf("failed to create subscription: %w", err)
		}
	default:
		return nil, fmt.Errorf("failed to load subscription: %w", err)
	}

	s.record(ctx, orgID, actorID, audit.ActionPlanChanged,
		fmt.Sprintf("plan changed to %s", tier),
		map[string]any{"tier": tier.String()})

	return s.entitlements.GetStatus(ctx, orgID)
}

// validateDowngrade checks the live counts against the target plan's caps.
func (s *BillingService) validateDowngrade(ctx context.Context, orgID shared.ID, actorID *shared.ID, target *plan.Plan) error {
	checks := []struct {
		metric  usage.Metric
		counter LiveCounter
	}{
		{usage.MetricRestaurants, s.restaurantCounts},
		{usage.MetricProducts, s.productCounts},
	}
	for _, c := range checks {
		limit, ok := target.LimitFor(c.metric.String())
		if !ok || limit == plan.Unlimited {
			continue
		}
		count, err := c.counter.CountActive(ctx, orgID)
		if err != nil {
			return fmt.Errorf("failed to count %s: %w", c.metric, err)
		}
		if count > limit {
			s.record(ctx, orgID, actorID, audit.ActionPlanChangeDenied,
				fmt.Sprintf("downgrade to %s denied: %s usage exceeds target cap", target.Tier(), c.metric),
				map[string]any{"metric": c.metric.String(), "count": count, "limit": limit})
			return fmt.Errorf("%w: cannot downgrade to %s: you have %d %s but the plan allows %d. Remove %d before downgrading",
				shared.ErrConflict, target.Name(), count, c.metric, limit, count-limit)
		}
	}
	return nil
}

// Cancel schedules cancellation at the end of the current billing period.
func (s *BillingService) Cancel(ctx context.Context, orgID shared.ID, actorID *shared.ID) (*StatusView, error) {
	sub, err := s.subRepo.GetByOrganization(ctx, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to load subscription: %w", err)
	}
	sub.Cancel(s.clock.Now())
	if err := s.subRepo.Update(ctx, sub); err != nil {
		return nil, fmt.Errorf("failed to update subscription: %w", err)
	}

	s.record(ctx, orgID, actorID, audit.ActionCancelScheduled,
		"cancellation scheduled for period end", nil)
	return s.entitlements.GetStatus(ctx, orgID)
}

// Reactivate reverts a scheduled cancellation.
func (s *BillingService) Reactivate(ctx context.Context, orgID shared.ID, actorID *shared.ID) (*StatusView, error) {
	sub, err := s.subRepo.GetByOrganization(ctx, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to load subscription: %w", err)
	}
	if err := sub.Reactivate(s.clock.Now()); err != nil {
		return nil, err
	}
	if err := s.subRepo.Update(ctx, sub); err != nil {
		return nil, fmt.Errorf("failed to update subscription: %w", err)
	}

	s.record(ctx, orgID, actorID, audit.ActionCancelReverted,
		"scheduled cancellation reverted", nil)
	return s.entitlements.GetStatus(ctx, orgID)
}

// RestoreAccess reactivates a lapsed subscription after payment, rolling the
// billing period one month forward.
func (s *BillingService) RestoreAccess(ctx context.Context, orgID shared.ID, actorID *shared.ID) (*StatusView, error) {
	sub, err := s.subRepo.GetByOrganization(ctx, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to load subscription: %w", err)
	}
	sub.RestoreAccess(s.clock.Now())
	if err := s.subRepo.Update(ctx, sub); err != nil {
		return nil, fmt.Errorf("failed to update subscription: %w", err)
	}

	s.record(ctx, orgID, actorID, audit.ActionAccessRestored,
		"access restored after payment", nil)
	return s.entitlements.GetStatus(ctx, orgID)
}

// GetWarnings returns the staged expiry warnings for the organization's
// subscription. Empty when nothing is due.
func (s *BillingService) GetWarnings(ctx context.Context, orgID shared.ID) ([]subscription.Warning, error) {
	view, err := s.entitlements.GetSubscription(ctx, orgID)
	if err != nil {
		return nil, err
	}
	return view.Subscription.Warnings(s.clock.Now()), nil
}

// ProcessExpiredSubscriptions is the periodic expiry sweep. Subscriptions
// still inside the grace window only trigger a notification; those past it
// are marked PAST_DUE. The sweep is an optimization for reporting and
// notifications, not a correctness requirement: the evaluator re-derives
// expiry from dates on every request, so access is blocked on time even if
// the sweep lags.
func (s *BillingService) ProcessExpiredSubscriptions(ctx context.Context) (int, error) {
	now := s.clock.Now()
	subs, err := s.subRepo.ListExpiredActive(ctx, now, s.sweepBatchSize)
	if err != nil {
		return 0, fmt.Errorf("failed to list expired subscriptions: %w", err)
	}

	processed := 0
	for _, sub := range subs {
		if err := ctx.Err(); err != nil {
			return processed, err
		}

		grace := sub.Grace(now)
		if grace.InGracePeriod {
			for _, w := range sub.Warnings(now) {
				if err := s.notifier.NotifyExpiryWarning(ctx, sub.OrganizationID(), w); err != nil {
					s.logger.Warn("failed to enqueue expiry warning",
						"organization_id", sub.OrganizationID(), "error", err)
				}
			}
			continue
		}

		sub.MarkPastDue(now)
		if err := s.subRepo.Update(ctx, sub); err != nil {
			s.logger.Error("failed to mark subscription past due",
				"subscription_id", sub.ID(), "error", err)
			continue
		}
		s.record(ctx, sub.OrganizationID(), nil, audit.ActionMarkedPastDue,
			"grace period elapsed, subscription marked past due", nil)
		if err := s.notifier.NotifySuspended(ctx, sub.OrganizationID()); err != nil {
			s.logger.Warn("failed to enqueue suspension notice",
				"organization_id", sub.OrganizationID(), "error", err)
		}
		processed++
	}
	return processed, nil
}

// record writes an audit entry. Audit failures are logged, never propagated;
// the business action has already happened.
func (s *BillingService) record(ctx context.Context, orgID shared.ID, actorID *shared.ID, action audit.Action, message string, metadata map[string]any) {
	if s.auditRepo == nil {
		return
	}
	entry, err := audit.NewEntry(orgID, actorID, action, message)
	if err != nil {
		s.logger.Warn("failed to build audit entry", "error", err)
		return
	}
	for k, v := range metadata {
		entry.WithMetadata(k, v)
	}
	if err := s.auditRepo.Create(ctx, entry); err != nil {
		s.logger.Warn("failed to write audit entry", "action", action, "error", err)
	}
}
