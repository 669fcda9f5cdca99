package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/menucraft/api/pkg/domain/entitlement"
	"github.com/menucraft/api/pkg/domain/organization"
	"github.com/menucraft/api/pkg/domain/plan"
	"github.com/menucraft/api/pkg/domain/shared"
	"github.com/menucraft/api/pkg/domain/subscription"
	"github.com/menucraft/api/pkg/domain/usage"
	"github.com/menucraft/api/pkg/logger"
)

// PlanSource resolves plans from the catalog. Satisfied by the cached plan
// service and by the bare repository.
type PlanSource interface {
	GetByTier(ctx context.Context, tier plan.Tier) (*plan.Plan, error)
}

// LiveCounter counts active rows for an organization. Restaurant and product
// limits are checked against live counts rather than the ledger so the
// decision stays correct even if usage events were missed.
type LiveCounter interface {
	CountActive(ctx context.Context, orgID shared.ID) (int64, error)
}

// StatusView is the single source of truth for "may this organization act".
// Both the enforcement layer and the UI derive access from it; nothing
// re-implements the active/expired check independently.
type StatusView struct {
	Source             subscription.Source      `json:"source"`
	Status             subscription.Status      `json:"status"`
	PlanTier           plan.Tier                `json:"plan_tier"`
	PlanName           string                   `json:"plan_name"`
	Limits             plan.Limits              `json:"limits"`
	Features           map[string]bool          `json:"features"`
	CurrentPeriodStart time.Time                `json:"current_period_start"`
	CurrentPeriodEnd   time.Time                `json:"current_period_end"`
	CancelAtPeriodEnd  bool                     `json:"cancel_at_period_end"`
	IsActive           bool                     `json:"is_active"`
	IsExpired          bool                     `json:"is_expired"`
	DaysUntilExpiry    int                      `json:"days_until_expiry"`
	Grace              subscription.GraceWindow `json:"grace"`

	view subscription.View
}

// View returns the underlying subscription view.
func (v *StatusView) View() subscription.View {
	return v.view
}

// UsageStat is the usage snapshot for one metric.
type UsageStat struct {
	Metric       usage.Metric `json:"metric"`
	CurrentUsage int64        `json:"current_usage"`
	Limit        int64        `json:"limit"`
	Unlimited    bool         `json:"unlimited"`
}

// UsageStats is the full snapshot returned to the billing UI.
type UsageStats struct {
	PlanTier plan.Tier   `json:"plan_tier"`
	Metrics  []UsageStat `json:"metrics"`
}

// EntitlementService evaluates subscriptions, limits and feature flags.
// It is the only component allowed to answer entitlement questions.
//
// Failure semantics: limit and feature checks fail closed. A store error
// during evaluation propagates as an error and the caller must deny; it is
// never converted into a silent allow.
type EntitlementService struct {
	orgRepo          organization.Repository
	subRepo          subscription.Repository
	plans            PlanSource
	usageRepo        usage.Repository
	restaurantCounts LiveCounter
	productCounts    LiveCounter
	clock            shared.Clock
	logger           *logger.Logger
}

// NewEntitlementService creates a new EntitlementService.
func NewEntitlementService(
	orgRepo organization.Repository,
	subRepo subscription.Repository,
	plans PlanSource,
	usageRepo usage.Repository,
	restaurantCounts LiveCounter,
	productCounts LiveCounter,
	clock shared.Clock,
	log *logger.Logger,
) *EntitlementService {
	if clock == nil {
		clock = shared.SystemClock{}
	}
	return &EntitlementService{
		orgRepo:          orgRepo,
		subRepo:          subRepo,
		plans:            plans,
		usageRepo:        usageRepo,
		restaurantCounts: restaurantCounts,
		productCounts:    productCounts,
		clock:            clock,
		logger:           log.With("service", "entitlement"),
	}
}

// GetSubscription resolves the organization's subscription view. When no
// record exists, a virtual FREE/TRIALING view anchored at the organization's
// creation time is synthesized so callers never branch on nil.
func (s *EntitlementService) GetSubscription(ctx context.Context, orgID shared.ID) (subscription.View, error) {
	sub, err := s.subRepo.GetByOrganization(ctx, orgID)
	if err == nil {
		p, perr := s.plans.GetByTier(ctx, sub.PlanTier())
		if perr != nil {
			return subscription.View{}, fmt.Errorf("failed to resolve plan %s: %w", sub.PlanTier(), perr)
		}
		return subscription.NewPersistedView(sub, p), nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return subscription.View{}, fmt.Errorf("failed to load subscription: %w", err)
	}

	org, err := s.orgRepo.GetByID(ctx, orgID)
	if err != nil {
		return subscription.View{}, fmt.Errorf("failed to load organization: %w", err)
	}

	free, err := s.plans.GetByTier(ctx, plan.TierFree)
	if err != nil {
		if !errors.Is(err, shared.ErrNotFound) {
			return subscription.View{}, fmt.Errorf("failed to resolve free plan: %w", err)
		}
		// Catalog not seeded yet; fall back to the built-in defaults.
		free = plan.DefaultFree()
	}
	return subscription.NewVirtualView(org.ID(), org.CreatedAt(), free), nil
}

// GetStatus augments the subscription view with the derived access flags.
func (s *EntitlementService) GetStatus(ctx context.Context, orgID shared.ID) (*StatusView, error) {
	view, err := s.GetSubscription(ctx, orgID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	sub := view.Subscription
	return &StatusView{
		Source:             view.Source,
		Status:             sub.Status(),
		PlanTier:           view.Plan.Tier(),
		PlanName:           view.Plan.Name(),
		Limits:             view.Plan.Limits(),
		Features:           view.Plan.Features(),
		CurrentPeriodStart: sub.CurrentPeriodStart(),
		CurrentPeriodEnd:   sub.CurrentPeriodEnd(),
		CancelAtPeriodEnd:  sub.CancelAtPeriodEnd(),
		IsActive:           sub.Status().IsActive(),
		IsExpired:          sub.IsExpired(now),
		DaysUntilExpiry:    sub.DaysUntilExpiry(now),
		Grace:              sub.Grace(now),
		view:               view,
	}, nil
}

// HasFeature reports whether the organization's plan enables a feature.
// Absent keys are false; there is no implicit default.
func (s *EntitlementService) HasFeature(ctx context.Context, orgID shared.ID, feature string) (bool, error) {
	view, err := s.GetSubscription(ctx, orgID)
	if err != nil {
		return false, err
	}
	return view.Plan.HasFeature(feature), nil
}

// CheckLimit evaluates whether a usage increment fits the plan limit.
//
// A requested amount of zero reads the current usage without affecting the
// decision: it is always allowed. The live-count metrics are deliberately
// not serialized against concurrent creations, so two racing requests can
// both pass and overshoot the cap by one. The limit is a soft monetization
// boundary, not a hard allocation guarantee.
func (s *EntitlementService) CheckLimit(ctx context.Context, orgID shared.ID, metric usage.Metric, requested int64) (entitlement.LimitCheck, error) {
	if requested < 0 {
		return entitlement.LimitCheck{}, fmt.Errorf("%w: requested amount must not be negative", shared.ErrValidation)
	}

	view, err := s.GetSubscription(ctx, orgID)
	if err != nil {
		return entitlement.LimitCheck{}, err
	}

	limit, ok := view.Plan.LimitFor(metric.String())
	if !ok {
		return entitlement.LimitCheck{}, fmt.Errorf("%w: unknown metric %q", shared.ErrValidation, metric)
	}

	current, err := s.currentUsage(ctx, orgID, metric)
	if err != nil {
		return entitlement.LimitCheck{}, err
	}

	check := entitlement.LimitCheck{
		CurrentUsage: current,
		Limit:        limit,
		Requested:    requested,
	}
	switch {
	case limit == plan.Unlimited:
		check.Allowed = true
	case requested == 0:
		check.Allowed = true
	case current+requested <= limit:
		check.Allowed = true
	default:
		check.Message = entitlement.LimitExceededMessage(metric, current, limit, requested)
	}
	return check, nil
}

// GetUsageStats returns the usage snapshot for every metric.
func (s *EntitlementService) GetUsageStats(ctx context.Context, orgID shared.ID) (*UsageStats, error) {
	view, err := s.GetSubscription(ctx, orgID)
	if err != nil {
		return nil, err
	}

	stats := &UsageStats{
		PlanTier: view.Plan.Tier(),
		Metrics:  make([]UsageStat, len(usage.AllMetrics)),
	}
	g, gctx := errgroup.WithContext(ctx)
	for i, metric := range usage.AllMetrics {
		g.Go(func() error {
			check, err := s.CheckLimit(gctx, orgID, metric, 0)
			if err != nil {
				return err
			}
			stats.Metrics[i] = UsageStat{
				Metric:       metric,
				CurrentUsage: check.CurrentUsage,
				Limit:        check.Limit,
				Unlimited:    check.Limit == plan.Unlimited,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return stats, nil
}

// TrackAPICall upserts the current month's apiCalls ledger row, adding one.
// The increment is atomic in the store, so concurrent calls never lose
// updates.
func (s *EntitlementService) TrackAPICall(ctx context.Context, orgID shared.ID) error {
	now := s.clock.Now()
	if err := s.usageRepo.Increment(ctx, orgID, usage.MetricAPICalls, usage.MonthStart(now), 1); err != nil {
		return fmt.Errorf("failed to track api call: %w", err)
	}
	return nil
}

// Authorize evaluates an enforcement policy for an organization. It returns
// a structured denial when the request must be blocked, nil when it may
// proceed. Infrastructure errors propagate as errors (fail closed); the
// transports map them to internal errors, never to an allow.
//
// Caller resolution (steps before the organization is known) belongs to the
// transports; they emit Unauthenticated/NoOrganization denials themselves.
func (s *EntitlementService) Authorize(ctx context.Context, orgID shared.ID, pol entitlement.Policy) (*entitlement.Denial, error) {
	status, err := s.GetStatus(ctx, orgID)
	if err != nil {
		return nil, err
	}

	if !pol.AllowTrial && status.Status != subscription.StatusActive {
		return &entitlement.Denial{Reason: entitlement.ReasonInactive}, nil
	}

	// The stored status can lag behind the sweep; the period-end date is
	// re-derived here so a stale ACTIVE flag never grants expired access.
	if !status.IsActive || status.IsExpired {
		grace := status.Grace
		if grace.InGracePeriod && subscription.OperationAllowedInGrace(pol.OperationOrDefault()) {
			return nil, nil
		}
		if status.IsExpired {
			return &entitlement.Denial{Reason: entitlement.ReasonExpired, Grace: &grace}, nil
		}
		return &entitlement.Denial{Reason: entitlement.ReasonInactive}, nil
	}

	if pol.RequireFeature != "" {
		if !status.Features[pol.RequireFeature] {
			return &entitlement.Denial{
				Reason:   entitlement.ReasonFeatureDenied,
				Feature:  pol.RequireFeature,
				PlanName: status.PlanName,
			}, nil
		}
	}

	if pol.RequireLimit != nil {
		check, err := s.CheckLimit(ctx, orgID, pol.RequireLimit.Metric, pol.RequireLimit.Amount)
		if err != nil {
			return nil, err
		}
		if !check.Allowed {
			return &entitlement.Denial{
				Reason:       entitlement.ReasonLimitExceeded,
				Metric:       pol.RequireLimit.Metric,
				CurrentUsage: check.CurrentUsage,
				Limit:        check.Limit,
				Requested:    check.Requested,
			}, nil
		}
	}

	return nil, nil
}

func (s *EntitlementService) currentUsage(ctx context.Context, orgID shared.ID, metric usage.Metric) (int64, error) {
	switch metric {
	case usage.MetricRestaurants:
		count, err := s.restaurantCounts.CountActive(ctx, orgID)
		if err != nil {
			return 0, fmt.Errorf("failed to count restaurants: %w", err)
		}
		return count, nil
	case usage.MetricProducts:
		count, err := s.productCounts.CountActive(ctx, orgID)
		if err != nil {
			return 0, fmt.Errorf("failed to count products: %w", err)
		}
		return count, nil
	case usage.MetricAPICalls:
		record, err := s.usageRepo.Get(ctx, orgID, metric, usage.MonthStart(s.clock.Now()))
		if errors.Is(err, shared.ErrNotFound) {
			return 0, nil
		}
		if err != nil {
			return 0, fmt.Errorf("failed to read usage ledger: %w", err)
		}
		return record.Count, nil
	default:
		return 0, fmt.Errorf("%w: unknown metric %q", shared.ErrValidation, metric)
	}
}
