package app

import (
	"context"
	"fmt"
	"time"

	"github.com/menucraft/api/internal/infra/redis"
	"github.com/menucraft/api/pkg/domain/plan"
	"github.com/menucraft/api/pkg/logger"
)

const (
	planCachePrefix = "plan"
	planCacheTTL    = 5 * time.Minute
)

// PlanService provides cached access to the plan catalog. The catalog
// changes only on deploys or admin edits, so a short TTL plus explicit
// invalidation on Upsert keeps entitlement checks off the database for the
// common case.
type PlanService struct {
	repo   plan.Repository
	cache  *redis.Cache[plan.Snapshot]
	logger *logger.Logger
}

// NewPlanService creates a plan service. redisClient may be nil; the
// service then reads straight from the repository.
func NewPlanService(repo plan.Repository, redisClient *redis.Client, log *logger.Logger) (*PlanService, error) {
	s := &PlanService{
		repo:   repo,
		logger: log.With("service", "plan"),
	}
	if redisClient != nil {
		cache, err := redis.NewCache[plan.Snapshot](redisClient, planCachePrefix, planCacheTTL)
		if err != nil {
			return nil, fmt.Errorf("failed to create plan cache: %w", err)
		}
		s.cache = cache
	}
	return s, nil
}

// GetByTier resolves a plan by tier, cache first.
func (s *PlanService) GetByTier(ctx context.Context, tier plan.Tier) (*plan.Plan, error) {
	if s.cache == nil {
		return s.repo.GetByTier(ctx, tier)
	}

	snapshot, err := s.cache.GetOrSet(ctx, tier.String(), func(ctx context.Context) (*plan.Snapshot, error) {
		p, err := s.repo.GetByTier(ctx, tier)
		if err != nil {
			return nil, err
		}
		snap := p.Snapshot()
		return &snap, nil
	})
	if err != nil {
		return nil, err
	}
	return plan.FromSnapshot(*snapshot), nil
}

// List returns the catalog, bypassing the cache. Only the billing page and
// the admin CLI call it.
func (s *PlanService) List(ctx context.Context, activeOnly bool) ([]*plan.Plan, error) {
	return s.repo.List(ctx, activeOnly)
}

// Upsert writes a plan and invalidates its cache entry.
func (s *PlanService) Upsert(ctx context.Context, p *plan.Plan) error {
	if err := s.repo.Upsert(ctx, p); err != nil {
		return err
	}
	if s.cache != nil {
		if err := s.cache.Delete(ctx, p.Tier().String()); err != nil {
			s.logger.Warn("failed to invalidate plan cache",
				"tier", p.Tier(), "error", err)
		}
	}
	return nil
}
