package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/menucraft/api/pkg/domain/organization"
	"github.com/menucraft/api/pkg/domain/shared"
	"github.com/menucraft/api/pkg/domain/subscription"
	"github.com/menucraft/api/pkg/domain/user"
	"github.com/menucraft/api/pkg/logger"
	"github.com/menucraft/api/pkg/password"
)

// OnboardInput is the signup payload: one organization, one owner account.
type OnboardInput struct {
	OrganizationName string `json:"organization_name" validate:"required,min=2,max=100"`
	Email            string `json:"email" validate:"required,email"`
	Name             string `json:"name" validate:"required,min=1,max=100"`
	Password         string `json:"password" validate:"required,min=8"`
}

// OnboardResult is what signup returns.
type OnboardResult struct {
	Organization *organization.Organization
	Owner        *user.User
	Subscription *subscription.Subscription
}

// OrganizationService handles organization lifecycle and onboarding.
type OrganizationService struct {
	orgRepo  organization.Repository
	userRepo user.Repository
	subRepo  subscription.Repository
	hasher   *password.Hasher
	clock    shared.Clock
	logger   *logger.Logger
}

// NewOrganizationService creates a new OrganizationService.
func NewOrganizationService(
	orgRepo organization.Repository,
	userRepo user.Repository,
	subRepo subscription.Repository,
	hasher *password.Hasher,
	clock shared.Clock,
	log *logger.Logger,
) *OrganizationService {
	if clock == nil {
		clock = shared.SystemClock{}
	}
	return &OrganizationService{
		orgRepo:  orgRepo,
		userRepo: userRepo,
		subRepo:  subRepo,
		hasher:   hasher,
		clock:    clock,
		logger:   log.With("service", "organization"),
	}
}

// Onboard creates the organization, its owner account, and the FREE trial
// subscription in one flow. The subscription row is written eagerly so most
// organizations never hit the virtual fallback, but the evaluator tolerates
// its absence either way.
func (s *OrganizationService) Onboard(ctx context.Context, in OnboardInput) (*OnboardResult, error) {
	if _, err := s.userRepo.GetByEmail(ctx, in.Email); err == nil {
		return nil, fmt.Errorf("%w: email already registered", shared.ErrConflict)
	} else if !errors.Is(err, shared.ErrNotFound) {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}

	slug, err := s.uniqueSlug(ctx, organization.GenerateSlug(in.OrganizationName))
	if err != nil {
		return nil, err
	}

	org, err := organization.New(in.OrganizationName, slug, in.Email)
	if err != nil {
		return nil, err
	}
	if err := s.orgRepo.Create(ctx, org); err != nil {
		return nil, fmt.Errorf("failed to create organization: %w", err)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}
	owner, err := user.New(org.ID(), in.Email, in.Name, hash)
	if err != nil {
		return nil, err
	}
	if err := s.userRepo.Create(ctx, owner); err != nil {
		return nil, fmt.Errorf("failed to create owner account: %w", err)
	}

	sub, err := subscription.New(org.ID(), s.clock.Now())
	if err != nil {
		return nil, err
	}
	if err := s.subRepo.Create(ctx, sub); err != nil {
		return nil, fmt.Errorf("failed to create trial subscription: %w", err)
	}

	s.logger.Info("organization onboarded",
		"organization_id", org.ID(), "slug", org.Slug())
	return &OnboardResult{Organization: org, Owner: owner, Subscription: sub}, nil
}

// GetByID returns an organization.
func (s *OrganizationService) GetByID(ctx context.Context, id shared.ID) (*organization.Organization, error) {
	return s.orgRepo.GetByID(ctx, id)
}

// Rename changes the organization's display name. The slug never changes;
// it is referenced from public menu URLs.
func (s *OrganizationService) Rename(ctx context.Context, id shared.ID, name string) (*organization.Organization, error) {
	org, err := s.orgRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := org.Rename(name); err != nil {
		return nil, err
	}
	if err := s.orgRepo.Update(ctx, org); err != nil {
		return nil, fmt.Errorf("failed to update organization: %w", err)
	}
	return org, nil
}

// uniqueSlug appends a numeric suffix until the slug is free.
func (s *OrganizationService) uniqueSlug(ctx context.Context, base string) (string, error) {
	slug := base
	for i := 2; ; i++ {
		_, err := s.orgRepo.GetBySlug(ctx, slug)
		if errors.Is(err, shared.ErrNotFound) {
			return slug, nil
		}
		if err != nil {
			return "", fmt.Errorf("failed to check slug: %w", err)
		}
		if i > 50 {
			return "", fmt.Errorf("%w: could not find a free slug for %q", shared.ErrConflict, base)
		}
		slug = fmt.Sprintf("%s-%d", base, i)
	}
}
