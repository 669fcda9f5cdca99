// Package organization defines the tenant entity of the platform. Every
// restaurant, product and subscription belongs to exactly one organization.
package organization

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/menucraft/api/pkg/domain/shared"
)

var slugRegex = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// Organization represents a customer account.
type Organization struct {
	id        shared.ID
	name      string
	slug      string
	createdBy string
	createdAt time.Time
	updatedAt time.Time
}

// New creates a new Organization entity.
func New(name, slug, createdBy string) (*Organization, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", shared.ErrValidation)
	}
	if slug == "" {
		slug = GenerateSlug(name)
	}
	if !IsValidSlug(slug) {
		return nil, fmt.Errorf("%w: invalid slug format (use lowercase letters, numbers, and hyphens)", shared.ErrValidation)
	}
	if createdBy == "" {
		return nil, fmt.Errorf("%w: createdBy is required", shared.ErrValidation)
	}

	now := time.Now().UTC()
	return &Organization{
		id:        shared.NewID(),
		name:      name,
		slug:      strings.ToLower(slug),
		createdBy: createdBy,
		createdAt: now,
		updatedAt: now,
	}, nil
}

// Reconstitute recreates an Organization from persistence.
func Reconstitute(id shared.ID, name, slug, createdBy string, createdAt, updatedAt time.Time) *Organization {
	return &Organization{
		id:        id,
		name:      name,
		slug:      slug,
		createdBy: createdBy,
		createdAt: createdAt,
		updatedAt: updatedAt,
	}
}

// ID returns the organization ID.
func (o *Organization) ID() shared.ID {
	return o.id
}

// Name returns the organization name.
func (o *Organization) Name() string {
	return o.name
}

// Slug returns the URL-friendly identifier.
func (o *Organization) Slug() string {
	return o.slug
}

// CreatedBy returns the user ID that created the organization.
func (o *Organization) CreatedBy() string {
	return o.createdBy
}

// CreatedAt returns the creation timestamp. Virtual trial subscriptions are
// anchored here.
func (o *Organization) CreatedAt() time.Time {
	return o.createdAt
}

// UpdatedAt returns the last update timestamp.
func (o *Organization) UpdatedAt() time.Time {
	return o.updatedAt
}

// Rename updates the organization name.
func (o *Organization) Rename(name string) error {
	if name == "" {
		return fmt.Errorf("%w: name is required", shared.ErrValidation)
	}
	o.name = name
	o.updatedAt = time.Now().UTC()
	return nil
}

// IsValidSlug checks if a slug is valid.
func IsValidSlug(slug string) bool {
	if len(slug) < 3 || len(slug) > 100 {
		return false
	}
	return slugRegex.MatchString(slug)
}

// GenerateSlug derives a slug from a name.
func GenerateSlug(name string) string {
	slug := strings.ToLower(name)
	slug = regexp.MustCompile(`[^a-z0-9]+`).ReplaceAllString(slug, "-")
	slug = strings.Trim(slug, "-")
	if len(slug) > 100 {
		slug = slug[:100]
	}
	return slug
}

// Repository defines persistence operations for organizations.
type Repository interface {
	Create(ctx context.Context, o *Organization) error
	GetByID(ctx context.Context, id shared.ID) (*Organization, error)
	GetBySlug(ctx context.Context, slug string) (*Organization, error)
	GetByUser(ctx context.Context, userID string) (*Organization, error)
	Update(ctx context.Context, o *Organization) error
	List(ctx context.Context, offset, limit int) ([]*Organization, int64, error)
}
