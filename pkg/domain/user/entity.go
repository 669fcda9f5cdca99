// Package user provides the user account domain model. Authentication is
// local email/password only; organization membership links users to the
// tenant they operate.
package user

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/menucraft/api/pkg/domain/shared"
)

// Status represents the user account status.
type Status string

// User statuses.
const (
	StatusActive    Status = "active"
	StatusSuspended Status = "suspended"
)

// IsValid checks if the status is valid.
func (s Status) IsValid() bool {
	return s == StatusActive || s == StatusSuspended
}

// String returns the status name.
func (s Status) String() string {
	return string(s)
}

// User is a user account.
type User struct {
	id             shared.ID
	organizationID shared.ID
	email          string
	name           string
	passwordHash   string
	status         Status
	lastLoginAt    *time.Time
	createdAt      time.Time
	updatedAt      time.Time
}

// New creates a user in the given organization.
func New(organizationID shared.ID, email, name, passwordHash string) (*User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, fmt.Errorf("%w: invalid email address", shared.ErrValidation)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", shared.ErrValidation)
	}
	if organizationID.IsZero() {
		return nil, fmt.Errorf("%w: organization id is required", shared.ErrValidation)
	}
	if passwordHash == "" {
		return nil, fmt.Errorf("%w: password hash is required", shared.ErrValidation)
	}

	now := time.Now().UTC()
	return &User{
		id:             shared.NewID(),
		organizationID: organizationID,
		email:          email,
		name:           name,
		passwordHash:   passwordHash,
		status:         StatusActive,
		createdAt:      now,
		updatedAt:      now,
	}, nil
}

// Reconstitute recreates a User from persistence.
func Reconstitute(
	id, organizationID shared.ID,
	email, name, passwordHash string,
	status Status,
	lastLoginAt *time.Time,
	createdAt, updatedAt time.Time,
) *User {
	return &User{
		id:             id,
		organizationID: organizationID,
		email:          email,
		name:           name,
		passwordHash:   passwordHash,
		status:         status,
		lastLoginAt:    lastLoginAt,
		createdAt:      createdAt,
		updatedAt:      updatedAt,
	}
}

// ID returns the user ID.
func (u *User) ID() shared.ID { return u.id }

// OrganizationID returns the organization the user belongs to.
func (u *User) OrganizationID() shared.ID { return u.organizationID }

// Email returns the user's email address.
func (u *User) Email() string { return u.email }

// Name returns the user's display name.
func (u *User) Name() string { return u.name }

// PasswordHash returns the stored password hash.
func (u *User) PasswordHash() string { return u.passwordHash }

// Status returns the account status.
func (u *User) Status() Status { return u.status }

// LastLoginAt returns the last login time, nil if never logged in.
func (u *User) LastLoginAt() *time.Time { return u.lastLoginAt }

// CreatedAt returns the creation timestamp.
func (u *User) CreatedAt() time.Time { return u.createdAt }

// UpdatedAt returns the last update timestamp.
func (u *User) UpdatedAt() time.Time { return u.updatedAt }

// IsActive reports whether the account may sign in.
func (u *User) IsActive() bool { return u.status == StatusActive }

// RecordLogin updates the last-login timestamp.
func (u *User) RecordLogin(now time.Time) {
	now = now.UTC()
	u.lastLoginAt = &now
	u.updatedAt = now
}

// ChangePassword replaces the stored password hash.
func (u *User) ChangePassword(passwordHash string) error {
	if passwordHash == "" {
		return fmt.Errorf("%w: password hash is required", shared.ErrValidation)
	}
	u.passwordHash = passwordHash
	u.updatedAt = time.Now().UTC()
	return nil
}

// Suspend blocks the account from signing in.
func (u *User) Suspend() {
	u.status = StatusSuspended
	u.updatedAt = time.Now().UTC()
}

// Repository defines persistence operations for users.
type Repository interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id shared.ID) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	Update(ctx context.Context, u *User) error
}
