// Package audit records billing-relevant actions for later review. Entries
// are append-only; there is no update or delete.
package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/menucraft/api/pkg/domain/shared"
)

// Action identifies what happened.
type Action string

// Audited actions.
const (
	ActionPlanChanged       Action = "plan.changed"
	ActionPlanChangeDenied  Action = "plan.change_denied"
	ActionCancelScheduled   Action = "subscription.cancel_scheduled"
	ActionCancelReverted    Action = "subscription.cancel_reverted"
	ActionAccessRestored    Action = "subscription.access_restored"
	ActionMarkedPastDue     Action = "subscription.marked_past_due"
	ActionEnforcementDenied Action = "enforcement.denied"
)

// Entry is a single audit record.
type Entry struct {
	id             shared.ID
	organizationID shared.ID
	actorID        *shared.ID // nil for system actions (sweeps, controllers)
	action         Action
	message        string
	metadata       map[string]any
	createdAt      time.Time
}

// NewEntry creates an audit entry.
func NewEntry(organizationID shared.ID, actorID *shared.ID, action Action, message string) (*Entry, error) {
	if organizationID.IsZero() {
		return nil, fmt.Errorf("%w: organization id is required", shared.ErrValidation)
	}
	if action == "" {
		return nil, fmt.Errorf("%w: action is required", shared.ErrValidation)
	}
	return &Entry{
		id:             shared.NewID(),
		organizationID: organizationID,
		actorID:        actorID,
		action:         action,
		message:        message,
		metadata:       make(map[string]any),
		createdAt:      time.Now().UTC(),
	}, nil
}

// Reconstitute recreates an Entry from persistence.
func Reconstitute(id, organizationID shared.ID, actorID *shared.ID, action Action, message string, metadata map[string]any, createdAt time.Time) *Entry {
	if metadata == nil {
		metadata = make(map[string]any)
	}
	return &Entry{
		id:             id,
		organizationID: organizationID,
		actorID:        actorID,
		action:         action,
		message:        message,
		metadata:       metadata,
		createdAt:      createdAt,
	}
}

// WithMetadata attaches a key/value pair to the entry.
func (e *Entry) WithMetadata(key string, value any) *Entry {
	e.metadata[key] = value
	return e
}

// ID returns the entry ID.
func (e *Entry) ID() shared.ID { return e.id }

// OrganizationID returns the organization the entry belongs to.
func (e *Entry) OrganizationID() shared.ID { return e.organizationID }

// ActorID returns the acting user, nil for system actions.
func (e *Entry) ActorID() *shared.ID { return e.actorID }

// Action returns the audited action.
func (e *Entry) Action() Action { return e.action }

// Message returns the human-readable description.
func (e *Entry) Message() string { return e.message }

// Metadata returns the attached context.
func (e *Entry) Metadata() map[string]any { return e.metadata }

// CreatedAt returns when the entry was recorded.
func (e *Entry) CreatedAt() time.Time { return e.createdAt }

// Filter narrows List results.
type Filter struct {
	OrganizationID *shared.ID
	Action         *Action
	Since          *time.Time
}

// Repository defines persistence operations for audit entries.
type Repository interface {
	Create(ctx context.Context, e *Entry) error
	List(ctx context.Context, filter Filter, page, perPage int) ([]*Entry, int64, error)
}
