// Package jobs provides background job definitions and handlers using Asynq.
package jobs

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
)

// Task types for background jobs.
const (
	TypeBillingExpiryWarning = "billing:expiry_warning"
	TypeBillingSuspended     = "billing:suspended"
	TypeEmailWelcome         = "email:welcome"
	TypeUsageTrack           = "usage:track"
	TypeExpirySweep          = "maintenance:expiry_sweep"
	TypeUsageRetention       = "maintenance:usage_retention"
)

// ExpiryWarningPayload carries a staged expiry notice for an organization.
type ExpiryWarningPayload struct {
	OrganizationID string `json:"organization_id"`
	Severity       string `json:"severity"`
	Title          string `json:"title"`
	Message        string `json:"message"`
}

// WelcomeEmailPayload contains data for the onboarding welcome email.
type WelcomeEmailPayload struct {
	UserEmail string `json:"user_email"`
	UserName  string `json:"user_name"`
	OrgName   string `json:"org_name"`
	PlanName  string `json:"plan_name"`
	TrialDays int    `json:"trial_days"`
}

// SuspendedPayload announces that an organization's access was suspended.
type SuspendedPayload struct {
	OrganizationID string `json:"organization_id"`
}

// UsageTrackPayload records API calls against the usage ledger.
type UsageTrackPayload struct {
	OrganizationID string `json:"organization_id"`
}

// UsageRetentionPayload prunes usage ledger rows older than the retention window.
type UsageRetentionPayload struct {
	RetentionMonths int `json:"retention_months"`
}

// NewExpiryWarningTask creates an expiry warning notification task.
func NewExpiryWarningTask(payload ExpiryWarningPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal expiry warning payload: %w", err)
	}
	return asynq.NewTask(
		TypeBillingExpiryWarning,
		data,
		asynq.MaxRetry(3),
		asynq.Timeout(30*time.Second),
		asynq.Queue("email"),
	), nil
}

// NewSuspendedTask creates a suspension notification task.
func NewSuspendedTask(payload SuspendedPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal suspended payload: %w", err)
	}
	return asynq.NewTask(
		TypeBillingSuspended,
		data,
		asynq.MaxRetry(3),
		asynq.Timeout(30*time.Second),
		asynq.Queue("email"),
	), nil
}

// NewWelcomeEmailTask creates an onboarding welcome email task.
func NewWelcomeEmailTask(payload WelcomeEmailPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal welcome email payload: %w", err)
	}
	return asynq.NewTask(
		TypeEmailWelcome,
		data,
		asynq.MaxRetry(3),
		asynq.Timeout(30*time.Second),
		asynq.Queue("email"),
	), nil
}

// NewUsageTrackTask creates a usage ledger increment task.
func NewUsageTrackTask(payload UsageTrackPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal usage track payload: %w", err)
	}
	return asynq.NewTask(
		TypeUsageTrack,
		data,
		asynq.MaxRetry(5),
		asynq.Timeout(10*time.Second),
		asynq.Queue("default"),
	), nil
}

// NewExpirySweepTask creates a subscription expiry sweep task.
func NewExpirySweepTask() *asynq.Task {
	return asynq.NewTask(
		TypeExpirySweep,
		nil,
		asynq.MaxRetry(1),
		asynq.Timeout(5*time.Minute),
		asynq.Queue("maintenance"),
	)
}

// NewUsageRetentionTask creates a usage ledger retention cleanup task.
func NewUsageRetentionTask(payload UsageRetentionPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal usage retention payload: %w", err)
	}
	return asynq.NewTask(
		TypeUsageRetention,
		data,
		asynq.MaxRetry(1),
		asynq.Timeout(5*time.Minute),
		asynq.Queue("maintenance"),
	), nil
}
