package jobs

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"

	"github.com/menucraft/api/pkg/domain/organization"
	"github.com/menucraft/api/pkg/domain/shared"
	"github.com/menucraft/api/pkg/email"
	"github.com/menucraft/api/pkg/logger"
)

// BillingTaskHandler delivers billing lifecycle emails. The recipient is
// the organization owner recorded at onboarding.
type BillingTaskHandler struct {
	orgs    organization.Repository
	sender  email.Sender
	appName string
	baseURL string
	logger  *logger.Logger
}

// NewBillingTaskHandler creates a handler for billing notification tasks.
func NewBillingTaskHandler(orgs organization.Repository, sender email.Sender, appName, baseURL string, log *logger.Logger) *BillingTaskHandler {
	return &BillingTaskHandler{
		orgs:    orgs,
		sender:  sender,
		appName: appName,
		baseURL: baseURL,
		logger:  log.With("component", "billing_tasks"),
	}
}

// HandleExpiryWarning processes an expiry warning task.
func (h *BillingTaskHandler) HandleExpiryWarning(ctx context.Context, t *asynq.Task) error {
	var payload ExpiryWarningPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal expiry warning payload: %v: %w", err, asynq.SkipRetry)
	}

	if !h.sender.IsConfigured() {
		h.logger.Warn("SMTP not configured, skipping expiry warning",
			"organization_id", payload.OrganizationID,
		)
		return nil
	}

	org, err := h.loadOrg(ctx, payload.OrganizationID)
	if err != nil {
		return err
	}

	err = h.sender.SendTemplate(ctx, org.CreatedBy(), email.TemplateExpiryWarning, email.ExpiryWarningData{
		OrgName:    org.Name(),
		Title:      payload.Title,
		Message:    payload.Message,
		BillingURL: h.baseURL + "/billing",
		AppName:    h.appName,
	})
	if err != nil {
		return fmt.Errorf("send expiry warning: %w", err)
	}

	h.logger.Info("expiry warning sent",
		"organization_id", payload.OrganizationID,
		"severity", payload.Severity,
	)
	return nil
}

// HandleSuspended processes a suspension notice task.
func (h *BillingTaskHandler) HandleSuspended(ctx context.Context, t *asynq.Task) error {
	var payload SuspendedPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal suspended payload: %v: %w", err, asynq.SkipRetry)
	}

	if !h.sender.IsConfigured() {
		h.logger.Warn("SMTP not configured, skipping suspension notice",
			"organization_id", payload.OrganizationID,
		)
		return nil
	}

	org, err := h.loadOrg(ctx, payload.OrganizationID)
	if err != nil {
		return err
	}

	err = h.sender.SendTemplate(ctx, org.CreatedBy(), email.TemplateSuspended, email.SuspendedData{
		OrgName:    org.Name(),
		BillingURL: h.baseURL + "/billing",
		AppName:    h.appName,
	})
	if err != nil {
		return fmt.Errorf("send suspension notice: %w", err)
	}

	h.logger.Info("suspension notice sent", "organization_id", payload.OrganizationID)
	return nil
}

// HandleWelcomeEmail processes an onboarding welcome email task.
func (h *BillingTaskHandler) HandleWelcomeEmail(ctx context.Context, t *asynq.Task) error {
	var payload WelcomeEmailPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal welcome email payload: %v: %w", err, asynq.SkipRetry)
	}

	if !h.sender.IsConfigured() {
		h.logger.Warn("SMTP not configured, skipping welcome email", "email", payload.UserEmail)
		return nil
	}

	err := h.sender.SendTemplate(ctx, payload.UserEmail, email.TemplateWelcome, email.WelcomeData{
		UserName:   payload.UserName,
		OrgName:    payload.OrgName,
		PlanName:   payload.PlanName,
		TrialDays:  payload.TrialDays,
		LoginURL:   h.baseURL + "/login",
		AppName:    h.appName,
		SupportURL: h.baseURL + "/support",
	})
	if err != nil {
		return fmt.Errorf("send welcome email: %w", err)
	}

	h.logger.Info("welcome email sent", "email", payload.UserEmail)
	return nil
}

func (h *BillingTaskHandler) loadOrg(ctx context.Context, id string) (*organization.Organization, error) {
	orgID, err := shared.IDFromString(id)
	if err != nil {
		return nil, fmt.Errorf("invalid organization id %q: %v: %w", id, err, asynq.SkipRetry)
	}
	org, err := h.orgs.GetByID(ctx, orgID)
	if err != nil {
		return nil, fmt.Errorf("load organization %s: %w", id, err)
	}
	return org, nil
}
