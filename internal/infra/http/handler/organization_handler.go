package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/menucraft/api/internal/app"
	"github.com/menucraft/api/internal/infra/jobs"
	"github.com/menucraft/api/pkg/apierror"
	"github.com/menucraft/api/pkg/domain/organization"
	"github.com/menucraft/api/pkg/logger"
	"github.com/menucraft/api/pkg/validator"
)

// OrganizationHandler handles signup and organization management.
type OrganizationHandler struct {
	service   *app.OrganizationService
	jobs      *jobs.Client
	validator *validator.Validator
	logger    *logger.Logger
}

// NewOrganizationHandler creates a new organization handler. The jobs client
// may be nil, in which case the welcome email is skipped.
func NewOrganizationHandler(svc *app.OrganizationService, jc *jobs.Client, v *validator.Validator, log *logger.Logger) *OrganizationHandler {
	return &OrganizationHandler{
		service:   svc,
		jobs:      jc,
		validator: v,
		logger:    log,
	}
}

// OrganizationResponse represents an organization in API responses.
type OrganizationResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toOrganizationResponse(o *organization.Organization) OrganizationResponse {
	return OrganizationResponse{
		ID:        o.ID().String(),
		Name:      o.Name(),
		Slug:      o.Slug(),
		CreatedAt: o.CreatedAt(),
		UpdatedAt: o.UpdatedAt(),
	}
}

// OnboardResponse is what signup returns.
type OnboardResponse struct {
	Organization OrganizationResponse `json:"organization"`
	Owner        UserResponse         `json:"owner"`
	PlanTier     string               `json:"plan_tier"`
	TrialEndsAt  time.Time            `json:"trial_ends_at"`
}

// Onboard handles POST /api/v1/signup. It creates the organization, the
// owner account, and the trial subscription, then queues the welcome email.
func (h *OrganizationHandler) Onboard(w http.ResponseWriter, r *http.Request) {
	var req app.OnboardInput
	if err := decodeJSON(r, &req); err != nil {
		apierror.BadRequest("Invalid request body").WriteJSON(w)
		return
	}
	if !validateStruct(w, h.validator, req) {
		return
	}

	result, err := h.service.Onboard(r.Context(), req)
	if err != nil {
		handleServiceError(w, h.logger, "Organization", err)
		return
	}

	if h.jobs != nil {
		payload := jobs.WelcomeEmailPayload{
			UserEmail: result.Owner.Email(),
			UserName:  result.Owner.Name(),
			OrgName:   result.Organization.Name(),
			PlanName:  result.Subscription.PlanTier().String(),
			TrialDays: int(time.Until(result.Subscription.CurrentPeriodEnd()).Hours() / 24),
		}
		ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), 5*time.Second)
		defer cancel()
		if err := h.jobs.EnqueueWelcomeEmail(ctx, payload); err != nil {
			h.logger.Warn("failed to queue welcome email", "organization_id", result.Organization.ID(), "error", err)
		}
	}

	writeJSONResponse(w, http.StatusCreated, OnboardResponse{
		Organization: toOrganizationResponse(result.Organization),
		Owner:        toUserResponse(result.Owner),
		PlanTier:     result.Subscription.PlanTier().String(),
		TrialEndsAt:  result.Subscription.CurrentPeriodEnd(),
	})
}

// Get handles GET /api/v1/organization. It returns the caller's own
// organization; there is no cross-organization read.
func (h *OrganizationHandler) Get(w http.ResponseWriter, r *http.Request) {
	orgID, ok := organizationFromContext(w, r)
	if !ok {
		return
	}

	org, err := h.service.GetByID(r.Context(), orgID)
	if err != nil {
		handleServiceError(w, h.logger, "Organization", err)
		return
	}
	writeJSONResponse(w, http.StatusOK, toOrganizationResponse(org))
}

// RenameOrganizationRequest is the rename payload.
type RenameOrganizationRequest struct {
	Name string `json:"name" validate:"required,min=2,max=100"`
}

// Rename handles PATCH /api/v1/organization.
func (h *OrganizationHandler) Rename(w http.ResponseWriter, r *http.Request) {
	orgID, ok := organizationFromContext(w, r)
	if !ok {
		return
	}

	var req RenameOrganizationRequest
	if err := decodeJSON(r, &req); err != nil {
		apierror.BadRequest("Invalid request body").WriteJSON(w)
		return
	}
	if !validateStruct(w, h.validator, req) {
		return
	}

	org, err := h.service.Rename(r.Context(), orgID, req.Name)
	if err != nil {
		handleServiceError(w, h.logger, "Organization", err)
		return
	}
	writeJSONResponse(w, http.StatusOK, toOrganizationResponse(org))
}
