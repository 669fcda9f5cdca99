package handler

import (
	"net/http"

	"github.com/menucraft/api/internal/app"
	"github.com/menucraft/api/internal/infra/http/middleware"
	"github.com/menucraft/api/pkg/apierror"
	"github.com/menucraft/api/pkg/domain/plan"
	"github.com/menucraft/api/pkg/domain/shared"
	"github.com/menucraft/api/pkg/domain/subscription"
	"github.com/menucraft/api/pkg/logger"
	"github.com/menucraft/api/pkg/validator"
)

// BillingHandler exposes subscription status and plan management.
type BillingHandler struct {
	entitlements *app.EntitlementService
	billing      *app.BillingService
	validator    *validator.Validator
	logger       *logger.Logger
}

// NewBillingHandler creates a new billing handler.
func NewBillingHandler(ent *app.EntitlementService, billing *app.BillingService, v *validator.Validator, log *logger.Logger) *BillingHandler {
	return &BillingHandler{
		entitlements: ent,
		billing:      billing,
		validator:    v,
		logger:       log,
	}
}

// actorID reads the authenticated user ID for the audit trail. A missing or
// malformed value degrades to a nil actor rather than failing the request.
func actorID(r *http.Request) *shared.ID {
	id, err := shared.IDFromString(middleware.GetUserID(r.Context()))
	if err != nil {
		return nil
	}
	return &id
}

// GetStatus handles GET /api/v1/billing/status.
func (h *BillingHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	orgID, ok := organizationFromContext(w, r)
	if !ok {
		return
	}

	status, err := h.entitlements.GetStatus(r.Context(), orgID)
	if err != nil {
		handleServiceError(w, h.logger, "Subscription", err)
		return
	}
	writeJSONResponse(w, http.StatusOK, status)
}

// GetUsage handles GET /api/v1/billing/usage.
func (h *BillingHandler) GetUsage(w http.ResponseWriter, r *http.Request) {
	orgID, ok := organizationFromContext(w, r)
	if !ok {
		return
	}

	stats, err := h.entitlements.GetUsageStats(r.Context(), orgID)
	if err != nil {
		handleServiceError(w, h.logger, "Usage", err)
		return
	}
	writeJSONResponse(w, http.StatusOK, stats)
}

// WarningsResponse wraps expiry warnings so an empty list is an empty array.
type WarningsResponse struct {
	Warnings []subscription.Warning `json:"warnings"`
}

// GetWarnings handles GET /api/v1/billing/warnings.
func (h *BillingHandler) GetWarnings(w http.ResponseWriter, r *http.Request) {
	orgID, ok := organizationFromContext(w, r)
	if !ok {
		return
	}

	warnings, err := h.billing.GetWarnings(r.Context(), orgID)
	if err != nil {
		handleServiceError(w, h.logger, "Subscription", err)
		return
	}
	if warnings == nil {
		warnings = []subscription.Warning{}
	}
	writeJSONResponse(w, http.StatusOK, WarningsResponse{Warnings: warnings})
}

// ChangePlanRequest is the plan change payload.
type ChangePlanRequest struct {
	Tier string `json:"tier" validate:"required"`
}

// ChangePlan handles POST /api/v1/billing/plan. Downgrades are refused while
// current usage exceeds the target plan's limits.
func (h *BillingHandler) ChangePlan(w http.ResponseWriter, r *http.Request) {
	orgID, ok := organizationFromContext(w, r)
	if !ok {
		return
	}

	var req ChangePlanRequest
	if err := decodeJSON(r, &req); err != nil {
		apierror.BadRequest("Invalid request body").WriteJSON(w)
		return
	}
	if !validateStruct(w, h.validator, req) {
		return
	}

	tier, err := plan.ParseTier(req.Tier)
	if err != nil {
		apierror.BadRequest("Unknown plan tier").WriteJSON(w)
		return
	}

	status, err := h.billing.ChangePlan(r.Context(), orgID, actorID(r), tier)
	if err != nil {
		handleServiceError(w, h.logger, "Plan", err)
		return
	}
	writeJSONResponse(w, http.StatusOK, status)
}

// Cancel handles POST /api/v1/billing/cancel. The subscription stays active
// until the paid period ends.
func (h *BillingHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	orgID, ok := organizationFromContext(w, r)
	if !ok {
		return
	}

	status, err := h.billing.Cancel(r.Context(), orgID, actorID(r))
	if err != nil {
		handleServiceError(w, h.logger, "Subscription", err)
		return
	}
	writeJSONResponse(w, http.StatusOK, status)
}

// Reactivate handles POST /api/v1/billing/reactivate. It undoes a pending
// cancellation before the period ends.
func (h *BillingHandler) Reactivate(w http.ResponseWriter, r *http.Request) {
	orgID, ok := organizationFromContext(w, r)
	if !ok {
		return
	}

	status, err := h.billing.Reactivate(r.Context(), orgID, actorID(r))
	if err != nil {
		handleServiceError(w, h.logger, "Subscription", err)
		return
	}
	writeJSONResponse(w, http.StatusOK, status)
}

// RestoreAccess handles POST /api/v1/billing/restore. It reopens a suspended
// subscription with a fresh paid period, standing in for a payment webhook.
func (h *BillingHandler) RestoreAccess(w http.ResponseWriter, r *http.Request) {
	orgID, ok := organizationFromContext(w, r)
	if !ok {
		return
	}

	status, err := h.billing.RestoreAccess(r.Context(), orgID, actorID(r))
	if err != nil {
		handleServiceError(w, h.logger, "Subscription", err)
		return
	}
	writeJSONResponse(w, http.StatusOK, status)
}
