package handler

import (
	"net/http"

	"github.com/menucraft/api/internal/app"
	"github.com/menucraft/api/pkg/domain/plan"
	"github.com/menucraft/api/pkg/logger"
)

// PlanHandler serves the public plan catalog.
type PlanHandler struct {
	service *app.PlanService
	logger  *logger.Logger
}

// NewPlanHandler creates a new plan handler.
func NewPlanHandler(svc *app.PlanService, log *logger.Logger) *PlanHandler {
	return &PlanHandler{service: svc, logger: log}
}

// PlansResponse wraps the catalog listing.
type PlansResponse struct {
	Plans []plan.Snapshot `json:"plans"`
}

// List handles GET /api/v1/plans. Only active plans are shown; retired tiers
// stay resolvable for existing subscribers but are not offered.
func (h *PlanHandler) List(w http.ResponseWriter, r *http.Request) {
	plans, err := h.service.List(r.Context(), true)
	if err != nil {
		handleServiceError(w, h.logger, "Plans", err)
		return
	}

	snapshots := make([]plan.Snapshot, 0, len(plans))
	for _, p := range plans {
		snapshots = append(snapshots, p.Snapshot())
	}
	writeJSONResponse(w, http.StatusOK, PlansResponse{Plans: snapshots})
}
