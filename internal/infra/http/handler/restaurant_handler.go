package handler

import (
	"net/http"
	"time"

	"github.com/menucraft/api/internal/app"
	httpinfra "github.com/menucraft/api/internal/infra/http"
	"github.com/menucraft/api/pkg/apierror"
	"github.com/menucraft/api/pkg/domain/restaurant"
	"github.com/menucraft/api/pkg/domain/shared"
	"github.com/menucraft/api/pkg/logger"
	"github.com/menucraft/api/pkg/validator"
)

// RestaurantHandler handles restaurant CRUD.
type RestaurantHandler struct {
	service   *app.RestaurantService
	validator *validator.Validator
	logger    *logger.Logger
}

// NewRestaurantHandler creates a new restaurant handler.
func NewRestaurantHandler(svc *app.RestaurantService, v *validator.Validator, log *logger.Logger) *RestaurantHandler {
	return &RestaurantHandler{
		service:   svc,
		validator: v,
		logger:    log,
	}
}

// RestaurantResponse represents a restaurant in API responses.
type RestaurantResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Address   string    `json:"address,omitempty"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toRestaurantResponse(rst *restaurant.Restaurant) RestaurantResponse {
	return RestaurantResponse{
		ID:        rst.ID().String(),
		Name:      rst.Name(),
		Address:   rst.Address(),
		Active:    rst.Active(),
		CreatedAt: rst.CreatedAt(),
		UpdatedAt: rst.UpdatedAt(),
	}
}

// Create handles POST /api/v1/restaurants. The restaurant limit is enforced
// by the entitlement middleware before the request reaches here.
func (h *RestaurantHandler) Create(w http.ResponseWriter, r *http.Request) {
	orgID, ok := organizationFromContext(w, r)
	if !ok {
		return
	}

	var req app.CreateRestaurantInput
	if err := decodeJSON(r, &req); err != nil {
		apierror.BadRequest("Invalid request body").WriteJSON(w)
		return
	}
	if !validateStruct(w, h.validator, req) {
		return
	}

	rst, err := h.service.Create(r.Context(), orgID, req)
	if err != nil {
		handleServiceError(w, h.logger, "Restaurant", err)
		return
	}
	writeJSONResponse(w, http.StatusCreated, toRestaurantResponse(rst))
}

// Get handles GET /api/v1/restaurants/{id}.
func (h *RestaurantHandler) Get(w http.ResponseWriter, r *http.Request) {
	orgID, ok := organizationFromContext(w, r)
	if !ok {
		return
	}

	id, err := shared.IDFromString(httpinfra.PathParam(r, "id"))
	if err != nil {
		apierror.BadRequest("Invalid restaurant ID").WriteJSON(w)
		return
	}

	rst, err := h.service.Get(r.Context(), orgID, id)
	if err != nil {
		handleServiceError(w, h.logger, "Restaurant", err)
		return
	}
	writeJSONResponse(w, http.StatusOK, toRestaurantResponse(rst))
}

// List handles GET /api/v1/restaurants.
func (h *RestaurantHandler) List(w http.ResponseWriter, r *http.Request) {
	orgID, ok := organizationFromContext(w, r)
	if !ok {
		return
	}

	p := parsePagination(r)
	restaurants, total, err := h.service.List(r.Context(), orgID, p)
	if err != nil {
		handleServiceError(w, h.logger, "Restaurants", err)
		return
	}

	data := make([]RestaurantResponse, 0, len(restaurants))
	for _, rst := range restaurants {
		data = append(data, toRestaurantResponse(rst))
	}
	writeJSONResponse(w, http.StatusOK, newListResponse(data, total, p))
}

// RenameRestaurantRequest is the rename payload.
type RenameRestaurantRequest struct {
	Name string `json:"name" validate:"required,min=1,max=200"`
}

// Rename handles PATCH /api/v1/restaurants/{id}.
func (h *RestaurantHandler) Rename(w http.ResponseWriter, r *http.Request) {
	orgID, ok := organizationFromContext(w, r)
	if !ok {
		return
	}

	id, err := shared.IDFromString(httpinfra.PathParam(r, "id"))
	if err != nil {
		apierror.BadRequest("Invalid restaurant ID").WriteJSON(w)
		return
	}

	var req RenameRestaurantRequest
	if err := decodeJSON(r, &req); err != nil {
		apierror.BadRequest("Invalid request body").WriteJSON(w)
		return
	}
	if !validateStruct(w, h.validator, req) {
		return
	}

	rst, err := h.service.Rename(r.Context(), orgID, id, req.Name)
	if err != nil {
		handleServiceError(w, h.logger, "Restaurant", err)
		return
	}
	writeJSONResponse(w, http.StatusOK, toRestaurantResponse(rst))
}

// Deactivate handles DELETE /api/v1/restaurants/{id}. Rows are never
// deleted; a deactivated restaurant stops counting against the plan limit.
func (h *RestaurantHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	orgID, ok := organizationFromContext(w, r)
	if !ok {
		return
	}

	id, err := shared.IDFromString(httpinfra.PathParam(r, "id"))
	if err != nil {
		apierror.BadRequest("Invalid restaurant ID").WriteJSON(w)
		return
	}

	if err := h.service.Deactivate(r.Context(), orgID, id); err != nil {
		handleServiceError(w, h.logger, "Restaurant", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
