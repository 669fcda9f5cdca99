package handler

import (
	"encoding/csv"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/menucraft/api/internal/app"
	httpinfra "github.com/menucraft/api/internal/infra/http"
	"github.com/menucraft/api/pkg/apierror"
	"github.com/menucraft/api/pkg/domain/product"
	"github.com/menucraft/api/pkg/domain/shared"
	"github.com/menucraft/api/pkg/logger"
	"github.com/menucraft/api/pkg/validator"
)

// ProductHandler handles menu product CRUD and export.
type ProductHandler struct {
	service   *app.ProductService
	validator *validator.Validator
	logger    *logger.Logger
}

// NewProductHandler creates a new product handler.
func NewProductHandler(svc *app.ProductService, v *validator.Validator, log *logger.Logger) *ProductHandler {
	return &ProductHandler{
		service:   svc,
		validator: v,
		logger:    log,
	}
}

// ProductResponse represents a product in API responses.
type ProductResponse struct {
	ID           string    `json:"id"`
	RestaurantID string    `json:"restaurant_id"`
	Name         string    `json:"name"`
	Description  string    `json:"description,omitempty"`
	PriceCents   int64     `json:"price_cents"`
	Allergens    []string  `json:"allergens"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func toProductResponse(p *product.Product) ProductResponse {
	allergens := p.Allergens()
	if allergens == nil {
		allergens = []string{}
	}
	return ProductResponse{
		ID:           p.ID().String(),
		RestaurantID: p.RestaurantID().String(),
		Name:         p.Name(),
		Description:  p.Description(),
		PriceCents:   p.PriceCents(),
		Allergens:    allergens,
		Active:       p.Active(),
		CreatedAt:    p.CreatedAt(),
		UpdatedAt:    p.UpdatedAt(),
	}
}

// Create handles POST /api/v1/products. The product limit is enforced by the
// entitlement middleware before the request reaches here.
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	orgID, ok := organizationFromContext(w, r)
	if !ok {
		return
	}

	var req app.CreateProductInput
	if err := decodeJSON(r, &req); err != nil {
		apierror.BadRequest("Invalid request body").WriteJSON(w)
		return
	}
	if !validateStruct(w, h.validator, req) {
		return
	}

	p, err := h.service.Create(r.Context(), orgID, req)
	if err != nil {
		handleServiceError(w, h.logger, "Product", err)
		return
	}
	writeJSONResponse(w, http.StatusCreated, toProductResponse(p))
}

// Get handles GET /api/v1/products/{id}.
func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	orgID, ok := organizationFromContext(w, r)
	if !ok {
		return
	}

	id, err := shared.IDFromString(httpinfra.PathParam(r, "id"))
	if err != nil {
		apierror.BadRequest("Invalid product ID").WriteJSON(w)
		return
	}

	p, err := h.service.Get(r.Context(), orgID, id)
	if err != nil {
		handleServiceError(w, h.logger, "Product", err)
		return
	}
	writeJSONResponse(w, http.StatusOK, toProductResponse(p))
}

// List handles GET /api/v1/products.
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	orgID, ok := organizationFromContext(w, r)
	if !ok {
		return
	}

	p := parsePagination(r)
	products, total, err := h.service.List(r.Context(), orgID, p)
	if err != nil {
		handleServiceError(w, h.logger, "Products", err)
		return
	}

	data := make([]ProductResponse, 0, len(products))
	for _, pr := range products {
		data = append(data, toProductResponse(pr))
	}
	writeJSONResponse(w, http.StatusOK, newListResponse(data, total, p))
}

// Update handles PATCH /api/v1/products/{id}.
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	orgID, ok := organizationFromContext(w, r)
	if !ok {
		return
	}

	id, err := shared.IDFromString(httpinfra.PathParam(r, "id"))
	if err != nil {
		apierror.BadRequest("Invalid product ID").WriteJSON(w)
		return
	}

	var req app.UpdateProductInput
	if err := decodeJSON(r, &req); err != nil {
		apierror.BadRequest("Invalid request body").WriteJSON(w)
		return
	}
	if !validateStruct(w, h.validator, req) {
		return
	}

	p, err := h.service.Update(r.Context(), orgID, id, req)
	if err != nil {
		handleServiceError(w, h.logger, "Product", err)
		return
	}
	writeJSONResponse(w, http.StatusOK, toProductResponse(p))
}

// Deactivate handles DELETE /api/v1/products/{id}.
func (h *ProductHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	orgID, ok := organizationFromContext(w, r)
	if !ok {
		return
	}

	id, err := shared.IDFromString(httpinfra.PathParam(r, "id"))
	if err != nil {
		apierror.BadRequest("Invalid product ID").WriteJSON(w)
		return
	}

	if err := h.service.Deactivate(r.Context(), orgID, id); err != nil {
		handleServiceError(w, h.logger, "Product", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ExportCSV handles GET /api/v1/products/export. The route carries the
// "export" operation so grace-period organizations can still pull their menu
// data out.
func (h *ProductHandler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	orgID, ok := organizationFromContext(w, r)
	if !ok {
		return
	}

	products, err := h.service.Export(r.Context(), orgID)
	if err != nil {
		handleServiceError(w, h.logger, "Products", err)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="products.csv"`)
	w.WriteHeader(http.StatusOK)

	cw := csv.NewWriter(w)
	_ = cw.Write([]string{"id", "restaurant_id", "name", "description", "price_cents", "allergens", "active"})
	for _, p := range products {
		_ = cw.Write([]string{
			p.ID().String(),
			p.RestaurantID().String(),
			p.Name(),
			p.Description(),
			strconv.FormatInt(p.PriceCents(), 10),
			strings.Join(p.Allergens(), ";"),
			strconv.FormatBool(p.Active()),
		})
	}
	cw.Flush()
}
