package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/menucraft/api/internal/infra/http/middleware"
	"github.com/menucraft/api/pkg/apierror"
	"github.com/menucraft/api/pkg/domain/shared"
	"github.com/menucraft/api/pkg/logger"
	"github.com/menucraft/api/pkg/pagination"
	"github.com/menucraft/api/pkg/validator"
)

// ListResponse is the envelope for paginated list endpoints.
type ListResponse[T any] struct {
	Data       []T   `json:"data"`
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	PerPage    int   `json:"per_page"`
	TotalPages int   `json:"total_pages"`
}

func newListResponse[T any](data []T, total int64, p pagination.Pagination) ListResponse[T] {
	if data == nil {
		data = []T{}
	}
	return ListResponse[T]{
		Data:       data,
		Total:      total,
		Page:       p.Page,
		PerPage:    p.PerPage,
		TotalPages: p.TotalPages(total),
	}
}

// writeJSONResponse writes data as JSON with the given status code.
func writeJSONResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// decodeJSON decodes the request body into dst. Unknown fields are rejected
// so typos in payloads fail loudly instead of being silently ignored.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is empty")
		}
		return err
	}
	return nil
}

// parsePagination reads page and per_page query parameters, falling back to
// defaults on missing or malformed values.
func parsePagination(r *http.Request) pagination.Pagination {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))
	return pagination.New(page, perPage)
}

// validateStruct runs struct validation and writes the error response on
// failure. Returns false if the request should not proceed.
func validateStruct(w http.ResponseWriter, v *validator.Validator, s any) bool {
	fields, err := v.Struct(s)
	if err != nil {
		apierror.BadRequest("Validation error").WriteJSON(w)
		return false
	}
	if len(fields) > 0 {
		apierror.ValidationFailed("Validation failed", fields).WriteJSON(w)
		return false
	}
	return true
}

// handleServiceError maps domain errors onto API error responses. The
// resource name is only used for not-found messages.
func handleServiceError(w http.ResponseWriter, log *logger.Logger, resource string, err error) {
	var apiErr *apierror.Error
	switch {
	case errors.As(err, &apiErr):
		apiErr.WriteJSON(w)
	case errors.Is(err, shared.ErrNotFound):
		apierror.NotFound(resource).WriteJSON(w)
	case errors.Is(err, shared.ErrConflict), errors.Is(err, shared.ErrAlreadyExists):
		apierror.Conflict(err.Error()).WriteJSON(w)
	case errors.Is(err, shared.ErrValidation), errors.Is(err, shared.ErrInvalidInput):
		apierror.BadRequest(err.Error()).WriteJSON(w)
	case errors.Is(err, shared.ErrForbidden):
		apierror.Forbidden("Forbidden").WriteJSON(w)
	default:
		log.Error("service error", "error", err)
		apierror.InternalError(err).WriteJSON(w)
	}
}

// organizationFromContext resolves the authenticated organization ID. The
// auth middleware guarantees the value is present on protected routes, so a
// failure here means the route was wired without RequireAuth.
func organizationFromContext(w http.ResponseWriter, r *http.Request) (shared.ID, bool) {
	orgID, err := shared.IDFromString(middleware.GetOrganizationID(r.Context()))
	if err != nil {
		apierror.Unauthorized("Missing organization context").WriteJSON(w)
		return shared.ID{}, false
	}
	return orgID, true
}
