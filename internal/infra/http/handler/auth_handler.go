package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/menucraft/api/internal/app"
	"github.com/menucraft/api/internal/infra/http/middleware"
	"github.com/menucraft/api/pkg/apierror"
	"github.com/menucraft/api/pkg/domain/shared"
	"github.com/menucraft/api/pkg/domain/user"
	"github.com/menucraft/api/pkg/logger"
	"github.com/menucraft/api/pkg/validator"
)

// AuthHandler handles login, token refresh, and logout.
type AuthHandler struct {
	service   *app.AuthService
	users     user.Repository
	validator *validator.Validator
	logger    *logger.Logger
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(svc *app.AuthService, users user.Repository, v *validator.Validator, log *logger.Logger) *AuthHandler {
	return &AuthHandler{
		service:   svc,
		users:     users,
		validator: v,
		logger:    log,
	}
}

// UserResponse represents a user in API responses.
type UserResponse struct {
	ID             string     `json:"id"`
	OrganizationID string     `json:"organization_id"`
	Email          string     `json:"email"`
	Name           string     `json:"name"`
	Status         string     `json:"status"`
	LastLoginAt    *time.Time `json:"last_login_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

func toUserResponse(u *user.User) UserResponse {
	return UserResponse{
		ID:             u.ID().String(),
		OrganizationID: u.OrganizationID().String(),
		Email:          u.Email(),
		Name:           u.Name(),
		Status:         u.Status().String(),
		LastLoginAt:    u.LastLoginAt(),
		CreatedAt:      u.CreatedAt(),
	}
}

// LoginRequest is the login payload.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse bundles the token pair with the authenticated user.
type LoginResponse struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	ExpiresIn    int64        `json:"expires_in"`
	User         UserResponse `json:"user"`
}

// Login handles POST /api/v1/auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		apierror.BadRequest("Invalid request body").WriteJSON(w)
		return
	}
	if !validateStruct(w, h.validator, req) {
		return
	}

	pair, u, err := h.service.Login(r.Context(), req.Email, req.Password)
	if errors.Is(err, app.ErrInvalidCredentials) {
		apierror.Unauthorized("Invalid email or password").WriteJSON(w)
		return
	}
	if err != nil {
		handleServiceError(w, h.logger, "User", err)
		return
	}

	writeJSONResponse(w, http.StatusOK, LoginResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresIn:    pair.ExpiresIn,
		User:         toUserResponse(u),
	})
}

// RefreshRequest is the token refresh payload. The user ID travels with the
// refresh token because the access token may already be expired.
type RefreshRequest struct {
	UserID       string `json:"user_id" validate:"required,uuid"`
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// Refresh handles POST /api/v1/auth/refresh.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if err := decodeJSON(r, &req); err != nil {
		apierror.BadRequest("Invalid request body").WriteJSON(w)
		return
	}
	if !validateStruct(w, h.validator, req) {
		return
	}

	userID, err := shared.IDFromString(req.UserID)
	if err != nil {
		apierror.BadRequest("Invalid user ID").WriteJSON(w)
		return
	}

	pair, err := h.service.Refresh(r.Context(), userID, req.RefreshToken)
	if errors.Is(err, app.ErrInvalidCredentials) {
		apierror.Unauthorized("Invalid refresh token").WriteJSON(w)
		return
	}
	if err != nil {
		handleServiceError(w, h.logger, "User", err)
		return
	}
	writeJSONResponse(w, http.StatusOK, pair)
}

// LogoutRequest is the logout payload.
type LogoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// Logout handles POST /api/v1/auth/logout. The refresh token is optional;
// the access token is always blacklisted.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetClaims(r.Context())
	if claims == nil {
		apierror.Unauthorized("Authentication required").WriteJSON(w)
		return
	}

	var req LogoutRequest
	if r.ContentLength > 0 {
		if err := decodeJSON(r, &req); err != nil {
			apierror.BadRequest("Invalid request body").WriteJSON(w)
			return
		}
	}

	if err := h.service.Logout(r.Context(), claims, req.RefreshToken); err != nil {
		handleServiceError(w, h.logger, "Session", err)
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]string{"message": "Logged out"})
}

// Me handles GET /api/v1/auth/me.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, err := shared.IDFromString(middleware.GetUserID(r.Context()))
	if err != nil {
		apierror.Unauthorized("Authentication required").WriteJSON(w)
		return
	}

	u, err := h.users.GetByID(r.Context(), userID)
	if err != nil {
		handleServiceError(w, h.logger, "User", err)
		return
	}
	writeJSONResponse(w, http.StatusOK, toUserResponse(u))
}
