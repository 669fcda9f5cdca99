package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/menucraft/api/pkg/apierror"
	"github.com/menucraft/api/pkg/jwt"
	"github.com/menucraft/api/pkg/logger"
)

// Auth-related context keys.
const (
	UserIDKey                           = logger.ContextKeyUserID
	OrganizationIDKey logger.ContextKey = "organization_id"
	EmailKey          logger.ContextKey = "email"
	ClaimsKey         logger.ContextKey = "jwt_claims"
)

// GetUserID extracts the authenticated user ID from context.
func GetUserID(ctx context.Context) string {
	if id, ok := ctx.Value(UserIDKey).(string); ok {
		return id
	}
	return ""
}

// GetOrganizationID extracts the organization ID from context.
func GetOrganizationID(ctx context.Context) string {
	if id, ok := ctx.Value(OrganizationIDKey).(string); ok {
		return id
	}
	return ""
}

// GetEmail extracts the user email from context.
func GetEmail(ctx context.Context) string {
	if email, ok := ctx.Value(EmailKey).(string); ok {
		return email
	}
	return ""
}

// GetClaims extracts the verified JWT claims from context.
func GetClaims(ctx context.Context) *jwt.Claims {
	if claims, ok := ctx.Value(ClaimsKey).(*jwt.Claims); ok {
		return claims
	}
	return nil
}

// TokenRevocations checks whether a verified token has been revoked.
// Implemented by the auth service over the Redis token store.
type TokenRevocations interface {
	IsRevoked(ctx context.Context, claims *jwt.Claims) (bool, error)
}

// Authenticator verifies bearer tokens and populates request context.
type Authenticator struct {
	tokens      *jwt.Manager
	revocations TokenRevocations
	logger      *logger.Logger
}

// NewAuthenticator creates an Authenticator.
func NewAuthenticator(tokens *jwt.Manager, revocations TokenRevocations, log *logger.Logger) *Authenticator {
	return &Authenticator{
		tokens:      tokens,
		revocations: revocations,
		logger:      log.With("component", "auth_middleware"),
	}
}

// RequireAuth rejects requests without a valid, unrevoked bearer token.
func (a *Authenticator) RequireAuth() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				AuthFailuresTotal.WithLabelValues("missing_token").Inc()
				apierror.Unauthorized("Authentication required").WriteJSON(w)
				return
			}

			claims, err := a.tokens.Verify(token)
			if err != nil {
				AuthFailuresTotal.WithLabelValues("invalid_token").Inc()
				apierror.Unauthorized("Invalid or expired token").WriteJSON(w)
				return
			}

			if a.revocations != nil {
				revoked, err := a.revocations.IsRevoked(r.Context(), claims)
				if err != nil {
					// Fail closed: an unverifiable token grants nothing.
					a.logger.Error("revocation check failed",
						"error", err,
						"request_id", GetRequestID(r.Context()),
					)
					apierror.ServiceUnavailable("Unable to verify session").WriteJSON(w)
					return
				}
				if revoked {
					AuthFailuresTotal.WithLabelValues("revoked_token").Inc()
					apierror.Unauthorized("Token has been revoked").WriteJSON(w)
					return
				}
			}

			ctx := r.Context()
			ctx = context.WithValue(ctx, UserIDKey, claims.UserID)
			ctx = context.WithValue(ctx, OrganizationIDKey, claims.OrganizationID)
			ctx = context.WithValue(ctx, EmailKey, claims.Email)
			ctx = context.WithValue(ctx, ClaimsKey, claims)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// bearerToken extracts the token from the Authorization header.
func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
