package middleware

import (
	"context"
	"net/http"

	"github.com/menucraft/api/pkg/apierror"
	"github.com/menucraft/api/pkg/domain/entitlement"
	"github.com/menucraft/api/pkg/domain/shared"
	"github.com/menucraft/api/pkg/logger"
)

// Authorizer evaluates an entitlement policy for an organization.
// Implemented by the entitlement service.
type Authorizer interface {
	Authorize(ctx context.Context, orgID shared.ID, pol entitlement.Policy) (*entitlement.Denial, error)
}

// APICallTracker records an apiCalls usage increment.
type APICallTracker interface {
	TrackAPICall(ctx context.Context, orgID shared.ID) error
}

// EntitlementGuard enforces subscription entitlements at the HTTP
// boundary. Handlers behind the guard never check limits themselves.
type EntitlementGuard struct {
	authorizer Authorizer
	tracker    APICallTracker
	logger     *logger.Logger
}

// NewEntitlementGuard creates an EntitlementGuard. The tracker may be nil
// when API call metering is disabled.
func NewEntitlementGuard(authorizer Authorizer, tracker APICallTracker, log *logger.Logger) *EntitlementGuard {
	return &EntitlementGuard{
		authorizer: authorizer,
		tracker:    tracker,
		logger:     log.With("component", "entitlement_guard"),
	}
}

// Require returns middleware enforcing the given policy. Expects to run
// after RequireAuth so the organization is on the context.
func (g *EntitlementGuard) Require(pol entitlement.Policy) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if GetUserID(r.Context()) == "" {
				g.deny(w, &entitlement.Denial{Reason: entitlement.ReasonUnauthenticated})
				return
			}

			orgID, err := shared.IDFromString(GetOrganizationID(r.Context()))
			if err != nil {
				g.deny(w, &entitlement.Denial{Reason: entitlement.ReasonNoOrganization})
				return
			}

			denial, err := g.authorizer.Authorize(r.Context(), orgID, pol)
			if err != nil {
				// Fail closed: an unverifiable entitlement grants nothing.
				g.logger.Error("entitlement check failed",
					"organization_id", orgID.String(),
					"error", err,
					"request_id", GetRequestID(r.Context()),
				)
				EntitlementDenialsTotal.WithLabelValues("check_failed").Inc()
				apierror.ServiceUnavailable("Unable to verify subscription").WriteJSON(w)
				return
			}
			if denial != nil {
				EntitlementDenialsTotal.WithLabelValues(string(denial.Reason)).Inc()
				apierror.FromDenial(denial).WriteJSON(w)
				return
			}

			wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(wrapped, r)

			if pol.TrackAPICall && g.tracker != nil && wrapped.statusCode < 400 {
				// Detached from the response; the ledger is advisory and
				// must never block or fail the request.
				go func(ctx context.Context) {
					if err := g.tracker.TrackAPICall(ctx, orgID); err != nil {
						g.logger.Warn("api call tracking failed",
							"organization_id", orgID.String(),
							"error", err,
						)
					}
				}(context.WithoutCancel(r.Context()))
			}
		})
	}
}

func (g *EntitlementGuard) deny(w http.ResponseWriter, d *entitlement.Denial) {
	EntitlementDenialsTotal.WithLabelValues(string(d.Reason)).Inc()
	apierror.FromDenial(d).WriteJSON(w)
}
