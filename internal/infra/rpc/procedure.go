// Package rpc wraps internal procedure calls with entitlement enforcement.
// It exists for callers that are not HTTP requests, such as background jobs
// acting on behalf of an organization or an internal admin transport. The
// decision rules live entirely in the entitlement service; this package only
// translates denials into typed errors.
package rpc

import (
	"context"
	"fmt"

	"github.com/menucraft/api/pkg/domain/entitlement"
	"github.com/menucraft/api/pkg/domain/shared"
	"github.com/menucraft/api/pkg/logger"
)

// Code is a transport-agnostic status code, named after the gRPC canonical
// set so a future gRPC surface maps one to one.
type Code string

// Procedure status codes.
const (
	CodeUnauthenticated   Code = "UNAUTHENTICATED"
	CodeForbidden         Code = "FORBIDDEN"
	CodePaymentRequired   Code = "PAYMENT_REQUIRED"
	CodeResourceExhausted Code = "RESOURCE_EXHAUSTED"
	CodeUnavailable       Code = "UNAVAILABLE"
)

// Error is a typed procedure failure. Denial is set when the failure is an
// entitlement decision rather than an infrastructure problem.
type Error struct {
	Code    Code
	Message string
	Denial  *entitlement.Denial
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// codeFor maps a denial reason onto a procedure code.
func codeFor(reason entitlement.DenialReason) Code {
	switch reason {
	case entitlement.ReasonUnauthenticated:
		return CodeUnauthenticated
	case entitlement.ReasonNoOrganization, entitlement.ReasonFeatureDenied:
		return CodeForbidden
	case entitlement.ReasonInactive, entitlement.ReasonExpired:
		return CodePaymentRequired
	case entitlement.ReasonLimitExceeded:
		return CodeResourceExhausted
	default:
		return CodeForbidden
	}
}

// Authorizer evaluates an entitlement policy for an organization.
type Authorizer interface {
	Authorize(ctx context.Context, orgID shared.ID, pol entitlement.Policy) (*entitlement.Denial, error)
}

// APICallTracker records an apiCalls usage increment.
type APICallTracker interface {
	TrackAPICall(ctx context.Context, orgID shared.ID) error
}

// Guard enforces entitlements for procedures, mirroring the HTTP
// middleware's fail-closed semantics.
type Guard struct {
	authorizer Authorizer
	tracker    APICallTracker
	logger     *logger.Logger
}

// NewGuard creates a procedure guard. The tracker may be nil when API call
// metering is disabled.
func NewGuard(authorizer Authorizer, tracker APICallTracker, log *logger.Logger) *Guard {
	return &Guard{
		authorizer: authorizer,
		tracker:    tracker,
		logger:     log.With("component", "rpc_guard"),
	}
}

// Handler is a typed procedure implementation.
type Handler[Req, Resp any] func(ctx context.Context, orgID shared.ID, req Req) (Resp, error)

// Procedure wraps a handler with entitlement enforcement. The policy is
// evaluated before the handler runs; a denial never reaches the handler.
// Successful tracked calls record an API call without blocking the caller.
func Procedure[Req, Resp any](g *Guard, pol entitlement.Policy, fn Handler[Req, Resp]) Handler[Req, Resp] {
	return func(ctx context.Context, orgID shared.ID, req Req) (Resp, error) {
		var zero Resp

		if orgID.IsZero() {
			d := &entitlement.Denial{Reason: entitlement.ReasonNoOrganization}
			return zero, &Error{Code: codeFor(d.Reason), Message: d.Message(), Denial: d}
		}

		denial, err := g.authorizer.Authorize(ctx, orgID, pol)
		if err != nil {
			// Fail closed: an unverifiable entitlement grants nothing.
			g.logger.Error("entitlement check failed",
				"organization_id", orgID.String(),
				"error", err,
			)
			return zero, &Error{Code: CodeUnavailable, Message: "Unable to verify subscription", Cause: err}
		}
		if denial != nil {
			return zero, &Error{Code: codeFor(denial.Reason), Message: denial.Message(), Denial: denial}
		}

		resp, err := fn(ctx, orgID, req)
		if err != nil {
			return zero, err
		}

		if pol.TrackAPICall && g.tracker != nil {
			go func(ctx context.Context) {
				if err := g.tracker.TrackAPICall(ctx, orgID); err != nil {
					g.logger.Warn("api call tracking failed",
						"organization_id", orgID.String(),
						"error", err,
					)
				}
			}(context.WithoutCancel(ctx))
		}
		return resp, nil
	}
}
