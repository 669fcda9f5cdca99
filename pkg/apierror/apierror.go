// Package apierror provides standardized API error handling.
// These error types are used across all handlers for consistent responses.
package apierror

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/menucraft/api/pkg/domain/entitlement"
)

// Code represents a machine-readable error code.
type Code string

// Standard error codes.
const (
	CodeBadRequest         Code = "BAD_REQUEST"
	CodeUnauthorized       Code = "UNAUTHORIZED"
	CodeForbidden          Code = "FORBIDDEN"
	CodeNotFound           Code = "NOT_FOUND"
	CodeConflict           Code = "CONFLICT"
	CodeValidationFailed   Code = "VALIDATION_FAILED"
	CodeInternalError      Code = "INTERNAL_ERROR"
	CodeServiceUnavailable Code = "SERVICE_UNAVAILABLE"
	CodeRateLimitExceeded  Code = "RATE_LIMIT_EXCEEDED"

	// Entitlement denial codes mirror entitlement.DenialReason so clients
	// can branch on kind, not message text.
	CodeNoOrganization       Code = "NO_ORGANIZATION"
	CodeSubscriptionInactive Code = "SUBSCRIPTION_INACTIVE"
	CodeSubscriptionExpired  Code = "SUBSCRIPTION_EXPIRED"
	CodeFeatureNotAvailable  Code = "FEATURE_NOT_AVAILABLE"
	CodeLimitExceeded        Code = "LIMIT_EXCEEDED"
)

// Error represents a standardized API error.
type Error struct {
	// HTTP status code
	Status int `json:"-"`

	// Machine-readable error code
	Code Code `json:"code"`

	// Human-readable error message
	Message string `json:"message"`

	// Additional error details (optional)
	Details any `json:"details,omitempty"`

	// Internal error (not exposed to client)
	Err error `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// Response represents the error response body.
type Response struct {
	Error     string `json:"error"`
	Code      Code   `json:"code"`
	Message   string `json:"message"`
	Details   any    `json:"details,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// ToResponse converts the error to a response body.
func (e *Error) ToResponse() Response {
	return Response{
		Error:   e.Message,
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
	}
}

// WriteJSON writes the error as JSON to the response writer.
func (e *Error) WriteJSON(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(e.Status)
	_ = json.NewEncoder(w).Encode(e.ToResponse())
}

// New creates a new API error.
func New(status int, code Code, message string) *Error {
	return &Error{Status: status, Code: code, Message: message}
}

// WithDetails adds details to the error.
func (e *Error) WithDetails(details any) *Error {
	e.Details = details
	return e
}

// WithError attaches an internal error for logging.
func (e *Error) WithError(err error) *Error {
	e.Err = err
	return e
}

// BadRequest creates a 400 Bad Request error.
func BadRequest(message string) *Error {
	return New(http.StatusBadRequest, CodeBadRequest, message)
}

// Unauthorized creates a 401 Unauthorized error.
func Unauthorized(message string) *Error {
	if message == "" {
		message = "Authentication required"
	}
	return New(http.StatusUnauthorized, CodeUnauthorized, message)
}

// Forbidden creates a 403 Forbidden error.
func Forbidden(message string) *Error {
	if message == "" {
		message = "Access denied"
	}
	return New(http.StatusForbidden, CodeForbidden, message)
}

// PaymentRequired creates a 402 Payment Required error. Used for
// subscription and limit denials.
func PaymentRequired(code Code, message string) *Error {
	return New(http.StatusPaymentRequired, code, message)
}

// NotFound creates a 404 Not Found error.
func NotFound(resource string) *Error {
	message := "Resource not found"
	if resource != "" {
		message = fmt.Sprintf("%s not found", resource)
	}
	return New(http.StatusNotFound, CodeNotFound, message)
}

// Conflict creates a 409 Conflict error.
func Conflict(message string) *Error {
	return New(http.StatusConflict, CodeConflict, message)
}

// ValidationFailed creates a 422 Unprocessable Entity error.
func ValidationFailed(message string, details any) *Error {
	return &Error{
		Status:  http.StatusUnprocessableEntity,
		Code:    CodeValidationFailed,
		Message: message,
		Details: details,
	}
}

// InternalError creates a 500 error with a generic message. The wrapped
// error stays internal and never reaches the client.
func InternalError(err error) *Error {
	return &Error{
		Status:  http.StatusInternalServerError,
		Code:    CodeInternalError,
		Message: "An internal error occurred",
		Err:     err,
	}
}

// ServiceUnavailable creates a 503 Service Unavailable error.
func ServiceUnavailable(message string) *Error {
	if message == "" {
		message = "Service temporarily unavailable"
	}
	return New(http.StatusServiceUnavailable, CodeServiceUnavailable, message)
}

// TooManyRequests creates a 429 error.
func TooManyRequests(message string) *Error {
	if message == "" {
		message = "Rate limit exceeded"
	}
	return New(http.StatusTooManyRequests, CodeRateLimitExceeded, message)
}

// DenialDetails is the structured payload carried on entitlement denials.
// Both transports surface the same fields.
type DenialDetails struct {
	CurrentUsage *int64 `json:"currentUsage,omitempty"`
	Limit        *int64 `json:"limit,omitempty"`
	Requested    *int64 `json:"requested,omitempty"`
	Feature      string `json:"feature,omitempty"`
	Plan         string `json:"plan,omitempty"`
	GracePeriod  any    `json:"gracePeriodInfo,omitempty"`
	UpgradeURL   string `json:"upgradeUrl"`
}

// FromDenial maps an entitlement denial onto the HTTP wire shape:
// 402 Payment Required for subscription/limit denials, 403 for feature
// gating, 401 for missing identity.
func FromDenial(d *entitlement.Denial) *Error {
	details := DenialDetails{UpgradeURL: entitlement.UpgradeURL}

	switch d.Reason {
	case entitlement.ReasonUnauthenticated:
		return Unauthorized(d.Message())
	case entitlement.ReasonNoOrganization:
		return New(http.StatusForbidden, CodeNoOrganization, d.Message()).WithDetails(details)
	case entitlement.ReasonInactive:
		return New(http.StatusPaymentRequired, CodeSubscriptionInactive, d.Message()).WithDetails(details)
	case entitlement.ReasonExpired:
		if d.Grace != nil {
			details.GracePeriod = d.Grace
		}
		return New(http.StatusPaymentRequired, CodeSubscriptionExpired, d.Message()).WithDetails(details)
	case entitlement.ReasonFeatureDenied:
		details.Feature = d.Feature
		details.Plan = d.PlanName
		return New(http.StatusForbidden, CodeFeatureNotAvailable, d.Message()).WithDetails(details)
	case entitlement.ReasonLimitExceeded:
		current, limit, requested := d.CurrentUsage, d.Limit, d.Requested
		details.CurrentUsage = &current
		details.Limit = &limit
		details.Requested = &requested
		return New(http.StatusPaymentRequired, CodeLimitExceeded, d.Message()).WithDetails(details)
	default:
		return Forbidden(d.Message())
	}
}

// IsAPIError checks if an error is an API error.
func IsAPIError(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr)
}

// FromError converts any error to an API error, wrapping unknown errors as
// internal.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr
	}
	return InternalError(err)
}

// ValidationError represents a field validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

// Add adds a validation error.
func (v *ValidationErrors) Add(field, message string) {
	*v = append(*v, ValidationError{Field: field, Message: message})
}

// HasErrors returns true if there are validation errors.
func (v ValidationErrors) HasErrors() bool {
	return len(v) > 0
}

// ToAPIError converts validation errors to an API error.
func (v ValidationErrors) ToAPIError() *Error {
	return ValidationFailed("Validation failed", v)
}
