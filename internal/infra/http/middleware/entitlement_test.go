package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/menucraft/api/pkg/domain/entitlement"
	"github.com/menucraft/api/pkg/domain/shared"
	"github.com/menucraft/api/pkg/domain/usage"
	"github.com/menucraft/api/pkg/logger"
)

type fakeAuthorizer struct {
	denial *entitlement.Denial
	err    error
}

func (f *fakeAuthorizer) Authorize(context.Context, shared.ID, entitlement.Policy) (*entitlement.Denial, error) {
	return f.denial, f.err
}

type fakeTracker struct {
	mu    sync.Mutex
	calls int
}

func (f *fakeTracker) TrackAPICall(context.Context, shared.ID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return nil
}

func (f *fakeTracker) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func authedRequest(t *testing.T) *http.Request {
	t.Helper()
	r := httptest.NewRequest(http.MethodPost, "/api/v1/products/", nil)
	ctx := context.WithValue(r.Context(), UserIDKey, shared.NewID().String())
	ctx = context.WithValue(ctx, OrganizationIDKey, shared.NewID().String())
	return r.WithContext(ctx)
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusCreated)
	})
}

func TestEntitlementGuardAllows(t *testing.T) {
	guard := NewEntitlementGuard(&fakeAuthorizer{}, nil, logger.NewNop())
	rec := httptest.NewRecorder()

	guard.Require(entitlement.Policy{AllowTrial: true})(okHandler()).ServeHTTP(rec, authedRequest(t))

	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestEntitlementGuardRequiresUser(t *testing.T) {
	guard := NewEntitlementGuard(&fakeAuthorizer{}, nil, logger.NewNop())
	rec := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/api/v1/products/", nil)

	guard.Require(entitlement.Policy{})(okHandler()).ServeHTTP(rec, r)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestEntitlementGuardRequiresOrganization(t *testing.T) {
	guard := NewEntitlementGuard(&fakeAuthorizer{}, nil, logger.NewNop())
	rec := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/api/v1/products/", nil)
	r = r.WithContext(context.WithValue(r.Context(), UserIDKey, shared.NewID().String()))

	guard.Require(entitlement.Policy{})(okHandler()).ServeHTTP(rec, r)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestEntitlementGuardLimitDenialBody(t *testing.T) {
	denial := &entitlement.Denial{
		Reason:       entitlement.ReasonLimitExceeded,
		Metric:       usage.MetricProducts,
		CurrentUsage: 50,
		Limit:        50,
		Requested:    1,
	}
	guard := NewEntitlementGuard(&fakeAuthorizer{denial: denial}, nil, logger.NewNop())
	rec := httptest.NewRecorder()

	guard.Require(entitlement.Policy{})(okHandler()).ServeHTTP(rec, authedRequest(t))

	assert.Equal(t, http.StatusPaymentRequired, rec.Code)

	var body struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "LIMIT_EXCEEDED", body.Code)
	assert.Equal(t, "products limit exceeded. Current: 50, Limit: 50, Requested: 1", body.Message)
}

func TestEntitlementGuardFailsClosed(t *testing.T) {
	guard := NewEntitlementGuard(&fakeAuthorizer{err: errors.New("store down")}, nil, logger.NewNop())
	rec := httptest.NewRecorder()

	guard.Require(entitlement.Policy{})(okHandler()).ServeHTTP(rec, authedRequest(t))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body struct {
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Unable to verify subscription", body.Message)
}

func TestEntitlementGuardTracksSuccessfulCalls(t *testing.T) {
	tracker := &fakeTracker{}
	guard := NewEntitlementGuard(&fakeAuthorizer{}, tracker, logger.NewNop())
	rec := httptest.NewRecorder()

	guard.Require(entitlement.Policy{TrackAPICall: true})(okHandler()).ServeHTTP(rec, authedRequest(t))

	assert.Eventually(t, func() bool {
		return tracker.count() == 1
	}, time.Second, 10*time.Millisecond)
}

func TestEntitlementGuardSkipsTrackingOnFailure(t *testing.T) {
	tracker := &fakeTracker{}
	guard := NewEntitlementGuard(&fakeAuthorizer{}, tracker, logger.NewNop())
	rec := httptest.NewRecorder()

	failing := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	})
	guard.Require(entitlement.Policy{TrackAPICall: true})(failing).ServeHTTP(rec, authedRequest(t))

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 0, tracker.count())
}
