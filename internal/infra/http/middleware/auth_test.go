package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/menucraft/api/pkg/jwt"
	"github.com/menucraft/api/pkg/logger"
)

type fakeRevocations struct {
	revoked bool
	err     error
}

func (f *fakeRevocations) IsRevoked(context.Context, *jwt.Claims) (bool, error) {
	return f.revoked, f.err
}

func testTokenManager(t *testing.T) *jwt.Manager {
	t.Helper()
	m, err := jwt.NewManager("0123456789abcdef0123456789abcdef", "menucraft-test", 15*time.Minute)
	require.NoError(t, err)
	return m
}

func TestRequireAuthPopulatesContext(t *testing.T) {
	tokens := testTokenManager(t)
	token, err := tokens.Issue("user-1", "org-1", "owner@example.com")
	require.NoError(t, err)

	auth := NewAuthenticator(tokens, &fakeRevocations{}, logger.NewNop())

	var gotUser, gotOrg string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser = GetUserID(r.Context())
		gotOrg = GetOrganizationID(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
	r.Header.Set("Authorization", "Bearer "+token)
	auth.RequireAuth()(next).ServeHTTP(rec, r)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "user-1", gotUser)
	assert.Equal(t, "org-1", gotOrg)
}

func TestRequireAuthMissingToken(t *testing.T) {
	auth := NewAuthenticator(testTokenManager(t), nil, logger.NewNop())

	rec := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
	auth.RequireAuth()(okHandler()).ServeHTTP(rec, r)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireAuthBadToken(t *testing.T) {
	auth := NewAuthenticator(testTokenManager(t), nil, logger.NewNop())

	rec := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
	r.Header.Set("Authorization", "Bearer not-a-token")
	auth.RequireAuth()(okHandler()).ServeHTTP(rec, r)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireAuthRevokedToken(t *testing.T) {
	tokens := testTokenManager(t)
	token, err := tokens.Issue("user-1", "org-1", "owner@example.com")
	require.NoError(t, err)

	auth := NewAuthenticator(tokens, &fakeRevocations{revoked: true}, logger.NewNop())

	rec := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
	r.Header.Set("Authorization", "Bearer "+token)
	auth.RequireAuth()(okHandler()).ServeHTTP(rec, r)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireAuthFailsClosedOnRevocationError(t *testing.T) {
	tokens := testTokenManager(t)
	token, err := tokens.Issue("user-1", "org-1", "owner@example.com")
	require.NoError(t, err)

	auth := NewAuthenticator(tokens, &fakeRevocations{err: errors.New("redis down")}, logger.NewNop())

	rec := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
	r.Header.Set("Authorization", "Bearer "+token)
	auth.RequireAuth()(okHandler()).ServeHTTP(rec, r)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
