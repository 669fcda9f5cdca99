package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeJSONRejectsUnknownFields(t *testing.T) {
	var dst struct {
		Name string `json:"name"`
	}
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"x","typo":true}`))

	err := decodeJSON(r, &dst)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "typo")
}

func TestDecodeJSONEmptyBody(t *testing.T) {
	var dst struct{}
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(""))

	err := decodeJSON(r, &dst)
	require.Error(t, err)
	assert.Equal(t, "request body is empty", err.Error())
}

func TestDecodeJSONHappyPath(t *testing.T) {
	var dst struct {
		Name string `json:"name"`
	}
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"Trattoria"}`))

	require.NoError(t, decodeJSON(r, &dst))
	assert.Equal(t, "Trattoria", dst.Name)
}

func TestParsePaginationDefaults(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/?page=abc", nil)

	p := parsePagination(r)
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, 20, p.PerPage)
}

func TestParsePaginationFromQuery(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/?page=3&per_page=50", nil)

	p := parsePagination(r)
	assert.Equal(t, 3, p.Page)
	assert.Equal(t, 50, p.PerPage)
}

func TestParsePaginationCapsPerPage(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/?per_page=5000", nil)

	p := parsePagination(r)
	assert.Equal(t, 100, p.PerPage)
}

func TestNewListResponseNeverNilData(t *testing.T) {
	resp := newListResponse[string](nil, 0, parsePagination(httptest.NewRequest(http.MethodGet, "/", nil)))

	assert.NotNil(t, resp.Data)
	assert.Empty(t, resp.Data)
	assert.Zero(t, resp.TotalPages)
}

func TestNewListResponseTotals(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/?page=2&per_page=10", nil)
	resp := newListResponse([]int{1, 2, 3}, 25, parsePagination(r))

	assert.Equal(t, int64(25), resp.Total)
	assert.Equal(t, 2, resp.Page)
	assert.Equal(t, 3, resp.TotalPages)
}
