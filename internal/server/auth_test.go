package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAuthMiddleware(t *testing.T) {
	srv, _ := newTestServer(t, &mockGenerator{}, &Config{
		MasterKey:      "test-secret-key",
		MetricsEnabled: true,
	})

	do := func(method, path string, set func(*http.Request)) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, nil)
		if set != nil {
			set(req)
		}
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, req)
		return rec
	}

	t.Run("api route requires key", func(t *testing.T) {
		rec := do(http.MethodGet, "/api/files", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "missing authorization header", rec.Body.String())
	})

	t.Run("wrong key is rejected", func(t *testing.T) {
		rec := do(http.MethodGet, "/api/files", func(r *http.Request) {
			r.Header.Set("Authorization", "Bearer wrong-key")
		})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "invalid master key", rec.Body.String())
	})

	t.Run("bearer token is accepted", func(t *testing.T) {
		rec := do(http.MethodGet, "/api/files", func(r *http.Request) {
			r.Header.Set("Authorization", "Bearer test-secret-key")
		})
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("x-api-key header is accepted", func(t *testing.T) {
		rec := do(http.MethodGet, "/api/files", func(r *http.Request) {
			r.Header.Set("X-API-Key", "test-secret-key")
		})
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("health stays public", func(t *testing.T) {
		rec := do(http.MethodGet, "/health", nil)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("metrics stays public for scrapers", func(t *testing.T) {
		rec := do(http.MethodGet, "/metrics", nil)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("cors preflight does not need key", func(t *testing.T) {
		rec := do(http.MethodOptions, "/api/ia", func(r *http.Request) {
			r.Header.Set("Origin", "https://sheets.example.com")
			r.Header.Set("Access-Control-Request-Method", http.MethodPost)
		})
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})
}

func TestAuthMiddleware_NoKeyConfigured(t *testing.T) {
	srv, _ := newTestServer(t, &mockGenerator{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/files", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}
