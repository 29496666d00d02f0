package router

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/udonggeum-checkout/config"
	apperrors "github.com/ikkim/udonggeum-checkout/internal/errors"
	"github.com/ikkim/udonggeum-checkout/internal/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 컨트롤러 없이 미들웨어 단계에서 끝나는 요청만 검증
func setupRouterTest(adminKey string) *gin.Engine {
	cfg := &config.Config{
		Server: config.ServerConfig{GinMode: gin.TestMode, AdminKey: adminKey},
		CORS:   config.CORSConfig{AllowedOrigins: []string{"http://localhost:3000"}},
	}
	return NewRouter(nil, nil, nil, nil, nil, nil, cfg).Setup()
}

func TestRouter_Health(t *testing.T) {
	router := setupRouterTest("")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "healthy")
}

func TestRouter_CORSPreflight(t *testing.T) {
	router := setupRouterTest("")

	tests := []struct {
		name       string
		origin     string
		wantOrigin string
	}{
		{name: "Allowed origin", origin: "http://localhost:3000", wantOrigin: "http://localhost:3000"},
		{name: "Unknown origin", origin: "https://evil.example", wantOrigin: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodOptions, "/api/v1/cart", nil)
			req.Header.Set("Origin", tt.origin)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusNoContent, w.Code)
			assert.Equal(t, tt.wantOrigin, w.Header().Get("Access-Control-Allow-Origin"))
			assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), middleware.ShopperIDHeader)
		})
	}
}

func TestRouter_Guards(t *testing.T) {
	tests := []struct {
		name       string
		adminKey   string
		method     string
		path       string
		wantStatus int
	}{
		{name: "Cart without shopper", method: http.MethodGet, path: "/api/v1/cart", wantStatus: http.StatusUnauthorized},
		{name: "Variant without shopper", method: http.MethodGet, path: "/api/v1/products/phone-1/variants", wantStatus: http.StatusUnauthorized},
		{name: "Socket without shopper", method: http.MethodGet, path: "/ws/cart", wantStatus: http.StatusUnauthorized},
		{name: "Admin disabled", method: http.MethodPost, path: "/api/v1/admin/coupons", wantStatus: http.StatusForbidden},
		{name: "Admin wrong key", adminKey: "secret", method: http.MethodDelete, path: "/api/v1/admin/catalogs/phone-1/cache", wantStatus: http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := setupRouterTest(tt.adminKey)

			req := httptest.NewRequest(tt.method, tt.path, nil)
			req.Header.Set(middleware.AdminKeyHeader, "guess")
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}

func TestRouter_UnknownRoute(t *testing.T) {
	router := setupRouterTest("")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/nope", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
	var resp apperrors.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, apperrors.ResourceNotFound, resp.Error)
}

func TestRouter_RecoversPanics(t *testing.T) {
	router := setupRouterTest("")
	router.GET("/boom", func(c *gin.Context) {
		panic("boom")
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	var resp apperrors.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, apperrors.InternalServerError, resp.Error)
}
