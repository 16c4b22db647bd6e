package middleware_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/serroba/eventstats-api/internal/middleware"
	"github.com/stretchr/testify/assert"
)

type testOutput struct {
	Body string `json:"body"`
}

func setupTestAPI(t *testing.T, trustProxy bool) (*chi.Mux, huma.API, <-chan middleware.Meta) {
	t.Helper()

	router := chi.NewMux()
	router.Use(middleware.RequestMeta(func() string { return "req-123" }, trustProxy))

	api := humachi.New(router, huma.DefaultConfig("Test", "1.0.0"))

	metas := make(chan middleware.Meta, 1)

	huma.Get(api, "/test", func(ctx context.Context, _ *struct{}) (*testOutput, error) {
		metas <- middleware.MetaFromContext(ctx)

		return &testOutput{Body: "ok"}, nil
	})

	return router, api, metas
}

func TestRequestMeta(t *testing.T) {
	t.Run("assigns request id and echoes it", func(t *testing.T) {
		router, _, metas := setupTestAPI(t, false)

		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set("User-Agent", "TestAgent/1.0")

		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		meta := <-metas
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "req-123", w.Header().Get(middleware.RequestIDHeader))
		assert.Equal(t, "req-123", meta.RequestID)
		assert.Equal(t, "TestAgent/1.0", meta.UserAgent)
	})

	t.Run("uses remote address when proxy is not trusted", func(t *testing.T) {
		router, _, metas := setupTestAPI(t, false)

		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.RemoteAddr = "10.0.0.1:5555"
		req.Header.Set("X-Forwarded-For", "192.168.1.1")

		router.ServeHTTP(httptest.NewRecorder(), req)

		assert.Equal(t, "10.0.0.1", (<-metas).ClientIP)
	})

	t.Run("extracts first IP from X-Forwarded-For behind trusted proxy", func(t *testing.T) {
		router, _, metas := setupTestAPI(t, true)

		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set("X-Forwarded-For", "192.168.1.1, 10.0.0.1, 172.16.0.1")

		router.ServeHTTP(httptest.NewRecorder(), req)

		assert.Equal(t, "192.168.1.1", (<-metas).ClientIP)
	})

	t.Run("extracts IP from X-Real-IP when X-Forwarded-For is absent", func(t *testing.T) {
		router, _, metas := setupTestAPI(t, true)

		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set("X-Real-IP", "10.0.0.1")

		router.ServeHTTP(httptest.NewRecorder(), req)

		assert.Equal(t, "10.0.0.1", (<-metas).ClientIP)
	})
}

func TestMetaFromContext_Empty(t *testing.T) {
	assert.Equal(t, middleware.Meta{}, middleware.MetaFromContext(context.Background()))
}

func TestRequestMeta_UnmatchedRoute(t *testing.T) {
	router, _, _ := setupTestAPI(t, false)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/missing", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "req-123", w.Header().Get(middleware.RequestIDHeader))
}
