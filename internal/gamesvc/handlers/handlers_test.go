package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/avvvet/darts-services/internal/monitor"
	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRouter(ready func() error) (*chi.Mux, *Handler) {
	h := NewHandler("game", "8081", monitor.NewMetrics("test"), ready)
	h.InitAuth("secret")
	r := chi.NewRouter()
	h.SetRoutes(r)
	return r, h
}

func TestHealthRequiresToken(t *testing.T) {
	r, h := newRouter(nil)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/health", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	_, token, err := h.TokenAuth().Encode(map[string]interface{}{"sub": "svc"})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/v1/health", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "game service is running at port 8081")
}

func TestPingReportsReadiness(t *testing.T) {
	r, _ := newRouter(func() error { return errors.New("nats disconnected") })

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/ping", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "nats disconnected")
}

func TestMetricsRoute(t *testing.T) {
	r, _ := newRouter(nil)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}
