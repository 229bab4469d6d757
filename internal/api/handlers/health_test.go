package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexconsult/fssp-api/internal/models"
)

type staticHealth map[string]interface{}

func (s staticHealth) Health() map[string]interface{} { return s }

func get(handler gin.HandlerFunc) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/", handler)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	return w
}

func TestGetHealthAggregatesStatus(t *testing.T) {
	handler := NewHealthHandler(staticHealth{
		"cache":   map[string]interface{}{"status": "healthy", "redis": "disabled"},
		"browser": map[string]interface{}{"status": "degraded", "error": "start failed"},
	}, testLogger())

	w := get(handler.GetHealth)
	require.Equal(t, http.StatusOK, w.Code)

	var response models.HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "degraded", response.Status)
	assert.Equal(t, "start failed", response.Services["browser"].Error)
	assert.Equal(t, Version, response.Version)
}

func TestGetHealthUnhealthy(t *testing.T) {
	handler := NewHealthHandler(staticHealth{
		"browser": map[string]interface{}{"status": "unhealthy"},
	}, testLogger())

	assert.Equal(t, http.StatusServiceUnavailable, get(handler.GetHealth).Code)
	assert.Equal(t, http.StatusServiceUnavailable, get(handler.GetReadiness).Code)
	assert.Equal(t, http.StatusOK, get(handler.GetLiveness).Code)
}

func TestHealthCheck(t *testing.T) {
	handler := NewHealthHandler(staticHealth{}, testLogger())

	w := get(handler.HealthCheck)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}
