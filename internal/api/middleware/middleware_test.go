package middleware

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"

	"github.com/nexconsult/fssp-api/internal/config"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func newRouter(middlewares ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(middlewares...)
	router.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString("request_id"))
	})
	router.GET("/panic", func(c *gin.Context) {
		panic("boom")
	})
	return router
}

func serve(router http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestRequestID(t *testing.T) {
	router := newRouter(RequestID())

	w := serve(router, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
	assert.Equal(t, w.Header().Get("X-Request-ID"), w.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("X-Request-ID", "abc")
	w = serve(router, req)
	assert.Equal(t, "abc", w.Body.String())
}

func TestRecovery(t *testing.T) {
	router := newRouter(RequestID(), Logger(testLogger()), Recovery(testLogger()))

	w := serve(router, httptest.NewRequest(http.MethodGet, "/panic", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "INTERNAL_ERROR")
}

func TestCORSPreflight(t *testing.T) {
	router := newRouter(CORS(config.CORSConfig{
		AllowedOrigins: []string{"https://app.example"},
		AllowedMethods: []string{"GET", "POST"},
	}))

	req := httptest.NewRequest(http.MethodOptions, "/ping", nil)
	req.Header.Set("Origin", "https://app.example")
	w := serve(router, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://app.example", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "GET, POST", w.Header().Get("Access-Control-Allow-Methods"))

	req = httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Origin", "https://evil.example")
	w = serve(router, req)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestAdminAuth(t *testing.T) {
	router := newRouter(AdminAuth("secret"))

	assert.Equal(t, http.StatusUnauthorized, serve(router, httptest.NewRequest(http.MethodGet, "/ping", nil)).Code)

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("X-Admin-Key", "secret")
	assert.Equal(t, http.StatusOK, serve(router, req).Code)

	open := newRouter(AdminAuth(""))
	assert.Equal(t, http.StatusOK, serve(open, httptest.NewRequest(http.MethodGet, "/ping", nil)).Code)
}

func TestRateLimiter(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rl := NewRateLimiter(ctx, config.RateLimitConfig{
		RequestsPerMinute: 1,
		BurstSize:         2,
		CleanupInterval:   time.Minute,
	})
	router := newRouter(rl.Middleware())

	for i := 0; i < 2; i++ {
		assert.Equal(t, http.StatusOK, serve(router, httptest.NewRequest(http.MethodGet, "/ping", nil)).Code)
	}

	w := serve(router, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "60", w.Header().Get("Retry-After"))
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
	assert.Equal(t, 1, rl.GetStats()["active_clients"])
}
