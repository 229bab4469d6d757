package api

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"

	"github.com/nexconsult/fssp-api/internal/config"
	"github.com/nexconsult/fssp-api/internal/models"
	"github.com/nexconsult/fssp-api/internal/services"
)

type stubFetcher struct{}

func (stubFetcher) Fetch(ctx context.Context, url string) (models.CaseList, error) {
	return models.CaseList{{Debtor: "Иванов Иван"}}, nil
}

func newTestServer(t *testing.T) *Server {
	t.Helper()

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	cfg := &config.Config{
		Server: config.ServerConfig{Environment: "production"},
		FSSP: config.FSSPConfig{
			INNURLTemplate:    "https://fssp.test/?inn={inn}",
			EmptyResultPolicy: config.EmptyAsError,
		},
		Batch: config.BatchConfig{Workers: 1, QueueSize: 4, MaxItems: 3},
		Security: config.SecurityConfig{
			RateLimit: config.RateLimitConfig{RequestsPerMinute: 600, BurstSize: 10},
			CORS:      config.CORSConfig{AllowedOrigins: []string{"*"}},
			AdminKey:  "secret",
		},
	}

	cache := services.NewCacheService(nil, time.Minute, logger)
	container := &services.Container{
		CacheService:   cache,
		BrowserService: services.NewBrowserService(config.BrowserConfig{MaxSessions: 1}, logger, nil),
		FSSPService:    services.NewFSSPService(cfg.FSSP, 1, stubFetcher{}, cache, nil, logger),
	}

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	return NewServer(ctx, cfg, logger, container)
}

func TestServerRoutes(t *testing.T) {
	server := newTestServer(t)

	tests := []struct {
		method string
		path   string
		header string
		status int
	}{
		{http.MethodGet, "/api/healthcheck", "", http.StatusOK},
		{http.MethodGet, "/health/live", "", http.StatusOK},
		{http.MethodGet, "/metrics", "", http.StatusOK},
		{http.MethodGet, "/api/v1/admin/cache/stats", "", http.StatusUnauthorized},
		{http.MethodGet, "/api/v1/admin/cache/stats", "secret", http.StatusOK},
		{http.MethodDelete, "/api/v1/admin/cache", "secret", http.StatusOK},
		{http.MethodGet, "/api/v1/admin/browser/stats", "secret", http.StatusOK},
		{http.MethodGet, "/api/v1/admin/workers/stats", "secret", http.StatusOK},
		{http.MethodGet, "/api/v1/admin/ratelimit/stats", "secret", http.StatusOK},
		{http.MethodGet, "/api/v1/inn", "", http.StatusMethodNotAllowed},
		{http.MethodGet, "/api/inn", "", http.StatusMethodNotAllowed},
		{http.MethodGet, "/swagger/index.html", "", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.header != "" {
				req.Header.Set("X-Admin-Key", tt.header)
			}
			w := httptest.NewRecorder()
			server.Router.ServeHTTP(w, req)

			assert.Equal(t, tt.status, w.Code)
			assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
		})
	}
}

func TestServerSearch(t *testing.T) {
	server := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/inn", strings.NewReader(`{"inn":"7707083893"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	server.Router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"debtor":"Иванов Иван"`)
	assert.Contains(t, w.Body.String(), `"request_id"`)
}

func TestServerUnversionedSearchReturnsBareList(t *testing.T) {
	server := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/inn", strings.NewReader(`{"inn":"7707083893"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	server.Router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.HasPrefix(w.Body.String(), `[{"region":null,"debtor":"Иванов Иван"`), w.Body.String())
}

func TestServerBatch(t *testing.T) {
	server := newTestServer(t)

	body := `{"queries":[{"type":"inn","inn":"7707083893"},{"type":"inn","inn":"7707083894"}]}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/batch", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	server.Router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"success":2`)
}
