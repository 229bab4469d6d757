package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/nexconsult/fssp-api/internal/api/handlers"
	"github.com/nexconsult/fssp-api/internal/api/middleware"
	"github.com/nexconsult/fssp-api/internal/config"
	"github.com/nexconsult/fssp-api/internal/models"
	"github.com/nexconsult/fssp-api/internal/services"
	"github.com/nexconsult/fssp-api/internal/worker"
)

// Server represents the HTTP server
type Server struct {
	Router   *gin.Engine
	config   *config.Config
	logger   *logrus.Logger
	services *services.Container
	pool     *worker.WorkerPool
}

// NewServer creates a new HTTP server. Background helpers stop when ctx is done.
func NewServer(ctx context.Context, cfg *config.Config, logger *logrus.Logger, services *services.Container) *Server {
	server := &Server{
		config:   cfg,
		logger:   logger,
		services: services,
	}

	server.pool = worker.NewWorkerPool(cfg.Batch.Workers, cfg.Batch.QueueSize, services.FSSPService, logger)
	server.pool.Start()
	go func() {
		<-ctx.Done()
		server.pool.Stop()
	}()

	server.setupRouter(ctx)
	return server
}

// setupRouter configures the router with all routes and middleware
func (s *Server) setupRouter(ctx context.Context) {
	s.Router = gin.New()

	// Global middleware
	s.Router.Use(middleware.RequestID())
	s.Router.Use(middleware.Logger(s.logger))
	s.Router.Use(middleware.Recovery(s.logger))
	s.Router.Use(middleware.CORS(s.config.Security.CORS))
	s.Router.Use(middleware.Security())

	// Health checks
	healthHandler := handlers.NewHealthHandler(s.services, s.logger)
	s.Router.GET("/health", healthHandler.GetHealth)
	s.Router.GET("/health/ready", healthHandler.GetReadiness)
	s.Router.GET("/health/live", healthHandler.GetLiveness)
	s.Router.GET("/api/healthcheck", healthHandler.HealthCheck)

	s.Router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	if s.config.Server.Environment != "production" {
		s.Router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
		s.Router.GET("/", func(c *gin.Context) {
			c.Redirect(http.StatusMovedPermanently, "/swagger/index.html")
		})
	}

	// Searches drive a real browser, so only they are rate limited
	rateLimiter := middleware.NewRateLimiter(ctx, s.config.Security.RateLimit)

	fsspHandler := handlers.NewFSSPHandler(s.services.FSSPService, s.logger)

	// Unversioned routes keep the bare list contract for existing clients
	legacy := s.Router.Group("/api", rateLimiter.Middleware())
	{
		legacy.POST("/ip", fsspHandler.LegacySearchByIP)
		legacy.POST("/person", fsspHandler.LegacySearchByPerson)
		legacy.POST("/inn", fsspHandler.LegacySearchByINN)
	}

	v1 := s.Router.Group("/api/v1")
	{
		search := v1.Group("", rateLimiter.Middleware())
		{
			search.POST("/ip", fsspHandler.SearchByIP)
			search.POST("/person", fsspHandler.SearchByPerson)
			search.POST("/inn", fsspHandler.SearchByINN)

			batchHandler := handlers.NewBatchHandler(s.pool, s.config.Batch.MaxItems, s.logger)
			search.POST("/batch", batchHandler.SearchBatch)
		}

		// Admin routes
		admin := v1.Group("/admin", middleware.AdminAuth(s.config.Security.AdminKey))
		{
			cacheHandler := handlers.NewCacheHandler(s.services.CacheService, s.logger)
			admin.GET("/cache/stats", cacheHandler.GetStats)
			admin.DELETE("/cache", cacheHandler.Clear)

			browserHandler := handlers.NewBrowserHandler(s.services.BrowserService, s.logger)
			admin.GET("/browser/stats", browserHandler.GetStats)

			admin.GET("/ratelimit/stats", func(c *gin.Context) {
				c.JSON(http.StatusOK, rateLimiter.GetStats())
			})
			admin.GET("/workers/stats", func(c *gin.Context) {
				c.JSON(http.StatusOK, s.pool.GetStats())
			})
		}
	}

	// 404 and 405 handlers
	s.Router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error:     "Not Found",
			Message:   "The requested resource was not found",
			Code:      "NOT_FOUND",
			Timestamp: time.Now(),
			Path:      c.Request.URL.Path,
			RequestID: c.GetString("request_id"),
		})
	})

	s.Router.HandleMethodNotAllowed = true
	s.Router.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, models.ErrorResponse{
			Error:     "Method Not Allowed",
			Message:   "The requested method is not allowed for this resource",
			Code:      "METHOD_NOT_ALLOWED",
			Timestamp: time.Now(),
			Path:      c.Request.URL.Path,
			RequestID: c.GetString("request_id"),
		})
	})
}
