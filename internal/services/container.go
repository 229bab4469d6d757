package services

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/nexconsult/fssp-api/internal/config"
)

// Container holds all service dependencies
type Container struct {
	config      *config.Config
	logger      *logrus.Logger
	redisClient *redis.Client
	stopCleanup context.CancelFunc

	Metrics        *Metrics
	FSSPService    FSSPServiceInterface
	CacheService   CacheServiceInterface
	BrowserService BrowserServiceInterface
	CaptchaService CaptchaServiceInterface
}

// NewContainer creates a new service container. Metrics are registered on reg.
func NewContainer(cfg *config.Config, logger *logrus.Logger, reg prometheus.Registerer) (*Container, error) {
	container := &Container{
		config: cfg,
		logger: logger,
	}

	container.initRedis()

	if err := container.initServices(reg); err != nil {
		container.Close()
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	return container, nil
}

// initRedis connects to Redis when a URL is configured
func (c *Container) initRedis() {
	if c.config.Redis.URL == "" {
		c.logger.Info("Redis URL not set, using in-memory cache")
		return
	}

	opts, err := redis.ParseURL(c.config.Redis.URL)
	if err != nil {
		c.logger.WithError(err).Warn("Invalid Redis URL, running with in-memory cache")
		return
	}
	if c.config.Redis.PoolSize > 0 {
		opts.PoolSize = c.config.Redis.PoolSize
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		c.logger.WithError(err).Warn("Redis connection failed, running with in-memory cache")
		client.Close()
		return
	}

	c.redisClient = client
	c.logger.Info("Redis connection established")
}

// initServices wires the lookup pipeline
func (c *Container) initServices(reg prometheus.Registerer) error {
	c.Metrics = NewMetrics(reg)

	cache := NewCacheService(c.redisClient, c.config.Redis.CacheTTL, c.logger)
	ctx, cancel := context.WithCancel(context.Background())
	c.stopCleanup = cancel
	cache.StartCleanupRoutine(ctx, c.config.Redis.CacheTTL)
	c.CacheService = cache

	c.BrowserService = NewBrowserService(c.config.Browser, c.logger, c.Metrics)

	captcha, err := NewCaptchaService(c.config.Captcha, c.logger, c.Metrics)
	if err != nil {
		return fmt.Errorf("failed to initialize captcha service: %w", err)
	}
	c.CaptchaService = captcha

	scraper := NewScraper(c.config.Browser, c.BrowserService, captcha, NewParserService(c.logger), c.logger)

	c.FSSPService = NewFSSPService(c.config.FSSP, c.config.Captcha.MaxAttempts, scraper, c.CacheService, c.Metrics, c.logger)

	return nil
}

// Close closes all service connections
func (c *Container) Close() error {
	var errors []error

	if c.stopCleanup != nil {
		c.stopCleanup()
	}

	if c.redisClient != nil {
		if err := c.redisClient.Close(); err != nil {
			errors = append(errors, fmt.Errorf("failed to close Redis: %w", err))
		}
	}

	if c.BrowserService != nil {
		if err := c.BrowserService.Close(); err != nil {
			errors = append(errors, fmt.Errorf("failed to close browser service: %w", err))
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("errors during shutdown: %v", errors)
	}

	return nil
}

// Health checks the health of all services
func (c *Container) Health() map[string]interface{} {
	health := make(map[string]interface{})

	if c.CacheService != nil {
		health["cache"] = c.CacheService.Health()
	}

	if c.BrowserService != nil {
		health["browser"] = c.BrowserService.Health()
	}

	if c.CaptchaService != nil {
		health["captcha"] = c.CaptchaService.Health()
	}

	if c.FSSPService != nil {
		health["fssp"] = c.FSSPService.Health()
	}

	return health
}
