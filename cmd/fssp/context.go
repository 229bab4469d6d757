package main

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/nexconsult/fssp-api/internal/config"
	"github.com/nexconsult/fssp-api/internal/logger"
	"github.com/nexconsult/fssp-api/internal/services"
)

// serviceFactory builds the search facade and a function releasing its resources
type serviceFactory func() (services.FSSPServiceInterface, func() error, error)

type commandContext struct {
	format string

	factory     serviceFactory
	serviceOnce sync.Once
	service     services.FSSPServiceInterface
	closeFn     func() error
	serviceErr  error
}

func newCommandContext(factory serviceFactory) *commandContext {
	if factory == nil {
		factory = newContainerService
	}
	return &commandContext{format: formatHuman, factory: factory}
}

func (c *commandContext) ensureService() (services.FSSPServiceInterface, error) {
	c.serviceOnce.Do(func() {
		c.service, c.closeFn, c.serviceErr = c.factory()
	})
	return c.service, c.serviceErr
}

func (c *commandContext) close() {
	if c.closeFn != nil {
		_ = c.closeFn()
	}
}

func (c *commandContext) validateFormat() error {
	c.format = strings.ToLower(strings.TrimSpace(c.format))
	switch c.format {
	case formatHuman, formatJSON:
		return nil
	default:
		return usageErrorf("unknown format %q, expected human or json", c.format)
	}
}

// newContainerService wires the full lookup pipeline from the environment.
// Logs go to stderr so stdout carries only results.
func newContainerService() (services.FSSPServiceInterface, func() error, error) {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return nil, nil, &usageError{err: fmt.Errorf("configuration: %w", err)}
	}

	log := logger.New(cfg.Log.Level, cfg.Log.Format)
	log.SetOutput(os.Stderr)

	container, err := services.NewContainer(cfg, log, prometheus.NewRegistry())
	if err != nil {
		return nil, nil, &usageError{err: err}
	}

	return container.FSSPService, container.Close, nil
}
