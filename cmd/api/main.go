package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/nexconsult/fssp-api/internal/api"
	"github.com/nexconsult/fssp-api/internal/config"
	"github.com/nexconsult/fssp-api/internal/logger"
	"github.com/nexconsult/fssp-api/internal/services"

	// Import docs for Swagger
	_ "github.com/nexconsult/fssp-api/docs"
)

// @title FSSP Enforcement Proceedings API
// @version 1.0
// @description Searches the FSSP enforcement proceedings registry by proceeding number, debtor or INN

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8000
// @BasePath /
// @schemes http https

// @securityDefinitions.apikey AdminKey
// @in header
// @name X-Admin-Key

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	// Initialize configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger, optionally teeing to a file
	logger, logFile, err := logger.NewWithFile(cfg.Log.Level, cfg.Log.Format, cfg.Log.File)
	if err != nil {
		log.Fatalf("Failed to open log file: %v", err)
	}
	if logFile != nil {
		defer logFile.Close()
	}
	logger.Info("Starting FSSP API Server...")

	// Set Gin mode
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize services
	serviceContainer, err := services.NewContainer(cfg, logger, prometheus.DefaultRegisterer)
	if err != nil {
		logger.Fatalf("Failed to initialize services: %v", err)
	}
	defer serviceContainer.Close()

	// Cancelled on SIGINT/SIGTERM; stops the worker pool and rate limiter cleanup
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize API server
	server := api.NewServer(ctx, cfg, logger, serviceContainer)

	// Setup HTTP server
	httpServer := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      server.Router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start server in a goroutine
	go func() {
		logger.WithFields(logrus.Fields{
			"addr":        httpServer.Addr,
			"environment": cfg.Server.Environment,
		}).Info("Server starting...")

		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Errorf("Failed to start server: %v", err)
			stop()
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	<-ctx.Done()
	logger.Info("Shutting down server...")

	// Create a deadline for shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Server forced to shutdown: %v", err)
	}

	logger.Info("Server exited")
}
