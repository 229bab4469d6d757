package main

import (
	"fmt"
	stdlog "log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/nexconsult/fssp-api/internal/api/handlers"
	"github.com/nexconsult/fssp-api/internal/config"
	"github.com/nexconsult/fssp-api/internal/logger"
	"github.com/nexconsult/fssp-api/internal/services"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run() error {
	// Load environment variables
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("configuration: %w", err)
	}

	// stdout carries the protocol, so logs go to stderr
	log := logger.New(cfg.Log.Level, cfg.Log.Format)
	log.SetOutput(os.Stderr)

	container, err := services.NewContainer(cfg, log, prometheus.NewRegistry())
	if err != nil {
		return err
	}
	defer container.Close()

	tools := &toolServer{service: container.FSSPService, logger: log, now: time.Now}

	errorLog := log.WriterLevel(logrus.ErrorLevel)
	defer errorLog.Close()

	log.Info("Serving FSSP search tools on stdio")
	return server.ServeStdio(newMCPServer(tools, handlers.Version),
		server.WithErrorLogger(stdlog.New(errorLog, "", 0)),
	)
}
