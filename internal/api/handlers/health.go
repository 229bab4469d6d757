package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/nexconsult/fssp-api/internal/models"
)

// Version is reported by health endpoints
const Version = "1.0.0"

// HealthChecker reports per-service health
type HealthChecker interface {
	Health() map[string]interface{}
}

// HealthHandler handles health check requests
type HealthHandler struct {
	services  HealthChecker
	logger    *logrus.Logger
	startTime time.Time
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(services HealthChecker, logger *logrus.Logger) *HealthHandler {
	return &HealthHandler{
		services:  services,
		logger:    logger,
		startTime: time.Now(),
	}
}

// GetHealth handles general health check
// @Summary Health check
// @Description Get the health status of the API and its dependencies
// @Tags Health
// @Produce json
// @Success 200 {object} models.HealthResponse
// @Failure 503 {object} models.HealthResponse
// @Router /health [get]
func (h *HealthHandler) GetHealth(c *gin.Context) {
	servicesHealth := h.services.Health()

	response := models.HealthResponse{
		Status:    overallStatus(servicesHealth),
		Timestamp: time.Now(),
		Version:   Version,
		Services:  make(map[string]models.ServiceInfo),
		Uptime:    time.Since(h.startTime).String(),
	}

	for serviceName, serviceHealth := range servicesHealth {
		healthMap, ok := serviceHealth.(map[string]interface{})
		if !ok {
			continue
		}

		serviceInfo := models.ServiceInfo{LastCheck: time.Now()}
		if serviceStatus, ok := healthMap["status"].(string); ok {
			serviceInfo.Status = serviceStatus
		}
		if errorMsg, ok := healthMap["error"].(string); ok {
			serviceInfo.Error = errorMsg
		}
		response.Services[serviceName] = serviceInfo
	}

	httpStatus := http.StatusOK
	if response.Status == "unhealthy" {
		httpStatus = http.StatusServiceUnavailable
	}

	c.JSON(httpStatus, response)
}

// GetReadiness handles readiness probe
// @Summary Readiness check
// @Description Check if the API is ready to run lookups
// @Tags Health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 503 {object} map[string]interface{}
// @Router /health/ready [get]
func (h *HealthHandler) GetReadiness(c *gin.Context) {
	servicesHealth := h.services.Health()

	issues := make([]string, 0)
	for _, name := range []string{"browser", "captcha", "fssp"} {
		if serviceStatus(servicesHealth[name]) == "unhealthy" {
			issues = append(issues, name+" service is unhealthy")
		}
	}

	response := map[string]interface{}{
		"ready":     len(issues) == 0,
		"timestamp": time.Now(),
		"services":  servicesHealth,
	}

	httpStatus := http.StatusOK
	if len(issues) > 0 {
		response["issues"] = issues
		httpStatus = http.StatusServiceUnavailable

		h.logger.WithField("issues", issues).Warn("Readiness check failed")
	}

	c.JSON(httpStatus, response)
}

// GetLiveness handles liveness probe
// @Summary Liveness check
// @Description Check if the API is alive and responding
// @Tags Health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /health/live [get]
func (h *HealthHandler) GetLiveness(c *gin.Context) {
	c.JSON(http.StatusOK, map[string]interface{}{
		"alive":     true,
		"timestamp": time.Now(),
		"uptime":    time.Since(h.startTime).String(),
		"version":   Version,
	})
}

// HealthCheck is the minimal liveness endpoint kept for existing clients
// @Summary Minimal health check
// @Tags Health
// @Produce json
// @Success 200 {object} map[string]string
// @Router /api/healthcheck [get]
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func serviceStatus(health interface{}) string {
	healthMap, ok := health.(map[string]interface{})
	if !ok {
		return ""
	}
	status, _ := healthMap["status"].(string)
	return status
}

func overallStatus(servicesHealth map[string]interface{}) string {
	status := "healthy"
	for _, serviceHealth := range servicesHealth {
		switch serviceStatus(serviceHealth) {
		case "unhealthy":
			return "unhealthy"
		case "degraded":
			status = "degraded"
		}
	}
	return status
}
