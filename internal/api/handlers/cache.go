package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/nexconsult/fssp-api/internal/models"
	"github.com/nexconsult/fssp-api/internal/services"
)

// CacheHandler exposes the search result cache to operators
type CacheHandler struct {
	cacheService services.CacheServiceInterface
	logger       *logrus.Logger
}

func NewCacheHandler(cacheService services.CacheServiceInterface, logger *logrus.Logger) *CacheHandler {
	return &CacheHandler{cacheService: cacheService, logger: logger}
}

// GetStats handles cache statistics request
// @Summary Get cache statistics
// @Description Get cache hit/miss counters and sizes
// @Tags Admin
// @Produce json
// @Security AdminKey
// @Success 200 {object} map[string]interface{}
// @Failure 500 {object} models.ErrorResponse
// @Router /api/v1/admin/cache/stats [get]
func (h *CacheHandler) GetStats(c *gin.Context) {
	stats, err := h.cacheService.GetStats(c.Request.Context())
	if err != nil {
		h.fail(c, err, "CACHE_STATS_ERROR", "Failed to retrieve cache statistics")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"stats":     stats,
		"health":    h.cacheService.Health(),
		"timestamp": time.Now(),
	})
}

// Clear handles cache clear request
// @Summary Clear cached search results
// @Tags Admin
// @Produce json
// @Security AdminKey
// @Success 200 {object} map[string]interface{}
// @Failure 500 {object} models.ErrorResponse
// @Router /api/v1/admin/cache [delete]
func (h *CacheHandler) Clear(c *gin.Context) {
	if err := h.cacheService.Clear(c.Request.Context()); err != nil {
		h.fail(c, err, "CACHE_CLEAR_ERROR", "Failed to clear cache")
		return
	}

	h.logger.WithField("request_id", c.GetString("request_id")).Info("Search cache cleared by operator")
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"message":   "Cache cleared",
		"timestamp": time.Now(),
	})
}

func (h *CacheHandler) fail(c *gin.Context, err error, code, message string) {
	requestID := c.GetString("request_id")
	h.logger.WithFields(logrus.Fields{
		"request_id": requestID,
		"code":       code,
	}).WithError(err).Error(message)

	c.JSON(http.StatusInternalServerError, models.ErrorResponse{
		Error:     "Internal server error",
		Message:   message,
		Code:      code,
		Timestamp: time.Now(),
		Path:      c.Request.URL.Path,
		RequestID: requestID,
	})
}
