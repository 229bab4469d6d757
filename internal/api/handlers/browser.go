package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/nexconsult/fssp-api/internal/services"
)

// BrowserHandler exposes browser session statistics
type BrowserHandler struct {
	browserService services.BrowserServiceInterface
	logger         *logrus.Logger
}

// NewBrowserHandler creates a new browser handler
func NewBrowserHandler(browserService services.BrowserServiceInterface, logger *logrus.Logger) *BrowserHandler {
	return &BrowserHandler{
		browserService: browserService,
		logger:         logger,
	}
}

// GetStats handles browser statistics request
// @Summary Get browser session statistics
// @Tags Admin
// @Produce json
// @Security AdminKey
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/admin/browser/stats [get]
func (h *BrowserHandler) GetStats(c *gin.Context) {
	h.logger.WithField("request_id", c.GetString("request_id")).Debug("Getting browser statistics")

	c.JSON(http.StatusOK, map[string]interface{}{
		"stats":     h.browserService.GetStats(),
		"health":    h.browserService.Health(),
		"timestamp": time.Now(),
	})
}
