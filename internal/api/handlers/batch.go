package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/nexconsult/fssp-api/internal/models"
	"github.com/nexconsult/fssp-api/internal/utils"
	"github.com/nexconsult/fssp-api/internal/worker"
)

// BatchHandler handles batch searches
type BatchHandler struct {
	pool     *worker.WorkerPool
	maxItems int
	logger   *logrus.Logger
	now      func() time.Time
}

// NewBatchHandler creates a new batch handler
func NewBatchHandler(pool *worker.WorkerPool, maxItems int, logger *logrus.Logger) *BatchHandler {
	return &BatchHandler{
		pool:     pool,
		maxItems: maxItems,
		logger:   logger,
		now:      time.Now,
	}
}

// SearchBatch handles a batch of searches
// @Summary Batch search
// @Description Run several searches concurrently. Each item reports its own outcome.
// @Tags FSSP
// @Accept json
// @Produce json
// @Param request body models.BatchRequest true "Queries"
// @Success 200 {object} models.BatchResponse
// @Failure 400 {object} models.ErrorResponse
// @Router /api/v1/batch [post]
func (h *BatchHandler) SearchBatch(c *gin.Context) {
	requestID := c.GetString("request_id")

	var req models.BatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.invalid(c, err.Error())
		return
	}

	// Validate batch size
	if len(req.Queries) > h.maxItems {
		h.invalid(c, fmt.Sprintf("at most %d queries per batch, got %d", h.maxItems, len(req.Queries)))
		return
	}

	// Validate every item before any lookup starts
	queries := make([]models.Query, len(req.Queries))
	for i, item := range req.Queries {
		query, err := buildQuery(item, h.now())
		if err != nil {
			h.invalid(c, fmt.Sprintf("queries[%d]: %v", i, err))
			return
		}
		queries[i] = query
	}

	h.logger.WithFields(logrus.Fields{
		"request_id": requestID,
		"queries":    len(queries),
	}).Info("Starting batch search")

	// Process batch; a failed item never fails the batch
	response := h.pool.ProcessBatch(c.Request.Context(), queries)
	response.RequestID = requestID

	h.logger.WithFields(logrus.Fields{
		"request_id": requestID,
		"success":    response.Stats.Success,
		"errors":     response.Stats.Errors,
		"duration":   response.Stats.DurationMs,
	}).Info("Batch search completed")

	c.JSON(http.StatusOK, response)
}

func (h *BatchHandler) invalid(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, models.ErrorResponse{
		Error:     "Invalid request",
		Message:   message,
		Code:      "INVALID_REQUEST",
		Timestamp: time.Now(),
		Path:      c.Request.URL.Path,
		RequestID: c.GetString("request_id"),
	})
}

// buildQuery validates one batch item and converts it into a query
func buildQuery(item models.BatchQuery, now time.Time) (models.Query, error) {
	switch item.Type {
	case models.QueryByProceeding:
		number, err := utils.ValidateIPNumber(item.IPNumber)
		if err != nil {
			return nil, err
		}
		return models.IPQuery{Number: number}, nil
	case models.QueryByPerson:
		query, err := personQuery(models.PersonRequest{
			LastName:   item.LastName,
			FirstName:  item.FirstName,
			Patronymic: item.Patronymic,
			Birthday:   item.Birthday,
		}, now)
		if err != nil {
			return nil, err
		}
		return query, nil
	case models.QueryByINN:
		inn, err := utils.ValidateINN(item.INN)
		if err != nil {
			return nil, err
		}
		return models.INNQuery{INN: inn}, nil
	default:
		return nil, &utils.ValidationError{Field: "type", Message: "must be one of ip, person, inn"}
	}
}
