package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/nexconsult/fssp-api/internal/models"
	"github.com/nexconsult/fssp-api/internal/services"
	"github.com/nexconsult/fssp-api/internal/utils"
)

// FSSPHandler handles enforcement proceeding searches
type FSSPHandler struct {
	fsspService services.FSSPServiceInterface
	logger      *logrus.Logger
	now         func() time.Time
}

// NewFSSPHandler creates a new search handler
func NewFSSPHandler(fsspService services.FSSPServiceInterface, logger *logrus.Logger) *FSSPHandler {
	return &FSSPHandler{
		fsspService: fsspService,
		logger:      logger,
		now:         time.Now,
	}
}

// SearchByIP handles search by proceeding number
// @Summary Search by proceeding number
// @Description Look up an enforcement proceeding by its number
// @Tags FSSP
// @Accept json
// @Produce json
// @Param request body models.IPRequest true "Proceeding number"
// @Success 200 {object} models.SearchResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 429 {object} models.ErrorResponse
// @Failure 502 {object} models.ErrorResponse
// @Router /api/v1/ip [post]
func (h *FSSPHandler) SearchByIP(c *gin.Context) {
	var req models.IPRequest
	if !h.bind(c, &req) {
		return
	}

	// Validate proceeding number
	number, err := utils.ValidateIPNumber(req.IPNumber)
	if err != nil {
		h.invalid(c, err)
		return
	}

	result, err := h.fsspService.ByIP(c.Request.Context(), number)
	h.respond(c, result, err)
}

// SearchByPerson handles search by debtor
// @Summary Search by debtor
// @Description Look up enforcement proceedings by debtor full name and birth date
// @Tags FSSP
// @Accept json
// @Produce json
// @Param request body models.PersonRequest true "Debtor"
// @Success 200 {object} models.SearchResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 429 {object} models.ErrorResponse
// @Failure 502 {object} models.ErrorResponse
// @Router /api/v1/person [post]
func (h *FSSPHandler) SearchByPerson(c *gin.Context) {
	var req models.PersonRequest
	if !h.bind(c, &req) {
		return
	}

	// Validate debtor fields; a blank patronymic is dropped
	query, err := personQuery(req, h.now())
	if err != nil {
		h.invalid(c, err)
		return
	}

	result, err := h.fsspService.ByPerson(c.Request.Context(), query)
	h.respond(c, result, err)
}

// SearchByINN handles search by taxpayer number
// @Summary Search by INN
// @Description Look up enforcement proceedings by INN
// @Tags FSSP
// @Accept json
// @Produce json
// @Param request body models.INNRequest true "INN"
// @Success 200 {object} models.SearchResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 429 {object} models.ErrorResponse
// @Failure 502 {object} models.ErrorResponse
// @Router /api/v1/inn [post]
func (h *FSSPHandler) SearchByINN(c *gin.Context) {
	var req models.INNRequest
	if !h.bind(c, &req) {
		return
	}

	// Validate INN
	inn, err := utils.ValidateINN(req.INN)
	if err != nil {
		h.invalid(c, err)
		return
	}

	result, err := h.fsspService.ByINN(c.Request.Context(), inn)
	h.respond(c, result, err)
}

func personQuery(req models.PersonRequest, now time.Time) (models.PersonQuery, error) {
	return utils.ValidatePerson(req.LastName, req.FirstName, req.Patronymic, req.Birthday, now)
}

func (h *FSSPHandler) bind(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		h.invalid(c, err)
		return false
	}
	return true
}

func (h *FSSPHandler) invalid(c *gin.Context, err error) {
	requestID := c.GetString("request_id")

	h.logger.WithFields(logrus.Fields{
		"request_id": requestID,
		"path":       c.Request.URL.Path,
		"error":      err.Error(),
	}).Warn("Invalid search request")

	c.JSON(http.StatusBadRequest, models.ErrorResponse{
		Error:     "Invalid request",
		Message:   err.Error(),
		Code:      "INVALID_REQUEST",
		Timestamp: time.Now(),
		Path:      c.Request.URL.Path,
		RequestID: requestID,
	})
}

func (h *FSSPHandler) respond(c *gin.Context, result *models.SearchResult, err error) {
	requestID := c.GetString("request_id")

	if err != nil {
		status, response := errorResponse(err)
		response.Path = c.Request.URL.Path
		response.RequestID = requestID

		// the full error chain goes to the log, the caller only sees the message
		entry := h.logger.WithFields(logrus.Fields{
			"request_id": requestID,
			"status":     status,
			"code":       response.Code,
			"error":      err.Error(),
		})
		if models.IsKind(err, models.KindCaptchaAttemptsExceeded) {
			entry.Warn("Search throttled by the registry")
		} else {
			entry.Error("Search failed")
		}

		c.JSON(status, response)
		return
	}

	h.logger.WithFields(logrus.Fields{
		"request_id": requestID,
		"query":      result.Query,
		"count":      result.Count,
		"cached":     result.Cached,
	}).Info("Search completed")

	c.JSON(http.StatusOK, models.NewSearchResponse(result, requestID))
}

// errorResponse maps a lookup failure to its HTTP status and body
func errorResponse(err error) (int, models.ErrorResponse) {
	response := models.ErrorResponse{Timestamp: time.Now()}

	var validationErr *utils.ValidationError
	if errors.As(err, &validationErr) {
		response.Error = "Invalid request"
		response.Message = validationErr.Error()
		response.Code = "INVALID_REQUEST"
		return http.StatusBadRequest, response
	}

	kind, ok := models.KindOf(err)
	if !ok {
		response.Error = "Internal server error"
		response.Message = "An unexpected error occurred"
		response.Code = "INTERNAL_ERROR"
		return http.StatusInternalServerError, response
	}

	response.Message = models.PublicMessage(err)
	response.Code = kind.Code()

	switch kind {
	case models.KindCaptchaAttemptsExceeded:
		response.Error = "Captcha attempts exceeded"
		return http.StatusTooManyRequests, response
	case models.KindCaptchaSolveFailure:
		response.Error = "Captcha error"
	case models.KindResultParsingFailure:
		response.Error = "Parsing error"
	default:
		response.Error = "FSSP unavailable"
	}
	return http.StatusBadGateway, response
}
