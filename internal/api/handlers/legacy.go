package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/nexconsult/fssp-api/internal/models"
	"github.com/nexconsult/fssp-api/internal/utils"
)

// Routes under /api answer with the bare record list and {"detail": ...} errors,
// the contract older clients of the service were written against.

// LegacySearchByIP handles search by proceeding number on the unversioned route
// @Summary Search by proceeding number (unversioned)
// @Tags FSSP
// @Accept json
// @Produce json
// @Param request body models.LegacyIPRequest true "Proceeding number"
// @Success 200 {array} models.CaseRecord
// @Failure 422 {object} models.DetailResponse
// @Failure 429 {object} models.DetailResponse
// @Failure 502 {object} models.DetailResponse
// @Router /api/ip [post]
func (h *FSSPHandler) LegacySearchByIP(c *gin.Context) {
	var req models.LegacyIPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.legacyRespond(c, nil, &utils.ValidationError{Field: "ip", Message: "is required"})
		return
	}

	number, err := utils.ValidateIPNumber(req.IP)
	if err != nil {
		h.legacyRespond(c, nil, err)
		return
	}

	result, err := h.fsspService.ByIP(c.Request.Context(), number)
	h.legacyRespond(c, result, err)
}

// LegacySearchByPerson handles search by debtor on the unversioned route
// @Summary Search by debtor (unversioned)
// @Tags FSSP
// @Accept json
// @Produce json
// @Param request body models.PersonRequest true "Debtor"
// @Success 200 {array} models.CaseRecord
// @Failure 422 {object} models.DetailResponse
// @Failure 429 {object} models.DetailResponse
// @Failure 502 {object} models.DetailResponse
// @Router /api/person [post]
func (h *FSSPHandler) LegacySearchByPerson(c *gin.Context) {
	var req models.PersonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.legacyRespond(c, nil, &utils.ValidationError{Field: "body", Message: "last_name, first_name and birthday are required"})
		return
	}

	query, err := personQuery(req, h.now())
	if err != nil {
		h.legacyRespond(c, nil, err)
		return
	}

	result, err := h.fsspService.ByPerson(c.Request.Context(), query)
	h.legacyRespond(c, result, err)
}

// LegacySearchByINN handles search by taxpayer number on the unversioned route
// @Summary Search by INN (unversioned)
// @Tags FSSP
// @Accept json
// @Produce json
// @Param request body models.INNRequest true "INN"
// @Success 200 {array} models.CaseRecord
// @Failure 422 {object} models.DetailResponse
// @Failure 429 {object} models.DetailResponse
// @Failure 502 {object} models.DetailResponse
// @Router /api/inn [post]
func (h *FSSPHandler) LegacySearchByINN(c *gin.Context) {
	var req models.INNRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.legacyRespond(c, nil, &utils.ValidationError{Field: "inn", Message: "is required"})
		return
	}

	inn, err := utils.ValidateINN(req.INN)
	if err != nil {
		h.legacyRespond(c, nil, err)
		return
	}

	result, err := h.fsspService.ByINN(c.Request.Context(), inn)
	h.legacyRespond(c, result, err)
}

func (h *FSSPHandler) legacyRespond(c *gin.Context, result *models.SearchResult, err error) {
	if err == nil {
		items := result.Items
		if items == nil {
			items = models.CaseList{}
		}
		c.JSON(http.StatusOK, items)
		return
	}

	status, body := legacyError(err)
	h.logger.WithFields(logrus.Fields{
		"request_id": c.GetString("request_id"),
		"path":       c.Request.URL.Path,
		"status":     status,
		"error":      err.Error(),
	}).Warn("Search failed")

	c.JSON(status, body)
}

// legacyError maps a failure to the unversioned status and body
func legacyError(err error) (int, models.DetailResponse) {
	var validationErr *utils.ValidationError
	if errors.As(err, &validationErr) {
		return http.StatusUnprocessableEntity, models.DetailResponse{Detail: validationErr.Error()}
	}

	kind, ok := models.KindOf(err)
	switch {
	case !ok:
		return http.StatusInternalServerError, models.DetailResponse{Detail: models.UnexpectedErrorMessage}
	case kind == models.KindCaptchaAttemptsExceeded:
		return http.StatusTooManyRequests, models.DetailResponse{
			Detail:    models.PublicMessage(err),
			ErrorCode: kind.Code(),
		}
	default:
		return http.StatusBadGateway, models.DetailResponse{Detail: models.PublicMessage(err)}
	}
}
