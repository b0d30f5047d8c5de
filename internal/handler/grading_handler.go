package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/capstone-api/internal/service"
	appErrors "github.com/noah-isme/capstone-api/pkg/errors"
	"github.com/noah-isme/capstone-api/pkg/response"
)

// GradingHandler wires defense grading to HTTP routes.
type GradingHandler struct {
	grading *service.GradingService
}

// NewGradingHandler constructs a new GradingHandler.
func NewGradingHandler(grading *service.GradingService) *GradingHandler {
	return &GradingHandler{grading: grading}
}

// Result godoc
// @Summary Get the recorded result of a defense session
// @Tags Grading
// @Produce json
// @Param id path string true "Schedule ID"
// @Success 200 {object} response.Envelope
// @Router /schedules/{id}/result [get]
func (h *GradingHandler) Result(c *gin.Context) {
	result, err := h.grading.Result(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// RecordResult godoc
// @Summary Record the result of a defense session
// @Tags Grading
// @Accept json
// @Produce json
// @Param id path string true "Schedule ID"
// @Param payload body service.RecordResultRequest true "Grading payload"
// @Success 201 {object} response.Envelope
// @Router /schedules/{id}/result [post]
func (h *GradingHandler) RecordResult(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil || claims.LecturerCode == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "grading requires a lecturer account"))
		return
	}
	var req service.RecordResultRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid grading payload"))
		return
	}
	result, err := h.grading.RecordResult(c.Request.Context(), c.Param("id"), claims.LecturerCode, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}
