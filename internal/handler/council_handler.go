package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/capstone-api/internal/service"
	appErrors "github.com/noah-isme/capstone-api/pkg/errors"
	"github.com/noah-isme/capstone-api/pkg/response"
)

// CouncilHandler wires defense councils to HTTP routes.
type CouncilHandler struct {
	councils *service.CouncilService
}

// NewCouncilHandler constructs a new CouncilHandler.
func NewCouncilHandler(councils *service.CouncilService) *CouncilHandler {
	return &CouncilHandler{councils: councils}
}

// List godoc
// @Summary List councils of a semester
// @Tags Councils
// @Produce json
// @Param semester_id query string true "Semester ID"
// @Success 200 {object} response.Envelope
// @Router /councils [get]
func (h *CouncilHandler) List(c *gin.Context) {
	semesterID := strings.TrimSpace(c.Query("semester_id"))
	if semesterID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "semester_id is required"))
		return
	}
	councils, err := h.councils.ListBySemester(c.Request.Context(), semesterID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, councils, nil)
}

// Get godoc
// @Summary Get council detail
// @Tags Councils
// @Produce json
// @Param id path string true "Council ID"
// @Success 200 {object} response.Envelope
// @Router /councils/{id} [get]
func (h *CouncilHandler) Get(c *gin.Context) {
	council, err := h.councils.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, council, nil)
}

// Create godoc
// @Summary Create a defense council
// @Tags Councils
// @Accept json
// @Produce json
// @Param payload body service.CreateCouncilRequest true "Council payload"
// @Success 201 {object} response.Envelope
// @Router /councils [post]
func (h *CouncilHandler) Create(c *gin.Context) {
	var req service.CreateCouncilRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid council payload"))
		return
	}
	council, err := h.councils.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, council)
}
