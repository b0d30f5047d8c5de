package handler

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/capstone-api/internal/service"
	appErrors "github.com/noah-isme/capstone-api/pkg/errors"
	"github.com/noah-isme/capstone-api/pkg/response"
)

// ReportHandler streams exported reports.
type ReportHandler struct {
	reports *service.ReportService
}

// NewReportHandler constructs a new ReportHandler.
func NewReportHandler(reports *service.ReportService) *ReportHandler {
	return &ReportHandler{reports: reports}
}

// DefenseResults godoc
// @Summary Export graded defenses of a semester
// @Tags Reports
// @Produce text/csv
// @Produce application/pdf
// @Param semester_id query string true "Semester ID"
// @Param format query string false "Export format (csv or pdf, default csv)"
// @Success 200 {file} file
// @Router /reports/defense-results [get]
func (h *ReportHandler) DefenseResults(c *gin.Context) {
	semesterID := strings.TrimSpace(c.Query("semester_id"))
	if semesterID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "semester_id is required"))
		return
	}
	format := service.ReportFormat(strings.ToLower(c.DefaultQuery("format", "csv")))

	file, err := h.reports.DefenseResults(c.Request.Context(), semesterID, format)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Filename))
	c.Data(200, file.ContentType, file.Data)
}
