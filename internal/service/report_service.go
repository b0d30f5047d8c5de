package service

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/noah-isme/capstone-api/internal/models"
	"github.com/noah-isme/capstone-api/pkg/export"
	appErrors "github.com/noah-isme/capstone-api/pkg/errors"
)

type resultReportRepo interface {
	ListBySemester(ctx context.Context, semesterID string) ([]models.DefenseResultRow, error)
}

// ReportFormat selects the export encoding.
type ReportFormat string

const (
	FormatCSV ReportFormat = "csv"
	FormatPDF ReportFormat = "pdf"
)

// ReportFile is a rendered export ready to stream to the client.
type ReportFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ReportService assembles defense result reports.
type ReportService struct {
	results   resultReportRepo
	semesters semesterReader
	csv       *export.CSVExporter
	pdf       *export.PDFExporter
	logger    *zap.Logger
}

// NewReportService constructs ReportService.
func NewReportService(results resultReportRepo, semesters semesterReader, logger *zap.Logger) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportService{
		results:   results,
		semesters: semesters,
		csv:       export.NewCSVExporter(),
		pdf:       export.NewPDFExporter(),
		logger:    logger,
	}
}

// DefenseResults renders the graded defenses of a semester in the requested
// format.
func (s *ReportService) DefenseResults(ctx context.Context, semesterID string, format ReportFormat) (*ReportFile, error) {
	semester, err := s.semesters.FindByID(ctx, semesterID)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "semester not found")
	}
	rows, err := s.results.ListBySemester(ctx, semesterID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load defense results")
	}

	table := export.Table{
		Title:   fmt.Sprintf("Defense Results %s", semester.Code),
		Headers: []string{"Proposal ID", "Code", "Title", "Date", "Start", "Room", "Result", "Score"},
	}
	for _, row := range rows {
		code := ""
		if row.ProposalCode != nil {
			code = *row.ProposalCode
		}
		table.Rows = append(table.Rows, []string{
			strconv.FormatInt(row.ProposalID, 10),
			code,
			row.Title,
			row.DefenseDate.Format("2006-01-02"),
			row.StartTime,
			row.Room,
			string(row.Result),
			strconv.FormatFloat(row.Score, 'f', 1, 64),
		})
	}

	var data []byte
	var contentType, ext string
	switch format {
	case FormatPDF:
		data, err = s.pdf.Render(table)
		contentType, ext = "application/pdf", "pdf"
	case FormatCSV:
		data, err = s.csv.Render(table)
		contentType, ext = "text/csv", "csv"
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported report format %q", format))
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render report")
	}

	s.logger.Info("defense report rendered",
		zap.String("semester_id", semesterID),
		zap.String("format", string(format)),
		zap.Int("rows", len(rows)))

	return &ReportFile{
		Filename:    fmt.Sprintf("defense-results-%s.%s", semester.Code, ext),
		ContentType: contentType,
		Data:        data,
	}, nil
}
