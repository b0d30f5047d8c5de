package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/capstone-api/internal/models"
	appErrors "github.com/noah-isme/capstone-api/pkg/errors"
)

type semesterRepo interface {
	List(ctx context.Context, filter models.SemesterFilter) ([]models.Semester, int, error)
	FindByID(ctx context.Context, id string) (*models.Semester, error)
	FindCurrent(ctx context.Context) (*models.Semester, error)
	Create(ctx context.Context, semester *models.Semester) error
	SetReviewBoard(ctx context.Context, id string, seats [models.BoardSeatCount]string) error
	HasBoardDecisions(ctx context.Context, id string) (bool, error)
}

// CreateSemesterRequest is the semester creation payload.
type CreateSemesterRequest struct {
	Name         string `json:"name" validate:"required"`
	Code         string `json:"code" validate:"required"`
	AcademicYear string `json:"academic_year" validate:"required"`
	StartDate    string `json:"start_date" validate:"required"`
	EndDate      string `json:"end_date" validate:"required"`
	Current      bool   `json:"current"`
}

// SetReviewBoardRequest names the four board seats in order.
type SetReviewBoardRequest struct {
	ReviewerCodes []string `json:"reviewer_codes" validate:"required,len=4,dive,required"`
}

// SemesterService manages semesters and their review boards.
type SemesterService struct {
	repo      semesterRepo
	lecturers lecturerReader
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSemesterService constructs SemesterService.
func NewSemesterService(repo semesterRepo, lecturers lecturerReader, validate *validator.Validate, logger *zap.Logger) *SemesterService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SemesterService{repo: repo, lecturers: lecturers, validator: validate, logger: logger}
}

// List returns semesters with pagination metadata.
func (s *SemesterService) List(ctx context.Context, filter models.SemesterFilter) ([]models.Semester, *models.Pagination, error) {
	semesters, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list semesters")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return semesters, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get loads a semester by id.
func (s *SemesterService) Get(ctx context.Context, id string) (*models.Semester, error) {
	semester, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "semester not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load semester")
	}
	return semester, nil
}

// Current loads the semester flagged as current.
func (s *SemesterService) Current(ctx context.Context) (*models.Semester, error) {
	semester, err := s.repo.FindCurrent(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "no current semester configured")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load current semester")
	}
	return semester, nil
}

// Create validates and stores a semester.
func (s *SemesterService) Create(ctx context.Context, req CreateSemesterRequest) (*models.Semester, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid semester payload")
	}
	start, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "start_date must be YYYY-MM-DD")
	}
	end, err := time.Parse("2006-01-02", req.EndDate)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "end_date must be YYYY-MM-DD")
	}
	if !end.After(start) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "end_date must be after start_date")
	}

	semester := &models.Semester{
		Name:         req.Name,
		Code:         req.Code,
		AcademicYear: req.AcademicYear,
		StartDate:    start,
		EndDate:      end,
		Current:      req.Current,
	}
	if err := s.repo.Create(ctx, semester); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create semester")
	}
	return semester, nil
}

// SetReviewBoard assigns the four board seats. The board freezes once any
// decision references the semester.
func (s *SemesterService) SetReviewBoard(ctx context.Context, id string, req SetReviewBoardRequest) (*models.Semester, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid review board payload")
	}
	seen := make(map[string]bool, models.BoardSeatCount)
	for _, code := range req.ReviewerCodes {
		if seen[code] {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("lecturer %s assigned to more than one seat", code))
		}
		seen[code] = true
	}

	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	for _, code := range req.ReviewerCodes {
		if _, err := s.lecturers.FindByCode(ctx, code); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("lecturer %s not found", code))
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lecturer")
		}
	}

	locked, err := s.repo.HasBoardDecisions(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check board decisions")
	}
	if locked {
		return nil, appErrors.Clone(appErrors.ErrBoardLocked, "board seats cannot change after decisions are recorded")
	}

	var seats [models.BoardSeatCount]string
	copy(seats[:], req.ReviewerCodes)
	if err := s.repo.SetReviewBoard(ctx, id, seats); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to set review board")
	}

	s.logger.Info("review board assigned", zap.String("semester_id", id), zap.Strings("seats", req.ReviewerCodes))
	return s.Get(ctx, id)
}
