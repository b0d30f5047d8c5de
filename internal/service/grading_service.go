package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/capstone-api/internal/models"
	"github.com/noah-isme/capstone-api/internal/repository"
	appErrors "github.com/noah-isme/capstone-api/pkg/errors"
)

type defenseResultRepo interface {
	Create(ctx context.Context, result *models.DefenseResult) error
	FindByScheduleID(ctx context.Context, scheduleID string) (*models.DefenseResult, error)
}

type gradingScheduleRepo interface {
	FindByID(ctx context.Context, id string) (*models.DefenseSchedule, error)
	UpdateStatus(ctx context.Context, id string, status models.ScheduleStatus) error
}

// RecordResultRequest is the grading payload for a defense session.
type RecordResultRequest struct {
	Result  models.DefenseOutcome `json:"result" validate:"required,oneof=PASS FAIL"`
	Score   float64               `json:"score" validate:"required"`
	Comment *string               `json:"comment"`
}

// GradingService records defense results and drives the terminal lifecycle
// transitions.
type GradingService struct {
	results   defenseResultRepo
	schedules gradingScheduleRepo
	councils  *CouncilService
	proposals *ProposalService
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewGradingService constructs GradingService.
func NewGradingService(results defenseResultRepo, schedules gradingScheduleRepo, councils *CouncilService, proposals *ProposalService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *GradingService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GradingService{results: results, schedules: schedules, councils: councils, proposals: proposals, metrics: metrics, validator: validate, logger: logger}
}

// Result returns the recorded result for a schedule.
func (s *GradingService) Result(ctx context.Context, scheduleID string) (*models.DefenseResult, error) {
	result, err := s.results.FindByScheduleID(ctx, scheduleID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "no result recorded for this schedule")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load defense result")
	}
	return result, nil
}

// RecordResult grades a defense session. Only the council president may
// grade. A PASS completes the proposal; a FAIL grants a second defense, or
// fails the proposal when the second defense itself fails.
func (s *GradingService) RecordResult(ctx context.Context, scheduleID, graderCode string, req RecordResultRequest) (*models.DefenseResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid grading payload")
	}
	if req.Score < models.MinDefenseScore || req.Score > models.MaxDefenseScore {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("score must be between %.1f and %.1f", models.MinDefenseScore, models.MaxDefenseScore))
	}

	schedule, err := s.schedules.FindByID(ctx, scheduleID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "schedule not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule")
	}

	council, err := s.councils.Get(ctx, schedule.CouncilID)
	if err != nil {
		return nil, err
	}
	president := council.President()
	if president == nil || president.LecturerCode != graderCode {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the council president may record the result")
	}

	proposal, err := s.proposals.Get(ctx, schedule.ProposalID)
	if err != nil {
		return nil, err
	}
	if proposal.Status != models.StatusDefense && proposal.Status != models.StatusSecondDefense {
		return nil, appErrors.Clone(appErrors.ErrInvalidState, fmt.Sprintf("cannot grade a proposal in status %s", proposal.Status))
	}

	result := &models.DefenseResult{
		ScheduleID: scheduleID,
		Result:     req.Result,
		Score:      req.Score,
		Comment:    req.Comment,
	}
	if err := s.results.Create(ctx, result); err != nil {
		if errors.Is(err, repository.ErrResultExists) {
			return nil, appErrors.Clone(appErrors.ErrResultRecorded, "this defense session has already been graded")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record defense result")
	}

	target := models.StatusCompleted
	if req.Result == models.OutcomeFail {
		if proposal.Status == models.StatusDefense {
			target = models.StatusSecondDefense
		} else {
			target = models.StatusFailed
		}
	}
	if err := s.proposals.Transition(ctx, proposal, target); err != nil {
		return nil, err
	}

	if err := s.schedules.UpdateStatus(ctx, scheduleID, models.ScheduleCompleted); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to close schedule")
	}

	s.metrics.DefenseGraded(string(req.Result))
	s.logger.Info("defense graded",
		zap.String("schedule_id", scheduleID),
		zap.Int64("proposal_id", proposal.ID),
		zap.String("result", string(req.Result)),
		zap.Float64("score", req.Score),
		zap.String("status", string(target)))
	return result, nil
}
