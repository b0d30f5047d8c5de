package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/noah-isme/capstone-api/internal/models"
	"github.com/noah-isme/capstone-api/internal/repository"
	appErrors "github.com/noah-isme/capstone-api/pkg/errors"
)

type proposalRepo interface {
	List(ctx context.Context, filter models.ProposalFilter) ([]models.Proposal, int, error)
	FindByID(ctx context.Context, id int64) (*models.Proposal, error)
	Create(ctx context.Context, proposal *models.Proposal) error
	UpdateStatusIf(ctx context.Context, id int64, from, to models.ProposalStatus) error
	RecordDuplicateOutcome(ctx context.Context, id int64, status models.ProposalStatus, closestID *int64, distance *float64) error
}

type semesterReader interface {
	FindByID(ctx context.Context, id string) (*models.Semester, error)
}

// DuplicateVerdict is the outcome reported by the external duplicate-detection
// service. Distance is stored verbatim and never interpreted here.
type DuplicateVerdict struct {
	Duplicate bool     `json:"duplicate"`
	ClosestID *int64   `json:"closest_id,omitempty"`
	Distance  *float64 `json:"distance,omitempty"`
}

// DuplicateChecker abstracts the external duplicate-detection collaborator.
type DuplicateChecker interface {
	Check(ctx context.Context, title, description string) (*DuplicateVerdict, error)
}

// CreateProposalRequest is the submission payload.
type CreateProposalRequest struct {
	Code                *string                  `json:"code"`
	Title               string                   `json:"title" validate:"required"`
	Context             string                   `json:"context" validate:"required"`
	Description         string                   `json:"description" validate:"required"`
	FunctionalReqs      []string                 `json:"functional_reqs" validate:"required,min=1,dive,required"`
	NonFunctionalReqs   []string                 `json:"non_functional_reqs" validate:"required,min=1,dive,required"`
	Students            []models.ProposalStudent `json:"students" validate:"required,min=1,max=6"`
	PrimaryMentorCode   string                   `json:"primary_mentor_code" validate:"required"`
	SecondaryMentorCode *string                  `json:"secondary_mentor_code"`
	SemesterID          string                   `json:"semester_id" validate:"required"`
}

// DuplicateOutcomeRequest records the screening verdict on a submitted proposal.
type DuplicateOutcomeRequest struct {
	Accepted  bool     `json:"accepted"`
	ClosestID *int64   `json:"closest_id"`
	Distance  *float64 `json:"distance"`
}

// ProposalService owns the proposal lifecycle state machine.
type ProposalService struct {
	repo      proposalRepo
	semesters semesterReader
	checker   DuplicateChecker
	validator *validator.Validate
	logger    *zap.Logger
}

// NewProposalService constructs ProposalService. checker may be nil when the
// duplicate-detection collaborator is not configured.
func NewProposalService(repo proposalRepo, semesters semesterReader, checker DuplicateChecker, validate *validator.Validate, logger *zap.Logger) *ProposalService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProposalService{repo: repo, semesters: semesters, checker: checker, validator: validate, logger: logger}
}

// List returns proposals with pagination metadata.
func (s *ProposalService) List(ctx context.Context, filter models.ProposalFilter) ([]models.Proposal, *models.Pagination, error) {
	proposals, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list proposals")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return proposals, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns a single proposal.
func (s *ProposalService) Get(ctx context.Context, id int64) (*models.Proposal, error) {
	proposal, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "proposal not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load proposal")
	}
	return proposal, nil
}

// Create validates and stores a new submission in SUBMITTED status.
func (s *ProposalService) Create(ctx context.Context, req CreateProposalRequest) (*models.Proposal, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid proposal payload")
	}
	for _, student := range req.Students {
		if student.StudentID == "" || student.Name == "" {
			return nil, appErrors.Clone(appErrors.ErrValidation, "each roster entry requires student id and name")
		}
	}
	seen := make(map[string]bool, len(req.Students))
	for _, student := range req.Students {
		if seen[student.StudentID] {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("student %s listed twice", student.StudentID))
		}
		seen[student.StudentID] = true
	}
	if req.SecondaryMentorCode != nil && *req.SecondaryMentorCode == req.PrimaryMentorCode {
		return nil, appErrors.Clone(appErrors.ErrValidation, "primary and secondary mentor must be distinct")
	}
	if _, err := s.semesters.FindByID(ctx, req.SemesterID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "semester not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load semester")
	}

	students, err := json.Marshal(req.Students)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode roster")
	}

	proposal := &models.Proposal{
		Code:                req.Code,
		Title:               req.Title,
		Context:             req.Context,
		Description:         req.Description,
		FunctionalReqs:      pq.StringArray(req.FunctionalReqs),
		NonFunctionalReqs:   pq.StringArray(req.NonFunctionalReqs),
		Students:            students,
		PrimaryMentorCode:   req.PrimaryMentorCode,
		SecondaryMentorCode: req.SecondaryMentorCode,
		SemesterID:          req.SemesterID,
		Status:              models.StatusSubmitted,
	}
	if err := s.repo.Create(ctx, proposal); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create proposal")
	}
	return proposal, nil
}

// Screen asks the external duplicate-detection service for a verdict and
// records the outcome.
func (s *ProposalService) Screen(ctx context.Context, id int64) (*models.Proposal, error) {
	if s.checker == nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "duplicate-detection service not configured")
	}
	proposal, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	verdict, err := s.checker.Check(ctx, proposal.Title, proposal.Description)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "duplicate-detection call failed")
	}
	return s.RecordDuplicateOutcome(ctx, id, DuplicateOutcomeRequest{
		Accepted:  !verdict.Duplicate,
		ClosestID: verdict.ClosestID,
		Distance:  verdict.Distance,
	})
}

// RecordDuplicateOutcome applies the screening verdict. Re-delivery of the
// same outcome is a no-op.
func (s *ProposalService) RecordDuplicateOutcome(ctx context.Context, id int64, req DuplicateOutcomeRequest) (*models.Proposal, error) {
	proposal, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	target := models.StatusDuplicateRejected
	if req.Accepted {
		target = models.StatusDuplicateAccepted
	}

	if proposal.Status == target {
		return proposal, nil
	}
	if proposal.Status != models.StatusSubmitted {
		return nil, appErrors.Clone(appErrors.ErrInvalidState, fmt.Sprintf("duplicate outcome not allowed in status %s", proposal.Status))
	}

	if err := s.repo.RecordDuplicateOutcome(ctx, id, target, req.ClosestID, req.Distance); err != nil {
		if errors.Is(err, repository.ErrStaleStatus) {
			// Concurrent delivery: reload and accept if it converged.
			return s.reloadExpecting(ctx, id, target)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record duplicate outcome")
	}

	s.logger.Info("duplicate outcome recorded",
		zap.Int64("proposal_id", id),
		zap.String("status", string(target)))
	return s.Get(ctx, id)
}

// RejectByAdmin force-rejects a proposal anywhere before the defense phase.
func (s *ProposalService) RejectByAdmin(ctx context.Context, id int64) (*models.Proposal, error) {
	proposal, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if proposal.Status == models.StatusRejectByAdmin {
		return proposal, nil
	}
	if !proposal.Status.BeforeDefense() {
		return nil, appErrors.Clone(appErrors.ErrInvalidState, fmt.Sprintf("cannot admin-reject in status %s", proposal.Status))
	}
	if err := s.repo.UpdateStatusIf(ctx, id, proposal.Status, models.StatusRejectByAdmin); err != nil {
		if errors.Is(err, repository.ErrStaleStatus) {
			return s.reloadExpecting(ctx, id, models.StatusRejectByAdmin)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reject proposal")
	}
	return s.Get(ctx, id)
}

// Transition applies a generic lifecycle transition with idempotent
// re-delivery semantics.
func (s *ProposalService) Transition(ctx context.Context, proposal *models.Proposal, to models.ProposalStatus) error {
	if proposal.Status == to {
		return nil
	}
	if !proposal.Status.CanTransition(to) {
		return appErrors.Clone(appErrors.ErrInvalidState, fmt.Sprintf("transition %s -> %s not allowed", proposal.Status, to))
	}
	if err := s.repo.UpdateStatusIf(ctx, proposal.ID, proposal.Status, to); err != nil {
		if errors.Is(err, repository.ErrStaleStatus) {
			if _, rerr := s.reloadExpecting(ctx, proposal.ID, to); rerr == nil {
				proposal.Status = to
				return nil
			}
			return appErrors.Clone(appErrors.ErrInvalidState, fmt.Sprintf("proposal changed concurrently during %s -> %s", proposal.Status, to))
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to transition proposal")
	}
	proposal.Status = to
	return nil
}

func (s *ProposalService) reloadExpecting(ctx context.Context, id int64, expected models.ProposalStatus) (*models.Proposal, error) {
	proposal, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if proposal.Status != expected {
		return nil, appErrors.Clone(appErrors.ErrInvalidState, fmt.Sprintf("proposal is in status %s", proposal.Status))
	}
	return proposal, nil
}
