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

type boardDecisionRepo interface {
	ListByProposal(ctx context.Context, proposalID int64) ([]models.BoardDecision, error)
	Record(ctx context.Context, decision *models.BoardDecision) ([]models.BoardDecision, error)
}

type boardProposalRepo interface {
	FindByID(ctx context.Context, id int64) (*models.Proposal, error)
	UpdateStatusIf(ctx context.Context, id int64, from, to models.ProposalStatus) error
}

// BoardDecisionRequest is one seat's verdict on a proposal.
type BoardDecisionRequest struct {
	Verdict models.BoardVerdict `json:"verdict" validate:"required,oneof=ACCEPTED REJECTED"`
	Reason  *string             `json:"reason"`
}

// BoardReviewState is the decision set plus the quorum outcome derived from it.
type BoardReviewState struct {
	Decisions []models.BoardDecision `json:"decisions"`
	Outcome   models.QuorumOutcome   `json:"outcome"`
}

// BoardService records review board seat decisions and finalizes proposals
// once quorum is reached.
type BoardService struct {
	decisions boardDecisionRepo
	proposals boardProposalRepo
	semesters semesterReader
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewBoardService constructs BoardService. metrics may be nil.
func NewBoardService(decisions boardDecisionRepo, proposals boardProposalRepo, semesters semesterReader, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *BoardService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BoardService{decisions: decisions, proposals: proposals, semesters: semesters, metrics: metrics, validator: validate, logger: logger}
}

// Decisions returns the recorded decision set and its quorum outcome.
func (s *BoardService) Decisions(ctx context.Context, proposalID int64) (*BoardReviewState, error) {
	decisions, err := s.decisions.ListByProposal(ctx, proposalID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list board decisions")
	}
	return &BoardReviewState{Decisions: decisions, Outcome: models.EvaluateQuorum(decisions)}, nil
}

// RecordDecision records one seat's verdict. The seat is resolved from the
// reviewer's code against the semester board. When the decision completes the
// quorum, the proposal is finalized exactly once.
func (s *BoardService) RecordDecision(ctx context.Context, proposalID int64, reviewerCode string, req BoardDecisionRequest) (*BoardReviewState, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid board decision")
	}
	if req.Verdict == models.VerdictRejected && (req.Reason == nil || *req.Reason == "") {
		return nil, appErrors.Clone(appErrors.ErrValidation, "a rejection requires a reason")
	}

	proposal, err := s.proposals.FindByID(ctx, proposalID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "proposal not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load proposal")
	}
	if proposal.Status != models.StatusDuplicateAccepted {
		return nil, appErrors.Clone(appErrors.ErrInvalidState, fmt.Sprintf("board review not open in status %s", proposal.Status))
	}

	semester, err := s.semesters.FindByID(ctx, proposal.SemesterID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "semester not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load semester")
	}
	seat := semester.SeatForReviewer(reviewerCode)
	if seat == 0 {
		return nil, appErrors.Clone(appErrors.ErrForbidden, fmt.Sprintf("lecturer %s does not hold a board seat this semester", reviewerCode))
	}

	decision := &models.BoardDecision{
		ProposalID:   proposalID,
		SemesterID:   semester.ID,
		Seat:         seat,
		ReviewerCode: reviewerCode,
		Verdict:      req.Verdict,
		Reason:       req.Reason,
	}

	recorded, err := s.decisions.Record(ctx, decision)
	switch {
	case errors.Is(err, repository.ErrQuorumLocked):
		return nil, appErrors.Clone(appErrors.ErrQuorumReached, "board review already concluded for this proposal")
	case errors.Is(err, repository.ErrSeatTaken):
		return nil, appErrors.Clone(appErrors.ErrSeatDecided, fmt.Sprintf("seat %d has already decided", seat))
	case err != nil:
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record board decision")
	}

	outcome := models.EvaluateQuorum(recorded)
	if outcome.Reached {
		if err := s.finalize(ctx, proposal, outcome); err != nil {
			return nil, err
		}
	}

	s.logger.Info("board decision recorded",
		zap.Int64("proposal_id", proposalID),
		zap.Int("seat", seat),
		zap.String("verdict", string(req.Verdict)),
		zap.Bool("quorum_reached", outcome.Reached))

	return &BoardReviewState{Decisions: recorded, Outcome: outcome}, nil
}

// finalize moves the proposal out of DUPLICATE_ACCEPTED based on the quorum
// outcome. A concurrent finalizer losing the compare-and-set is a no-op.
func (s *BoardService) finalize(ctx context.Context, proposal *models.Proposal, outcome models.QuorumOutcome) error {
	target := models.StatusRejected
	if outcome.Accepted {
		target = models.StatusReview1
	}
	err := s.proposals.UpdateStatusIf(ctx, proposal.ID, models.StatusDuplicateAccepted, target)
	if err != nil {
		if errors.Is(err, repository.ErrStaleStatus) {
			return nil
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to finalize board review")
	}
	if s.metrics != nil {
		s.metrics.BoardFinalized(outcome.Accepted)
	}
	s.logger.Info("board review finalized",
		zap.Int64("proposal_id", proposal.ID),
		zap.String("status", string(target)))
	return nil
}
