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
	"github.com/noah-isme/capstone-api/internal/repository"
	appErrors "github.com/noah-isme/capstone-api/pkg/errors"
)

type reviewProposalRepo interface {
	FindByID(ctx context.Context, id int64) (*models.Proposal, error)
	SetReviewRound(ctx context.Context, id int64, round int, at time.Time, r1, r2 models.ReviewerRef, from, to models.ProposalStatus) error
}

type lecturerReader interface {
	FindByCode(ctx context.Context, code string) (*models.Lecturer, error)
	ListActiveCodes(ctx context.Context) ([]string, error)
}

// AssignReviewersRequest names the two reviewers for one review round.
type AssignReviewersRequest struct {
	Round     int    `json:"round" validate:"required,min=1,max=3"`
	Reviewer1 string `json:"reviewer1_code" validate:"required"`
	Reviewer2 string `json:"reviewer2_code" validate:"required"`
}

// ReviewService assigns review rounds and computes reviewer eligibility.
type ReviewService struct {
	proposals reviewProposalRepo
	lecturers lecturerReader
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewReviewService constructs ReviewService.
func NewReviewService(proposals reviewProposalRepo, lecturers lecturerReader, validate *validator.Validate, logger *zap.Logger) *ReviewService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReviewService{proposals: proposals, lecturers: lecturers, validator: validate, logger: logger, now: time.Now}
}

// exclusionSet collects the lecturer codes barred from reviewing the proposal
// in the given round: both mentors plus every reviewer of an earlier round.
func exclusionSet(p *models.Proposal, round int) map[string]struct{} {
	excluded := make(map[string]struct{})
	for _, code := range p.MentorCodes() {
		excluded[code] = struct{}{}
	}
	for _, code := range p.ReviewerCodesBefore(round) {
		excluded[code] = struct{}{}
	}
	return excluded
}

// EligibleReviewers returns the active lecturers allowed to review the
// proposal in the given round.
func (s *ReviewService) EligibleReviewers(ctx context.Context, proposalID int64, round int) ([]string, error) {
	if round < 1 || round > 3 {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("invalid review round %d", round))
	}
	proposal, err := s.loadProposal(ctx, proposalID)
	if err != nil {
		return nil, err
	}
	pool, err := s.lecturers.ListActiveCodes(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lecturer pool")
	}
	excluded := exclusionSet(proposal, round)
	eligible := make([]string, 0, len(pool))
	for _, code := range pool {
		if _, barred := excluded[code]; !barred {
			eligible = append(eligible, code)
		}
	}
	return eligible, nil
}

// AssignReviewers records both reviewers of a round atomically and advances
// the proposal to the next review status. Re-delivery of an identical
// assignment is a no-op.
func (s *ReviewService) AssignReviewers(ctx context.Context, proposalID int64, req AssignReviewersRequest) (*models.Proposal, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid reviewer assignment")
	}
	if req.Reviewer1 == req.Reviewer2 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "a round requires two distinct reviewers")
	}

	proposal, err := s.loadProposal(ctx, proposalID)
	if err != nil {
		return nil, err
	}

	if round := proposal.Round(req.Round); round.Recorded() {
		if round.Reviewer1.Code == req.Reviewer1 && round.Reviewer2.Code == req.Reviewer2 {
			return proposal, nil
		}
		return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("round %d already recorded with different reviewers", req.Round))
	}

	required, err := models.ReviewRoundStatus(req.Round)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}
	if proposal.Status != required {
		return nil, appErrors.Clone(appErrors.ErrInvalidState, fmt.Sprintf("round %d assignment requires status %s, proposal is %s", req.Round, required, proposal.Status))
	}

	excluded := exclusionSet(proposal, req.Round)
	for _, code := range []string{req.Reviewer1, req.Reviewer2} {
		if _, barred := excluded[code]; barred {
			return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("lecturer %s is excluded from round %d", code, req.Round))
		}
	}

	pool, err := s.lecturers.ListActiveCodes(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lecturer pool")
	}
	eligible := 0
	active := make(map[string]struct{}, len(pool))
	for _, code := range pool {
		active[code] = struct{}{}
		if _, barred := excluded[code]; !barred {
			eligible++
		}
	}
	if eligible < 2 {
		return nil, appErrors.Clone(appErrors.ErrNoEligibleReviewers, fmt.Sprintf("only %d eligible reviewers remain for round %d", eligible, req.Round))
	}

	refs := make([]models.ReviewerRef, 0, 2)
	for _, code := range []string{req.Reviewer1, req.Reviewer2} {
		if _, ok := active[code]; !ok {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("lecturer %s is not an active lecturer", code))
		}
		lecturer, err := s.lecturers.FindByCode(ctx, code)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("lecturer %s not found", code))
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lecturer")
		}
		refs = append(refs, models.ReviewerRef{Code: lecturer.Code, Name: lecturer.FullName})
	}

	// Round 3 stays in REVIEW_3; the move to DEFENSE happens at booking time.
	next := required
	switch req.Round {
	case 1:
		next = models.StatusReview2
	case 2:
		next = models.StatusReview3
	}

	at := s.now().UTC()
	if err := s.proposals.SetReviewRound(ctx, proposalID, req.Round, at, refs[0], refs[1], required, next); err != nil {
		if errors.Is(err, repository.ErrStaleStatus) {
			return nil, appErrors.Clone(appErrors.ErrInvalidState, fmt.Sprintf("proposal left status %s while assigning round %d", required, req.Round))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record review round")
	}

	s.logger.Info("review round recorded",
		zap.Int64("proposal_id", proposalID),
		zap.Int("round", req.Round),
		zap.String("reviewer1", refs[0].Code),
		zap.String("reviewer2", refs[1].Code))

	return s.loadProposal(ctx, proposalID)
}

func (s *ReviewService) loadProposal(ctx context.Context, id int64) (*models.Proposal, error) {
	proposal, err := s.proposals.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "proposal not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load proposal")
	}
	return proposal, nil
}
