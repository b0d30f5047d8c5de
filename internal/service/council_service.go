package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/capstone-api/internal/models"
	appErrors "github.com/noah-isme/capstone-api/pkg/errors"
)

type councilRepo interface {
	Create(ctx context.Context, council *models.Council) error
	FindByID(ctx context.Context, id string) (*models.Council, error)
	ListBySemester(ctx context.Context, semesterID string) ([]models.Council, error)
}

// CouncilMemberRequest assigns one lecturer to a role on a new council.
type CouncilMemberRequest struct {
	LecturerCode string             `json:"lecturer_code" validate:"required"`
	Role         models.CouncilRole `json:"role" validate:"required,oneof=PRESIDENT SECRETARY REVIEWER GUEST"`
}

// CreateCouncilRequest is the council creation payload.
type CreateCouncilRequest struct {
	Name        string                 `json:"name" validate:"required"`
	Description *string                `json:"description"`
	SemesterID  string                 `json:"semester_id" validate:"required"`
	Members     []CouncilMemberRequest `json:"members" validate:"required,min=5,max=6,dive"`
}

// CouncilService creates councils and computes council eligibility for
// proposals.
type CouncilService struct {
	councils  councilRepo
	semesters semesterReader
	lecturers lecturerReader
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCouncilService constructs CouncilService.
func NewCouncilService(councils councilRepo, semesters semesterReader, lecturers lecturerReader, validate *validator.Validate, logger *zap.Logger) *CouncilService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CouncilService{councils: councils, semesters: semesters, lecturers: lecturers, validator: validate, logger: logger}
}

// validateComposition enforces the role cardinalities and member distinctness.
func validateComposition(members []CouncilMemberRequest) error {
	counts := make(map[models.CouncilRole]int, len(models.CouncilRoleCounts))
	seen := make(map[string]bool, len(members))
	for _, m := range members {
		if seen[m.LecturerCode] {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("lecturer %s appears twice on the council", m.LecturerCode))
		}
		seen[m.LecturerCode] = true
		counts[m.Role]++
	}
	for role, bounds := range models.CouncilRoleCounts {
		if counts[role] < bounds[0] || counts[role] > bounds[1] {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("role %s requires between %d and %d members, got %d", role, bounds[0], bounds[1], counts[role]))
		}
	}
	return nil
}

// Create validates composition and stores the council atomically.
func (s *CouncilService) Create(ctx context.Context, req CreateCouncilRequest) (*models.Council, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid council payload")
	}
	if err := validateComposition(req.Members); err != nil {
		return nil, err
	}
	if _, err := s.semesters.FindByID(ctx, req.SemesterID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "semester not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load semester")
	}

	members := make([]models.CouncilMember, 0, len(req.Members))
	for _, m := range req.Members {
		lecturer, err := s.lecturers.FindByCode(ctx, m.LecturerCode)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("lecturer %s not found", m.LecturerCode))
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lecturer")
		}
		members = append(members, models.CouncilMember{
			LecturerCode: lecturer.Code,
			LecturerName: lecturer.FullName,
			Role:         m.Role,
		})
	}

	council := &models.Council{
		Name:        req.Name,
		Description: req.Description,
		SemesterID:  req.SemesterID,
		Members:     members,
	}
	if err := s.councils.Create(ctx, council); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create council")
	}

	s.logger.Info("council created",
		zap.String("council_id", council.ID),
		zap.String("semester_id", council.SemesterID),
		zap.Int("members", len(council.Members)))
	return council, nil
}

// Get loads a council with its members.
func (s *CouncilService) Get(ctx context.Context, id string) (*models.Council, error) {
	council, err := s.councils.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "council not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load council")
	}
	return council, nil
}

// ListBySemester returns the councils of a semester.
func (s *CouncilService) ListBySemester(ctx context.Context, semesterID string) ([]models.Council, error) {
	councils, err := s.councils.ListBySemester(ctx, semesterID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list councils")
	}
	return councils, nil
}

// EligibleForProposal returns the semester's councils that contain none of the
// proposal's mentors.
func (s *CouncilService) EligibleForProposal(ctx context.Context, proposal *models.Proposal) ([]models.Council, error) {
	councils, err := s.councils.ListBySemester(ctx, proposal.SemesterID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list councils")
	}
	mentors := proposal.MentorCodes()
	eligible := make([]models.Council, 0, len(councils))
	for i := range councils {
		if !councils[i].HasAnyMember(mentors) {
			eligible = append(eligible, councils[i])
		}
	}
	return eligible, nil
}
