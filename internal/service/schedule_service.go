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

type scheduleRepo interface {
	Create(ctx context.Context, schedule *models.DefenseSchedule) error
	FindByID(ctx context.Context, id string) (*models.DefenseSchedule, error)
	FindBySlot(ctx context.Context, date time.Time, start, end string) (*models.DefenseSchedule, error)
	ListByProposal(ctx context.Context, proposalID int64) ([]models.DefenseSchedule, error)
	List(ctx context.Context, filter models.ScheduleFilter) ([]models.DefenseSchedule, int, error)
}

// SlotConflictChecker decides whether a (date, start, end) triple is free.
// The conflict key deliberately excludes the room; swapping this
// implementation is the single place to relax that policy.
type SlotConflictChecker interface {
	Check(ctx context.Context, date time.Time, start, end string) error
}

// globalSlotPolicy treats a slot as taken when any booking holds the triple,
// regardless of room.
type globalSlotPolicy struct {
	schedules scheduleRepo
}

// NewGlobalSlotPolicy builds the default conflict checker.
func NewGlobalSlotPolicy(schedules scheduleRepo) SlotConflictChecker {
	return &globalSlotPolicy{schedules: schedules}
}

func (p *globalSlotPolicy) Check(ctx context.Context, date time.Time, start, end string) error {
	if _, err := p.schedules.FindBySlot(ctx, date, start, end); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		return err
	}
	return repository.ErrSlotConflict
}

// BookScheduleRequest is the defense booking payload.
type BookScheduleRequest struct {
	ProposalID  int64  `json:"proposal_id" validate:"required"`
	CouncilID   string `json:"council_id" validate:"required"`
	DefenseDate string `json:"defense_date" validate:"required"`
	StartTime   string `json:"start_time" validate:"required"`
	EndTime     string `json:"end_time" validate:"required"`
	Room        string `json:"room" validate:"required"`
}

// ScheduleService books defense sessions, enforcing slot exclusivity, council
// eligibility and lifecycle ordering.
type ScheduleService struct {
	schedules scheduleRepo
	proposals *ProposalService
	councils  *CouncilService
	conflicts SlotConflictChecker
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewScheduleService constructs ScheduleService. When conflicts is nil the
// global slot policy is used.
func NewScheduleService(schedules scheduleRepo, proposals *ProposalService, councils *CouncilService, conflicts SlotConflictChecker, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *ScheduleService {
	if conflicts == nil {
		conflicts = NewGlobalSlotPolicy(schedules)
	}
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScheduleService{
		schedules: schedules,
		proposals: proposals,
		councils:  councils,
		conflicts: conflicts,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		now:       time.Now,
	}
}

// Get loads a booking by id.
func (s *ScheduleService) Get(ctx context.Context, id string) (*models.DefenseSchedule, error) {
	schedule, err := s.schedules.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "schedule not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule")
	}
	return schedule, nil
}

// List returns bookings with pagination metadata.
func (s *ScheduleService) List(ctx context.Context, filter models.ScheduleFilter) ([]models.DefenseSchedule, *models.Pagination, error) {
	schedules, total, err := s.schedules.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list schedules")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return schedules, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Book validates and persists a defense booking. The first booking moves the
// proposal from REVIEW_3 to DEFENSE; a second-defense booking leaves the
// status unchanged. Re-delivery of an identical booking returns the existing
// record.
func (s *ScheduleService) Book(ctx context.Context, req BookScheduleRequest) (*models.DefenseSchedule, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid booking payload")
	}

	date, err := time.Parse("2006-01-02", req.DefenseDate)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "defense_date must be YYYY-MM-DD")
	}
	today := s.now().UTC().Truncate(24 * time.Hour)
	if date.Before(today) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "defense date must not be in the past")
	}
	if !models.ValidSlot(req.StartTime, req.EndTime) {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("(%s, %s) is not a valid defense slot", req.StartTime, req.EndTime))
	}

	proposal, err := s.proposals.Get(ctx, req.ProposalID)
	if err != nil {
		return nil, err
	}

	switch proposal.Status {
	case models.StatusReview3:
		if !proposal.Round(3).Recorded() {
			return nil, appErrors.Clone(appErrors.ErrInvalidState, "round 3 must be recorded before booking a defense")
		}
	case models.StatusSecondDefense:
		if existing := s.matchingBooking(ctx, req, date); existing != nil {
			return existing, nil
		}
		active, err := s.hasActiveBooking(ctx, req.ProposalID)
		if err != nil {
			return nil, err
		}
		if active {
			return nil, appErrors.Clone(appErrors.ErrInvalidState, "proposal already has an active defense booking")
		}
	case models.StatusDefense:
		if existing := s.matchingBooking(ctx, req, date); existing != nil {
			return existing, nil
		}
		return nil, appErrors.Clone(appErrors.ErrInvalidState, "proposal already has an active defense booking")
	default:
		return nil, appErrors.Clone(appErrors.ErrInvalidState, fmt.Sprintf("cannot book a defense in status %s", proposal.Status))
	}

	council, err := s.councils.Get(ctx, req.CouncilID)
	if err != nil {
		return nil, err
	}
	if council.SemesterID != proposal.SemesterID {
		return nil, appErrors.Clone(appErrors.ErrValidation, "council belongs to a different semester")
	}
	eligible, err := s.councils.EligibleForProposal(ctx, proposal)
	if err != nil {
		return nil, err
	}
	if len(eligible) == 0 {
		return nil, appErrors.Clone(appErrors.ErrNoEligibleCouncil, "no council without the proposal's mentors exists this semester")
	}
	if council.HasAnyMember(proposal.MentorCodes()) {
		return nil, appErrors.Clone(appErrors.ErrConflict, "council contains a mentor of the proposal")
	}

	if err := s.conflicts.Check(ctx, date, req.StartTime, req.EndTime); err != nil {
		if errors.Is(err, repository.ErrSlotConflict) {
			s.metrics.SlotConflict()
			return nil, appErrors.Clone(appErrors.ErrSlotTaken, fmt.Sprintf("slot %s %s-%s is already booked", req.DefenseDate, req.StartTime, req.EndTime))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check slot availability")
	}

	schedule := &models.DefenseSchedule{
		ProposalID:  req.ProposalID,
		CouncilID:   req.CouncilID,
		DefenseDate: date,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		Room:        req.Room,
		Status:      models.ScheduleBooked,
	}
	if err := s.schedules.Create(ctx, schedule); err != nil {
		if errors.Is(err, repository.ErrSlotConflict) {
			s.metrics.SlotConflict()
			return nil, appErrors.Clone(appErrors.ErrSlotTaken, fmt.Sprintf("slot %s %s-%s is already booked", req.DefenseDate, req.StartTime, req.EndTime))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create schedule")
	}

	if proposal.Status == models.StatusReview3 {
		if err := s.proposals.Transition(ctx, proposal, models.StatusDefense); err != nil {
			return nil, err
		}
	}

	s.logger.Info("defense booked",
		zap.Int64("proposal_id", req.ProposalID),
		zap.String("schedule_id", schedule.ID),
		zap.String("date", req.DefenseDate),
		zap.String("slot", req.StartTime+"-"+req.EndTime),
		zap.String("room", req.Room))
	return schedule, nil
}

// hasActiveBooking reports whether the proposal still holds a BOOKED schedule.
func (s *ScheduleService) hasActiveBooking(ctx context.Context, proposalID int64) (bool, error) {
	schedules, err := s.schedules.ListByProposal(ctx, proposalID)
	if err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load proposal bookings")
	}
	for i := range schedules {
		if schedules[i].Status == models.ScheduleBooked {
			return true, nil
		}
	}
	return false, nil
}

// matchingBooking returns the proposal's active booking when it matches the
// request exactly, supporting idempotent re-delivery.
func (s *ScheduleService) matchingBooking(ctx context.Context, req BookScheduleRequest, date time.Time) *models.DefenseSchedule {
	schedules, err := s.schedules.ListByProposal(ctx, req.ProposalID)
	if err != nil {
		return nil
	}
	for i := range schedules {
		sc := &schedules[i]
		if sc.Status == models.ScheduleBooked &&
			sc.CouncilID == req.CouncilID &&
			sc.DefenseDate.Equal(date) &&
			sc.StartTime == req.StartTime &&
			sc.EndTime == req.EndTime &&
			sc.Room == req.Room {
			return sc
		}
	}
	return nil
}
