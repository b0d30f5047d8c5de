package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/capstone-api/internal/models"
)

// DefenseScheduleRepository provides persistence for defense bookings.
type DefenseScheduleRepository struct {
	db *sqlx.DB
}

// NewDefenseScheduleRepository creates a new defense schedule repository.
func NewDefenseScheduleRepository(db *sqlx.DB) *DefenseScheduleRepository {
	return &DefenseScheduleRepository{db: db}
}

const scheduleColumns = "id, proposal_id, council_id, defense_date, start_time, end_time, room, status, created_at, updated_at"

// Create inserts a booking. The unique index on (defense_date, start_time,
// end_time) is the authoritative conflict check; a violation maps to
// ErrSlotConflict so concurrent bookings cannot both win.
func (r *DefenseScheduleRepository) Create(ctx context.Context, schedule *models.DefenseSchedule) error {
	if schedule.ID == "" {
		schedule.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if schedule.CreatedAt.IsZero() {
		schedule.CreatedAt = now
	}
	schedule.UpdatedAt = now

	const query = `INSERT INTO defense_schedules (id, proposal_id, council_id, defense_date, start_time, end_time, room, status, created_at, updated_at)
		VALUES (:id, :proposal_id, :council_id, :defense_date, :start_time, :end_time, :room, :status, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, schedule); err != nil {
		if isUniqueViolation(err) {
			return ErrSlotConflict
		}
		return fmt.Errorf("create defense schedule: %w", err)
	}
	return nil
}

// FindByID loads a booking by id.
func (r *DefenseScheduleRepository) FindByID(ctx context.Context, id string) (*models.DefenseSchedule, error) {
	query := fmt.Sprintf("SELECT %s FROM defense_schedules WHERE id = $1", scheduleColumns)
	var schedule models.DefenseSchedule
	if err := r.db.GetContext(ctx, &schedule, query, id); err != nil {
		return nil, err
	}
	return &schedule, nil
}

// FindBySlot returns the booking holding the (date, start, end) triple, if any.
func (r *DefenseScheduleRepository) FindBySlot(ctx context.Context, date time.Time, start, end string) (*models.DefenseSchedule, error) {
	query := fmt.Sprintf("SELECT %s FROM defense_schedules WHERE defense_date = $1 AND start_time = $2 AND end_time = $3", scheduleColumns)
	var schedule models.DefenseSchedule
	if err := r.db.GetContext(ctx, &schedule, query, date, start, end); err != nil {
		return nil, err
	}
	return &schedule, nil
}

// ListByProposal returns a proposal's bookings ordered by creation.
func (r *DefenseScheduleRepository) ListByProposal(ctx context.Context, proposalID int64) ([]models.DefenseSchedule, error) {
	query := fmt.Sprintf("SELECT %s FROM defense_schedules WHERE proposal_id = $1 ORDER BY created_at ASC", scheduleColumns)
	var schedules []models.DefenseSchedule
	if err := r.db.SelectContext(ctx, &schedules, query, proposalID); err != nil {
		return nil, fmt.Errorf("list schedules by proposal: %w", err)
	}
	return schedules, nil
}

// List returns bookings with optional filtering and pagination.
func (r *DefenseScheduleRepository) List(ctx context.Context, filter models.ScheduleFilter) ([]models.DefenseSchedule, int, error) {
	base := "FROM defense_schedules WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.SemesterID != "" {
		conditions = append(conditions, fmt.Sprintf("proposal_id IN (SELECT id FROM proposals WHERE semester_id = $%d)", len(args)+1))
		args = append(args, filter.SemesterID)
	}
	if filter.ProposalID != 0 {
		conditions = append(conditions, fmt.Sprintf("proposal_id = $%d", len(args)+1))
		args = append(args, filter.ProposalID)
	}
	if filter.DateFrom != nil {
		conditions = append(conditions, fmt.Sprintf("defense_date >= $%d", len(args)+1))
		args = append(args, *filter.DateFrom)
	}
	if filter.DateTo != nil {
		conditions = append(conditions, fmt.Sprintf("defense_date <= $%d", len(args)+1))
		args = append(args, *filter.DateTo)
	}
	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s ORDER BY defense_date ASC, start_time ASC LIMIT %d OFFSET %d", scheduleColumns, base, size, offset)
	var schedules []models.DefenseSchedule
	if err := r.db.SelectContext(ctx, &schedules, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list defense schedules: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count defense schedules: %w", err)
	}

	return schedules, total, nil
}

// UpdateStatus moves a booking between BOOKED and COMPLETED.
func (r *DefenseScheduleRepository) UpdateStatus(ctx context.Context, id string, status models.ScheduleStatus) error {
	const query = `UPDATE defense_schedules SET status = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, status, time.Now().UTC()); err != nil {
		return fmt.Errorf("update schedule status: %w", err)
	}
	return nil
}
