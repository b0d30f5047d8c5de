package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/capstone-api/internal/models"
)

// DefenseResultRepository persists terminal grading outcomes.
type DefenseResultRepository struct {
	db *sqlx.DB
}

// NewDefenseResultRepository creates a new defense result repository.
func NewDefenseResultRepository(db *sqlx.DB) *DefenseResultRepository {
	return &DefenseResultRepository{db: db}
}

// Create inserts a result. The unique index on schedule_id guarantees at most
// one result per schedule; a violation maps to ErrResultExists.
func (r *DefenseResultRepository) Create(ctx context.Context, result *models.DefenseResult) error {
	if result.ID == "" {
		result.ID = uuid.NewString()
	}
	if result.CreatedAt.IsZero() {
		result.CreatedAt = time.Now().UTC()
	}

	const query = `INSERT INTO defense_results (id, schedule_id, result, score, comment, created_at)
		VALUES (:id, :schedule_id, :result, :score, :comment, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, result); err != nil {
		if isUniqueViolation(err) {
			return ErrResultExists
		}
		return fmt.Errorf("create defense result: %w", err)
	}
	return nil
}

// FindByScheduleID loads the result recorded for a schedule.
func (r *DefenseResultRepository) FindByScheduleID(ctx context.Context, scheduleID string) (*models.DefenseResult, error) {
	const query = `SELECT id, schedule_id, result, score, comment, created_at FROM defense_results WHERE schedule_id = $1`
	var result models.DefenseResult
	if err := r.db.GetContext(ctx, &result, query, scheduleID); err != nil {
		return nil, err
	}
	return &result, nil
}

// ListBySemester returns reporting rows for all graded defenses of a semester.
func (r *DefenseResultRepository) ListBySemester(ctx context.Context, semesterID string) ([]models.DefenseResultRow, error) {
	const query = `SELECT p.id AS proposal_id, p.code AS proposal_code, p.title, s.defense_date, s.start_time, s.room, dr.result, dr.score
		FROM defense_results dr
		JOIN defense_schedules s ON s.id = dr.schedule_id
		JOIN proposals p ON p.id = s.proposal_id
		WHERE p.semester_id = $1
		ORDER BY s.defense_date ASC, s.start_time ASC`
	var rows []models.DefenseResultRow
	if err := r.db.SelectContext(ctx, &rows, query, semesterID); err != nil {
		return nil, fmt.Errorf("list defense results: %w", err)
	}
	return rows, nil
}
