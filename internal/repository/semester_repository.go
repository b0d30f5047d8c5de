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

// SemesterRepository provides persistence for semesters and their review boards.
type SemesterRepository struct {
	db *sqlx.DB
}

// NewSemesterRepository creates a new semester repository.
func NewSemesterRepository(db *sqlx.DB) *SemesterRepository {
	return &SemesterRepository{db: db}
}

const semesterColumns = "id, name, code, academic_year, start_date, end_date, current, board_reviewer1_code, board_reviewer2_code, board_reviewer3_code, board_reviewer4_code, created_at, updated_at"

// List returns semesters with optional filtering and pagination.
func (r *SemesterRepository) List(ctx context.Context, filter models.SemesterFilter) ([]models.Semester, int, error) {
	base := "FROM semesters WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.AcademicYear != "" {
		conditions = append(conditions, fmt.Sprintf("academic_year = $%d", len(args)+1))
		args = append(args, filter.AcademicYear)
	}
	if filter.Current != nil {
		conditions = append(conditions, fmt.Sprintf("current = $%d", len(args)+1))
		args = append(args, *filter.Current)
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

	query := fmt.Sprintf("SELECT %s %s ORDER BY start_date DESC LIMIT %d OFFSET %d", semesterColumns, base, size, offset)
	var semesters []models.Semester
	if err := r.db.SelectContext(ctx, &semesters, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list semesters: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count semesters: %w", err)
	}

	return semesters, total, nil
}

// FindByID loads a semester by id.
func (r *SemesterRepository) FindByID(ctx context.Context, id string) (*models.Semester, error) {
	query := fmt.Sprintf("SELECT %s FROM semesters WHERE id = $1", semesterColumns)
	var semester models.Semester
	if err := r.db.GetContext(ctx, &semester, query, id); err != nil {
		return nil, err
	}
	return &semester, nil
}

// FindCurrent loads the semester flagged as current.
func (r *SemesterRepository) FindCurrent(ctx context.Context) (*models.Semester, error) {
	query := fmt.Sprintf("SELECT %s FROM semesters WHERE current = TRUE LIMIT 1", semesterColumns)
	var semester models.Semester
	if err := r.db.GetContext(ctx, &semester, query); err != nil {
		return nil, err
	}
	return &semester, nil
}

// Create stores a new semester record.
func (r *SemesterRepository) Create(ctx context.Context, semester *models.Semester) error {
	if semester.ID == "" {
		semester.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if semester.CreatedAt.IsZero() {
		semester.CreatedAt = now
	}
	semester.UpdatedAt = now

	const query = `INSERT INTO semesters (id, name, code, academic_year, start_date, end_date, current, board_reviewer1_code, board_reviewer2_code, board_reviewer3_code, board_reviewer4_code, created_at, updated_at)
		VALUES (:id, :name, :code, :academic_year, :start_date, :end_date, :current, :board_reviewer1_code, :board_reviewer2_code, :board_reviewer3_code, :board_reviewer4_code, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, semester); err != nil {
		return fmt.Errorf("create semester: %w", err)
	}
	return nil
}

// SetReviewBoard replaces the four board seats.
func (r *SemesterRepository) SetReviewBoard(ctx context.Context, id string, seats [models.BoardSeatCount]string) error {
	const query = `UPDATE semesters SET board_reviewer1_code = $2, board_reviewer2_code = $3, board_reviewer3_code = $4, board_reviewer4_code = $5, updated_at = $6 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, seats[0], seats[1], seats[2], seats[3], time.Now().UTC()); err != nil {
		return fmt.Errorf("set review board: %w", err)
	}
	return nil
}

// HasBoardDecisions reports whether any board decision references the semester.
func (r *SemesterRepository) HasBoardDecisions(ctx context.Context, id string) (bool, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM board_decisions WHERE semester_id = $1`, id); err != nil {
		return false, fmt.Errorf("count board decisions: %w", err)
	}
	return count > 0, nil
}
