package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/capstone-api/internal/models"
)

// ProposalRepository provides persistence for proposals.
type ProposalRepository struct {
	db *sqlx.DB
}

// NewProposalRepository creates a new proposal repository.
func NewProposalRepository(db *sqlx.DB) *ProposalRepository {
	return &ProposalRepository{db: db}
}

const proposalColumns = `id, code, title, context, description, functional_reqs, non_functional_reqs, students,
	primary_mentor_code, secondary_mentor_code, semester_id, status, duplicate_of_id, duplicate_distance,
	round1_at, round1_reviewer1_code, round1_reviewer1_name, round1_reviewer2_code, round1_reviewer2_name,
	round2_at, round2_reviewer1_code, round2_reviewer1_name, round2_reviewer2_code, round2_reviewer2_name,
	round3_at, round3_reviewer1_code, round3_reviewer1_name, round3_reviewer2_code, round3_reviewer2_name,
	created_at, updated_at`

// List returns proposals with optional filtering and pagination.
func (r *ProposalRepository) List(ctx context.Context, filter models.ProposalFilter) ([]models.Proposal, int, error) {
	base := "FROM proposals WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.SemesterID != "" {
		conditions = append(conditions, fmt.Sprintf("semester_id = $%d", len(args)+1))
		args = append(args, filter.SemesterID)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}
	if filter.MentorCode != "" {
		conditions = append(conditions, fmt.Sprintf("(primary_mentor_code = $%d OR secondary_mentor_code = $%d)", len(args)+1, len(args)+1))
		args = append(args, filter.MentorCode)
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

	query := fmt.Sprintf("SELECT %s %s ORDER BY created_at DESC LIMIT %d OFFSET %d", proposalColumns, base, size, offset)
	var proposals []models.Proposal
	if err := r.db.SelectContext(ctx, &proposals, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list proposals: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count proposals: %w", err)
	}

	return proposals, total, nil
}

// FindByID loads a proposal by id.
func (r *ProposalRepository) FindByID(ctx context.Context, id int64) (*models.Proposal, error) {
	query := fmt.Sprintf("SELECT %s FROM proposals WHERE id = $1", proposalColumns)
	var proposal models.Proposal
	if err := r.db.GetContext(ctx, &proposal, query, id); err != nil {
		return nil, err
	}
	return &proposal, nil
}

// Create stores a new proposal and assigns its generated id.
func (r *ProposalRepository) Create(ctx context.Context, proposal *models.Proposal) error {
	now := time.Now().UTC()
	if proposal.CreatedAt.IsZero() {
		proposal.CreatedAt = now
	}
	proposal.UpdatedAt = now

	const query = `INSERT INTO proposals (code, title, context, description, functional_reqs, non_functional_reqs, students,
		primary_mentor_code, secondary_mentor_code, semester_id, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13) RETURNING id`
	if err := r.db.QueryRowxContext(ctx, query,
		proposal.Code, proposal.Title, proposal.Context, proposal.Description,
		proposal.FunctionalReqs, proposal.NonFunctionalReqs, proposal.Students,
		proposal.PrimaryMentorCode, proposal.SecondaryMentorCode, proposal.SemesterID,
		proposal.Status, proposal.CreatedAt, proposal.UpdatedAt,
	).Scan(&proposal.ID); err != nil {
		return fmt.Errorf("create proposal: %w", err)
	}
	return nil
}

// UpdateStatusIf performs a compare-and-set status transition. It returns
// ErrStaleStatus when the row no longer holds the expected status.
func (r *ProposalRepository) UpdateStatusIf(ctx context.Context, id int64, from, to models.ProposalStatus) error {
	const query = `UPDATE proposals SET status = $3, updated_at = $4 WHERE id = $1 AND status = $2`
	res, err := r.db.ExecContext(ctx, query, id, from, to, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update proposal status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update proposal status: %w", err)
	}
	if affected == 0 {
		return ErrStaleStatus
	}
	return nil
}

// RecordDuplicateOutcome stores the screening verdict and closest-match data.
// The status change is CAS-guarded from SUBMITTED.
func (r *ProposalRepository) RecordDuplicateOutcome(ctx context.Context, id int64, status models.ProposalStatus, closestID *int64, distance *float64) error {
	const query = `UPDATE proposals SET status = $2, duplicate_of_id = $3, duplicate_distance = $4, updated_at = $5 WHERE id = $1 AND status = $6`
	res, err := r.db.ExecContext(ctx, query, id, status, closestID, distance, time.Now().UTC(), models.StatusSubmitted)
	if err != nil {
		return fmt.Errorf("record duplicate outcome: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("record duplicate outcome: %w", err)
	}
	if affected == 0 {
		return ErrStaleStatus
	}
	return nil
}

// SetReviewRound writes the timestamp and both reviewer assignments of round n
// in one statement, and advances the status from the round's status to next.
func (r *ProposalRepository) SetReviewRound(ctx context.Context, id int64, round int, at time.Time, r1, r2 models.ReviewerRef, from, to models.ProposalStatus) error {
	if round < 1 || round > 3 {
		return fmt.Errorf("invalid review round %d", round)
	}
	query := fmt.Sprintf(`UPDATE proposals SET
		round%[1]d_at = $3,
		round%[1]d_reviewer1_code = $4, round%[1]d_reviewer1_name = $5,
		round%[1]d_reviewer2_code = $6, round%[1]d_reviewer2_name = $7,
		status = $8, updated_at = $9
		WHERE id = $1 AND status = $2`, round)
	res, err := r.db.ExecContext(ctx, query, id, from, at, r1.Code, r1.Name, r2.Code, r2.Name, to, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("set review round %d: %w", round, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set review round %d: %w", round, err)
	}
	if affected == 0 {
		return ErrStaleStatus
	}
	return nil
}
