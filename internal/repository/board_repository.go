package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/capstone-api/internal/models"
)

// BoardDecisionRepository persists review board decisions.
type BoardDecisionRepository struct {
	db *sqlx.DB
}

// NewBoardDecisionRepository creates a new board decision repository.
func NewBoardDecisionRepository(db *sqlx.DB) *BoardDecisionRepository {
	return &BoardDecisionRepository{db: db}
}

const boardDecisionColumns = "id, proposal_id, semester_id, seat, reviewer_code, verdict, reason, decided_at"

// ListByProposal returns the recorded decisions in decided-at order.
func (r *BoardDecisionRepository) ListByProposal(ctx context.Context, proposalID int64) ([]models.BoardDecision, error) {
	query := fmt.Sprintf("SELECT %s FROM board_decisions WHERE proposal_id = $1 ORDER BY decided_at ASC, seat ASC", boardDecisionColumns)
	var decisions []models.BoardDecision
	if err := r.db.SelectContext(ctx, &decisions, query, proposalID); err != nil {
		return nil, fmt.Errorf("list board decisions: %w", err)
	}
	return decisions, nil
}

// Record inserts a seat decision inside a transaction that locks the proposal
// row, serializing concurrent seats. It returns the full decision set after
// the insert. ErrQuorumLocked is returned when two decisions already exist,
// ErrSeatTaken when the seat has already decided; in both cases the existing
// decisions are returned alongside the error.
func (r *BoardDecisionRepository) Record(ctx context.Context, decision *models.BoardDecision) ([]models.BoardDecision, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin record decision: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	// Lock the proposal row so concurrent seat decisions serialize here.
	var status string
	if err = tx.GetContext(ctx, &status, `SELECT status FROM proposals WHERE id = $1 FOR UPDATE`, decision.ProposalID); err != nil {
		return nil, err
	}

	query := fmt.Sprintf("SELECT %s FROM board_decisions WHERE proposal_id = $1 ORDER BY decided_at ASC, seat ASC", boardDecisionColumns)
	var existing []models.BoardDecision
	if err = tx.SelectContext(ctx, &existing, query, decision.ProposalID); err != nil {
		err = fmt.Errorf("load board decisions: %w", err)
		return nil, err
	}

	if len(existing) >= models.BoardQuorum {
		_ = tx.Rollback()
		return existing, ErrQuorumLocked
	}
	for _, d := range existing {
		if d.Seat == decision.Seat {
			_ = tx.Rollback()
			return existing, ErrSeatTaken
		}
	}

	if decision.ID == "" {
		decision.ID = uuid.NewString()
	}
	if decision.DecidedAt.IsZero() {
		decision.DecidedAt = time.Now().UTC()
	}
	const insert = `INSERT INTO board_decisions (id, proposal_id, semester_id, seat, reviewer_code, verdict, reason, decided_at)
		VALUES (:id, :proposal_id, :semester_id, :seat, :reviewer_code, :verdict, :reason, :decided_at)`
	if _, err = tx.NamedExecContext(ctx, insert, decision); err != nil {
		if isUniqueViolation(err) {
			_ = tx.Rollback()
			err = nil
			return existing, ErrSeatTaken
		}
		err = fmt.Errorf("insert board decision: %w", err)
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit record decision: %w", err)
	}
	return append(existing, *decision), nil
}
