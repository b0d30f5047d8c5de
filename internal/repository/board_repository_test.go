package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/capstone-api/internal/models"
)

func boardDecisionRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "proposal_id", "semester_id", "seat", "reviewer_code", "verdict", "reason", "decided_at"})
}

func TestBoardDecisionRepositoryRecord(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewBoardDecisionRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT status FROM proposals WHERE id = $1 FOR UPDATE")).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("DUPLICATE_ACCEPTED"))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, proposal_id, semester_id")).
		WithArgs(int64(1)).
		WillReturnRows(boardDecisionRows())
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO board_decisions")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	decisions, err := repo.Record(context.Background(), &models.BoardDecision{
		ProposalID:   1,
		SemesterID:   "sem-1",
		Seat:         1,
		ReviewerCode: "GV01",
		Verdict:      models.VerdictAccepted,
	})
	require.NoError(t, err)
	require.Len(t, decisions, 1)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBoardDecisionRepositoryRecordSeatTaken(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewBoardDecisionRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT status FROM proposals WHERE id = $1 FOR UPDATE")).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("DUPLICATE_ACCEPTED"))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, proposal_id, semester_id")).
		WithArgs(int64(1)).
		WillReturnRows(boardDecisionRows().
			AddRow("dec-1", int64(1), "sem-1", 1, "GV01", "ACCEPTED", nil, time.Now()))
	mock.ExpectRollback()

	existing, err := repo.Record(context.Background(), &models.BoardDecision{
		ProposalID:   1,
		SemesterID:   "sem-1",
		Seat:         1,
		ReviewerCode: "GV01",
		Verdict:      models.VerdictRejected,
	})
	require.ErrorIs(t, err, ErrSeatTaken)
	require.Len(t, existing, 1)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBoardDecisionRepositoryRecordQuorumLocked(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewBoardDecisionRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT status FROM proposals WHERE id = $1 FOR UPDATE")).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("REVIEW_1"))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, proposal_id, semester_id")).
		WithArgs(int64(1)).
		WillReturnRows(boardDecisionRows().
			AddRow("dec-1", int64(1), "sem-1", 1, "GV01", "ACCEPTED", nil, time.Now()).
			AddRow("dec-2", int64(1), "sem-1", 2, "GV02", "ACCEPTED", nil, time.Now()))
	mock.ExpectRollback()

	existing, err := repo.Record(context.Background(), &models.BoardDecision{
		ProposalID:   1,
		SemesterID:   "sem-1",
		Seat:         3,
		ReviewerCode: "GV03",
		Verdict:      models.VerdictAccepted,
	})
	require.ErrorIs(t, err, ErrQuorumLocked)
	require.Len(t, existing, 2)
	require.NoError(t, mock.ExpectationsWereMet())
}
