package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/capstone-api/internal/models"
	appErrors "github.com/noah-isme/capstone-api/pkg/errors"
)

func newBoardFixture(t *testing.T, status models.ProposalStatus) (*BoardService, *fakeProposalRepo) {
	t.Helper()
	proposals := newFakeProposalRepo(seededProposal(status))
	semesters := newFakeSemesterRepo(seededSemester())
	return NewBoardService(newFakeBoardRepo(), proposals, semesters, nil, nil, nil), proposals
}

func TestRecordDecisionQuorum(t *testing.T) {
	ctx := context.Background()

	t.Run("accept then reject finalizes as rejected", func(t *testing.T) {
		svc, proposals := newBoardFixture(t, models.StatusDuplicateAccepted)

		state, err := svc.RecordDecision(ctx, 1, "GV01", BoardDecisionRequest{Verdict: models.VerdictAccepted})
		require.NoError(t, err)
		assert.False(t, state.Outcome.Reached)

		reason := "scope too broad"
		state, err = svc.RecordDecision(ctx, 1, "GV02", BoardDecisionRequest{Verdict: models.VerdictRejected, Reason: &reason})
		require.NoError(t, err)
		require.True(t, state.Outcome.Reached)
		assert.False(t, state.Outcome.Accepted)
		assert.Equal(t, reason, *state.Outcome.Reason)

		proposal, err := proposals.FindByID(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, models.StatusRejected, proposal.Status)

		// A third seat arrives after quorum.
		_, err = svc.RecordDecision(ctx, 1, "GV03", BoardDecisionRequest{Verdict: models.VerdictAccepted})
		assert.ErrorIs(t, err, appErrors.ErrQuorumReached)
	})

	t.Run("two accepts open review round one", func(t *testing.T) {
		svc, proposals := newBoardFixture(t, models.StatusDuplicateAccepted)

		_, err := svc.RecordDecision(ctx, 1, "GV03", BoardDecisionRequest{Verdict: models.VerdictAccepted})
		require.NoError(t, err)
		state, err := svc.RecordDecision(ctx, 1, "GV01", BoardDecisionRequest{Verdict: models.VerdictAccepted})
		require.NoError(t, err)
		assert.True(t, state.Outcome.Accepted)

		proposal, err := proposals.FindByID(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, models.StatusReview1, proposal.Status)
	})
}

func TestRecordDecisionGuards(t *testing.T) {
	ctx := context.Background()

	t.Run("seat decides only once", func(t *testing.T) {
		svc, _ := newBoardFixture(t, models.StatusDuplicateAccepted)
		_, err := svc.RecordDecision(ctx, 1, "GV01", BoardDecisionRequest{Verdict: models.VerdictAccepted})
		require.NoError(t, err)
		_, err = svc.RecordDecision(ctx, 1, "GV01", BoardDecisionRequest{Verdict: models.VerdictAccepted})
		assert.ErrorIs(t, err, appErrors.ErrSeatDecided)
	})

	t.Run("non-board lecturer is refused", func(t *testing.T) {
		svc, _ := newBoardFixture(t, models.StatusDuplicateAccepted)
		_, err := svc.RecordDecision(ctx, 1, "GV99", BoardDecisionRequest{Verdict: models.VerdictAccepted})
		assert.ErrorIs(t, err, appErrors.ErrForbidden)
	})

	t.Run("rejection requires a reason", func(t *testing.T) {
		svc, _ := newBoardFixture(t, models.StatusDuplicateAccepted)
		_, err := svc.RecordDecision(ctx, 1, "GV01", BoardDecisionRequest{Verdict: models.VerdictRejected})
		assert.ErrorIs(t, err, appErrors.ErrValidation)
	})

	t.Run("board review only after duplicate acceptance", func(t *testing.T) {
		svc, _ := newBoardFixture(t, models.StatusSubmitted)
		_, err := svc.RecordDecision(ctx, 1, "GV01", BoardDecisionRequest{Verdict: models.VerdictAccepted})
		assert.ErrorIs(t, err, appErrors.ErrInvalidState)
	})
}
