package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/capstone-api/internal/models"
	appErrors "github.com/noah-isme/capstone-api/pkg/errors"
)

type gradingFixture struct {
	svc       *GradingService
	proposals *fakeProposalRepo
	schedules *fakeScheduleRepo
}

func newGradingFixture(t *testing.T, status models.ProposalStatus) *gradingFixture {
	t.Helper()
	proposalRepo := newFakeProposalRepo(seededProposal(status))
	scheduleRepo := newFakeScheduleRepo()
	semesters := newFakeSemesterRepo(seededSemester())
	council := fiveMemberCouncil("council-a", [5]string{"GV30", "GV31", "GV32", "GV33", "GV34"})
	councilSvc := NewCouncilService(newFakeCouncilRepo(council), semesters, newFakeLecturerRepo(), nil, nil)
	proposalSvc := NewProposalService(proposalRepo, semesters, nil, nil, nil)

	require.NoError(t, scheduleRepo.Create(context.Background(), &models.DefenseSchedule{
		ID:          "sched-1",
		ProposalID:  1,
		CouncilID:   "council-a",
		DefenseDate: time.Date(2099, 6, 1, 0, 0, 0, 0, time.UTC),
		StartTime:   "07:00",
		EndTime:     "08:30",
		Room:        "A101",
		Status:      models.ScheduleBooked,
	}))

	svc := NewGradingService(newFakeResultRepo(), scheduleRepo, councilSvc, proposalSvc, nil, nil, nil)
	return &gradingFixture{svc: svc, proposals: proposalRepo, schedules: scheduleRepo}
}

func TestRecordResultPassCompletes(t *testing.T) {
	ctx := context.Background()
	fx := newGradingFixture(t, models.StatusDefense)

	result, err := fx.svc.RecordResult(ctx, "sched-1", "GV30", RecordResultRequest{Result: models.OutcomePass, Score: 8.5})
	require.NoError(t, err)
	assert.Equal(t, models.OutcomePass, result.Result)

	proposal, err := fx.proposals.FindByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, proposal.Status)

	schedule, err := fx.schedules.FindByID(ctx, "sched-1")
	require.NoError(t, err)
	assert.Equal(t, models.ScheduleCompleted, schedule.Status)
}

func TestRecordResultFailGrantsSecondDefense(t *testing.T) {
	ctx := context.Background()
	fx := newGradingFixture(t, models.StatusDefense)

	_, err := fx.svc.RecordResult(ctx, "sched-1", "GV30", RecordResultRequest{Result: models.OutcomeFail, Score: 4.5})
	require.NoError(t, err)

	proposal, err := fx.proposals.FindByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, models.StatusSecondDefense, proposal.Status)
}

func TestRecordResultSecondDefenseOutcomes(t *testing.T) {
	ctx := context.Background()

	t.Run("pass completes", func(t *testing.T) {
		fx := newGradingFixture(t, models.StatusSecondDefense)
		_, err := fx.svc.RecordResult(ctx, "sched-1", "GV30", RecordResultRequest{Result: models.OutcomePass, Score: 6.0})
		require.NoError(t, err)
		proposal, err := fx.proposals.FindByID(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, models.StatusCompleted, proposal.Status)
	})

	t.Run("fail is terminal", func(t *testing.T) {
		fx := newGradingFixture(t, models.StatusSecondDefense)
		_, err := fx.svc.RecordResult(ctx, "sched-1", "GV30", RecordResultRequest{Result: models.OutcomeFail, Score: 3.0})
		require.NoError(t, err)
		proposal, err := fx.proposals.FindByID(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, models.StatusFailed, proposal.Status)
	})
}

func TestRecordResultScoreBounds(t *testing.T) {
	ctx := context.Background()

	t.Run("boundary scores accepted", func(t *testing.T) {
		fx := newGradingFixture(t, models.StatusDefense)
		_, err := fx.svc.RecordResult(ctx, "sched-1", "GV30", RecordResultRequest{Result: models.OutcomeFail, Score: 0.1})
		assert.NoError(t, err)

		fx = newGradingFixture(t, models.StatusDefense)
		_, err = fx.svc.RecordResult(ctx, "sched-1", "GV30", RecordResultRequest{Result: models.OutcomePass, Score: 10.0})
		assert.NoError(t, err)
	})

	t.Run("out-of-range scores rejected", func(t *testing.T) {
		fx := newGradingFixture(t, models.StatusDefense)
		for _, score := range []float64{0.09, 10.01, -1, 0} {
			_, err := fx.svc.RecordResult(ctx, "sched-1", "GV30", RecordResultRequest{Result: models.OutcomePass, Score: score})
			assert.ErrorIs(t, err, appErrors.ErrValidation, "score %v", score)
		}
	})
}

func TestRecordResultGuards(t *testing.T) {
	ctx := context.Background()

	t.Run("only the president grades", func(t *testing.T) {
		fx := newGradingFixture(t, models.StatusDefense)
		_, err := fx.svc.RecordResult(ctx, "sched-1", "GV31", RecordResultRequest{Result: models.OutcomePass, Score: 8.0})
		assert.ErrorIs(t, err, appErrors.ErrForbidden)
	})

	t.Run("a session is graded once", func(t *testing.T) {
		fx := newGradingFixture(t, models.StatusDefense)
		_, err := fx.svc.RecordResult(ctx, "sched-1", "GV30", RecordResultRequest{Result: models.OutcomePass, Score: 8.0})
		require.NoError(t, err)
		_, err = fx.svc.RecordResult(ctx, "sched-1", "GV30", RecordResultRequest{Result: models.OutcomePass, Score: 9.0})
		assert.ErrorIs(t, err, appErrors.ErrResultRecorded)
	})

	t.Run("grading outside the defense phase", func(t *testing.T) {
		fx := newGradingFixture(t, models.StatusReview3)
		_, err := fx.svc.RecordResult(ctx, "sched-1", "GV30", RecordResultRequest{Result: models.OutcomePass, Score: 8.0})
		assert.ErrorIs(t, err, appErrors.ErrInvalidState)
	})

	t.Run("unknown schedule", func(t *testing.T) {
		fx := newGradingFixture(t, models.StatusDefense)
		_, err := fx.svc.RecordResult(ctx, "missing", "GV30", RecordResultRequest{Result: models.OutcomePass, Score: 8.0})
		assert.ErrorIs(t, err, appErrors.ErrNotFound)
	})
}
