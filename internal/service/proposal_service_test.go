package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/capstone-api/internal/models"
	appErrors "github.com/noah-isme/capstone-api/pkg/errors"
)

func newProposalService(repo *fakeProposalRepo, semesters *fakeSemesterRepo) *ProposalService {
	return NewProposalService(repo, semesters, nil, nil, nil)
}

func validCreateRequest() CreateProposalRequest {
	return CreateProposalRequest{
		Title:             "Campus navigation assistant",
		Context:           "Students struggle to locate rooms",
		Description:       "An indoor navigation app",
		FunctionalReqs:    []string{"map display", "route search"},
		NonFunctionalReqs: []string{"responds under 2s"},
		Students: []models.ProposalStudent{
			{StudentID: "SV001", Name: "Student One"},
			{StudentID: "SV002", Name: "Student Two"},
		},
		PrimaryMentorCode: "GV10",
		SemesterID:        "sem-1",
	}
}

func TestCreateProposal(t *testing.T) {
	repo := newFakeProposalRepo()
	semesters := newFakeSemesterRepo(seededSemester())
	svc := newProposalService(repo, semesters)

	proposal, err := svc.Create(context.Background(), validCreateRequest())
	require.NoError(t, err)
	assert.Equal(t, models.StatusSubmitted, proposal.Status)
	assert.NotZero(t, proposal.ID)
}

func TestCreateProposalValidation(t *testing.T) {
	repo := newFakeProposalRepo()
	semesters := newFakeSemesterRepo(seededSemester())
	svc := newProposalService(repo, semesters)

	t.Run("empty requirement list", func(t *testing.T) {
		req := validCreateRequest()
		req.FunctionalReqs = nil
		_, err := svc.Create(context.Background(), req)
		assert.Error(t, err)
	})

	t.Run("no students", func(t *testing.T) {
		req := validCreateRequest()
		req.Students = nil
		_, err := svc.Create(context.Background(), req)
		assert.Error(t, err)
	})

	t.Run("seven students", func(t *testing.T) {
		req := validCreateRequest()
		req.Students = make([]models.ProposalStudent, 7)
		for i := range req.Students {
			req.Students[i] = models.ProposalStudent{StudentID: string(rune('A' + i)), Name: "S"}
		}
		_, err := svc.Create(context.Background(), req)
		assert.Error(t, err)
	})

	t.Run("duplicate student", func(t *testing.T) {
		req := validCreateRequest()
		req.Students = append(req.Students, req.Students[0])
		_, err := svc.Create(context.Background(), req)
		assert.Error(t, err)
	})

	t.Run("same mentor twice", func(t *testing.T) {
		req := validCreateRequest()
		code := req.PrimaryMentorCode
		req.SecondaryMentorCode = &code
		_, err := svc.Create(context.Background(), req)
		assert.Error(t, err)
	})

	t.Run("unknown semester", func(t *testing.T) {
		req := validCreateRequest()
		req.SemesterID = "missing"
		_, err := svc.Create(context.Background(), req)
		assert.ErrorIs(t, err, appErrors.ErrNotFound)
	})
}

func TestRecordDuplicateOutcome(t *testing.T) {
	ctx := context.Background()

	t.Run("accepted moves to DUPLICATE_ACCEPTED", func(t *testing.T) {
		repo := newFakeProposalRepo(seededProposal(models.StatusSubmitted))
		svc := newProposalService(repo, newFakeSemesterRepo(seededSemester()))

		proposal, err := svc.RecordDuplicateOutcome(ctx, 1, DuplicateOutcomeRequest{Accepted: true})
		require.NoError(t, err)
		assert.Equal(t, models.StatusDuplicateAccepted, proposal.Status)
	})

	t.Run("rejected stores the closest match", func(t *testing.T) {
		repo := newFakeProposalRepo(seededProposal(models.StatusSubmitted))
		svc := newProposalService(repo, newFakeSemesterRepo(seededSemester()))

		closest := int64(42)
		distance := 0.12
		proposal, err := svc.RecordDuplicateOutcome(ctx, 1, DuplicateOutcomeRequest{ClosestID: &closest, Distance: &distance})
		require.NoError(t, err)
		assert.Equal(t, models.StatusDuplicateRejected, proposal.Status)
		assert.Equal(t, closest, *proposal.DuplicateOfID)
	})

	t.Run("re-delivery of the same outcome is a no-op", func(t *testing.T) {
		repo := newFakeProposalRepo(seededProposal(models.StatusSubmitted))
		svc := newProposalService(repo, newFakeSemesterRepo(seededSemester()))

		_, err := svc.RecordDuplicateOutcome(ctx, 1, DuplicateOutcomeRequest{Accepted: true})
		require.NoError(t, err)
		proposal, err := svc.RecordDuplicateOutcome(ctx, 1, DuplicateOutcomeRequest{Accepted: true})
		require.NoError(t, err)
		assert.Equal(t, models.StatusDuplicateAccepted, proposal.Status)
	})

	t.Run("conflicting outcome is rejected", func(t *testing.T) {
		repo := newFakeProposalRepo(seededProposal(models.StatusSubmitted))
		svc := newProposalService(repo, newFakeSemesterRepo(seededSemester()))

		_, err := svc.RecordDuplicateOutcome(ctx, 1, DuplicateOutcomeRequest{Accepted: true})
		require.NoError(t, err)
		_, err = svc.RecordDuplicateOutcome(ctx, 1, DuplicateOutcomeRequest{Accepted: false})
		assert.ErrorIs(t, err, appErrors.ErrInvalidState)
	})

	t.Run("outcome after review started is rejected", func(t *testing.T) {
		repo := newFakeProposalRepo(seededProposal(models.StatusReview2))
		svc := newProposalService(repo, newFakeSemesterRepo(seededSemester()))

		_, err := svc.RecordDuplicateOutcome(ctx, 1, DuplicateOutcomeRequest{Accepted: true})
		assert.ErrorIs(t, err, appErrors.ErrInvalidState)
	})
}

func TestRejectByAdmin(t *testing.T) {
	ctx := context.Background()

	t.Run("allowed before defense", func(t *testing.T) {
		repo := newFakeProposalRepo(seededProposal(models.StatusReview2))
		svc := newProposalService(repo, newFakeSemesterRepo(seededSemester()))

		proposal, err := svc.RejectByAdmin(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, models.StatusRejectByAdmin, proposal.Status)
	})

	t.Run("idempotent", func(t *testing.T) {
		repo := newFakeProposalRepo(seededProposal(models.StatusRejectByAdmin))
		svc := newProposalService(repo, newFakeSemesterRepo(seededSemester()))

		proposal, err := svc.RejectByAdmin(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, models.StatusRejectByAdmin, proposal.Status)
	})

	t.Run("blocked once in defense", func(t *testing.T) {
		repo := newFakeProposalRepo(seededProposal(models.StatusDefense))
		svc := newProposalService(repo, newFakeSemesterRepo(seededSemester()))

		_, err := svc.RejectByAdmin(ctx, 1)
		assert.ErrorIs(t, err, appErrors.ErrInvalidState)
	})
}

func TestTransitionIdempotency(t *testing.T) {
	ctx := context.Background()
	repo := newFakeProposalRepo(seededProposal(models.StatusReview3))
	svc := newProposalService(repo, newFakeSemesterRepo(seededSemester()))

	proposal, err := svc.Get(ctx, 1)
	require.NoError(t, err)

	require.NoError(t, svc.Transition(ctx, proposal, models.StatusDefense))
	assert.Equal(t, models.StatusDefense, proposal.Status)

	// Same-target transition is a no-op.
	require.NoError(t, svc.Transition(ctx, proposal, models.StatusDefense))

	err = svc.Transition(ctx, proposal, models.StatusReview1)
	assert.ErrorIs(t, err, appErrors.ErrInvalidState)
}
