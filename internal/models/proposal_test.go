package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from    ProposalStatus
		to      ProposalStatus
		allowed bool
	}{
		{StatusSubmitted, StatusDuplicateAccepted, true},
		{StatusSubmitted, StatusDuplicateRejected, true},
		{StatusSubmitted, StatusReview1, false},
		{StatusDuplicateAccepted, StatusReview1, true},
		{StatusDuplicateAccepted, StatusRejected, true},
		{StatusReview1, StatusReview2, true},
		{StatusReview1, StatusReview3, false},
		{StatusReview2, StatusReview3, true},
		{StatusReview3, StatusDefense, true},
		{StatusDefense, StatusCompleted, true},
		{StatusDefense, StatusSecondDefense, true},
		{StatusDefense, StatusFailed, false},
		{StatusSecondDefense, StatusCompleted, true},
		{StatusSecondDefense, StatusFailed, true},
		{StatusSecondDefense, StatusSecondDefense, false},
		{StatusCompleted, StatusDefense, false},
		{StatusFailed, StatusSubmitted, false},
		{StatusDuplicateRejected, StatusReview1, false},
		{StatusReview2, StatusRejectByAdmin, true},
		{StatusDefense, StatusRejectByAdmin, false},
		// Legacy statuses carry no outgoing transitions.
		{StatusApproved, StatusCompleted, false},
		{StatusPending, StatusReview1, false},
		{StatusRejected, StatusSubmitted, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.allowed, tc.from.CanTransition(tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestTerminalStatuses(t *testing.T) {
	for _, s := range []ProposalStatus{StatusCompleted, StatusFailed, StatusRejectByAdmin, StatusDuplicateRejected, StatusApproved, StatusPending, StatusRejected} {
		assert.True(t, s.Terminal(), "%s should be terminal", s)
	}
	for _, s := range []ProposalStatus{StatusSubmitted, StatusReview1, StatusDefense, StatusSecondDefense} {
		assert.False(t, s.Terminal(), "%s should not be terminal", s)
	}
}

func TestBeforeDefense(t *testing.T) {
	assert.True(t, StatusSubmitted.BeforeDefense())
	assert.True(t, StatusReview3.BeforeDefense())
	assert.False(t, StatusDefense.BeforeDefense())
	assert.False(t, StatusCompleted.BeforeDefense())
	assert.False(t, StatusSecondDefense.BeforeDefense())
}

func TestParseStatus(t *testing.T) {
	status, err := ParseStatus("REVIEW_2")
	require.NoError(t, err)
	assert.Equal(t, StatusReview2, status)

	_, err = ParseStatus("REVIEW_4")
	assert.Error(t, err)
}

func TestReviewRoundStatus(t *testing.T) {
	for round, want := range map[int]ProposalStatus{1: StatusReview1, 2: StatusReview2, 3: StatusReview3} {
		got, err := ReviewRoundStatus(round)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ReviewRoundStatus(0)
	assert.Error(t, err)
	_, err = ReviewRoundStatus(4)
	assert.Error(t, err)
}

func TestRoundRecordingAndExclusionInputs(t *testing.T) {
	p := &Proposal{
		PrimaryMentorCode: "GV01",
	}
	secondary := "GV02"
	p.SecondaryMentorCode = &secondary

	assert.False(t, p.Round(1).Recorded())

	now := time.Now().UTC()
	require.NoError(t, p.SetRound(1, now, ReviewerRef{Code: "GV03", Name: "A"}, ReviewerRef{Code: "GV04", Name: "B"}))
	require.NoError(t, p.SetRound(2, now, ReviewerRef{Code: "GV05", Name: "C"}, ReviewerRef{Code: "GV06", Name: "D"}))

	assert.True(t, p.Round(1).Recorded())
	assert.True(t, p.Round(2).Recorded())
	assert.False(t, p.Round(3).Recorded())

	assert.ElementsMatch(t, []string{"GV01", "GV02"}, p.MentorCodes())
	assert.ElementsMatch(t, []string{"GV03", "GV04"}, p.ReviewerCodesBefore(2))
	assert.ElementsMatch(t, []string{"GV03", "GV04", "GV05", "GV06"}, p.ReviewerCodesBefore(3))
	assert.Empty(t, p.ReviewerCodesBefore(1))

	assert.Error(t, p.SetRound(4, now, ReviewerRef{}, ReviewerRef{}))
}
