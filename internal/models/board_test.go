package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func strPtr(s string) *string { return &s }

func TestEvaluateQuorum(t *testing.T) {
	t.Run("no decisions", func(t *testing.T) {
		outcome := EvaluateQuorum(nil)
		assert.False(t, outcome.Reached)
	})

	t.Run("one decision", func(t *testing.T) {
		outcome := EvaluateQuorum([]BoardDecision{{Seat: 1, Verdict: VerdictAccepted}})
		assert.False(t, outcome.Reached)
	})

	t.Run("two accepts", func(t *testing.T) {
		outcome := EvaluateQuorum([]BoardDecision{
			{Seat: 1, Verdict: VerdictAccepted},
			{Seat: 3, Verdict: VerdictAccepted},
		})
		assert.True(t, outcome.Reached)
		assert.True(t, outcome.Accepted)
		assert.Nil(t, outcome.Reason)
	})

	t.Run("accept then reject carries the rejection reason", func(t *testing.T) {
		outcome := EvaluateQuorum([]BoardDecision{
			{Seat: 1, Verdict: VerdictAccepted},
			{Seat: 2, Verdict: VerdictRejected, Reason: strPtr("scope too broad")},
		})
		assert.True(t, outcome.Reached)
		assert.False(t, outcome.Accepted)
		assert.Equal(t, "scope too broad", *outcome.Reason)
	})

	t.Run("only the first two decisions count", func(t *testing.T) {
		outcome := EvaluateQuorum([]BoardDecision{
			{Seat: 2, Verdict: VerdictAccepted},
			{Seat: 4, Verdict: VerdictAccepted},
			{Seat: 1, Verdict: VerdictRejected, Reason: strPtr("late")},
		})
		assert.True(t, outcome.Reached)
		assert.True(t, outcome.Accepted)
	})
}

func TestSeatForReviewer(t *testing.T) {
	sem := &Semester{
		BoardReviewer1Code: strPtr("GV01"),
		BoardReviewer2Code: strPtr("GV02"),
		BoardReviewer3Code: strPtr("GV03"),
		BoardReviewer4Code: strPtr("GV04"),
	}
	assert.Equal(t, 1, sem.SeatForReviewer("GV01"))
	assert.Equal(t, 4, sem.SeatForReviewer("GV04"))
	assert.Equal(t, 0, sem.SeatForReviewer("GV99"))

	empty := &Semester{}
	assert.Equal(t, 0, empty.SeatForReviewer(""))
}
