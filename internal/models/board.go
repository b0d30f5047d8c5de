package models

import "time"

// BoardVerdict is a single review board seat's decision on a proposal.
type BoardVerdict string

const (
	VerdictAccepted BoardVerdict = "ACCEPTED"
	VerdictRejected BoardVerdict = "REJECTED"
)

// BoardQuorum is the number of decisions that conclude a proposal's board review.
const BoardQuorum = 2

// BoardDecision records one seat's verdict for one proposal. Seats decide at
// most once; the decision row is immutable.
type BoardDecision struct {
	ID           string       `db:"id" json:"id"`
	ProposalID   int64        `db:"proposal_id" json:"proposal_id"`
	SemesterID   string       `db:"semester_id" json:"semester_id"`
	Seat         int          `db:"seat" json:"seat"`
	ReviewerCode string       `db:"reviewer_code" json:"reviewer_code"`
	Verdict      BoardVerdict `db:"verdict" json:"verdict"`
	Reason       *string      `db:"reason" json:"reason,omitempty"`
	DecidedAt    time.Time    `db:"decided_at" json:"decided_at"`
}

// QuorumOutcome summarises the first-two-seats-decide rule over a decision set.
type QuorumOutcome struct {
	Reached  bool
	Accepted bool
	Reason   *string
}

// EvaluateQuorum applies the first-two-decide policy to the recorded decisions.
// Decisions must be passed in decided-at order.
func EvaluateQuorum(decisions []BoardDecision) QuorumOutcome {
	if len(decisions) < BoardQuorum {
		return QuorumOutcome{}
	}
	outcome := QuorumOutcome{Reached: true, Accepted: true}
	for _, d := range decisions[:BoardQuorum] {
		if d.Verdict == VerdictRejected {
			outcome.Accepted = false
			if outcome.Reason == nil {
				outcome.Reason = d.Reason
			}
		}
	}
	return outcome
}
