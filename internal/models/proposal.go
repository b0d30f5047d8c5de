package models

import (
	"fmt"
	"time"

	"github.com/jmoiron/sqlx/types"
	"github.com/lib/pq"
)

// ProposalStatus enumerates lifecycle states of a capstone proposal.
type ProposalStatus string

const (
	StatusSubmitted         ProposalStatus = "SUBMITTED"
	StatusDuplicateAccepted ProposalStatus = "DUPLICATE_ACCEPTED"
	StatusDuplicateRejected ProposalStatus = "DUPLICATE_REJECTED"
	StatusReview1           ProposalStatus = "REVIEW_1"
	StatusReview2           ProposalStatus = "REVIEW_2"
	StatusReview3           ProposalStatus = "REVIEW_3"
	StatusDefense           ProposalStatus = "DEFENSE"
	StatusSecondDefense     ProposalStatus = "SECOND_DEFENSE"
	StatusCompleted         ProposalStatus = "COMPLETED"
	StatusFailed            ProposalStatus = "FAILED"
	StatusRejectByAdmin     ProposalStatus = "REJECT_BY_ADMIN"

	// Legacy states carried for compatibility with older records. They have no
	// outgoing transitions in this service.
	StatusApproved ProposalStatus = "APPROVED"
	StatusPending  ProposalStatus = "PENDING"
	StatusRejected ProposalStatus = "REJECTED"
)

// proposalTransitions maps each status to the statuses it may move to.
// Statuses absent from the map are terminal (or legacy, see above).
var proposalTransitions = map[ProposalStatus][]ProposalStatus{
	StatusSubmitted:         {StatusDuplicateAccepted, StatusDuplicateRejected, StatusRejectByAdmin},
	StatusDuplicateAccepted: {StatusReview1, StatusRejected, StatusRejectByAdmin},
	StatusReview1:           {StatusReview2, StatusRejectByAdmin},
	StatusReview2:           {StatusReview3, StatusRejectByAdmin},
	StatusReview3:           {StatusDefense, StatusRejectByAdmin},
	StatusDefense:           {StatusCompleted, StatusSecondDefense},
	StatusSecondDefense:     {StatusCompleted, StatusFailed},
}

var validStatuses = map[ProposalStatus]struct{}{
	StatusSubmitted: {}, StatusDuplicateAccepted: {}, StatusDuplicateRejected: {},
	StatusReview1: {}, StatusReview2: {}, StatusReview3: {},
	StatusDefense: {}, StatusSecondDefense: {}, StatusCompleted: {}, StatusFailed: {},
	StatusRejectByAdmin: {}, StatusApproved: {}, StatusPending: {}, StatusRejected: {},
}

// ParseStatus validates a raw status string.
func ParseStatus(raw string) (ProposalStatus, error) {
	s := ProposalStatus(raw)
	if _, ok := validStatuses[s]; !ok {
		return "", fmt.Errorf("unknown proposal status %q", raw)
	}
	return s, nil
}

// CanTransition reports whether a direct transition to target is allowed.
func (s ProposalStatus) CanTransition(target ProposalStatus) bool {
	for _, next := range proposalTransitions[s] {
		if next == target {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transition is defined for the status.
func (s ProposalStatus) Terminal() bool {
	return len(proposalTransitions[s]) == 0
}

// BeforeDefense reports whether the status precedes the defense phase,
// the window in which an administrator may force-reject.
func (s ProposalStatus) BeforeDefense() bool {
	switch s {
	case StatusSubmitted, StatusDuplicateAccepted, StatusReview1, StatusReview2, StatusReview3:
		return true
	}
	return false
}

// ReviewRoundStatus returns the status a proposal must hold while review round
// n is being assigned.
func ReviewRoundStatus(round int) (ProposalStatus, error) {
	switch round {
	case 1:
		return StatusReview1, nil
	case 2:
		return StatusReview2, nil
	case 3:
		return StatusReview3, nil
	}
	return "", fmt.Errorf("invalid review round %d", round)
}

// ProposalStudent is one (identifier, name) pair on the proposal roster.
type ProposalStudent struct {
	StudentID string `json:"student_id"`
	Name      string `json:"name"`
}

// ReviewerRef identifies an assigned reviewer.
type ReviewerRef struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// ReviewRound is a read view over one of the three flattened review rounds.
// Invariant: At is set iff both reviewers are set.
type ReviewRound struct {
	At        *time.Time   `json:"at,omitempty"`
	Reviewer1 *ReviewerRef `json:"reviewer1,omitempty"`
	Reviewer2 *ReviewerRef `json:"reviewer2,omitempty"`
}

// Recorded reports whether the round has been fully recorded.
func (r ReviewRound) Recorded() bool {
	return r.At != nil && r.Reviewer1 != nil && r.Reviewer2 != nil
}

// Proposal is the root aggregate of the capstone lifecycle.
type Proposal struct {
	ID                  int64          `db:"id" json:"id"`
	Code                *string        `db:"code" json:"code,omitempty"`
	Title               string         `db:"title" json:"title"`
	Context             string         `db:"context" json:"context"`
	Description         string         `db:"description" json:"description"`
	FunctionalReqs      pq.StringArray `db:"functional_reqs" json:"functional_reqs"`
	NonFunctionalReqs   pq.StringArray `db:"non_functional_reqs" json:"non_functional_reqs"`
	Students            types.JSONText `db:"students" json:"students"`
	PrimaryMentorCode   string         `db:"primary_mentor_code" json:"primary_mentor_code"`
	SecondaryMentorCode *string        `db:"secondary_mentor_code" json:"secondary_mentor_code,omitempty"`
	SemesterID          string         `db:"semester_id" json:"semester_id"`
	Status              ProposalStatus `db:"status" json:"status"`

	DuplicateOfID     *int64   `db:"duplicate_of_id" json:"duplicate_of_id,omitempty"`
	DuplicateDistance *float64 `db:"duplicate_distance" json:"duplicate_distance,omitempty"`

	Round1At            *time.Time `db:"round1_at" json:"round1_at,omitempty"`
	Round1Reviewer1Code *string    `db:"round1_reviewer1_code" json:"round1_reviewer1_code,omitempty"`
	Round1Reviewer1Name *string    `db:"round1_reviewer1_name" json:"round1_reviewer1_name,omitempty"`
	Round1Reviewer2Code *string    `db:"round1_reviewer2_code" json:"round1_reviewer2_code,omitempty"`
	Round1Reviewer2Name *string    `db:"round1_reviewer2_name" json:"round1_reviewer2_name,omitempty"`
	Round2At            *time.Time `db:"round2_at" json:"round2_at,omitempty"`
	Round2Reviewer1Code *string    `db:"round2_reviewer1_code" json:"round2_reviewer1_code,omitempty"`
	Round2Reviewer1Name *string    `db:"round2_reviewer1_name" json:"round2_reviewer1_name,omitempty"`
	Round2Reviewer2Code *string    `db:"round2_reviewer2_code" json:"round2_reviewer2_code,omitempty"`
	Round2Reviewer2Name *string    `db:"round2_reviewer2_name" json:"round2_reviewer2_name,omitempty"`
	Round3At            *time.Time `db:"round3_at" json:"round3_at,omitempty"`
	Round3Reviewer1Code *string    `db:"round3_reviewer1_code" json:"round3_reviewer1_code,omitempty"`
	Round3Reviewer1Name *string    `db:"round3_reviewer1_name" json:"round3_reviewer1_name,omitempty"`
	Round3Reviewer2Code *string    `db:"round3_reviewer2_code" json:"round3_reviewer2_code,omitempty"`
	Round3Reviewer2Name *string    `db:"round3_reviewer2_name" json:"round3_reviewer2_name,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Round returns the review round view for n in {1,2,3}.
func (p *Proposal) Round(n int) ReviewRound {
	var at *time.Time
	var r1c, r1n, r2c, r2n *string
	switch n {
	case 1:
		at, r1c, r1n, r2c, r2n = p.Round1At, p.Round1Reviewer1Code, p.Round1Reviewer1Name, p.Round1Reviewer2Code, p.Round1Reviewer2Name
	case 2:
		at, r1c, r1n, r2c, r2n = p.Round2At, p.Round2Reviewer1Code, p.Round2Reviewer1Name, p.Round2Reviewer2Code, p.Round2Reviewer2Name
	case 3:
		at, r1c, r1n, r2c, r2n = p.Round3At, p.Round3Reviewer1Code, p.Round3Reviewer1Name, p.Round3Reviewer2Code, p.Round3Reviewer2Name
	default:
		return ReviewRound{}
	}
	round := ReviewRound{At: at}
	if r1c != nil {
		round.Reviewer1 = &ReviewerRef{Code: *r1c, Name: deref(r1n)}
	}
	if r2c != nil {
		round.Reviewer2 = &ReviewerRef{Code: *r2c, Name: deref(r2n)}
	}
	return round
}

// SetRound records both reviewers and the timestamp of round n at once, so the
// timestamp-iff-reviewers invariant cannot be violated piecemeal.
func (p *Proposal) SetRound(n int, at time.Time, r1, r2 ReviewerRef) error {
	switch n {
	case 1:
		p.Round1At, p.Round1Reviewer1Code, p.Round1Reviewer1Name = &at, &r1.Code, &r1.Name
		p.Round1Reviewer2Code, p.Round1Reviewer2Name = &r2.Code, &r2.Name
	case 2:
		p.Round2At, p.Round2Reviewer1Code, p.Round2Reviewer1Name = &at, &r1.Code, &r1.Name
		p.Round2Reviewer2Code, p.Round2Reviewer2Name = &r2.Code, &r2.Name
	case 3:
		p.Round3At, p.Round3Reviewer1Code, p.Round3Reviewer1Name = &at, &r1.Code, &r1.Name
		p.Round3Reviewer2Code, p.Round3Reviewer2Name = &r2.Code, &r2.Name
	default:
		return fmt.Errorf("invalid review round %d", n)
	}
	return nil
}

// MentorCodes returns the primary and, when present, secondary mentor codes.
func (p *Proposal) MentorCodes() []string {
	codes := []string{p.PrimaryMentorCode}
	if p.SecondaryMentorCode != nil && *p.SecondaryMentorCode != "" {
		codes = append(codes, *p.SecondaryMentorCode)
	}
	return codes
}

// ReviewerCodesBefore returns the reviewer codes assigned in rounds strictly
// before round n.
func (p *Proposal) ReviewerCodesBefore(n int) []string {
	var codes []string
	for round := 1; round < n && round <= 3; round++ {
		r := p.Round(round)
		if r.Reviewer1 != nil {
			codes = append(codes, r.Reviewer1.Code)
		}
		if r.Reviewer2 != nil {
			codes = append(codes, r.Reviewer2.Code)
		}
	}
	return codes
}

// ProposalFilter describes query params for listing proposals.
type ProposalFilter struct {
	SemesterID string
	Status     string
	MentorCode string
	Page       int
	PageSize   int
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
