package models

import "time"

// ScheduleStatus tracks the state of a defense booking.
type ScheduleStatus string

const (
	ScheduleBooked    ScheduleStatus = "BOOKED"
	ScheduleCompleted ScheduleStatus = "COMPLETED"
)

// DefenseSlot is one of the seven fixed 90-minute daily slots.
type DefenseSlot struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// DefenseSlots lists the daily slots starting at 07:00. Bookings must match a
// slot exactly; the (date, start, end) triple is globally exclusive.
var DefenseSlots = [7]DefenseSlot{
	{"07:00", "08:30"},
	{"08:30", "10:00"},
	{"10:00", "11:30"},
	{"11:30", "13:00"},
	{"13:00", "14:30"},
	{"14:30", "16:00"},
	{"16:00", "17:30"},
}

// ValidSlot reports whether (start, end) matches one of the fixed slots.
func ValidSlot(start, end string) bool {
	for _, slot := range DefenseSlots {
		if slot.Start == start && slot.End == end {
			return true
		}
	}
	return false
}

// DefenseSchedule is a booked defense session for a proposal.
type DefenseSchedule struct {
	ID          string         `db:"id" json:"id"`
	ProposalID  int64          `db:"proposal_id" json:"proposal_id"`
	CouncilID   string         `db:"council_id" json:"council_id"`
	DefenseDate time.Time      `db:"defense_date" json:"defense_date"`
	StartTime   string         `db:"start_time" json:"start_time"`
	EndTime     string         `db:"end_time" json:"end_time"`
	Room        string         `db:"room" json:"room"`
	Status      ScheduleStatus `db:"status" json:"status"`
	CreatedAt   time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at" json:"updated_at"`
}

// ScheduleFilter describes query params for listing defense schedules.
type ScheduleFilter struct {
	SemesterID string
	ProposalID int64
	DateFrom   *time.Time
	DateTo     *time.Time
	Page       int
	PageSize   int
}

// DefenseOutcome is the terminal pass/fail verdict of a defense.
type DefenseOutcome string

const (
	OutcomePass DefenseOutcome = "PASS"
	OutcomeFail DefenseOutcome = "FAIL"
)

// Score bounds for a defense result, inclusive.
const (
	MinDefenseScore = 0.1
	MaxDefenseScore = 10.0
)

// DefenseResult records the single grading outcome of a schedule.
type DefenseResult struct {
	ID         string         `db:"id" json:"id"`
	ScheduleID string         `db:"schedule_id" json:"schedule_id"`
	Result     DefenseOutcome `db:"result" json:"result"`
	Score      float64        `db:"score" json:"score"`
	Comment    *string        `db:"comment" json:"comment,omitempty"`
	CreatedAt  time.Time      `db:"created_at" json:"created_at"`
}

// DefenseResultRow is a reporting row joining result, schedule and proposal.
type DefenseResultRow struct {
	ProposalID   int64          `db:"proposal_id" json:"proposal_id"`
	ProposalCode *string        `db:"proposal_code" json:"proposal_code,omitempty"`
	Title        string         `db:"title" json:"title"`
	DefenseDate  time.Time      `db:"defense_date" json:"defense_date"`
	StartTime    string         `db:"start_time" json:"start_time"`
	Room         string         `db:"room" json:"room"`
	Result       DefenseOutcome `db:"result" json:"result"`
	Score        float64        `db:"score" json:"score"`
}
