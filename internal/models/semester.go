package models

import "time"

// BoardSeatCount is the fixed number of review board seats per semester.
const BoardSeatCount = 4

// Semester groups proposals into an academic period and carries the review board.
type Semester struct {
	ID           string    `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	Code         string    `db:"code" json:"code"`
	AcademicYear string    `db:"academic_year" json:"academic_year"`
	StartDate    time.Time `db:"start_date" json:"start_date"`
	EndDate      time.Time `db:"end_date" json:"end_date"`
	Current      bool      `db:"current" json:"current"`

	BoardReviewer1Code *string `db:"board_reviewer1_code" json:"board_reviewer1_code,omitempty"`
	BoardReviewer2Code *string `db:"board_reviewer2_code" json:"board_reviewer2_code,omitempty"`
	BoardReviewer3Code *string `db:"board_reviewer3_code" json:"board_reviewer3_code,omitempty"`
	BoardReviewer4Code *string `db:"board_reviewer4_code" json:"board_reviewer4_code,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// BoardSeats returns the seat-indexed reviewer codes. Index i is seat i+1;
// unset seats are empty strings.
func (s *Semester) BoardSeats() [BoardSeatCount]string {
	var seats [BoardSeatCount]string
	for i, code := range []*string{s.BoardReviewer1Code, s.BoardReviewer2Code, s.BoardReviewer3Code, s.BoardReviewer4Code} {
		if code != nil {
			seats[i] = *code
		}
	}
	return seats
}

// SeatForReviewer returns the 1-based seat index of a reviewer code, or 0 when
// the code is not on the board.
func (s *Semester) SeatForReviewer(code string) int {
	for i, seat := range s.BoardSeats() {
		if seat != "" && seat == code {
			return i + 1
		}
	}
	return 0
}

// SemesterFilter describes query params for listing semesters.
type SemesterFilter struct {
	AcademicYear string
	Current      *bool
	Page         int
	PageSize     int
}
