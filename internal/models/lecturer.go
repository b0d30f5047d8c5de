package models

import "time"

// Lecturer represents a faculty member eligible for mentoring, reviewing and council duty.
type Lecturer struct {
	ID        string    `db:"id" json:"id"`
	Code      string    `db:"code" json:"code"`
	FullName  string    `db:"full_name" json:"full_name"`
	Email     string    `db:"email" json:"email"`
	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// LecturerFilter describes query params for listing lecturers.
type LecturerFilter struct {
	Active   *bool
	Search   string
	Page     int
	PageSize int
}
