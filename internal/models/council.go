package models

import "time"

// CouncilRole is the function a lecturer holds on a defense council.
type CouncilRole string

const (
	RolePresident CouncilRole = "PRESIDENT"
	RoleSecretary CouncilRole = "SECRETARY"
	RoleReviewer  CouncilRole = "REVIEWER"
	RoleGuest     CouncilRole = "GUEST"
)

// CouncilRoleCounts is the required composition: exactly one president, one
// secretary, three reviewers and at most one guest.
var CouncilRoleCounts = map[CouncilRole][2]int{
	RolePresident: {1, 1},
	RoleSecretary: {1, 1},
	RoleReviewer:  {3, 3},
	RoleGuest:     {0, 1},
}

// Council is the panel judging a live defense. Composition is immutable after
// creation.
type Council struct {
	ID          string          `db:"id" json:"id"`
	Name        string          `db:"name" json:"name"`
	Description *string         `db:"description" json:"description,omitempty"`
	SemesterID  string          `db:"semester_id" json:"semester_id"`
	Members     []CouncilMember `db:"-" json:"members"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
}

// CouncilMember assigns a lecturer to a council role.
type CouncilMember struct {
	CouncilID    string      `db:"council_id" json:"-"`
	LecturerCode string      `db:"lecturer_code" json:"lecturer_code"`
	LecturerName string      `db:"lecturer_name" json:"lecturer_name"`
	Role         CouncilRole `db:"role" json:"role"`
}

// MemberCodes returns the lecturer codes of all council members.
func (c *Council) MemberCodes() []string {
	codes := make([]string, 0, len(c.Members))
	for _, m := range c.Members {
		codes = append(codes, m.LecturerCode)
	}
	return codes
}

// President returns the member holding the PRESIDENT role, if any.
func (c *Council) President() *CouncilMember {
	for i := range c.Members {
		if c.Members[i].Role == RolePresident {
			return &c.Members[i]
		}
	}
	return nil
}

// HasAnyMember reports whether any of the given lecturer codes sit on the council.
func (c *Council) HasAnyMember(codes []string) bool {
	set := make(map[string]struct{}, len(codes))
	for _, code := range codes {
		set[code] = struct{}{}
	}
	for _, m := range c.Members {
		if _, ok := set[m.LecturerCode]; ok {
			return true
		}
	}
	return false
}
