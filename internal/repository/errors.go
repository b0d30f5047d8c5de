package repository

import (
	"errors"

	"github.com/lib/pq"
)

// Storage-level sentinels. Services translate these into domain error kinds.
var (
	ErrSeatTaken    = errors.New("board seat already decided")
	ErrQuorumLocked = errors.New("board quorum already reached")
	ErrSlotConflict = errors.New("defense slot already booked")
	ErrResultExists = errors.New("defense result already recorded")
	ErrStaleStatus  = errors.New("proposal status changed concurrently")
)

// isUniqueViolation reports whether err is a postgres unique constraint violation.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return false
}
