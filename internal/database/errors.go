package database

import (
	"errors"

	"github.com/mattn/go-sqlite3"
)

var (
	// ErrSlotTaken is the structured conflict signal for the UNIQUE(date, time)
	// constraint on appointments. Callers use errors.Is; nobody inspects error
	// message text.
	ErrSlotTaken = errors.New("slot already booked")

	// ErrEmailTaken signals the unique email constraint on users.
	ErrEmailTaken = errors.New("email already registered")

	// ErrNotFound signals a lookup miss.
	ErrNotFound = errors.New("not found")
)

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}
