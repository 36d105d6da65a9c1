package domain

import (
	"time"

	"github.com/google/uuid"
)

// Faculty is a person who can own duty and call assignments.
// Credentials gate which duty weeks a candidate may absorb or exchange.
type Faculty struct {
	FacultyID   uuid.UUID
	Name        string
	Credentials []string
	Active      bool
}

// HasCredential reports whether the faculty holds the named credential.
func (f Faculty) HasCredential(name string) bool {
	for _, c := range f.Credentials {
		if c == name {
			return true
		}
	}
	return false
}

// DutyAssignment is one scheduled unit of clinical responsibility, attached
// to a person and a date inside a duty week.
type DutyAssignment struct {
	AssignmentID uuid.UUID
	FacultyID    uuid.UUID
	WeekStart    time.Time
	Date         time.Time
	Slot         string
	Credential   string
	UpdatedAt    time.Time
}

// CallAssignment is an on-call duty tied to a specific date. During any
// transfer it travels with the week, never with the person.
type CallAssignment struct {
	CallID    uuid.UUID
	FacultyID uuid.UUID
	Date      time.Time
	UpdatedAt time.Time
}

// WeekStart derives the duty week a call assignment belongs to.
func (c CallAssignment) WeekStart() time.Time {
	return WeekOf(c.Date)
}
