package domain

import (
	"time"

	"github.com/google/uuid"
)

// ConflictType enumerates the categories of scheduling conflicts the detector raises.
type ConflictType string

const (
	ConflictLeaveDutyOverlap   ConflictType = "LEAVE_DUTY_OVERLAP"
	ConflictBackToBackHighLoad ConflictType = "BACK_TO_BACK_HIGH_LOAD"
	ConflictCallCascade        ConflictType = "CALL_CASCADE"
	ConflictAlternatingPattern ConflictType = "EXCESSIVE_ALTERNATING_PATTERN"
)

// ConflictSeverity grades how urgent a detected conflict is.
type ConflictSeverity string

const (
	SeverityInfo     ConflictSeverity = "INFO"
	SeverityWarning  ConflictSeverity = "WARNING"
	SeverityCritical ConflictSeverity = "CRITICAL"
)

// ConflictStatus is the alert lifecycle. RESOLVED is terminal.
type ConflictStatus string

const (
	ConflictStatusNew      ConflictStatus = "NEW"
	ConflictStatusResolved ConflictStatus = "RESOLVED"
)

// Terminal reports whether the alert can no longer change.
func (s ConflictStatus) Terminal() bool {
	return s == ConflictStatusResolved
}

// ConflictAlert is a detected scheduling conflict awaiting resolution.
// It is created by the external detector; this service only flips its status
// to RESOLVED after a successful swap execution.
type ConflictAlert struct {
	ConflictID uuid.UUID
	FacultyID  uuid.UUID
	Type       ConflictType
	Severity   ConflictSeverity
	WeekStart  time.Time
	Status     ConflictStatus
	Message    string
	CreatedAt  time.Time
}

// WeekOf normalizes any timestamp to the Monday 00:00 UTC that starts its week.
// All week identity comparisons in this service go through this single
// representation so boundary arithmetic cannot drift across timezones.
func WeekOf(t time.Time) time.Time {
	t = t.UTC()
	day := t.Truncate(24 * time.Hour)
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}
