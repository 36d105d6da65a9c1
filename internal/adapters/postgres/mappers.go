package postgres

import (
	"strings"
	"time"

	"github.com/rosterforge/conflict-resolution-service/internal/domain"
)

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

func toDomainFaculty(m facultyModel) domain.Faculty {
	var creds []string
	if m.Credentials != "" {
		creds = strings.Split(m.Credentials, ",")
	}
	return domain.Faculty{
		FacultyID:   m.FacultyID,
		Name:        m.Name,
		Credentials: creds,
		Active:      m.Active,
	}
}

func toDomainDutyAssignment(m dutyAssignmentModel) domain.DutyAssignment {
	return domain.DutyAssignment{
		AssignmentID: m.AssignmentID,
		FacultyID:    m.FacultyID,
		WeekStart:    m.WeekStart.UTC(),
		Date:         m.DutyDate.UTC(),
		Slot:         m.Slot,
		Credential:   m.Credential,
		UpdatedAt:    m.UpdatedAt.UTC(),
	}
}

func toDomainCallAssignment(m callAssignmentModel) domain.CallAssignment {
	return domain.CallAssignment{
		CallID:    m.CallID,
		FacultyID: m.FacultyID,
		Date:      m.CallDate.UTC(),
		UpdatedAt: m.UpdatedAt.UTC(),
	}
}

func toDomainConflict(m conflictAlertModel) domain.ConflictAlert {
	return domain.ConflictAlert{
		ConflictID: m.ConflictID,
		FacultyID:  m.FacultyID,
		Type:       domain.ConflictType(m.Type),
		Severity:   domain.ConflictSeverity(m.Severity),
		WeekStart:  m.WeekStart.UTC(),
		Status:     domain.ConflictStatus(m.Status),
		Message:    m.Message,
		CreatedAt:  m.CreatedAt.UTC(),
	}
}

func toDomainSwapRecord(m swapRecordModel) domain.SwapRecord {
	return domain.SwapRecord{
		SwapID:          m.SwapID,
		SourceFacultyID: m.SourceFacultyID,
		SourceWeek:      utcPtr(m.SourceWeek),
		TargetFacultyID: m.TargetFacultyID,
		TargetWeek:      utcPtr(m.TargetWeek),
		Type:            domain.SwapType(m.SwapType),
		Status:          domain.SwapStatus(m.Status),
		Reason:          m.Reason,
		ExecutedBy:      m.ExecutedBy,
		ExecutedAt:      utcPtr(m.ExecutedAt),
		FailureReason:   m.FailureReason,
		RollbackReason:  m.RollbackReason,
		CreatedAt:       m.CreatedAt.UTC(),
		UpdatedAt:       m.UpdatedAt.UTC(),
	}
}
