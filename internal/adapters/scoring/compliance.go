package scoring

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rosterforge/conflict-resolution-service/internal/domain"
	"github.com/rosterforge/conflict-resolution-service/internal/ports"
)

const (
	// maxWeeklyAssignments caps a faculty's duty units per week before a
	// duty-hour rule violation is reported.
	maxWeeklyAssignments = 12
	// maxConsecutiveDays caps uninterrupted duty days inside one week.
	maxConsecutiveDays = 6
)

// DefaultComplianceValidator applies the built-in duty-hour rules to a week.
type DefaultComplianceValidator struct{}

func NewDefaultComplianceValidator() *DefaultComplianceValidator {
	return &DefaultComplianceValidator{}
}

func (v *DefaultComplianceValidator) Validate(_ context.Context, assignments []domain.DutyAssignment, _ time.Time) ([]ports.ComplianceViolation, error) {
	byFaculty := make(map[uuid.UUID][]domain.DutyAssignment)
	for _, a := range assignments {
		byFaculty[a.FacultyID] = append(byFaculty[a.FacultyID], a)
	}

	ids := make([]uuid.UUID, 0, len(byFaculty))
	for id := range byFaculty {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })

	var violations []ports.ComplianceViolation
	for _, id := range ids {
		own := byFaculty[id]
		if len(own) > maxWeeklyAssignments {
			violations = append(violations, ports.ComplianceViolation{
				Rule:      "weekly_duty_limit",
				FacultyID: id,
				Detail:    fmt.Sprintf("%d assignments exceeds the weekly limit of %d", len(own), maxWeeklyAssignments),
			})
		}
		if run := longestDutyRun(own); run > maxConsecutiveDays {
			violations = append(violations, ports.ComplianceViolation{
				Rule:      "consecutive_duty_days",
				FacultyID: id,
				Detail:    fmt.Sprintf("%d consecutive duty days exceeds the limit of %d", run, maxConsecutiveDays),
			})
		}
	}
	return violations, nil
}

func longestDutyRun(assignments []domain.DutyAssignment) int {
	days := make(map[string]bool)
	dates := make([]time.Time, 0, len(assignments))
	for _, a := range assignments {
		day := a.Date.UTC().Truncate(24 * time.Hour)
		key := day.Format("2006-01-02")
		if !days[key] {
			days[key] = true
			dates = append(dates, day)
		}
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	longest, run := 0, 0
	var prev time.Time
	for i, d := range dates {
		if i > 0 && d.Sub(prev) == 24*time.Hour {
			run++
		} else {
			run = 1
		}
		if run > longest {
			longest = run
		}
		prev = d
	}
	return longest
}
