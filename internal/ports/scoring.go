package ports

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rosterforge/conflict-resolution-service/internal/domain"
)

// ScheduleScore is the deterministic quality verdict for one duty week.
// Score lies in [0,1]; higher is better.
type ScheduleScore struct {
	Score      float64
	Violations []string
}

// ScheduleScorer is the external deterministic schedule-quality scorer.
// The core only consumes before/after deltas; the weighting is not ours.
type ScheduleScorer interface {
	Evaluate(ctx context.Context, assignments []domain.DutyAssignment, weekStart time.Time) (ScheduleScore, error)
}

// ComplianceViolation is one duty-hour/credentialing rule breach.
type ComplianceViolation struct {
	Rule      string
	FacultyID uuid.UUID
	Detail    string
}

// ComplianceValidator is the external regulatory/credentialing validator
// consumed inside safety checks. Its rule set is external to this core.
type ComplianceValidator interface {
	Validate(ctx context.Context, assignments []domain.DutyAssignment, weekStart time.Time) ([]ComplianceViolation, error)
}
