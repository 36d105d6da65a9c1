package application

import (
	"time"

	"github.com/google/uuid"
	"github.com/rosterforge/conflict-resolution-service/internal/domain"
)

// AutoResolveRequest asks the safety gate to resolve one conflict without
// human sign-off when a low-enough-risk option exists.
type AutoResolveRequest struct {
	ConflictID        uuid.UUID       `json:"conflict_id"`
	PreferredStrategy domain.Strategy `json:"preferred_strategy,omitempty"`
	MaxRisk           domain.RiskLevel `json:"max_risk,omitempty"`
	Reason            string          `json:"reason,omitempty"`
	RequestedBy       uuid.UUID       `json:"requested_by"`
}

// ResolutionResult is the typed outcome of one resolution attempt. Expected
// failures are carried as Success=false plus a stable ErrorCode, never as an
// error crossing the component boundary.
type ResolutionResult struct {
	Success    bool          `json:"success"`
	Status     string        `json:"status"`
	ErrorCode  string        `json:"error_code,omitempty"`
	Message    string        `json:"message"`
	ConflictID uuid.UUID     `json:"conflict_id"`
	OptionID   *uuid.UUID    `json:"option_id,omitempty"`
	SwapID     *uuid.UUID    `json:"swap_id,omitempty"`
	Elapsed    time.Duration `json:"elapsed_ns"`
}

// ExecuteSwapRequest describes one concrete swap to apply. The swap type is
// already validated at the boundary; TargetWeek is required for ONE_TO_ONE.
type ExecuteSwapRequest struct {
	SourceFacultyID uuid.UUID       `json:"source_faculty_id"`
	SourceWeek      time.Time       `json:"source_week"`
	TargetFacultyID uuid.UUID       `json:"target_faculty_id"`
	TargetWeek      *time.Time      `json:"target_week,omitempty"`
	Type            domain.SwapType `json:"swap_type"`
	Reason          string          `json:"reason"`
	ExecutedBy      uuid.UUID       `json:"executed_by"`
}

// ExecutionResult reports one swap execution. SwapID is populated whenever a
// record was created, including failures, so rollback and audit can reference it.
type ExecutionResult struct {
	Success   bool              `json:"success"`
	SwapID    uuid.UUID         `json:"swap_id"`
	Status    domain.SwapStatus `json:"status"`
	ErrorCode string            `json:"error_code,omitempty"`
	Message   string            `json:"message"`
	Elapsed   time.Duration     `json:"elapsed_ns"`
}

// RollbackResult reports one rollback attempt.
type RollbackResult struct {
	Success   bool          `json:"success"`
	SwapID    uuid.UUID     `json:"swap_id"`
	ErrorCode string        `json:"error_code,omitempty"`
	Message   string        `json:"message"`
	Elapsed   time.Duration `json:"elapsed_ns"`
}

// BatchResolveRequest submits many conflicts for one coordinated pass.
// Deadline is optional; zero means no per-batch deadline.
type BatchResolveRequest struct {
	ConflictIDs   []uuid.UUID      `json:"conflict_ids"`
	AutoApplySafe bool             `json:"auto_apply_safe"`
	MaxRisk       domain.RiskLevel `json:"max_risk,omitempty"`
	RequestedBy   uuid.UUID        `json:"requested_by"`
	Deadline      time.Duration    `json:"deadline_ns,omitempty"`
}

// BatchResolutionReport aggregates outcomes across one batch pass.
type BatchResolutionReport struct {
	TotalConflicts        int           `json:"total_conflicts"`
	ConflictsAnalyzed     int           `json:"conflicts_analyzed"`
	OptionsProposed       int           `json:"options_proposed"`
	ResolutionsApplied    int           `json:"resolutions_applied"`
	ResolutionsDeferred   int           `json:"resolutions_deferred"`
	ResolutionsFailed     int           `json:"resolutions_failed"`
	SuccessRate           float64       `json:"success_rate"`
	SafetyChecksPerformed int           `json:"safety_checks_performed"`
	SafetyChecksPassed    int           `json:"safety_checks_passed"`
	SafetyChecksFailed    int           `json:"safety_checks_failed"`
	AffectedFaculty       int           `json:"affected_faculty"`
	PendingApprovals      []uuid.UUID   `json:"pending_approvals"`
	FailedConflicts       []uuid.UUID   `json:"failed_conflicts"`
	Recommendations       []string      `json:"recommendations"`
	OverallStatus         string        `json:"overall_status"`
	Summary               string        `json:"summary"`
	Elapsed               time.Duration `json:"elapsed_ns"`
}
