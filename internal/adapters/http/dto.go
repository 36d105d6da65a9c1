package http

import (
	"time"

	"github.com/google/uuid"
	"github.com/rosterforge/conflict-resolution-service/internal/domain"
)

type safetyCheckResponse struct {
	Name     string `json:"name"`
	Passed   bool   `json:"passed"`
	Blocking bool   `json:"blocking"`
	Message  string `json:"message,omitempty"`
}

type analysisResponse struct {
	ConflictID            uuid.UUID             `json:"conflict_id"`
	Type                  string                `json:"conflict_type"`
	Severity              string                `json:"severity"`
	RootCause             string                `json:"root_cause"`
	AffectedFaculty       []uuid.UUID           `json:"affected_faculty"`
	AffectedWeeks         []string              `json:"affected_weeks"`
	ComplexityScore       float64               `json:"complexity_score"`
	SafetyChecks          []safetyCheckResponse `json:"safety_checks"`
	AllChecksPassed       bool                  `json:"all_checks_passed"`
	HardConstraints       []string              `json:"hard_constraints"`
	Blockers              []string              `json:"blockers"`
	RecommendedStrategies []string              `json:"recommended_strategies"`
	EstimatedDurationMS   int64                 `json:"estimated_duration_ms"`
}

func toAnalysisResponse(a domain.ConflictAnalysis) analysisResponse {
	checks := make([]safetyCheckResponse, 0, len(a.SafetyChecks))
	for _, c := range a.SafetyChecks {
		checks = append(checks, safetyCheckResponse{
			Name:     c.Name,
			Passed:   c.Passed,
			Blocking: c.Blocking,
			Message:  c.Message,
		})
	}
	strategies := make([]string, 0, len(a.RecommendedStrategies))
	for _, st := range a.RecommendedStrategies {
		strategies = append(strategies, string(st))
	}
	return analysisResponse{
		ConflictID:            a.ConflictID,
		Type:                  string(a.Type),
		Severity:              string(a.Severity),
		RootCause:             a.RootCause,
		AffectedFaculty:       a.AffectedFaculty,
		AffectedWeeks:         formatWeeks(a.AffectedWeeks),
		ComplexityScore:       a.ComplexityScore,
		SafetyChecks:          checks,
		AllChecksPassed:       a.AllChecksPassed,
		HardConstraints:       a.HardConstraints,
		Blockers:              a.Blockers,
		RecommendedStrategies: strategies,
		EstimatedDurationMS:   a.EstimatedDuration.Milliseconds(),
	}
}

type optionResponse struct {
	OptionID             uuid.UUID  `json:"option_id"`
	ConflictID           uuid.UUID  `json:"conflict_id"`
	Strategy             string     `json:"strategy"`
	SwapType             string     `json:"swap_type,omitempty"`
	SourceFacultyID      uuid.UUID  `json:"source_faculty_id"`
	SourceWeek           string     `json:"source_week"`
	TargetFacultyID      uuid.UUID  `json:"target_faculty_id,omitempty"`
	TargetWeek           *string    `json:"target_week,omitempty"`
	Title                string     `json:"title"`
	Description          string     `json:"description"`
	Steps                []string   `json:"steps"`
	Risk                 string     `json:"risk"`
	AffectedFacultyCount int        `json:"affected_faculty_count"`
	AffectedWeekCount    int        `json:"affected_week_count"`
	OverallScore         float64    `json:"overall_score"`
}

func toOptionResponse(opt domain.ResolutionOption) optionResponse {
	return optionResponse{
		OptionID:             opt.OptionID,
		ConflictID:           opt.ConflictID,
		Strategy:             string(opt.Strategy),
		SwapType:             string(opt.SwapType),
		SourceFacultyID:      opt.SourceFacultyID,
		SourceWeek:           formatWeek(opt.SourceWeek),
		TargetFacultyID:      opt.TargetFacultyID,
		TargetWeek:           formatWeekPtr(opt.TargetWeek),
		Title:                opt.Title,
		Description:          opt.Description,
		Steps:                opt.Steps,
		Risk:                 string(opt.Risk),
		AffectedFacultyCount: opt.Impact.AffectedFacultyCount,
		AffectedWeekCount:    opt.Impact.AffectedWeekCount,
		OverallScore:         opt.Impact.OverallScore,
	}
}

type swapResponse struct {
	SwapID          uuid.UUID  `json:"swap_id"`
	SourceFacultyID uuid.UUID  `json:"source_faculty_id"`
	SourceWeek      *string    `json:"source_week,omitempty"`
	TargetFacultyID uuid.UUID  `json:"target_faculty_id"`
	TargetWeek      *string    `json:"target_week,omitempty"`
	Type            string     `json:"swap_type"`
	Status          string     `json:"status"`
	Reason          string     `json:"reason,omitempty"`
	ExecutedBy      uuid.UUID  `json:"executed_by"`
	ExecutedAt      *time.Time `json:"executed_at,omitempty"`
	FailureReason   string     `json:"failure_reason,omitempty"`
	RollbackReason  string     `json:"rollback_reason,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

func toSwapResponse(rec domain.SwapRecord) swapResponse {
	return swapResponse{
		SwapID:          rec.SwapID,
		SourceFacultyID: rec.SourceFacultyID,
		SourceWeek:      formatWeekPtr(rec.SourceWeek),
		TargetFacultyID: rec.TargetFacultyID,
		TargetWeek:      formatWeekPtr(rec.TargetWeek),
		Type:            string(rec.Type),
		Status:          string(rec.Status),
		Reason:          rec.Reason,
		ExecutedBy:      rec.ExecutedBy,
		ExecutedAt:      rec.ExecutedAt,
		FailureReason:   rec.FailureReason,
		RollbackReason:  rec.RollbackReason,
		CreatedAt:       rec.CreatedAt,
		UpdatedAt:       rec.UpdatedAt,
	}
}

func formatWeek(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

func formatWeekPtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := formatWeek(*t)
	return &s
}

func formatWeeks(weeks []time.Time) []string {
	out := make([]string, 0, len(weeks))
	for _, w := range weeks {
		out = append(out, formatWeek(w))
	}
	return out
}
