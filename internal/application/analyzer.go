package application

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rosterforge/conflict-resolution-service/internal/domain"
)

// Safety check names. Blocking checks that fail become blockers and rule out
// automatic resolution; the remainder only degrade option risk.
const (
	checkNoInFlightSwap      = "no_inflight_swap"
	checkCandidateEligibility = "candidate_eligibility"
	checkRegulatoryImpact    = "regulatory_impact"
	checkCoverageGap         = "coverage_gap"
)

// AnalyzeConflict inspects one conflict and produces its structured analysis.
// The analysis is ephemeral and idempotent: unchanged schedule data yields an
// identical complexity score and identical check outcomes.
func (s *Service) AnalyzeConflict(ctx context.Context, conflictID uuid.UUID) (domain.ConflictAnalysis, error) {
	alert, err := s.conflicts.Get(ctx, conflictID)
	if err != nil {
		return domain.ConflictAnalysis{}, err
	}
	return s.analyzeAlert(ctx, alert)
}

func (s *Service) analyzeAlert(ctx context.Context, alert domain.ConflictAlert) (domain.ConflictAnalysis, error) {
	weeks := affectedWeeks(alert)

	affected, err := s.collectAffectedFaculty(ctx, alert, weeks)
	if err != nil {
		return domain.ConflictAnalysis{}, fmt.Errorf("collect affected faculty: %w", err)
	}

	checks, err := s.runSafetyChecks(ctx, alert, affected, weeks)
	if err != nil {
		return domain.ConflictAnalysis{}, fmt.Errorf("run safety checks: %w", err)
	}

	allPassed := true
	var blockers []string
	eligibilityOK := true
	for _, c := range checks {
		if c.Passed {
			continue
		}
		allPassed = false
		if c.Blocking {
			blockers = append(blockers, c.Name)
		}
		if c.Name == checkCandidateEligibility {
			eligibilityOK = false
		}
	}

	complexity := complexityScore(alert, len(affected), len(weeks))

	return domain.ConflictAnalysis{
		ConflictID:            alert.ConflictID,
		Type:                  alert.Type,
		Severity:              alert.Severity,
		RootCause:             rootCauseFor(alert),
		AffectedFaculty:       affected,
		AffectedWeeks:         weeks,
		ComplexityScore:       complexity,
		SafetyChecks:          checks,
		AllChecksPassed:       allPassed,
		HardConstraints:       hardConstraintsFor(alert.Type),
		Blockers:              blockers,
		RecommendedStrategies: recommendedStrategies(alert.Type, eligibilityOK),
		EstimatedDuration:     estimatedDuration(complexity),
	}, nil
}

// affectedWeeks is the conflict week plus any cascading weeks the conflict
// type implies. Weeks are always normalized Monday UTC starts.
func affectedWeeks(alert domain.ConflictAlert) []time.Time {
	week := domain.WeekOf(alert.WeekStart)
	weeks := []time.Time{week}
	switch alert.Type {
	case domain.ConflictBackToBackHighLoad:
		weeks = append(weeks, week.AddDate(0, 0, 7))
	case domain.ConflictCallCascade:
		weeks = append(weeks, week.AddDate(0, 0, 7), week.AddDate(0, 0, 14))
	}
	return weeks
}

// collectAffectedFaculty gathers the conflict's subject plus every faculty
// whose call duty falls inside an affected week, since a swap cascade would
// touch their assignments too. The result is sorted for determinism.
func (s *Service) collectAffectedFaculty(ctx context.Context, alert domain.ConflictAlert, weeks []time.Time) ([]uuid.UUID, error) {
	seen := map[uuid.UUID]struct{}{alert.FacultyID: {}}
	for _, week := range weeks {
		calls, err := s.assignments.ListCallAssignmentsForWeek(ctx, week)
		if err != nil {
			return nil, err
		}
		for _, call := range calls {
			seen[call.FacultyID] = struct{}{}
		}
	}

	out := make([]uuid.UUID, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out, nil
}

func (s *Service) runSafetyChecks(ctx context.Context, alert domain.ConflictAlert, affected []uuid.UUID, weeks []time.Time) ([]domain.SafetyCheck, error) {
	checks := make([]domain.SafetyCheck, 0, 4)

	inFlight, err := s.swaps.AnyInFlightTouching(ctx, affected, weeks)
	if err != nil {
		return nil, err
	}
	checks = append(checks, domain.SafetyCheck{
		Name:     checkNoInFlightSwap,
		Passed:   !inFlight,
		Blocking: true,
		Message:  checkMessage(!inFlight, "no in-flight swap touches the affected weeks", "a pending swap already touches an affected faculty or week"),
	})

	subjectDuties, err := s.assignments.ListDutyAssignments(ctx, alert.FacultyID, domain.WeekOf(alert.WeekStart))
	if err != nil {
		return nil, err
	}

	candidates, err := s.faculty.ListEligible(ctx, requiredCredentials(subjectDuties), []uuid.UUID{alert.FacultyID})
	if err != nil {
		return nil, err
	}
	checks = append(checks, domain.SafetyCheck{
		Name:     checkCandidateEligibility,
		Passed:   len(candidates) > 0,
		Blocking: false,
		Message:  checkMessage(len(candidates) > 0, fmt.Sprintf("%d credentialed candidates available", len(candidates)), "no credentialed candidate can take the affected duties"),
	})

	violations, err := s.compliance.Validate(ctx, subjectDuties, domain.WeekOf(alert.WeekStart))
	if err != nil {
		return nil, err
	}
	checks = append(checks, domain.SafetyCheck{
		Name:     checkRegulatoryImpact,
		Passed:   len(violations) == 0,
		Blocking: false,
		Message:  checkMessage(len(violations) == 0, "no duty-hour violations in the affected week", fmt.Sprintf("%d duty-hour violations in the affected week", len(violations))),
	})

	// A transfer may not orphan coverage: either the subject holds nothing in
	// the conflict week, or at least one other active faculty exists to hold it.
	anyTakers, err := s.faculty.ListEligible(ctx, nil, []uuid.UUID{alert.FacultyID})
	if err != nil {
		return nil, err
	}
	coverageOK := len(subjectDuties) == 0 || len(anyTakers) > 0
	checks = append(checks, domain.SafetyCheck{
		Name:     checkCoverageGap,
		Passed:   coverageOK,
		Blocking: true,
		Message:  checkMessage(coverageOK, "coverage remains attended after any transfer", "transferring the week would leave coverage unattended"),
	})

	return checks, nil
}

func checkMessage(passed bool, okMsg, failMsg string) string {
	if passed {
		return okMsg
	}
	return failMsg
}

// requiredCredentials is the distinct credential set of a duty week, in
// deterministic order.
func requiredCredentials(duties []domain.DutyAssignment) []string {
	seen := map[string]struct{}{}
	for _, d := range duties {
		if d.Credential != "" {
			seen[d.Credential] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for c := range seen {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

func rootCauseFor(alert domain.ConflictAlert) string {
	switch alert.Type {
	case domain.ConflictLeaveDutyOverlap:
		return "approved leave overlaps a scheduled duty week; the week's assignments need a new owner"
	case domain.ConflictBackToBackHighLoad:
		return "consecutive high-load duty weeks assigned to the same faculty exceed sustainable workload"
	case domain.ConflictCallCascade:
		return "a call reassignment cascaded into adjacent weeks, stacking call duty onto already-assigned faculty"
	case domain.ConflictAlternatingPattern:
		return "an excessive alternating on/off pattern fragments continuity of care across weeks"
	default:
		return "unclassified scheduling conflict: " + alert.Message
	}
}

func hardConstraintsFor(t domain.ConflictType) []string {
	constraints := []string{
		"call duty transfers with the week, never with the person",
		"assignment transfer is all-or-nothing within one transaction",
		"transfer targets must hold the week's required credentials",
	}
	if t == domain.ConflictLeaveDutyOverlap {
		constraints = append(constraints, "the faculty on leave cannot receive reciprocal assignments")
	}
	return constraints
}

// recommendedStrategies orders strategies by applicability to the conflict
// type. A failed eligibility check rules out every automatic strategy.
func recommendedStrategies(t domain.ConflictType, eligibilityOK bool) []domain.Strategy {
	if !eligibilityOK {
		return []domain.Strategy{domain.StrategyDeferToHuman}
	}
	switch t {
	case domain.ConflictLeaveDutyOverlap:
		return []domain.Strategy{domain.StrategyAbsorb, domain.StrategyOneToOneSwap, domain.StrategyDeferToHuman}
	case domain.ConflictBackToBackHighLoad:
		return []domain.Strategy{domain.StrategyOneToOneSwap, domain.StrategyAbsorb, domain.StrategyDeferToHuman}
	case domain.ConflictCallCascade, domain.ConflictAlternatingPattern:
		return []domain.Strategy{domain.StrategyOneToOneSwap, domain.StrategyDeferToHuman}
	default:
		return []domain.Strategy{domain.StrategyDeferToHuman}
	}
}

// complexityScore is a normalized weighted sum of affected-faculty count,
// affected-week count, severity weight and per-type base difficulty.
func complexityScore(alert domain.ConflictAlert, facultyCount, weekCount int) float64 {
	fw := float64(min(facultyCount, 6)) / 6
	ww := float64(min(weekCount, 4)) / 4

	var sw float64
	switch alert.Severity {
	case domain.SeverityCritical:
		sw = 0.9
	case domain.SeverityWarning:
		sw = 0.55
	default:
		sw = 0.25
	}

	var tw float64
	switch alert.Type {
	case domain.ConflictCallCascade:
		tw = 0.8
	case domain.ConflictAlternatingPattern:
		tw = 0.6
	case domain.ConflictBackToBackHighLoad:
		tw = 0.55
	case domain.ConflictLeaveDutyOverlap:
		tw = 0.35
	default:
		tw = 0.5
	}

	return clamp01(0.2*fw + 0.2*ww + 0.3*sw + 0.3*tw)
}

func estimatedDuration(complexity float64) time.Duration {
	return time.Duration(15+int(complexity*45)) * time.Minute
}
