package application

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rosterforge/conflict-resolution-service/internal/domain"
)

// candidatesPerStrategy caps how many concrete targets each strategy expands
// into, keeping generation bounded on large rosters.
const candidatesPerStrategy = 4

// GenerateResolutionOptions turns a conflict's analysis into a ranked list of
// concrete, executable options, at most maxOptions long, sorted by overall
// score descending. An unknown conflict yields an empty list, not an error,
// so batch callers can skip gracefully.
func (s *Service) GenerateResolutionOptions(ctx context.Context, conflictID uuid.UUID, maxOptions int) ([]domain.ResolutionOption, error) {
	alert, err := s.conflicts.Get(ctx, conflictID)
	if err != nil {
		if errors.Is(err, domain.ErrConflictNotFound) {
			return []domain.ResolutionOption{}, nil
		}
		return nil, err
	}

	analysis, err := s.analyzeAlert(ctx, alert)
	if err != nil {
		return nil, err
	}
	options, err := s.generateForAnalysis(ctx, alert, analysis)
	if err != nil {
		return nil, err
	}
	return truncateOptions(options, s.maxOptions(maxOptions)), nil
}

func (s *Service) maxOptions(requested int) int {
	if requested <= 0 {
		return s.cfg.MaxOptions
	}
	return requested
}

// generateForAnalysis produces the full ranked option list for one analyzed
// conflict. Results are cached keyed by conflict and schedule data version;
// a version bump from any underlying assignment change invalidates the entry
// on its own, never elapsed time alone.
func (s *Service) generateForAnalysis(ctx context.Context, alert domain.ConflictAlert, analysis domain.ConflictAnalysis) ([]domain.ResolutionOption, error) {
	version, err := s.assignments.ScheduleVersion(ctx, analysis.AffectedWeeks)
	if err != nil {
		return nil, fmt.Errorf("schedule version: %w", err)
	}
	if cached, ok, err := s.optionCache.Get(ctx, alert.ConflictID, version); err == nil && ok {
		return cached, nil
	}

	conflictWeek := domain.WeekOf(alert.WeekStart)
	subjectDuties, err := s.assignments.ListDutyAssignments(ctx, alert.FacultyID, conflictWeek)
	if err != nil {
		return nil, err
	}

	candidates, err := s.faculty.ListEligible(ctx, requiredCredentials(subjectDuties), []uuid.UUID{alert.FacultyID})
	if err != nil {
		return nil, err
	}
	if len(candidates) > candidatesPerStrategy {
		candidates = candidates[:candidatesPerStrategy]
	}

	checkRatio, failedSoft := checkStats(analysis.SafetyChecks)

	var options []domain.ResolutionOption
	for _, strategy := range analysis.RecommendedStrategies {
		if strategy == domain.StrategyDeferToHuman {
			continue
		}
		for _, candidate := range candidates {
			opt, err := s.buildOption(ctx, alert, analysis, strategy, candidate.FacultyID, candidate.Name, subjectDuties, checkRatio, failedSoft)
			if err != nil {
				return nil, err
			}
			options = append(options, opt)
		}
	}

	if len(options) == 0 {
		options = append(options, deferOption(alert, analysis))
	}

	sortOptions(options)

	if err := s.optionCache.Put(ctx, alert.ConflictID, version, options, s.cfg.OptionCacheTTL); err != nil {
		s.logger.WarnContext(ctx, "option cache put failed",
			"operation", "generate_options",
			"outcome", "degraded",
			"conflict_id", alert.ConflictID,
			"error", err,
		)
	}
	return options, nil
}

func (s *Service) buildOption(
	ctx context.Context,
	alert domain.ConflictAlert,
	analysis domain.ConflictAnalysis,
	strategy domain.Strategy,
	candidateID uuid.UUID,
	candidateName string,
	subjectDuties []domain.DutyAssignment,
	checkRatio float64,
	failedSoft int,
) (domain.ResolutionOption, error) {
	sourceWeek := domain.WeekOf(alert.WeekStart)

	var (
		swapType   domain.SwapType
		targetWeek *time.Time
		title      string
		steps      []string
		continuity float64
	)
	switch strategy {
	case domain.StrategyAbsorb:
		swapType = domain.SwapAbsorb
		title = fmt.Sprintf("Reassign week of %s to %s", sourceWeek.Format("Jan 2"), candidateName)
		steps = []string{
			fmt.Sprintf("transfer all duty assignments for week %s to %s", sourceWeek.Format("2006-01-02"), candidateName),
			"transfer call duty inside the week with the same mapping",
			"mark the conflict resolved",
		}
		continuity = 0.8
	default:
		swapType = domain.SwapOneToOne
		tw := oneToOneTargetWeek(alert.Type, sourceWeek)
		targetWeek = &tw
		title = fmt.Sprintf("Exchange weeks with %s", candidateName)
		steps = []string{
			fmt.Sprintf("transfer all duty assignments for week %s to %s", sourceWeek.Format("2006-01-02"), candidateName),
			fmt.Sprintf("transfer %s's assignments for week %s back in exchange", candidateName, tw.Format("2006-01-02")),
			"transfer call duty inside both weeks with the same mappings",
			"mark the conflict resolved",
		}
		continuity = 0.6
		if tw.Equal(sourceWeek) {
			continuity = 0.7
		}
	}

	fairness, err := s.fairnessDelta(ctx, candidateID, sourceWeek, len(subjectDuties))
	if err != nil {
		return domain.ResolutionOption{}, err
	}
	scoreDelta := s.scoreDelta(ctx, subjectDuties, sourceWeek, alert.FacultyID, candidateID)

	overall := clamp01(0.35*checkRatio + 0.25*fairness + 0.2*continuity + 0.2*scoreDelta)

	weekCount := 1
	if swapType == domain.SwapOneToOne && targetWeek != nil && !targetWeek.Equal(sourceWeek) {
		weekCount = 2
	}

	return domain.ResolutionOption{
		OptionID:        uuid.New(),
		ConflictID:      alert.ConflictID,
		Strategy:        strategy,
		SwapType:        swapType,
		SourceFacultyID: alert.FacultyID,
		SourceWeek:      sourceWeek,
		TargetFacultyID: candidateID,
		TargetWeek:      targetWeek,
		Title:           title,
		Description:     analysis.RootCause,
		Steps:           steps,
		Risk:            riskFor(overall, failedSoft),
		Impact: domain.ImpactAssessment{
			AffectedFacultyCount: 2,
			AffectedWeekCount:    weekCount,
			OverallScore:         overall,
		},
	}, nil
}

// oneToOneTargetWeek picks which week the counterparty gives up. Load-spread
// conflicts exchange across adjacent weeks; overlap conflicts exchange the
// same calendar week across persons.
func oneToOneTargetWeek(t domain.ConflictType, sourceWeek time.Time) time.Time {
	switch t {
	case domain.ConflictBackToBackHighLoad, domain.ConflictCallCascade:
		return sourceWeek.AddDate(0, 0, 7)
	default:
		return sourceWeek
	}
}

// fairnessDelta rewards candidates with spare capacity: a candidate already
// carrying as much as the subject scores near zero.
func (s *Service) fairnessDelta(ctx context.Context, candidateID uuid.UUID, week time.Time, subjectLoad int) (float64, error) {
	duties, err := s.assignments.ListDutyAssignments(ctx, candidateID, week)
	if err != nil {
		return 0, err
	}
	if subjectLoad == 0 {
		return 0.5, nil
	}
	return clamp01(1 - float64(len(duties))/float64(subjectLoad+1)), nil
}

// scoreDelta asks the external deterministic scorer how the week's quality
// would move if the candidate took over. A scorer failure is neutral (0.5):
// the delta is an input to ranking, not a gate.
func (s *Service) scoreDelta(ctx context.Context, subjectDuties []domain.DutyAssignment, week time.Time, sourceID, targetID uuid.UUID) float64 {
	if s.scorer == nil || len(subjectDuties) == 0 {
		return 0.5
	}
	before, err := s.scorer.Evaluate(ctx, subjectDuties, week)
	if err != nil {
		return 0.5
	}

	moved := make([]domain.DutyAssignment, len(subjectDuties))
	copy(moved, subjectDuties)
	for i := range moved {
		if moved[i].FacultyID == sourceID {
			moved[i].FacultyID = targetID
		}
	}
	after, err := s.scorer.Evaluate(ctx, moved, week)
	if err != nil {
		return 0.5
	}
	return clamp01(0.5 + (after.Score - before.Score))
}

// riskFor derives the coarse risk class from the overall score and the count
// of failed non-blocking checks via fixed thresholds.
func riskFor(overall float64, failedSoft int) domain.RiskLevel {
	switch {
	case overall >= 0.7 && failedSoft == 0:
		return domain.RiskLow
	case overall >= 0.4:
		return domain.RiskMedium
	default:
		return domain.RiskHigh
	}
}

// deferOption is the fallback presented when no automatic strategy is viable.
// Deferral carries no executable swap and is always high risk to auto-apply.
func deferOption(alert domain.ConflictAlert, analysis domain.ConflictAnalysis) domain.ResolutionOption {
	return domain.ResolutionOption{
		OptionID:        uuid.New(),
		ConflictID:      alert.ConflictID,
		Strategy:        domain.StrategyDeferToHuman,
		SourceFacultyID: alert.FacultyID,
		SourceWeek:      domain.WeekOf(alert.WeekStart),
		Title:           "Defer to scheduler",
		Description:     "no automatic strategy is viable; a human scheduler must resolve this conflict",
		Steps: []string{
			"route the conflict to the schedule owner",
			"review the analysis and pick a manual reassignment",
		},
		Risk: domain.RiskHigh,
		Impact: domain.ImpactAssessment{
			AffectedFacultyCount: len(analysis.AffectedFaculty),
			AffectedWeekCount:    len(analysis.AffectedWeeks),
			OverallScore:         0.25,
		},
	}
}

func checkStats(checks []domain.SafetyCheck) (ratio float64, failedSoft int) {
	if len(checks) == 0 {
		return 1, 0
	}
	passed := 0
	for _, c := range checks {
		if c.Passed {
			passed++
		} else if !c.Blocking {
			failedSoft++
		}
	}
	return float64(passed) / float64(len(checks)), failedSoft
}

// sortOptions orders by overall score descending with deterministic
// tie-breaks so repeated generation over unchanged data agrees.
func sortOptions(options []domain.ResolutionOption) {
	sort.SliceStable(options, func(i, j int) bool {
		if options[i].Impact.OverallScore != options[j].Impact.OverallScore {
			return options[i].Impact.OverallScore > options[j].Impact.OverallScore
		}
		if options[i].Strategy != options[j].Strategy {
			return options[i].Strategy < options[j].Strategy
		}
		return options[i].TargetFacultyID.String() < options[j].TargetFacultyID.String()
	})
}

func truncateOptions(options []domain.ResolutionOption, max int) []domain.ResolutionOption {
	if len(options) <= max {
		return options
	}
	return options[:max]
}
