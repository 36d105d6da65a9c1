package domain

import (
	"time"

	"github.com/google/uuid"
)

// Strategy identifies one resolution approach the option generator can
// materialize into concrete candidates.
type Strategy string

const (
	StrategyOneToOneSwap Strategy = "one_to_one_swap"
	StrategyAbsorb       Strategy = "absorb_reassignment"
	StrategyDeferToHuman Strategy = "defer_to_human"
)

// SafetyCheck is one independently evaluated precondition. Blocking checks
// that fail become blockers and rule out automatic resolution entirely;
// non-blocking failures only degrade option risk.
type SafetyCheck struct {
	Name     string
	Passed   bool
	Blocking bool
	Message  string
}

// ConflictAnalysis is the ephemeral result of inspecting one conflict.
// It is never persisted; identical schedule data yields identical analyses.
type ConflictAnalysis struct {
	ConflictID            uuid.UUID
	Type                  ConflictType
	Severity              ConflictSeverity
	RootCause             string
	AffectedFaculty       []uuid.UUID
	AffectedWeeks         []time.Time
	ComplexityScore       float64
	SafetyChecks          []SafetyCheck
	AllChecksPassed       bool
	HardConstraints       []string
	Blockers              []string
	RecommendedStrategies []Strategy
	EstimatedDuration     time.Duration
}

// RiskLevel is the coarse auto-apply safety classification of an option.
type RiskLevel string

const (
	RiskLow    RiskLevel = "LOW"
	RiskMedium RiskLevel = "MEDIUM"
	RiskHigh   RiskLevel = "HIGH"
)

// rank orders LOW < MEDIUM < HIGH. Unknown values rank above HIGH so they
// can never slip through a risk ceiling.
func (r RiskLevel) rank() int {
	switch r {
	case RiskLow:
		return 0
	case RiskMedium:
		return 1
	case RiskHigh:
		return 2
	default:
		return 3
	}
}

// AtMost reports whether r is no riskier than ceiling.
func (r RiskLevel) AtMost(ceiling RiskLevel) bool {
	return r.rank() <= ceiling.rank()
}

// ParseRiskLevel validates an externally supplied risk ceiling, defaulting
// to LOW when empty so callers must opt in to riskier auto-application.
func ParseRiskLevel(raw string) (RiskLevel, error) {
	switch RiskLevel(raw) {
	case "":
		return RiskLow, nil
	case RiskLow, RiskMedium, RiskHigh:
		return RiskLevel(raw), nil
	default:
		return "", ErrInvalidInput
	}
}

// ImpactAssessment quantifies the blast radius and desirability of an option.
// OverallScore lies in [0,1]; higher is better.
type ImpactAssessment struct {
	AffectedFacultyCount int
	AffectedWeekCount    int
	OverallScore         float64
}

// ResolutionOption is one concrete, executable fix for a conflict. The swap
// shape and weeks are resolved at generation time so execution needs no
// further planning.
type ResolutionOption struct {
	OptionID        uuid.UUID
	ConflictID      uuid.UUID
	Strategy        Strategy
	SwapType        SwapType
	SourceFacultyID uuid.UUID
	SourceWeek      time.Time
	TargetFacultyID uuid.UUID
	TargetWeek      *time.Time
	Title           string
	Description     string
	Steps           []string
	Risk            RiskLevel
	Impact          ImpactAssessment
}
