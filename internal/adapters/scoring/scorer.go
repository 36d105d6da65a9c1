// Package scoring provides the built-in deterministic schedule scorer and
// compliance validator. Deployments with an external scoring service swap
// these out behind the same ports.
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

// loadCeiling is the per-faculty weekly assignment count treated as the
// saturation point for load scoring.
const loadCeiling = 10

// DefaultScorer scores a duty week on load balance and coverage spread.
// Identical inputs always produce identical scores.
type DefaultScorer struct{}

func NewDefaultScorer() *DefaultScorer { return &DefaultScorer{} }

func (s *DefaultScorer) Evaluate(_ context.Context, assignments []domain.DutyAssignment, weekStart time.Time) (ports.ScheduleScore, error) {
	if len(assignments) == 0 {
		return ports.ScheduleScore{
			Score:      0,
			Violations: []string{fmt.Sprintf("no duty coverage in week of %s", weekStart.UTC().Format("2006-01-02"))},
		}, nil
	}

	loads := make(map[uuid.UUID]int)
	days := make(map[string]bool)
	for _, a := range assignments {
		loads[a.FacultyID]++
		days[a.Date.UTC().Format("2006-01-02")] = true
	}

	var violations []string
	maxLoad := 0
	minLoad := len(assignments)
	for _, id := range sortedFacultyIDs(loads) {
		n := loads[id]
		if n > maxLoad {
			maxLoad = n
		}
		if n < minLoad {
			minLoad = n
		}
		if n > loadCeiling {
			violations = append(violations, fmt.Sprintf("faculty %s carries %d assignments in one week", id, n))
		}
	}

	balance := 1.0
	if maxLoad > 0 {
		balance = float64(minLoad) / float64(maxLoad)
	}
	coverage := float64(len(days)) / 7.0
	if coverage > 1 {
		coverage = 1
	}

	score := 0.6*balance + 0.4*coverage
	score -= 0.1 * float64(len(violations))
	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}
	return ports.ScheduleScore{Score: score, Violations: violations}, nil
}

func sortedFacultyIDs(loads map[uuid.UUID]int) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(loads))
	for id := range loads {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	return ids
}
