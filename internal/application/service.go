package application

import (
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/rosterforge/conflict-resolution-service/internal/domain"
	"github.com/rosterforge/conflict-resolution-service/internal/ports"
)

// Config holds the resolution-engine tunables resolved at bootstrap.
type Config struct {
	MaxOptions         int
	OptionCacheTTL     time.Duration
	WeekLockTTL        time.Duration
	RollbackWindow     time.Duration
	DefaultRiskCeiling domain.RiskLevel
	BatchConcurrency   int
}

func (c Config) withDefaults() Config {
	if c.MaxOptions <= 0 {
		c.MaxOptions = 5
	}
	if c.OptionCacheTTL <= 0 {
		c.OptionCacheTTL = 10 * time.Minute
	}
	if c.WeekLockTTL <= 0 {
		c.WeekLockTTL = 30 * time.Second
	}
	if c.RollbackWindow <= 0 {
		c.RollbackWindow = domain.RollbackWindow
	}
	if c.DefaultRiskCeiling == "" {
		c.DefaultRiskCeiling = domain.RiskLow
	}
	if c.BatchConcurrency <= 0 {
		c.BatchConcurrency = 4
	}
	return c
}

type Service struct {
	cfg         Config
	conflicts   ports.ConflictRepository
	faculty     ports.FacultyRepository
	assignments ports.AssignmentRepository
	swaps       ports.SwapRepository
	outbox      ports.OutboxRepository
	scorer      ports.ScheduleScorer
	compliance  ports.ComplianceValidator
	locks       ports.WeekLockStore
	optionCache ports.OptionCache
	logger      *slog.Logger
	nowFn       func() time.Time
}

type Dependencies struct {
	Config      Config
	Conflicts   ports.ConflictRepository
	Faculty     ports.FacultyRepository
	Assignments ports.AssignmentRepository
	Swaps       ports.SwapRepository
	Outbox      ports.OutboxRepository
	Scorer      ports.ScheduleScorer
	Compliance  ports.ComplianceValidator
	Locks       ports.WeekLockStore
	OptionCache ports.OptionCache
	Logger      *slog.Logger
}

func NewService(deps Dependencies) *Service {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		cfg:         deps.Config.withDefaults(),
		conflicts:   deps.Conflicts,
		faculty:     deps.Faculty,
		assignments: deps.Assignments,
		swaps:       deps.Swaps,
		outbox:      deps.Outbox,
		scorer:      deps.Scorer,
		compliance:  deps.Compliance,
		locks:       deps.Locks,
		optionCache: deps.OptionCache,
		logger:      logger.With("module", "resolution", "layer", "application"),
		nowFn:       func() time.Time { return time.Now().UTC() },
	}
}

// weekPair identifies one (faculty, week) locking unit inside a batch or swap.
type weekPair struct {
	facultyID uuid.UUID
	weekStart time.Time
}

func pairKey(facultyID uuid.UUID, weekStart time.Time) string {
	return facultyID.String() + "|" + weekStart.UTC().Format("2006-01-02")
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func dedupPairs(pairs []weekPair) []weekPair {
	seen := make(map[string]struct{}, len(pairs))
	out := make([]weekPair, 0, len(pairs))
	for _, p := range pairs {
		key := pairKey(p.facultyID, p.weekStart)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, p)
	}
	return out
}
