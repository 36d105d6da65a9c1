package unit

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rosterforge/conflict-resolution-service/internal/application"
	"github.com/rosterforge/conflict-resolution-service/internal/domain"
	"github.com/rosterforge/conflict-resolution-service/internal/ports"
)

func newFixture() *fixture {
	return newFixtureWithConfig(defaultTestConfig())
}

func defaultTestConfig() application.Config {
	return application.Config{
		MaxOptions:         5,
		OptionCacheTTL:     10 * time.Minute,
		WeekLockTTL:        30 * time.Second,
		RollbackWindow:     24 * time.Hour,
		DefaultRiskCeiling: domain.RiskLow,
		BatchConcurrency:   4,
	}
}

func newFixtureWithConfig(cfg application.Config) *fixture {
	conflicts := &fakeConflicts{byID: map[uuid.UUID]domain.ConflictAlert{}}
	faculty := &fakeFaculty{byID: map[uuid.UUID]domain.Faculty{}}
	assignments := &fakeAssignments{}
	outbox := &fakeOutbox{}
	swaps := &fakeSwaps{
		byID:        map[uuid.UUID]domain.SwapRecord{},
		assignments: assignments,
		outbox:      outbox,
	}
	locks := &fakeLocks{held: map[string]string{}}
	cache := &fakeOptionCache{entries: map[uuid.UUID]cacheEntry{}}
	compliance := &fakeCompliance{}

	svc := application.NewService(application.Dependencies{
		Config:      cfg,
		Conflicts:   conflicts,
		Faculty:     faculty,
		Assignments: assignments,
		Swaps:       swaps,
		Outbox:      outbox,
		Scorer:      &fakeScorer{},
		Compliance:  compliance,
		Locks:       locks,
		OptionCache: cache,
		Logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	})

	return &fixture{
		service:     svc,
		conflicts:   conflicts,
		faculty:     faculty,
		assignments: assignments,
		swaps:       swaps,
		outbox:      outbox,
		locks:       locks,
		cache:       cache,
		compliance:  compliance,
	}
}

type fixture struct {
	service     *application.Service
	conflicts   *fakeConflicts
	faculty     *fakeFaculty
	assignments *fakeAssignments
	swaps       *fakeSwaps
	outbox      *fakeOutbox
	locks       *fakeLocks
	cache       *fakeOptionCache
	compliance  *fakeCompliance
}

// mondayWeek is a fixed Monday 00:00 UTC used as the default conflict week.
var mondayWeek = time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

func (f *fixture) addFaculty(name string, active bool, credentials ...string) uuid.UUID {
	id := uuid.New()
	f.faculty.byID[id] = domain.Faculty{
		FacultyID:   id,
		Name:        name,
		Credentials: credentials,
		Active:      active,
	}
	return id
}

func (f *fixture) addDuty(facultyID uuid.UUID, week time.Time, dayOffset int, credential string) uuid.UUID {
	id := uuid.New()
	f.assignments.mu.Lock()
	defer f.assignments.mu.Unlock()
	f.assignments.duties = append(f.assignments.duties, domain.DutyAssignment{
		AssignmentID: id,
		FacultyID:    facultyID,
		WeekStart:    week,
		Date:         week.AddDate(0, 0, dayOffset),
		Slot:         "DAY",
		Credential:   credential,
	})
	f.assignments.version++
	return id
}

func (f *fixture) addCall(facultyID uuid.UUID, week time.Time, dayOffset int) uuid.UUID {
	id := uuid.New()
	f.assignments.mu.Lock()
	defer f.assignments.mu.Unlock()
	f.assignments.calls = append(f.assignments.calls, domain.CallAssignment{
		CallID:    id,
		FacultyID: facultyID,
		Date:      week.AddDate(0, 0, dayOffset),
	})
	f.assignments.version++
	return id
}

func (f *fixture) addConflict(facultyID uuid.UUID, conflictType domain.ConflictType, week time.Time) uuid.UUID {
	id := uuid.New()
	f.conflicts.byID[id] = domain.ConflictAlert{
		ConflictID: id,
		FacultyID:  facultyID,
		Type:       conflictType,
		Severity:   domain.SeverityWarning,
		WeekStart:  week,
		Status:     domain.ConflictStatusNew,
		Message:    "seeded conflict",
		CreatedAt:  week.AddDate(0, 0, -7),
	}
	return id
}

func (f *fixture) dutyOwner(assignmentID uuid.UUID) uuid.UUID {
	f.assignments.mu.Lock()
	defer f.assignments.mu.Unlock()
	for _, d := range f.assignments.duties {
		if d.AssignmentID == assignmentID {
			return d.FacultyID
		}
	}
	return uuid.Nil
}

func (f *fixture) callOwner(callID uuid.UUID) uuid.UUID {
	f.assignments.mu.Lock()
	defer f.assignments.mu.Unlock()
	for _, c := range f.assignments.calls {
		if c.CallID == callID {
			return c.FacultyID
		}
	}
	return uuid.Nil
}

type fakeConflicts struct {
	mu   sync.Mutex
	byID map[uuid.UUID]domain.ConflictAlert
}

func (f *fakeConflicts) Get(_ context.Context, conflictID uuid.UUID) (domain.ConflictAlert, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	alert, ok := f.byID[conflictID]
	if !ok {
		return domain.ConflictAlert{}, domain.ErrConflictNotFound
	}
	return alert, nil
}

func (f *fakeConflicts) Save(_ context.Context, alert domain.ConflictAlert) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byID[alert.ConflictID] = alert
	return nil
}

func (f *fakeConflicts) MarkResolved(_ context.Context, conflictID uuid.UUID, _ time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	alert, ok := f.byID[conflictID]
	if !ok {
		return domain.ErrConflictNotFound
	}
	if alert.Status.Terminal() {
		return domain.ErrAlreadyResolved
	}
	alert.Status = domain.ConflictStatusResolved
	f.byID[conflictID] = alert
	return nil
}

type fakeFaculty struct {
	mu   sync.Mutex
	byID map[uuid.UUID]domain.Faculty
}

func (f *fakeFaculty) Get(_ context.Context, facultyID uuid.UUID) (domain.Faculty, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	person, ok := f.byID[facultyID]
	if !ok {
		return domain.Faculty{}, domain.ErrFacultyNotFound
	}
	return person, nil
}

func (f *fakeFaculty) ListEligible(_ context.Context, credentials []string, exclude []uuid.UUID) ([]domain.Faculty, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	excluded := map[uuid.UUID]struct{}{}
	for _, id := range exclude {
		excluded[id] = struct{}{}
	}
	var out []domain.Faculty
	for _, person := range f.byID {
		if !person.Active {
			continue
		}
		if _, skip := excluded[person.FacultyID]; skip {
			continue
		}
		qualified := true
		for _, c := range credentials {
			if !person.HasCredential(c) {
				qualified = false
				break
			}
		}
		if qualified {
			out = append(out, person)
		}
	}
	// Deterministic order, mirroring the repository contract.
	for i := 0; i < len(out); i++ {
		for j := i + 1; j < len(out); j++ {
			if out[j].FacultyID.String() < out[i].FacultyID.String() {
				out[i], out[j] = out[j], out[i]
			}
		}
	}
	return out, nil
}

type fakeAssignments struct {
	mu      sync.Mutex
	duties  []domain.DutyAssignment
	calls   []domain.CallAssignment
	version int
}

func (f *fakeAssignments) ListDutyAssignments(_ context.Context, facultyID uuid.UUID, weekStart time.Time) ([]domain.DutyAssignment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	week := domain.WeekOf(weekStart)
	var out []domain.DutyAssignment
	for _, d := range f.duties {
		if d.FacultyID == facultyID && domain.WeekOf(d.WeekStart).Equal(week) {
			out = append(out, d)
		}
	}
	return out, nil
}

func (f *fakeAssignments) ListDutyAssignmentsForWeek(_ context.Context, weekStart time.Time) ([]domain.DutyAssignment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	week := domain.WeekOf(weekStart)
	var out []domain.DutyAssignment
	for _, d := range f.duties {
		if domain.WeekOf(d.WeekStart).Equal(week) {
			out = append(out, d)
		}
	}
	return out, nil
}

func (f *fakeAssignments) ListCallAssignments(_ context.Context, facultyID uuid.UUID, weekStart time.Time) ([]domain.CallAssignment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	week := domain.WeekOf(weekStart)
	var out []domain.CallAssignment
	for _, c := range f.calls {
		if c.FacultyID == facultyID && c.WeekStart().Equal(week) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeAssignments) ListCallAssignmentsForWeek(_ context.Context, weekStart time.Time) ([]domain.CallAssignment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	week := domain.WeekOf(weekStart)
	var out []domain.CallAssignment
	for _, c := range f.calls {
		if c.WeekStart().Equal(week) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeAssignments) ScheduleVersion(_ context.Context, _ []time.Time) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return fmt.Sprintf("v%d", f.version), nil
}

// applyTransfers reassigns duty and call rows for every transfer. Row
// identities are snapshotted first so two transfers inside the same week do
// not re-move rows the other transfer just reassigned, mirroring the
// two-phase update the real repository performs.
func (f *fakeAssignments) applyTransfers(transfers []ports.WeekTransfer) {
	f.mu.Lock()
	defer f.mu.Unlock()
	type plan struct {
		to      uuid.UUID
		dutyIdx []int
		callIdx []int
	}
	plans := make([]plan, 0, len(transfers))
	for _, t := range transfers {
		week := domain.WeekOf(t.WeekStart)
		p := plan{to: t.ToFacultyID}
		for i, d := range f.duties {
			if d.FacultyID == t.FromFacultyID && domain.WeekOf(d.WeekStart).Equal(week) {
				p.dutyIdx = append(p.dutyIdx, i)
			}
		}
		for i, c := range f.calls {
			if c.FacultyID == t.FromFacultyID && c.WeekStart().Equal(week) {
				p.callIdx = append(p.callIdx, i)
			}
		}
		plans = append(plans, p)
	}
	for _, p := range plans {
		for _, i := range p.dutyIdx {
			f.duties[i].FacultyID = p.to
		}
		for _, i := range p.callIdx {
			f.calls[i].FacultyID = p.to
		}
	}
	f.version++
}

type fakeSwaps struct {
	mu          sync.Mutex
	byID        map[uuid.UUID]domain.SwapRecord
	assignments *fakeAssignments
	outbox      *fakeOutbox
}

func (f *fakeSwaps) Create(_ context.Context, record domain.SwapRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.byID[record.SwapID]; exists {
		return domain.ErrInvalidInput
	}
	f.byID[record.SwapID] = record
	return nil
}

func (f *fakeSwaps) Get(_ context.Context, swapID uuid.UUID) (domain.SwapRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	record, ok := f.byID[swapID]
	if !ok {
		return domain.SwapRecord{}, domain.ErrSwapNotFound
	}
	return record, nil
}

func (f *fakeSwaps) ExecuteTx(ctx context.Context, swapID uuid.UUID, transfers []ports.WeekTransfer, executedAt time.Time, event ports.OutboxEvent) error {
	f.mu.Lock()
	record, ok := f.byID[swapID]
	if !ok {
		f.mu.Unlock()
		return domain.ErrSwapNotFound
	}
	if !record.Status.CanTransitionTo(domain.SwapStatusExecuted) {
		f.mu.Unlock()
		return domain.ErrInvalidSwapStatus
	}
	record.Status = domain.SwapStatusExecuted
	record.ExecutedAt = &executedAt
	record.UpdatedAt = executedAt
	f.byID[swapID] = record
	f.mu.Unlock()

	f.assignments.applyTransfers(transfers)
	return f.outbox.Enqueue(ctx, event)
}

func (f *fakeSwaps) RollbackTx(ctx context.Context, swapID uuid.UUID, transfers []ports.WeekTransfer, reason string, rolledBackAt time.Time, event ports.OutboxEvent) error {
	f.mu.Lock()
	record, ok := f.byID[swapID]
	if !ok {
		f.mu.Unlock()
		return domain.ErrSwapNotFound
	}
	if !record.Status.CanTransitionTo(domain.SwapStatusRolledBack) {
		f.mu.Unlock()
		return domain.ErrInvalidSwapStatus
	}
	record.Status = domain.SwapStatusRolledBack
	record.RollbackReason = reason
	record.UpdatedAt = rolledBackAt
	f.byID[swapID] = record
	f.mu.Unlock()

	f.assignments.applyTransfers(transfers)
	return f.outbox.Enqueue(ctx, event)
}

func (f *fakeSwaps) MarkFailed(ctx context.Context, swapID uuid.UUID, failureReason string, failedAt time.Time, event ports.OutboxEvent) error {
	f.mu.Lock()
	record, ok := f.byID[swapID]
	if !ok {
		f.mu.Unlock()
		return domain.ErrSwapNotFound
	}
	if !record.Status.CanTransitionTo(domain.SwapStatusFailed) {
		f.mu.Unlock()
		return domain.ErrInvalidSwapStatus
	}
	record.Status = domain.SwapStatusFailed
	record.FailureReason = failureReason
	record.UpdatedAt = failedAt
	f.byID[swapID] = record
	f.mu.Unlock()

	return f.outbox.Enqueue(ctx, event)
}

func (f *fakeSwaps) AnyInFlightTouching(_ context.Context, facultyIDs []uuid.UUID, weeks []time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	people := map[uuid.UUID]struct{}{}
	for _, id := range facultyIDs {
		people[id] = struct{}{}
	}
	for _, record := range f.byID {
		if record.Status != domain.SwapStatusPending {
			continue
		}
		if _, hit := people[record.SourceFacultyID]; hit {
			return true, nil
		}
		if _, hit := people[record.TargetFacultyID]; hit {
			return true, nil
		}
		for _, w := range weeks {
			week := domain.WeekOf(w)
			if record.SourceWeek != nil && week.Equal(domain.WeekOf(*record.SourceWeek)) {
				return true, nil
			}
			if record.TargetWeek != nil && week.Equal(domain.WeekOf(*record.TargetWeek)) {
				return true, nil
			}
		}
	}
	return false, nil
}

// put stores a record verbatim, bypassing lifecycle guards, for tests that
// need a swap in an arbitrary starting state.
func (f *fakeSwaps) put(record domain.SwapRecord) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byID[record.SwapID] = record
}

type fakeOutbox struct {
	mu     sync.Mutex
	events []ports.OutboxEvent
}

func (f *fakeOutbox) Enqueue(_ context.Context, event ports.OutboxEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
	return nil
}

func (f *fakeOutbox) ClaimUnpublished(context.Context, int, string, time.Time) ([]ports.OutboxRecord, error) {
	return nil, nil
}

func (f *fakeOutbox) MarkPublished(context.Context, uuid.UUID, string, time.Time) error { return nil }

func (f *fakeOutbox) MarkFailed(context.Context, uuid.UUID, string, string, time.Time) error {
	return nil
}

func (f *fakeOutbox) MarkDeadLettered(context.Context, uuid.UUID, string, string, time.Time) error {
	return nil
}

func (f *fakeOutbox) lastEventType() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.events) == 0 {
		return ""
	}
	return f.events[len(f.events)-1].EventType
}

type fakeLocks struct {
	mu   sync.Mutex
	held map[string]string
}

func lockKey(facultyID uuid.UUID, weekStart time.Time) string {
	return facultyID.String() + "|" + weekStart.UTC().Format("2006-01-02")
}

func (f *fakeLocks) Acquire(_ context.Context, facultyID uuid.UUID, weekStart time.Time, _ time.Duration) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := lockKey(facultyID, weekStart)
	if _, taken := f.held[key]; taken {
		return "", false, nil
	}
	token := uuid.NewString()
	f.held[key] = token
	return token, true, nil
}

func (f *fakeLocks) Release(_ context.Context, facultyID uuid.UUID, weekStart time.Time, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := lockKey(facultyID, weekStart)
	if f.held[key] == token {
		delete(f.held, key)
	}
	return nil
}

// hold seizes a lease externally so Acquire contends against it.
func (f *fakeLocks) hold(facultyID uuid.UUID, weekStart time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.held[lockKey(facultyID, weekStart)] = "external"
}

type cacheEntry struct {
	version string
	options []domain.ResolutionOption
}

type fakeOptionCache struct {
	mu      sync.Mutex
	entries map[uuid.UUID]cacheEntry
	hits    int
	puts    int
}

func (f *fakeOptionCache) Get(_ context.Context, conflictID uuid.UUID, version string) ([]domain.ResolutionOption, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	entry, ok := f.entries[conflictID]
	if !ok || entry.version != version {
		return nil, false, nil
	}
	f.hits++
	return entry.options, true, nil
}

func (f *fakeOptionCache) Put(_ context.Context, conflictID uuid.UUID, version string, options []domain.ResolutionOption, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries[conflictID] = cacheEntry{version: version, options: options}
	f.puts++
	return nil
}

func (f *fakeOptionCache) Invalidate(_ context.Context, conflictID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.entries, conflictID)
	return nil
}

type fakeScorer struct{}

func (fakeScorer) Evaluate(_ context.Context, assignments []domain.DutyAssignment, _ time.Time) (ports.ScheduleScore, error) {
	if len(assignments) == 0 {
		return ports.ScheduleScore{Score: 0}, nil
	}
	return ports.ScheduleScore{Score: 0.7}, nil
}

type fakeCompliance struct {
	mu         sync.Mutex
	violations []ports.ComplianceViolation
}

func (f *fakeCompliance) Validate(_ context.Context, _ []domain.DutyAssignment, _ time.Time) ([]ports.ComplianceViolation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.violations, nil
}

func (f *fakeCompliance) setViolations(v []ports.ComplianceViolation) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.violations = v
}
