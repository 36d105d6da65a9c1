package ports

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rosterforge/conflict-resolution-service/internal/domain"
)

// ConflictRepository owns ConflictAlert persistence. This service only reads
// alerts and flips their status to RESOLVED; creation belongs to the detector.
type ConflictRepository interface {
	Get(ctx context.Context, conflictID uuid.UUID) (domain.ConflictAlert, error)
	Save(ctx context.Context, alert domain.ConflictAlert) error
	MarkResolved(ctx context.Context, conflictID uuid.UUID, resolvedAt time.Time) error
}

// FacultyRepository resolves faculty identities and eligibility.
type FacultyRepository interface {
	Get(ctx context.Context, facultyID uuid.UUID) (domain.Faculty, error)
	// ListEligible returns active faculty holding all required credentials,
	// excluding the given identities. Order must be deterministic so repeated
	// analyses of unchanged data agree.
	ListEligible(ctx context.Context, credentials []string, exclude []uuid.UUID) ([]domain.Faculty, error)
}

// WeekTransfer is one directional reassignment of a faculty's whole duty week.
// It is the single mutation primitive shared by execution and rollback: call
// assignments inside the week follow the same from->to mapping.
type WeekTransfer struct {
	FromFacultyID uuid.UUID
	ToFacultyID   uuid.UUID
	WeekStart     time.Time
}

// AssignmentRepository reads duty/call assignment state and reports a version
// of the underlying schedule data so caches can invalidate on change rather
// than by elapsed time.
type AssignmentRepository interface {
	ListDutyAssignments(ctx context.Context, facultyID uuid.UUID, weekStart time.Time) ([]domain.DutyAssignment, error)
	ListDutyAssignmentsForWeek(ctx context.Context, weekStart time.Time) ([]domain.DutyAssignment, error)
	ListCallAssignments(ctx context.Context, facultyID uuid.UUID, weekStart time.Time) ([]domain.CallAssignment, error)
	ListCallAssignmentsForWeek(ctx context.Context, weekStart time.Time) ([]domain.CallAssignment, error)
	// ScheduleVersion returns an opaque token that changes whenever any duty
	// or call assignment inside the given weeks changes.
	ScheduleVersion(ctx context.Context, weeks []time.Time) (string, error)
}

// SwapRepository owns the SwapRecord transaction log and the atomic mutation
// methods that move it through its lifecycle. ExecuteTx and RollbackTx apply
// every assignment transfer, the status transition and the audit outbox entry
// inside one storage transaction with exclusive row locks, so no concurrent
// swap or rollback can observe a half-updated week.
type SwapRepository interface {
	Create(ctx context.Context, record domain.SwapRecord) error
	Get(ctx context.Context, swapID uuid.UUID) (domain.SwapRecord, error)
	ExecuteTx(ctx context.Context, swapID uuid.UUID, transfers []WeekTransfer, executedAt time.Time, event OutboxEvent) error
	RollbackTx(ctx context.Context, swapID uuid.UUID, transfers []WeekTransfer, reason string, rolledBackAt time.Time, event OutboxEvent) error
	MarkFailed(ctx context.Context, swapID uuid.UUID, failureReason string, failedAt time.Time, event OutboxEvent) error
	// AnyInFlightTouching reports whether a PENDING swap already references
	// any of the given faculty or weeks.
	AnyInFlightTouching(ctx context.Context, facultyIDs []uuid.UUID, weeks []time.Time) (bool, error)
}

// OutboxEvent is the write-side audit payload prior to storage.
// It is adapter-neutral to keep application code independent of broker specifics.
type OutboxEvent struct {
	EventID      uuid.UUID
	EventType    string
	PartitionKey string
	Payload      []byte
	OccurredAt   time.Time
}

// OutboxRecord represents durable outbox state, including retry/error metadata.
type OutboxRecord struct {
	OutboxID       uuid.UUID
	EventType      string
	PartitionKey   string
	Payload        []byte
	RetryCount     int
	LastError      *string
	CreatedAt      time.Time
	PublishedAt    *time.Time
	LastErrorAt    *time.Time
	ClaimToken     *string
	ClaimUntil     *time.Time
	DeadLetteredAt *time.Time
}

// OutboxRepository controls publish-retry workflow for audit events.
// The explicit contract enables the transactional outbox pattern without
// leaking DB details into the worker.
type OutboxRepository interface {
	Enqueue(ctx context.Context, event OutboxEvent) error
	ClaimUnpublished(ctx context.Context, limit int, claimToken string, claimUntil time.Time) ([]OutboxRecord, error)
	MarkPublished(ctx context.Context, outboxID uuid.UUID, claimToken string, at time.Time) error
	MarkFailed(ctx context.Context, outboxID uuid.UUID, claimToken, errMsg string, at time.Time) error
	MarkDeadLettered(ctx context.Context, outboxID uuid.UUID, claimToken, errMsg string, at time.Time) error
}
