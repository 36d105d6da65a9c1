package ports

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rosterforge/conflict-resolution-service/internal/domain"
)

// WeekLockStore hands out exclusive leases on (faculty, week) pairs so two
// service instances cannot mutate the same duty week concurrently. Leases are
// advisory across processes; row locks inside the storage transaction remain
// the final guard.
type WeekLockStore interface {
	// Acquire returns a release token and whether the lease was obtained.
	Acquire(ctx context.Context, facultyID uuid.UUID, weekStart time.Time, ttl time.Duration) (string, bool, error)
	// Release frees the lease only when the token still matches, so an
	// expired holder cannot release a successor's lease.
	Release(ctx context.Context, facultyID uuid.UUID, weekStart time.Time, token string) error
}

// OptionCache stores generated resolution options keyed by conflict and
// schedule data version. A lookup with a newer version is a miss, which is
// what invalidates the cache on data change rather than by elapsed time.
type OptionCache interface {
	Get(ctx context.Context, conflictID uuid.UUID, version string) ([]domain.ResolutionOption, bool, error)
	Put(ctx context.Context, conflictID uuid.UUID, version string, options []domain.ResolutionOption, ttl time.Duration) error
	Invalidate(ctx context.Context, conflictID uuid.UUID) error
}
