package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// SwapType is the closed set of supported swap shapes.
// Unknown values are rejected at the boundary via ParseSwapType.
type SwapType string

const (
	// SwapOneToOne exchanges an entire week's assignments between two faculty.
	// Both source and target weeks are required.
	SwapOneToOne SwapType = "ONE_TO_ONE"
	// SwapAbsorb transfers a week's assignments one way with no reciprocal
	// transfer. Only the source week is required.
	SwapAbsorb SwapType = "ABSORB"
)

// ParseSwapType validates an externally supplied swap type string.
func ParseSwapType(raw string) (SwapType, error) {
	switch SwapType(strings.ToUpper(strings.TrimSpace(raw))) {
	case SwapOneToOne:
		return SwapOneToOne, nil
	case SwapAbsorb:
		return SwapAbsorb, nil
	default:
		return "", fmt.Errorf("%w: unknown swap type %q", ErrInvalidInput, raw)
	}
}

// SwapStatus is the transaction lifecycle of a swap record.
type SwapStatus string

const (
	SwapStatusPending    SwapStatus = "PENDING"
	SwapStatusExecuted   SwapStatus = "EXECUTED"
	SwapStatusRolledBack SwapStatus = "ROLLED_BACK"
	SwapStatusFailed     SwapStatus = "FAILED"
)

// Terminal reports whether the status admits no further transition.
func (s SwapStatus) Terminal() bool {
	return s == SwapStatusRolledBack || s == SwapStatusFailed
}

// CanTransitionTo encodes the only legal moves:
// PENDING->EXECUTED, PENDING->FAILED, EXECUTED->ROLLED_BACK.
func (s SwapStatus) CanTransitionTo(next SwapStatus) bool {
	switch s {
	case SwapStatusPending:
		return next == SwapStatusExecuted || next == SwapStatusFailed
	case SwapStatusExecuted:
		return next == SwapStatusRolledBack
	default:
		return false
	}
}

// RollbackWindow is how long after execution a swap stays reversible.
const RollbackWindow = 24 * time.Hour

// SwapRecord is the persisted, append-mostly transaction record of one swap.
// It is written in PENDING state before any assignment mutation so the
// intended transformation stays recoverable if execution fails partway.
type SwapRecord struct {
	SwapID          uuid.UUID
	SourceFacultyID uuid.UUID
	SourceWeek      *time.Time
	TargetFacultyID uuid.UUID
	TargetWeek      *time.Time
	Type            SwapType
	Status          SwapStatus
	Reason          string
	ExecutedBy      uuid.UUID
	ExecutedAt      *time.Time
	FailureReason   string
	RollbackReason  string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// RollbackEligibleAt reports whether the record may be rolled back at the
// given instant. Elapsed time is computed lazily from the stored execution
// timestamp; there is no background sweep.
func (r SwapRecord) RollbackEligibleAt(now time.Time) bool {
	if r.Status != SwapStatusExecuted || r.ExecutedAt == nil {
		return false
	}
	return !now.UTC().After(r.ExecutedAt.UTC().Add(RollbackWindow))
}
