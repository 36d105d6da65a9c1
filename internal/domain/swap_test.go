package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestSwapStatusTransitions(t *testing.T) {
	t.Parallel()

	cases := []struct {
		from    SwapStatus
		to      SwapStatus
		allowed bool
	}{
		{SwapStatusPending, SwapStatusExecuted, true},
		{SwapStatusPending, SwapStatusFailed, true},
		{SwapStatusPending, SwapStatusRolledBack, false},
		{SwapStatusExecuted, SwapStatusRolledBack, true},
		{SwapStatusExecuted, SwapStatusFailed, false},
		{SwapStatusExecuted, SwapStatusPending, false},
		{SwapStatusRolledBack, SwapStatusExecuted, false},
		{SwapStatusFailed, SwapStatusExecuted, false},
		{SwapStatusFailed, SwapStatusPending, false},
	}
	for _, tc := range cases {
		if got := tc.from.CanTransitionTo(tc.to); got != tc.allowed {
			t.Fatalf("%s -> %s: expected %v, got %v", tc.from, tc.to, tc.allowed, got)
		}
	}
}

func TestSwapStatusTerminal(t *testing.T) {
	t.Parallel()

	if SwapStatusPending.Terminal() || SwapStatusExecuted.Terminal() {
		t.Fatalf("pending and executed must not be terminal")
	}
	if !SwapStatusRolledBack.Terminal() || !SwapStatusFailed.Terminal() {
		t.Fatalf("rolled back and failed must be terminal")
	}
}

func TestParseSwapType(t *testing.T) {
	t.Parallel()

	if got, err := ParseSwapType("one_to_one"); err != nil || got != SwapOneToOne {
		t.Fatalf("lowercase one_to_one should parse, got %v %v", got, err)
	}
	if got, err := ParseSwapType("  ABSORB  "); err != nil || got != SwapAbsorb {
		t.Fatalf("padded ABSORB should parse, got %v %v", got, err)
	}
	if _, err := ParseSwapType("sideways"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("unknown swap type should wrap ErrInvalidInput, got %v", err)
	}
}

func TestRollbackEligibleAtWindowBoundary(t *testing.T) {
	t.Parallel()

	executedAt := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	record := SwapRecord{
		SwapID:     uuid.New(),
		Status:     SwapStatusExecuted,
		ExecutedAt: &executedAt,
	}

	if !record.RollbackEligibleAt(executedAt.Add(RollbackWindow)) {
		t.Fatalf("exactly 24h after execution must still be eligible")
	}
	if record.RollbackEligibleAt(executedAt.Add(RollbackWindow + time.Second)) {
		t.Fatalf("24h and one second after execution must not be eligible")
	}

	// Non-UTC callers normalize to the same instant.
	est := time.FixedZone("EST", -5*3600)
	if !record.RollbackEligibleAt(executedAt.Add(RollbackWindow).In(est)) {
		t.Fatalf("eligibility must not depend on the caller's timezone")
	}
}

func TestRollbackEligibleAtRequiresExecutedStatus(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	executedAt := now.Add(-time.Hour)

	pending := SwapRecord{Status: SwapStatusPending, ExecutedAt: &executedAt}
	if pending.RollbackEligibleAt(now) {
		t.Fatalf("pending swap must not be rollback eligible")
	}
	missing := SwapRecord{Status: SwapStatusExecuted}
	if missing.RollbackEligibleAt(now) {
		t.Fatalf("executed swap without a timestamp must not be rollback eligible")
	}
}
