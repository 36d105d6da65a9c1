package application

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rosterforge/conflict-resolution-service/internal/domain"
	"github.com/rosterforge/conflict-resolution-service/internal/ports"
)

// GetSwap returns one swap record for audit and approval screens.
func (s *Service) GetSwap(ctx context.Context, swapID uuid.UUID) (domain.SwapRecord, error) {
	return s.swaps.Get(ctx, swapID)
}

// CanRollback reports whether the swap exists, is EXECUTED, and still sits
// inside the rollback window. The window is evaluated lazily against the
// stored execution timestamp; nothing sweeps records in the background.
func (s *Service) CanRollback(ctx context.Context, swapID uuid.UUID) (bool, error) {
	record, err := s.swaps.Get(ctx, swapID)
	if err != nil {
		if errors.Is(err, domain.ErrSwapNotFound) {
			return false, nil
		}
		return false, err
	}
	return s.rollbackEligible(record), nil
}

func (s *Service) rollbackEligible(record domain.SwapRecord) bool {
	if record.Status != domain.SwapStatusExecuted || record.ExecutedAt == nil {
		return false
	}
	return !s.nowFn().After(record.ExecutedAt.UTC().Add(s.cfg.RollbackWindow))
}

// RollbackSwap reverses a previously executed swap by applying the exact
// inverse transfers through the same mutation primitives as execution,
// including the call-duty cascade. The record becomes ROLLED_BACK, which is
// terminal: a fresh forward swap is required for any further change.
func (s *Service) RollbackSwap(ctx context.Context, swapID uuid.UUID, reason string) (RollbackResult, error) {
	started := s.nowFn()

	record, err := s.swaps.Get(ctx, swapID)
	if err != nil {
		if errors.Is(err, domain.ErrSwapNotFound) {
			return RollbackResult{
				SwapID:    swapID,
				ErrorCode: domain.CodeSwapNotFound,
				Message:   fmt.Sprintf("swap %s not found", swapID),
				Elapsed:   s.nowFn().Sub(started),
			}, nil
		}
		return RollbackResult{SwapID: swapID, ErrorCode: domain.CodePersistenceFailure, Message: err.Error()}, err
	}

	if record.Status != domain.SwapStatusExecuted {
		return RollbackResult{
			SwapID:    swapID,
			ErrorCode: domain.CodeInvalidStatus,
			Message:   fmt.Sprintf("swap is %s; only EXECUTED swaps can be rolled back", record.Status),
			Elapsed:   s.nowFn().Sub(started),
		}, nil
	}
	if !s.rollbackEligible(record) {
		return RollbackResult{
			SwapID:    swapID,
			ErrorCode: domain.CodeRollbackWindowExpired,
			Message:   fmt.Sprintf("rollback window of %s has expired", s.cfg.RollbackWindow),
			Elapsed:   s.nowFn().Sub(started),
		}, nil
	}

	release, ok, err := s.acquirePairs(ctx, swapPairs(record))
	if err != nil {
		return RollbackResult{SwapID: swapID, ErrorCode: domain.CodePersistenceFailure, Message: err.Error()}, err
	}
	if !ok {
		return RollbackResult{
			SwapID:    swapID,
			ErrorCode: domain.CodeWeekLocked,
			Message:   "a concurrent change holds a lease on an affected week",
			Elapsed:   s.nowFn().Sub(started),
		}, nil
	}
	defer release()

	now := s.nowFn()
	record.RollbackReason = reason
	event := s.swapEvent("swap.rolled_back", record, now, "")
	if err := s.swaps.RollbackTx(ctx, record.SwapID, inverseTransfers(record), reason, now, event); err != nil {
		return RollbackResult{
			SwapID:    swapID,
			ErrorCode: domain.CodeForError(err),
			Message:   "apply rollback mutations: " + err.Error(),
			Elapsed:   s.nowFn().Sub(started),
		}, err
	}

	s.logger.InfoContext(ctx, "swap rolled back",
		"operation", "rollback_swap",
		"outcome", "success",
		"swap_id", record.SwapID,
		"reason", reason,
	)
	return RollbackResult{
		Success: true,
		SwapID:  record.SwapID,
		Message: "swap rolled back",
		Elapsed: s.nowFn().Sub(started),
	}, nil
}

// inverseTransfers swaps source/target roles on every transfer of the
// original execution, restoring the prior ownership mapping.
func inverseTransfers(record domain.SwapRecord) []ports.WeekTransfer {
	forward := swapTransfers(record)
	inverse := make([]ports.WeekTransfer, 0, len(forward))
	for _, t := range forward {
		inverse = append(inverse, ports.WeekTransfer{
			FromFacultyID: t.ToFacultyID,
			ToFacultyID:   t.FromFacultyID,
			WeekStart:     t.WeekStart,
		})
	}
	return inverse
}
