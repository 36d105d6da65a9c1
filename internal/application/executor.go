package application

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rosterforge/conflict-resolution-service/internal/domain"
	"github.com/rosterforge/conflict-resolution-service/internal/ports"
)

// ExecuteSwap atomically applies one swap: every duty assignment the source
// faculty holds in the source week moves to the target (and reciprocally for
// ONE_TO_ONE), with call duty inside each affected week following the same
// mapping. A SwapRecord is persisted PENDING before any mutation; the full
// mutation set either commits and the record becomes EXECUTED, or nothing is
// left partially applied and the record becomes FAILED.
//
// The returned error is non-nil only for storage-level failures; every
// expected outcome is carried in the result.
func (s *Service) ExecuteSwap(ctx context.Context, req ExecuteSwapRequest) (ExecutionResult, error) {
	started := s.nowFn()

	if req.Type != domain.SwapOneToOne && req.Type != domain.SwapAbsorb {
		return ExecutionResult{
			Status:    domain.SwapStatusFailed,
			ErrorCode: domain.CodeValidation,
			Message:   fmt.Sprintf("unknown swap type %q", req.Type),
		}, nil
	}
	if req.Type == domain.SwapOneToOne && req.TargetWeek == nil {
		return ExecutionResult{
			Status:    domain.SwapStatusFailed,
			ErrorCode: domain.CodeValidation,
			Message:   "ONE_TO_ONE swap requires a target week",
		}, nil
	}

	sourceWeek := domain.WeekOf(req.SourceWeek)
	var targetWeek *time.Time
	if req.TargetWeek != nil {
		tw := domain.WeekOf(*req.TargetWeek)
		targetWeek = &tw
	}

	now := s.nowFn()
	record := domain.SwapRecord{
		SwapID:          uuid.New(),
		SourceFacultyID: req.SourceFacultyID,
		SourceWeek:      &sourceWeek,
		TargetFacultyID: req.TargetFacultyID,
		TargetWeek:      targetWeek,
		Type:            req.Type,
		Status:          domain.SwapStatusPending,
		Reason:          req.Reason,
		ExecutedBy:      req.ExecutedBy,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.swaps.Create(ctx, record); err != nil {
		return ExecutionResult{
			Status:    domain.SwapStatusFailed,
			ErrorCode: domain.CodePersistenceFailure,
			Message:   "persist swap record: " + err.Error(),
		}, err
	}

	for _, id := range []uuid.UUID{req.SourceFacultyID, req.TargetFacultyID} {
		if _, err := s.faculty.Get(ctx, id); err != nil {
			msg := fmt.Sprintf("faculty %s not found", id)
			return s.failSwap(ctx, record, started, domain.CodeFacultyNotFound, msg)
		}
	}

	pairs := swapPairs(record)
	release, ok, err := s.acquirePairs(ctx, pairs)
	if err != nil {
		return s.failSwap(ctx, record, started, domain.CodePersistenceFailure, "acquire week lease: "+err.Error())
	}
	if !ok {
		return s.failSwap(ctx, record, started, domain.CodeWeekLocked, "a concurrent change holds a lease on an affected week")
	}
	defer release()

	executedAt := s.nowFn()
	event := s.swapEvent("swap.executed", record, executedAt, "")
	if err := s.swaps.ExecuteTx(ctx, record.SwapID, swapTransfers(record), executedAt, event); err != nil {
		return s.failSwap(ctx, record, started, domain.CodeForError(err), "apply swap mutations: "+err.Error())
	}

	s.logger.InfoContext(ctx, "swap executed",
		"operation", "execute_swap",
		"outcome", "success",
		"swap_id", record.SwapID,
		"swap_type", record.Type,
		"source_faculty_id", record.SourceFacultyID,
		"target_faculty_id", record.TargetFacultyID,
	)
	return ExecutionResult{
		Success: true,
		SwapID:  record.SwapID,
		Status:  domain.SwapStatusExecuted,
		Message: "swap executed",
		Elapsed: s.nowFn().Sub(started),
	}, nil
}

// failSwap finalizes the PENDING record as FAILED with the captured error and
// returns the matching result. The swap id stays referenceable for audit.
func (s *Service) failSwap(ctx context.Context, record domain.SwapRecord, started time.Time, code, msg string) (ExecutionResult, error) {
	now := s.nowFn()
	event := s.swapEvent("swap.failed", record, now, msg)
	if err := s.swaps.MarkFailed(ctx, record.SwapID, msg, now, event); err != nil {
		s.logger.ErrorContext(ctx, "mark swap failed",
			"operation", "execute_swap",
			"outcome", "failure",
			"swap_id", record.SwapID,
			"error", err,
		)
	}
	s.logger.WarnContext(ctx, "swap execution failed",
		"operation", "execute_swap",
		"outcome", "failure",
		"swap_id", record.SwapID,
		"error_code", code,
		"message", msg,
	)
	return ExecutionResult{
		SwapID:    record.SwapID,
		Status:    domain.SwapStatusFailed,
		ErrorCode: code,
		Message:   msg,
		Elapsed:   s.nowFn().Sub(started),
	}, nil
}

// swapTransfers expands a record into its week-transfer primitives. ABSORB is
// one directional transfer; ONE_TO_ONE adds the reciprocal one.
func swapTransfers(record domain.SwapRecord) []ports.WeekTransfer {
	transfers := []ports.WeekTransfer{{
		FromFacultyID: record.SourceFacultyID,
		ToFacultyID:   record.TargetFacultyID,
		WeekStart:     *record.SourceWeek,
	}}
	if record.Type == domain.SwapOneToOne {
		transfers = append(transfers, ports.WeekTransfer{
			FromFacultyID: record.TargetFacultyID,
			ToFacultyID:   record.SourceFacultyID,
			WeekStart:     *record.TargetWeek,
		})
	}
	return transfers
}

// swapPairs lists every (faculty, week) unit a record touches, deduplicated.
func swapPairs(record domain.SwapRecord) []weekPair {
	pairs := []weekPair{
		{facultyID: record.SourceFacultyID, weekStart: *record.SourceWeek},
		{facultyID: record.TargetFacultyID, weekStart: *record.SourceWeek},
	}
	if record.TargetWeek != nil {
		pairs = append(pairs,
			weekPair{facultyID: record.SourceFacultyID, weekStart: *record.TargetWeek},
			weekPair{facultyID: record.TargetFacultyID, weekStart: *record.TargetWeek},
		)
	}
	return dedupPairs(pairs)
}

// acquirePairs takes week leases for every pair, releasing the partial set on
// contention so a half-acquired execution never wedges other swaps.
func (s *Service) acquirePairs(ctx context.Context, pairs []weekPair) (release func(), ok bool, err error) {
	type held struct {
		pair  weekPair
		token string
	}
	var acquired []held

	releaseAll := func() {
		for _, h := range acquired {
			_ = s.locks.Release(ctx, h.pair.facultyID, h.pair.weekStart, h.token)
		}
	}

	for _, p := range pairs {
		token, got, err := s.locks.Acquire(ctx, p.facultyID, p.weekStart, s.cfg.WeekLockTTL)
		if err != nil {
			releaseAll()
			return nil, false, err
		}
		if !got {
			releaseAll()
			return nil, false, nil
		}
		acquired = append(acquired, held{pair: p, token: token})
	}
	return releaseAll, true, nil
}

// swapEvent builds the audit entry for one record transition, carrying
// before/after ownership so the history sink can render the change.
func (s *Service) swapEvent(eventType string, record domain.SwapRecord, at time.Time, failure string) ports.OutboxEvent {
	payload, _ := json.Marshal(map[string]any{
		"swap_id":           record.SwapID,
		"swap_type":         record.Type,
		"source_faculty_id": record.SourceFacultyID,
		"target_faculty_id": record.TargetFacultyID,
		"source_week":       record.SourceWeek,
		"target_week":       record.TargetWeek,
		"executed_by":       record.ExecutedBy,
		"reason":            record.Reason,
		"failure":           failure,
		"occurred_at":       at,
	})
	return ports.OutboxEvent{
		EventID:      uuid.New(),
		EventType:    eventType,
		PartitionKey: record.SwapID.String(),
		Payload:      payload,
		OccurredAt:   at,
	}
}
