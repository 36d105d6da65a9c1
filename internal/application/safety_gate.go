package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rosterforge/conflict-resolution-service/internal/domain"
	"github.com/rosterforge/conflict-resolution-service/internal/ports"
)

// Gate status strings carried on ResolutionResult.Status.
const (
	statusResolved         = "RESOLVED"
	statusRejected         = "REJECTED"
	statusDeferred         = "DEFERRED"
	statusExecutionFailure = "EXECUTION_FAILED"
)

// AutoResolveIfSafe analyzes one conflict, generates options and applies the
// best-ranked one automatically when it is provably safe: no blockers, and
// risk at or below the caller's ceiling. Anything else defers to a human with
// a stable error code.
func (s *Service) AutoResolveIfSafe(ctx context.Context, req AutoResolveRequest) (ResolutionResult, error) {
	started := s.nowFn()

	alert, err := s.conflicts.Get(ctx, req.ConflictID)
	if err != nil {
		if errors.Is(err, domain.ErrConflictNotFound) {
			return ResolutionResult{
				Status:     statusRejected,
				ErrorCode:  domain.CodeConflictNotFound,
				Message:    fmt.Sprintf("conflict %s not found", req.ConflictID),
				ConflictID: req.ConflictID,
				Elapsed:    s.nowFn().Sub(started),
			}, nil
		}
		return ResolutionResult{ConflictID: req.ConflictID, ErrorCode: domain.CodePersistenceFailure, Message: err.Error()}, err
	}
	if alert.Status.Terminal() {
		return ResolutionResult{
			Status:     statusRejected,
			ErrorCode:  domain.CodeAlreadyResolved,
			Message:    "conflict is already resolved",
			ConflictID: alert.ConflictID,
			Elapsed:    s.nowFn().Sub(started),
		}, nil
	}

	analysis, err := s.analyzeAlert(ctx, alert)
	if err != nil {
		return ResolutionResult{ConflictID: alert.ConflictID, ErrorCode: domain.CodePersistenceFailure, Message: err.Error()}, err
	}
	options, err := s.generateForAnalysis(ctx, alert, analysis)
	if err != nil {
		return ResolutionResult{ConflictID: alert.ConflictID, ErrorCode: domain.CodePersistenceFailure, Message: err.Error()}, err
	}

	return s.gateAndExecute(ctx, alert, analysis, options, req, started, nil)
}

// gateAndExecute runs the decision ladder over an already-analyzed conflict.
// skip, when non-nil, rejects options that would touch faculty/week pairs the
// current batch already mutated; such conflicts are deferred, never raced.
func (s *Service) gateAndExecute(
	ctx context.Context,
	alert domain.ConflictAlert,
	analysis domain.ConflictAnalysis,
	options []domain.ResolutionOption,
	req AutoResolveRequest,
	started time.Time,
	skip func(domain.ResolutionOption) bool,
) (ResolutionResult, error) {
	if len(analysis.Blockers) > 0 {
		return ResolutionResult{
			Status:     statusRejected,
			ErrorCode:  domain.CodeSafetyCheckFailed,
			Message:    "blocking safety checks failed: " + strings.Join(analysis.Blockers, ", "),
			ConflictID: alert.ConflictID,
			Elapsed:    s.nowFn().Sub(started),
		}, nil
	}

	if req.PreferredStrategy != "" {
		options = filterStrategy(options, req.PreferredStrategy)
	}
	if len(options) == 0 {
		return ResolutionResult{
			Status:     statusRejected,
			ErrorCode:  domain.CodeNoOptions,
			Message:    "no resolution options could be generated",
			ConflictID: alert.ConflictID,
			Elapsed:    s.nowFn().Sub(started),
		}, nil
	}

	ceiling := req.MaxRisk
	if ceiling == "" {
		ceiling = s.cfg.DefaultRiskCeiling
	}

	overlapped := false
	var chosen *domain.ResolutionOption
	for i := range options {
		opt := options[i]
		if opt.Strategy == domain.StrategyDeferToHuman {
			continue
		}
		if !opt.Risk.AtMost(ceiling) {
			continue
		}
		if skip != nil && skip(opt) {
			overlapped = true
			continue
		}
		chosen = &options[i]
		break
	}
	if chosen == nil {
		code := domain.CodeApprovalRequired
		msg := fmt.Sprintf("no option at or below risk %s; a human must pick among the remaining options", ceiling)
		if overlapped {
			code = domain.CodeWeekLocked
			msg = "every qualifying option overlaps a change already applied in this batch"
		}
		return ResolutionResult{
			Status:     statusDeferred,
			ErrorCode:  code,
			Message:    msg,
			ConflictID: alert.ConflictID,
			Elapsed:    s.nowFn().Sub(started),
		}, nil
	}

	execReq := ExecuteSwapRequest{
		SourceFacultyID: chosen.SourceFacultyID,
		SourceWeek:      chosen.SourceWeek,
		TargetFacultyID: chosen.TargetFacultyID,
		TargetWeek:      chosen.TargetWeek,
		Type:            chosen.SwapType,
		Reason:          gateReason(req.Reason, alert),
		ExecutedBy:      req.RequestedBy,
	}
	exec, execErr := s.ExecuteSwap(ctx, execReq)
	if !exec.Success {
		// Propagate the executor's error code unchanged.
		res := ResolutionResult{
			Status:     statusExecutionFailure,
			ErrorCode:  exec.ErrorCode,
			Message:    exec.Message,
			ConflictID: alert.ConflictID,
			OptionID:   &chosen.OptionID,
			Elapsed:    s.nowFn().Sub(started),
		}
		if exec.SwapID != uuid.Nil {
			res.SwapID = &exec.SwapID
		}
		return res, execErr
	}

	now := s.nowFn()
	if err := s.conflicts.MarkResolved(ctx, alert.ConflictID, now); err != nil {
		return ResolutionResult{
			Status:     statusExecutionFailure,
			ErrorCode:  domain.CodePersistenceFailure,
			Message:    "swap executed but conflict status update failed: " + err.Error(),
			ConflictID: alert.ConflictID,
			SwapID:     &exec.SwapID,
			Elapsed:    s.nowFn().Sub(started),
		}, err
	}
	_ = s.optionCache.Invalidate(ctx, alert.ConflictID)

	if err := s.outbox.Enqueue(ctx, resolvedEvent(alert, *chosen, exec.SwapID, now)); err != nil {
		// The swap's own audit entry already committed transactionally; a
		// missing resolution marker degrades the audit trail, not the data.
		s.logger.WarnContext(ctx, "enqueue conflict.resolved event failed",
			"operation", "auto_resolve",
			"outcome", "degraded",
			"conflict_id", alert.ConflictID,
			"error", err,
		)
	}

	return ResolutionResult{
		Success:    true,
		Status:     statusResolved,
		Message:    "conflict resolved automatically via " + string(chosen.Strategy),
		ConflictID: alert.ConflictID,
		OptionID:   &chosen.OptionID,
		SwapID:     &exec.SwapID,
		Elapsed:    s.nowFn().Sub(started),
	}, nil
}

// resolvedEvent marks the end of a conflict's lifecycle for downstream
// consumers, linking the conflict to the option and swap that closed it.
func resolvedEvent(alert domain.ConflictAlert, chosen domain.ResolutionOption, swapID uuid.UUID, at time.Time) ports.OutboxEvent {
	payload, _ := json.Marshal(map[string]any{
		"conflict_id":   alert.ConflictID,
		"conflict_type": alert.Type,
		"faculty_id":    alert.FacultyID,
		"option_id":     chosen.OptionID,
		"strategy":      chosen.Strategy,
		"swap_id":       swapID,
		"resolved_at":   at,
	})
	return ports.OutboxEvent{
		EventID:      uuid.New(),
		EventType:    "conflict.resolved",
		PartitionKey: alert.ConflictID.String(),
		Payload:      payload,
		OccurredAt:   at,
	}
}

func gateReason(reason string, alert domain.ConflictAlert) string {
	if reason != "" {
		return reason
	}
	return fmt.Sprintf("auto-resolution of %s conflict %s", alert.Type, alert.ConflictID)
}

func filterStrategy(options []domain.ResolutionOption, strategy domain.Strategy) []domain.ResolutionOption {
	out := options[:0:0]
	for _, opt := range options {
		if opt.Strategy == strategy || opt.Strategy == domain.StrategyDeferToHuman {
			out = append(out, opt)
		}
	}
	return out
}

// optionPairs lists the faculty/week units an option's swap would touch.
// Deferral options touch nothing.
func optionPairs(opt domain.ResolutionOption) []weekPair {
	if opt.Strategy == domain.StrategyDeferToHuman {
		return nil
	}
	pairs := []weekPair{
		{facultyID: opt.SourceFacultyID, weekStart: opt.SourceWeek},
		{facultyID: opt.TargetFacultyID, weekStart: opt.SourceWeek},
	}
	if opt.TargetWeek != nil {
		pairs = append(pairs,
			weekPair{facultyID: opt.SourceFacultyID, weekStart: *opt.TargetWeek},
			weekPair{facultyID: opt.TargetFacultyID, weekStart: *opt.TargetWeek},
		)
	}
	return dedupPairs(pairs)
}
