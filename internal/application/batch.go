package application

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/rosterforge/conflict-resolution-service/internal/domain"
)

// batchItem is the explicit per-conflict result value threaded through the
// batch loop. The coordinator pattern-matches these into aggregate counters,
// so failures are structurally recorded rather than merely logged.
type batchItem struct {
	conflictID uuid.UUID
	alert      domain.ConflictAlert
	analysis   domain.ConflictAnalysis
	options    []domain.ResolutionOption
	err        error
}

// ResolveBatch orchestrates analysis, option generation and (optionally) the
// safety gate across many conflicts in one pass. Analysis and generation are
// pure reads and run concurrently; executions are serialized, and a conflict
// whose best option would touch a faculty/week pair this batch already
// mutated is deferred rather than raced. A single conflict's failure never
// aborts the batch.
func (s *Service) ResolveBatch(ctx context.Context, req BatchResolveRequest) BatchResolutionReport {
	started := s.nowFn()

	if req.Deadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Deadline)
		defer cancel()
	}

	items := s.analyzeAll(ctx, req.ConflictIDs)

	report := BatchResolutionReport{
		TotalConflicts:   len(req.ConflictIDs),
		PendingApprovals: []uuid.UUID{},
		FailedConflicts:  []uuid.UUID{},
	}
	touched := map[string]struct{}{}
	affected := map[uuid.UUID]struct{}{}

	for _, item := range items {
		if item.err != nil {
			report.ResolutionsFailed++
			report.FailedConflicts = append(report.FailedConflicts, item.conflictID)
			s.logger.WarnContext(ctx, "batch item failed before analysis",
				"operation", "resolve_batch",
				"outcome", "failure",
				"conflict_id", item.conflictID,
				"error", item.err,
			)
			continue
		}

		report.ConflictsAnalyzed++
		for _, c := range item.analysis.SafetyChecks {
			report.SafetyChecksPerformed++
			if c.Passed {
				report.SafetyChecksPassed++
			} else {
				report.SafetyChecksFailed++
			}
		}
		report.OptionsProposed += len(item.options)

		if !req.AutoApplySafe {
			// Proposal-only mode never calls the executor; every non-empty
			// result awaits human approval.
			if len(item.options) > 0 {
				report.ResolutionsDeferred++
				report.PendingApprovals = append(report.PendingApprovals, item.conflictID)
			} else {
				report.ResolutionsFailed++
				report.FailedConflicts = append(report.FailedConflicts, item.conflictID)
			}
			continue
		}

		res, err := s.gateAndExecute(ctx, item.alert, item.analysis, item.options, AutoResolveRequest{
			ConflictID:  item.conflictID,
			MaxRisk:     req.MaxRisk,
			RequestedBy: req.RequestedBy,
		}, s.nowFn(), func(opt domain.ResolutionOption) bool {
			for _, p := range optionPairs(opt) {
				if _, hit := touched[pairKey(p.facultyID, p.weekStart)]; hit {
					return true
				}
			}
			return false
		})
		if err != nil && !res.Success {
			// Infra failure on one item is isolated like any other failure.
			report.ResolutionsFailed++
			report.FailedConflicts = append(report.FailedConflicts, item.conflictID)
			continue
		}

		switch {
		case res.Success:
			report.ResolutionsApplied++
			affected[item.alert.FacultyID] = struct{}{}
			for _, opt := range item.options {
				if res.OptionID != nil && opt.OptionID == *res.OptionID {
					affected[opt.TargetFacultyID] = struct{}{}
					for _, p := range optionPairs(opt) {
						touched[pairKey(p.facultyID, p.weekStart)] = struct{}{}
					}
				}
			}
		case res.ErrorCode == domain.CodeApprovalRequired, res.ErrorCode == domain.CodeWeekLocked:
			report.ResolutionsDeferred++
			report.PendingApprovals = append(report.PendingApprovals, item.conflictID)
		default:
			report.ResolutionsFailed++
			report.FailedConflicts = append(report.FailedConflicts, item.conflictID)
		}
	}

	report.AffectedFaculty = len(affected)
	if report.ConflictsAnalyzed > 0 {
		report.SuccessRate = float64(report.ResolutionsApplied) / float64(report.ConflictsAnalyzed)
	}
	report.Recommendations = batchRecommendations(report, req.AutoApplySafe)
	report.OverallStatus = batchStatus(report)
	report.Elapsed = s.nowFn().Sub(started)
	report.Summary = fmt.Sprintf(
		"analyzed %d/%d conflicts: %d applied, %d deferred, %d failed",
		report.ConflictsAnalyzed, report.TotalConflicts,
		report.ResolutionsApplied, report.ResolutionsDeferred, report.ResolutionsFailed,
	)

	s.logger.InfoContext(ctx, "batch resolution completed",
		"operation", "resolve_batch",
		"outcome", "success",
		"total", report.TotalConflicts,
		"applied", report.ResolutionsApplied,
		"deferred", report.ResolutionsDeferred,
		"failed", report.ResolutionsFailed,
	)
	return report
}

// analyzeAll runs the read-only phase concurrently with a bounded worker
// pool, preserving submission order in the result slice.
func (s *Service) analyzeAll(ctx context.Context, conflictIDs []uuid.UUID) []batchItem {
	items := make([]batchItem, len(conflictIDs))

	var wg sync.WaitGroup
	sem := make(chan struct{}, s.cfg.BatchConcurrency)
	for i, id := range conflictIDs {
		wg.Add(1)
		go func(i int, id uuid.UUID) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			items[i] = s.analyzeOne(ctx, id)
		}(i, id)
	}
	wg.Wait()
	return items
}

func (s *Service) analyzeOne(ctx context.Context, conflictID uuid.UUID) batchItem {
	item := batchItem{conflictID: conflictID}

	if err := ctx.Err(); err != nil {
		item.err = err
		return item
	}

	alert, err := s.conflicts.Get(ctx, conflictID)
	if err != nil {
		item.err = err
		return item
	}
	if alert.Status.Terminal() {
		// Terminal conflicts are filtered here so neither batch mode can
		// propose or execute a swap against an already-settled roster.
		item.err = fmt.Errorf("conflict %s: %w", conflictID, domain.ErrAlreadyResolved)
		return item
	}
	item.alert = alert

	analysis, err := s.analyzeAlert(ctx, alert)
	if err != nil {
		item.err = err
		return item
	}
	item.analysis = analysis

	options, err := s.generateForAnalysis(ctx, alert, analysis)
	if err != nil {
		item.err = err
		return item
	}
	item.options = options
	return item
}

func batchRecommendations(report BatchResolutionReport, autoApply bool) []string {
	var recs []string
	if !autoApply && report.ResolutionsDeferred > 0 {
		recs = append(recs, fmt.Sprintf("%d conflicts have proposed options awaiting approval", report.ResolutionsDeferred))
	}
	if autoApply && report.ResolutionsDeferred > 0 {
		recs = append(recs, fmt.Sprintf("%d conflicts exceeded the risk ceiling or overlapped applied changes; review them manually", report.ResolutionsDeferred))
	}
	if report.ResolutionsFailed > 0 {
		recs = append(recs, fmt.Sprintf("%d conflicts failed; inspect failed_conflicts and re-submit after correction", report.ResolutionsFailed))
	}
	if report.SafetyChecksFailed > report.SafetyChecksPassed && report.SafetyChecksPerformed > 0 {
		recs = append(recs, "most safety checks failed across the batch; the underlying roster may need regeneration")
	}
	if len(recs) == 0 {
		recs = append(recs, "no follow-up required")
	}
	return recs
}

func batchStatus(report BatchResolutionReport) string {
	switch {
	case report.ConflictsAnalyzed == 0:
		return "NO_CONFLICTS"
	case report.ResolutionsFailed > 0:
		return "COMPLETED_WITH_FAILURES"
	case report.ResolutionsDeferred > 0:
		return "COMPLETED_WITH_DEFERRALS"
	default:
		return "COMPLETED"
	}
}
