package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rosterforge/conflict-resolution-service/internal/domain"
	"github.com/rosterforge/conflict-resolution-service/internal/ports"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type swapRepository struct {
	db *gorm.DB
}

func (r *swapRepository) Create(ctx context.Context, record domain.SwapRecord) error {
	rec := swapRecordModel{
		SwapID:          record.SwapID,
		SourceFacultyID: record.SourceFacultyID,
		SourceWeek:      record.SourceWeek,
		TargetFacultyID: record.TargetFacultyID,
		TargetWeek:      record.TargetWeek,
		SwapType:        string(record.Type),
		Status:          string(record.Status),
		Reason:          record.Reason,
		ExecutedBy:      record.ExecutedBy,
		FailureReason:   record.FailureReason,
		RollbackReason:  record.RollbackReason,
		CreatedAt:       record.CreatedAt,
		UpdatedAt:       record.UpdatedAt,
	}
	if err := r.db.WithContext(ctx).Create(&rec).Error; err != nil {
		if isUniqueViolation(err) {
			return domain.ErrInvalidInput
		}
		return err
	}
	return nil
}

func (r *swapRepository) Get(ctx context.Context, swapID uuid.UUID) (domain.SwapRecord, error) {
	var rec swapRecordModel
	if err := r.db.WithContext(ctx).Where("swap_id = ?", swapID).Take(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.SwapRecord{}, domain.ErrSwapNotFound
		}
		return domain.SwapRecord{}, err
	}
	return toDomainSwapRecord(rec), nil
}

// ExecuteTx applies every week transfer, flips the record to EXECUTED and
// enqueues the audit event in a single transaction. The swap row is taken
// under an exclusive lock first so two executions of the same record
// serialize, and the status guard makes the loser fail cleanly.
func (r *swapRepository) ExecuteTx(ctx context.Context, swapID uuid.UUID, transfers []ports.WeekTransfer, executedAt time.Time, event ports.OutboxEvent) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rec, err := lockSwapRecord(tx, swapID)
		if err != nil {
			return err
		}
		if !domain.SwapStatus(rec.Status).CanTransitionTo(domain.SwapStatusExecuted) {
			return domain.ErrInvalidSwapStatus
		}

		if err := applyTransfers(tx, transfers, executedAt); err != nil {
			return err
		}

		if err := tx.Model(&swapRecordModel{}).
			Where("swap_id = ?", swapID).
			Updates(map[string]any{
				"status":      string(domain.SwapStatusExecuted),
				"executed_at": executedAt,
				"updated_at":  executedAt,
			}).Error; err != nil {
			return err
		}

		return enqueueOutbox(tx, event)
	})
}

// RollbackTx reverses an executed swap with the same transfer primitive used
// by execution, run in the opposite direction by the caller.
func (r *swapRepository) RollbackTx(ctx context.Context, swapID uuid.UUID, transfers []ports.WeekTransfer, reason string, rolledBackAt time.Time, event ports.OutboxEvent) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rec, err := lockSwapRecord(tx, swapID)
		if err != nil {
			return err
		}
		if !domain.SwapStatus(rec.Status).CanTransitionTo(domain.SwapStatusRolledBack) {
			return domain.ErrInvalidSwapStatus
		}

		if err := applyTransfers(tx, transfers, rolledBackAt); err != nil {
			return err
		}

		if err := tx.Model(&swapRecordModel{}).
			Where("swap_id = ?", swapID).
			Updates(map[string]any{
				"status":          string(domain.SwapStatusRolledBack),
				"rollback_reason": reason,
				"updated_at":      rolledBackAt,
			}).Error; err != nil {
			return err
		}

		return enqueueOutbox(tx, event)
	})
}

func (r *swapRepository) MarkFailed(ctx context.Context, swapID uuid.UUID, failureReason string, failedAt time.Time, event ports.OutboxEvent) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rec, err := lockSwapRecord(tx, swapID)
		if err != nil {
			return err
		}
		if !domain.SwapStatus(rec.Status).CanTransitionTo(domain.SwapStatusFailed) {
			return domain.ErrInvalidSwapStatus
		}

		if err := tx.Model(&swapRecordModel{}).
			Where("swap_id = ?", swapID).
			Updates(map[string]any{
				"status":         string(domain.SwapStatusFailed),
				"failure_reason": failureReason,
				"updated_at":     failedAt,
			}).Error; err != nil {
			return err
		}

		return enqueueOutbox(tx, event)
	})
}

func (r *swapRepository) AnyInFlightTouching(ctx context.Context, facultyIDs []uuid.UUID, weeks []time.Time) (bool, error) {
	if len(facultyIDs) == 0 && len(weeks) == 0 {
		return false, nil
	}

	q := r.db.WithContext(ctx).
		Model(&swapRecordModel{}).
		Where("status = ?", string(domain.SwapStatusPending))

	switch {
	case len(facultyIDs) > 0 && len(weeks) > 0:
		q = q.Where(
			r.db.Where("source_faculty_id IN ? OR target_faculty_id IN ?", facultyIDs, facultyIDs).
				Or("source_week IN ? OR target_week IN ?", weeks, weeks),
		)
	case len(facultyIDs) > 0:
		q = q.Where("source_faculty_id IN ? OR target_faculty_id IN ?", facultyIDs, facultyIDs)
	default:
		q = q.Where("source_week IN ? OR target_week IN ?", weeks, weeks)
	}

	var count int64
	if err := q.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func lockSwapRecord(tx *gorm.DB, swapID uuid.UUID) (swapRecordModel, error) {
	var rec swapRecordModel
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("swap_id = ?", swapID).
		Take(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return swapRecordModel{}, domain.ErrSwapNotFound
		}
		return swapRecordModel{}, err
	}
	return rec, nil
}

type transferPlan struct {
	toFacultyID uuid.UUID
	dutyIDs     []uuid.UUID
	callIDs     []uuid.UUID
}

// applyTransfers moves each faculty's whole duty week, call assignments
// included, to the receiving faculty. All affected rows are identified and
// locked before any update runs: a one-to-one exchange inside a single week
// would otherwise re-move rows the opposite transfer just reassigned.
func applyTransfers(tx *gorm.DB, transfers []ports.WeekTransfer, at time.Time) error {
	plans := make([]transferPlan, 0, len(transfers))
	for _, tr := range transfers {
		weekEnd := tr.WeekStart.AddDate(0, 0, 7)
		plan := transferPlan{toFacultyID: tr.ToFacultyID}

		if err := tx.Model(&dutyAssignmentModel{}).
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("faculty_id = ?", tr.FromFacultyID).
			Where("week_start = ?", tr.WeekStart).
			Pluck("assignment_id", &plan.dutyIDs).Error; err != nil {
			return err
		}
		if err := tx.Model(&callAssignmentModel{}).
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("faculty_id = ?", tr.FromFacultyID).
			Where("call_date >= ? AND call_date < ?", tr.WeekStart, weekEnd).
			Pluck("call_id", &plan.callIDs).Error; err != nil {
			return err
		}
		plans = append(plans, plan)
	}

	for _, plan := range plans {
		if len(plan.dutyIDs) > 0 {
			if err := tx.Model(&dutyAssignmentModel{}).
				Where("assignment_id IN ?", plan.dutyIDs).
				Updates(map[string]any{
					"faculty_id": plan.toFacultyID,
					"updated_at": at,
				}).Error; err != nil {
				return err
			}
		}
		if len(plan.callIDs) > 0 {
			if err := tx.Model(&callAssignmentModel{}).
				Where("call_id IN ?", plan.callIDs).
				Updates(map[string]any{
					"faculty_id": plan.toFacultyID,
					"updated_at": at,
				}).Error; err != nil {
				return err
			}
		}
	}
	return nil
}

func enqueueOutbox(tx *gorm.DB, event ports.OutboxEvent) error {
	payload := event.Payload
	if len(payload) == 0 {
		payload = []byte(`{}`)
	}
	rec := auditOutboxModel{
		OutboxID:     event.EventID,
		EventType:    event.EventType,
		PartitionKey: event.PartitionKey,
		Payload:      string(payload),
		CreatedAt:    event.OccurredAt,
	}
	return tx.Create(&rec).Error
}
