package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rosterforge/conflict-resolution-service/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type conflictRepository struct {
	db *gorm.DB
}

func (r *conflictRepository) Get(ctx context.Context, conflictID uuid.UUID) (domain.ConflictAlert, error) {
	var rec conflictAlertModel
	if err := r.db.WithContext(ctx).Where("conflict_id = ?", conflictID).Take(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ConflictAlert{}, domain.ErrConflictNotFound
		}
		return domain.ConflictAlert{}, err
	}
	return toDomainConflict(rec), nil
}

func (r *conflictRepository) Save(ctx context.Context, alert domain.ConflictAlert) error {
	rec := conflictAlertModel{
		ConflictID: alert.ConflictID,
		FacultyID:  alert.FacultyID,
		Type:       string(alert.Type),
		Severity:   string(alert.Severity),
		WeekStart:  alert.WeekStart,
		Status:     string(alert.Status),
		Message:    alert.Message,
		CreatedAt:  alert.CreatedAt,
		UpdatedAt:  alert.CreatedAt,
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "conflict_id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"severity":   rec.Severity,
			"status":     rec.Status,
			"message":    rec.Message,
			"updated_at": rec.UpdatedAt,
		}),
	}).Create(&rec).Error
}

// MarkResolved flips the alert to its terminal status. A no-op update is
// disambiguated by re-reading the row: a missing row is a not-found, an
// already terminal row reports the earlier resolution.
func (r *conflictRepository) MarkResolved(ctx context.Context, conflictID uuid.UUID, resolvedAt time.Time) error {
	res := r.db.WithContext(ctx).
		Model(&conflictAlertModel{}).
		Where("conflict_id = ?", conflictID).
		Where("status <> ?", string(domain.ConflictStatusResolved)).
		Updates(map[string]any{
			"status":     string(domain.ConflictStatusResolved),
			"updated_at": resolvedAt,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		var rec conflictAlertModel
		if err := r.db.WithContext(ctx).Where("conflict_id = ?", conflictID).Take(&rec).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrConflictNotFound
			}
			return err
		}
		return domain.ErrAlreadyResolved
	}
	return nil
}
