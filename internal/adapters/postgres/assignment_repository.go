package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rosterforge/conflict-resolution-service/internal/domain"
	"gorm.io/gorm"
)

type assignmentRepository struct {
	db *gorm.DB
}

func (r *assignmentRepository) ListDutyAssignments(ctx context.Context, facultyID uuid.UUID, weekStart time.Time) ([]domain.DutyAssignment, error) {
	var rows []dutyAssignmentModel
	if err := r.db.WithContext(ctx).
		Where("faculty_id = ?", facultyID).
		Where("week_start = ?", weekStart).
		Order("duty_date ASC, slot ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]domain.DutyAssignment, 0, len(rows))
	for _, row := range rows {
		out = append(out, toDomainDutyAssignment(row))
	}
	return out, nil
}

func (r *assignmentRepository) ListDutyAssignmentsForWeek(ctx context.Context, weekStart time.Time) ([]domain.DutyAssignment, error) {
	var rows []dutyAssignmentModel
	if err := r.db.WithContext(ctx).
		Where("week_start = ?", weekStart).
		Order("duty_date ASC, slot ASC, faculty_id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]domain.DutyAssignment, 0, len(rows))
	for _, row := range rows {
		out = append(out, toDomainDutyAssignment(row))
	}
	return out, nil
}

func (r *assignmentRepository) ListCallAssignments(ctx context.Context, facultyID uuid.UUID, weekStart time.Time) ([]domain.CallAssignment, error) {
	var rows []callAssignmentModel
	if err := r.db.WithContext(ctx).
		Where("faculty_id = ?", facultyID).
		Where("call_date >= ? AND call_date < ?", weekStart, weekStart.AddDate(0, 0, 7)).
		Order("call_date ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]domain.CallAssignment, 0, len(rows))
	for _, row := range rows {
		out = append(out, toDomainCallAssignment(row))
	}
	return out, nil
}

func (r *assignmentRepository) ListCallAssignmentsForWeek(ctx context.Context, weekStart time.Time) ([]domain.CallAssignment, error) {
	var rows []callAssignmentModel
	if err := r.db.WithContext(ctx).
		Where("call_date >= ? AND call_date < ?", weekStart, weekStart.AddDate(0, 0, 7)).
		Order("call_date ASC, faculty_id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]domain.CallAssignment, 0, len(rows))
	for _, row := range rows {
		out = append(out, toDomainCallAssignment(row))
	}
	return out, nil
}

type versionRow struct {
	Total     int64      `gorm:"column:total"`
	LastWrite *time.Time `gorm:"column:last_write"`
}

// ScheduleVersion derives an opaque change token for a set of weeks from row
// counts and the newest updated_at across duty and call assignments. Any
// insert, delete or reassignment in those weeks changes the token, so caches
// keyed on it never serve data from before a mutation.
func (r *assignmentRepository) ScheduleVersion(ctx context.Context, weeks []time.Time) (string, error) {
	if len(weeks) == 0 {
		return "v0", nil
	}

	weekEnds := make([]time.Time, 0, len(weeks))
	for _, w := range weeks {
		weekEnds = append(weekEnds, w.AddDate(0, 0, 7))
	}

	var duty versionRow
	if err := r.db.WithContext(ctx).
		Model(&dutyAssignmentModel{}).
		Select("COUNT(*) AS total, MAX(updated_at) AS last_write").
		Where("week_start IN ?", weeks).
		Take(&duty).Error; err != nil {
		return "", err
	}

	rangeExpr := r.db.Where("call_date >= ? AND call_date < ?", weeks[0], weekEnds[0])
	for i := 1; i < len(weeks); i++ {
		rangeExpr = rangeExpr.Or("call_date >= ? AND call_date < ?", weeks[i], weekEnds[i])
	}
	var call versionRow
	if err := r.db.WithContext(ctx).
		Model(&callAssignmentModel{}).
		Select("COUNT(*) AS total, MAX(updated_at) AS last_write").
		Where(rangeExpr).
		Take(&call).Error; err != nil {
		return "", err
	}

	return fmt.Sprintf("d%d.%d-c%d.%d",
		duty.Total, unixOrZero(duty.LastWrite),
		call.Total, unixOrZero(call.LastWrite),
	), nil
}

func unixOrZero(t *time.Time) int64 {
	if t == nil {
		return 0
	}
	return t.UTC().UnixNano()
}
