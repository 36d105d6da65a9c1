package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/rosterforge/conflict-resolution-service/internal/domain"
	"gorm.io/gorm"
)

type facultyRepository struct {
	db *gorm.DB
}

func (r *facultyRepository) Get(ctx context.Context, facultyID uuid.UUID) (domain.Faculty, error) {
	var rec facultyModel
	if err := r.db.WithContext(ctx).Where("faculty_id = ?", facultyID).Take(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Faculty{}, domain.ErrFacultyNotFound
		}
		return domain.Faculty{}, err
	}
	return toDomainFaculty(rec), nil
}

// ListEligible filters active faculty by credential set in memory. Credentials
// are stored as a comma-joined list, so containment is checked after mapping
// rather than in SQL. Ordering by faculty_id keeps repeated analyses stable.
func (r *facultyRepository) ListEligible(ctx context.Context, credentials []string, exclude []uuid.UUID) ([]domain.Faculty, error) {
	q := r.db.WithContext(ctx).
		Where("active = ?", true).
		Order("faculty_id ASC")
	if len(exclude) > 0 {
		q = q.Where("faculty_id NOT IN ?", exclude)
	}

	var rows []facultyModel
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}

	out := make([]domain.Faculty, 0, len(rows))
	for _, row := range rows {
		f := toDomainFaculty(row)
		if hasAllCredentials(f, credentials) {
			out = append(out, f)
		}
	}
	return out, nil
}

func hasAllCredentials(f domain.Faculty, credentials []string) bool {
	for _, c := range credentials {
		if !f.HasCredential(c) {
			return false
		}
	}
	return true
}
