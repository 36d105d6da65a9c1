package postgres

import (
	"errors"

	"github.com/rosterforge/conflict-resolution-service/internal/ports"
	"gorm.io/gorm"
)

type Repositories struct {
	Conflicts   ports.ConflictRepository
	Faculty     ports.FacultyRepository
	Assignments ports.AssignmentRepository
	Swaps       ports.SwapRepository
	Outbox      ports.OutboxRepository
}

func NewRepositories(db *gorm.DB) Repositories {
	return Repositories{
		Conflicts:   &conflictRepository{db: db},
		Faculty:     &facultyRepository{db: db},
		Assignments: &assignmentRepository{db: db},
		Swaps:       &swapRepository{db: db},
		Outbox:      &outboxRepository{db: db},
	}
}

func isUniqueViolation(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
