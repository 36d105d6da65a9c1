package postgres

import (
	"time"

	"github.com/google/uuid"
)

type facultyModel struct {
	FacultyID   uuid.UUID `gorm:"column:faculty_id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name        string    `gorm:"column:name"`
	Credentials string    `gorm:"column:credentials"`
	Active      bool      `gorm:"column:active"`
	CreatedAt   time.Time `gorm:"column:created_at"`
	UpdatedAt   time.Time `gorm:"column:updated_at"`
}

func (facultyModel) TableName() string { return "faculty" }

type dutyAssignmentModel struct {
	AssignmentID uuid.UUID `gorm:"column:assignment_id;type:uuid;default:gen_random_uuid();primaryKey"`
	FacultyID    uuid.UUID `gorm:"column:faculty_id"`
	WeekStart    time.Time `gorm:"column:week_start"`
	DutyDate     time.Time `gorm:"column:duty_date"`
	Slot         string    `gorm:"column:slot"`
	Credential   string    `gorm:"column:credential"`
	CreatedAt    time.Time `gorm:"column:created_at"`
	UpdatedAt    time.Time `gorm:"column:updated_at"`
}

func (dutyAssignmentModel) TableName() string { return "duty_assignments" }

type callAssignmentModel struct {
	CallID    uuid.UUID `gorm:"column:call_id;type:uuid;default:gen_random_uuid();primaryKey"`
	FacultyID uuid.UUID `gorm:"column:faculty_id"`
	CallDate  time.Time `gorm:"column:call_date"`
	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (callAssignmentModel) TableName() string { return "call_assignments" }

type conflictAlertModel struct {
	ConflictID uuid.UUID `gorm:"column:conflict_id;type:uuid;default:gen_random_uuid();primaryKey"`
	FacultyID  uuid.UUID `gorm:"column:faculty_id"`
	Type       string    `gorm:"column:conflict_type"`
	Severity   string    `gorm:"column:severity"`
	WeekStart  time.Time `gorm:"column:week_start"`
	Status     string    `gorm:"column:status"`
	Message    string    `gorm:"column:message"`
	CreatedAt  time.Time `gorm:"column:created_at"`
	UpdatedAt  time.Time `gorm:"column:updated_at"`
}

func (conflictAlertModel) TableName() string { return "conflict_alerts" }

type swapRecordModel struct {
	SwapID          uuid.UUID  `gorm:"column:swap_id;type:uuid;primaryKey"`
	SourceFacultyID uuid.UUID  `gorm:"column:source_faculty_id"`
	SourceWeek      *time.Time `gorm:"column:source_week"`
	TargetFacultyID uuid.UUID  `gorm:"column:target_faculty_id"`
	TargetWeek      *time.Time `gorm:"column:target_week"`
	SwapType        string     `gorm:"column:swap_type"`
	Status          string     `gorm:"column:status"`
	Reason          string     `gorm:"column:reason"`
	ExecutedBy      uuid.UUID  `gorm:"column:executed_by"`
	ExecutedAt      *time.Time `gorm:"column:executed_at"`
	FailureReason   string     `gorm:"column:failure_reason"`
	RollbackReason  string     `gorm:"column:rollback_reason"`
	CreatedAt       time.Time  `gorm:"column:created_at"`
	UpdatedAt       time.Time  `gorm:"column:updated_at"`
}

func (swapRecordModel) TableName() string { return "swap_records" }

type auditOutboxModel struct {
	OutboxID       uuid.UUID  `gorm:"column:outbox_id;type:uuid;primaryKey"`
	EventType      string     `gorm:"column:event_type"`
	PartitionKey   string     `gorm:"column:partition_key"`
	Payload        string     `gorm:"column:payload"`
	RetryCount     int        `gorm:"column:retry_count"`
	LastError      *string    `gorm:"column:last_error"`
	CreatedAt      time.Time  `gorm:"column:created_at"`
	PublishedAt    *time.Time `gorm:"column:published_at"`
	LastErrorAt    *time.Time `gorm:"column:last_error_at"`
	ClaimToken     *string    `gorm:"column:claim_token"`
	ClaimUntil     *time.Time `gorm:"column:claim_until"`
	DeadLetteredAt *time.Time `gorm:"column:dead_lettered_at"`
}

func (auditOutboxModel) TableName() string { return "audit_outbox" }
