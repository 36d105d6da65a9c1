package domain

import "errors"

var (
	// ErrConflictNotFound is returned when a conflict identity does not resolve.
	// Keeping this sentinel in domain lets adapters map it consistently to 404/NOT_FOUND.
	ErrConflictNotFound = errors.New("conflict not found")
	// ErrSwapNotFound is returned when a swap record identity does not resolve.
	ErrSwapNotFound = errors.New("swap not found")
	// ErrFacultyNotFound signals an unknown source or target faculty identity.
	// Executions never silently no-op on unknown parties.
	ErrFacultyNotFound = errors.New("faculty not found")
	// ErrAlreadyResolved signals the conflict reached a terminal status earlier.
	ErrAlreadyResolved = errors.New("conflict already resolved")
	// ErrSafetyCheckFailed signals a blocking safety check ruled out automatic resolution.
	ErrSafetyCheckFailed = errors.New("safety check failed")
	// ErrNoViableOption signals the generator produced nothing executable.
	ErrNoViableOption = errors.New("no viable resolution option")
	// ErrApprovalRequired signals every qualifying option exceeds the risk ceiling.
	ErrApprovalRequired = errors.New("human approval required")
	// ErrInvalidSwapStatus signals the record is in the wrong state for the operation.
	ErrInvalidSwapStatus = errors.New("invalid swap status")
	// ErrRollbackWindowExpired signals the 24-hour reversal window has closed.
	ErrRollbackWindowExpired = errors.New("rollback window expired")
	// ErrWeekLocked signals another in-flight mutation holds the faculty/week lease.
	ErrWeekLocked        = errors.New("week locked by concurrent change")
	ErrInvalidInput      = errors.New("invalid input")
	ErrOptionNotFound    = errors.New("resolution option not found")
	ErrPersistenceFailed = errors.New("persistence failure")
)

// Stable machine-readable error codes carried on results so CLI/batch/UI
// callers can branch without string matching.
const (
	CodeConflictNotFound      = "CONFLICT_NOT_FOUND"
	CodeSwapNotFound          = "SWAP_NOT_FOUND"
	CodeFacultyNotFound       = "FACULTY_NOT_FOUND"
	CodeAlreadyResolved       = "ALREADY_RESOLVED"
	CodeSafetyCheckFailed     = "SAFETY_CHECK_FAILED"
	CodeNoOptions             = "NO_OPTIONS"
	CodeApprovalRequired      = "APPROVAL_REQUIRED"
	CodeInvalidStatus         = "INVALID_STATUS"
	CodeRollbackWindowExpired = "ROLLBACK_WINDOW_EXPIRED"
	CodeWeekLocked            = "WEEK_LOCKED"
	CodeValidation            = "VALIDATION_ERROR"
	CodePersistenceFailure    = "PERSISTENCE_FAILURE"
)

// CodeForError maps a sentinel (possibly wrapped) to its stable code.
// Unexpected errors collapse to PERSISTENCE_FAILURE, the only fatal class
// this core surfaces.
func CodeForError(err error) string {
	switch {
	case errors.Is(err, ErrConflictNotFound):
		return CodeConflictNotFound
	case errors.Is(err, ErrSwapNotFound):
		return CodeSwapNotFound
	case errors.Is(err, ErrFacultyNotFound):
		return CodeFacultyNotFound
	case errors.Is(err, ErrAlreadyResolved):
		return CodeAlreadyResolved
	case errors.Is(err, ErrSafetyCheckFailed):
		return CodeSafetyCheckFailed
	case errors.Is(err, ErrNoViableOption):
		return CodeNoOptions
	case errors.Is(err, ErrApprovalRequired):
		return CodeApprovalRequired
	case errors.Is(err, ErrInvalidSwapStatus):
		return CodeInvalidStatus
	case errors.Is(err, ErrRollbackWindowExpired):
		return CodeRollbackWindowExpired
	case errors.Is(err, ErrWeekLocked):
		return CodeWeekLocked
	case errors.Is(err, ErrInvalidInput):
		return CodeValidation
	default:
		return CodePersistenceFailure
	}
}
