package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rosterforge/conflict-resolution-service/internal/domain"
)

type ctxKey string

const ctxKeyRequestID ctxKey = "request_id"

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get("X-Request-Id")
		if reqID == "" {
			reqID = uuid.NewString()
		}
		w.Header().Set("X-Request-Id", reqID)
		ctx := context.WithValue(r.Context(), ctxKeyRequestID, reqID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				httpLogger().ErrorContext(r.Context(), "panic recovered",
					"operation", "http_panic_recovery",
					"outcome", "failure",
					"request_id", requestIDFromContext(r.Context()),
					"method", r.Method,
					"path", r.URL.Path,
					"panic", rec,
				)
				writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
	bytes      int
}

func (r *statusRecorder) WriteHeader(statusCode int) {
	r.statusCode = statusCode
	r.ResponseWriter.WriteHeader(statusCode)
}

func (r *statusRecorder) Write(payload []byte) (int, error) {
	if r.statusCode == 0 {
		r.statusCode = http.StatusOK
	}
	n, err := r.ResponseWriter.Write(payload)
	r.bytes += n
	return n, err
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(recorder, r)

		statusCode := recorder.statusCode
		if statusCode == 0 {
			statusCode = http.StatusOK
		}
		outcome := "success"
		if statusCode >= 400 {
			outcome = "failure"
		}

		fields := []any{
			"operation", "http_request",
			"outcome", outcome,
			"method", r.Method,
			"path", r.URL.Path,
			"status_code", statusCode,
			"bytes", recorder.bytes,
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", requestIDFromContext(r.Context()),
		}
		switch {
		case statusCode >= 500:
			httpLogger().ErrorContext(r.Context(), "http request completed", fields...)
		case statusCode >= 400:
			httpLogger().WarnContext(r.Context(), "http request completed", fields...)
		default:
			httpLogger().InfoContext(r.Context(), "http request completed", fields...)
		}
	})
}

func requestIDFromContext(ctx context.Context) string {
	v := ctx.Value(ctxKeyRequestID)
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

func mapDomainError(err error) (int, string, string) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest, domain.CodeValidation, err.Error()
	case errors.Is(err, domain.ErrConflictNotFound):
		return http.StatusNotFound, domain.CodeConflictNotFound, "conflict not found"
	case errors.Is(err, domain.ErrSwapNotFound):
		return http.StatusNotFound, domain.CodeSwapNotFound, "swap not found"
	case errors.Is(err, domain.ErrFacultyNotFound):
		return http.StatusNotFound, domain.CodeFacultyNotFound, "faculty not found"
	case errors.Is(err, domain.ErrAlreadyResolved):
		return http.StatusConflict, domain.CodeAlreadyResolved, "conflict already resolved"
	case errors.Is(err, domain.ErrInvalidSwapStatus):
		return http.StatusConflict, domain.CodeInvalidStatus, "swap is in the wrong status for this operation"
	case errors.Is(err, domain.ErrRollbackWindowExpired):
		return http.StatusConflict, domain.CodeRollbackWindowExpired, "rollback window expired"
	case errors.Is(err, domain.ErrWeekLocked):
		return http.StatusConflict, domain.CodeWeekLocked, "week locked by a concurrent change"
	case errors.Is(err, domain.ErrSafetyCheckFailed):
		return http.StatusUnprocessableEntity, domain.CodeSafetyCheckFailed, err.Error()
	case errors.Is(err, domain.ErrNoViableOption):
		return http.StatusUnprocessableEntity, domain.CodeNoOptions, "no viable resolution option"
	case errors.Is(err, domain.ErrApprovalRequired):
		return http.StatusUnprocessableEntity, domain.CodeApprovalRequired, "human approval required"
	default:
		return http.StatusInternalServerError, domain.CodePersistenceFailure, "internal server error"
	}
}

// statusForCode maps a stable in-band error code to an HTTP status for
// handlers that return result values instead of errors.
func statusForCode(code string) int {
	switch code {
	case "":
		return http.StatusOK
	case domain.CodeValidation:
		return http.StatusBadRequest
	case domain.CodeConflictNotFound, domain.CodeSwapNotFound, domain.CodeFacultyNotFound:
		return http.StatusNotFound
	case domain.CodeAlreadyResolved, domain.CodeInvalidStatus, domain.CodeRollbackWindowExpired, domain.CodeWeekLocked:
		return http.StatusConflict
	case domain.CodeSafetyCheckFailed, domain.CodeNoOptions, domain.CodeApprovalRequired:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
