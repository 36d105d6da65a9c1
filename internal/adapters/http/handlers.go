package http

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rosterforge/conflict-resolution-service/internal/application"
	"github.com/rosterforge/conflict-resolution-service/internal/domain"
)

func (h *Handler) healthz(w http.ResponseWriter, _ *http.Request) {
	writeMessage(w, http.StatusOK, "ok")
}

func (h *Handler) readyz(w http.ResponseWriter, _ *http.Request) {
	writeMessage(w, http.StatusOK, "ready")
}

func (h *Handler) conflictAnalysis(w http.ResponseWriter, r *http.Request) {
	conflictID, err := pathUUID(r, "conflict_id")
	if err != nil {
		writeValidationError(r.Context(), w, "conflict_analysis", err)
		return
	}

	analysis, err := h.service.AnalyzeConflict(r.Context(), conflictID)
	if err != nil {
		writeMappedError(r.Context(), w, "conflict_analysis", err)
		return
	}
	writeSuccess(w, http.StatusOK, toAnalysisResponse(analysis))
}

func (h *Handler) conflictOptions(w http.ResponseWriter, r *http.Request) {
	conflictID, err := pathUUID(r, "conflict_id")
	if err != nil {
		writeValidationError(r.Context(), w, "conflict_options", err)
		return
	}

	maxOptions := parseIntDefault(r.URL.Query().Get("max"), 0)
	options, err := h.service.GenerateResolutionOptions(r.Context(), conflictID, maxOptions)
	if err != nil {
		writeMappedError(r.Context(), w, "conflict_options", err)
		return
	}

	items := make([]optionResponse, 0, len(options))
	for _, opt := range options {
		items = append(items, toOptionResponse(opt))
	}
	writeSuccess(w, http.StatusOK, map[string]any{
		"conflict_id": conflictID,
		"options":     items,
	})
}

type resolveConflictRequest struct {
	PreferredStrategy string    `json:"preferred_strategy"`
	MaxRisk           string    `json:"max_risk"`
	Reason            string    `json:"reason"`
	RequestedBy       uuid.UUID `json:"requested_by"`
}

func (h *Handler) resolveConflict(w http.ResponseWriter, r *http.Request) {
	conflictID, err := pathUUID(r, "conflict_id")
	if err != nil {
		writeValidationError(r.Context(), w, "resolve_conflict", err)
		return
	}

	var req resolveConflictRequest
	if err := decodeBody(r, &req); err != nil {
		writeValidationError(r.Context(), w, "resolve_conflict", err)
		return
	}
	maxRisk, err := domain.ParseRiskLevel(req.MaxRisk)
	if err != nil {
		writeValidationError(r.Context(), w, "resolve_conflict", err)
		return
	}

	result, err := h.service.AutoResolveIfSafe(r.Context(), application.AutoResolveRequest{
		ConflictID:        conflictID,
		PreferredStrategy: domain.Strategy(req.PreferredStrategy),
		MaxRisk:           maxRisk,
		Reason:            req.Reason,
		RequestedBy:       req.RequestedBy,
	})
	if err != nil {
		writeMappedError(r.Context(), w, "resolve_conflict", err)
		return
	}
	writeResult(w, result.ErrorCode, result)
}

type batchResolveHTTPRequest struct {
	ConflictIDs   []uuid.UUID `json:"conflict_ids"`
	AutoApplySafe bool        `json:"auto_apply_safe"`
	MaxRisk       string      `json:"max_risk"`
	RequestedBy   uuid.UUID   `json:"requested_by"`
	DeadlineMS    int64       `json:"deadline_ms"`
}

func (h *Handler) batchResolve(w http.ResponseWriter, r *http.Request) {
	var req batchResolveHTTPRequest
	if err := decodeBody(r, &req); err != nil {
		writeValidationError(r.Context(), w, "batch_resolve", err)
		return
	}
	maxRisk, err := domain.ParseRiskLevel(req.MaxRisk)
	if err != nil {
		writeValidationError(r.Context(), w, "batch_resolve", err)
		return
	}

	report := h.service.ResolveBatch(r.Context(), application.BatchResolveRequest{
		ConflictIDs:   req.ConflictIDs,
		AutoApplySafe: req.AutoApplySafe,
		MaxRisk:       maxRisk,
		RequestedBy:   req.RequestedBy,
		Deadline:      time.Duration(req.DeadlineMS) * time.Millisecond,
	})
	writeSuccess(w, http.StatusOK, report)
}

func (h *Handler) executeSwap(w http.ResponseWriter, r *http.Request) {
	var req application.ExecuteSwapRequest
	if err := decodeBody(r, &req); err != nil {
		writeValidationError(r.Context(), w, "execute_swap", err)
		return
	}

	result, err := h.service.ExecuteSwap(r.Context(), req)
	if err != nil {
		writeMappedError(r.Context(), w, "execute_swap", err)
		return
	}
	writeResult(w, result.ErrorCode, result)
}

func (h *Handler) getSwap(w http.ResponseWriter, r *http.Request) {
	swapID, err := pathUUID(r, "swap_id")
	if err != nil {
		writeValidationError(r.Context(), w, "get_swap", err)
		return
	}

	record, err := h.service.GetSwap(r.Context(), swapID)
	if err != nil {
		writeMappedError(r.Context(), w, "get_swap", err)
		return
	}
	writeSuccess(w, http.StatusOK, toSwapResponse(record))
}

func (h *Handler) rollbackEligibility(w http.ResponseWriter, r *http.Request) {
	swapID, err := pathUUID(r, "swap_id")
	if err != nil {
		writeValidationError(r.Context(), w, "rollback_eligibility", err)
		return
	}

	eligible, err := h.service.CanRollback(r.Context(), swapID)
	if err != nil {
		writeMappedError(r.Context(), w, "rollback_eligibility", err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{
		"swap_id":  swapID,
		"eligible": eligible,
	})
}

type rollbackRequest struct {
	Reason string `json:"reason"`
}

func (h *Handler) rollbackSwap(w http.ResponseWriter, r *http.Request) {
	swapID, err := pathUUID(r, "swap_id")
	if err != nil {
		writeValidationError(r.Context(), w, "rollback_swap", err)
		return
	}

	var req rollbackRequest
	if err := decodeBody(r, &req); err != nil {
		writeValidationError(r.Context(), w, "rollback_swap", err)
		return
	}

	result, err := h.service.RollbackSwap(r.Context(), swapID, req.Reason)
	if err != nil {
		writeMappedError(r.Context(), w, "rollback_swap", err)
		return
	}
	writeResult(w, result.ErrorCode, result)
}
