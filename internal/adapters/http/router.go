package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rosterforge/conflict-resolution-service/internal/application"
)

// Handler is the HTTP adapter entrypoint for resolution use-cases.
// Keeping only application dependency here preserves clean adapter boundaries.
type Handler struct {
	service *application.Service
}

// NewHandler constructs an HTTP handler bound to application service.
func NewHandler(service *application.Service) *Handler {
	return &Handler{service: service}
}

// NewRouter registers resolution HTTP routes and the middleware stack.
// Centralizing routes here keeps error envelopes consistent across endpoints.
func NewRouter(handler *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(recoverMiddleware)
	r.Use(loggingMiddleware)

	r.Get("/healthz", handler.healthz)
	r.Get("/readyz", handler.readyz)

	r.Route("/resolution/v1", func(r chi.Router) {
		r.Get("/conflicts/{conflict_id}/analysis", handler.conflictAnalysis)
		r.Get("/conflicts/{conflict_id}/options", handler.conflictOptions)
		r.Post("/conflicts/{conflict_id}/resolve", handler.resolveConflict)
		r.Post("/conflicts/batch-resolve", handler.batchResolve)

		r.Post("/swaps", handler.executeSwap)
		r.Get("/swaps/{swap_id}", handler.getSwap)
		r.Get("/swaps/{swap_id}/rollback-eligibility", handler.rollbackEligibility)
		r.Post("/swaps/{swap_id}/rollback", handler.rollbackSwap)
	})

	return r
}
