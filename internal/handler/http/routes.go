package http

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func (h *Handler) Init() *chi.Mux {
	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Use(h.withTraceID)
	router.Use(h.withLogging)

	// every sync route requires a valid bearer token
	router.Group(func(r chi.Router) {
		r.Use(h.auth)

		r.Post("/api/sync/{table}/upsert", h.upsertBatch)
		r.Post("/api/sync/changes", h.changes)
		r.Get("/api/sync/summary", h.summary)
		r.Post("/api/sync/{table}/snapshot", h.snapshot)
		r.Post("/api/sync/{table}/fetch", h.fetchByIDs)
	})

	return router
}
