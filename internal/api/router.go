package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/studyflow/internal/planservice"
	"github.com/starford/studyflow/internal/store"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(st *store.Store, plans *planservice.Service, events ChangePublisher,
	authEnabled bool, token string, sseHandler http.Handler) chi.Router {

	h := NewHandler(st, plans, events)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Full state snapshot.
	r.Get("/data", h.GetData)

	// Replace-collection operations.
	r.Put("/subjects", h.ReplaceSubjects)
	r.Put("/busy-blocks", h.ReplaceBusyBlocks)
	r.Put("/exams", h.ReplaceExams)
	r.Put("/schedule", h.ReplaceSchedule)
	r.Put("/preferences", h.UpdatePreferences)

	// Session/topic lifecycle.
	r.Post("/sessions/{id}/toggle", h.ToggleSession)
	r.Post("/subjects/{subjectID}/topics/{topicID}/toggle", h.ToggleTopic)

	// Derived views.
	r.Get("/agenda", h.GetAgenda)
	r.Get("/progress", h.GetProgress)
	r.Get("/exams/next", h.GetNextExam)

	// Planning collaborator.
	r.Post("/plan", h.GeneratePlan)
	r.Get("/quote", h.GetQuote)

	// SSE endpoint (protected by the same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
