package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/starford/studyflow/internal/apperr"
	"github.com/starford/studyflow/internal/models"
	"github.com/starford/studyflow/internal/planservice"
	"github.com/starford/studyflow/internal/store"
	"github.com/starford/studyflow/internal/views"
)

// ChangePublisher notifies connected clients about collection changes.
type ChangePublisher interface {
	PublishChange(collection string)
}

// Handler holds API route handlers.
type Handler struct {
	store  *store.Store
	plans  *planservice.Service
	events ChangePublisher // may be nil
	now    func() time.Time
}

// NewHandler creates a new Handler. events may be nil when no SSE broker
// is attached (tests, MCP-only mode).
func NewHandler(st *store.Store, plans *planservice.Service, events ChangePublisher) *Handler {
	return &Handler{store: st, plans: plans, events: events, now: time.Now}
}

func (h *Handler) publish(collection string) {
	if h.events != nil {
		h.events.PublishChange(collection)
	}
}

// GetData handles GET /api/data.
func (h *Handler) GetData(w http.ResponseWriter, _ *http.Request) {
	data, sum := h.store.Snapshot()
	writeJSON(w, http.StatusOK, DataResponse{Data: data, Checksum: sum})
}

// ReplaceSubjects handles PUT /api/subjects. The body is the complete
// desired collection; there are no partial-merge semantics.
func (h *Handler) ReplaceSubjects(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 10<<20)
	var subjects []models.Subject
	if err := json.NewDecoder(r.Body).Decode(&subjects); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if err := h.store.ReplaceSubjects(subjects); err != nil {
		slog.Error("replace subjects failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	h.publish("subjects")
	h.GetData(w, r)
}

// ReplaceBusyBlocks handles PUT /api/busy-blocks.
func (h *Handler) ReplaceBusyBlocks(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 10<<20)
	var blocks []models.BusyBlock
	if err := json.NewDecoder(r.Body).Decode(&blocks); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if err := h.store.ReplaceBusyBlocks(blocks); err != nil {
		slog.Error("replace busy blocks failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	h.publish("busyblocks")
	h.GetData(w, r)
}

// ReplaceExams handles PUT /api/exams.
func (h *Handler) ReplaceExams(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 10<<20)
	var exams []models.Exam
	if err := json.NewDecoder(r.Body).Decode(&exams); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if err := h.store.ReplaceExams(exams); err != nil {
		slog.Error("replace exams failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	h.publish("exams")
	h.GetData(w, r)
}

// ReplaceSchedule handles PUT /api/schedule.
func (h *Handler) ReplaceSchedule(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 10<<20)
	var schedule []models.StudySession
	if err := json.NewDecoder(r.Body).Decode(&schedule); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if err := h.store.ReplaceSchedule(schedule); err != nil {
		slog.Error("replace schedule failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	h.publish("schedule")
	h.GetData(w, r)
}

// UpdatePreferences handles PUT /api/preferences.
func (h *Handler) UpdatePreferences(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var prefs models.UserPreferences
	if err := json.NewDecoder(r.Body).Decode(&prefs); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if err := h.store.UpdatePreferences(prefs); err != nil {
		slog.Error("update preferences failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	h.publish("preferences")
	h.GetData(w, r)
}

// ToggleSession handles POST /api/sessions/{id}/toggle. Unknown ids are
// a no-op, matching the store contract.
func (h *Handler) ToggleSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("id is required"))
		return
	}
	if err := h.store.ToggleSessionDone(id); err != nil {
		slog.Error("toggle session failed", slog.String("id", id), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	h.publish("schedule")
	w.WriteHeader(http.StatusNoContent)
}

// ToggleTopic handles POST /api/subjects/{subjectID}/topics/{topicID}/toggle.
func (h *Handler) ToggleTopic(w http.ResponseWriter, r *http.Request) {
	subjectID := chi.URLParam(r, "subjectID")
	topicID := chi.URLParam(r, "topicID")
	if subjectID == "" || topicID == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("subject and topic ids are required"))
		return
	}
	if err := h.store.ToggleTopicDone(subjectID, topicID); err != nil {
		slog.Error("toggle topic failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	h.publish("subjects")
	w.WriteHeader(http.StatusNoContent)
}

// GetAgenda handles GET /api/agenda.
func (h *Handler) GetAgenda(w http.ResponseWriter, _ *http.Request) {
	data, _ := h.store.Snapshot()
	now := h.now()

	sessions := views.TodayAgenda(data, now)
	items := make([]AgendaItem, len(sessions))
	for i, s := range sessions {
		items[i] = AgendaItem{
			Session:     s,
			SubjectName: views.SubjectName(data, s.SubjectID),
			TopicNames:  views.TopicNames(data, s.SubjectID, s.TopicIDs),
		}
	}
	writeJSON(w, http.StatusOK, AgendaResponse{
		Date:     now.Format(models.CivilDate),
		Sessions: items,
	})
}

// GetProgress handles GET /api/progress.
func (h *Handler) GetProgress(w http.ResponseWriter, _ *http.Request) {
	data, _ := h.store.Snapshot()

	subjects := make([]SubjectProgressItem, len(data.Subjects))
	for i, s := range data.Subjects {
		subjects[i] = SubjectProgressItem{
			SubjectID: s.ID,
			Name:      s.Name,
			Percent:   views.SubjectProgress(s),
		}
	}
	writeJSON(w, http.StatusOK, ProgressResponse{
		Percent:  views.Progress(data),
		Subjects: subjects,
	})
}

// GetNextExam handles GET /api/exams/next.
func (h *Handler) GetNextExam(w http.ResponseWriter, _ *http.Request) {
	data, _ := h.store.Snapshot()
	now := h.now()

	exam, ok := views.NextExam(data, now)
	if !ok {
		writeJSON(w, http.StatusNotFound, errorBody("no upcoming exam"))
		return
	}
	writeJSON(w, http.StatusOK, NextExamResponse{
		Exam:        exam,
		SubjectName: views.SubjectName(data, exam.SubjectID),
		DaysLeft:    views.DaysLeft(exam, now),
	})
}

// GeneratePlan handles POST /api/plan. While one generation is in
// flight, further requests are rejected with 409; any collaborator
// failure is a single retryable 502 with local state untouched.
func (h *Handler) GeneratePlan(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req GeneratePlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}

	sessions, err := h.plans.GeneratePlan(r.Context(), req.Days)
	if err != nil {
		switch {
		case errors.Is(err, apperr.ErrPlanInFlight):
			writeJSON(w, http.StatusConflict, errorBody("plan generation already in progress"))
		case errors.Is(err, apperr.ErrMalformedPlan):
			slog.Error("plan import rejected", slog.String("error", err.Error()))
			writeJSON(w, http.StatusBadGateway, errorBody("planner returned a malformed plan, please retry"))
		default:
			slog.Error("plan generation failed", slog.String("error", err.Error()))
			writeJSON(w, http.StatusBadGateway, errorBody("plan generation failed, please retry"))
		}
		return
	}

	h.publish("schedule")
	writeJSON(w, http.StatusOK, GeneratePlanResponse{Sessions: sessions})
}

// GetQuote handles GET /api/quote. Never fails: collaborator errors
// degrade to a static fallback inside the plan service.
func (h *Handler) GetQuote(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, QuoteResponse{Quote: h.plans.Quote(r.Context())})
}
