package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/starford/studyflow/internal/models"
	"github.com/starford/studyflow/internal/planner"
	"github.com/starford/studyflow/internal/planservice"
	"github.com/starford/studyflow/internal/store"
	"github.com/starford/studyflow/internal/testutil"
)

type scriptedCollaborator struct {
	records []planner.ProposedSession
	planErr error
	quote   string
}

func (s *scriptedCollaborator) ProposePlan(_ context.Context, _ planner.Request) ([]planner.ProposedSession, error) {
	if s.planErr != nil {
		return nil, s.planErr
	}
	return s.records, nil
}

func (s *scriptedCollaborator) MotivationalQuote(_ context.Context) (string, error) {
	if s.quote == "" {
		return "", errors.New("no quote")
	}
	return s.quote, nil
}

func testEnv(t *testing.T, collab planner.Collaborator) (*store.Store, http.Handler) {
	t.Helper()
	if collab == nil {
		collab = &scriptedCollaborator{}
	}
	st := testutil.TestStore(t)
	plans := planservice.NewService(st, collab)
	router := NewRouter(st, plans, nil, false, "", nil)
	return st, router
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
	return v
}

func TestGetData(t *testing.T) {
	_, router := testEnv(t, nil)
	w := doJSON(t, router, http.MethodGet, "/data", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	resp := decode[DataResponse](t, w)
	if len(resp.Data.Subjects) != 1 {
		t.Errorf("subjects = %+v", resp.Data.Subjects)
	}
	if resp.Checksum == "" {
		t.Error("checksum missing")
	}
}

func TestReplaceSubjects(t *testing.T) {
	st, router := testEnv(t, nil)

	subjects := []models.Subject{{ID: "s9", Name: "Physics", Difficulty: models.DifficultyHard, Color: "#000", Topics: []models.Topic{}}}
	w := doJSON(t, router, http.MethodPut, "/subjects", subjects)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", w.Code, w.Body.String())
	}

	data, _ := st.Snapshot()
	if len(data.Subjects) != 1 || data.Subjects[0].ID != "s9" {
		t.Errorf("subjects = %+v", data.Subjects)
	}
}

func TestReplaceSubjectsBadJSON(t *testing.T) {
	_, router := testEnv(t, nil)
	req := httptest.NewRequest(http.MethodPut, "/subjects", bytes.NewBufferString("{nope"))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestToggleSession(t *testing.T) {
	st, router := testEnv(t, nil)
	_ = st.ReplaceSchedule([]models.StudySession{{ID: "x1", Date: "2025-01-01", TopicIDs: []string{}, Type: models.SessionNew}})

	w := doJSON(t, router, http.MethodPost, "/sessions/x1/toggle", nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("status = %d", w.Code)
	}
	data, _ := st.Snapshot()
	if !data.Schedule[0].IsDone {
		t.Error("session not toggled")
	}

	// Unknown ids are a no-op, still 204.
	w = doJSON(t, router, http.MethodPost, "/sessions/ghost/toggle", nil)
	if w.Code != http.StatusNoContent {
		t.Errorf("status = %d", w.Code)
	}
}

func TestToggleTopic(t *testing.T) {
	st, router := testEnv(t, nil)
	w := doJSON(t, router, http.MethodPost, "/subjects/sub_1/topics/t1/toggle", nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("status = %d", w.Code)
	}
	data, _ := st.Snapshot()
	if !data.Subjects[0].Topics[0].Completed {
		t.Error("topic not toggled")
	}
}

func TestAgendaFiltersAndResolvesLabels(t *testing.T) {
	st, router := testEnv(t, nil)
	today := time.Now().Format(models.CivilDate)
	tomorrow := time.Now().AddDate(0, 0, 1).Format(models.CivilDate)

	_ = st.ReplaceSchedule([]models.StudySession{
		{ID: "b", Date: today, StartTime: "14:00", SubjectID: "ghost", TopicIDs: []string{}, Type: models.SessionNew},
		{ID: "c", Date: tomorrow, StartTime: "08:00", SubjectID: "sub_1", TopicIDs: []string{}, Type: models.SessionNew},
		{ID: "a", Date: today, StartTime: "09:00", SubjectID: "sub_1", TopicIDs: []string{"t1"}, Type: models.SessionNew},
	})

	w := doJSON(t, router, http.MethodGet, "/agenda", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	resp := decode[AgendaResponse](t, w)
	if len(resp.Sessions) != 2 {
		t.Fatalf("sessions = %d, want 2", len(resp.Sessions))
	}
	if resp.Sessions[0].Session.ID != "a" || resp.Sessions[1].Session.ID != "b" {
		t.Errorf("order = %s, %s", resp.Sessions[0].Session.ID, resp.Sessions[1].Session.ID)
	}
	if resp.Sessions[0].SubjectName != "Computer Science 101" {
		t.Errorf("subject name = %q", resp.Sessions[0].SubjectName)
	}
	if resp.Sessions[0].TopicNames[0] != "Data Structures" {
		t.Errorf("topic names = %v", resp.Sessions[0].TopicNames)
	}
	// Dangling subject reference degrades, never errors.
	if resp.Sessions[1].SubjectName != "Unknown Subject" {
		t.Errorf("fallback name = %q", resp.Sessions[1].SubjectName)
	}
}

func TestProgressEndpoint(t *testing.T) {
	st, router := testEnv(t, nil)
	_ = st.ReplaceSchedule([]models.StudySession{
		{ID: "a", Date: "2025-01-01", TopicIDs: []string{}, Type: models.SessionNew, IsDone: true},
		{ID: "b", Date: "2025-01-01", TopicIDs: []string{}, Type: models.SessionNew},
	})

	w := doJSON(t, router, http.MethodGet, "/progress", nil)
	resp := decode[ProgressResponse](t, w)
	if resp.Percent != 50 {
		t.Errorf("percent = %d, want 50", resp.Percent)
	}
	if len(resp.Subjects) != 1 || resp.Subjects[0].Percent != 0 {
		t.Errorf("subjects = %+v", resp.Subjects)
	}
}

func TestNextExamEndpoint(t *testing.T) {
	st, router := testEnv(t, nil)

	w := doJSON(t, router, http.MethodGet, "/exams/next", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404 with no exams", w.Code)
	}

	soon := time.Now().AddDate(0, 0, 3).Format(models.CivilDate)
	later := time.Now().AddDate(0, 0, 30).Format(models.CivilDate)
	_ = st.ReplaceExams([]models.Exam{
		{ID: "far", SubjectID: "sub_1", Date: later, Title: "Final", Importance: models.ImportanceHigh},
		{ID: "near", SubjectID: "sub_1", Date: soon, Title: "Quiz", Importance: models.ImportanceLow},
	})

	w = doJSON(t, router, http.MethodGet, "/exams/next", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	resp := decode[NextExamResponse](t, w)
	if resp.Exam.ID != "near" {
		t.Errorf("next exam = %s", resp.Exam.ID)
	}
	if resp.DaysLeft != 3 {
		t.Errorf("days left = %d, want 3", resp.DaysLeft)
	}
}

func TestGeneratePlanSuccess(t *testing.T) {
	off := 0
	collab := &scriptedCollaborator{records: []planner.ProposedSession{{
		DayOffset: &off,
		StartTime: "09:00",
		EndTime:   "10:00",
		SubjectID: "sub_1",
		TopicIDs:  []string{"t1"},
		Type:      "New",
	}}}
	st, router := testEnv(t, collab)

	w := doJSON(t, router, http.MethodPost, "/plan", GeneratePlanRequest{Days: 7})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", w.Code, w.Body.String())
	}
	resp := decode[GeneratePlanResponse](t, w)
	if len(resp.Sessions) != 1 {
		t.Fatalf("sessions = %d", len(resp.Sessions))
	}
	data, _ := st.Snapshot()
	if len(data.Schedule) != 1 {
		t.Errorf("schedule = %+v", data.Schedule)
	}
}

func TestGeneratePlanFailureKeepsSchedule(t *testing.T) {
	collab := &scriptedCollaborator{planErr: errors.New("upstream down")}
	st, router := testEnv(t, collab)
	_ = st.ReplaceSchedule([]models.StudySession{{ID: "keep", Date: "2025-01-01", TopicIDs: []string{}, Type: models.SessionNew}})

	w := doJSON(t, router, http.MethodPost, "/plan", GeneratePlanRequest{Days: 7})
	if w.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", w.Code)
	}
	data, _ := st.Snapshot()
	if len(data.Schedule) != 1 || data.Schedule[0].ID != "keep" {
		t.Errorf("schedule changed on failure: %+v", data.Schedule)
	}
}

func TestQuoteEndpointAlwaysSucceeds(t *testing.T) {
	_, router := testEnv(t, &scriptedCollaborator{}) // quote errors
	w := doJSON(t, router, http.MethodGet, "/quote", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	resp := decode[QuoteResponse](t, w)
	if resp.Quote != planservice.QuoteFallback {
		t.Errorf("quote = %q, want fallback", resp.Quote)
	}
}

func TestAuthToken(t *testing.T) {
	st := testutil.TestStore(t)
	plans := planservice.NewService(st, &scriptedCollaborator{})
	router := NewRouter(st, plans, nil, true, "secret", nil)

	req := httptest.NewRequest(http.MethodGet, "/data", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("no token: status = %d, want 401", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/data", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("bad token: status = %d, want 401", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/data", nil)
	req.Header.Set("Authorization", "Bearer secret")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("good token: status = %d, want 200", w.Code)
	}
}
