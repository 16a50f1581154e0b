package mcpserver

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/studyflow/internal/models"
	"github.com/starford/studyflow/internal/testutil"
)

func testServer(t *testing.T) *Server {
	t.Helper()
	s := New(testutil.TestStore(t))
	s.now = func() time.Time {
		return time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	}
	return s
}

func toolReq(args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	if len(res.Content) == 0 {
		t.Fatal("empty tool result")
	}
	text, ok := res.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("unexpected content type %T", res.Content[0])
	}
	return text.Text
}

func TestListSubjects(t *testing.T) {
	s := testServer(t)
	res, err := s.listSubjects(context.Background(), toolReq(nil))
	if err != nil {
		t.Fatal(err)
	}
	if res.IsError {
		t.Fatalf("tool error: %s", resultText(t, res))
	}

	var subjects []models.Subject
	if err := json.Unmarshal([]byte(resultText(t, res)), &subjects); err != nil {
		t.Fatal(err)
	}
	if len(subjects) != 1 || subjects[0].Name != "Computer Science 101" {
		t.Errorf("subjects = %+v", subjects)
	}
}

func TestGetNextExam(t *testing.T) {
	s := testServer(t)

	res, err := s.getNextExam(context.Background(), toolReq(nil))
	if err != nil {
		t.Fatal(err)
	}
	if got := resultText(t, res); got != "no upcoming exam" {
		t.Errorf("result = %q", got)
	}

	_ = s.store.ReplaceExams([]models.Exam{
		{ID: "e1", SubjectID: "sub_1", Date: "2025-01-08", Title: "Quiz", Importance: models.ImportanceMedium},
	})

	res, err = s.getNextExam(context.Background(), toolReq(nil))
	if err != nil {
		t.Fatal(err)
	}
	text := resultText(t, res)
	if !strings.Contains(text, `"daysLeft": 7`) {
		t.Errorf("result = %s", text)
	}
	if !strings.Contains(text, "Computer Science 101") {
		t.Errorf("subject name missing: %s", text)
	}
}

func TestMarkSessionDone(t *testing.T) {
	s := testServer(t)
	_ = s.store.ReplaceSchedule([]models.StudySession{
		{ID: "x1", Date: "2025-01-01", TopicIDs: []string{}, Type: models.SessionNew},
	})

	res, err := s.markSessionDone(context.Background(), toolReq(map[string]any{"id": "x1"}))
	if err != nil {
		t.Fatal(err)
	}
	if res.IsError {
		t.Fatalf("tool error: %s", resultText(t, res))
	}

	data, _ := s.store.Snapshot()
	if !data.Schedule[0].IsDone {
		t.Error("session not toggled")
	}

	// Missing argument surfaces as a tool error, not a transport error.
	res, err = s.markSessionDone(context.Background(), toolReq(nil))
	if err != nil {
		t.Fatal(err)
	}
	if !res.IsError {
		t.Error("missing id should be a tool error")
	}
}

func TestImportPlanRoundTrip(t *testing.T) {
	s := testServer(t)
	sessions := `[{"dayOffset":1,"startTime":"09:00","endTime":"10:30","subjectId":"sub_1","topicIds":["t1"],"type":"New","reasoning":"start early"}]`

	res, err := s.importPlan(context.Background(), toolReq(map[string]any{
		"sessions":  sessions,
		"startDate": "2025-01-01",
	}))
	if err != nil {
		t.Fatal(err)
	}
	if res.IsError {
		t.Fatalf("tool error: %s", resultText(t, res))
	}
	if got := resultText(t, res); got != "imported 1 sessions" {
		t.Errorf("result = %q", got)
	}

	data, _ := s.store.Snapshot()
	if len(data.Schedule) != 1 {
		t.Fatalf("schedule = %+v", data.Schedule)
	}
	got := data.Schedule[0]
	if got.Date != "2025-01-02" || got.DayOfWeek != "Thursday" {
		t.Errorf("session = %+v", got)
	}
	if got.Notes != "start early" {
		t.Errorf("notes = %q", got.Notes)
	}
}

func TestImportPlanRejectsMalformed(t *testing.T) {
	s := testServer(t)
	_ = s.store.ReplaceSchedule([]models.StudySession{
		{ID: "keep", Date: "2025-01-01", TopicIDs: []string{}, Type: models.SessionNew},
	})

	cases := map[string]string{
		"not json":       `{"oops`,
		"missing field":  `[{"dayOffset":0,"endTime":"10:00","subjectId":"s","topicIds":[],"type":"New"}]`,
		"bad time":       `[{"dayOffset":0,"startTime":"9am","endTime":"10:00","subjectId":"s","topicIds":[],"type":"New"}]`,
		"unknown type":   `[{"dayOffset":0,"startTime":"09:00","endTime":"10:00","subjectId":"s","topicIds":[],"type":"Cramming"}]`,
		"null dayOffset": `[{"startTime":"09:00","endTime":"10:00","subjectId":"s","topicIds":[],"type":"New"}]`,
	}
	for name, payload := range cases {
		res, err := s.importPlan(context.Background(), toolReq(map[string]any{"sessions": payload}))
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if !res.IsError {
			t.Errorf("%s: expected tool error", name)
		}
	}

	// None of the rejected imports may have touched the schedule.
	data, _ := s.store.Snapshot()
	if len(data.Schedule) != 1 || data.Schedule[0].ID != "keep" {
		t.Errorf("schedule changed: %+v", data.Schedule)
	}
}

func TestImportPlanBadStartDate(t *testing.T) {
	s := testServer(t)
	res, err := s.importPlan(context.Background(), toolReq(map[string]any{
		"sessions":  `[]`,
		"startDate": "January 1st",
	}))
	if err != nil {
		t.Fatal(err)
	}
	if !res.IsError {
		t.Error("expected tool error for unparseable startDate")
	}
}

func TestGetPlanContract(t *testing.T) {
	s := testServer(t)
	res, err := s.getPlanContract(context.Background(), toolReq(nil))
	if err != nil {
		t.Fatal(err)
	}
	text := resultText(t, res)
	if !strings.Contains(text, "dayOffset") || !strings.Contains(text, "fails the ENTIRE import") {
		t.Errorf("contract missing key terms: %s", text)
	}
}

func TestPlanFormatResource(t *testing.T) {
	s := testServer(t)
	contents, err := s.readPlanFormatResource(context.Background(), mcp.ReadResourceRequest{})
	if err != nil {
		t.Fatal(err)
	}
	if len(contents) != 1 {
		t.Fatalf("contents = %d", len(contents))
	}
	tc, ok := contents[0].(mcp.TextResourceContents)
	if !ok {
		t.Fatalf("unexpected contents type %T", contents[0])
	}
	if tc.URI != "studyflow://plan-format" || tc.Text != PlanFormatContract {
		t.Error("resource does not serve the contract")
	}
}
