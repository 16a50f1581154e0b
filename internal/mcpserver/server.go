// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes StudyFlow state and planning tools for LLM integration
// via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/studyflow/internal/models"
	"github.com/starford/studyflow/internal/planner"
	"github.com/starford/studyflow/internal/store"
	"github.com/starford/studyflow/internal/views"
)

// Server wraps the MCP server with StudyFlow tools.
type Server struct {
	mcp   *server.MCPServer
	store *store.Store
	now   func() time.Time
}

// New creates a new MCP server with all StudyFlow tools registered.
func New(st *store.Store) *Server {
	s := &Server{store: st, now: time.Now}

	s.mcp = server.NewMCPServer(
		"StudyFlow",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_subjects",
		mcp.WithDescription("List all subjects with their topics and completion flags."),
	), s.listSubjects)

	s.mcp.AddTool(mcp.NewTool("list_exams",
		mcp.WithDescription("List all exams with dates and importance."),
	), s.listExams)

	s.mcp.AddTool(mcp.NewTool("list_busy_blocks",
		mcp.WithDescription("List recurring weekly busy blocks that plans must avoid."),
	), s.listBusyBlocks)

	s.mcp.AddTool(mcp.NewTool("get_next_exam",
		mcp.WithDescription("Get the earliest upcoming exam and the days remaining until it."),
	), s.getNextExam)

	s.mcp.AddTool(mcp.NewTool("get_today_agenda",
		mcp.WithDescription("Get today's study sessions sorted by start time."),
	), s.getTodayAgenda)

	s.mcp.AddTool(mcp.NewTool("get_progress",
		mcp.WithDescription("Get overall schedule completion and per-subject topic completion percentages."),
	), s.getProgress)

	s.mcp.AddTool(mcp.NewTool("mark_session_done",
		mcp.WithDescription("Toggle the done flag of a study session. Unknown ids are a no-op."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Study session id")),
	), s.markSessionDone)

	s.mcp.AddTool(mcp.NewTool("import_plan",
		mcp.WithDescription("Replace the whole schedule with a proposed plan. "+
			"The plan MUST follow the plan format contract; read it first via the "+
			"get_plan_contract tool or the studyflow://plan-format resource. "+
			"The import is all-or-nothing."),
		mcp.WithString("sessions", mcp.Required(), mcp.Description("JSON array of proposed-session records")),
		mcp.WithString("startDate", mcp.Description("Anchor date YYYY-MM-DD; defaults to today")),
	), s.importPlan)

	s.mcp.AddTool(mcp.NewTool("get_plan_contract",
		mcp.WithDescription("Returns the canonical plan format contract. "+
			"Call this before importing a plan to ensure correct structure."),
	), s.getPlanContract)

	// Resource: plan format contract.
	s.mcp.AddResource(
		mcp.NewResource("studyflow://plan-format", "Plan Format Contract",
			mcp.WithResourceDescription("Canonical proposed-session record format for plan imports."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readPlanFormatResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) listSubjects(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	data, _ := s.store.Snapshot()
	out, _ := json.MarshalIndent(data.Subjects, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) listExams(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	data, _ := s.store.Snapshot()
	out, _ := json.MarshalIndent(data.Exams, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) listBusyBlocks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	data, _ := s.store.Snapshot()
	out, _ := json.MarshalIndent(data.BusyBlocks, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) getNextExam(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	data, _ := s.store.Snapshot()
	now := s.now()
	exam, ok := views.NextExam(data, now)
	if !ok {
		return mcp.NewToolResultText("no upcoming exam"), nil
	}
	out, _ := json.MarshalIndent(map[string]any{
		"exam":        exam,
		"subjectName": views.SubjectName(data, exam.SubjectID),
		"daysLeft":    views.DaysLeft(exam, now),
	}, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) getTodayAgenda(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	data, _ := s.store.Snapshot()
	sessions := views.TodayAgenda(data, s.now())
	out, _ := json.MarshalIndent(sessions, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) getProgress(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	data, _ := s.store.Snapshot()
	perSubject := map[string]int{}
	for _, sub := range data.Subjects {
		perSubject[sub.Name] = views.SubjectProgress(sub)
	}
	out, _ := json.MarshalIndent(map[string]any{
		"schedulePercent": views.Progress(data),
		"subjectPercent":  perSubject,
	}, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) markSessionDone(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.store.ToggleSessionDone(id); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("toggled: %s", id)), nil
}

func (s *Server) importPlan(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := req.RequireString("sessions")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	anchor := s.now()
	if ds, dsErr := req.RequireString("startDate"); dsErr == nil && ds != "" {
		parsed, parseErr := time.Parse(models.CivilDate, ds)
		if parseErr != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid startDate: %s", ds)), nil
		}
		anchor = parsed
	}

	var records []planner.ProposedSession
	if err := json.Unmarshal([]byte(raw), &records); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("sessions is not a valid JSON array: %v", err)), nil
	}

	sessions, err := planner.BuildSessions(anchor, records)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.store.ReplaceSchedule(sessions); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("imported %d sessions", len(sessions))), nil
}

func (s *Server) getPlanContract(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(PlanFormatContract), nil
}

func (s *Server) readPlanFormatResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "studyflow://plan-format",
			MIMEType: "text/markdown",
			Text:     PlanFormatContract,
		},
	}, nil
}
