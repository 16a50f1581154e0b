package api

import "github.com/starford/studyflow/internal/models"

// DataResponse is the full state snapshot with its checksum.
type DataResponse struct {
	Data     models.AppData `json:"data"`
	Checksum string         `json:"checksum"`
}

// AgendaItem is one session of today's agenda with references resolved
// for display. Dangling ids degrade to fallback labels.
type AgendaItem struct {
	Session     models.StudySession `json:"session"`
	SubjectName string              `json:"subjectName"`
	TopicNames  []string            `json:"topicNames"`
}

// AgendaResponse wraps today's agenda.
type AgendaResponse struct {
	Date     string       `json:"date"`
	Sessions []AgendaItem `json:"sessions"`
}

// SubjectProgressItem is per-subject topic completion.
type SubjectProgressItem struct {
	SubjectID string `json:"subjectId"`
	Name      string `json:"name"`
	Percent   int    `json:"percent"`
}

// ProgressResponse aggregates schedule and per-subject completion.
type ProgressResponse struct {
	Percent  int                   `json:"percent"`
	Subjects []SubjectProgressItem `json:"subjects"`
}

// NextExamResponse is the earliest upcoming exam.
type NextExamResponse struct {
	Exam        models.Exam `json:"exam"`
	SubjectName string      `json:"subjectName"`
	DaysLeft    int         `json:"daysLeft"`
}

// GeneratePlanRequest is the request body for plan generation.
type GeneratePlanRequest struct {
	Days int `json:"days"`
}

// GeneratePlanResponse carries the freshly imported schedule.
type GeneratePlanResponse struct {
	Sessions []models.StudySession `json:"sessions"`
}

// QuoteResponse wraps the affirmation string.
type QuoteResponse struct {
	Quote string `json:"quote"`
}
