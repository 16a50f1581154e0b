// Package planner defines the contract with the external planning
// collaborator and converts its untrusted proposals into study sessions.
package planner

import (
	"context"
	"fmt"
	"regexp"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"github.com/starford/studyflow/internal/apperr"
	"github.com/starford/studyflow/internal/models"
)

// timeOfDay matches zero-padded 24-hour "HH:mm".
var timeOfDay = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)

// ProposedSession is one untrusted record from the planning collaborator.
// Required fields use pointers so that absence is distinguishable from a
// zero value: a missing field is a malformed response, never a default.
type ProposedSession struct {
	DayOffset *int     `json:"dayOffset"` // 0 = start date
	StartTime string   `json:"startTime"` // HH:mm
	EndTime   string   `json:"endTime"`   // HH:mm
	SubjectID string   `json:"subjectId"`
	TopicIDs  []string `json:"topicIds"`
	Type      string   `json:"type"` // New | Revision | Practice
	Reasoning string   `json:"reasoning,omitempty"`
}

// Validate checks structural well-formedness only. Whether the subject
// and topic ids actually exist is deliberately not checked: dangling
// references are tolerated throughout and render with fallback labels.
func (p ProposedSession) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.DayOffset, validation.NotNil, validation.Min(0)),
		validation.Field(&p.StartTime, validation.Required, validation.Match(timeOfDay)),
		validation.Field(&p.EndTime, validation.Required, validation.Match(timeOfDay)),
		validation.Field(&p.SubjectID, validation.Required),
		validation.Field(&p.TopicIDs, validation.NotNil),
		validation.Field(&p.Type, validation.Required, validation.In(
			string(models.SessionNew), string(models.SessionRevision), string(models.SessionPractice))),
	)
}

// SubjectContext is the per-subject slice of state sent to the collaborator.
type SubjectContext struct {
	ID         string            `json:"id"`
	Name       string            `json:"name"`
	Difficulty models.Difficulty `json:"difficulty"`
	Topics     []TopicContext    `json:"topics"`
}

// TopicContext carries the completion flag so the collaborator can plan
// revision versus new learning.
type TopicContext struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	EstimatedHours float64 `json:"estimatedHours"`
	Completed      bool    `json:"completed"`
}

// ExamContext is the exam view sent to the collaborator.
type ExamContext struct {
	SubjectID  string            `json:"subjectId"`
	Title      string            `json:"title"`
	Date       string            `json:"date"`
	Importance models.Importance `json:"importance"`
}

// BusyContext is the busy-block view sent to the collaborator.
type BusyContext struct {
	Day    string `json:"day"`
	Start  string `json:"start"`
	End    string `json:"end"`
	Reason string `json:"reason"`
}

// Request carries everything the collaborator needs for one exchange.
type Request struct {
	Subjects    []SubjectContext
	Exams       []ExamContext
	BusyBlocks  []BusyContext
	Preferences models.UserPreferences
	StartDate   time.Time
	Days        int
}

// NewRequest projects the current state into collaborator context.
func NewRequest(data models.AppData, startDate time.Time, days int) Request {
	req := Request{
		Preferences: data.Preferences,
		StartDate:   startDate,
		Days:        days,
	}
	for _, s := range data.Subjects {
		sc := SubjectContext{ID: s.ID, Name: s.Name, Difficulty: s.Difficulty}
		for _, t := range s.Topics {
			sc.Topics = append(sc.Topics, TopicContext{
				ID:             t.ID,
				Name:           t.Name,
				EstimatedHours: t.EstimatedHours,
				Completed:      t.Completed,
			})
		}
		req.Subjects = append(req.Subjects, sc)
	}
	for _, e := range data.Exams {
		req.Exams = append(req.Exams, ExamContext{
			SubjectID:  e.SubjectID,
			Title:      e.Title,
			Date:       e.Date,
			Importance: e.Importance,
		})
	}
	for _, b := range data.BusyBlocks {
		req.BusyBlocks = append(req.BusyBlocks, BusyContext{
			Day:    b.Day,
			Start:  b.StartTime,
			End:    b.EndTime,
			Reason: b.Title,
		})
	}
	return req
}

// Collaborator is the external planning service, treated as a black box
// that may fail at any time. Exactly one exchange, no retries.
type Collaborator interface {
	// ProposePlan asks for a multi-day schedule proposal.
	ProposePlan(ctx context.Context, req Request) ([]ProposedSession, error)
	// MotivationalQuote returns a short affirmation string.
	MotivationalQuote(ctx context.Context) (string, error)
}

// BuildSessions validates every proposed record and converts the batch
// into study sessions anchored at the given start date. All-or-nothing:
// a single malformed record fails the whole batch and no sessions are
// returned. Beyond structure, proposals are passed through untouched —
// no overlap, max-hours, or referential checks.
func BuildSessions(anchor time.Time, records []ProposedSession) ([]models.StudySession, error) {
	sessions := make([]models.StudySession, 0, len(records))
	for i, rec := range records {
		if err := rec.Validate(); err != nil {
			return nil, fmt.Errorf("%w: record %d: %v", apperr.ErrMalformedPlan, i, err)
		}
		date := anchor.AddDate(0, 0, *rec.DayOffset)
		sessions = append(sessions, models.StudySession{
			ID:        uuid.NewString(),
			Date:      date.Format(models.CivilDate),
			DayOfWeek: models.DayName(date),
			StartTime: rec.StartTime,
			EndTime:   rec.EndTime,
			SubjectID: rec.SubjectID,
			TopicIDs:  append([]string(nil), rec.TopicIDs...),
			Type:      models.SessionType(rec.Type),
			IsDone:    false,
			Notes:     rec.Reasoning,
		})
	}
	return sessions, nil
}
