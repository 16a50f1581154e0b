// Package models defines the domain types for StudyFlow.
package models

import (
	"fmt"
	"time"
)

// Difficulty grades how demanding a subject is.
type Difficulty string

// Difficulty levels.
const (
	DifficultyEasy   Difficulty = "Easy"
	DifficultyMedium Difficulty = "Medium"
	DifficultyHard   Difficulty = "Hard"
)

// TopicStatus tracks how a topic should be approached next.
// It is advisory and may diverge from Topic.Completed.
type TopicStatus string

// Topic statuses.
const (
	TopicNew       TopicStatus = "New"
	TopicRevision  TopicStatus = "Revision"
	TopicPractice  TopicStatus = "Practice"
	TopicCompleted TopicStatus = "Completed"
)

// SessionType is the kind of work a study session covers.
// Unlike TopicStatus it never takes the "Completed" value.
type SessionType string

// Session types.
const (
	SessionNew      SessionType = "New"
	SessionRevision SessionType = "Revision"
	SessionPractice SessionType = "Practice"
)

// BlockType categorizes a recurring busy block.
type BlockType string

// Busy block types.
const (
	BlockClass    BlockType = "Class"
	BlockTuition  BlockType = "Tuition"
	BlockPersonal BlockType = "Personal"
	BlockSleep    BlockType = "Sleep"
)

// Importance ranks an exam.
type Importance string

// Exam importance levels.
const (
	ImportanceLow    Importance = "Low"
	ImportanceMedium Importance = "Medium"
	ImportanceHigh   Importance = "High"
)

// Topic is a unit of study owned by exactly one subject.
type Topic struct {
	ID             string      `json:"id"`
	Name           string      `json:"name"`
	EstimatedHours float64     `json:"estimatedHours"`
	Status         TopicStatus `json:"status"`
	Completed      bool        `json:"completed"`
}

// Subject groups topics under a name, difficulty, and display color.
type Subject struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Code       string     `json:"code,omitempty"`
	Difficulty Difficulty `json:"difficulty"`
	Color      string     `json:"color"`
	Topics     []Topic    `json:"topics"`
}

// BusyBlock is a recurring weekly interval during which no study
// can be scheduled. Times are zero-padded "HH:mm", 24-hour.
type BusyBlock struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Day       string    `json:"day"` // weekday name, "Monday".."Sunday"
	StartTime string    `json:"startTime"`
	EndTime   string    `json:"endTime"`
	Type      BlockType `json:"type"`
}

// Exam is a dated assessment for a subject. SubjectID may dangle after
// the subject is deleted; lookups fall back to a label instead of failing.
type Exam struct {
	ID         string     `json:"id"`
	SubjectID  string     `json:"subjectId"`
	Date       string     `json:"date"` // ISO date
	Title      string     `json:"title"`
	Importance Importance `json:"importance"`
}

// StudySession is one scheduled, dated study interval.
type StudySession struct {
	ID        string      `json:"id"`
	Date      string      `json:"date"` // ISO date
	DayOfWeek string      `json:"dayOfWeek"`
	StartTime string      `json:"startTime"`
	EndTime   string      `json:"endTime"`
	SubjectID string      `json:"subjectId"`
	TopicIDs  []string    `json:"topicIds"`
	Type      SessionType `json:"type"`
	IsDone    bool        `json:"isDone"`
	Notes     string      `json:"notes,omitempty"`
}

// UserPreferences holds the single per-user planning preferences value.
type UserPreferences struct {
	MaxHoursPerDay     int `json:"maxHoursPerDay"`
	PreferredStartHour int `json:"preferredStartHour"` // 0-23
	PreferredEndHour   int `json:"preferredEndHour"`   // 0-23
}

// AppData is the root aggregate and the exact shape of the persisted
// JSON document.
type AppData struct {
	Subjects    []Subject       `json:"subjects"`
	BusyBlocks  []BusyBlock     `json:"busyBlocks"`
	Exams       []Exam          `json:"exams"`
	Schedule    []StudySession  `json:"schedule"`
	Preferences UserPreferences `json:"preferences"`
}

// Clone returns a deep copy so callers never alias store-owned slices.
func (d AppData) Clone() AppData {
	out := d
	out.Subjects = make([]Subject, len(d.Subjects))
	for i, s := range d.Subjects {
		out.Subjects[i] = s
		out.Subjects[i].Topics = append([]Topic(nil), s.Topics...)
	}
	out.BusyBlocks = append([]BusyBlock(nil), d.BusyBlocks...)
	out.Exams = append([]Exam(nil), d.Exams...)
	out.Schedule = make([]StudySession, len(d.Schedule))
	for i, s := range d.Schedule {
		out.Schedule[i] = s
		out.Schedule[i].TopicIDs = append([]string(nil), s.TopicIDs...)
	}
	return out
}

// CivilDate is the canonical on-disk date layout.
const CivilDate = "2006-01-02"

// ParseDate parses an entity date string. Both plain civil dates and
// RFC 3339 timestamps occur in persisted documents, so both are accepted.
func ParseDate(s string) (time.Time, error) {
	if t, err := time.Parse(CivilDate, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("models: unparseable date %q", s)
}

// DayName returns the English weekday label for t ("Monday".."Sunday").
func DayName(t time.Time) string {
	return t.Weekday().String()
}
