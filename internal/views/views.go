// Package views computes derived, never-persisted values from AppData.
// Every function is pure: the same data and the same "now" always yield
// the same result.
package views

import (
	"math"
	"sort"
	"time"

	"github.com/starford/studyflow/internal/models"
)

// UnknownSubjectLabel is the fallback for dangling subject references.
const UnknownSubjectLabel = "Unknown Subject"

// TodayAgenda returns the sessions scheduled on now's calendar date,
// sorted ascending by start time. HH:mm is zero-padded, so lexicographic
// order is chronological order.
func TodayAgenda(data models.AppData, now time.Time) []models.StudySession {
	y, m, d := now.Date()
	out := []models.StudySession{}
	for _, s := range data.Schedule {
		t, err := models.ParseDate(s.Date)
		if err != nil {
			continue
		}
		sy, sm, sd := t.Date()
		if sy == y && sm == m && sd == d {
			out = append(out, s)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].StartTime < out[j].StartTime
	})
	return out
}

// Progress returns overall schedule completion as a whole percent.
// An empty schedule counts as 0%, never a division error.
func Progress(data models.AppData) int {
	total := len(data.Schedule)
	if total == 0 {
		total = 1
	}
	done := 0
	for _, s := range data.Schedule {
		if s.IsDone {
			done++
		}
	}
	return int(math.Round(float64(done) / float64(total) * 100))
}

// SubjectProgress returns per-topic completion for one subject as a
// whole percent, independent of the schedule.
func SubjectProgress(subject models.Subject) int {
	total := len(subject.Topics)
	if total == 0 {
		total = 1
	}
	done := 0
	for _, t := range subject.Topics {
		if t.Completed {
			done++
		}
	}
	return int(math.Round(float64(done) / float64(total) * 100))
}

// NextExam returns the exam with the earliest date on or after now's
// calendar date. Ties keep original list order. ok is false when no
// exam qualifies.
func NextExam(data models.AppData, now time.Time) (exam models.Exam, ok bool) {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	var bestDate time.Time
	for _, e := range data.Exams {
		t, err := models.ParseDate(e.Date)
		if err != nil {
			continue
		}
		d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, now.Location())
		if d.Before(today) {
			continue
		}
		if !ok || d.Before(bestDate) {
			exam, bestDate, ok = e, d, true
		}
	}
	return exam, ok
}

// DaysLeft returns the number of whole days from now until the exam
// date, rounded up and clamped at zero. Unparseable dates yield zero.
func DaysLeft(exam models.Exam, now time.Time) int {
	t, err := models.ParseDate(exam.Date)
	if err != nil {
		return 0
	}
	d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, now.Location())
	days := int(math.Ceil(d.Sub(now).Hours() / 24))
	if days < 0 {
		return 0
	}
	return days
}

// SubjectName resolves a subject id for display. Dangling references
// get a fallback label, never an error.
func SubjectName(data models.AppData, subjectID string) string {
	for _, s := range data.Subjects {
		if s.ID == subjectID {
			return s.Name
		}
	}
	return UnknownSubjectLabel
}

// TopicNames resolves topic ids within a subject for display. Unknown
// ids fall back to the raw id so a session never renders empty.
func TopicNames(data models.AppData, subjectID string, topicIDs []string) []string {
	byID := map[string]string{}
	for _, s := range data.Subjects {
		if s.ID != subjectID {
			continue
		}
		for _, t := range s.Topics {
			byID[t.ID] = t.Name
		}
	}
	out := make([]string, len(topicIDs))
	for i, id := range topicIDs {
		if name, ok := byID[id]; ok {
			out[i] = name
		} else {
			out[i] = id
		}
	}
	return out
}
