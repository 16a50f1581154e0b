// Package store holds the single AppData aggregate and mediates every
// mutation. All mutations replace whole collections and persist the full
// state; callers always receive deep-copied snapshots.
package store

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/starford/studyflow/internal/checksum"
	"github.com/starford/studyflow/internal/models"
	"github.com/starford/studyflow/internal/storage"
)

// Store is the single writer over the application state.
type Store struct {
	mu       sync.RWMutex
	provider storage.Provider
	data     models.AppData
	sum      string // checksum of the last marshalled state
	loaded   bool   // gates persistence until the first successful Load
}

// New creates a Store over the given provider. Call Load before use.
func New(p storage.Provider) *Store {
	return &Store{provider: p}
}

// DefaultData returns the starter dataset used when no document exists
// or the persisted one cannot be parsed.
func DefaultData() models.AppData {
	return models.AppData{
		Subjects: []models.Subject{
			{
				ID:         "sub_1",
				Name:       "Computer Science 101",
				Difficulty: models.DifficultyMedium,
				Color:      "#6366f1",
				Topics: []models.Topic{
					{ID: "t1", Name: "Data Structures", EstimatedHours: 2, Status: models.TopicNew},
					{ID: "t2", Name: "Algorithms", EstimatedHours: 3, Status: models.TopicNew},
				},
			},
		},
		BusyBlocks: []models.BusyBlock{
			{
				ID:        "b_1",
				Title:     "Morning Classes",
				Day:       "Monday",
				StartTime: "09:00",
				EndTime:   "13:00",
				Type:      models.BlockClass,
			},
		},
		Exams:    []models.Exam{},
		Schedule: []models.StudySession{},
		Preferences: models.UserPreferences{
			MaxHoursPerDay:     6,
			PreferredStartHour: 9,
			PreferredEndHour:   22,
		},
	}
}

// Load rehydrates state from the provider. A missing or unparseable
// document falls back to the default dataset; neither case is an error
// and neither triggers a write (an intentionally absent document must
// survive a plain start-and-stop).
func (s *Store) Load() models.AppData {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data = s.readLocked()
	s.sum = mustSum(s.data)
	s.loaded = true
	return s.data.Clone()
}

// readLocked fetches and decodes the persisted document, falling back
// to defaults. Callers must hold mu.
func (s *Store) readLocked() models.AppData {
	raw, err := s.provider.Load()
	if err != nil {
		// Absent and unreadable are treated alike: start fresh.
		return DefaultData()
	}
	var data models.AppData
	if err := json.Unmarshal(raw, &data); err != nil {
		slog.Warn("store: unparseable state document, using defaults",
			slog.String("error", err.Error()))
		return DefaultData()
	}
	return data
}

// Reload re-reads the document from the provider, replacing in-memory
// state. It reports whether the state actually changed. Used when the
// document is modified outside the process.
func (s *Store) Reload() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data := s.readLocked()
	sum := mustSum(data)
	if sum == s.sum {
		return false, nil
	}
	s.data = data
	s.sum = sum
	return true, nil
}

// Snapshot returns a deep copy of the current state and its checksum.
func (s *Store) Snapshot() (models.AppData, string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.Clone(), s.sum
}

// Checksum returns the checksum of the current marshalled state.
func (s *Store) Checksum() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sum
}

// ReplaceSubjects replaces the whole subject collection.
func (s *Store) ReplaceSubjects(subjects []models.Subject) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.Subjects = subjects
	return s.persistLocked()
}

// ReplaceBusyBlocks replaces the whole busy-block collection.
func (s *Store) ReplaceBusyBlocks(blocks []models.BusyBlock) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.BusyBlocks = blocks
	return s.persistLocked()
}

// ReplaceExams replaces the whole exam collection.
func (s *Store) ReplaceExams(exams []models.Exam) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.Exams = exams
	return s.persistLocked()
}

// ReplaceSchedule replaces the whole schedule.
func (s *Store) ReplaceSchedule(schedule []models.StudySession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.Schedule = schedule
	return s.persistLocked()
}

// UpdatePreferences replaces the preferences value.
func (s *Store) UpdatePreferences(prefs models.UserPreferences) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.Preferences = prefs
	return s.persistLocked()
}

// ToggleSessionDone flips isDone on the session with the given id.
// Unknown ids are a no-op: the schedule stays untouched and nothing
// is written.
func (s *Store) ToggleSessionDone(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.data.Schedule {
		if s.data.Schedule[i].ID == id {
			s.data.Schedule[i].IsDone = !s.data.Schedule[i].IsDone
			return s.persistLocked()
		}
	}
	return nil
}

// ToggleTopicDone flips the completed flag on a topic within a subject.
// Unknown subject or topic ids are a no-op.
func (s *Store) ToggleTopicDone(subjectID, topicID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.data.Subjects {
		if s.data.Subjects[i].ID != subjectID {
			continue
		}
		for j := range s.data.Subjects[i].Topics {
			if s.data.Subjects[i].Topics[j].ID == topicID {
				s.data.Subjects[i].Topics[j].Completed = !s.data.Subjects[i].Topics[j].Completed
				return s.persistLocked()
			}
		}
		return nil
	}
	return nil
}

// persistLocked writes the full state through the provider. Writes are
// suppressed until the first successful Load so that starting the app
// never clobbers an intentionally absent document. Callers must hold mu.
func (s *Store) persistLocked() error {
	raw, err := json.Marshal(s.data)
	if err != nil {
		return fmt.Errorf("store: marshal state: %w", err)
	}
	s.sum = checksum.Sum(raw)
	if !s.loaded {
		return nil
	}
	if err := s.provider.Save(raw); err != nil {
		return fmt.Errorf("store: persist state: %w", err)
	}
	return nil
}

func mustSum(data models.AppData) string {
	raw, err := json.Marshal(data)
	if err != nil {
		// AppData contains only marshalable fields.
		panic(err)
	}
	return checksum.Sum(raw)
}
