// Package planservice coordinates the state store and the external
// planning collaborator.
package planservice

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/starford/studyflow/internal/apperr"
	"github.com/starford/studyflow/internal/models"
	"github.com/starford/studyflow/internal/planner"
	"github.com/starford/studyflow/internal/store"
)

// QuoteFallback is returned whenever the quote collaborator fails.
const QuoteFallback = "Focus on the process, not the outcome."

// DefaultPlanDays is the horizon used when the caller does not pick one.
const DefaultPlanDays = 7

// Service owns plan generation and quote retrieval.
type Service struct {
	store    *store.Store
	collab   planner.Collaborator
	inFlight atomic.Bool
}

// NewService creates a plan service.
func NewService(st *store.Store, collab planner.Collaborator) *Service {
	return &Service{store: st, collab: collab}
}

// GeneratePlan asks the collaborator for a schedule covering the given
// number of days starting today and replaces the schedule with the
// validated result. Exactly one generation may be in flight at a time;
// concurrent calls fail with apperr.ErrPlanInFlight. On any failure the
// existing schedule is left untouched — never a partial import.
func (s *Service) GeneratePlan(ctx context.Context, days int) ([]models.StudySession, error) {
	if days <= 0 {
		days = DefaultPlanDays
	}
	if !s.inFlight.CompareAndSwap(false, true) {
		return nil, apperr.ErrPlanInFlight
	}
	defer s.inFlight.Store(false)

	data, _ := s.store.Snapshot()
	start := time.Now()
	req := planner.NewRequest(data, start, days)

	records, err := s.collab.ProposePlan(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("plan generation failed: %w", err)
	}

	sessions, err := planner.BuildSessions(start, records)
	if err != nil {
		return nil, err
	}

	if err := s.store.ReplaceSchedule(sessions); err != nil {
		return nil, err
	}
	slog.Info("plan generated",
		slog.Int("days", days),
		slog.Int("sessions", len(sessions)))
	return sessions, nil
}

// InFlight reports whether a generation is currently running.
func (s *Service) InFlight() bool {
	return s.inFlight.Load()
}

// Quote returns a short affirmation. Collaborator failures degrade to a
// static fallback and are never visible to the caller.
func (s *Service) Quote(ctx context.Context) string {
	q, err := s.collab.MotivationalQuote(ctx)
	if err != nil {
		slog.Debug("quote fallback", slog.String("error", err.Error()))
		return QuoteFallback
	}
	return q
}
