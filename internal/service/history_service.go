package service

import (
	"fmt"

	"github.com/lukashondrich/open-workinghours-sub001/internal/models"
	"github.com/lukashondrich/open-workinghours-sub001/internal/repository"
)

// HistoryService serves the audit query surface: past sessions and the
// transition event log.
type HistoryService struct {
	sessions *repository.SessionRepository
	events   *repository.EventRepository
}

// NewHistoryService creates a new history service
func NewHistoryService(sessions *repository.SessionRepository, events *repository.EventRepository) *HistoryService {
	return &HistoryService{
		sessions: sessions,
		events:   events,
	}
}

// SessionsOverlapping retrieves sessions overlapping the filter window,
// newest first. Sessions below the minimum-duration floor are excluded
// unless the filter asks for them.
func (s *HistoryService) SessionsOverlapping(filter models.SessionFilter) ([]*models.TrackingSession, error) {
	if filter.Start > 0 && filter.End > 0 && filter.Start >= filter.End {
		return nil, fmt.Errorf("start must be before end")
	}
	return s.sessions.Query(filter)
}

// GetSession retrieves one session by ID, or nil when it does not exist
func (s *HistoryService) GetSession(id string) (*models.TrackingSession, error) {
	return s.sessions.GetByID(id)
}

// ListEvents retrieves transition events matching the filter, newest
// first. Ignored events are included; they are the audit trail.
func (s *HistoryService) ListEvents(filter models.EventFilter) ([]models.TransitionEvent, error) {
	return s.events.List(filter)
}
