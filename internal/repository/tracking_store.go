package repository

import (
	"database/sql"

	"github.com/lukashondrich/open-workinghours-sub001/internal/models"
)

// TrackingStore composes the session and event repositories into the
// engine's persistence contract (tracking.Store).
type TrackingStore struct {
	sessions *SessionRepository
	events   *EventRepository
}

// NewTrackingStore creates a tracking store over the given database
func NewTrackingStore(db *sql.DB) *TrackingStore {
	return &TrackingStore{
		sessions: NewSessionRepository(db),
		events:   NewEventRepository(db),
	}
}

func (s *TrackingStore) GetSession(id string) (*models.TrackingSession, error) {
	return s.sessions.GetByID(id)
}

func (s *TrackingStore) GetOpenSession(siteID string) (*models.TrackingSession, error) {
	return s.sessions.GetOpenBySite(siteID)
}

func (s *TrackingStore) CreateSession(session *models.TrackingSession) error {
	return s.sessions.Create(session)
}

func (s *TrackingStore) UpdateSession(session *models.TrackingSession) error {
	return s.sessions.Update(session)
}

func (s *TrackingStore) ListPendingExitSessions() ([]*models.TrackingSession, error) {
	return s.sessions.ListPendingExit()
}

func (s *TrackingStore) QuerySessions(filter models.SessionFilter) ([]*models.TrackingSession, error) {
	return s.sessions.Query(filter)
}

func (s *TrackingStore) AppendEvent(event *models.TransitionEvent) error {
	return s.events.Append(event)
}

func (s *TrackingStore) LatestAcceptedEventAt(siteID string) (int64, error) {
	return s.events.LatestAcceptedAt(siteID)
}
