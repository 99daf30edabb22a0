package tracking

import "github.com/lukashondrich/open-workinghours-sub001/internal/models"

// Store is the persistence contract the engine writes through. The engine
// holds no storage logic of its own; a state transition counts as applied
// only once the store acknowledges the write, so callers may retry a
// failed command without risking double effects.
//
// Lookup methods return (nil, nil) when no row matches.
type Store interface {
	// GetSession loads one session by id.
	GetSession(id string) (*models.TrackingSession, error)

	// GetOpenSession returns the site's session in state active or
	// pending_exit, if any. At most one such session exists per site.
	GetOpenSession(siteID string) (*models.TrackingSession, error)

	CreateSession(session *models.TrackingSession) error
	UpdateSession(session *models.TrackingSession) error

	// ListPendingExitSessions returns every session stuck in
	// pending_exit, in clock-in order. Used by restart reconciliation.
	ListPendingExitSessions() ([]*models.TrackingSession, error)

	// QuerySessions returns completed and open sessions matching the
	// filter, newest first.
	QuerySessions(filter models.SessionFilter) ([]*models.TrackingSession, error)

	// AppendEvent records one transition, accepted or ignored. The event
	// log is write-once.
	AppendEvent(event *models.TransitionEvent) error

	// LatestAcceptedEventAt returns the occurred-at timestamp of the
	// site's most recent accepted event, or 0 when there is none.
	LatestAcceptedEventAt(siteID string) (int64, error)
}

// SiteSource is the slice of the site store the engine reads geometry
// from.
type SiteSource interface {
	// GetSite loads one site by id, or (nil, nil) when unknown.
	GetSite(id string) (*models.Site, error)
}
