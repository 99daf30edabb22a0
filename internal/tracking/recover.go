package tracking

import (
	"fmt"
	"log"
	"time"

	"github.com/lukashondrich/open-workinghours-sub001/internal/models"
)

// RecoverOnStartup rebuilds verification schedules from persisted state
// after a process restart. Sessions whose whole verification window plus
// grace elapsed while the process was down are resolved immediately via
// the exit-by-default rule; the rest get their remaining checks re-armed
// (already-passed offsets fire at once).
func (e *Engine) RecoverOnStartup(grace time.Duration) error {
	pending, err := e.store.ListPendingExitSessions()
	if err != nil {
		return fmt.Errorf("failed to list pending-exit sessions: %w", err)
	}

	now := e.clock.Now().UnixMilli()
	for _, session := range pending {
		e.recoverSession(session, now, grace)
	}

	if len(pending) > 0 {
		log.Printf("[Engine] reconciled %d pending-exit session(s) on startup", len(pending))
	}
	return nil
}

func (e *Engine) recoverSession(stale *models.TrackingSession, now int64, grace time.Duration) {
	lock := e.locks.get(stale.SiteID)
	lock.Lock()
	defer lock.Unlock()

	session, err := e.store.GetSession(stale.ID)
	if err != nil {
		log.Printf("[Engine] recovery failed to load session %s: %v", stale.ID, err)
		return
	}
	if session == nil || session.State != models.SessionStatePendingExit {
		return
	}

	if session.PendingExitAt == nil {
		// unreachable through the engine; repair by reverting to active
		// and let the next transition decide
		session.State = models.SessionStateActive
		if err := e.store.UpdateSession(session); err != nil {
			log.Printf("[Engine] recovery failed to repair session %s: %v", session.ID, err)
			return
		}
		log.Printf("[Engine] recovery reverted session %s with no pending-exit time to active", session.ID)
		return
	}

	site, err := e.sites.GetSite(session.SiteID)
	if err != nil || site == nil {
		log.Printf("[Engine] recovery for session %s: site %s unavailable", session.ID, session.SiteID)
		return
	}

	deadline := *session.PendingExitAt + e.lastOffset().Milliseconds()
	if now > deadline+grace.Milliseconds() {
		// the device never reconfirmed presence within the window
		if err := e.commitExit(session, site, deadline, nil, true); err != nil {
			log.Printf("[Engine] recovery failed to close session %s: %v", session.ID, err)
			return
		}
		log.Printf("[Engine] recovery closed session %s by default, window expired while down", session.ID)
		return
	}

	e.verifier.Schedule(session.ID, *session.PendingExitAt)
	log.Printf("[Engine] recovery re-armed verification for session %s", session.ID)
}
