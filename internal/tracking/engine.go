package tracking

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lukashondrich/open-workinghours-sub001/internal/clock"
	"github.com/lukashondrich/open-workinghours-sub001/internal/location"
	"github.com/lukashondrich/open-workinghours-sub001/internal/models"
	"github.com/lukashondrich/open-workinghours-sub001/internal/notify"
)

// EngineOptions carries the engine tunables. Zero values are not usable;
// main builds this from loaded configuration and tests set fields
// explicitly.
type EngineOptions struct {
	Cooldown                     time.Duration
	HighConfidenceAccuracyMeters float64
	ExitMarginMeters             float64
	PoorAccuracyCutoffMeters     float64
	MinimumSessionDuration       time.Duration
	VerificationOffsets          []time.Duration
}

// Engine turns raw geofence transitions and manual commands into the
// authoritative session record. All state transitions for one site are
// serialized behind that site's lock; sites never lock each other.
type Engine struct {
	store      Store
	sites      SiteSource
	positions  location.Provider
	notifier   notify.Notifier
	clock      clock.Clock
	opts       EngineOptions
	debounce   *Debouncer
	confidence ConfidenceEvaluator
	verifier   *ExitVerifier

	locks siteLocks
}

// NewEngine wires the engine and its verification scheduler.
func NewEngine(store Store, sites SiteSource, positions location.Provider, notifier notify.Notifier, clk clock.Clock, opts EngineOptions) *Engine {
	e := &Engine{
		store:     store,
		sites:     sites,
		positions: positions,
		notifier:  notifier,
		clock:     clk,
		opts:      opts,
		debounce:  NewDebouncer(store, opts.Cooldown),
		confidence: ConfidenceEvaluator{
			HighAccuracyMeters: opts.HighConfidenceAccuracyMeters,
			ExitMarginMeters:   opts.ExitMarginMeters,
		},
	}
	e.verifier = NewExitVerifier(clk, opts.VerificationOffsets, e.runVerificationCheck)
	return e
}

// Verifier exposes the exit verification scheduler.
func (e *Engine) Verifier() *ExitVerifier {
	return e.verifier
}

// Stop releases all verification timers. Pending episodes are rebuilt
// from persisted state by RecoverOnStartup on the next start.
func (e *Engine) Stop() {
	e.verifier.StopAll()
}

// HandleTransition runs one raw transition through debouncing and the
// session state machine. The returned event reports whether the
// transition was accepted or recorded as ignored.
func (e *Engine) HandleTransition(raw models.RawTransition) (*models.TransitionEvent, error) {
	site, err := e.sites.GetSite(raw.SiteID)
	if err != nil {
		return nil, fmt.Errorf("failed to load site: %w", err)
	}
	if site == nil {
		return nil, ErrSiteNotFound
	}
	if !site.Active {
		return nil, ErrSiteInactive
	}

	lock := e.locks.get(site.ID)
	lock.Lock()
	defer lock.Unlock()

	event := &models.TransitionEvent{
		ID:           uuid.New().String(),
		SiteID:       site.ID,
		EventType:    raw.EventType,
		OccurredAt:   raw.Timestamp,
		Latitude:     raw.Latitude,
		Longitude:    raw.Longitude,
		Accuracy:     raw.Accuracy,
		IgnoreReason: models.IgnoreReasonNone,
	}

	// Accuracy beyond the cutoff is noise, not signal.
	if raw.Accuracy != nil && *raw.Accuracy > e.opts.PoorAccuracyCutoffMeters {
		return e.recordIgnored(event, models.IgnoreReasonPoorAccuracy)
	}

	accepted, err := e.debounce.ShouldAccept(site.ID, raw.Timestamp)
	if err != nil {
		return nil, err
	}
	if !accepted {
		return e.recordIgnored(event, models.IgnoreReasonSignalDegradation)
	}

	switch raw.EventType {
	case models.EventTypeEnter:
		return e.handleEnter(site, event)
	case models.EventTypeExit:
		return e.handleExit(site, event)
	default:
		return nil, fmt.Errorf("unknown event type %q", raw.EventType)
	}
}

// recordIgnored persists an event that will not reach the state machine.
func (e *Engine) recordIgnored(event *models.TransitionEvent, reason string) (*models.TransitionEvent, error) {
	event.Ignored = true
	event.IgnoreReason = reason
	if err := e.store.AppendEvent(event); err != nil {
		return nil, fmt.Errorf("failed to record ignored event: %w", err)
	}
	log.Printf("[Engine] ignored %s for site %s: %s", event.EventType, event.SiteID, reason)
	return event, nil
}

// handleEnter applies an accepted enter. Caller holds the site lock.
func (e *Engine) handleEnter(site *models.Site, event *models.TransitionEvent) (*models.TransitionEvent, error) {
	open, err := e.store.GetOpenSession(site.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load open session: %w", err)
	}

	switch {
	case open == nil:
		if err := e.store.AppendEvent(event); err != nil {
			return nil, fmt.Errorf("failed to record event: %w", err)
		}

		session := &models.TrackingSession{
			ID:              uuid.New().String(),
			SiteID:          site.ID,
			State:           models.SessionStateActive,
			TrackingMethod:  models.TrackingMethodAuto,
			ClockInAt:       event.OccurredAt,
			CheckinAccuracy: event.Accuracy,
		}
		if err := e.store.CreateSession(session); err != nil {
			return nil, fmt.Errorf("failed to create session: %w", err)
		}

		log.Printf("[Engine] session %s started at site %s", session.ID, site.ID)
		e.notifier.Notify(notify.Message{
			Kind:      notify.KindClockedIn,
			SiteID:    site.ID,
			SiteName:  site.Name,
			SessionID: session.ID,
			At:        session.ClockInAt,
		})
		return event, nil

	case open.State == models.SessionStatePendingExit:
		// re-entry before verification resolved; the exit was a false trigger
		if err := e.store.AppendEvent(event); err != nil {
			return nil, fmt.Errorf("failed to record event: %w", err)
		}

		open.State = models.SessionStateActive
		open.PendingExitAt = nil
		if err := e.store.UpdateSession(open); err != nil {
			return nil, fmt.Errorf("failed to reactivate session: %w", err)
		}
		e.verifier.Cancel(open.ID)

		log.Printf("[Engine] re-entry cancelled pending exit for session %s", open.ID)
		return event, nil

	default:
		// the site already has an active session; duplicate crossing report
		return e.recordIgnored(event, models.IgnoreReasonSignalDegradation)
	}
}

// handleExit applies an accepted exit. Caller holds the site lock.
func (e *Engine) handleExit(site *models.Site, event *models.TransitionEvent) (*models.TransitionEvent, error) {
	open, err := e.store.GetOpenSession(site.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load open session: %w", err)
	}
	if open == nil {
		return e.recordIgnored(event, models.IgnoreReasonNoSession)
	}
	if open.State == models.SessionStatePendingExit {
		// already winding down; a repeat exit adds nothing
		return e.recordIgnored(event, models.IgnoreReasonSignalDegradation)
	}

	if err := e.store.AppendEvent(event); err != nil {
		return nil, fmt.Errorf("failed to record event: %w", err)
	}

	pendingAt := event.OccurredAt
	open.State = models.SessionStatePendingExit
	open.PendingExitAt = &pendingAt
	if err := e.store.UpdateSession(open); err != nil {
		return nil, fmt.Errorf("failed to mark session pending exit: %w", err)
	}

	// A trustworthy out-of-range fix on the event itself commits without
	// waiting for verification.
	if event.Latitude != nil && event.Longitude != nil && event.Accuracy != nil {
		sample := models.PositionSample{
			Latitude:   *event.Latitude,
			Longitude:  *event.Longitude,
			Accuracy:   *event.Accuracy,
			RecordedAt: event.OccurredAt,
		}
		if e.confidence.Evaluate(sample, *site) == VerdictOutside {
			if err := e.commitExit(open, site, event.OccurredAt, &sample, false); err != nil {
				return nil, err
			}
			return event, nil
		}
	}

	e.verifier.Schedule(open.ID, pendingAt)
	log.Printf("[Engine] exit pending for session %s, verification scheduled", open.ID)
	return event, nil
}

// ClockIn opens a manual session at the site. Fails with
// ErrSessionConflict while the site has an open session. Manual commands
// work on deactivated sites; only automatic monitoring is switched off.
func (e *Engine) ClockIn(siteID string) (*models.TrackingSession, error) {
	site, err := e.sites.GetSite(siteID)
	if err != nil {
		return nil, fmt.Errorf("failed to load site: %w", err)
	}
	if site == nil {
		return nil, ErrSiteNotFound
	}

	lock := e.locks.get(siteID)
	lock.Lock()
	defer lock.Unlock()

	open, err := e.store.GetOpenSession(siteID)
	if err != nil {
		return nil, fmt.Errorf("failed to load open session: %w", err)
	}
	if open != nil {
		return nil, ErrSessionConflict
	}

	session := &models.TrackingSession{
		ID:             uuid.New().String(),
		SiteID:         siteID,
		State:          models.SessionStateActive,
		TrackingMethod: models.TrackingMethodManual,
		ClockInAt:      e.clock.Now().UnixMilli(),
	}
	if err := e.store.CreateSession(session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	log.Printf("[Engine] manual clock-in at site %s, session %s", siteID, session.ID)
	e.notifier.Notify(notify.Message{
		Kind:      notify.KindClockedIn,
		SiteID:    siteID,
		SiteName:  site.Name,
		SessionID: session.ID,
		At:        session.ClockInAt,
	})
	return session, nil
}

// ClockOut completes the site's open session at the current time,
// bypassing exit verification. Fails with ErrNoActiveSession when the
// site has no open session.
func (e *Engine) ClockOut(siteID string) (*models.TrackingSession, error) {
	site, err := e.sites.GetSite(siteID)
	if err != nil {
		return nil, fmt.Errorf("failed to load site: %w", err)
	}
	if site == nil {
		return nil, ErrSiteNotFound
	}

	lock := e.locks.get(siteID)
	lock.Lock()
	defer lock.Unlock()

	open, err := e.store.GetOpenSession(siteID)
	if err != nil {
		return nil, fmt.Errorf("failed to load open session: %w", err)
	}
	if open == nil {
		return nil, ErrNoActiveSession
	}

	if open.State == models.SessionStatePendingExit {
		e.verifier.Cancel(open.ID)
	}

	if err := e.commitExit(open, site, e.clock.Now().UnixMilli(), nil, false); err != nil {
		return nil, err
	}
	log.Printf("[Engine] manual clock-out closed session %s", open.ID)
	return open, nil
}

// ActiveSession returns the site's open session, or nil when there is
// none.
func (e *Engine) ActiveSession(siteID string) (*models.TrackingSession, error) {
	return e.store.GetOpenSession(siteID)
}

// commitExit completes a session at clockOutAt. Caller holds the site
// lock. The notification goes out only after the store acknowledges the
// write.
func (e *Engine) commitExit(session *models.TrackingSession, site *models.Site, clockOutAt int64, sample *models.PositionSample, byDefault bool) error {
	clockOut := clockOutAt
	duration := models.ComputeDurationMinutes(session.ClockInAt, clockOut)

	session.State = models.SessionStateCompleted
	session.ClockOutAt = &clockOut
	session.PendingExitAt = nil
	session.DurationMinutes = &duration
	session.ExitByDefault = byDefault
	session.BelowMinimum = time.Duration(clockOut-session.ClockInAt)*time.Millisecond < e.opts.MinimumSessionDuration
	if sample != nil {
		accuracy := sample.Accuracy
		session.ExitAccuracy = &accuracy
	}

	if err := e.store.UpdateSession(session); err != nil {
		return fmt.Errorf("failed to complete session: %w", err)
	}

	log.Printf("[Engine] session %s completed, duration %dmin (exit_by_default=%t below_minimum=%t)",
		session.ID, duration, byDefault, session.BelowMinimum)
	e.notifier.Notify(notify.Message{
		Kind:            notify.KindClockedOut,
		SiteID:          session.SiteID,
		SiteName:        site.Name,
		SessionID:       session.ID,
		At:              clockOut,
		DurationMinutes: &duration,
		ExitByDefault:   byDefault,
	})
	return nil
}

// runVerificationCheck is the verifier's check callback. It grades the
// freshest available position against the session's site and commits,
// cancels, or lets the schedule continue.
func (e *Engine) runVerificationCheck(sessionID string, pendingExitAt int64, attempt int, last bool) bool {
	session, err := e.store.GetSession(sessionID)
	if err != nil {
		log.Printf("[Engine] verification check for session %s failed to load session: %v", sessionID, err)
		return false
	}
	if session == nil {
		return true
	}

	lock := e.locks.get(session.SiteID)
	lock.Lock()
	defer lock.Unlock()

	// Reload under the lock; the episode may have resolved meanwhile.
	session, err = e.store.GetSession(sessionID)
	if err != nil {
		log.Printf("[Engine] verification check for session %s failed to load session: %v", sessionID, err)
		return false
	}
	if session == nil {
		return true
	}
	if session.State != models.SessionStatePendingExit ||
		session.PendingExitAt == nil || *session.PendingExitAt != pendingExitAt {
		return true
	}

	site, err := e.sites.GetSite(session.SiteID)
	if err != nil || site == nil {
		log.Printf("[Engine] verification check for session %s: site %s unavailable", sessionID, session.SiteID)
		return false
	}

	sample, err := e.positions.CurrentPosition()
	if err != nil {
		log.Printf("[Engine] verification check %d for session %s: %v", attempt+1, sessionID, err)
		if last {
			return e.defaultExit(session, site, nil)
		}
		return false
	}

	switch e.confidence.Evaluate(*sample, *site) {
	case VerdictOutside:
		if err := e.commitExit(session, site, sample.RecordedAt, sample, false); err != nil {
			log.Printf("[Engine] failed to commit verified exit for session %s: %v", sessionID, err)
			return false
		}
		return true

	case VerdictInside:
		// still on site; the exit was a false trigger
		session.State = models.SessionStateActive
		session.PendingExitAt = nil
		if err := e.store.UpdateSession(session); err != nil {
			log.Printf("[Engine] failed to reactivate session %s: %v", sessionID, err)
			return false
		}
		log.Printf("[Engine] verification found session %s still on site, pending exit cancelled", sessionID)
		return true

	default:
		if last {
			return e.defaultExit(session, site, sample)
		}
		return false
	}
}

// defaultExit resolves an exhausted verification schedule: the exit is
// committed at the final check's deadline, flagged exit-by-default.
// Caller holds the site lock.
func (e *Engine) defaultExit(session *models.TrackingSession, site *models.Site, sample *models.PositionSample) bool {
	clockOut := *session.PendingExitAt + e.lastOffset().Milliseconds()
	if err := e.commitExit(session, site, clockOut, sample, true); err != nil {
		log.Printf("[Engine] failed to commit default exit for session %s: %v", session.ID, err)
		return false
	}
	return true
}

func (e *Engine) lastOffset() time.Duration {
	return e.opts.VerificationOffsets[len(e.opts.VerificationOffsets)-1]
}

// siteLocks hands out one mutex per site id. Sites are independent; no
// operation ever holds two site locks.
type siteLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func (l *siteLocks) get(siteID string) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.locks == nil {
		l.locks = make(map[string]*sync.Mutex)
	}
	m, ok := l.locks[siteID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[siteID] = m
	}
	return m
}
