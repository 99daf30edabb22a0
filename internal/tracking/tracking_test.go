package tracking

import (
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/lukashondrich/open-workinghours-sub001/internal/clock"
	"github.com/lukashondrich/open-workinghours-sub001/internal/location"
	"github.com/lukashondrich/open-workinghours-sub001/internal/models"
	"github.com/lukashondrich/open-workinghours-sub001/internal/notify"
	"github.com/lukashondrich/open-workinghours-sub001/internal/spatial"
)

// fakeClock is a manually advanced clock. Timers fire synchronously on
// the goroutine calling Advance, in deadline order.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
}

type fakeTimer struct {
	clk      *fakeClock
	deadline time.Time
	f        func()
	stopped  bool
	fired    bool
}

func newFakeClock(at time.Time) *fakeClock {
	return &fakeClock{now: at}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) clock.Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{clk: c, deadline: c.now.Add(d), f: f}
	c.timers = append(c.timers, t)
	return t
}

func (t *fakeTimer) Stop() bool {
	t.clk.mu.Lock()
	defer t.clk.mu.Unlock()
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

// Advance moves the clock forward and fires every due timer, including
// timers armed while firing (overdue schedules catch up in one call).
func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()

	for {
		c.mu.Lock()
		var next *fakeTimer
		for _, t := range c.timers {
			if t.stopped || t.fired || t.deadline.After(c.now) {
				continue
			}
			if next == nil || t.deadline.Before(next.deadline) {
				next = t
			}
		}
		if next == nil {
			c.mu.Unlock()
			return
		}
		next.fired = true
		f := next.f
		c.mu.Unlock()
		f()
	}
}

// memStore is an in-memory Store. Reads hand out copies, so engine-side
// mutations only become visible through UpdateSession, matching the
// database-backed store.
type memStore struct {
	mu       sync.Mutex
	sessions map[string]*models.TrackingSession
	events   []*models.TransitionEvent

	createErr error
	updateErr error
	appendErr error
}

func newMemStore() *memStore {
	return &memStore{sessions: make(map[string]*models.TrackingSession)}
}

func (s *memStore) GetSession(id string) (*models.TrackingSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, nil
	}
	c := *sess
	return &c, nil
}

func (s *memStore) GetOpenSession(siteID string) (*models.TrackingSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sess := range s.sessions {
		if sess.SiteID == siteID && sess.IsOpen() {
			c := *sess
			return &c, nil
		}
	}
	return nil, nil
}

func (s *memStore) CreateSession(session *models.TrackingSession) error {
	if s.createErr != nil {
		return s.createErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *session
	s.sessions[session.ID] = &c
	return nil
}

func (s *memStore) UpdateSession(session *models.TrackingSession) error {
	if s.updateErr != nil {
		return s.updateErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *session
	s.sessions[session.ID] = &c
	return nil
}

func (s *memStore) ListPendingExitSessions() ([]*models.TrackingSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.TrackingSession
	for _, sess := range s.sessions {
		if sess.State == models.SessionStatePendingExit {
			c := *sess
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ClockInAt < out[j].ClockInAt })
	return out, nil
}

func (s *memStore) QuerySessions(filter models.SessionFilter) ([]*models.TrackingSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.TrackingSession
	for _, sess := range s.sessions {
		c := *sess
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ClockInAt > out[j].ClockInAt })
	return out, nil
}

func (s *memStore) AppendEvent(event *models.TransitionEvent) error {
	if s.appendErr != nil {
		return s.appendErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *event
	s.events = append(s.events, &c)
	return nil
}

func (s *memStore) LatestAcceptedEventAt(siteID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var latest int64
	for _, ev := range s.events {
		if ev.SiteID == siteID && !ev.Ignored && ev.OccurredAt > latest {
			latest = ev.OccurredAt
		}
	}
	return latest, nil
}

func (s *memStore) eventCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}

func (s *memStore) lastEvent() *models.TransitionEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.events) == 0 {
		return nil
	}
	c := *s.events[len(s.events)-1]
	return &c
}

type memSites struct {
	mu sync.Mutex
	m  map[string]*models.Site
}

func (s *memSites) GetSite(id string) (*models.Site, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	site, ok := s.m[id]
	if !ok {
		return nil, nil
	}
	c := *site
	return &c, nil
}

type memNotifier struct {
	mu   sync.Mutex
	msgs []notify.Message
}

func (n *memNotifier) Notify(msg notify.Message) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.msgs = append(n.msgs, msg)
}

func (n *memNotifier) kinds() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, len(n.msgs))
	for i, m := range n.msgs {
		out[i] = m.Kind
	}
	return out
}

func (n *memNotifier) last() (notify.Message, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.msgs) == 0 {
		return notify.Message{}, false
	}
	return n.msgs[len(n.msgs)-1], true
}

// Test site: 100m radius in central Berlin.
const (
	testSiteID  = "site-1"
	testSiteLat = 52.5200
	testSiteLon = 13.4050
)

func testSites() *memSites {
	return &memSites{m: map[string]*models.Site{
		testSiteID: {
			ID:           testSiteID,
			Name:         "Depot North",
			Latitude:     testSiteLat,
			Longitude:    testSiteLon,
			RadiusMeters: 100,
			Active:       true,
		},
		"site-2": {
			ID:           "site-2",
			Name:         "Depot South",
			Latitude:     52.4500,
			Longitude:    13.3900,
			RadiusMeters: 150,
			Active:       true,
		},
		"site-off": {
			ID:           "site-off",
			Name:         "Closed Yard",
			Latitude:     52.4000,
			Longitude:    13.3000,
			RadiusMeters: 100,
			Active:       false,
		},
	}}
}

func testOptions() EngineOptions {
	return EngineOptions{
		Cooldown:                     10 * time.Second,
		HighConfidenceAccuracyMeters: 50,
		ExitMarginMeters:             25,
		PoorAccuracyCutoffMeters:     200,
		MinimumSessionDuration:       5 * time.Minute,
		VerificationOffsets:          []time.Duration{1 * time.Minute, 3 * time.Minute, 5 * time.Minute},
	}
}

// newTestEngine builds an engine over in-memory fakes and a simulated
// position provider, with the clock parked at 08:00 UTC.
func newTestEngine(t *testing.T) (*Engine, *fakeClock) {
	t.Helper()
	clk := newFakeClock(time.Date(2025, 6, 2, 8, 0, 0, 0, time.UTC))
	engine := NewEngine(newMemStore(), testSites(), location.NewSimulator(clk), &memNotifier{}, clk, testOptions())
	return engine, clk
}

func enterAt(siteID string, at time.Time) models.RawTransition {
	return models.RawTransition{SiteID: siteID, EventType: models.EventTypeEnter, Timestamp: at.UnixMilli()}
}

func exitAt(siteID string, at time.Time) models.RawTransition {
	return models.RawTransition{SiteID: siteID, EventType: models.EventTypeExit, Timestamp: at.UnixMilli()}
}

func withFix(raw models.RawTransition, lat, lon, accuracy float64) models.RawTransition {
	raw.Latitude = &lat
	raw.Longitude = &lon
	raw.Accuracy = &accuracy
	return raw
}

func withAccuracy(raw models.RawTransition, accuracy float64) models.RawTransition {
	raw.Accuracy = &accuracy
	return raw
}

// outsidePoint returns coordinates the given distance beyond the site's
// radius, due east of the center.
func outsidePoint(site models.Site, beyondMeters float64) (float64, float64) {
	return spatial.DestinationPoint(site.Latitude, site.Longitude, 90, site.RadiusMeters+beyondMeters)
}

func openSession(t *testing.T, e *Engine, siteID string) *models.TrackingSession {
	t.Helper()
	session, err := e.ActiveSession(siteID)
	if err != nil {
		t.Fatalf("ActiveSession: %v", err)
	}
	if session == nil {
		t.Fatalf("expected an open session at %s", siteID)
	}
	return session
}
