package repository

import (
	"testing"
	"time"

	"github.com/lukashondrich/open-workinghours-sub001/internal/models"
)

var sessionBase = time.Date(2025, 6, 2, 8, 0, 0, 0, time.UTC)

func makeSession(id, siteID, state string, clockIn time.Time) *models.TrackingSession {
	return &models.TrackingSession{
		ID:             id,
		SiteID:         siteID,
		State:          state,
		TrackingMethod: models.TrackingMethodAuto,
		ClockInAt:      clockIn.UnixMilli(),
	}
}

func completeSession(s *models.TrackingSession, clockOut time.Time, belowMinimum bool) *models.TrackingSession {
	out := clockOut.UnixMilli()
	duration := models.ComputeDurationMinutes(s.ClockInAt, out)
	s.State = models.SessionStateCompleted
	s.ClockOutAt = &out
	s.PendingExitAt = nil
	s.DurationMinutes = &duration
	s.BelowMinimum = belowMinimum
	return s
}

func createSessions(t *testing.T, repo *SessionRepository, sessions ...*models.TrackingSession) {
	t.Helper()
	for _, s := range sessions {
		if err := repo.Create(s); err != nil {
			t.Fatalf("Create %s: %v", s.ID, err)
		}
	}
}

func TestSessionRepository_CreateAndGet(t *testing.T) {
	db := testDB(t)
	seedSite(t, db, "site-1")
	repo := NewSessionRepository(db)

	accuracy := 12.5
	session := makeSession("s1", "site-1", models.SessionStateActive, sessionBase)
	session.CheckinAccuracy = &accuracy
	createSessions(t, repo, session)

	got, err := repo.GetByID("s1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got == nil {
		t.Fatal("session not found after create")
	}
	if got.SiteID != "site-1" || got.State != models.SessionStateActive {
		t.Errorf("round trip mismatch: %+v", got)
	}
	if got.ClockInAt != sessionBase.UnixMilli() {
		t.Errorf("clock_in_at: want %d, got %d", sessionBase.UnixMilli(), got.ClockInAt)
	}
	if got.CheckinAccuracy == nil || *got.CheckinAccuracy != 12.5 {
		t.Errorf("checkin_accuracy: want 12.5, got %v", got.CheckinAccuracy)
	}
	if got.ClockOutAt != nil || got.PendingExitAt != nil || got.DurationMinutes != nil {
		t.Errorf("nullable fields should stay empty: %+v", got)
	}

	missing, err := repo.GetByID("nope")
	if err != nil {
		t.Fatalf("GetByID missing: %v", err)
	}
	if missing != nil {
		t.Error("want nil for a missing session")
	}
}

func TestSessionRepository_GetOpenBySite(t *testing.T) {
	db := testDB(t)
	seedSite(t, db, "site-1")
	seedSite(t, db, "site-2")
	repo := NewSessionRepository(db)

	closed := completeSession(makeSession("old", "site-1", models.SessionStateActive, sessionBase.Add(-24*time.Hour)), sessionBase.Add(-16*time.Hour), false)
	pending := makeSession("cur", "site-1", models.SessionStatePendingExit, sessionBase)
	pe := sessionBase.Add(4 * time.Hour).UnixMilli()
	pending.PendingExitAt = &pe
	createSessions(t, repo, closed, pending)

	got, err := repo.GetOpenBySite("site-1")
	if err != nil {
		t.Fatalf("GetOpenBySite: %v", err)
	}
	if got == nil || got.ID != "cur" {
		t.Fatalf("want the pending_exit session, got %+v", got)
	}
	if got.PendingExitAt == nil || *got.PendingExitAt != pe {
		t.Errorf("pending_exit_at: want %d, got %v", pe, got.PendingExitAt)
	}

	none, err := repo.GetOpenBySite("site-2")
	if err != nil {
		t.Fatalf("GetOpenBySite empty site: %v", err)
	}
	if none != nil {
		t.Errorf("want nil for a site with no open session, got %+v", none)
	}
}

func TestSessionRepository_OneOpenSessionPerSite(t *testing.T) {
	db := testDB(t)
	seedSite(t, db, "site-1")
	repo := NewSessionRepository(db)

	createSessions(t, repo, makeSession("s1", "site-1", models.SessionStateActive, sessionBase))

	// the partial unique index rejects a second open session
	err := repo.Create(makeSession("s2", "site-1", models.SessionStatePendingExit, sessionBase.Add(time.Hour)))
	if err == nil {
		t.Fatal("second open session for the same site must be rejected")
	}

	// a completed one is fine
	done := completeSession(makeSession("s3", "site-1", models.SessionStateActive, sessionBase.Add(-24*time.Hour)), sessionBase.Add(-16*time.Hour), false)
	if err := repo.Create(done); err != nil {
		t.Errorf("completed session alongside an open one: %v", err)
	}
}

func TestSessionRepository_Update(t *testing.T) {
	db := testDB(t)
	seedSite(t, db, "site-1")
	repo := NewSessionRepository(db)

	session := makeSession("s1", "site-1", models.SessionStateActive, sessionBase)
	createSessions(t, repo, session)

	pe := sessionBase.Add(8 * time.Hour).UnixMilli()
	session.State = models.SessionStatePendingExit
	session.PendingExitAt = &pe
	if err := repo.Update(session); err != nil {
		t.Fatalf("Update to pending_exit: %v", err)
	}

	exitAccuracy := 20.0
	completeSession(session, sessionBase.Add(8*time.Hour+time.Minute), false)
	session.ExitAccuracy = &exitAccuracy
	if err := repo.Update(session); err != nil {
		t.Fatalf("Update: %v", err)
	}

	got, err := repo.GetByID("s1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.State != models.SessionStateCompleted {
		t.Errorf("state: want completed, got %s", got.State)
	}
	if got.DurationMinutes == nil || *got.DurationMinutes != 481 {
		t.Errorf("duration: want 481, got %v", got.DurationMinutes)
	}
	if got.ExitAccuracy == nil || *got.ExitAccuracy != 20 {
		t.Errorf("exit_accuracy: want 20, got %v", got.ExitAccuracy)
	}
	if got.PendingExitAt != nil {
		t.Errorf("pending_exit_at: want cleared after completion, got %d", *got.PendingExitAt)
	}
}

func TestSessionRepository_ListPendingExit(t *testing.T) {
	db := testDB(t)
	seedSite(t, db, "site-1")
	seedSite(t, db, "site-2")
	seedSite(t, db, "site-3")
	repo := NewSessionRepository(db)

	p1 := makeSession("p1", "site-2", models.SessionStatePendingExit, sessionBase.Add(time.Hour))
	p2 := makeSession("p2", "site-1", models.SessionStatePendingExit, sessionBase)
	active := makeSession("a1", "site-3", models.SessionStateActive, sessionBase)
	createSessions(t, repo, p1, p2, active)

	pending, err := repo.ListPendingExit()
	if err != nil {
		t.Fatalf("ListPendingExit: %v", err)
	}
	if len(pending) != 2 {
		t.Fatalf("want 2 pending sessions, got %d", len(pending))
	}
	if pending[0].ID != "p2" || pending[1].ID != "p1" {
		t.Errorf("want oldest clock-in first, got %s, %s", pending[0].ID, pending[1].ID)
	}
}

func TestSessionRepository_QueryOverlap(t *testing.T) {
	db := testDB(t)
	seedSite(t, db, "site-1")
	seedSite(t, db, "site-2")
	repo := NewSessionRepository(db)

	// 08:00-16:00 at site-1
	dayShift := completeSession(makeSession("day", "site-1", models.SessionStateActive, sessionBase), sessionBase.Add(8*time.Hour), false)
	// 17:00-17:03 at site-1, under the floor
	blip := completeSession(makeSession("blip", "site-1", models.SessionStateActive, sessionBase.Add(9*time.Hour)), sessionBase.Add(9*time.Hour+3*time.Minute), true)
	// 18:00- at site-2, still open
	night := makeSession("night", "site-2", models.SessionStateActive, sessionBase.Add(10*time.Hour))
	createSessions(t, repo, dayShift, blip, night)

	// window 15:00-19:00: the day shift overlaps, the open session overlaps,
	// the blip is excluded as below minimum
	got, err := repo.Query(models.SessionFilter{
		Start: sessionBase.Add(7 * time.Hour).UnixMilli(),
		End:   sessionBase.Add(11 * time.Hour).UnixMilli(),
	})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(got) != 2 || got[0].ID != "night" || got[1].ID != "day" {
		t.Fatalf("window query: want [night day], got %v", sessionIDs(got))
	}

	// the same window including below-minimum sessions
	got, err = repo.Query(models.SessionFilter{
		Start:               sessionBase.Add(7 * time.Hour).UnixMilli(),
		End:                 sessionBase.Add(11 * time.Hour).UnixMilli(),
		IncludeBelowMinimum: true,
	})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(got) != 3 {
		t.Errorf("with below-minimum: want 3, got %v", sessionIDs(got))
	}

	// a window before everything
	got, err = repo.Query(models.SessionFilter{End: sessionBase.Add(-time.Hour).UnixMilli()})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("pre-dawn window: want none, got %v", sessionIDs(got))
	}

	// a window after the day shift ended
	got, err = repo.Query(models.SessionFilter{Start: sessionBase.Add(8*time.Hour + 30*time.Minute).UnixMilli()})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(got) != 1 || got[0].ID != "night" {
		t.Errorf("late window: want [night], got %v", sessionIDs(got))
	}

	// site filter
	got, err = repo.Query(models.SessionFilter{SiteID: "site-2"})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(got) != 1 || got[0].ID != "night" {
		t.Errorf("site filter: want [night], got %v", sessionIDs(got))
	}

	// limit applies after newest-first ordering
	got, err = repo.Query(models.SessionFilter{Limit: 1, IncludeBelowMinimum: true})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(got) != 1 || got[0].ID != "night" {
		t.Errorf("limit: want [night], got %v", sessionIDs(got))
	}
}

func sessionIDs(sessions []*models.TrackingSession) []string {
	ids := make([]string, len(sessions))
	for i, s := range sessions {
		ids[i] = s.ID
	}
	return ids
}
