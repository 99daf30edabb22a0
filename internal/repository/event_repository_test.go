package repository

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/lukashondrich/open-workinghours-sub001/internal/models"
)

func appendEvent(t *testing.T, repo *EventRepository, siteID, eventType string, occurredAt time.Time, ignored bool, reason string) *models.TransitionEvent {
	t.Helper()
	event := &models.TransitionEvent{
		ID:           uuid.New().String(),
		SiteID:       siteID,
		EventType:    eventType,
		OccurredAt:   occurredAt.UnixMilli(),
		Ignored:      ignored,
		IgnoreReason: reason,
	}
	if err := repo.Append(event); err != nil {
		t.Fatalf("Append: %v", err)
	}
	return event
}

func TestEventRepository_AppendAndList(t *testing.T) {
	db := testDB(t)
	repo := NewEventRepository(db)
	base := time.Date(2025, 6, 2, 8, 0, 0, 0, time.UTC)

	lat, lon, acc := 52.52, 13.405, 15.0
	withFix := &models.TransitionEvent{
		ID:           uuid.New().String(),
		SiteID:       "site-1",
		EventType:    models.EventTypeEnter,
		OccurredAt:   base.UnixMilli(),
		Latitude:     &lat,
		Longitude:    &lon,
		Accuracy:     &acc,
		IgnoreReason: models.IgnoreReasonNone,
	}
	if err := repo.Append(withFix); err != nil {
		t.Fatalf("Append: %v", err)
	}
	appendEvent(t, repo, "site-1", models.EventTypeExit, base.Add(3*time.Second), true, models.IgnoreReasonSignalDegradation)
	appendEvent(t, repo, "site-2", models.EventTypeEnter, base.Add(time.Minute), false, models.IgnoreReasonNone)

	events, err := repo.List(models.EventFilter{SiteID: "site-1"})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("site-1 events: want 2, got %d", len(events))
	}
	if events[0].OccurredAt <= events[1].OccurredAt {
		t.Error("events should come back newest first")
	}
	if !events[0].Ignored || events[0].IgnoreReason != models.IgnoreReasonSignalDegradation {
		t.Errorf("ignored flag lost: %+v", events[0])
	}
	if events[1].Accuracy == nil || *events[1].Accuracy != 15 {
		t.Errorf("accuracy lost: %+v", events[1])
	}

	all, err := repo.List(models.EventFilter{})
	if err != nil {
		t.Fatalf("List all: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("all events: want 3, got %d", len(all))
	}
}

func TestEventRepository_LatestAcceptedAt(t *testing.T) {
	db := testDB(t)
	repo := NewEventRepository(db)
	base := time.Date(2025, 6, 2, 8, 0, 0, 0, time.UTC)

	got, err := repo.LatestAcceptedAt("site-1")
	if err != nil {
		t.Fatalf("LatestAcceptedAt: %v", err)
	}
	if got != 0 {
		t.Errorf("no events yet: want 0, got %d", got)
	}

	appendEvent(t, repo, "site-1", models.EventTypeEnter, base, false, models.IgnoreReasonNone)
	appendEvent(t, repo, "site-1", models.EventTypeExit, base.Add(8*time.Hour), false, models.IgnoreReasonNone)
	// a later ignored event must not move the timeline
	appendEvent(t, repo, "site-1", models.EventTypeExit, base.Add(9*time.Hour), true, models.IgnoreReasonPoorAccuracy)
	// other sites have their own timeline
	appendEvent(t, repo, "site-2", models.EventTypeEnter, base.Add(10*time.Hour), false, models.IgnoreReasonNone)

	got, err = repo.LatestAcceptedAt("site-1")
	if err != nil {
		t.Fatalf("LatestAcceptedAt: %v", err)
	}
	if want := base.Add(8 * time.Hour).UnixMilli(); got != want {
		t.Errorf("want %d, got %d", want, got)
	}
}
