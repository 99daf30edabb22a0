package service

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/lukashondrich/open-workinghours-sub001/internal/database"
	"github.com/lukashondrich/open-workinghours-sub001/internal/models"
	"github.com/lukashondrich/open-workinghours-sub001/internal/repository"
)

func testDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func seedSite(t *testing.T, db *sql.DB, id string) {
	t.Helper()
	err := repository.NewSiteRepository(db).Create(&models.Site{
		ID:             id,
		Name:           "Site " + id,
		Latitude:       52.52,
		Longitude:      13.405,
		RadiusMeters:   100,
		Active:         true,
		MonitorVersion: 1,
	})
	if err != nil {
		t.Fatalf("seed site %s: %v", id, err)
	}
}

func seedCompleted(t *testing.T, repo *repository.SessionRepository, id, siteID, method string, clockIn, clockOut time.Time, belowMinimum bool) {
	t.Helper()
	out := clockOut.UnixMilli()
	duration := models.ComputeDurationMinutes(clockIn.UnixMilli(), out)
	err := repo.Create(&models.TrackingSession{
		ID:              id,
		SiteID:          siteID,
		State:           models.SessionStateCompleted,
		TrackingMethod:  method,
		ClockInAt:       clockIn.UnixMilli(),
		ClockOutAt:      &out,
		DurationMinutes: &duration,
		BelowMinimum:    belowMinimum,
	})
	if err != nil {
		t.Fatalf("seed session %s: %v", id, err)
	}
}
