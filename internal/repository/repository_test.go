package repository

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/lukashondrich/open-workinghours-sub001/internal/database"
	"github.com/lukashondrich/open-workinghours-sub001/internal/models"
)

// testDB opens a migrated throwaway database for one test.
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
	err := NewSiteRepository(db).Create(&models.Site{
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
