package repository

import (
	"database/sql"
	"fmt"

	"github.com/lukashondrich/open-workinghours-sub001/internal/models"
)

// SiteRepository handles database operations for monitored sites
type SiteRepository struct {
	db *sql.DB
}

// NewSiteRepository creates a new site repository
func NewSiteRepository(db *sql.DB) *SiteRepository {
	return &SiteRepository{db: db}
}

// Create inserts a new site
func (r *SiteRepository) Create(site *models.Site) error {
	query := `
		INSERT INTO sites (id, name, latitude, longitude, radius_meters, active, monitor_version)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.Exec(query,
		site.ID,
		site.Name,
		site.Latitude,
		site.Longitude,
		site.RadiusMeters,
		site.Active,
		site.MonitorVersion,
	)
	if err != nil {
		return fmt.Errorf("failed to create site: %w", err)
	}

	return nil
}

// GetByID retrieves a site by ID, or nil when it does not exist
func (r *SiteRepository) GetByID(id string) (*models.Site, error) {
	query := `
		SELECT id, name, latitude, longitude, radius_meters, active, monitor_version, created_at, updated_at
		FROM sites
		WHERE id = ?
	`

	site := &models.Site{}
	err := r.db.QueryRow(query, id).Scan(
		&site.ID,
		&site.Name,
		&site.Latitude,
		&site.Longitude,
		&site.RadiusMeters,
		&site.Active,
		&site.MonitorVersion,
		&site.CreatedAt,
		&site.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get site: %w", err)
	}

	return site, nil
}

// List retrieves all sites, optionally restricted to active ones
func (r *SiteRepository) List(activeOnly bool) ([]models.Site, error) {
	query := `
		SELECT id, name, latitude, longitude, radius_meters, active, monitor_version, created_at, updated_at
		FROM sites
	`
	if activeOnly {
		query += " WHERE active = 1"
	}
	query += " ORDER BY name"

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to list sites: %w", err)
	}
	defer rows.Close()

	var sites []models.Site
	for rows.Next() {
		var site models.Site
		err := rows.Scan(
			&site.ID,
			&site.Name,
			&site.Latitude,
			&site.Longitude,
			&site.RadiusMeters,
			&site.Active,
			&site.MonitorVersion,
			&site.CreatedAt,
			&site.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan site: %w", err)
		}
		sites = append(sites, site)
	}

	return sites, nil
}

// Update rewrites a site's mutable fields
func (r *SiteRepository) Update(site *models.Site) error {
	query := `
		UPDATE sites
		SET name = ?, latitude = ?, longitude = ?, radius_meters = ?,
			active = ?, monitor_version = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`

	_, err := r.db.Exec(query,
		site.Name,
		site.Latitude,
		site.Longitude,
		site.RadiusMeters,
		site.Active,
		site.MonitorVersion,
		site.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update site: %w", err)
	}

	return nil
}
