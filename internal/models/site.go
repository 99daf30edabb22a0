package models

import "time"

// Site represents a monitored work location (circular geofence)
type Site struct {
	ID   string `json:"id" db:"id"`
	Name string `json:"name" db:"name"`

	// Geofence geometry
	Latitude     float64 `json:"latitude" db:"latitude"`
	Longitude    float64 `json:"longitude" db:"longitude"`
	RadiusMeters float64 `json:"radius_meters" db:"radius_meters"`

	// Active controls whether the site is monitored; inactive sites keep
	// their history but stop producing sessions.
	Active bool `json:"active" db:"active"`

	// MonitorVersion increments whenever the geometry or active flag
	// changes, so device clients know to re-register monitoring.
	MonitorVersion int64 `json:"monitor_version" db:"monitor_version"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// SiteInput is the payload for creating or updating a site
type SiteInput struct {
	Name         string  `json:"name" binding:"required"`
	Latitude     float64 `json:"latitude" binding:"required,min=-90,max=90"`
	Longitude    float64 `json:"longitude" binding:"required,min=-180,max=180"`
	RadiusMeters float64 `json:"radius_meters" binding:"required,gt=0"`
	Active       *bool   `json:"active"`
}

// Monitor is the device-facing view of an active site: just enough to
// register a geofence on the platform location API.
type Monitor struct {
	SiteID         string  `json:"site_id"`
	Latitude       float64 `json:"latitude"`
	Longitude      float64 `json:"longitude"`
	RadiusMeters   float64 `json:"radius_meters"`
	MonitorVersion int64   `json:"monitor_version"`
}
