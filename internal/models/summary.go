package models

// WorkSource constants classify where a day's recorded time came from,
// matching the platform's work-event vocabulary.
const (
	WorkSourceGeofence = "geofence"
	WorkSourceManual   = "manual"
	WorkSourceMixed    = "mixed"
)

// DaySummary aggregates one calendar day of completed sessions. Sessions
// flagged below the minimum-duration floor are never counted here.
type DaySummary struct {
	Date          string `json:"date"` // YYYY-MM-DD
	TotalMinutes  int64  `json:"total_minutes"`
	AutoMinutes   int64  `json:"auto_minutes"`
	ManualMinutes int64  `json:"manual_minutes"`
	SessionCount  int    `json:"session_count"`
	Source        string `json:"source"` // geofence, manual, mixed
}

// RangeStats summarizes daily totals over a date range for the
// planning/review consumer.
type RangeStats struct {
	Days               int     `json:"days"` // days with at least one counted session
	TotalMinutes       int64   `json:"total_minutes"`
	MeanDailyMinutes   float64 `json:"mean_daily_minutes"`
	MedianDailyMinutes float64 `json:"median_daily_minutes"`
	MaxDailyMinutes    int64   `json:"max_daily_minutes"`
	SessionCount       int     `json:"session_count"`
}

// SessionFilter represents filter parameters for querying sessions
type SessionFilter struct {
	SiteID              string `form:"siteId"`
	Start               int64  `form:"start"` // Unix milliseconds, inclusive
	End                 int64  `form:"end"`   // Unix milliseconds, exclusive
	IncludeBelowMinimum bool   `form:"includeBelowMinimum"`
	Limit               int    `form:"limit"`
}
