package models

import (
	"math"
	"time"
)

// TrackingMethod constants
const (
	TrackingMethodAuto   = "auto"
	TrackingMethodManual = "manual"
)

// SessionState constants
const (
	SessionStateActive      = "active"
	SessionStatePendingExit = "pending_exit"
	SessionStateCompleted   = "completed"
)

// TrackingSession represents one work session at a site, from clock-in to
// clock-out. Sessions are the ground truth every downstream consumer
// (hour totals, payroll reporting) builds on.
type TrackingSession struct {
	ID     string `json:"id" db:"id"`
	SiteID string `json:"site_id" db:"site_id"`

	// Lifecycle
	State          string `json:"state" db:"state"`                     // active, pending_exit, completed
	TrackingMethod string `json:"tracking_method" db:"tracking_method"` // auto, manual

	// Timestamps (Unix milliseconds)
	ClockInAt     int64  `json:"clock_in_at" db:"clock_in_at"`
	ClockOutAt    *int64 `json:"clock_out_at,omitempty" db:"clock_out_at"`       // set iff state = completed
	PendingExitAt *int64 `json:"pending_exit_at,omitempty" db:"pending_exit_at"` // the triggering exit's timestamp; set iff state = pending_exit

	// Position quality at the boundary transitions
	CheckinAccuracy *float64 `json:"checkin_accuracy,omitempty" db:"checkin_accuracy"`
	ExitAccuracy    *float64 `json:"exit_accuracy,omitempty" db:"exit_accuracy"`

	// ExitByDefault marks sessions closed because the verification budget
	// ran out without a trustworthy sample, not because the device
	// confirmed leaving.
	ExitByDefault bool `json:"exit_by_default" db:"exit_by_default"`

	// BelowMinimum marks completed sessions shorter than the configured
	// floor; they are kept for audit but excluded from hour totals.
	BelowMinimum bool `json:"below_minimum" db:"below_minimum"`

	// DurationMinutes is derived on completion: round((clockOut-clockIn)/60000).
	DurationMinutes *int64 `json:"duration_minutes,omitempty" db:"duration_minutes"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// IsOpen reports whether the session still occupies its site, i.e. it is
// active or awaiting exit verification.
func (s *TrackingSession) IsOpen() bool {
	return s.State == SessionStateActive || s.State == SessionStatePendingExit
}

// ComputeDurationMinutes returns the rounded minute count between clock-in
// and the given clock-out, floored at zero.
func ComputeDurationMinutes(clockInAt, clockOutAt int64) int64 {
	if clockOutAt <= clockInAt {
		return 0
	}
	return int64(math.Round(float64(clockOutAt-clockInAt) / 60000.0))
}
