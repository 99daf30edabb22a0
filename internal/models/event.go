package models

import "time"

// EventType constants
const (
	EventTypeEnter = "enter"
	EventTypeExit  = "exit"
)

// IgnoreReason constants
const (
	IgnoreReasonNone              = "none"
	IgnoreReasonPoorAccuracy      = "poor_accuracy"
	IgnoreReasonSignalDegradation = "signal_degradation"
	IgnoreReasonNoSession         = "no_session"
)

// TransitionEvent is one geofence transition as delivered by a device,
// recorded write-once whether or not it was accepted. The log drives
// debouncing decisions and serves as the audit trail for every session.
type TransitionEvent struct {
	ID        string `json:"id" db:"id"`
	SiteID    string `json:"site_id" db:"site_id"`
	EventType string `json:"event_type" db:"event_type"` // enter, exit

	// OccurredAt is the device-reported transition time (Unix milliseconds).
	OccurredAt int64 `json:"occurred_at" db:"occurred_at"`

	// Position is optional; the sensing capability may omit it entirely.
	Latitude  *float64 `json:"latitude,omitempty" db:"latitude"`
	Longitude *float64 `json:"longitude,omitempty" db:"longitude"`
	Accuracy  *float64 `json:"accuracy,omitempty" db:"accuracy"`

	// Ignored + IgnoreReason record why an event did not reach the
	// session state machine.
	Ignored      bool   `json:"ignored" db:"ignored"`
	IgnoreReason string `json:"ignore_reason" db:"ignore_reason"` // none, poor_accuracy, signal_degradation, no_session

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// RawTransition is the loosely-typed inbound payload from the transition
// source, validated at the boundary before it reaches the engine.
type RawTransition struct {
	SiteID    string   `json:"site_id" binding:"required"`
	EventType string   `json:"event_type" binding:"required,oneof=enter exit"`
	Timestamp int64    `json:"timestamp" binding:"required,gt=0"` // Unix milliseconds
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Accuracy  *float64 `json:"accuracy"`
}

// EventFilter represents filter parameters for querying the event log
type EventFilter struct {
	SiteID string `form:"siteId"`
	Limit  int    `form:"limit"`
}
