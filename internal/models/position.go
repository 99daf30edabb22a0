package models

import "time"

// PositionSample is a device-reported position fix. The newest sample within
// the freshness bound answers the engine's on-demand position fetches during
// exit verification.
type PositionSample struct {
	ID         int64   `json:"id" db:"id"`
	Latitude   float64 `json:"latitude" db:"latitude"`
	Longitude  float64 `json:"longitude" db:"longitude"`
	Accuracy   float64 `json:"accuracy" db:"accuracy"`
	RecordedAt int64   `json:"recorded_at" db:"recorded_at"` // Unix milliseconds

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// PositionInput is the inbound payload for a device position report
type PositionInput struct {
	Latitude  float64 `json:"latitude" binding:"min=-90,max=90"`
	Longitude float64 `json:"longitude" binding:"min=-180,max=180"`
	Accuracy  float64 `json:"accuracy" binding:"required,gt=0"`
	Timestamp int64   `json:"timestamp" binding:"required,gt=0"` // Unix milliseconds
}
