package repository

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/lukashondrich/open-workinghours-sub001/internal/models"
)

// EventRepository handles database operations for the transition event log
type EventRepository struct {
	db *sql.DB
}

// NewEventRepository creates a new event repository
func NewEventRepository(db *sql.DB) *EventRepository {
	return &EventRepository{db: db}
}

// Append records one transition event. The log is write-once; there is
// no update path.
func (r *EventRepository) Append(event *models.TransitionEvent) error {
	query := `
		INSERT INTO transition_events (
			id, site_id, event_type, occurred_at, latitude, longitude,
			accuracy, ignored, ignore_reason
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.Exec(query,
		event.ID,
		event.SiteID,
		event.EventType,
		event.OccurredAt,
		event.Latitude,
		event.Longitude,
		event.Accuracy,
		event.Ignored,
		event.IgnoreReason,
	)
	if err != nil {
		return fmt.Errorf("failed to append event: %w", err)
	}

	return nil
}

// LatestAcceptedAt returns the occurred-at timestamp of the site's most
// recent accepted event, or 0 when the site has none
func (r *EventRepository) LatestAcceptedAt(siteID string) (int64, error) {
	query := `
		SELECT occurred_at
		FROM transition_events
		WHERE site_id = ? AND ignored = 0
		ORDER BY occurred_at DESC
		LIMIT 1
	`

	var occurredAt int64
	err := r.db.QueryRow(query, siteID).Scan(&occurredAt)

	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get latest accepted event: %w", err)
	}

	return occurredAt, nil
}

// List retrieves transition events matching the filter, newest first
func (r *EventRepository) List(filter models.EventFilter) ([]models.TransitionEvent, error) {
	query := `
		SELECT id, site_id, event_type, occurred_at, latitude, longitude,
			   accuracy, ignored, ignore_reason, created_at
		FROM transition_events
	`

	var conditions []string
	var args []interface{}

	if filter.SiteID != "" {
		conditions = append(conditions, "site_id = ?")
		args = append(args, filter.SiteID)
	}

	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += " ORDER BY occurred_at DESC LIMIT ?"
	args = append(args, limit)

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	defer rows.Close()

	var events []models.TransitionEvent
	for rows.Next() {
		var event models.TransitionEvent
		err := rows.Scan(
			&event.ID,
			&event.SiteID,
			&event.EventType,
			&event.OccurredAt,
			&event.Latitude,
			&event.Longitude,
			&event.Accuracy,
			&event.Ignored,
			&event.IgnoreReason,
			&event.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, event)
	}

	return events, nil
}
