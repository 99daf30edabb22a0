package repository

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/lukashondrich/open-workinghours-sub001/internal/models"
)

// SessionRepository handles database operations for tracking sessions
type SessionRepository struct {
	db *sql.DB
}

// NewSessionRepository creates a new session repository
func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Create inserts a new session
func (r *SessionRepository) Create(session *models.TrackingSession) error {
	query := `
		INSERT INTO tracking_sessions (
			id, site_id, state, tracking_method, clock_in_at, clock_out_at,
			pending_exit_at, checkin_accuracy, exit_accuracy, exit_by_default,
			below_minimum, duration_minutes
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.Exec(query,
		session.ID,
		session.SiteID,
		session.State,
		session.TrackingMethod,
		session.ClockInAt,
		session.ClockOutAt,
		session.PendingExitAt,
		session.CheckinAccuracy,
		session.ExitAccuracy,
		session.ExitByDefault,
		session.BelowMinimum,
		session.DurationMinutes,
	)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}

	return nil
}

// GetByID retrieves a session by ID, or nil when it does not exist
func (r *SessionRepository) GetByID(id string) (*models.TrackingSession, error) {
	query := `
		SELECT id, site_id, state, tracking_method, clock_in_at, clock_out_at,
			   pending_exit_at, checkin_accuracy, exit_accuracy, exit_by_default,
			   below_minimum, duration_minutes, created_at, updated_at
		FROM tracking_sessions
		WHERE id = ?
	`

	session := &models.TrackingSession{}
	err := r.db.QueryRow(query, id).Scan(
		&session.ID,
		&session.SiteID,
		&session.State,
		&session.TrackingMethod,
		&session.ClockInAt,
		&session.ClockOutAt,
		&session.PendingExitAt,
		&session.CheckinAccuracy,
		&session.ExitAccuracy,
		&session.ExitByDefault,
		&session.BelowMinimum,
		&session.DurationMinutes,
		&session.CreatedAt,
		&session.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	return session, nil
}

// GetOpenBySite retrieves the site's active or pending_exit session, or
// nil when the site has no open session
func (r *SessionRepository) GetOpenBySite(siteID string) (*models.TrackingSession, error) {
	query := `
		SELECT id, site_id, state, tracking_method, clock_in_at, clock_out_at,
			   pending_exit_at, checkin_accuracy, exit_accuracy, exit_by_default,
			   below_minimum, duration_minutes, created_at, updated_at
		FROM tracking_sessions
		WHERE site_id = ? AND state IN ('active', 'pending_exit')
	`

	session := &models.TrackingSession{}
	err := r.db.QueryRow(query, siteID).Scan(
		&session.ID,
		&session.SiteID,
		&session.State,
		&session.TrackingMethod,
		&session.ClockInAt,
		&session.ClockOutAt,
		&session.PendingExitAt,
		&session.CheckinAccuracy,
		&session.ExitAccuracy,
		&session.ExitByDefault,
		&session.BelowMinimum,
		&session.DurationMinutes,
		&session.CreatedAt,
		&session.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get open session: %w", err)
	}

	return session, nil
}

// ListPendingExit retrieves every session in pending_exit state, oldest
// clock-in first
func (r *SessionRepository) ListPendingExit() ([]*models.TrackingSession, error) {
	query := `
		SELECT id, site_id, state, tracking_method, clock_in_at, clock_out_at,
			   pending_exit_at, checkin_accuracy, exit_accuracy, exit_by_default,
			   below_minimum, duration_minutes, created_at, updated_at
		FROM tracking_sessions
		WHERE state = 'pending_exit'
		ORDER BY clock_in_at
	`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending-exit sessions: %w", err)
	}
	defer rows.Close()

	return scanSessions(rows)
}

// Update rewrites a session's engine-owned fields
func (r *SessionRepository) Update(session *models.TrackingSession) error {
	query := `
		UPDATE tracking_sessions
		SET state = ?, clock_out_at = ?, pending_exit_at = ?, exit_accuracy = ?,
			exit_by_default = ?, below_minimum = ?, duration_minutes = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`

	_, err := r.db.Exec(query,
		session.State,
		session.ClockOutAt,
		session.PendingExitAt,
		session.ExitAccuracy,
		session.ExitByDefault,
		session.BelowMinimum,
		session.DurationMinutes,
		session.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}

	return nil
}

// Query retrieves sessions matching the filter, newest first. Start/End
// select sessions overlapping the window: clocked in before the window
// ends and not clocked out before it starts.
func (r *SessionRepository) Query(filter models.SessionFilter) ([]*models.TrackingSession, error) {
	query := `
		SELECT id, site_id, state, tracking_method, clock_in_at, clock_out_at,
			   pending_exit_at, checkin_accuracy, exit_accuracy, exit_by_default,
			   below_minimum, duration_minutes, created_at, updated_at
		FROM tracking_sessions
	`

	var conditions []string
	var args []interface{}

	if filter.SiteID != "" {
		conditions = append(conditions, "site_id = ?")
		args = append(args, filter.SiteID)
	}
	if filter.End > 0 {
		conditions = append(conditions, "clock_in_at < ?")
		args = append(args, filter.End)
	}
	if filter.Start > 0 {
		conditions = append(conditions, "(clock_out_at IS NULL OR clock_out_at > ?)")
		args = append(args, filter.Start)
	}
	if !filter.IncludeBelowMinimum {
		conditions = append(conditions, "below_minimum = 0")
	}

	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += " ORDER BY clock_in_at DESC LIMIT ?"
	args = append(args, limit)

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	return scanSessions(rows)
}

func scanSessions(rows *sql.Rows) ([]*models.TrackingSession, error) {
	var sessions []*models.TrackingSession
	for rows.Next() {
		session := &models.TrackingSession{}
		err := rows.Scan(
			&session.ID,
			&session.SiteID,
			&session.State,
			&session.TrackingMethod,
			&session.ClockInAt,
			&session.ClockOutAt,
			&session.PendingExitAt,
			&session.CheckinAccuracy,
			&session.ExitAccuracy,
			&session.ExitByDefault,
			&session.BelowMinimum,
			&session.DurationMinutes,
			&session.CreatedAt,
			&session.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, session)
	}

	return sessions, nil
}
