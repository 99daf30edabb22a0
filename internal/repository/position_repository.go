package repository

import (
	"database/sql"
	"fmt"

	"github.com/lukashondrich/open-workinghours-sub001/internal/models"
)

// PositionRepository handles database operations for position samples
type PositionRepository struct {
	db *sql.DB
}

// NewPositionRepository creates a new position repository
func NewPositionRepository(db *sql.DB) *PositionRepository {
	return &PositionRepository{db: db}
}

// Insert records a device position sample
func (r *PositionRepository) Insert(sample *models.PositionSample) error {
	query := `
		INSERT INTO position_samples (latitude, longitude, accuracy, recorded_at)
		VALUES (?, ?, ?, ?)
	`

	result, err := r.db.Exec(query,
		sample.Latitude,
		sample.Longitude,
		sample.Accuracy,
		sample.RecordedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert position sample: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	sample.ID = id
	return nil
}

// LatestSince returns the newest sample recorded at or after
// minRecordedAt, or nil when there is none
func (r *PositionRepository) LatestSince(minRecordedAt int64) (*models.PositionSample, error) {
	query := `
		SELECT id, latitude, longitude, accuracy, recorded_at, created_at
		FROM position_samples
		WHERE recorded_at >= ?
		ORDER BY recorded_at DESC
		LIMIT 1
	`

	sample := &models.PositionSample{}
	err := r.db.QueryRow(query, minRecordedAt).Scan(
		&sample.ID,
		&sample.Latitude,
		&sample.Longitude,
		&sample.Accuracy,
		&sample.RecordedAt,
		&sample.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest position sample: %w", err)
	}

	return sample, nil
}

// PruneBefore deletes samples recorded before the cutoff and returns the
// number removed. Position fixes only matter while fresh.
func (r *PositionRepository) PruneBefore(cutoff int64) (int64, error) {
	result, err := r.db.Exec("DELETE FROM position_samples WHERE recorded_at < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune position samples: %w", err)
	}

	removed, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return removed, nil
}
