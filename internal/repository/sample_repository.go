package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/po4yka/trailglass-sub007/internal/models"
)

// SampleRepository handles database operations for location samples
type SampleRepository struct {
	db DBTX
}

// NewSampleRepository creates a new sample repository
func NewSampleRepository(db DBTX) *SampleRepository {
	return &SampleRepository{db: db}
}

// WithTx returns a repository bound to tx
func (r *SampleRepository) WithTx(tx *sql.Tx) *SampleRepository {
	return &SampleRepository{db: tx}
}

// Append inserts samples; samples whose id already exists are skipped.
// It returns the number of rows inserted.
func (r *SampleRepository) Append(ctx context.Context, samples []models.LocationSample) (int, error) {
	query := `INSERT OR IGNORE INTO location_samples
		(id, user_id, device_id, timestamp, latitude, longitude, accuracy, speed, bearing, source)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	inserted := 0
	for _, s := range samples {
		res, err := r.db.ExecContext(ctx, query,
			s.ID, s.UserID, s.DeviceID, toMillis(s.Timestamp),
			s.Latitude, s.Longitude, s.Accuracy,
			nullFloat(s.Speed), nullFloat(s.Bearing), string(s.Source),
		)
		if err != nil {
			return inserted, fmt.Errorf("failed to insert sample %s: %w", s.ID, err)
		}
		n, _ := res.RowsAffected()
		inserted += int(n)
	}
	return inserted, nil
}

// List returns the samples matching filter in timestamp order
func (r *SampleRepository) List(ctx context.Context, filter models.SampleFilter) ([]models.LocationSample, error) {
	query := `SELECT id, user_id, device_id, timestamp, latitude, longitude, accuracy, speed, bearing, source
		FROM location_samples`

	conditions := []string{"user_id = ?"}
	args := []any{filter.UserID}

	if filter.DeviceID != "" {
		conditions = append(conditions, "device_id = ?")
		args = append(args, filter.DeviceID)
	}
	if !filter.StartTime.IsZero() {
		conditions = append(conditions, "timestamp >= ?")
		args = append(args, toMillis(filter.StartTime))
	}
	if !filter.EndTime.IsZero() {
		conditions = append(conditions, "timestamp <= ?")
		args = append(args, toMillis(filter.EndTime))
	}

	query += " WHERE " + strings.Join(conditions, " AND ") + " ORDER BY timestamp, id"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query samples: %w", err)
	}
	defer rows.Close()

	samples := []models.LocationSample{}
	for rows.Next() {
		var s models.LocationSample
		var ts int64
		var speed, bearing sql.NullFloat64
		var source string
		if err := rows.Scan(&s.ID, &s.UserID, &s.DeviceID, &ts, &s.Latitude, &s.Longitude,
			&s.Accuracy, &speed, &bearing, &source); err != nil {
			return nil, fmt.Errorf("failed to scan sample: %w", err)
		}
		s.Timestamp = fromMillis(ts)
		s.Speed = floatPtr(speed)
		s.Bearing = floatPtr(bearing)
		s.Source = models.SampleSource(source)
		samples = append(samples, s)
	}
	return samples, rows.Err()
}

// Count returns the number of samples stored for a user
func (r *SampleRepository) Count(ctx context.Context, userID string) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM location_samples WHERE user_id = ?", userID).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count samples: %w", err)
	}
	return n, nil
}
