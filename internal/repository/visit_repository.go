package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/po4yka/trailglass-sub007/internal/models"
)

// VisitRepository handles database operations for place visits
type VisitRepository struct {
	db DBTX
}

// NewVisitRepository creates a new visit repository
func NewVisitRepository(db DBTX) *VisitRepository {
	return &VisitRepository{db: db}
}

// WithTx returns a repository bound to tx
func (r *VisitRepository) WithTx(tx *sql.Tx) *VisitRepository {
	return &VisitRepository{db: tx}
}

// ReplaceRange deletes the user's visits starting inside [start, end] and
// upserts visits. Run it inside a transaction.
func (r *VisitRepository) ReplaceRange(ctx context.Context, userID string, start, end time.Time, visits []models.PlaceVisit) error {
	if _, err := r.db.ExecContext(ctx,
		"DELETE FROM place_visits WHERE user_id = ? AND start_time >= ? AND start_time <= ?",
		userID, toMillis(start), toMillis(end)); err != nil {
		return fmt.Errorf("failed to delete visits: %w", err)
	}
	return r.Upsert(ctx, visits)
}

// Upsert inserts or replaces visits by id
func (r *VisitRepository) Upsert(ctx context.Context, visits []models.PlaceVisit) error {
	query := `INSERT INTO place_visits
		(id, user_id, start_time, end_time, center_latitude, center_longitude,
		 approximate_address, poi_name, city, country_code, sample_ids)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			start_time = excluded.start_time,
			end_time = excluded.end_time,
			center_latitude = excluded.center_latitude,
			center_longitude = excluded.center_longitude,
			approximate_address = excluded.approximate_address,
			poi_name = excluded.poi_name,
			city = excluded.city,
			country_code = excluded.country_code,
			sample_ids = excluded.sample_ids`

	for _, v := range visits {
		ids, err := encodeIDs(v.LocationSampleIDs)
		if err != nil {
			return err
		}
		if _, err := r.db.ExecContext(ctx, query,
			v.ID, v.UserID, toMillis(v.StartTime), toMillis(v.EndTime),
			v.CenterLatitude, v.CenterLongitude,
			v.ApproximateAddress, v.POIName, v.City, v.CountryCode, ids,
		); err != nil {
			return fmt.Errorf("failed to upsert visit %s: %w", v.ID, err)
		}
	}
	return nil
}

// List returns the user's visits overlapping [start, end] in time order.
// A zero end means open-ended.
func (r *VisitRepository) List(ctx context.Context, userID string, start, end time.Time) ([]models.PlaceVisit, error) {
	query := `SELECT id, user_id, start_time, end_time, center_latitude, center_longitude,
		approximate_address, poi_name, city, country_code, sample_ids
		FROM place_visits WHERE user_id = ? AND end_time >= ?`
	args := []any{userID, toMillis(start)}
	if !end.IsZero() {
		query += " AND start_time <= ?"
		args = append(args, toMillis(end))
	}
	query += " ORDER BY start_time, id"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query visits: %w", err)
	}
	defer rows.Close()

	visits := []models.PlaceVisit{}
	for rows.Next() {
		var v models.PlaceVisit
		var st, et int64
		var ids string
		if err := rows.Scan(&v.ID, &v.UserID, &st, &et, &v.CenterLatitude, &v.CenterLongitude,
			&v.ApproximateAddress, &v.POIName, &v.City, &v.CountryCode, &ids); err != nil {
			return nil, fmt.Errorf("failed to scan visit: %w", err)
		}
		v.StartTime, v.EndTime = fromMillis(st), fromMillis(et)
		if v.LocationSampleIDs, err = decodeIDs(ids); err != nil {
			return nil, err
		}
		visits = append(visits, v)
	}
	return visits, rows.Err()
}
