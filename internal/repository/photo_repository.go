package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/po4yka/trailglass-sub007/internal/models"
)

// PhotoRepository handles database operations for photos
type PhotoRepository struct {
	db DBTX
}

// NewPhotoRepository creates a new photo repository
func NewPhotoRepository(db DBTX) *PhotoRepository {
	return &PhotoRepository{db: db}
}

// Upsert inserts or replaces photos by id
func (r *PhotoRepository) Upsert(ctx context.Context, photos []models.Photo) error {
	query := `INSERT INTO photos (id, user_id, taken_at, latitude, longitude, uri)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			taken_at = excluded.taken_at,
			latitude = excluded.latitude,
			longitude = excluded.longitude,
			uri = excluded.uri`

	for _, p := range photos {
		if _, err := r.db.ExecContext(ctx, query,
			p.ID, p.UserID, toMillis(p.TakenAt), nullFloat(p.Latitude), nullFloat(p.Longitude), p.URI,
		); err != nil {
			return fmt.Errorf("failed to upsert photo %s: %w", p.ID, err)
		}
	}
	return nil
}

// List returns the user's photos taken in [start, end], oldest first.
// A zero end means open-ended.
func (r *PhotoRepository) List(ctx context.Context, userID string, start, end time.Time) ([]models.Photo, error) {
	query := "SELECT id, user_id, taken_at, latitude, longitude, uri FROM photos WHERE user_id = ? AND taken_at >= ?"
	args := []any{userID, toMillis(start)}
	if !end.IsZero() {
		query += " AND taken_at <= ?"
		args = append(args, toMillis(end))
	}
	query += " ORDER BY taken_at, id"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query photos: %w", err)
	}
	defer rows.Close()

	photos := []models.Photo{}
	for rows.Next() {
		var p models.Photo
		var taken int64
		var lat, lon sql.NullFloat64
		if err := rows.Scan(&p.ID, &p.UserID, &taken, &lat, &lon, &p.URI); err != nil {
			return nil, fmt.Errorf("failed to scan photo: %w", err)
		}
		p.TakenAt = fromMillis(taken)
		p.Latitude, p.Longitude = floatPtr(lat), floatPtr(lon)
		photos = append(photos, p)
	}
	return photos, rows.Err()
}
