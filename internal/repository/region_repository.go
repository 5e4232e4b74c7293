package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/po4yka/trailglass-sub007/internal/database"
	"github.com/po4yka/trailglass-sub007/internal/models"
)

// RegionRepository handles database operations for geofences
type RegionRepository struct {
	db *sql.DB
}

// NewRegionRepository creates a new region repository
func NewRegionRepository(db *sql.DB) *RegionRepository {
	return &RegionRepository{db: db}
}

// Replace swaps the user's geofences for regions in one transaction
func (r *RegionRepository) Replace(ctx context.Context, userID string, regions []models.Region) error {
	return database.Transaction(ctx, r.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM regions WHERE user_id = ?", userID); err != nil {
			return fmt.Errorf("failed to delete regions: %w", err)
		}
		for _, g := range regions {
			if _, err := tx.ExecContext(ctx,
				"INSERT INTO regions (id, user_id, name, latitude, longitude, radius_meters) VALUES (?, ?, ?, ?, ?, ?)",
				g.ID, userID, g.Name, g.Latitude, g.Longitude, g.RadiusMeters,
			); err != nil {
				return fmt.Errorf("failed to insert region %s: %w", g.ID, err)
			}
		}
		return nil
	})
}

// ListRegions returns the user's geofences
func (r *RegionRepository) ListRegions(ctx context.Context, userID string) ([]models.Region, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, user_id, name, latitude, longitude, radius_meters FROM regions WHERE user_id = ? ORDER BY id", userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query regions: %w", err)
	}
	defer rows.Close()

	regions := []models.Region{}
	for rows.Next() {
		var g models.Region
		if err := rows.Scan(&g.ID, &g.UserID, &g.Name, &g.Latitude, &g.Longitude, &g.RadiusMeters); err != nil {
			return nil, fmt.Errorf("failed to scan region: %w", err)
		}
		regions = append(regions, g)
	}
	return regions, rows.Err()
}
