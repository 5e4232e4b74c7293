package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/po4yka/trailglass-sub007/internal/models"
)

// GeocodeRepository persists reverse geocoding cache entries
type GeocodeRepository struct {
	db DBTX
}

// NewGeocodeRepository creates a new geocode cache repository
func NewGeocodeRepository(db DBTX) *GeocodeRepository {
	return &GeocodeRepository{db: db}
}

// SaveGeocode inserts or replaces the entry for its query point
func (r *GeocodeRepository) SaveGeocode(ctx context.Context, e models.GeocodeCacheEntry) error {
	query := `INSERT OR REPLACE INTO geocode_cache
		(latitude, longitude, cell_id, formatted_address, city, country_code, poi_name, postal_code, cached_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	loc := e.Location
	if _, err := r.db.ExecContext(ctx, query,
		loc.Latitude, loc.Longitude, int64(e.CellID),
		loc.FormattedAddress, loc.City, loc.CountryCode, loc.POIName, loc.PostalCode,
		toMillis(e.CachedAt), toMillis(e.ExpiresAt),
	); err != nil {
		return fmt.Errorf("failed to save geocode: %w", err)
	}
	return nil
}

// LoadGeocodes returns all entries not yet expired at now
func (r *GeocodeRepository) LoadGeocodes(ctx context.Context, now time.Time) ([]models.GeocodeCacheEntry, error) {
	query := `SELECT latitude, longitude, cell_id, formatted_address, city, country_code, poi_name,
		postal_code, cached_at, expires_at
		FROM geocode_cache WHERE expires_at > ?`

	rows, err := r.db.QueryContext(ctx, query, toMillis(now))
	if err != nil {
		return nil, fmt.Errorf("failed to query geocodes: %w", err)
	}
	defer rows.Close()

	var entries []models.GeocodeCacheEntry
	for rows.Next() {
		var e models.GeocodeCacheEntry
		var cell, cached, expires int64
		loc := &e.Location
		if err := rows.Scan(&loc.Latitude, &loc.Longitude, &cell, &loc.FormattedAddress, &loc.City,
			&loc.CountryCode, &loc.POIName, &loc.PostalCode, &cached, &expires); err != nil {
			return nil, fmt.Errorf("failed to scan geocode: %w", err)
		}
		e.CellID = uint64(cell)
		e.CachedAt, e.ExpiresAt = fromMillis(cached), fromMillis(expires)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// DeleteExpiredGeocodes removes entries expired at now
func (r *GeocodeRepository) DeleteExpiredGeocodes(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, "DELETE FROM geocode_cache WHERE expires_at <= ?", toMillis(now))
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired geocodes: %w", err)
	}
	return res.RowsAffected()
}
