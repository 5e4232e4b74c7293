package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/twpayne/go-polyline"

	"github.com/po4yka/trailglass-sub007/internal/models"
)

// ErrNotFound is returned when a row does not exist or belongs to another user
var ErrNotFound = errors.New("not found")

// DBTX is satisfied by both *sql.DB and *sql.Tx
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Timestamps are stored as unix milliseconds in UTC.
func toMillis(t time.Time) int64 {
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

func nullMillis(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.UnixMilli(), Valid: true}
}

func timePtr(n sql.NullInt64) *time.Time {
	if !n.Valid {
		return nil
	}
	t := fromMillis(n.Int64)
	return &t
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}

func floatPtr(n sql.NullFloat64) *float64 {
	if !n.Valid {
		return nil
	}
	f := n.Float64
	return &f
}

func encodeIDs(ids []string) (string, error) {
	if ids == nil {
		ids = []string{}
	}
	b, err := json.Marshal(ids)
	if err != nil {
		return "", fmt.Errorf("failed to encode ids: %w", err)
	}
	return string(b), nil
}

func decodeIDs(s string) ([]string, error) {
	ids := []string{}
	if s == "" {
		return ids, nil
	}
	if err := json.Unmarshal([]byte(s), &ids); err != nil {
		return nil, fmt.Errorf("failed to decode ids: %w", err)
	}
	return ids, nil
}

// Simplified paths are stored as encoded polylines (1e-5 degree precision).
func encodePath(path []models.Coordinate) string {
	coords := make([][]float64, len(path))
	for i, c := range path {
		coords[i] = []float64{c.Latitude, c.Longitude}
	}
	return string(polyline.EncodeCoords(coords))
}

func decodePath(s string) ([]models.Coordinate, error) {
	path := []models.Coordinate{}
	if s == "" {
		return path, nil
	}
	coords, _, err := polyline.DecodeCoords([]byte(s))
	if err != nil {
		return nil, fmt.Errorf("failed to decode path: %w", err)
	}
	for _, c := range coords {
		path = append(path, models.Coordinate{Latitude: c[0], Longitude: c[1]})
	}
	return path, nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}
