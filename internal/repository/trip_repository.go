package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/po4yka/trailglass-sub007/internal/models"
)

// TripRepository handles database operations for trips
type TripRepository struct {
	db DBTX
}

// NewTripRepository creates a new trip repository
func NewTripRepository(db DBTX) *TripRepository {
	return &TripRepository{db: db}
}

// WithTx returns a repository bound to tx
func (r *TripRepository) WithTx(tx *sql.Tx) *TripRepository {
	return &TripRepository{db: tx}
}

const tripColumns = `id, user_id, start_time, end_time, is_ongoing, primary_country, time_zone,
	visit_count, distance_meters, created_at, updated_at`

// ReplaceRange deletes the user's trips starting inside [start, end] and
// upserts trips. created_at of a trip that already existed is kept.
func (r *TripRepository) ReplaceRange(ctx context.Context, userID string, start, end time.Time, trips []models.Trip) error {
	keep := make([]any, 0, len(trips)+3)
	keep = append(keep, userID, toMillis(start), toMillis(end))
	query := "DELETE FROM trips WHERE user_id = ? AND start_time >= ? AND start_time <= ?"
	if len(trips) > 0 {
		query += " AND id NOT IN (" + placeholders(len(trips)) + ")"
		for _, t := range trips {
			keep = append(keep, t.ID)
		}
	}
	if _, err := r.db.ExecContext(ctx, query, keep...); err != nil {
		return fmt.Errorf("failed to delete trips: %w", err)
	}
	return r.Upsert(ctx, trips)
}

// Upsert inserts or updates trips by id
func (r *TripRepository) Upsert(ctx context.Context, trips []models.Trip) error {
	query := `INSERT INTO trips (` + tripColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			start_time = excluded.start_time,
			end_time = excluded.end_time,
			is_ongoing = excluded.is_ongoing,
			primary_country = excluded.primary_country,
			time_zone = excluded.time_zone,
			visit_count = excluded.visit_count,
			distance_meters = excluded.distance_meters,
			updated_at = excluded.updated_at`

	now := time.Now()
	for _, t := range trips {
		created := t.CreatedAt
		if created.IsZero() {
			created = now
		}
		if _, err := r.db.ExecContext(ctx, query,
			t.ID, t.UserID, toMillis(t.StartTime), nullMillis(t.EndTime), t.IsOngoing,
			t.PrimaryCountry, t.TimeZone, t.VisitCount, t.DistanceMeters,
			toMillis(created), toMillis(now),
		); err != nil {
			return fmt.Errorf("failed to upsert trip %s: %w", t.ID, err)
		}
	}
	return nil
}

// GetByID returns a user's trip
func (r *TripRepository) GetByID(ctx context.Context, userID, id string) (*models.Trip, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+tripColumns+" FROM trips WHERE id = ? AND user_id = ?", id, userID)
	t, err := scanTrip(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

// List retrieves trips with filtering and pagination, newest first
func (r *TripRepository) List(ctx context.Context, filter models.TripFilter) ([]models.Trip, int64, error) {
	filter.Normalize()

	conditions := []string{"user_id = ?"}
	args := []any{filter.UserID}

	if filter.Ongoing != nil {
		conditions = append(conditions, "is_ongoing = ?")
		args = append(args, *filter.Ongoing)
	}
	if filter.StartTime > 0 {
		conditions = append(conditions, "(end_time IS NULL OR end_time >= ?)")
		args = append(args, filter.StartTime*1000)
	}
	if filter.EndTime > 0 {
		conditions = append(conditions, "start_time <= ?")
		args = append(args, filter.EndTime*1000)
	}
	where := " WHERE " + strings.Join(conditions, " AND ")

	var total int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM trips"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count trips: %w", err)
	}

	offset := (filter.Page - 1) * filter.PageSize
	query := "SELECT " + tripColumns + " FROM trips" + where + " ORDER BY start_time DESC LIMIT ? OFFSET ?"
	args = append(args, filter.PageSize, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query trips: %w", err)
	}
	defer rows.Close()

	trips := []models.Trip{}
	for rows.Next() {
		t, err := scanTrip(rows)
		if err != nil {
			return nil, 0, err
		}
		trips = append(trips, *t)
	}
	return trips, total, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTrip(s scanner) (*models.Trip, error) {
	var t models.Trip
	var st, created, updated int64
	var et sql.NullInt64
	if err := s.Scan(&t.ID, &t.UserID, &st, &et, &t.IsOngoing, &t.PrimaryCountry, &t.TimeZone,
		&t.VisitCount, &t.DistanceMeters, &created, &updated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan trip: %w", err)
	}
	t.StartTime = fromMillis(st)
	t.EndTime = timePtr(et)
	t.CreatedAt = fromMillis(created)
	t.UpdatedAt = fromMillis(updated)
	return &t, nil
}
