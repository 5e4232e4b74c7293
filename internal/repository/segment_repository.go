package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/po4yka/trailglass-sub007/internal/models"
)

// SegmentRepository handles database operations for route segments
type SegmentRepository struct {
	db DBTX
}

// NewSegmentRepository creates a new segment repository
func NewSegmentRepository(db DBTX) *SegmentRepository {
	return &SegmentRepository{db: db}
}

// WithTx returns a repository bound to tx
func (r *SegmentRepository) WithTx(tx *sql.Tx) *SegmentRepository {
	return &SegmentRepository{db: tx}
}

// ReplaceRange deletes the user's segments starting inside [start, end]
// and upserts segments. Run it inside a transaction.
func (r *SegmentRepository) ReplaceRange(ctx context.Context, userID string, start, end time.Time, segments []models.RouteSegment) error {
	if _, err := r.db.ExecContext(ctx,
		"DELETE FROM route_segments WHERE user_id = ? AND start_time >= ? AND start_time <= ?",
		userID, toMillis(start), toMillis(end)); err != nil {
		return fmt.Errorf("failed to delete segments: %w", err)
	}
	return r.Upsert(ctx, segments)
}

// Upsert inserts or replaces segments by id
func (r *SegmentRepository) Upsert(ctx context.Context, segments []models.RouteSegment) error {
	query := `INSERT INTO route_segments
		(id, user_id, start_time, end_time, from_visit_id, to_visit_id,
		 sample_ids, simplified_path, transport_type, distance_meters, average_speed_mps)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			start_time = excluded.start_time,
			end_time = excluded.end_time,
			from_visit_id = excluded.from_visit_id,
			to_visit_id = excluded.to_visit_id,
			sample_ids = excluded.sample_ids,
			simplified_path = excluded.simplified_path,
			transport_type = excluded.transport_type,
			distance_meters = excluded.distance_meters,
			average_speed_mps = excluded.average_speed_mps`

	for _, s := range segments {
		ids, err := encodeIDs(s.LocationSampleIDs)
		if err != nil {
			return err
		}
		if _, err := r.db.ExecContext(ctx, query,
			s.ID, s.UserID, toMillis(s.StartTime), toMillis(s.EndTime),
			s.FromPlaceVisitID, s.ToPlaceVisitID, ids, encodePath(s.SimplifiedPath),
			string(s.TransportType), s.DistanceMeters, nullFloat(s.AverageSpeedMps),
		); err != nil {
			return fmt.Errorf("failed to upsert segment %s: %w", s.ID, err)
		}
	}
	return nil
}

// List returns segments matching filter in time order. Segments
// overlapping the time range are included.
func (r *SegmentRepository) List(ctx context.Context, filter models.SegmentFilter) ([]models.RouteSegment, error) {
	query := `SELECT id, user_id, start_time, end_time, from_visit_id, to_visit_id,
		sample_ids, simplified_path, transport_type, distance_meters, average_speed_mps
		FROM route_segments WHERE user_id = ?`
	args := []any{filter.UserID}

	if !filter.StartTime.IsZero() {
		query += " AND end_time >= ?"
		args = append(args, toMillis(filter.StartTime))
	}
	if !filter.EndTime.IsZero() {
		query += " AND start_time <= ?"
		args = append(args, toMillis(filter.EndTime))
	}
	if filter.TransportType != "" {
		query += " AND transport_type = ?"
		args = append(args, string(filter.TransportType))
	}
	query += " ORDER BY start_time, id"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query segments: %w", err)
	}
	defer rows.Close()

	segments := []models.RouteSegment{}
	for rows.Next() {
		var s models.RouteSegment
		var st, et int64
		var ids, path, transport string
		var avg sql.NullFloat64
		if err := rows.Scan(&s.ID, &s.UserID, &st, &et, &s.FromPlaceVisitID, &s.ToPlaceVisitID,
			&ids, &path, &transport, &s.DistanceMeters, &avg); err != nil {
			return nil, fmt.Errorf("failed to scan segment: %w", err)
		}
		s.StartTime, s.EndTime = fromMillis(st), fromMillis(et)
		s.TransportType = models.TransportType(transport)
		s.AverageSpeedMps = floatPtr(avg)
		if s.LocationSampleIDs, err = decodeIDs(ids); err != nil {
			return nil, err
		}
		if s.SimplifiedPath, err = decodePath(path); err != nil {
			return nil, err
		}
		segments = append(segments, s)
	}
	return segments, rows.Err()
}
