package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/po4yka/trailglass-sub007/internal/models"
)

// RunRepository handles database operations for processing runs
type RunRepository struct {
	db DBTX
}

// NewRunRepository creates a new processing run repository
func NewRunRepository(db DBTX) *RunRepository {
	return &RunRepository{db: db}
}

// Create inserts a run
func (r *RunRepository) Create(ctx context.Context, run *models.ProcessingRun) error {
	query := `INSERT INTO processing_runs
		(id, user_id, range_start, range_end, status, sample_count, visit_count, segment_count,
		 trip_count, error_message, started_at, completed_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	if _, err := r.db.ExecContext(ctx, query,
		run.ID, run.UserID, toMillis(run.RangeStart), toMillis(run.RangeEnd), string(run.Status),
		run.SampleCount, run.VisitCount, run.SegmentCount, run.TripCount, run.ErrorMessage,
		nullMillis(run.StartedAt), nullMillis(run.CompletedAt), toMillis(run.CreatedAt),
	); err != nil {
		return fmt.Errorf("failed to create processing run: %w", err)
	}
	return nil
}

// Update stores the run's status, counts and timestamps
func (r *RunRepository) Update(ctx context.Context, run *models.ProcessingRun) error {
	query := `UPDATE processing_runs SET
		status = ?, sample_count = ?, visit_count = ?, segment_count = ?, trip_count = ?,
		error_message = ?, started_at = ?, completed_at = ?
		WHERE id = ?`
	res, err := r.db.ExecContext(ctx, query,
		string(run.Status), run.SampleCount, run.VisitCount, run.SegmentCount, run.TripCount,
		run.ErrorMessage, nullMillis(run.StartedAt), nullMillis(run.CompletedAt), run.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update processing run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// GetByID returns a user's run
func (r *RunRepository) GetByID(ctx context.Context, userID, id string) (*models.ProcessingRun, error) {
	query := `SELECT id, user_id, range_start, range_end, status, sample_count, visit_count,
		segment_count, trip_count, error_message, started_at, completed_at, created_at
		FROM processing_runs WHERE id = ? AND user_id = ?`

	var run models.ProcessingRun
	var rs, re, created int64
	var status string
	var started, completed sql.NullInt64
	err := r.db.QueryRowContext(ctx, query, id, userID).Scan(
		&run.ID, &run.UserID, &rs, &re, &status, &run.SampleCount, &run.VisitCount,
		&run.SegmentCount, &run.TripCount, &run.ErrorMessage, &started, &completed, &created,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get processing run: %w", err)
	}
	run.RangeStart, run.RangeEnd = fromMillis(rs), fromMillis(re)
	run.Status = models.RunStatus(status)
	run.StartedAt, run.CompletedAt = timePtr(started), timePtr(completed)
	run.CreatedAt = fromMillis(created)
	return &run, nil
}
