package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/po4yka/trailglass-sub007/internal/analysis"
	"github.com/po4yka/trailglass-sub007/internal/analysis/behavior"
	"github.com/po4yka/trailglass-sub007/internal/analysis/viz"
	"github.com/po4yka/trailglass-sub007/internal/database"
	"github.com/po4yka/trailglass-sub007/internal/models"
	"github.com/po4yka/trailglass-sub007/internal/repository"
)

// homeLookback is how far before a run's range stored visits are used to find home
const homeLookback = 60 * 24 * time.Hour

// ProcessingService runs the batch pipeline over a user's stored samples
// and replaces the derived data of the processed range.
type ProcessingService struct {
	db       *sql.DB
	samples  *repository.SampleRepository
	visits   *repository.VisitRepository
	segments *repository.SegmentRepository
	trips    *repository.TripRepository
	runs     *repository.RunRepository
	pipeline *analysis.Pipeline
	home     *behavior.HomeDetector
	routes   *viz.RouteCache
	logger   *zap.Logger
	now      func() time.Time
}

// NewProcessingService creates a new processing service
func NewProcessingService(db *sql.DB, pipeline *analysis.Pipeline, home *behavior.HomeDetector, routes *viz.RouteCache, logger *zap.Logger) *ProcessingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProcessingService{
		db:       db,
		samples:  repository.NewSampleRepository(db),
		visits:   repository.NewVisitRepository(db),
		segments: repository.NewSegmentRepository(db),
		trips:    repository.NewTripRepository(db),
		runs:     repository.NewRunRepository(db),
		pipeline: pipeline,
		home:     home,
		routes:   routes,
		logger:   logger.Named("processing"),
		now:      time.Now,
	}
}

// Process runs the pipeline over [start, end]. The returned run is
// always non-nil once it has been created, also when err is not nil.
// Stages committed before a failure stay committed.
func (s *ProcessingService) Process(ctx context.Context, userID string, start, end time.Time) (*models.ProcessingRun, *analysis.ProcessingResult, error) {
	if userID == "" || start.IsZero() || !end.After(start) {
		return nil, nil, ErrInvalidRange
	}

	run := &models.ProcessingRun{
		ID:         models.NewID(),
		UserID:     userID,
		RangeStart: start.UTC(),
		RangeEnd:   end.UTC(),
		Status:     models.RunPending,
		CreatedAt:  s.now().UTC(),
	}
	if err := s.runs.Create(ctx, run); err != nil {
		return nil, nil, err
	}

	res, err := s.process(ctx, run)
	if err != nil {
		run.Status = models.RunFailed
		run.ErrorMessage = err.Error()
	} else {
		run.Status = models.RunCompleted
	}
	completed := s.now().UTC()
	run.CompletedAt = &completed

	// record the outcome even when the request context is gone
	if uerr := s.runs.Update(context.WithoutCancel(ctx), run); uerr != nil {
		s.logger.Error("Failed to update processing run", zap.String("run_id", run.ID), zap.Error(uerr))
	}
	return run, res, err
}

func (s *ProcessingService) process(ctx context.Context, run *models.ProcessingRun) (*analysis.ProcessingResult, error) {
	started := s.now().UTC()
	run.Status = models.RunRunning
	run.StartedAt = &started
	if err := s.runs.Update(ctx, run); err != nil {
		return nil, err
	}

	samples, err := s.samples.List(ctx, models.SampleFilter{
		UserID:    run.UserID,
		StartTime: run.RangeStart,
		EndTime:   run.RangeEnd,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load samples: %w", err)
	}
	run.SampleCount = len(samples)

	home, err := s.knownHome(ctx, run)
	if err != nil {
		return nil, err
	}

	in := analysis.Input{
		UserID:  run.UserID,
		Samples: samples,
		Home:    home,
		Hook: func(ctx context.Context, stage analysis.Stage, res *analysis.ProcessingResult) error {
			return s.persist(ctx, run, stage, res)
		},
	}
	res, err := s.pipeline.Run(ctx, in)

	if res != nil {
		run.VisitCount = len(res.Visits)
		run.SegmentCount = len(res.Routes)
		run.TripCount = len(res.Trips)
	}
	if err != nil {
		return res, err
	}

	s.logger.Info("Processing run completed",
		zap.String("run_id", run.ID),
		zap.String("user_id", run.UserID),
		zap.Int("samples", run.SampleCount),
		zap.Int("visits", run.VisitCount),
		zap.Int("trips", run.TripCount),
	)
	return res, nil
}

// knownHome looks for home in visits stored before the range. A nil home
// lets the pipeline detect it from the range itself.
func (s *ProcessingService) knownHome(ctx context.Context, run *models.ProcessingRun) (*behavior.HomeLocation, error) {
	if s.home == nil {
		return nil, nil
	}
	prior, err := s.visits.List(ctx, run.UserID, run.RangeStart.Add(-homeLookback), run.RangeStart)
	if err != nil {
		return nil, fmt.Errorf("failed to load prior visits: %w", err)
	}
	return s.home.Detect(prior), nil
}

// persist commits the output of one stage in its own transaction
func (s *ProcessingService) persist(ctx context.Context, run *models.ProcessingRun, stage analysis.Stage, res *analysis.ProcessingResult) error {
	var write func(tx *sql.Tx) error
	switch stage {
	case analysis.StageVisits:
		write = func(tx *sql.Tx) error {
			return s.visits.WithTx(tx).ReplaceRange(ctx, run.UserID, run.RangeStart, run.RangeEnd, res.Visits)
		}
	case analysis.StageSegments:
		write = func(tx *sql.Tx) error {
			return s.segments.WithTx(tx).ReplaceRange(ctx, run.UserID, run.RangeStart, run.RangeEnd, res.Routes)
		}
	case analysis.StageDays:
		// trips are written once their time zone and distance are known
		write = func(tx *sql.Tx) error {
			return s.trips.WithTx(tx).ReplaceRange(ctx, run.UserID, run.RangeStart, run.RangeEnd, res.Trips)
		}
	default:
		return nil
	}

	if err := database.Transaction(ctx, s.db, write); err != nil {
		return fmt.Errorf("failed to persist %s: %w", stage, err)
	}

	if stage == analysis.StageDays && s.routes != nil {
		for _, t := range res.Trips {
			s.routes.Invalidate(t.ID)
		}
	}
	return nil
}

// GetRun returns a user's processing run
func (s *ProcessingService) GetRun(ctx context.Context, userID, id string) (*models.ProcessingRun, error) {
	run, err := s.runs.GetByID(ctx, userID, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrRunNotFound
	}
	return run, err
}
