package analysis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/po4yka/trailglass-sub007/internal/analysis/behavior"
	"github.com/po4yka/trailglass-sub007/internal/analysis/foundation"
	"github.com/po4yka/trailglass-sub007/internal/analysis/timeline"
	"github.com/po4yka/trailglass-sub007/internal/analysis/visit"
	"github.com/po4yka/trailglass-sub007/internal/models"
)

// Stage names a step of the batch pipeline
type Stage string

// Pipeline stages in execution order
const (
	StageFilter   Stage = "filter"
	StageVisits   Stage = "visits"
	StageSegments Stage = "segments"
	StageTrips    Stage = "trips"
	StageDays     Stage = "days"
)

// ErrUnexpected marks a stage that panicked
var ErrUnexpected = errors.New("unexpected failure")

// StageError reports which stage failed
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// ZoneResolver picks the time zone of a coordinate
type ZoneResolver interface {
	Locate(lat, lon float64) *time.Location
}

// Config holds the configuration of every stage
type Config struct {
	Filter  foundation.FilterConfig
	Visit   visit.Config
	Segment behavior.SegmentConfig
	Home    behavior.HomeConfig
	Trip    behavior.TripConfig
}

// DefaultConfig returns the default configuration of every stage
func DefaultConfig() Config {
	return Config{
		Filter:  foundation.DefaultFilterConfig(),
		Visit:   visit.DefaultConfig(),
		Segment: behavior.DefaultSegmentConfig(),
		Home:    behavior.DefaultHomeConfig(),
		Trip:    behavior.DefaultTripConfig(),
	}
}

// StageHook is called after each stage with the result so far. Returning an
// error stops the run; outputs handed to earlier hook calls are kept.
type StageHook func(ctx context.Context, stage Stage, result *ProcessingResult) error

// Input is one pipeline invocation
type Input struct {
	UserID  string
	Samples []models.LocationSample

	// Home overrides home detection when set
	Home *behavior.HomeLocation
	Hook StageHook
}

// ProcessingResult is the output of one full pipeline run
type ProcessingResult struct {
	UserID          string                  `json:"userId"`
	InputSamples    int                     `json:"inputSamples"`
	FilteredSamples []models.LocationSample `json:"-"`
	Visits          []models.PlaceVisit     `json:"visits"`
	Routes          []models.RouteSegment   `json:"routes"`
	Home            *behavior.HomeLocation  `json:"home,omitempty"`
	Trips           []models.Trip           `json:"trips"`
	TripDays        []models.TripDay        `json:"tripDays"`
}

// Pipeline runs Filter, Visits, Segments, Home/Trips and Days in sequence.
// A Pipeline holds no per-run state and may be shared by concurrent runs.
type Pipeline struct {
	filter   *foundation.SampleFilter
	visits   *visit.Detector
	segments *behavior.SegmentBuilder
	home     *behavior.HomeDetector
	trips    *behavior.TripDetector
	days     *timeline.Aggregator
	zones    ZoneResolver
	logger   *zap.Logger
}

// NewPipeline creates a pipeline. geocoder and zones may be nil.
func NewPipeline(cfg Config, geocoder visit.Geocoder, zones ZoneResolver, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		filter:   foundation.NewSampleFilter(cfg.Filter, logger),
		visits:   visit.NewDetector(cfg.Visit, geocoder, logger),
		segments: behavior.NewSegmentBuilder(cfg.Segment, logger),
		home:     behavior.NewHomeDetector(cfg.Home, zones, logger),
		trips:    behavior.NewTripDetector(cfg.Trip, logger),
		days:     timeline.NewAggregator(),
		zones:    zones,
		logger:   logger.Named("pipeline"),
	}
}

// Run processes one user's samples. No data yields an empty result and a
// nil error; a failing or panicking stage yields a *StageError.
func (p *Pipeline) Run(ctx context.Context, in Input) (*ProcessingResult, error) {
	res := &ProcessingResult{
		UserID:       in.UserID,
		InputSamples: len(in.Samples),
		Visits:       []models.PlaceVisit{},
		Routes:       []models.RouteSegment{},
		Trips:        []models.Trip{},
		TripDays:     []models.TripDay{},
	}

	stages := []struct {
		stage Stage
		run   func(context.Context) error
	}{
		{StageFilter, func(context.Context) error {
			res.FilteredSamples = p.filter.Filter(in.Samples)
			return nil
		}},
		{StageVisits, func(ctx context.Context) error {
			visits, err := p.visits.Detect(ctx, res.FilteredSamples)
			if err != nil {
				return err
			}
			res.Visits = visits
			return nil
		}},
		{StageSegments, func(context.Context) error {
			res.Routes = p.segments.Build(res.FilteredSamples, res.Visits)
			return nil
		}},
		{StageTrips, func(context.Context) error {
			res.Home = in.Home
			if res.Home == nil {
				res.Home = p.home.Detect(res.Visits)
			}
			res.Trips = p.trips.Detect(in.UserID, res.Visits, res.Home)
			return nil
		}},
		{StageDays, func(context.Context) error {
			res.TripDays = p.buildDays(res)
			return nil
		}},
	}

	for _, s := range stages {
		if err := ctx.Err(); err != nil {
			return res, p.fail(in, s.stage, err)
		}
		if err := runStage(ctx, s.run); err != nil {
			return res, p.fail(in, s.stage, err)
		}
		if in.Hook != nil {
			if err := in.Hook(ctx, s.stage, res); err != nil {
				return res, p.fail(in, s.stage, err)
			}
		}
	}

	p.logger.Info("pipeline completed",
		zap.String("user_id", in.UserID),
		zap.Int("samples", res.InputSamples),
		zap.Int("filtered", len(res.FilteredSamples)),
		zap.Int("visits", len(res.Visits)),
		zap.Int("routes", len(res.Routes)),
		zap.Int("trips", len(res.Trips)),
		zap.Bool("home_found", res.Home != nil),
	)
	return res, nil
}

// buildDays resolves each trip's time zone and cuts its visits and routes
// into days. Trip distance is filled from the routes that fall in the trip.
func (p *Pipeline) buildDays(res *ProcessingResult) []models.TripDay {
	days := []models.TripDay{}
	for i := range res.Trips {
		trip := &res.Trips[i]
		visits, routes := TripItems(*trip, res.Visits, res.Routes)

		loc := time.UTC
		if p.zones != nil && len(visits) > 0 {
			if l := p.zones.Locate(visits[0].CenterLatitude, visits[0].CenterLongitude); l != nil {
				loc = l
			}
		}
		trip.TimeZone = loc.String()

		trip.DistanceMeters = 0
		for _, r := range routes {
			trip.DistanceMeters += r.DistanceMeters
		}

		days = append(days, p.days.Aggregate(*trip, visits, routes, loc)...)
	}
	return days
}

// TripItems selects the visits and routes that overlap the trip
func TripItems(trip models.Trip, visits []models.PlaceVisit, routes []models.RouteSegment) ([]models.PlaceVisit, []models.RouteSegment) {
	var tv []models.PlaceVisit
	for _, v := range visits {
		if trip.Overlaps(v.StartTime, v.EndTime) {
			tv = append(tv, v)
		}
	}
	var tr []models.RouteSegment
	for _, r := range routes {
		if trip.Overlaps(r.StartTime, r.EndTime) {
			tr = append(tr, r)
		}
	}
	return tv, tr
}

func (p *Pipeline) fail(in Input, stage Stage, err error) error {
	var start, end time.Time
	if n := len(in.Samples); n > 0 {
		start, end = in.Samples[0].Timestamp, in.Samples[n-1].Timestamp
	}
	p.logger.Error("pipeline stage failed",
		zap.String("user_id", in.UserID),
		zap.String("stage", string(stage)),
		zap.Time("range_start", start),
		zap.Time("range_end", end),
		zap.Error(err),
	)
	return &StageError{Stage: stage, Err: err}
}

func runStage(ctx context.Context, fn func(context.Context) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrUnexpected, r)
		}
	}()
	return fn(ctx)
}
