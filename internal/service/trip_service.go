package service

import (
	"context"
	"errors"
	"time"

	"github.com/paulmach/orb/geojson"
	"go.uber.org/zap"

	"github.com/po4yka/trailglass-sub007/internal/analysis"
	"github.com/po4yka/trailglass-sub007/internal/analysis/timeline"
	"github.com/po4yka/trailglass-sub007/internal/analysis/viz"
	"github.com/po4yka/trailglass-sub007/internal/models"
	"github.com/po4yka/trailglass-sub007/internal/repository"
	"github.com/po4yka/trailglass-sub007/internal/timezone"
)

// TripService serves stored trips and the views derived from them
type TripService struct {
	trips    *repository.TripRepository
	visits   *repository.VisitRepository
	segments *repository.SegmentRepository
	samples  *repository.SampleRepository
	photos   *repository.PhotoRepository
	days     *timeline.Aggregator
	builder  *viz.RouteBuilder
	cache    *viz.RouteCache
	logger   *zap.Logger
	now      func() time.Time
}

// NewTripService creates a new trip service
func NewTripService(
	trips *repository.TripRepository,
	visits *repository.VisitRepository,
	segments *repository.SegmentRepository,
	samples *repository.SampleRepository,
	photos *repository.PhotoRepository,
	builder *viz.RouteBuilder,
	cache *viz.RouteCache,
	logger *zap.Logger,
) *TripService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TripService{
		trips:    trips,
		visits:   visits,
		segments: segments,
		samples:  samples,
		photos:   photos,
		days:     timeline.NewAggregator(),
		builder:  builder,
		cache:    cache,
		logger:   logger.Named("trips"),
		now:      time.Now,
	}
}

// List returns a page of the user's trips
func (s *TripService) List(ctx context.Context, filter models.TripFilter) (*models.TripsResponse, error) {
	filter.Normalize()
	trips, total, err := s.trips.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	totalPages := int(total) / filter.PageSize
	if int(total)%filter.PageSize > 0 {
		totalPages++
	}
	return &models.TripsResponse{
		Data:       trips,
		Total:      total,
		Page:       filter.Page,
		PageSize:   filter.PageSize,
		TotalPages: totalPages,
	}, nil
}

// Get returns one of the user's trips
func (s *TripService) Get(ctx context.Context, userID, id string) (*models.Trip, error) {
	trip, err := s.trips.GetByID(ctx, userID, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrTripNotFound
	}
	return trip, err
}

// window returns the time span of a trip; ongoing trips end now
func (s *TripService) window(trip *models.Trip) (time.Time, time.Time) {
	if trip.EndTime != nil {
		return trip.StartTime, *trip.EndTime
	}
	return trip.StartTime, s.now().UTC()
}

func (s *TripService) items(ctx context.Context, trip *models.Trip) ([]models.PlaceVisit, []models.RouteSegment, error) {
	start, end := s.window(trip)
	visits, err := s.visits.List(ctx, trip.UserID, start, end)
	if err != nil {
		return nil, nil, err
	}
	routes, err := s.segments.List(ctx, models.SegmentFilter{UserID: trip.UserID, StartTime: start, EndTime: end})
	if err != nil {
		return nil, nil, err
	}
	visits, routes = analysis.TripItems(*trip, visits, routes)
	return visits, routes, nil
}

// Days cuts the trip into calendar days in the trip's time zone
func (s *TripService) Days(ctx context.Context, userID, id string) ([]models.TripDay, error) {
	trip, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	visits, routes, err := s.items(ctx, trip)
	if err != nil {
		return nil, err
	}
	return s.days.Aggregate(*trip, visits, routes, timezone.Load(trip.TimeZone)), nil
}

// Route returns the trip route. Routes of closed trips are built once and
// then served from the cache; an ongoing trip still grows, so its route is
// built on every call.
func (s *TripService) Route(ctx context.Context, userID, id string) (models.TripRoute, error) {
	trip, err := s.Get(ctx, userID, id)
	if err != nil {
		return models.TripRoute{}, err
	}
	if trip.IsOngoing {
		s.cache.Invalidate(trip.ID)
		return s.buildRoute(ctx, trip)
	}
	return s.cache.GetOrBuild(trip.ID, func() (models.TripRoute, error) {
		return s.buildRoute(ctx, trip)
	})
}

func (s *TripService) buildRoute(ctx context.Context, trip *models.Trip) (models.TripRoute, error) {
	start, end := s.window(trip)
	visits, routes, err := s.items(ctx, trip)
	if err != nil {
		return models.TripRoute{}, err
	}
	samples, err := s.samples.List(ctx, models.SampleFilter{UserID: trip.UserID, StartTime: start, EndTime: end})
	if err != nil {
		return models.TripRoute{}, err
	}
	photos, err := s.photos.List(ctx, trip.UserID, start, end)
	if err != nil {
		return models.TripRoute{}, err
	}

	s.logger.Debug("Building trip route",
		zap.String("trip_id", trip.ID),
		zap.Int("samples", len(samples)),
		zap.Int("photos", len(photos)))

	return s.builder.Build(viz.RouteInput{
		Trip:     *trip,
		Samples:  samples,
		Segments: routes,
		Visits:   visits,
		Photos:   photos,
	}), nil
}

// RouteGeoJSON returns the trip route as a GeoJSON feature collection
func (s *TripService) RouteGeoJSON(ctx context.Context, userID, id string) (*geojson.FeatureCollection, error) {
	route, err := s.Route(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	return viz.ToGeoJSON(route), nil
}
