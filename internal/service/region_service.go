package service

import (
	"context"
	"fmt"
	"strconv"

	"github.com/po4yka/trailglass-sub007/internal/models"
	"github.com/po4yka/trailglass-sub007/internal/realtime"
	"github.com/po4yka/trailglass-sub007/internal/repository"
)

// RegionService manages the geofences watched by live sessions
type RegionService struct {
	repo *repository.RegionRepository
	live *realtime.Manager
}

// NewRegionService creates a new region service. live may be nil.
func NewRegionService(repo *repository.RegionRepository, live *realtime.Manager) *RegionService {
	return &RegionService{repo: repo, live: live}
}

// List returns the user's geofences
func (s *RegionService) List(ctx context.Context, userID string) ([]models.Region, error) {
	return s.repo.ListRegions(ctx, userID)
}

// Replace stores regions as the user's complete set of geofences and
// makes open live sessions pick them up.
func (s *RegionService) Replace(ctx context.Context, userID string, regions []models.Region) ([]models.Region, error) {
	seen := make(map[string]bool, len(regions))
	for i := range regions {
		g := &regions[i]
		if g.RadiusMeters <= 0 {
			return nil, fmt.Errorf("%w: region %d has no radius", ErrInvalidInput, i)
		}
		if g.Latitude < -90 || g.Latitude > 90 || g.Longitude < -180 || g.Longitude > 180 {
			return nil, fmt.Errorf("%w: region %d out of range", ErrInvalidInput, i)
		}
		if g.ID == "" {
			g.ID = models.ContentID("region", userID, strconv.FormatFloat(g.Latitude, 'f', 6, 64),
				strconv.FormatFloat(g.Longitude, 'f', 6, 64), strconv.FormatFloat(g.RadiusMeters, 'f', 1, 64))
		}
		if seen[g.ID] {
			return nil, fmt.Errorf("%w: duplicate region id %s", ErrInvalidInput, g.ID)
		}
		seen[g.ID] = true
		g.UserID = userID
	}

	if err := s.repo.Replace(ctx, userID, regions); err != nil {
		return nil, err
	}
	if s.live != nil {
		s.live.ReloadRegions(userID)
	}
	return regions, nil
}
