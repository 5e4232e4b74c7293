package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/po4yka/trailglass-sub007/internal/analysis/media"
	"github.com/po4yka/trailglass-sub007/internal/models"
	"github.com/po4yka/trailglass-sub007/internal/repository"
)

// PhotoService registers photos and groups them into clusters
type PhotoService struct {
	repo      *repository.PhotoRepository
	clusterer *media.Clusterer
}

// NewPhotoService creates a new photo service
func NewPhotoService(repo *repository.PhotoRepository, clusterer *media.Clusterer) *PhotoService {
	return &PhotoService{repo: repo, clusterer: clusterer}
}

// Register stores photos for userID. Latitude and longitude must be
// given together.
func (s *PhotoService) Register(ctx context.Context, userID string, photos []models.Photo) (int, error) {
	for i := range photos {
		p := &photos[i]
		if p.TakenAt.IsZero() {
			return 0, fmt.Errorf("%w: photo %d has no timestamp", ErrInvalidInput, i)
		}
		if (p.Latitude == nil) != (p.Longitude == nil) {
			return 0, fmt.Errorf("%w: photo %d has a partial geotag", ErrInvalidInput, i)
		}
		if p.HasLocation() && (*p.Latitude < -90 || *p.Latitude > 90 || *p.Longitude < -180 || *p.Longitude > 180) {
			return 0, fmt.Errorf("%w: photo %d geotag out of range", ErrInvalidInput, i)
		}
		p.UserID = userID
		p.TakenAt = p.TakenAt.UTC()
		if p.ID == "" {
			p.ID = models.ContentID("photo", userID, p.URI, strconv.FormatInt(p.TakenAt.UnixMilli(), 10))
		}
	}
	if err := s.repo.Upsert(ctx, photos); err != nil {
		return 0, err
	}
	return len(photos), nil
}

// Clusters groups the user's geotagged photos taken in [start, end]
func (s *PhotoService) Clusters(ctx context.Context, userID string, start, end time.Time) ([]models.PhotoCluster, error) {
	if !end.After(start) {
		return nil, ErrInvalidRange
	}
	photos, err := s.repo.List(ctx, userID, start, end)
	if err != nil {
		return nil, err
	}
	return s.clusterer.Cluster(photos), nil
}
